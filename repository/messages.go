package repository

import (
	"context"

	"sevaconnect-backend/models"
)

func (r *Repository) AppendMessage(ctx context.Context, m *models.ChatMessage) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Omit("Booking").Create(m).Error)
}

func (r *Repository) ListMessages(ctx context.Context, bookingID string) ([]models.ChatMessage, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var msgs []models.ChatMessage
	err := db.Where("booking_id = ?", bookingID).Order("timestamp ASC, id ASC").Find(&msgs).Error
	return msgs, translate(err)
}

// CountMessages returns message counts for the bookings that have any.
func (r *Repository) CountMessages(ctx context.Context, bookingIDs []string) (map[string]int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []struct {
		BookingID string
		Count     int64
	}
	err := db.Model(&models.ChatMessage{}).
		Select("booking_id, COUNT(*) AS count").
		Where("booking_id IN ?", bookingIDs).
		Group("booking_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.BookingID] = row.Count
	}
	return counts, nil
}
