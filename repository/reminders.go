package repository

import (
	"context"

	"sevaconnect-backend/models"

	"gorm.io/gorm/clause"
)

// HasReminderLog reports whether an occurrence was already reminded. Failed
// attempts do not count, so the next run retries them.
func (r *Repository) HasReminderLog(ctx context.Context, bookingID, occurrence string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&models.ReminderLog{}).
		Where("booking_id = ? AND occurrence = ? AND status = ?", bookingID, occurrence, models.ReminderSent).
		Count(&n).Error
	return n > 0, translate(err)
}

// CreateReminderLog records an attempt, replacing an earlier attempt for the
// same occurrence.
func (r *Repository) CreateReminderLog(ctx context.Context, log *models.ReminderLog) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "booking_id"}, {Name: "occurrence"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "message", "error_message", "sent_at"}),
	}).Create(log).Error)
}
