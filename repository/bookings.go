package repository

import (
	"context"

	"sevaconnect-backend/models"

	"gorm.io/gorm"
)

func withBookingDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("SocietyService.Service").Preload("Maid").Preload("Household")
}

func (r *Repository) CreateBooking(ctx context.Context, b *models.Booking) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Omit("SocietyService", "Household", "Maid").Create(b).Error)
}

func (r *Repository) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var b models.Booking
	if err := withBookingDetails(db).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// ListBookings returns matching bookings, newest slot first.
func (r *Repository) ListBookings(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := withBookingDetails(db).Model(&models.Booking{})
	if f.HouseholdID != "" {
		q = q.Where("household_id = ?", f.HouseholdID)
	}
	if f.MaidID != "" {
		q = q.Where("maid_id = ?", f.MaidID)
	}
	if f.SocietyID != "" {
		q = q.Where("household_id IN (?)", db.Model(&models.User{}).Select("id").Where("society_id = ?", f.SocietyID))
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	var bookings []models.Booking
	err := q.Order("date DESC, start_time DESC").Find(&bookings).Error
	return bookings, translate(err)
}

func (r *Repository) UpdateBookingColumns(ctx context.Context, b *models.Booking, cols []string) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return updateColumns(db, b, cols)
}

// AdvanceBookingStatus moves a booking to `to` only while its status is one
// of `from`. It reports whether a row changed.
func (r *Repository) AdvanceBookingStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
