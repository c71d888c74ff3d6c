package repository

import (
	"context"

	"sevaconnect-backend/models"

	"gorm.io/gorm"
)

// AddReview flags the booking as reviewed and stores the review in one
// transaction. A booking that already has a review fails with ErrDuplicate.
func (r *Repository) AddReview(ctx context.Context, rv *models.Review) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Review{}).Where("booking_id = ?", rv.BookingID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		res := tx.Model(&models.Booking{}).Where("id = ?", rv.BookingID).Update("is_reviewed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Omit("Booking").Create(rv).Error
	}))
}

func (r *Repository) ListReviewsForMaid(ctx context.Context, maidID string) ([]models.Review, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var reviews []models.Review
	err := db.Where("maid_id = ?", maidID).Order("date DESC, created_at DESC").Find(&reviews).Error
	return reviews, translate(err)
}
