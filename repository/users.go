package repository

import (
	"context"

	"sevaconnect-backend/models"

	"gorm.io/gorm"
)

const userColumns = `users.*,
	COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.maid_id = users.id), 0) AS rating,
	(SELECT COUNT(*) FROM reviews WHERE reviews.maid_id = users.id) AS review_count`

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var u models.User
	if err := db.Select(userColumns).First(&u, "users.id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindUserByIdentifier matches any identifier against username or phone.
func (r *Repository) FindUserByIdentifier(ctx context.Context, identifiers ...string) (*models.User, error) {
	ids := nonEmpty(identifiers)
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	db, cancel := r.conn(ctx)
	defer cancel()

	var u models.User
	err := db.Select(userColumns).
		Where("users.username IN ? OR users.phone IN ?", ids, ids).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// IdentifierTaken reports whether any identifier is already a username or phone.
func (r *Repository) IdentifierTaken(ctx context.Context, identifiers ...string) (bool, error) {
	ids := nonEmpty(identifiers)
	if len(ids) == 0 {
		return false, nil
	}
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&models.User{}).Where("username IN ? OR phone IN ?", ids, ids).Count(&n).Error
	return n > 0, translate(err)
}

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Omit("Society").Create(u).Error)
}

func (r *Repository) UpdateUserColumns(ctx context.Context, u *models.User, cols []string) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return updateColumns(db, u, cols)
}

// ListUsersBySociety returns the society's members without its admins.
func (r *Repository) ListUsersBySociety(ctx context.Context, societyID string) ([]models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var users []models.User
	err := db.Select(userColumns).
		Where("users.society_id = ? AND users.role <> ?", societyID, models.RoleSocietyAdmin).
		Order("users.name ASC").
		Find(&users).Error
	return users, translate(err)
}

// DeleteUserCascade removes a user with their bookings and everything
// hanging off them.
func (r *Repository) DeleteUserCascade(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Transaction(func(tx *gorm.DB) error {
		bookings := tx.Model(&models.Booking{}).Select("id").Where("household_id = ? OR maid_id = ?", id, id)

		if err := tx.Where("sender_id = ? OR booking_id IN (?)", id, bookings).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("maid_id = ? OR household_id = ? OR booking_id IN (?)", id, id, bookings).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("booking_id IN (?)", bookings).Delete(&models.ReminderLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("household_id = ? OR maid_id = ?", id, id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}
