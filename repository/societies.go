package repository

import (
	"context"

	"sevaconnect-backend/models"

	"gorm.io/gorm"
)

var openBookingStatuses = []models.BookingStatus{models.StatusConfirmed, models.StatusRequested, models.StatusInProgress}

func (r *Repository) ListSocieties(ctx context.Context) ([]models.Society, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var societies []models.Society
	err := db.Order("name ASC").Find(&societies).Error
	return societies, translate(err)
}

func (r *Repository) GetSociety(ctx context.Context, id string) (*models.Society, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var s models.Society
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *Repository) SocietyCodeTaken(ctx context.Context, code string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&models.Society{}).Where("code = ?", code).Count(&n).Error
	return n > 0, translate(err)
}

// CreateSocietyWithAdmin inserts the society and its admin account together.
func (r *Repository) CreateSocietyWithAdmin(ctx context.Context, s *models.Society, admin *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		admin.SocietyID = &s.ID
		return tx.Omit("Society").Create(admin).Error
	}))
}

// SocietyStats counts members, unverified members and bookings active on today.
func (r *Repository) SocietyStats(ctx context.Context, societyID, today string) (models.SocietyStats, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var stats models.SocietyStats
	members := db.Model(&models.User{}).Where("society_id = ? AND role <> ?", societyID, models.RoleSocietyAdmin)
	if err := members.Count(&stats.TotalUsers).Error; err != nil {
		return stats, translate(err)
	}
	err := db.Model(&models.User{}).
		Where("society_id = ? AND role <> ? AND is_verified = ?", societyID, models.RoleSocietyAdmin, false).
		Count(&stats.PendingVerifications).Error
	if err != nil {
		return stats, translate(err)
	}
	err = db.Model(&models.Booking{}).
		Joins("JOIN users ON users.id = bookings.household_id").
		Where("users.society_id = ? AND bookings.date = ? AND bookings.status IN ?",
			societyID, today, []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress}).
		Count(&stats.ActiveBookingsToday).Error
	return stats, translate(err)
}

// RecentActivity lists the latest registrations in a society.
func (r *Repository) RecentActivity(ctx context.Context, societyID string, limit int) ([]models.SocietyActivity, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var activity []models.SocietyActivity
	err := db.Model(&models.User{}).
		Select("id, name, role, is_verified, created_at").
		Where("society_id = ? AND role <> ?", societyID, models.RoleSocietyAdmin).
		Order("created_at DESC").
		Limit(limit).
		Scan(&activity).Error
	return activity, translate(err)
}

// ListSocietiesWithStats reports member counts and bookings expected between
// start and end inclusive.
func (r *Repository) ListSocietiesWithStats(ctx context.Context, start, end string) ([]models.SocietySummary, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []models.SocietySummary
	err := db.Model(&models.Society{}).
		Select(`societies.*,
			(SELECT COUNT(*) FROM users u WHERE u.society_id = societies.id AND u.role = ?) AS household_count,
			(SELECT COUNT(*) FROM users u WHERE u.society_id = societies.id AND u.role = ?) AS maid_count,
			(SELECT COUNT(*) FROM bookings b JOIN users h ON h.id = b.household_id
				WHERE h.society_id = societies.id AND b.date >= ? AND b.date <= ? AND b.status IN ?) AS expected_bookings`,
			models.RoleHousehold, models.RoleMaid, start, end, openBookingStatuses).
		Order("societies.name ASC").
		Scan(&rows).Error
	return rows, translate(err)
}
