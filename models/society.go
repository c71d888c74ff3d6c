package models

import (
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

type Society struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `json:"address"`
	Code      string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Society) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = utils.NewID("soc")
	}
	return
}

// SocietyStats summarises a society for its admin dashboard.
type SocietyStats struct {
	TotalUsers           int64 `json:"totalUsers"`
	PendingVerifications int64 `json:"pendingVerifications"`
	ActiveBookingsToday  int64 `json:"activeBookingsToday"`
}

// SocietyActivity is one recent registration.
type SocietyActivity struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SocietySummary lists a society with usage counts over a date range.
type SocietySummary struct {
	Society
	HouseholdCount   int64 `json:"householdCount"`
	MaidCount        int64 `json:"maidCount"`
	ExpectedBookings int64 `json:"expectedBookings"`
}
