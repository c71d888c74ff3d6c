package models

import (
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

// Review rates a maid for one booking. A booking takes at most one review.
type Review struct {
	ID            string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	BookingID     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"bookingId"`
	MaidID        string    `gorm:"type:varchar(64);not null;index" json:"maidId"`
	HouseholdID   string    `gorm:"type:varchar(64);not null;index" json:"householdId"`
	HouseholdName string    `json:"householdName"`
	Rating        int       `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment       string    `gorm:"type:text" json:"comment"`
	Date          string    `gorm:"type:varchar(10);not null" json:"date"`
	CreatedAt     time.Time `json:"createdAt"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = utils.NewID("rv")
	}
	return
}
