// models/reminder_log.go
package models

import (
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

const (
	ReminderSent   = "sent"
	ReminderFailed = "failed"
)

// ReminderLog records one reminder attempt for a booking occurrence.
type ReminderLog struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	BookingID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_reminder_occurrence" json:"bookingId"`
	HouseholdID  string    `gorm:"type:varchar(64);index;not null" json:"householdId"`
	Occurrence   string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_reminder_occurrence" json:"occurrence"`
	Channel      string    `gorm:"type:varchar(20)" json:"channel"` // sms
	Status       string    `gorm:"type:varchar(20)" json:"status"`  // sent, failed
	Message      string    `gorm:"type:text" json:"message"`
	ErrorMessage string    `gorm:"type:text" json:"errorMessage"`
	SentAt       time.Time `json:"sentAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = utils.NewID("rl")
	}
	return
}
