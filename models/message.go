package models

import (
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

// ChatMessage is one entry in a booking's append-only conversation.
type ChatMessage struct {
	ID         string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	BookingID  string    `gorm:"type:varchar(64);not null;index:idx_messages_booking_time,priority:1" json:"bookingId"`
	SenderID   string    `gorm:"type:varchar(64);not null;index" json:"senderId"`
	SenderName string    `gorm:"not null" json:"senderName"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Timestamp  time.Time `gorm:"not null;index:idx_messages_booking_time,priority:2" json:"timestamp"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ChatMessage) TableName() string {
	return "messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = utils.NewID("msg")
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return
}
