package models

import (
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

// Service is a global catalogue entry.
type Service struct {
	ID              string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name            LocalizedString `gorm:"type:jsonb;not null" json:"name"`
	Description     LocalizedString `gorm:"type:jsonb" json:"description"`
	BasePrice       float64         `gorm:"type:decimal(10,2);not null" json:"basePrice"`
	DurationMinutes int             `gorm:"not null;default:0" json:"durationMinutes"`
	Icon            string          `gorm:"type:varchar(64)" json:"icon"`
	IsGeneric       bool            `gorm:"default:false" json:"isGeneric"`
	IsActive        bool            `gorm:"default:true;index" json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = utils.NewID("srv")
	}
	return
}

// ServicePatchRules is the allow-list for catalogue updates. None of the
// fields accept null.
var ServicePatchRules = PatchRules[Service]{
	"name": {Column: "name", Apply: LocalizedField(func(s *Service) *LocalizedString { return &s.Name }, false)},
	"description": {Column: "description", Apply: func(s *Service, raw []byte) error {
		v, err := ParseLocalized(raw)
		if err != nil {
			return err
		}
		s.Description = v
		return nil
	}},
	"basePrice": {Column: "base_price", Apply: RequiredField(func(s *Service, v float64) error {
		if v < 0 {
			return errNegative
		}
		s.BasePrice = v
		return nil
	})},
	"durationMinutes": {Column: "duration_minutes", Apply: RequiredField(func(s *Service, v int) error {
		if v < 0 {
			return errNegative
		}
		s.DurationMinutes = v
		return nil
	})},
	"icon": {Column: "icon", Apply: RequiredField(func(s *Service, v string) error {
		if v == "" {
			return errBlank
		}
		s.Icon = v
		return nil
	})},
	"isGeneric": {Column: "is_generic", Apply: RequiredField(func(s *Service, v bool) error {
		s.IsGeneric = v
		return nil
	})},
	"isActive": {Column: "is_active", Apply: RequiredField(func(s *Service, v bool) error {
		s.IsActive = v
		return nil
	})},
}
