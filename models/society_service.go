package models

import (
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

// SocietyService is a society's offering. A row linked to a catalogue
// Service inherits every field it does not override; a row without a link
// is exclusive to the society and carries all of its own values.
type SocietyService struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	SocietyID   string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_society_service_link" json:"societyId"`
	ServiceID   *string         `gorm:"type:varchar(64);uniqueIndex:idx_society_service_link" json:"serviceId"`
	Name        LocalizedString `gorm:"type:jsonb" json:"name"`
	Description LocalizedString `gorm:"type:jsonb" json:"description"`
	Price       *float64        `gorm:"type:decimal(10,2)" json:"price"`
	Duration    *int            `json:"duration"`
	Icon        *string         `gorm:"type:varchar(64)" json:"icon"`
	IsGeneric   *bool           `json:"isGeneric"`
	IsActive    bool            `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`

	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnDelete:RESTRICT" json:"-"`
	Society *Society `gorm:"foreignKey:SocietyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *SocietyService) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = utils.NewID("ss")
	}
	return
}

// IsExclusive reports whether the row has no catalogue link.
func (s *SocietyService) IsExclusive() bool {
	return s.ServiceID == nil || *s.ServiceID == ""
}

// MissingExclusiveFields names the fields an exclusive row lacks. Linked rows
// never miss anything since they inherit.
func (s *SocietyService) MissingExclusiveFields() []string {
	if !s.IsExclusive() {
		return nil
	}
	var missing []string
	if !s.Name.HasFallback() {
		missing = append(missing, "name")
	}
	if s.Price == nil {
		missing = append(missing, "price")
	}
	if s.Duration == nil {
		missing = append(missing, "duration")
	}
	if s.Icon == nil || *s.Icon == "" {
		missing = append(missing, "icon")
	}
	return missing
}

// SocietyServicePatchRules is the allow-list for offering updates. Null on an
// override clears it so the row inherits again; isActive never takes null.
var SocietyServicePatchRules = PatchRules[SocietyService]{
	"name":        {Column: "name", Apply: LocalizedField(func(s *SocietyService) *LocalizedString { return &s.Name }, true)},
	"description": {Column: "description", Apply: LocalizedField(func(s *SocietyService) *LocalizedString { return &s.Description }, true)},
	"price": {Column: "price", Apply: NullableField(func(s *SocietyService, v *float64) error {
		if v != nil && *v < 0 {
			return errNegative
		}
		s.Price = v
		return nil
	})},
	"duration": {Column: "duration", Apply: NullableField(func(s *SocietyService, v *int) error {
		if v != nil && *v < 0 {
			return errNegative
		}
		s.Duration = v
		return nil
	})},
	"icon": {Column: "icon", Apply: NullableField(func(s *SocietyService, v *string) error {
		if v != nil && *v == "" {
			v = nil
		}
		s.Icon = v
		return nil
	})},
	"isGeneric": {Column: "is_generic", Apply: NullableField(func(s *SocietyService, v *bool) error {
		s.IsGeneric = v
		return nil
	})},
	"isActive": {Column: "is_active", Apply: RequiredField(func(s *SocietyService, v bool) error {
		s.IsActive = v
		return nil
	})},
}
