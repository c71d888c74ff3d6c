package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

const (
	RoleSysAdmin     = "SYS_ADMIN"
	RoleSocietyAdmin = "SOCIETY_ADMIN"
	RoleMaid         = "MAID"
	RoleHousehold    = "HOUSEHOLD"
)

type User struct {
	ID                 string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name               string     `gorm:"not null" json:"name"`
	Username           string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Phone              string     `gorm:"type:varchar(20);uniqueIndex:idx_users_phone,where:phone <> ''" json:"phone"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	Role               string     `gorm:"type:varchar(20);not null;index" json:"role"`
	SocietyID          *string    `gorm:"type:varchar(64);index" json:"societyId"`
	IsVerified         bool       `gorm:"not null;default:false" json:"isVerified"`
	Skills             StringList `gorm:"type:jsonb" json:"skills"`
	Leaves             StringList `gorm:"type:jsonb" json:"leaves"`
	MustChangePassword bool       `gorm:"not null;default:false" json:"mustChangePassword"`
	Address            string     `json:"address"`
	AvatarURL          string     `json:"avatarUrl"`
	LastLogin          *time.Time `json:"lastLogin"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	// Aggregated from reviews when selected.
	Rating      float64 `gorm:"->;-:migration" json:"rating"`
	ReviewCount int     `gorm:"->;-:migration" json:"reviewCount"`

	Society *Society `gorm:"foreignKey:SocietyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = utils.NewID("u")
	}
	return
}

func (u *User) AfterFind(tx *gorm.DB) (err error) {
	u.Rating = math.Round(u.Rating*10) / 10
	return
}

// IsAdmin reports whether the account administers the system or a society.
func (u *User) IsAdmin() bool {
	return u.Role == RoleSysAdmin || u.Role == RoleSocietyAdmin
}

// StringList is a JSONB array of strings.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

func (s *StringList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(raw, (*[]string)(s))
}

// UserPatchRules is the allow-list for profile updates.
var UserPatchRules = PatchRules[User]{
	"name": {Column: "name", Apply: RequiredField(func(u *User, v string) error {
		if strings.TrimSpace(v) == "" {
			return errBlank
		}
		u.Name = strings.TrimSpace(v)
		return nil
	})},
	"address": {Column: "address", Apply: NullableField(func(u *User, v *string) error {
		u.Address = ""
		if v != nil {
			u.Address = *v
		}
		return nil
	})},
	"avatarUrl": {Column: "avatar_url", Apply: NullableField(func(u *User, v *string) error {
		u.AvatarURL = ""
		if v != nil {
			u.AvatarURL = *v
		}
		return nil
	})},
	"phone": {Column: "phone", Apply: RequiredField(func(u *User, v string) error {
		if !utils.ValidatePhone(v) {
			return errors.New("is not a valid phone number")
		}
		u.Phone = v
		return nil
	})},
}
