package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"sevaconnect-backend/utils"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusRequested  BookingStatus = "REQUESTED"
	StatusConfirmed  BookingStatus = "CONFIRMED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
	StatusRejected   BookingStatus = "REJECTED"
)

var transitions = map[BookingStatus][]BookingStatus{
	StatusRequested:  {StatusConfirmed, StatusCancelled, StatusRejected},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusRejected},
	StatusInProgress: {StatusCompleted},
}

// manualTransitions are the moves a caller may make without a code.
// IN_PROGRESS and COMPLETED are only reached through OTP verification.
var manualTransitions = map[BookingStatus][]BookingStatus{
	StatusRequested: {StatusConfirmed, StatusCancelled, StatusRejected},
	StatusConfirmed: {StatusCancelled, StatusRejected},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another.
func CanTransition(from, to BookingStatus) bool {
	return allowed(transitions, from, to)
}

// OTPGated reports whether a status is reached only by verifying a code.
func (s BookingStatus) OTPGated() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// CanMoveManually reports whether a booking may be confirmed, rejected or
// cancelled from its current status.
func CanMoveManually(from, to BookingStatus) bool {
	if from.IsTerminal() {
		return false
	}
	return allowed(manualTransitions, from, to)
}

func allowed(table map[BookingStatus][]BookingStatus, from, to BookingStatus) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OTPPhase selects the start or end code of a booking.
type OTPPhase string

const (
	PhaseStart OTPPhase = "start"
	PhaseEnd   OTPPhase = "end"
)

var ErrInvalidPhase = errors.New(`phase must be "start" or "end"`)

func ParsePhase(s string) (OTPPhase, error) {
	switch OTPPhase(s) {
	case PhaseStart, PhaseEnd:
		return OTPPhase(s), nil
	}
	return "", ErrInvalidPhase
}

func (p OTPPhase) CodeColumn() string {
	if p == PhaseStart {
		return "start_otp"
	}
	return "end_otp"
}

func (p OTPPhase) FlagColumn() string {
	if p == PhaseStart {
		return "maid_requested_start"
	}
	return "maid_requested_end"
}

// TargetStatus is the status a verified code moves the booking to.
func (p OTPPhase) TargetStatus() BookingStatus {
	if p == PhaseStart {
		return StatusInProgress
	}
	return StatusCompleted
}

// AllowedFrom lists the statuses a verified code may advance from. The end
// code is accepted before the start code has been used.
func (p OTPPhase) AllowedFrom() []BookingStatus {
	if p == PhaseStart {
		return []BookingStatus{StatusRequested, StatusConfirmed}
	}
	return []BookingStatus{StatusRequested, StatusConfirmed, StatusInProgress}
}

type Frequency string

const (
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
	FrequencyCustom   Frequency = "CUSTOM"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

type Booking struct {
	ID                  string        `gorm:"type:varchar(64);primaryKey" json:"id"`
	SocietyServiceID    string        `gorm:"type:varchar(64);not null;index" json:"societyServiceId"`
	HouseholdID         string        `gorm:"type:varchar(64);not null;index" json:"householdId"`
	MaidID              string        `gorm:"type:varchar(64);not null;index" json:"maidId"`
	Date                string        `gorm:"type:varchar(10);not null;index" json:"date"`
	StartTime           string        `gorm:"type:varchar(5);not null" json:"startTime"`
	EndTime             string        `gorm:"type:varchar(5);not null" json:"endTime"`
	Status              BookingStatus `gorm:"type:varchar(20);not null;default:'REQUESTED';index" json:"status"`
	StartOTP            *string       `gorm:"column:start_otp;type:varchar(4)" json:"startOtp"`
	EndOTP              *string       `gorm:"column:end_otp;type:varchar(4)" json:"endOtp"`
	MaidRequestedStart  bool          `gorm:"not null;default:false" json:"maidRequestedStart"`
	MaidRequestedEnd    bool          `gorm:"not null;default:false" json:"maidRequestedEnd"`
	IsRecurring         bool          `gorm:"not null;default:false" json:"isRecurring"`
	Frequency           *Frequency    `gorm:"type:varchar(20)" json:"frequency"`
	CustomFrequencyDays *int          `json:"customFrequencyDays"`
	IsReviewed          bool          `gorm:"not null;default:false" json:"isReviewed"`
	CustomPrice         *float64      `gorm:"type:decimal(10,2)" json:"customPrice"`
	CustomDescription   *string       `gorm:"type:text" json:"customDescription"`
	PriceAtBooking      float64       `gorm:"type:decimal(10,2);not null" json:"priceAtBooking"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`

	SocietyService *SocietyService `gorm:"foreignKey:SocietyServiceID;constraint:OnDelete:RESTRICT" json:"-"`
	Household      *User           `gorm:"foreignKey:HouseholdID" json:"-"`
	Maid           *User           `gorm:"foreignKey:MaidID" json:"-"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = utils.NewID("bk")
	}
	return
}

// OTP returns the stored code for a phase.
func (b *Booking) OTP(p OTPPhase) *string {
	if p == PhaseStart {
		return b.StartOTP
	}
	return b.EndOTP
}

// SetOTP stores code for a phase, nil clears it.
func (b *Booking) SetOTP(p OTPPhase, code *string) {
	if p == PhaseStart {
		b.StartOTP = code
		return
	}
	b.EndOTP = code
}

func (b *Booking) Requested(p OTPPhase) bool {
	if p == PhaseStart {
		return b.MaidRequestedStart
	}
	return b.MaidRequestedEnd
}

func (b *Booking) SetRequested(p OTPPhase, v bool) {
	if p == PhaseStart {
		b.MaidRequestedStart = v
		return
	}
	b.MaidRequestedEnd = v
}

// ValidateRecurrence checks a recurrence descriptor. One-off bookings ignore
// frequency fields.
func ValidateRecurrence(isRecurring bool, freq *Frequency, customDays *int) error {
	if !isRecurring {
		return nil
	}
	if freq == nil || !freq.Valid() {
		return errors.New("frequency must be one of DAILY, WEEKLY, BIWEEKLY, MONTHLY, CUSTOM")
	}
	if *freq == FrequencyCustom && (customDays == nil || *customDays <= 0) {
		return errors.New("customFrequencyDays must be positive for CUSTOM frequency")
	}
	return nil
}

// OccursOn reports whether the booking has an occurrence on day. Recurring
// series start at Date and repeat by frequency.
func (b *Booking) OccursOn(day time.Time) bool {
	start, err := utils.ParseDate(b.Date)
	if err != nil {
		return false
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		return false
	}
	if !b.IsRecurring || b.Frequency == nil {
		return day.Equal(start)
	}
	days := utils.DaysBetween(start, day)
	switch *b.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return days%7 == 0
	case FrequencyBiweekly:
		return days%14 == 0
	case FrequencyMonthly:
		return day.Day() == start.Day()
	case FrequencyCustom:
		return b.CustomFrequencyDays != nil && *b.CustomFrequencyDays > 0 && days%*b.CustomFrequencyDays == 0
	}
	return false
}

var otpPattern = regexp.MustCompile(`^\d{4}$`)

func clockField(set func(*Booking, string)) Applier[Booking] {
	return RequiredField(func(b *Booking, v string) error {
		if _, err := utils.ParseClock(v); err != nil {
			return errors.New("must be HH:MM")
		}
		set(b, v)
		return nil
	})
}

func otpField(set func(*Booking, *string)) Applier[Booking] {
	return NullableField(func(b *Booking, v *string) error {
		if v != nil && !otpPattern.MatchString(*v) {
			return errors.New("must be 4 digits")
		}
		set(b, v)
		return nil
	})
}

// BookingPatchRules is the allow-list for generic booking updates.
var BookingPatchRules = PatchRules[Booking]{
	"date": {Column: "date", Apply: RequiredField(func(b *Booking, v string) error {
		if _, err := utils.ParseDate(v); err != nil {
			return errors.New("must be YYYY-MM-DD")
		}
		b.Date = v
		return nil
	})},
	"startTime": {Column: "start_time", Apply: clockField(func(b *Booking, v string) { b.StartTime = v })},
	"endTime":   {Column: "end_time", Apply: clockField(func(b *Booking, v string) { b.EndTime = v })},
	"status": {Column: "status", Apply: RequiredField(func(b *Booking, v BookingStatus) error {
		if !v.Valid() {
			return fmt.Errorf("%q is not a booking status", v)
		}
		b.Status = v
		return nil
	})},
	"startOtp": {Column: "start_otp", Apply: otpField(func(b *Booking, v *string) { b.StartOTP = v })},
	"endOtp":   {Column: "end_otp", Apply: otpField(func(b *Booking, v *string) { b.EndOTP = v })},
	"customPrice": {Column: "custom_price", Apply: NullableField(func(b *Booking, v *float64) error {
		if v != nil && *v < 0 {
			return errNegative
		}
		b.CustomPrice = v
		return nil
	})},
}

// BookingFilter narrows booking listings. Empty fields match everything.
type BookingFilter struct {
	HouseholdID string
	MaidID      string
	SocietyID   string
	Statuses    []BookingStatus
}

// BookingView is a booking decorated for listings.
type BookingView struct {
	Booking
	ServiceName      LocalizedString `json:"serviceName"`
	ServiceIcon      string          `json:"serviceIcon"`
	MaidName         string          `json:"maidName"`
	HouseholdName    string          `json:"householdName"`
	HouseholdAddress string          `json:"householdAddress"`
	HouseholdPhone   string          `json:"householdPhone"`
}

// NewBookingView decorates b from whatever associations were loaded.
func NewBookingView(b Booking) BookingView {
	v := BookingView{Booking: b}
	if b.Maid != nil {
		v.MaidName = b.Maid.Name
	}
	if b.Household != nil {
		v.HouseholdName = b.Household.Name
		v.HouseholdAddress = b.Household.Address
		v.HouseholdPhone = b.Household.Phone
	}
	if ss := b.SocietyService; ss != nil {
		global := ss.Service
		if ss.IsExclusive() {
			global = nil
		}
		v.ServiceName = coalesceText(ss.Name, global, func(s *Service) LocalizedString { return s.Name })
		switch {
		case ss.Icon != nil:
			v.ServiceIcon = *ss.Icon
		case global != nil:
			v.ServiceIcon = global.Icon
		}
	}
	return v
}
