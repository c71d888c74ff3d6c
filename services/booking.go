package services

import (
	"context"
	"fmt"
	"strings"

	"sevaconnect-backend/models"
	"sevaconnect-backend/utils"

	"go.uber.org/zap"
)

// BookingStore persists bookings.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, f models.BookingFilter) ([]models.Booking, error)
	UpdateBookingColumns(ctx context.Context, b *models.Booking, cols []string) error
	AdvanceBookingStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error)
}

// OfferingResolver returns the effective view of a society offering.
type OfferingResolver interface {
	Get(ctx context.Context, id string) (*models.Offering, error)
}

// BookingService runs the booking lifecycle.
type BookingService struct {
	store     BookingStore
	offerings OfferingResolver
	masterOTP string
	sms       SMSSender
	generate  func() (string, error)
}

type BookingOption func(*BookingService)

// WithOTPDelivery texts every issued code to the booking's household.
func WithOTPDelivery(sms SMSSender) BookingOption {
	return func(s *BookingService) { s.sms = sms }
}

// WithCodeGenerator replaces the random OTP source.
func WithCodeGenerator(fn func() (string, error)) BookingOption {
	return func(s *BookingService) { s.generate = fn }
}

// NewBookingService builds the lifecycle manager. masterOTP, when set, is
// accepted in place of any stored code.
func NewBookingService(store BookingStore, offerings OfferingResolver, masterOTP string, opts ...BookingOption) *BookingService {
	s := &BookingService{
		store:     store,
		offerings: offerings,
		masterOTP: masterOTP,
		generate:  GenerateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type BookingInput struct {
	SocietyServiceID    string            `json:"societyServiceId"`
	HouseholdID         string            `json:"householdId"`
	MaidID              string            `json:"maidId"`
	Date                string            `json:"date"`
	StartTime           string            `json:"startTime"`
	EndTime             string            `json:"endTime"`
	IsRecurring         bool              `json:"isRecurring"`
	Frequency           *models.Frequency `json:"frequency"`
	CustomFrequencyDays *int              `json:"customFrequencyDays"`
	CustomPrice         *float64          `json:"customPrice"`
	CustomDescription   *string           `json:"customDescription"`
	PriceAtBooking      *float64          `json:"priceAtBooking"`
}

func validateSlot(date, start, end string) error {
	if _, err := utils.ParseDate(date); err != nil {
		return invalid("date", "date must be YYYY-MM-DD")
	}
	from, err := utils.ParseClock(start)
	if err != nil {
		return invalid("startTime", "startTime must be HH:MM")
	}
	to, err := utils.ParseClock(end)
	if err != nil {
		return invalid("endTime", "endTime must be HH:MM")
	}
	if !to.After(from) {
		return invalid("endTime", "endTime must be after startTime")
	}
	return nil
}

// Create books an offering and freezes its current effective price into
// the booking unless the caller already priced it.
func (s *BookingService) Create(ctx context.Context, in BookingInput) (*models.BookingView, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"societyServiceId", in.SocietyServiceID},
		{"householdId", in.HouseholdID},
		{"maidId", in.MaidID},
		{"date", in.Date},
		{"startTime", in.StartTime},
		{"endTime", in.EndTime},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if err := validateSlot(in.Date, in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	if err := models.ValidateRecurrence(in.IsRecurring, in.Frequency, in.CustomFrequencyDays); err != nil {
		return nil, invalid("frequency", "%v", err)
	}
	if in.CustomPrice != nil && *in.CustomPrice < 0 {
		return nil, invalid("customPrice", "customPrice must not be negative")
	}
	if in.PriceAtBooking != nil && *in.PriceAtBooking < 0 {
		return nil, invalid("priceAtBooking", "priceAtBooking must not be negative")
	}

	offering, err := s.offerings.Get(ctx, in.SocietyServiceID)
	if IsKind(err, KindNotFound) {
		return nil, invalid("societyServiceId", "Society service %s does not exist", in.SocietyServiceID)
	}
	if err != nil {
		return nil, err
	}
	if !offering.IsActive {
		return nil, invalid("societyServiceId", "Society service %s is not active", in.SocietyServiceID)
	}

	price := offering.EffectivePrice
	if in.PriceAtBooking != nil {
		price = *in.PriceAtBooking
	}

	b := &models.Booking{
		SocietyServiceID:  in.SocietyServiceID,
		HouseholdID:       in.HouseholdID,
		MaidID:            in.MaidID,
		Date:              in.Date,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		Status:            models.StatusRequested,
		IsRecurring:       in.IsRecurring,
		CustomPrice:       in.CustomPrice,
		CustomDescription: in.CustomDescription,
		PriceAtBooking:    price,
	}
	if in.IsRecurring {
		b.Frequency = in.Frequency
		b.CustomFrequencyDays = in.CustomFrequencyDays
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, storeError(err, "Booking")
	}
	zap.L().Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("societyServiceId", b.SocietyServiceID),
		zap.Float64("priceAtBooking", b.PriceAtBooking))

	view := models.NewBookingView(*b)
	return &view, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.BookingView, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, "Booking")
	}
	view := models.NewBookingView(*b)
	return &view, nil
}

// ListForUser lists bookings where the user is the maid or the household.
func (s *BookingService) ListForUser(ctx context.Context, userID, role string) ([]models.BookingView, error) {
	f := models.BookingFilter{}
	switch role {
	case models.RoleMaid:
		f.MaidID = userID
	case models.RoleHousehold:
		f.HouseholdID = userID
	default:
		return nil, invalid("role", "role must be MAID or HOUSEHOLD")
	}
	if userID == "" {
		return nil, missingFields("userId")
	}
	return s.list(ctx, f)
}

func (s *BookingService) ListForSociety(ctx context.Context, societyID string) ([]models.BookingView, error) {
	if societyID == "" {
		return nil, missingFields("societyId")
	}
	return s.list(ctx, models.BookingFilter{SocietyID: societyID})
}

func (s *BookingService) list(ctx context.Context, f models.BookingFilter) ([]models.BookingView, error) {
	bookings, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, storeError(err, "Booking")
	}
	views := make([]models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, models.NewBookingView(b))
	}
	return views, nil
}

func parsePhase(phase string) (models.OTPPhase, error) {
	p, err := models.ParsePhase(phase)
	if err != nil {
		return "", invalid("type", "%v", err)
	}
	return p, nil
}

// RequestOTP issues a fresh code for a phase and marks it as awaited. The
// status does not change.
func (s *BookingService) RequestOTP(ctx context.Context, id, phase string) (string, error) {
	p, err := parsePhase(phase)
	if err != nil {
		return "", err
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return "", storeError(err, "Booking")
	}
	code, err := s.generate()
	if err != nil {
		return "", internal("could not generate code", err)
	}
	b.SetOTP(p, &code)
	b.SetRequested(p, true)
	if err := s.store.UpdateBookingColumns(ctx, b, []string{p.CodeColumn(), p.FlagColumn()}); err != nil {
		return "", storeError(err, "Booking")
	}
	zap.L().Info("booking otp generated", zap.String("bookingId", id), zap.String("phase", string(p)), zap.String("otp", code))
	s.deliver(ctx, b, p, code)
	return code, nil
}

// CancelOTPRequest clears a phase's code and flag. Repeating it is harmless.
func (s *BookingService) CancelOTPRequest(ctx context.Context, id, phase string) error {
	p, err := parsePhase(phase)
	if err != nil {
		return err
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return storeError(err, "Booking")
	}
	b.SetOTP(p, nil)
	b.SetRequested(p, false)
	return storeError(s.store.UpdateBookingColumns(ctx, b, []string{p.CodeColumn(), p.FlagColumn()}), "Booking")
}

// RegenerateOTP overwrites a phase's code and leaves its flag alone.
func (s *BookingService) RegenerateOTP(ctx context.Context, id, phase string) (string, error) {
	p, err := parsePhase(phase)
	if err != nil {
		return "", err
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return "", storeError(err, "Booking")
	}
	code, err := s.generate()
	if err != nil {
		return "", internal("could not generate code", err)
	}
	b.SetOTP(p, &code)
	if err := s.store.UpdateBookingColumns(ctx, b, []string{p.CodeColumn()}); err != nil {
		return "", storeError(err, "Booking")
	}
	zap.L().Info("booking otp regenerated", zap.String("bookingId", id), zap.String("phase", string(p)), zap.String("otp", code))
	s.deliver(ctx, b, p, code)
	return code, nil
}

// VerifyOTP checks code against the stored one or the master code and, on a
// match, advances the booking. The advance is conditional on the current
// status so concurrent duplicates move it at most once.
func (s *BookingService) VerifyOTP(ctx context.Context, id, phase, code string) (models.BookingStatus, error) {
	p, err := parsePhase(phase)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", missingFields("code")
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return "", storeError(err, "Booking")
	}

	stored := b.OTP(p)
	matched := (stored != nil && codesEqual(*stored, code)) || (s.masterOTP != "" && codesEqual(s.masterOTP, code))
	if !matched {
		zap.L().Info("booking otp mismatch", zap.String("bookingId", id), zap.String("phase", string(p)))
		return "", otpMismatch()
	}

	target := p.TargetStatus()
	advanced, err := s.store.AdvanceBookingStatus(ctx, id, p.AllowedFrom(), target)
	if err != nil {
		return "", storeError(err, "Booking")
	}
	if !advanced {
		return "", conflict("Booking is %s and cannot move to %s", b.Status, target)
	}
	return target, nil
}

// OverrideStatus writes a status without consulting the lifecycle. It is
// the administrative correction path.
func (s *BookingService) OverrideStatus(ctx context.Context, id string, status models.BookingStatus) error {
	if !status.Valid() {
		return invalid("status", "%q is not a booking status", status)
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return storeError(err, "Booking")
	}
	zap.L().Warn("booking status overridden",
		zap.String("bookingId", id),
		zap.String("from", string(b.Status)),
		zap.String("to", string(status)),
		zap.Bool("outsideLifecycle", !models.CanTransition(b.Status, status)))
	b.Status = status
	return storeError(s.store.UpdateBookingColumns(ctx, b, []string{"status"}), "Booking")
}

// Transition confirms, rejects or cancels a booking. Starting and finishing
// work go through VerifyOTP.
func (s *BookingService) Transition(ctx context.Context, id string, to models.BookingStatus) (*models.BookingView, error) {
	if !to.Valid() {
		return nil, invalid("status", "%q is not a booking status", to)
	}
	if to.OTPGated() {
		return nil, invalid("status", "%s is reached by verifying the booking code", to)
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, "Booking")
	}
	if !models.CanMoveManually(b.Status, to) {
		return nil, conflict("Booking cannot move from %s to %s", b.Status, to)
	}
	advanced, err := s.store.AdvanceBookingStatus(ctx, id, []models.BookingStatus{b.Status}, to)
	if err != nil {
		return nil, storeError(err, "Booking")
	}
	if !advanced {
		return nil, conflict("Booking changed status concurrently")
	}
	b.Status = to
	view := models.NewBookingView(*b)
	return &view, nil
}

// Update applies an allow-listed patch to a booking.
func (s *BookingService) Update(ctx context.Context, id string, patch models.Patch) (*models.BookingView, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, "Booking")
	}
	cols, err := models.BookingPatchRules.Apply(b, patch)
	if err != nil {
		return nil, patchError(err)
	}
	if err := validateSlot(b.Date, b.StartTime, b.EndTime); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBookingColumns(ctx, b, cols); err != nil {
		return nil, storeError(err, "Booking")
	}
	view := models.NewBookingView(*b)
	return &view, nil
}

func (s *BookingService) deliver(ctx context.Context, b *models.Booking, p models.OTPPhase, code string) {
	if s.sms == nil || b.Household == nil || b.Household.Phone == "" {
		return
	}
	body := fmt.Sprintf("SevaConnect: your %s code for the %s booking is %s. Share it with your helper when they arrive.",
		p, b.Date, code)
	if err := s.sms.SendSMS(ctx, b.Household.Phone, body); err != nil {
		zap.L().Warn("booking otp sms failed", zap.String("bookingId", b.ID), zap.Error(err))
	}
}
