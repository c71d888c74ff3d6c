// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"sevaconnect-backend/models"
	"sevaconnect-backend/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultReminderSchedule = "0 9 * * *"

// ReminderStore reads bookings due for a reminder and logs each attempt.
type ReminderStore interface {
	ListBookings(ctx context.Context, f models.BookingFilter) ([]models.Booking, error)
	HasReminderLog(ctx context.Context, bookingID, occurrence string) (bool, error)
	CreateReminderLog(ctx context.Context, log *models.ReminderLog) error
}

// ReminderService texts households the day before each confirmed booking
// occurrence, recurring series included.
type ReminderService struct {
	store    ReminderStore
	sms      SMSSender
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

func NewReminderService(store ReminderStore, sms SMSSender, schedule string) *ReminderService {
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}
	return &ReminderService{
		store:    store,
		sms:      sms,
		schedule: schedule,
		cron:     cron.New(),
		now:      time.Now,
	}
}

func (s *ReminderService) StartScheduler() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.SendDailyReminders(ctx); err != nil {
			zap.L().Error("daily reminders failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("reminder schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	zap.L().Info("Reminder scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running job.
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}

// SendDailyReminders sends reminders for tomorrow's occurrences and returns
// how many were sent. Occurrences already logged are skipped.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (int, error) {
	tomorrow := utils.BeginningOfDay(s.now()).AddDate(0, 0, 1)
	occurrence := tomorrow.Format(utils.DateLayout)
	zap.L().Info("Starting daily reminder processing", zap.String("occurrence", occurrence))

	bookings, err := s.store.ListBookings(ctx, models.BookingFilter{
		Statuses: []models.BookingStatus{models.StatusConfirmed},
	})
	if err != nil {
		return 0, fmt.Errorf("list confirmed bookings: %w", err)
	}

	sent := 0
	for i := range bookings {
		b := &bookings[i]
		if !b.OccursOn(tomorrow) || b.Household == nil || b.Household.Phone == "" {
			continue
		}
		done, err := s.store.HasReminderLog(ctx, b.ID, occurrence)
		if err != nil {
			return sent, fmt.Errorf("reminder log for %s: %w", b.ID, err)
		}
		if done {
			continue
		}
		if s.remind(ctx, b, occurrence) {
			sent++
		}
	}
	zap.L().Info("Daily reminder processing completed", zap.Int("sent", sent))
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, b *models.Booking, occurrence string) bool {
	view := models.NewBookingView(*b)
	service := view.ServiceName.Get(models.FallbackLocale)
	if service == "" {
		service = "service"
	}
	message := fmt.Sprintf("Reminder: your %s booking with %s is tomorrow (%s) at %s.",
		service, view.MaidName, occurrence, b.StartTime)

	status, errorMsg := models.ReminderSent, ""
	if err := s.sms.SendSMS(ctx, b.Household.Phone, message); err != nil {
		zap.L().Warn("Failed to send reminder", zap.String("bookingId", b.ID), zap.Error(err))
		status, errorMsg = models.ReminderFailed, err.Error()
	}

	entry := &models.ReminderLog{
		BookingID:    b.ID,
		HouseholdID:  b.HouseholdID,
		Occurrence:   occurrence,
		Channel:      "sms",
		Status:       status,
		Message:      message,
		ErrorMessage: errorMsg,
		SentAt:       s.now(),
	}
	if err := s.store.CreateReminderLog(ctx, entry); err != nil {
		zap.L().Error("Failed to log reminder", zap.String("bookingId", b.ID), zap.Error(err))
	}
	return status == models.ReminderSent
}
