package services

import (
	"context"
	"errors"
	"time"

	"sevaconnect-backend/models"
	"sevaconnect-backend/repository"
	"sevaconnect-backend/utils"
)

// ReviewStore persists reviews together with the booking's reviewed flag.
type ReviewStore interface {
	AddReview(ctx context.Context, r *models.Review) error
	ListReviewsForMaid(ctx context.Context, maidID string) ([]models.Review, error)
}

type ReviewService struct {
	store ReviewStore
	now   func() time.Time
}

func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{store: store, now: time.Now}
}

type ReviewInput struct {
	BookingID     string `json:"bookingId"`
	MaidID        string `json:"maidId"`
	HouseholdID   string `json:"householdId"`
	HouseholdName string `json:"householdName"`
	Rating        *int   `json:"rating"`
	Comment       string `json:"comment"`
}

// Add stores a review and marks its booking reviewed in one step.
func (s *ReviewService) Add(ctx context.Context, in ReviewInput) (*models.Review, error) {
	var missing []string
	if in.BookingID == "" {
		missing = append(missing, "bookingId")
	}
	if in.MaidID == "" {
		missing = append(missing, "maidId")
	}
	if in.HouseholdID == "" {
		missing = append(missing, "householdId")
	}
	if in.Rating == nil {
		missing = append(missing, "rating")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if *in.Rating < 1 || *in.Rating > 5 {
		return nil, invalid("rating", "rating must be between 1 and 5")
	}

	r := &models.Review{
		BookingID:     in.BookingID,
		MaidID:        in.MaidID,
		HouseholdID:   in.HouseholdID,
		HouseholdName: in.HouseholdName,
		Rating:        *in.Rating,
		Comment:       in.Comment,
		Date:          s.now().Format(utils.DateLayout),
	}
	if err := s.store.AddReview(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("This booking has already been reviewed")
		}
		return nil, storeError(err, "Booking")
	}
	return r, nil
}

func (s *ReviewService) ListForMaid(ctx context.Context, maidID string) ([]models.Review, error) {
	reviews, err := s.store.ListReviewsForMaid(ctx, maidID)
	if err != nil {
		return nil, storeError(err, "Review")
	}
	return reviews, nil
}
