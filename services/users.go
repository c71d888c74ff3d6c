package services

import (
	"context"
	"errors"

	"sevaconnect-backend/models"
	"sevaconnect-backend/repository"
	"sevaconnect-backend/utils"
)

// UserService manages accounts after registration.
type UserService struct {
	store       UserStore
	countryCode string
}

func NewUserService(store UserStore, countryCode string) *UserService {
	return &UserService{store: store, countryCode: countryCode}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err, "User")
	}
	return u, nil
}

// ListBySociety returns a society's maids and households.
func (s *UserService) ListBySociety(ctx context.Context, societyID string) ([]models.User, error) {
	users, err := s.store.ListUsersBySociety(ctx, societyID)
	if err != nil {
		return nil, storeError(err, "User")
	}
	return users, nil
}

// Update applies an allow-listed profile patch.
func (s *UserService) Update(ctx context.Context, id string, patch models.Patch) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err, "User")
	}
	previousPhone := u.Phone
	cols, err := models.UserPatchRules.Apply(u, patch)
	if err != nil {
		return nil, patchError(err)
	}
	if u.Phone != previousPhone {
		u.Phone = utils.FormatPhoneE164(u.Phone, s.countryCode)
		other, err := s.store.FindUserByIdentifier(ctx, u.Phone)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, conflict("This phone number is already registered to an account.")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, storeError(err, "User")
		}
	}
	if err := s.store.UpdateUserColumns(ctx, u, cols); err != nil {
		return nil, storeError(err, "User")
	}
	return u, nil
}

// Verify approves a pending maid or household.
func (s *UserService) Verify(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err, "User")
	}
	u.IsVerified = true
	if err := s.store.UpdateUserColumns(ctx, u, []string{"is_verified"}); err != nil {
		return nil, storeError(err, "User")
	}
	return u, nil
}

func (s *UserService) maid(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err, "User")
	}
	if u.Role != models.RoleMaid {
		return nil, invalid("role", "only maids have skills and leaves")
	}
	return u, nil
}

func (s *UserService) UpdateSkills(ctx context.Context, id string, skills []string) (*models.User, error) {
	u, err := s.maid(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Skills = cleanList(skills)
	if err := s.store.UpdateUserColumns(ctx, u, []string{"skills"}); err != nil {
		return nil, storeError(err, "User")
	}
	return u, nil
}

// SetLeave marks a maid away on date for period, or clears the date when
// period is nil.
func (s *UserService) SetLeave(ctx context.Context, id, date string, period *string) (*models.User, error) {
	if _, err := utils.ParseDate(date); err != nil {
		return nil, invalid("date", "date must be YYYY-MM-DD")
	}
	var p *models.LeavePeriod
	if period != nil && *period != "" {
		lp := models.LeavePeriod(*period)
		if !lp.Valid() {
			return nil, invalid("leaveType", "leaveType must be MORNING, AFTERNOON or FULL")
		}
		p = &lp
	}
	u, err := s.maid(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Leaves = models.StringList(models.SetLeave(u.Leaves, date, p))
	if err := s.store.UpdateUserColumns(ctx, u, []string{"leaves"}); err != nil {
		return nil, storeError(err, "User")
	}
	return u, nil
}

// Delete removes a maid or household with their bookings, messages and
// reviews. Admin accounts cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return storeError(err, "User")
	}
	if u.IsAdmin() {
		return forbidden("Cannot delete admin accounts")
	}
	return storeError(s.store.DeleteUserCascade(ctx, id), "User")
}
