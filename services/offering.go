package services

import (
	"context"
	"errors"
	"strings"

	"sevaconnect-backend/models"
	"sevaconnect-backend/repository"

	"go.uber.org/zap"
)

// OfferingStore persists society offerings and reads the catalogue they link to.
type OfferingStore interface {
	ListOfferings(ctx context.Context, societyID string) ([]models.SocietyService, error)
	GetOffering(ctx context.Context, id string) (*models.SocietyService, error)
	CreateOffering(ctx context.Context, row *models.SocietyService) error
	UpdateOfferingColumns(ctx context.Context, row *models.SocietyService, cols []string) error
	LinkedServiceIDs(ctx context.Context, societyID string) ([]string, error)
	FindOfferingLink(ctx context.Context, societyID, serviceID string) (*models.SocietyService, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListGenericServices(ctx context.Context) ([]models.Service, error)
}

// OfferingService resolves and edits the services a society offers.
type OfferingService struct {
	store OfferingStore
}

func NewOfferingService(store OfferingStore) *OfferingService {
	return &OfferingService{store: store}
}

type OfferingInput struct {
	SocietyID   string                 `json:"societyId"`
	ServiceID   *string                `json:"serviceId"`
	Name        models.LocalizedString `json:"name"`
	Description models.LocalizedString `json:"description"`
	Price       *float64               `json:"price"`
	Duration    *int                   `json:"duration"`
	Icon        *string                `json:"icon"`
	IsGeneric   *bool                  `json:"isGeneric"`
}

func resolve(row *models.SocietyService) (*models.Offering, error) {
	view, err := models.ResolveOffering(*row, row.Service)
	if err != nil {
		zap.L().Error("offering has no effective price", zap.String("societyServiceId", row.ID))
		return nil, internal("offering "+row.ID+" has no effective price", err)
	}
	return &view, nil
}

// List returns every offering of a society in creation order.
func (s *OfferingService) List(ctx context.Context, societyID string) ([]models.Offering, error) {
	if societyID == "" {
		return nil, missingFields("societyId")
	}
	rows, err := s.store.ListOfferings(ctx, societyID)
	if err != nil {
		return nil, storeError(err, "Society service")
	}
	out := make([]models.Offering, 0, len(rows))
	for i := range rows {
		view, err := resolve(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

func (s *OfferingService) Get(ctx context.Context, id string) (*models.Offering, error) {
	row, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return nil, storeError(err, "Society service")
	}
	return resolve(row)
}

// Create links a catalogue service to a society, or adds an exclusive
// offering when no serviceId is given.
func (s *OfferingService) Create(ctx context.Context, in OfferingInput) (*models.Offering, error) {
	if strings.TrimSpace(in.SocietyID) == "" {
		return nil, missingFields("societyId")
	}
	if in.ServiceID != nil && strings.TrimSpace(*in.ServiceID) == "" {
		in.ServiceID = nil
	}
	if in.Icon != nil && *in.Icon == "" {
		in.Icon = nil
	}

	row := &models.SocietyService{
		SocietyID:   in.SocietyID,
		ServiceID:   in.ServiceID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Duration:    in.Duration,
		Icon:        in.Icon,
		IsGeneric:   in.IsGeneric,
		IsActive:    true,
	}

	if missing := row.MissingExclusiveFields(); len(missing) > 0 {
		return nil, &Error{
			Kind:    KindValidation,
			Message: "Exclusive services require " + strings.Join(missing, ", "),
			Fields:  missing,
		}
	}
	if row.Name != nil && !row.Name.HasFallback() {
		return nil, invalid("name", "name must include English text")
	}
	if row.Price != nil && *row.Price < 0 {
		return nil, invalid("price", "price must not be negative")
	}
	if row.Duration != nil && *row.Duration < 0 {
		return nil, invalid("duration", "duration must not be negative")
	}

	if !row.IsExclusive() {
		svc, err := s.store.GetService(ctx, *row.ServiceID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("serviceId", "Service %s does not exist", *row.ServiceID)
		}
		if err != nil {
			return nil, storeError(err, "Service")
		}
		row.Service = svc
	}

	if err := s.store.CreateOffering(ctx, row); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate) && row.ServiceID != nil:
			return s.relink(ctx, row)
		case errors.Is(err, repository.ErrForeignKey):
			return nil, invalid("societyId", "Society %s does not exist", row.SocietyID)
		}
		return nil, storeError(err, "Society service")
	}
	return resolve(row)
}

// relink handles a second link to an already linked service. A removed
// offering comes back with the new overrides; an active one is a conflict.
func (s *OfferingService) relink(ctx context.Context, row *models.SocietyService) (*models.Offering, error) {
	existing, err := s.store.FindOfferingLink(ctx, row.SocietyID, *row.ServiceID)
	if err != nil {
		return nil, storeError(err, "Society service")
	}
	if existing.IsActive {
		return nil, &Error{
			Kind:    KindConflict,
			Message: "This service is already offered by the society as " + existing.ID,
			Fields:  []string{"serviceId"},
		}
	}
	existing.Name = row.Name
	existing.Description = row.Description
	existing.Price = row.Price
	existing.Duration = row.Duration
	existing.Icon = row.Icon
	existing.IsGeneric = row.IsGeneric
	existing.IsActive = true
	cols := []string{"name", "description", "price", "duration", "icon", "is_generic", "is_active"}
	if err := s.store.UpdateOfferingColumns(ctx, existing, cols); err != nil {
		return nil, storeError(err, "Society service")
	}
	existing.Service = row.Service
	zap.L().Info("offering reactivated", zap.String("societyServiceId", existing.ID))
	return resolve(existing)
}

// Update applies an allow-listed patch to the row's overrides and returns
// the recomputed view. Null clears an override.
func (s *OfferingService) Update(ctx context.Context, id string, patch models.Patch) (*models.Offering, error) {
	row, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return nil, storeError(err, "Society service")
	}
	cols, err := models.SocietyServicePatchRules.Apply(row, patch)
	if err != nil {
		return nil, patchError(err)
	}
	if missing := row.MissingExclusiveFields(); len(missing) > 0 {
		return nil, &Error{
			Kind:    KindValidation,
			Message: "Exclusive services cannot clear " + strings.Join(missing, ", "),
			Fields:  missing,
		}
	}
	if err := s.store.UpdateOfferingColumns(ctx, row, cols); err != nil {
		return nil, storeError(err, "Society service")
	}
	return resolve(row)
}

// Delete deactivates an offering. The row stays for booking history.
func (s *OfferingService) Delete(ctx context.Context, id string) error {
	row, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return storeError(err, "Society service")
	}
	row.IsActive = false
	return storeError(s.store.UpdateOfferingColumns(ctx, row, []string{"is_active"}), "Society service")
}

// AdoptGeneric links every active generic catalogue service the society
// does not offer yet.
func (s *OfferingService) AdoptGeneric(ctx context.Context, societyID string) ([]models.Offering, error) {
	if societyID == "" {
		return nil, missingFields("societyId")
	}
	generic, err := s.store.ListGenericServices(ctx)
	if err != nil {
		return nil, storeError(err, "Service")
	}
	linked, err := s.store.LinkedServiceIDs(ctx, societyID)
	if err != nil {
		return nil, storeError(err, "Society service")
	}
	have := make(map[string]bool, len(linked))
	for _, id := range linked {
		have[id] = true
	}

	adopted := make([]models.Offering, 0)
	for i := range generic {
		svc := generic[i]
		if have[svc.ID] {
			continue
		}
		serviceID := svc.ID
		row := &models.SocietyService{SocietyID: societyID, ServiceID: &serviceID, IsActive: true, Service: &svc}
		if err := s.store.CreateOffering(ctx, row); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return adopted, storeError(err, "Society service")
		}
		view, err := resolve(row)
		if err != nil {
			return adopted, err
		}
		adopted = append(adopted, *view)
	}
	return adopted, nil
}
