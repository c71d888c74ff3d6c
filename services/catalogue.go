package services

import (
	"context"

	"sevaconnect-backend/models"
)

// CatalogueStore persists the global service catalogue.
type CatalogueStore interface {
	ListServices(ctx context.Context, includeInactive bool) ([]models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateService(ctx context.Context, svc *models.Service) error
	UpdateServiceColumns(ctx context.Context, svc *models.Service, cols []string) error
	DeleteService(ctx context.Context, id string) error
}

// CatalogueService manages global catalogue entries.
type CatalogueService struct {
	store CatalogueStore
}

func NewCatalogueService(store CatalogueStore) *CatalogueService {
	return &CatalogueService{store: store}
}

type ServiceInput struct {
	Name            models.LocalizedString `json:"name"`
	Description     models.LocalizedString `json:"description"`
	BasePrice       *float64               `json:"basePrice"`
	DurationMinutes *int                   `json:"durationMinutes"`
	Icon            string                 `json:"icon"`
	IsGeneric       bool                   `json:"isGeneric"`
}

func (s *CatalogueService) List(ctx context.Context, includeInactive bool) ([]models.Service, error) {
	services, err := s.store.ListServices(ctx, includeInactive)
	if err != nil {
		return nil, storeError(err, "Service")
	}
	return services, nil
}

func (s *CatalogueService) Get(ctx context.Context, id string) (*models.Service, error) {
	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return nil, storeError(err, "Service")
	}
	return svc, nil
}

func (s *CatalogueService) Create(ctx context.Context, in ServiceInput) (*models.Service, error) {
	var missing []string
	if !in.Name.HasFallback() {
		missing = append(missing, "name")
	}
	if in.BasePrice == nil {
		missing = append(missing, "basePrice")
	}
	if in.Icon == "" {
		missing = append(missing, "icon")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if *in.BasePrice < 0 {
		return nil, invalid("basePrice", "basePrice must not be negative")
	}
	duration := 0
	if in.DurationMinutes != nil {
		duration = *in.DurationMinutes
	}
	if duration < 0 {
		return nil, invalid("durationMinutes", "durationMinutes must not be negative")
	}

	svc := &models.Service{
		Name:            in.Name,
		Description:     in.Description,
		BasePrice:       *in.BasePrice,
		DurationMinutes: duration,
		Icon:            in.Icon,
		IsGeneric:       in.IsGeneric,
		IsActive:        true,
	}
	if err := s.store.CreateService(ctx, svc); err != nil {
		return nil, storeError(err, "Service")
	}
	return svc, nil
}

// Update applies an allow-listed patch to a catalogue entry.
func (s *CatalogueService) Update(ctx context.Context, id string, patch models.Patch) (*models.Service, error) {
	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return nil, storeError(err, "Service")
	}
	cols, err := models.ServicePatchRules.Apply(svc, patch)
	if err != nil {
		return nil, patchError(err)
	}
	if err := s.store.UpdateServiceColumns(ctx, svc, cols); err != nil {
		return nil, storeError(err, "Service")
	}
	return svc, nil
}

// Delete removes a catalogue entry that no society offers.
func (s *CatalogueService) Delete(ctx context.Context, id string) error {
	return storeError(s.store.DeleteService(ctx, id), "Service")
}
