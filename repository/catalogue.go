package repository

import (
	"context"
	"errors"

	"sevaconnect-backend/models"

	"gorm.io/gorm"
)

func (r *Repository) ListServices(ctx context.Context, includeInactive bool) ([]models.Service, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var services []models.Service
	q := db.Order("name->>'en' ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&services).Error; err != nil {
		return nil, translate(err)
	}
	return services, nil
}

func (r *Repository) ListGenericServices(ctx context.Context) ([]models.Service, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var services []models.Service
	err := db.Where("is_generic = ? AND is_active = ?", true, true).
		Order("name->>'en' ASC").
		Find(&services).Error
	return services, translate(err)
}

func (r *Repository) GetService(ctx context.Context, id string) (*models.Service, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var svc models.Service
	if err := db.First(&svc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &svc, nil
}

func (r *Repository) CreateService(ctx context.Context, svc *models.Service) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(svc).Error)
}

func (r *Repository) UpdateServiceColumns(ctx context.Context, svc *models.Service, cols []string) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return updateColumns(db, svc, cols)
}

// DeleteService hard-deletes a catalogue entry that no offering links.
func (r *Repository) DeleteService(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Transaction(func(tx *gorm.DB) error {
		var links int64
		if err := tx.Model(&models.SocietyService{}).Where("service_id = ?", id).Count(&links).Error; err != nil {
			return err
		}
		if links > 0 {
			return ErrInUse
		}
		res := tx.Delete(&models.Service{}, "id = ?", id)
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return ErrInUse
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}
