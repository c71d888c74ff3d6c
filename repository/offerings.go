package repository

import (
	"context"

	"sevaconnect-backend/models"
)

// ListOfferings returns a society's rows with their linked services, oldest first.
func (r *Repository) ListOfferings(ctx context.Context, societyID string) ([]models.SocietyService, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []models.SocietyService
	err := db.Preload("Service").
		Where("society_id = ?", societyID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, translate(err)
}

func (r *Repository) GetOffering(ctx context.Context, id string) (*models.SocietyService, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var row models.SocietyService
	if err := db.Preload("Service").First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// LinkedServiceIDs returns the catalogue ids a society already offers.
func (r *Repository) LinkedServiceIDs(ctx context.Context, societyID string) ([]string, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var ids []string
	err := db.Model(&models.SocietyService{}).
		Where("society_id = ? AND service_id IS NOT NULL", societyID).
		Pluck("service_id", &ids).Error
	return ids, translate(err)
}

// FindOfferingLink returns a society's row for a catalogue service, active
// or not.
func (r *Repository) FindOfferingLink(ctx context.Context, societyID, serviceID string) (*models.SocietyService, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var row models.SocietyService
	err := db.Preload("Service").First(&row, "society_id = ? AND service_id = ?", societyID, serviceID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// CreateOffering inserts row. A second link to the same service for one
// society fails with ErrDuplicate.
func (r *Repository) CreateOffering(ctx context.Context, row *models.SocietyService) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Omit("Service", "Society").Create(row).Error)
}

func (r *Repository) UpdateOfferingColumns(ctx context.Context, row *models.SocietyService, cols []string) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return updateColumns(db, row, cols)
}
