// Package repository implements the application's stores on gorm/postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sevaconnect-backend/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrInUse      = errors.New("record is referenced")
	ErrForeignKey = errors.New("referenced record does not exist")
)

// Repository is the gorm-backed store. Every call runs under its own
// timeout derived from the caller's context.
type Repository struct {
	db      *gorm.DB
	timeout time.Duration
}

func New(db *gorm.DB, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Repository{db: db, timeout: timeout}
}

func (r *Repository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Society{},
		&models.User{},
		&models.Service{},
		&models.SocietyService{},
		&models.Booking{},
		&models.ChatMessage{},
		&models.Review{},
		&models.ReminderLog{},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	}
	return err
}

// updateColumns writes the named columns of row, including zero values.
func updateColumns(db *gorm.DB, row interface{}, cols []string) error {
	if len(cols) == 0 {
		return nil
	}
	res := db.Model(row).Select(cols).Omit("id", "created_at").Updates(row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
