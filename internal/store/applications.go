package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/admissions-dev/admissions/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when an insert violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

type ApplicationStore struct {
	db *gorm.DB
}

func NewApplicationStore(db *gorm.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

// FindByUUID returns nil, nil when no application has the UUID.
func (s *ApplicationStore) FindByUUID(ctx context.Context, uuid string) (*models.Application, error) {
	var app models.Application

	err := s.db.WithContext(ctx).Where("uuid = ?", uuid).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load application", err)
	}

	return &app, nil
}

func (s *ApplicationStore) ListByUser(ctx context.Context, userID uint) ([]models.Application, error) {
	var apps []models.Application

	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&apps).Error; err != nil {
		return nil, apperrors.Internal("Failed to list applications", err)
	}

	return apps, nil
}

// Upsert creates the application keyed by app.UUID or, when one already
// exists, overwrites exactly the given columns. Status is only ever set on
// create. On success app holds the persisted row. A concurrent insert of
// the same UUID surfaces as ErrDuplicateKey.
func (s *ApplicationStore) Upsert(ctx context.Context, app *models.Application, columns []string) (bool, error) {
	if app.UUID == "" {
		return false, fmt.Errorf("upsert application: uuid is required")
	}

	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Application

		err := tx.Where("uuid = ?", app.UUID).First(&existing).Error

		switch {
		case err == nil:
			if err := tx.Model(&existing).Select(columns).Updates(app).Error; err != nil {
				return fmt.Errorf("update application: %w", err)
			}
			if err := tx.First(&existing, existing.ID).Error; err != nil {
				return fmt.Errorf("reload application: %w", err)
			}
			*app = existing

		case errors.Is(err, gorm.ErrRecordNotFound):
			app.ID = 0
			app.Status = models.StatusPending
			if err := tx.Create(app).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateKey
				}
				return fmt.Errorf("create application: %w", err)
			}
			created = true

		default:
			return fmt.Errorf("find application: %w", err)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return false, err
		}
		return false, apperrors.Internal("Failed to save application", err)
	}

	return created, nil
}
