package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/hospfin/backend/internal/domain/settings"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/hospfin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsRepository implements SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindByHospital returns the hospital's settings document, or nil when the
// hospital has none yet
func (r *GormSettingsRepository) FindByHospital(ctx context.Context, hospitalID string) (*settings.HospitalSettings, error) {
	var model models.HospitalSettingsModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ActiveHospitalIDs returns the hospital IDs with an active settings
// document. Used by periodic metrics collection.
func (r *GormSettingsRepository) ActiveHospitalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.HospitalSettingsModel{}).
		Where("is_active = ?", true).
		Pluck("hospital_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save upserts the settings document on the hospital key with a
// compare-and-swap on the aggregate version
func (r *GormSettingsRepository) Save(ctx context.Context, hs *settings.HospitalSettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.HospitalSettingsModel
		err := tx.Where("hospital_id = ?", hs.HospitalID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(models.HospitalSettingsModelFromDomain(hs)).Error
		}
		if err != nil {
			return err
		}

		model := models.HospitalSettingsModelFromDomain(hs)
		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		model.Version = existing.Version + 1
		model.UpdatedAt = time.Now()

		result := tx.Model(&models.HospitalSettingsModel{}).
			Where("id = ? AND version = ?", existing.ID, existing.Version).
			Select("*").Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		hs.ID = model.ID
		hs.CreatedAt = model.CreatedAt
		hs.Version = model.Version
		hs.UpdatedAt = model.UpdatedAt
		return nil
	})
}
