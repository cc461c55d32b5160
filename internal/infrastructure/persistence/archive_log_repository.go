package persistence

import (
	"context"

	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/hospfin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormArchiveLogRepository implements ArchiveLogRepository using GORM
type GormArchiveLogRepository struct {
	db *gorm.DB
}

// NewGormArchiveLogRepository creates a new GormArchiveLogRepository
func NewGormArchiveLogRepository(db *gorm.DB) *GormArchiveLogRepository {
	return &GormArchiveLogRepository{db: db}
}

// SaveWithReportArchival flips the given reports to archived and writes the
// log entry in one transaction. Each report flip is a compare-and-swap on
// its version, so a concurrent edit aborts the whole run.
func (r *GormArchiveLogRepository) SaveWithReportArchival(ctx context.Context, log *finance.ArchiveLog, reports []*finance.FinancialReport) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, report := range reports {
			currentVersion := report.Version
			result := tx.Model(&models.FinancialReportModel{}).
				Where("id = ? AND version = ?", report.ID, currentVersion).
				Updates(map[string]interface{}{
					"status":     finance.ReportStatusArchived,
					"version":    currentVersion + 1,
					"updated_at": report.UpdatedAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict
			}
			report.Version = currentVersion + 1
		}

		return tx.Create(models.ArchiveLogModelFromDomain(log)).Error
	})
}

// FindRecent returns the latest archive runs for a hospital, newest first
func (r *GormArchiveLogRepository) FindRecent(ctx context.Context, hospitalID string, limit int) ([]finance.ArchiveLog, error) {
	var logModels []models.ArchiveLogModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]finance.ArchiveLog, len(logModels))
	for i := range logModels {
		logs[i] = *logModels[i].ToDomain()
	}
	return logs, nil
}
