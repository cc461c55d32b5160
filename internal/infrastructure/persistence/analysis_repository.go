package persistence

import (
	"context"

	"github.com/hospfin/backend/internal/domain/analysis"
	"github.com/hospfin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAnalysisRepository implements AnalysisRepository using GORM
type GormAnalysisRepository struct {
	db *gorm.DB
}

// NewGormAnalysisRepository creates a new GormAnalysisRepository
func NewGormAnalysisRepository(db *gorm.DB) *GormAnalysisRepository {
	return &GormAnalysisRepository{db: db}
}

// Save stores a generated analysis. Analyses are immutable once written.
func (r *GormAnalysisRepository) Save(ctx context.Context, record *analysis.FinancialAnalysis) error {
	return r.db.WithContext(ctx).Create(models.FinancialAnalysisModelFromDomain(record)).Error
}

// FindRecent returns the latest analyses for a hospital, newest first
func (r *GormAnalysisRepository) FindRecent(ctx context.Context, hospitalID string, limit int) ([]analysis.FinancialAnalysis, error) {
	var analysisModels []models.FinancialAnalysisModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		Order("created_at DESC").
		Limit(limit).
		Find(&analysisModels).Error; err != nil {
		return nil, err
	}

	records := make([]analysis.FinancialAnalysis, len(analysisModels))
	for i := range analysisModels {
		records[i] = *analysisModels[i].ToDomain()
	}
	return records, nil
}
