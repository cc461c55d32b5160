package analysis

import (
	"context"
)

// AnalysisRepository persists generated financial analyses
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *FinancialAnalysis) error

	// FindRecent returns the latest completed analyses for a hospital,
	// newest first.
	FindRecent(ctx context.Context, hospitalID string, limit int) ([]FinancialAnalysis, error)
}
