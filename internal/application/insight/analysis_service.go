package insight

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/analysis"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/shared"
)

const defaultAnalysisMonths = 12

// AnalysisService generates financial analyses over recent approved reports
type AnalysisService struct {
	reportRepo   finance.FinancialReportRepository
	analysisRepo analysis.AnalysisRepository
	now          func() time.Time
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(reportRepo finance.FinancialReportRepository, analysisRepo analysis.AnalysisRepository) *AnalysisService {
	return &AnalysisService{
		reportRepo:   reportRepo,
		analysisRepo: analysisRepo,
		now:          time.Now,
	}
}

// GenerateAnalysisRequest represents an analysis generation request
type GenerateAnalysisRequest struct {
	AnalysisType string `json:"analysis_type" binding:"omitempty,oneof=trend ratio comparative forecast performance"`
	PeriodMonths int    `json:"period_months" binding:"omitempty,min=1,max=60"`
}

// AnalysisResponse represents a generated analysis in API responses
type AnalysisResponse struct {
	ID           uuid.UUID               `json:"id"`
	HospitalID   string                  `json:"hospital_id"`
	AnalysisType string                  `json:"analysis_type"`
	Window       analysis.AnalysisWindow `json:"window"`
	ReportIDs    []uuid.UUID             `json:"report_ids"`
	Metrics      analysis.Metrics        `json:"metrics"`
	Insights     []analysis.Insight      `json:"insights"`
	Trends       []analysis.Trend        `json:"trends"`
	Forecasts    []analysis.Forecast     `json:"forecasts"`
	GeneratedBy  uuid.UUID               `json:"generated_by"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

// GenerateAnalysis analyzes the approved reports of the recent window and
// stores the result. Fewer than two approved reports in the window is an
// insufficient-data error.
func (s *AnalysisService) GenerateAnalysis(ctx context.Context, actor identity.Actor, req GenerateAnalysisRequest) (*AnalysisResponse, error) {
	months := req.PeriodMonths
	if months <= 0 {
		months = defaultAnalysisMonths
	}

	analysisType := analysis.AnalysisType(req.AnalysisType)
	if analysisType == "" {
		analysisType = analysis.AnalysisTypePerformance
	}
	if !analysisType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ANALYSIS_TYPE", "Unknown analysis type")
	}

	end := s.now()
	start := end.AddDate(0, -months, 0)

	reports, err := s.reportRepo.FindApprovedInWindow(ctx, actor.HospitalID, start, end)
	if err != nil {
		return nil, err
	}

	ordered := make([]*finance.FinancialReport, 0, len(reports))
	for i := range reports {
		ordered = append(ordered, &reports[i])
	}

	result, err := analysis.Analyze(ordered)
	if err != nil {
		return nil, err
	}

	reportIDs := make([]uuid.UUID, 0, len(ordered))
	for _, report := range ordered {
		reportIDs = append(reportIDs, report.ID)
	}

	record, err := analysis.NewFinancialAnalysis(
		actor.HospitalID,
		actor.UserID,
		analysisType,
		analysis.AnalysisWindow{StartDate: start, EndDate: end},
		reportIDs,
		result.Metrics,
		result.Insights,
		result.Trends,
		result.Forecasts,
	)
	if err != nil {
		return nil, err
	}

	if err := s.analysisRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	return toAnalysisResponse(record), nil
}

// GetAnalyses returns the latest generated analyses, newest first
func (s *AnalysisService) GetAnalyses(ctx context.Context, actor identity.Actor, limit int) ([]AnalysisResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	records, err := s.analysisRepo.FindRecent(ctx, actor.HospitalID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]AnalysisResponse, len(records))
	for i := range records {
		responses[i] = *toAnalysisResponse(&records[i])
	}
	return responses, nil
}

func toAnalysisResponse(record *analysis.FinancialAnalysis) *AnalysisResponse {
	return &AnalysisResponse{
		ID:           record.ID,
		HospitalID:   record.HospitalID,
		AnalysisType: string(record.AnalysisType),
		Window:       record.Window,
		ReportIDs:    record.ReportIDs,
		Metrics:      record.Metrics,
		Insights:     record.Insights,
		Trends:       record.Trends,
		Forecasts:    record.Forecasts,
		GeneratedBy:  record.GeneratedBy,
		CompletedAt:  record.CompletedAt,
		CreatedAt:    record.CreatedAt,
	}
}
