package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AnalysisType categorizes a generated analysis
type AnalysisType string

const (
	AnalysisTypeTrend       AnalysisType = "trend"
	AnalysisTypeRatio       AnalysisType = "ratio"
	AnalysisTypeComparative AnalysisType = "comparative"
	AnalysisTypeForecast    AnalysisType = "forecast"
	AnalysisTypePerformance AnalysisType = "performance"
)

// IsValid checks if the type is a valid AnalysisType
func (t AnalysisType) IsValid() bool {
	switch t {
	case AnalysisTypeTrend, AnalysisTypeRatio, AnalysisTypeComparative,
		AnalysisTypeForecast, AnalysisTypePerformance:
		return true
	}
	return false
}

// InsightCategory classifies the tone of an insight
type InsightCategory string

const (
	InsightPositive InsightCategory = "positive"
	InsightNegative InsightCategory = "negative"
	InsightNeutral  InsightCategory = "neutral"
	InsightWarning  InsightCategory = "warning"
)

// Impact ranks how much an insight matters
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// TrendDirection describes where a metric is heading
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
	TrendVolatile   TrendDirection = "volatile"
)

// Significance ranks the size of a trend
type Significance string

const (
	SignificanceSignificant Significance = "significant"
	SignificanceModerate    Significance = "moderate"
	SignificanceMinor       Significance = "minor"
)

// Insight is one categorized finding with a recommendation
type Insight struct {
	Category       InsightCategory `json:"category"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Impact         Impact          `json:"impact"`
	Recommendation string          `json:"recommendation"`
}

// Trend is one metric's direction and magnitude between periods
type Trend struct {
	Metric       string         `json:"metric"`
	Direction    TrendDirection `json:"direction"`
	Percentage   float64        `json:"percentage"`
	Significance Significance   `json:"significance"`
}

// Forecast is a naive next-period projection
type Forecast struct {
	Metric         string          `json:"metric"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	ProjectedValue decimal.Decimal `json:"projected_value"`
	Timeframe      string          `json:"timeframe"`
	Confidence     float64         `json:"confidence"` // 0..100
}

// GrowthMetrics compares revenue between the two most recent reports
type GrowthMetrics struct {
	Current    decimal.Decimal `json:"current"`
	Previous   decimal.Decimal `json:"previous"`
	GrowthRate float64         `json:"growth_rate"` // percent
}

// ProfitabilityMetrics holds margin percentages
type ProfitabilityMetrics struct {
	GrossProfitMargin float64 `json:"gross_profit_margin"`
	NetProfitMargin   float64 `json:"net_profit_margin"`
	OperatingMargin   float64 `json:"operating_margin"`
}

// LiquidityMetrics holds liquidity ratios
type LiquidityMetrics struct {
	CurrentRatio float64 `json:"current_ratio"`
	QuickRatio   float64 `json:"quick_ratio"`
	CashRatio    float64 `json:"cash_ratio"`
}

// EfficiencyMetrics holds asset utilization ratios
type EfficiencyMetrics struct {
	AssetTurnover      float64 `json:"asset_turnover"`
	ReceivableTurnover float64 `json:"receivable_turnover"`
	InventoryTurnover  float64 `json:"inventory_turnover"`
}

// LeverageMetrics holds debt ratios
type LeverageMetrics struct {
	DebtToEquity     float64 `json:"debt_to_equity"`
	DebtToAssets     float64 `json:"debt_to_assets"`
	InterestCoverage float64 `json:"interest_coverage"`
}

// Metrics bundles all computed metric groups
type Metrics struct {
	RevenueGrowth GrowthMetrics        `json:"revenue_growth"`
	Profitability ProfitabilityMetrics `json:"profitability"`
	Liquidity     LiquidityMetrics     `json:"liquidity"`
	Efficiency    EfficiencyMetrics    `json:"efficiency"`
	Leverage      LeverageMetrics      `json:"leverage"`
}

// AnalysisWindow is the report time window the analysis covered
type AnalysisWindow struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// FinancialAnalysis is the aggregate root for a generated analysis record
type FinancialAnalysis struct {
	shared.HospitalAggregateRoot
	AnalysisType AnalysisType   `json:"analysis_type"`
	Window       AnalysisWindow `json:"window"`
	ReportIDs    []uuid.UUID    `json:"report_ids" gorm:"-"`
	Metrics      Metrics        `json:"metrics"`
	Insights     []Insight      `json:"insights" gorm:"-"`
	Trends       []Trend        `json:"trends" gorm:"-"`
	Forecasts    []Forecast     `json:"forecasts" gorm:"-"`
	GeneratedBy  uuid.UUID      `json:"generated_by"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewFinancialAnalysis creates a completed analysis record
func NewFinancialAnalysis(
	hospitalID string,
	generatedBy uuid.UUID,
	analysisType AnalysisType,
	window AnalysisWindow,
	reportIDs []uuid.UUID,
	metrics Metrics,
	insights []Insight,
	trends []Trend,
	forecasts []Forecast,
) (*FinancialAnalysis, error) {
	if hospitalID == "" {
		return nil, shared.NewDomainError("INVALID_HOSPITAL_ID", "Hospital ID is required")
	}
	if generatedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Generating user ID cannot be empty")
	}
	if !analysisType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ANALYSIS_TYPE", "Invalid analysis type")
	}
	if len(reportIDs) < 2 {
		return nil, shared.ErrInsufficientData
	}

	now := time.Now()
	return &FinancialAnalysis{
		HospitalAggregateRoot: shared.NewHospitalAggregateRootWithCreator(hospitalID, generatedBy),
		AnalysisType:          analysisType,
		Window:                window,
		ReportIDs:             reportIDs,
		Metrics:               metrics,
		Insights:              insights,
		Trends:                trends,
		Forecasts:             forecasts,
		GeneratedBy:           generatedBy,
		CompletedAt:           &now,
	}, nil
}
