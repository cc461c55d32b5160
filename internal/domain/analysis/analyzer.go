package analysis

import (
	"fmt"
	"math"

	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Fixed heuristics applied to every generated analysis. The turnover and
// coverage figures are industry placeholders, not computed from the data.
const (
	strongGrowthThreshold   = 10.0 // percent
	revenueDeclineThreshold = -5.0
	healthyMarginThreshold  = 15.0
	lowMarginThreshold      = 5.0
	liquidityFloor          = 1.0

	quickRatioFactor = 0.8
	cashRatioFactor  = 0.3

	receivableTurnoverDefault = 12.0
	inventoryTurnoverDefault  = 8.0
	interestCoverageDefault   = 5.2

	confidenceCeiling = 85.0
	confidenceFloor   = 60.0
)

// AnalysisResult is the output of Analyze, ready to store on a
// FinancialAnalysis record
type AnalysisResult struct {
	Metrics   Metrics
	Insights  []Insight
	Trends    []Trend
	Forecasts []Forecast
}

// Analyze compares the two most recent reports of the ordered window and
// derives metrics, threshold-based insights, and a naive revenue forecast.
// Reports must be sorted by creation time ascending. Fewer than two reports
// is an insufficient-data error, never a zero-filled result.
func Analyze(reports []*finance.FinancialReport) (*AnalysisResult, error) {
	if len(reports) < 2 {
		return nil, shared.ErrInsufficientData
	}

	latest := reports[len(reports)-1]
	previous := reports[len(reports)-2]

	currentRevenue := latest.TotalRevenue()
	previousRevenue := previous.TotalRevenue()
	currentProfit := latest.NetProfit()

	totalAssets := latest.TotalAssets()
	totalLiabilities := latest.TotalLiabilities()
	totalEquity := latest.TotalEquity()

	revenueGrowth := percentChange(currentRevenue, previousRevenue)
	profitMargin := percentOf(currentProfit, currentRevenue)
	currentRatio := safeRatio(totalAssets, totalLiabilities)

	metrics := Metrics{
		RevenueGrowth: GrowthMetrics{
			Current:    currentRevenue,
			Previous:   previousRevenue,
			GrowthRate: revenueGrowth,
		},
		Profitability: ProfitabilityMetrics{
			GrossProfitMargin: profitMargin,
			NetProfitMargin:   profitMargin,
			OperatingMargin:   profitMargin,
		},
		Liquidity: LiquidityMetrics{
			CurrentRatio: currentRatio,
			QuickRatio:   currentRatio * quickRatioFactor,
			CashRatio:    currentRatio * cashRatioFactor,
		},
		Efficiency: EfficiencyMetrics{
			AssetTurnover:      safeRatio(currentRevenue, totalAssets),
			ReceivableTurnover: receivableTurnoverDefault,
			InventoryTurnover:  inventoryTurnoverDefault,
		},
		Leverage: LeverageMetrics{
			DebtToEquity:     safeRatio(totalLiabilities, totalEquity),
			DebtToAssets:     safeRatio(totalLiabilities, totalAssets),
			InterestCoverage: interestCoverageDefault,
		},
	}

	insights := buildInsights(revenueGrowth, profitMargin, currentRatio)
	trends := []Trend{revenueTrend(revenueGrowth)}
	forecasts := []Forecast{revenueForecast(currentRevenue, revenueGrowth)}

	return &AnalysisResult{
		Metrics:   metrics,
		Insights:  insights,
		Trends:    trends,
		Forecasts: forecasts,
	}, nil
}

func buildInsights(revenueGrowth, profitMargin, currentRatio float64) []Insight {
	insights := make([]Insight, 0, 3)

	if revenueGrowth > strongGrowthThreshold {
		insights = append(insights, Insight{
			Category:       InsightPositive,
			Title:          "Strong Revenue Growth",
			Description:    fmt.Sprintf("Revenue increased by %.1f%% compared to previous period", revenueGrowth),
			Impact:         ImpactHigh,
			Recommendation: "Continue current growth strategies and consider expansion opportunities",
		})
	} else if revenueGrowth < revenueDeclineThreshold {
		insights = append(insights, Insight{
			Category:       InsightNegative,
			Title:          "Revenue Decline",
			Description:    fmt.Sprintf("Revenue decreased by %.1f%% compared to previous period", math.Abs(revenueGrowth)),
			Impact:         ImpactHigh,
			Recommendation: "Review pricing strategy and market positioning",
		})
	}

	if profitMargin > healthyMarginThreshold {
		insights = append(insights, Insight{
			Category:       InsightPositive,
			Title:          "Healthy Profit Margin",
			Description:    fmt.Sprintf("Current profit margin is %.1f%%", profitMargin),
			Impact:         ImpactMedium,
			Recommendation: "Maintain operational efficiency and cost control",
		})
	} else if profitMargin < lowMarginThreshold {
		insights = append(insights, Insight{
			Category:       InsightWarning,
			Title:          "Low Profit Margin",
			Description:    fmt.Sprintf("Current profit margin is only %.1f%%", profitMargin),
			Impact:         ImpactHigh,
			Recommendation: "Review cost structure and operational efficiency",
		})
	}

	if currentRatio < liquidityFloor {
		insights = append(insights, Insight{
			Category:       InsightNegative,
			Title:          "Liquidity Concern",
			Description:    fmt.Sprintf("Current ratio is %.2f, indicating potential liquidity issues", currentRatio),
			Impact:         ImpactHigh,
			Recommendation: "Improve cash flow management and consider debt restructuring",
		})
	}

	return insights
}

func revenueTrend(revenueGrowth float64) Trend {
	direction := TrendDecreasing
	if revenueGrowth > 0 {
		direction = TrendIncreasing
	}

	magnitude := math.Abs(revenueGrowth)
	significance := SignificanceMinor
	switch {
	case magnitude > 10:
		significance = SignificanceSignificant
	case magnitude > 5:
		significance = SignificanceModerate
	}

	return Trend{
		Metric:       "Revenue",
		Direction:    direction,
		Percentage:   magnitude,
		Significance: significance,
	}
}

// revenueForecast projects next-period revenue linearly from the current
// growth rate. Confidence shrinks as growth gets more volatile, bounded to
// [60, 85].
func revenueForecast(currentRevenue decimal.Decimal, revenueGrowth float64) Forecast {
	growthFactor := decimal.NewFromFloat(1 + revenueGrowth/100)
	confidence := math.Min(confidenceCeiling, math.Max(confidenceFloor, confidenceCeiling-math.Abs(revenueGrowth)/2))

	return Forecast{
		Metric:         "Revenue",
		CurrentValue:   currentRevenue,
		ProjectedValue: currentRevenue.Mul(growthFactor),
		Timeframe:      "Next Period",
		Confidence:     confidence,
	}
}

// percentChange returns (current-previous)/previous*100, 0 when previous is 0
func percentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	change, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return change
}

// percentOf returns part/whole*100, 0 when whole is 0
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	ratio, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Float64()
	return ratio
}

// safeRatio returns numerator/denominator, 0 when the denominator is 0
func safeRatio(numerator, denominator decimal.Decimal) float64 {
	if denominator.IsZero() {
		return 0
	}
	ratio, _ := numerator.Div(denominator).Float64()
	return ratio
}
