package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// Display scaling divisors for chart payloads. The stored amounts stay in
// full rupiah; only chart responses are scaled.
var (
	millions = decimal.NewFromInt(1_000_000)
	billions = decimal.NewFromInt(1_000_000_000)
)

const statsCacheTTL = 5 * time.Minute

// qualifyingStatuses are the report statuses dashboards aggregate over
var qualifyingStatuses = []finance.ReportStatus{
	finance.ReportStatusApproved,
	finance.ReportStatusSubmitted,
}

// StatsCache caches computed dashboard payloads. A miss returns found=false
// with no error.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DashboardService provides read-only dashboard aggregation
type DashboardService struct {
	reportRepo finance.FinancialReportRepository
	cache      StatsCache
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(reportRepo finance.FinancialReportRepository, cache StatsCache) *DashboardService {
	return &DashboardService{
		reportRepo: reportRepo,
		cache:      cache,
		cacheTTL:   statsCacheTTL,
		now:        time.Now,
	}
}

// SetCacheTTL overrides the default stats cache TTL. Non-positive values
// keep the default.
func (s *DashboardService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// DashboardStats is the headline metric block. All fields are zero when the
// hospital has no qualifying report.
type DashboardStats struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	TotalAssets       decimal.Decimal `json:"total_assets"`
	TotalLiabilities  decimal.Decimal `json:"total_liabilities"`
	TotalEquity       decimal.Decimal `json:"total_equity"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	RevenueGrowth     float64         `json:"revenue_growth"`
	ProfitMargin      float64         `json:"profit_margin"`
	CurrentRatio      float64         `json:"current_ratio"`
	DebtToEquityRatio float64         `json:"debt_to_equity_ratio"`
}

// GetStats computes the headline metrics from the latest qualifying report,
// compared against the previous one for growth
func (s *DashboardService) GetStats(ctx context.Context, actor identity.Actor) (*DashboardStats, error) {
	cacheKey := fmt.Sprintf("dashboard:stats:%s", actor.HospitalID)
	if s.cache != nil {
		var cached DashboardStats
		if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	latest, err := s.reportRepo.FindLatestByStatuses(ctx, actor.HospitalID, qualifyingStatuses, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &DashboardStats{
			TotalRevenue:     decimal.Zero,
			TotalExpenses:    decimal.Zero,
			NetProfit:        decimal.Zero,
			TotalAssets:      decimal.Zero,
			TotalLiabilities: decimal.Zero,
			TotalEquity:      decimal.Zero,
			TaxAmount:        decimal.Zero,
		}, nil
	}

	stats := &DashboardStats{
		TotalRevenue:     latest.TotalRevenue(),
		TotalExpenses:    latest.TotalExpenses(),
		NetProfit:        latest.NetProfit(),
		TotalAssets:      latest.TotalAssets(),
		TotalLiabilities: latest.TotalLiabilities(),
		TotalEquity:      latest.TotalEquity(),
		TaxAmount:        latest.Tax.Amount,
	}

	previous, err := s.reportRepo.FindLatestByStatuses(ctx, actor.HospitalID, qualifyingStatuses, latest.ID)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		stats.RevenueGrowth = percentChange(latest.TotalRevenue(), previous.TotalRevenue())
	}

	stats.ProfitMargin = percentOf(latest.NetProfit(), latest.TotalRevenue())
	stats.CurrentRatio = safeRatio(latest.CurrentAssets(), latest.CurrentLiabilities())
	stats.DebtToEquityRatio = safeRatio(latest.TotalLiabilities(), latest.TotalEquity())

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, stats, s.cacheTTL)
	}
	return stats, nil
}

// InvalidateStats drops the cached headline metrics for a hospital. Called
// after report mutations so the dashboard does not serve stale numbers for
// the full TTL.
func (s *DashboardService) InvalidateStats(ctx context.Context, hospitalID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, fmt.Sprintf("dashboard:stats:%s", hospitalID))
	}
}

// ChartPoint is one period's value in a chart series, scaled to millions
type ChartPoint struct {
	Name      string             `json:"name"`
	Value     float64            `json:"value"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// GetRevenueChart returns one revenue point per qualifying report in a year
func (s *DashboardService) GetRevenueChart(ctx context.Context, actor identity.Actor, year int) ([]ChartPoint, error) {
	reports, err := s.qualifyingByYear(ctx, actor.HospitalID, year)
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		points = append(points, ChartPoint{
			Name:  r.Period,
			Value: toMillions(r.TotalRevenue()),
			Breakdown: map[string]float64{
				"patient_care":       toMillions(r.Revenue.PatientCare),
				"emergency_services": toMillions(r.Revenue.EmergencyServices),
				"surgery":            toMillions(r.Revenue.Surgery),
				"laboratory":         toMillions(r.Revenue.Laboratory),
				"pharmacy":           toMillions(r.Revenue.Pharmacy),
				"other":              toMillions(r.Revenue.Other),
			},
		})
	}
	return points, nil
}

// GetExpenseChart returns one expense point per qualifying report in a year
func (s *DashboardService) GetExpenseChart(ctx context.Context, actor identity.Actor, year int) ([]ChartPoint, error) {
	reports, err := s.qualifyingByYear(ctx, actor.HospitalID, year)
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		points = append(points, ChartPoint{
			Name:  r.Period,
			Value: toMillions(r.TotalExpenses()),
			Breakdown: map[string]float64{
				"salaries":         toMillions(r.Expenses.Salaries),
				"medical_supplies": toMillions(r.Expenses.MedicalSupplies),
				"equipment":        toMillions(r.Expenses.Equipment),
				"utilities":        toMillions(r.Expenses.Utilities),
				"maintenance":      toMillions(r.Expenses.Maintenance),
				"insurance":        toMillions(r.Expenses.Insurance),
				"other":            toMillions(r.Expenses.Other),
			},
		})
	}
	return points, nil
}

// ProfitPoint is one period's profit figures, scaled to millions
type ProfitPoint struct {
	Name     string  `json:"name"`
	Profit   float64 `json:"profit"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Margin   float64 `json:"margin"`
}

// GetProfitChart returns one profit point per qualifying report in a year
func (s *DashboardService) GetProfitChart(ctx context.Context, actor identity.Actor, year int) ([]ProfitPoint, error) {
	reports, err := s.qualifyingByYear(ctx, actor.HospitalID, year)
	if err != nil {
		return nil, err
	}

	points := make([]ProfitPoint, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		points = append(points, ProfitPoint{
			Name:     r.Period,
			Profit:   toMillions(r.NetProfit()),
			Revenue:  toMillions(r.TotalRevenue()),
			Expenses: toMillions(r.TotalExpenses()),
			Margin:   percentOf(r.NetProfit(), r.TotalRevenue()),
		})
	}
	return points, nil
}

// BalanceSheetSlice is one slice of the balance sheet chart, scaled to
// billions
type BalanceSheetSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// GetBalanceSheetChart returns the assets/liabilities/equity slices from
// the latest qualifying report. Empty when no report qualifies.
func (s *DashboardService) GetBalanceSheetChart(ctx context.Context, actor identity.Actor) ([]BalanceSheetSlice, error) {
	latest, err := s.reportRepo.FindLatestByStatuses(ctx, actor.HospitalID, qualifyingStatuses, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return []BalanceSheetSlice{}, nil
	}

	return []BalanceSheetSlice{
		{Name: "Aset", Value: toBillions(latest.TotalAssets()), Color: "#3B82F6"},
		{Name: "Kewajiban", Value: toBillions(latest.TotalLiabilities()), Color: "#EF4444"},
		{Name: "Ekuitas", Value: toBillions(latest.TotalEquity()), Color: "#10B981"},
	}, nil
}

// FinancialRatios is the ratio block derived from the latest qualifying
// report. All zeros when no report qualifies.
type FinancialRatios struct {
	CurrentRatio      float64 `json:"current_ratio"`
	DebtToEquityRatio float64 `json:"debt_to_equity_ratio"`
	ProfitMargin      float64 `json:"profit_margin"`
	AssetTurnover     float64 `json:"asset_turnover"`
	ReturnOnAssets    float64 `json:"return_on_assets"`
	ReturnOnEquity    float64 `json:"return_on_equity"`
}

// GetFinancialRatios computes liquidity, leverage, and profitability ratios
func (s *DashboardService) GetFinancialRatios(ctx context.Context, actor identity.Actor) (*FinancialRatios, error) {
	latest, err := s.reportRepo.FindLatestByStatuses(ctx, actor.HospitalID, qualifyingStatuses, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &FinancialRatios{}, nil
	}

	return &FinancialRatios{
		CurrentRatio:      safeRatio(latest.CurrentAssets(), latest.CurrentLiabilities()),
		DebtToEquityRatio: safeRatio(latest.TotalLiabilities(), latest.TotalEquity()),
		ProfitMargin:      percentOf(latest.NetProfit(), latest.TotalRevenue()),
		AssetTurnover:     safeRatio(latest.TotalRevenue(), latest.TotalAssets()),
		ReturnOnAssets:    percentOf(latest.NetProfit(), latest.TotalAssets()),
		ReturnOnEquity:    percentOf(latest.NetProfit(), latest.TotalEquity()),
	}, nil
}

// YearTotals sums all qualifying reports of one calendar year
type YearTotals struct {
	Year     int             `json:"year"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

// GrowthRates holds year-over-year growth percentages
type GrowthRates struct {
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// ComparativeAnalysis compares the current year's totals against the
// previous year's
type ComparativeAnalysis struct {
	CurrentYear  YearTotals  `json:"current_year"`
	PreviousYear YearTotals  `json:"previous_year"`
	Growth       GrowthRates `json:"growth"`
}

// GetComparativeAnalysis sums this year's and last year's qualifying
// reports and computes growth between them
func (s *DashboardService) GetComparativeAnalysis(ctx context.Context, actor identity.Actor) (*ComparativeAnalysis, error) {
	currentYear := s.now().Year()
	previousYear := currentYear - 1

	current, err := s.yearTotals(ctx, actor.HospitalID, currentYear)
	if err != nil {
		return nil, err
	}
	previous, err := s.yearTotals(ctx, actor.HospitalID, previousYear)
	if err != nil {
		return nil, err
	}

	return &ComparativeAnalysis{
		CurrentYear:  *current,
		PreviousYear: *previous,
		Growth: GrowthRates{
			Revenue:  percentChange(current.Revenue, previous.Revenue),
			Expenses: percentChange(current.Expenses, previous.Expenses),
			Profit:   percentChange(current.Profit, previous.Profit),
		},
	}, nil
}

// Activity is one entry of the recent activity feed
type Activity struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Action      string     `json:"action"`
	Description string     `json:"description"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Period      string     `json:"period"`
	Status      string     `json:"status"`
}

// GetRecentActivity lists the most recently touched reports as an activity
// feed, newest first
func (s *DashboardService) GetRecentActivity(ctx context.Context, actor identity.Actor, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}

	reports, err := s.reportRepo.FindRecentlyUpdated(ctx, actor.HospitalID, limit)
	if err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, len(reports))
	for i := range reports {
		r := &reports[i]

		action := "created"
		user := r.CreatedBy
		switch r.Status {
		case finance.ReportStatusApproved:
			action = "approved"
			user = r.ApprovedBy
		case finance.ReportStatusSubmitted:
			action = "submitted"
		}

		activities = append(activities, Activity{
			ID:          r.ID,
			Type:        "report",
			Action:      action,
			Description: fmt.Sprintf("Report %s was %s", r.Period, r.Status),
			UserID:      user,
			Timestamp:   r.UpdatedAt,
			Period:      r.Period,
			Status:      string(r.Status),
		})
	}
	return activities, nil
}

func (s *DashboardService) qualifyingByYear(ctx context.Context, hospitalID string, year int) ([]finance.FinancialReport, error) {
	if year == 0 {
		year = s.now().Year()
	}

	reports, err := s.reportRepo.FindByYear(ctx, hospitalID, year)
	if err != nil {
		return nil, err
	}

	qualifying := reports[:0]
	for _, r := range reports {
		if r.Status == finance.ReportStatusApproved || r.Status == finance.ReportStatusSubmitted {
			qualifying = append(qualifying, r)
		}
	}
	return qualifying, nil
}

func (s *DashboardService) yearTotals(ctx context.Context, hospitalID string, year int) (*YearTotals, error) {
	reports, err := s.qualifyingByYear(ctx, hospitalID, year)
	if err != nil {
		return nil, err
	}

	totals := &YearTotals{
		Year:     year,
		Revenue:  decimal.Zero,
		Expenses: decimal.Zero,
		Profit:   decimal.Zero,
	}
	for i := range reports {
		totals.Revenue = totals.Revenue.Add(reports[i].TotalRevenue())
		totals.Expenses = totals.Expenses.Add(reports[i].TotalExpenses())
		totals.Profit = totals.Profit.Add(reports[i].NetProfit())
	}
	return totals, nil
}

func toMillions(v decimal.Decimal) float64 {
	f, _ := v.Div(millions).Float64()
	return f
}

func toBillions(v decimal.Decimal) float64 {
	f, _ := v.Div(billions).Float64()
	return f
}

func percentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() || previous.IsNegative() {
		return 0
	}
	change, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return change
}

func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() || whole.IsNegative() {
		return 0
	}
	ratio, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Float64()
	return ratio
}

func safeRatio(numerator, denominator decimal.Decimal) float64 {
	if denominator.IsZero() || denominator.IsNegative() {
		return 0
	}
	ratio, _ := numerator.Div(denominator).Float64()
	return ratio
}
