package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReportService provides application-level financial report operations
type ReportService struct {
	reportRepo     finance.FinancialReportRepository
	eventPublisher shared.EventPublisher
}

// NewReportService creates a new ReportService
func NewReportService(reportRepo finance.FinancialReportRepository, eventPublisher shared.EventPublisher) *ReportService {
	return &ReportService{
		reportRepo:     reportRepo,
		eventPublisher: eventPublisher,
	}
}

// RevenueInput carries the revenue categories of a request
type RevenueInput struct {
	PatientCare       decimal.Decimal `json:"patient_care"`
	EmergencyServices decimal.Decimal `json:"emergency_services"`
	Surgery           decimal.Decimal `json:"surgery"`
	Laboratory        decimal.Decimal `json:"laboratory"`
	Pharmacy          decimal.Decimal `json:"pharmacy"`
	Other             decimal.Decimal `json:"other"`
}

// ExpenseInput carries the expense categories of a request
type ExpenseInput struct {
	Salaries        decimal.Decimal `json:"salaries"`
	MedicalSupplies decimal.Decimal `json:"medical_supplies"`
	Equipment       decimal.Decimal `json:"equipment"`
	Utilities       decimal.Decimal `json:"utilities"`
	Maintenance     decimal.Decimal `json:"maintenance"`
	Insurance       decimal.Decimal `json:"insurance"`
	Other           decimal.Decimal `json:"other"`
}

// CurrentAssetsInput carries current asset positions of a request
type CurrentAssetsInput struct {
	Cash               decimal.Decimal `json:"cash"`
	AccountsReceivable decimal.Decimal `json:"accounts_receivable"`
	Inventory          decimal.Decimal `json:"inventory"`
	Other              decimal.Decimal `json:"other"`
}

// FixedAssetsInput carries fixed asset positions of a request
type FixedAssetsInput struct {
	Buildings decimal.Decimal `json:"buildings"`
	Equipment decimal.Decimal `json:"equipment"`
	Vehicles  decimal.Decimal `json:"vehicles"`
	Other     decimal.Decimal `json:"other"`
}

// AssetsInput groups asset positions of a request
type AssetsInput struct {
	Current CurrentAssetsInput `json:"current"`
	Fixed   FixedAssetsInput   `json:"fixed"`
}

// CurrentLiabilitiesInput carries current liability positions of a request
type CurrentLiabilitiesInput struct {
	AccountsPayable decimal.Decimal `json:"accounts_payable"`
	ShortTermDebt   decimal.Decimal `json:"short_term_debt"`
	AccruedExpenses decimal.Decimal `json:"accrued_expenses"`
	Other           decimal.Decimal `json:"other"`
}

// LongTermLiabilitiesInput carries long-term liability positions of a request
type LongTermLiabilitiesInput struct {
	LongTermDebt decimal.Decimal `json:"long_term_debt"`
	Other        decimal.Decimal `json:"other"`
}

// LiabilitiesInput groups liability positions of a request
type LiabilitiesInput struct {
	Current  CurrentLiabilitiesInput  `json:"current"`
	LongTerm LongTermLiabilitiesInput `json:"long_term"`
}

// CreateReportRequest represents a request to create a financial report
type CreateReportRequest struct {
	ReportType       string           `json:"report_type" binding:"required,oneof=monthly quarterly annual"`
	Year             int              `json:"year" binding:"required"`
	Month            *int             `json:"month"`
	Quarter          *int             `json:"quarter"`
	Revenue          RevenueInput     `json:"revenue"`
	Expenses         ExpenseInput     `json:"expenses"`
	Assets           AssetsInput      `json:"assets"`
	Liabilities      LiabilitiesInput `json:"liabilities"`
	Capital          decimal.Decimal  `json:"capital"`
	RetainedEarnings decimal.Decimal  `json:"retained_earnings"`
	TaxRate          decimal.Decimal  `json:"tax_rate"`
	TaxDeductions    decimal.Decimal  `json:"tax_deductions"`
	Notes            string           `json:"notes"`
}

// UpdateReportRequest represents a request to update a financial report
type UpdateReportRequest = CreateReportRequest

// ReportListFilter defines filtering options for report list queries
type ReportListFilter struct {
	ReportType string `form:"report_type"`
	Status     string `form:"status"`
	Year       int    `form:"year"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	SortBy     string `form:"sort_by"`
	SortDir    string `form:"sort_dir"`
}

// TaxResponse is the derived tax block in API responses
type TaxResponse struct {
	Income     decimal.Decimal `json:"income"`
	Rate       decimal.Decimal `json:"rate"`
	Amount     decimal.Decimal `json:"amount"`
	Deductions decimal.Decimal `json:"deductions"`
	NetTaxable decimal.Decimal `json:"net_taxable"`
}

// ReportResponse represents a financial report in API responses
type ReportResponse struct {
	ID                uuid.UUID                `json:"id"`
	HospitalID        string                   `json:"hospital_id"`
	ReportType        string                   `json:"report_type"`
	Period            string                   `json:"period"`
	Year              int                      `json:"year"`
	Month             *int                     `json:"month,omitempty"`
	Quarter           *int                     `json:"quarter,omitempty"`
	Revenue           finance.RevenueBreakdown `json:"revenue"`
	Expenses          finance.ExpenseBreakdown `json:"expenses"`
	Assets            finance.Assets           `json:"assets"`
	Liabilities       finance.Liabilities      `json:"liabilities"`
	Equity            finance.Equity           `json:"equity"`
	Tax               TaxResponse              `json:"tax"`
	TotalRevenue      decimal.Decimal          `json:"total_revenue"`
	TotalExpenses     decimal.Decimal          `json:"total_expenses"`
	NetProfit         decimal.Decimal          `json:"net_profit"`
	TotalAssets       decimal.Decimal          `json:"total_assets"`
	TotalLiabilities  decimal.Decimal          `json:"total_liabilities"`
	TotalEquity       decimal.Decimal          `json:"total_equity"`
	Status            string                   `json:"status"`
	Notes             string                   `json:"notes,omitempty"`
	CreatedBy         *uuid.UUID               `json:"created_by,omitempty"`
	ApprovedBy        *uuid.UUID               `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time               `json:"approved_at,omitempty"`
	PreviousVersionID *uuid.UUID               `json:"previous_version_id,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
	Version           int                      `json:"version"`
}

// ReportExport wraps a report with export metadata for download responses
type ReportExport struct {
	Format     string         `json:"format"`
	ExportedAt time.Time      `json:"exported_at"`
	ExportedBy uuid.UUID      `json:"exported_by"`
	Report     ReportResponse `json:"report"`
}

// ReportStats summarizes report counts per lifecycle status
type ReportStats struct {
	Total     int64 `json:"total"`
	Draft     int64 `json:"draft"`
	Submitted int64 `json:"submitted"`
	Approved  int64 `json:"approved"`
	Archived  int64 `json:"archived"`
}

func (r CreateReportRequest) toFigures() finance.ReportFigures {
	return finance.ReportFigures{
		Revenue: finance.RevenueBreakdown{
			PatientCare:       r.Revenue.PatientCare,
			EmergencyServices: r.Revenue.EmergencyServices,
			Surgery:           r.Revenue.Surgery,
			Laboratory:        r.Revenue.Laboratory,
			Pharmacy:          r.Revenue.Pharmacy,
			Other:             r.Revenue.Other,
		},
		Expenses: finance.ExpenseBreakdown{
			Salaries:        r.Expenses.Salaries,
			MedicalSupplies: r.Expenses.MedicalSupplies,
			Equipment:       r.Expenses.Equipment,
			Utilities:       r.Expenses.Utilities,
			Maintenance:     r.Expenses.Maintenance,
			Insurance:       r.Expenses.Insurance,
			Other:           r.Expenses.Other,
		},
		Assets: finance.Assets{
			Current: finance.CurrentAssets{
				Cash:               r.Assets.Current.Cash,
				AccountsReceivable: r.Assets.Current.AccountsReceivable,
				Inventory:          r.Assets.Current.Inventory,
				Other:              r.Assets.Current.Other,
			},
			Fixed: finance.FixedAssets{
				Buildings: r.Assets.Fixed.Buildings,
				Equipment: r.Assets.Fixed.Equipment,
				Vehicles:  r.Assets.Fixed.Vehicles,
				Other:     r.Assets.Fixed.Other,
			},
		},
		Liabilities: finance.Liabilities{
			Current: finance.CurrentLiabilities{
				AccountsPayable: r.Liabilities.Current.AccountsPayable,
				ShortTermDebt:   r.Liabilities.Current.ShortTermDebt,
				AccruedExpenses: r.Liabilities.Current.AccruedExpenses,
				Other:           r.Liabilities.Current.Other,
			},
			LongTerm: finance.LongTermLiabilities{
				LongTermDebt: r.Liabilities.LongTerm.LongTermDebt,
				Other:        r.Liabilities.LongTerm.Other,
			},
		},
		Capital:          r.Capital,
		RetainedEarnings: r.RetainedEarnings,
		TaxRate:          r.TaxRate,
		TaxDeductions:    r.TaxDeductions,
	}
}

// CreateReport creates a new draft financial report. The period slot must
// not already be taken by a non-archived report.
func (s *ReportService) CreateReport(ctx context.Context, actor identity.Actor, req CreateReportRequest) (*ReportResponse, error) {
	reportType := finance.ReportType(req.ReportType)

	taken, err := s.reportRepo.ExistsForPeriod(ctx, actor.HospitalID, reportType, req.Year, req.Month, req.Quarter, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A report for this period already exists")
	}

	report, err := finance.NewFinancialReport(
		actor.HospitalID,
		actor.UserID,
		reportType,
		req.Year,
		req.Month,
		req.Quarter,
		req.toFigures(),
	)
	if err != nil {
		return nil, err
	}

	if req.Notes != "" {
		if err := report.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, report)

	return toReportResponse(report), nil
}

// GetReportByID gets a financial report by ID
func (s *ReportService) GetReportByID(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReportResponse, error) {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toReportResponse(report), nil
}

// UpdateReport updates a report's period key, figures, and notes
func (s *ReportService) UpdateReport(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateReportRequest) (*ReportResponse, error) {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !report.CanBeEditedBy(actor) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only draft reports can be edited")
	}

	reportType := finance.ReportType(req.ReportType)
	taken, err := s.reportRepo.ExistsForPeriod(ctx, actor.HospitalID, reportType, req.Year, req.Month, req.Quarter, report.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A report for this period already exists")
	}

	if err := report.UpdateDetails(reportType, req.Year, req.Month, req.Quarter, req.toFigures(), req.Notes); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, err
	}

	return toReportResponse(report), nil
}

// DeleteReport deletes a financial report
func (s *ReportService) DeleteReport(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return err
	}

	if !report.CanBeDeletedBy(actor) {
		return shared.NewDomainError("FORBIDDEN", "Only draft reports can be deleted")
	}

	return s.reportRepo.Delete(ctx, report.ID)
}

// ListReports lists financial reports with filtering and pagination
func (s *ReportService) ListReports(ctx context.Context, actor identity.Actor, filter ReportListFilter) (shared.Paginated[ReportResponse], error) {
	query := finance.ReportQuery{
		ReportType: finance.ReportType(filter.ReportType),
		Status:     finance.ReportStatus(filter.Status),
		Year:       filter.Year,
		Search:     filter.Search,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		SortBy:     filter.SortBy,
		SortDir:    filter.SortDir,
	}

	page, err := s.reportRepo.FindPage(ctx, actor.HospitalID, query)
	if err != nil {
		return shared.Paginated[ReportResponse]{}, err
	}

	responses := make([]ReportResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = *toReportResponse(&page.Items[i])
	}

	return shared.Paginated[ReportResponse]{
		Items:      responses,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// SubmitReport submits a draft report for approval
func (s *ReportService) SubmitReport(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReportResponse, error) {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := report.Submit(); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, report)

	return toReportResponse(report), nil
}

// ApproveReport approves a submitted report
func (s *ReportService) ApproveReport(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReportResponse, error) {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := report.Approve(actor.UserID); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, report)

	return toReportResponse(report), nil
}

// ArchiveReport archives a single report
func (s *ReportService) ArchiveReport(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReportResponse, error) {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := report.Archive(); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, report)

	return toReportResponse(report), nil
}

// DuplicateReport creates a new draft copy of a report
func (s *ReportService) DuplicateReport(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReportResponse, error) {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	duplicate, err := report.Duplicate(actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.reportRepo.Save(ctx, duplicate); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, duplicate)

	return toReportResponse(duplicate), nil
}

// ExportReport returns a report as a structured export document
func (s *ReportService) ExportReport(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReportExport, error) {
	report, err := s.findReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	return &ReportExport{
		Format:     "json",
		ExportedAt: time.Now().UTC(),
		ExportedBy: actor.UserID,
		Report:     *toReportResponse(report),
	}, nil
}

// GetReportStats returns report counts per status
func (s *ReportService) GetReportStats(ctx context.Context, actor identity.Actor) (*ReportStats, error) {
	counts, err := s.reportRepo.CountByStatus(ctx, actor.HospitalID)
	if err != nil {
		return nil, err
	}

	stats := &ReportStats{
		Draft:     counts[finance.ReportStatusDraft],
		Submitted: counts[finance.ReportStatusSubmitted],
		Approved:  counts[finance.ReportStatusApproved],
		Archived:  counts[finance.ReportStatusArchived],
	}
	stats.Total = stats.Draft + stats.Submitted + stats.Approved + stats.Archived
	return stats, nil
}

func (s *ReportService) findReport(ctx context.Context, actor identity.Actor, id uuid.UUID) (*finance.FinancialReport, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Report not found")
	}
	if report.HospitalID != actor.HospitalID {
		return nil, shared.NewDomainError("FORBIDDEN", "Report belongs to another hospital")
	}
	return report, nil
}

func (s *ReportService) publishEvents(ctx context.Context, report *finance.FinancialReport) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range report.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	report.ClearDomainEvents()
}

func toReportResponse(r *finance.FinancialReport) *ReportResponse {
	return &ReportResponse{
		ID:          r.ID,
		HospitalID:  r.HospitalID,
		ReportType:  string(r.ReportType),
		Period:      r.Period,
		Year:        r.Year,
		Month:       r.Month,
		Quarter:     r.Quarter,
		Revenue:     r.Revenue,
		Expenses:    r.Expenses,
		Assets:      r.Assets,
		Liabilities: r.Liabilities,
		Equity:      r.Equity,
		Tax: TaxResponse{
			Income:     r.Tax.Income,
			Rate:       r.Tax.Rate,
			Amount:     r.Tax.Amount,
			Deductions: r.Tax.Deductions,
			NetTaxable: r.Tax.NetTaxable,
		},
		TotalRevenue:      r.TotalRevenue(),
		TotalExpenses:     r.TotalExpenses(),
		NetProfit:         r.NetProfit(),
		TotalAssets:       r.TotalAssets(),
		TotalLiabilities:  r.TotalLiabilities(),
		TotalEquity:       r.TotalEquity(),
		Status:            string(r.Status),
		Notes:             r.Notes,
		CreatedBy:         r.CreatedBy,
		ApprovedBy:        r.ApprovedBy,
		ApprovedAt:        r.ApprovedAt,
		PreviousVersionID: r.PreviousVersionID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
}
