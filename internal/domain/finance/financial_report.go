package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReportType represents the time bucket of a financial report
type ReportType string

const (
	ReportTypeMonthly   ReportType = "monthly"
	ReportTypeQuarterly ReportType = "quarterly"
	ReportTypeAnnual    ReportType = "annual"
)

// IsValid checks if the type is a valid ReportType
func (t ReportType) IsValid() bool {
	switch t {
	case ReportTypeMonthly, ReportTypeQuarterly, ReportTypeAnnual:
		return true
	}
	return false
}

// String returns the string representation of ReportType
func (t ReportType) String() string {
	return string(t)
}

// ReportStatus represents the lifecycle status of a financial report
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"     // Editable, not yet submitted
	ReportStatusSubmitted ReportStatus = "submitted" // Awaiting approval
	ReportStatusApproved  ReportStatus = "approved"  // Approved, immutable for non-elevated actors
	ReportStatusArchived  ReportStatus = "archived"  // Out of the active period-uniqueness set
)

// IsValid checks if the status is a valid ReportStatus
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusSubmitted, ReportStatusApproved, ReportStatusArchived:
		return true
	}
	return false
}

// String returns the string representation of ReportStatus
func (s ReportStatus) String() string {
	return string(s)
}

// CanSubmit returns true if a report in this status can be submitted
func (s ReportStatus) CanSubmit() bool {
	return s == ReportStatusDraft
}

// CanApprove returns true if a report in this status can be approved
func (s ReportStatus) CanApprove() bool {
	return s == ReportStatusSubmitted
}

// monthNames holds the Indonesian month names used in period labels
var monthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// RevenueBreakdown holds the six revenue categories
type RevenueBreakdown struct {
	PatientCare       decimal.Decimal `json:"patient_care"`
	EmergencyServices decimal.Decimal `json:"emergency_services"`
	Surgery           decimal.Decimal `json:"surgery"`
	Laboratory        decimal.Decimal `json:"laboratory"`
	Pharmacy          decimal.Decimal `json:"pharmacy"`
	Other             decimal.Decimal `json:"other"`
}

// Total returns the sum of all revenue categories
func (r RevenueBreakdown) Total() decimal.Decimal {
	return r.PatientCare.Add(r.EmergencyServices).Add(r.Surgery).
		Add(r.Laboratory).Add(r.Pharmacy).Add(r.Other)
}

func (r RevenueBreakdown) validate() error {
	return requireNonNegative("revenue", map[string]decimal.Decimal{
		"patient_care":       r.PatientCare,
		"emergency_services": r.EmergencyServices,
		"surgery":            r.Surgery,
		"laboratory":         r.Laboratory,
		"pharmacy":           r.Pharmacy,
		"other":              r.Other,
	})
}

// ExpenseBreakdown holds the seven expense categories
type ExpenseBreakdown struct {
	Salaries        decimal.Decimal `json:"salaries"`
	MedicalSupplies decimal.Decimal `json:"medical_supplies"`
	Equipment       decimal.Decimal `json:"equipment"`
	Utilities       decimal.Decimal `json:"utilities"`
	Maintenance     decimal.Decimal `json:"maintenance"`
	Insurance       decimal.Decimal `json:"insurance"`
	Other           decimal.Decimal `json:"other"`
}

// Total returns the sum of all expense categories
func (e ExpenseBreakdown) Total() decimal.Decimal {
	return e.Salaries.Add(e.MedicalSupplies).Add(e.Equipment).
		Add(e.Utilities).Add(e.Maintenance).Add(e.Insurance).Add(e.Other)
}

func (e ExpenseBreakdown) validate() error {
	return requireNonNegative("expenses", map[string]decimal.Decimal{
		"salaries":         e.Salaries,
		"medical_supplies": e.MedicalSupplies,
		"equipment":        e.Equipment,
		"utilities":        e.Utilities,
		"maintenance":      e.Maintenance,
		"insurance":        e.Insurance,
		"other":            e.Other,
	})
}

// CurrentAssets holds the current asset positions
type CurrentAssets struct {
	Cash               decimal.Decimal `json:"cash"`
	AccountsReceivable decimal.Decimal `json:"accounts_receivable"`
	Inventory          decimal.Decimal `json:"inventory"`
	Other              decimal.Decimal `json:"other"`
}

// Total returns the sum of current assets
func (a CurrentAssets) Total() decimal.Decimal {
	return a.Cash.Add(a.AccountsReceivable).Add(a.Inventory).Add(a.Other)
}

// FixedAssets holds the fixed asset positions
type FixedAssets struct {
	Buildings decimal.Decimal `json:"buildings"`
	Equipment decimal.Decimal `json:"equipment"`
	Vehicles  decimal.Decimal `json:"vehicles"`
	Other     decimal.Decimal `json:"other"`
}

// Total returns the sum of fixed assets
func (a FixedAssets) Total() decimal.Decimal {
	return a.Buildings.Add(a.Equipment).Add(a.Vehicles).Add(a.Other)
}

// Assets groups current and fixed asset positions
type Assets struct {
	Current CurrentAssets `json:"current"`
	Fixed   FixedAssets   `json:"fixed"`
}

func (a Assets) validate() error {
	if err := requireNonNegative("assets.current", map[string]decimal.Decimal{
		"cash":                a.Current.Cash,
		"accounts_receivable": a.Current.AccountsReceivable,
		"inventory":           a.Current.Inventory,
		"other":               a.Current.Other,
	}); err != nil {
		return err
	}
	return requireNonNegative("assets.fixed", map[string]decimal.Decimal{
		"buildings": a.Fixed.Buildings,
		"equipment": a.Fixed.Equipment,
		"vehicles":  a.Fixed.Vehicles,
		"other":     a.Fixed.Other,
	})
}

// CurrentLiabilities holds the current liability positions
type CurrentLiabilities struct {
	AccountsPayable decimal.Decimal `json:"accounts_payable"`
	ShortTermDebt   decimal.Decimal `json:"short_term_debt"`
	AccruedExpenses decimal.Decimal `json:"accrued_expenses"`
	Other           decimal.Decimal `json:"other"`
}

// Total returns the sum of current liabilities
func (l CurrentLiabilities) Total() decimal.Decimal {
	return l.AccountsPayable.Add(l.ShortTermDebt).Add(l.AccruedExpenses).Add(l.Other)
}

// LongTermLiabilities holds the long-term liability positions
type LongTermLiabilities struct {
	LongTermDebt decimal.Decimal `json:"long_term_debt"`
	Other        decimal.Decimal `json:"other"`
}

// Total returns the sum of long-term liabilities
func (l LongTermLiabilities) Total() decimal.Decimal {
	return l.LongTermDebt.Add(l.Other)
}

// Liabilities groups current and long-term liability positions
type Liabilities struct {
	Current  CurrentLiabilities  `json:"current"`
	LongTerm LongTermLiabilities `json:"long_term"`
}

func (l Liabilities) validate() error {
	if err := requireNonNegative("liabilities.current", map[string]decimal.Decimal{
		"accounts_payable": l.Current.AccountsPayable,
		"short_term_debt":  l.Current.ShortTermDebt,
		"accrued_expenses": l.Current.AccruedExpenses,
		"other":            l.Current.Other,
	}); err != nil {
		return err
	}
	return requireNonNegative("liabilities.long_term", map[string]decimal.Decimal{
		"long_term_debt": l.LongTerm.LongTermDebt,
		"other":          l.LongTerm.Other,
	})
}

// Equity holds the equity components. CurrentEarnings is derived by the tax
// pipeline and never accepted as input.
type Equity struct {
	Capital          decimal.Decimal `json:"capital"`
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	CurrentEarnings  decimal.Decimal `json:"current_earnings"`
}

// Total returns capital + retained earnings + current earnings.
// Only meaningful after Recalculate has run on the owning report.
func (e Equity) Total() decimal.Decimal {
	return e.Capital.Add(e.RetainedEarnings).Add(e.CurrentEarnings)
}

// Tax holds the tax block. Income, NetTaxable and Amount are derived by
// Recalculate; Rate and Deductions are input.
type Tax struct {
	Income     decimal.Decimal `json:"income"`      // gross profit snapshot
	Rate       decimal.Decimal `json:"rate"`        // 0..1
	Amount     decimal.Decimal `json:"amount"`      // netTaxable * rate
	Deductions decimal.Decimal `json:"deductions"`  // input
	NetTaxable decimal.Decimal `json:"net_taxable"` // max(0, grossProfit - deductions)
}

// DefaultTaxRate is the corporate tax rate applied when none is supplied
var DefaultTaxRate = decimal.NewFromFloat(0.25)

// ReportFigures bundles the user-supplied financial line items of a report
type ReportFigures struct {
	Revenue          RevenueBreakdown
	Expenses         ExpenseBreakdown
	Assets           Assets
	Liabilities      Liabilities
	Capital          decimal.Decimal
	RetainedEarnings decimal.Decimal
	TaxRate          decimal.Decimal
	TaxDeductions    decimal.Decimal
}

func (f ReportFigures) validate() error {
	if err := f.Revenue.validate(); err != nil {
		return err
	}
	if err := f.Expenses.validate(); err != nil {
		return err
	}
	if err := f.Assets.validate(); err != nil {
		return err
	}
	if err := f.Liabilities.validate(); err != nil {
		return err
	}
	if f.TaxRate.IsNegative() || f.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 1")
	}
	if f.TaxDeductions.IsNegative() {
		return shared.NewDomainError("INVALID_DEDUCTIONS", "Tax deductions cannot be negative")
	}
	return nil
}

// FinancialReport is the aggregate root for a hospital's financial report
type FinancialReport struct {
	shared.HospitalAggregateRoot
	ReportType        ReportType       `json:"report_type"`
	Period            string           `json:"period"` // derived label, e.g. "Januari 2024"
	Year              int              `json:"year"`
	Month             *int             `json:"month,omitempty"`   // 1..12, monthly reports only
	Quarter           *int             `json:"quarter,omitempty"` // 1..4, quarterly reports only
	Revenue           RevenueBreakdown `json:"revenue"`
	Expenses          ExpenseBreakdown `json:"expenses"`
	Assets            Assets           `json:"assets"`
	Liabilities       Liabilities      `json:"liabilities"`
	Equity            Equity           `json:"equity"`
	Tax               Tax              `json:"tax"`
	Status            ReportStatus     `json:"status"`
	Notes             string           `json:"notes"`
	ApprovedBy        *uuid.UUID       `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
	PreviousVersionID *uuid.UUID       `json:"previous_version_id,omitempty"` // duplication lineage
}

// NewFinancialReport creates a new draft financial report. The period label
// is derived and the tax pipeline runs before the report is returned, so the
// aggregate is always consistent in memory.
func NewFinancialReport(
	hospitalID string,
	createdBy uuid.UUID,
	reportType ReportType,
	year int,
	month *int,
	quarter *int,
	figures ReportFigures,
) (*FinancialReport, error) {
	if hospitalID == "" {
		return nil, shared.NewDomainError("INVALID_HOSPITAL_ID", "Hospital ID is required")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Creator user ID cannot be empty")
	}
	if err := validatePeriodKey(reportType, year, month, quarter); err != nil {
		return nil, err
	}
	if err := figures.validate(); err != nil {
		return nil, err
	}

	rate := figures.TaxRate
	if rate.IsZero() {
		rate = DefaultTaxRate
	}

	report := &FinancialReport{
		HospitalAggregateRoot: shared.NewHospitalAggregateRootWithCreator(hospitalID, createdBy),
		ReportType:            reportType,
		Year:                  year,
		Month:                 month,
		Quarter:               quarter,
		Period:                PeriodLabel(reportType, year, month, quarter),
		Revenue:               figures.Revenue,
		Expenses:              figures.Expenses,
		Assets:                figures.Assets,
		Liabilities:           figures.Liabilities,
		Equity: Equity{
			Capital:          figures.Capital,
			RetainedEarnings: figures.RetainedEarnings,
		},
		Tax: Tax{
			Rate:       rate,
			Deductions: figures.TaxDeductions,
		},
		Status: ReportStatusDraft,
	}
	report.Recalculate()

	report.AddDomainEvent(NewReportCreatedEvent(report))

	return report, nil
}

// PeriodLabel derives the human-readable period label for a report key
func PeriodLabel(reportType ReportType, year int, month, quarter *int) string {
	switch reportType {
	case ReportTypeMonthly:
		if month != nil && *month >= 1 && *month <= 12 {
			return fmt.Sprintf("%s %d", monthNames[*month-1], year)
		}
	case ReportTypeQuarterly:
		if quarter != nil {
			return fmt.Sprintf("Q%d %d", *quarter, year)
		}
	}
	return fmt.Sprintf("%d", year)
}

func validatePeriodKey(reportType ReportType, year int, month, quarter *int) error {
	if !reportType.IsValid() {
		return shared.NewDomainError("INVALID_REPORT_TYPE", "Report type must be monthly, quarterly, or annual")
	}
	if year < 2020 || year > 2030 {
		return shared.NewDomainError("INVALID_YEAR", "Year must be between 2020 and 2030")
	}
	switch reportType {
	case ReportTypeMonthly:
		if month == nil {
			return shared.NewDomainError("INVALID_PERIOD", "Month is required for monthly reports")
		}
		if *month < 1 || *month > 12 {
			return shared.NewDomainError("INVALID_PERIOD", "Month must be between 1 and 12")
		}
	case ReportTypeQuarterly:
		if quarter == nil {
			return shared.NewDomainError("INVALID_PERIOD", "Quarter is required for quarterly reports")
		}
		if *quarter < 1 || *quarter > 4 {
			return shared.NewDomainError("INVALID_PERIOD", "Quarter must be between 1 and 4")
		}
	}
	return nil
}

func requireNonNegative(group string, values map[string]decimal.Decimal) error {
	for field, v := range values {
		if v.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT",
				fmt.Sprintf("%s.%s cannot be negative", group, field))
		}
	}
	return nil
}

// ===================== Derived metrics =====================
//
// Totals are pure functions over the line items, computed on read rather
// than stored, so they cannot diverge from their inputs. Only the tax block
// and current earnings are persisted because they feed further computation.

// TotalRevenue returns the sum of the six revenue categories
func (r *FinancialReport) TotalRevenue() decimal.Decimal {
	return r.Revenue.Total()
}

// TotalExpenses returns the sum of the seven expense categories
func (r *FinancialReport) TotalExpenses() decimal.Decimal {
	return r.Expenses.Total()
}

// NetProfit returns total revenue minus total expenses
func (r *FinancialReport) NetProfit() decimal.Decimal {
	return r.TotalRevenue().Sub(r.TotalExpenses())
}

// CurrentAssets returns the sum of current asset positions
func (r *FinancialReport) CurrentAssets() decimal.Decimal {
	return r.Assets.Current.Total()
}

// TotalAssets returns current plus fixed assets
func (r *FinancialReport) TotalAssets() decimal.Decimal {
	return r.Assets.Current.Total().Add(r.Assets.Fixed.Total())
}

// CurrentLiabilities returns the sum of current liability positions
func (r *FinancialReport) CurrentLiabilities() decimal.Decimal {
	return r.Liabilities.Current.Total()
}

// TotalLiabilities returns current plus long-term liabilities
func (r *FinancialReport) TotalLiabilities() decimal.Decimal {
	return r.Liabilities.Current.Total().Add(r.Liabilities.LongTerm.Total())
}

// TotalEquity returns capital + retained earnings + current earnings.
// Valid only after Recalculate has run, because current earnings depend on
// the computed tax amount.
func (r *FinancialReport) TotalEquity() decimal.Decimal {
	return r.Equity.Total()
}

// Recalculate runs the tax pipeline. The ordering is fixed: gross profit,
// then net taxable (clamped at zero), then tax amount, then current
// earnings, which depend on the freshly computed tax amount. Every save
// path must call this before persisting.
func (r *FinancialReport) Recalculate() {
	grossProfit := r.TotalRevenue().Sub(r.TotalExpenses())
	r.Tax.Income = grossProfit

	netTaxable := grossProfit.Sub(r.Tax.Deductions)
	if netTaxable.IsNegative() {
		netTaxable = decimal.Zero
	}
	r.Tax.NetTaxable = netTaxable
	r.Tax.Amount = netTaxable.Mul(r.Tax.Rate)

	r.Equity.CurrentEarnings = grossProfit.Sub(r.Tax.Amount)
}

// ===================== Lifecycle =====================

// Submit moves a draft report to submitted
func (r *FinancialReport) Submit() error {
	if !r.Status.CanSubmit() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit report in %s status, only draft reports can be submitted", r.Status))
	}
	r.Status = ReportStatusSubmitted
	r.Touch()

	r.AddDomainEvent(NewReportSubmittedEvent(r))

	return nil
}

// Approve moves a submitted report to approved, recording the approver
func (r *FinancialReport) Approve(approvedBy uuid.UUID) error {
	if !r.Status.CanApprove() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot approve report in %s status, only submitted reports can be approved", r.Status))
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Approver user ID cannot be empty")
	}

	now := time.Now()
	r.Status = ReportStatusApproved
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(NewReportApprovedEvent(r))

	return nil
}

// Archive moves a report to archived. Unlike submit/approve this is allowed
// from any non-archived state, bypassing the normal lifecycle path.
func (r *FinancialReport) Archive() error {
	if r.Status == ReportStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Report is already archived")
	}
	r.Status = ReportStatusArchived
	r.Touch()

	r.AddDomainEvent(NewReportArchivedEvent(r))

	return nil
}

// CanBeEditedBy reports whether the actor may edit this report. Drafts are
// editable by anyone in the hospital with the capability; other statuses
// require an elevated actor.
func (r *FinancialReport) CanBeEditedBy(actor identity.Actor) bool {
	if !actor.CanAccessHospital(r.HospitalID) {
		return false
	}
	return actor.IsElevated() || r.Status == ReportStatusDraft
}

// CanBeDeletedBy reports whether the actor may delete this report
func (r *FinancialReport) CanBeDeletedBy(actor identity.Actor) bool {
	if !actor.CanAccessHospital(r.HospitalID) {
		return false
	}
	return actor.IsElevated() || r.Status == ReportStatusDraft
}

// UpdateDetails replaces the report's period key, figures and notes. The
// period label is re-derived and the tax pipeline re-runs.
func (r *FinancialReport) UpdateDetails(
	reportType ReportType,
	year int,
	month *int,
	quarter *int,
	figures ReportFigures,
	notes string,
) error {
	if err := validatePeriodKey(reportType, year, month, quarter); err != nil {
		return err
	}
	if err := figures.validate(); err != nil {
		return err
	}
	if len(notes) > 1000 {
		return shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}

	rate := figures.TaxRate
	if rate.IsZero() {
		rate = DefaultTaxRate
	}

	r.ReportType = reportType
	r.Year = year
	r.Month = month
	r.Quarter = quarter
	r.Period = PeriodLabel(reportType, year, month, quarter)
	r.Revenue = figures.Revenue
	r.Expenses = figures.Expenses
	r.Assets = figures.Assets
	r.Liabilities = figures.Liabilities
	r.Equity.Capital = figures.Capital
	r.Equity.RetainedEarnings = figures.RetainedEarnings
	r.Tax.Rate = rate
	r.Tax.Deductions = figures.TaxDeductions
	r.Notes = notes
	r.Touch()

	r.Recalculate()

	return nil
}

// SetNotes sets the free-text notes
func (r *FinancialReport) SetNotes(notes string) error {
	if len(notes) > 1000 {
		return shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}
	r.Notes = notes
	r.Touch()
	return nil
}

// Duplicate creates a new draft report carrying this report's financial
// fields, with the period suffixed, approval cleared, and lineage recorded.
// This is the only sanctioned way to re-open an approved report.
func (r *FinancialReport) Duplicate(createdBy uuid.UUID) (*FinancialReport, error) {
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Creator user ID cannot be empty")
	}

	sourceID := r.ID
	var month, quarter *int
	if r.Month != nil {
		m := *r.Month
		month = &m
	}
	if r.Quarter != nil {
		q := *r.Quarter
		quarter = &q
	}
	copy := &FinancialReport{
		HospitalAggregateRoot: shared.NewHospitalAggregateRootWithCreator(r.HospitalID, createdBy),
		ReportType:            r.ReportType,
		Year:                  r.Year,
		Month:                 month,
		Quarter:               quarter,
		Period:                r.Period + " (Copy)",
		Revenue:               r.Revenue,
		Expenses:              r.Expenses,
		Assets:                r.Assets,
		Liabilities:           r.Liabilities,
		Equity: Equity{
			Capital:          r.Equity.Capital,
			RetainedEarnings: r.Equity.RetainedEarnings,
		},
		Tax: Tax{
			Rate:       r.Tax.Rate,
			Deductions: r.Tax.Deductions,
		},
		Status:            ReportStatusDraft,
		Notes:             r.Notes,
		PreviousVersionID: &sourceID,
	}
	copy.Recalculate()

	copy.AddDomainEvent(NewReportDuplicatedEvent(copy, sourceID))

	return copy, nil
}

// IsDraft returns true if the report is in draft status
func (r *FinancialReport) IsDraft() bool {
	return r.Status == ReportStatusDraft
}

// IsApproved returns true if the report is approved
func (r *FinancialReport) IsApproved() bool {
	return r.Status == ReportStatusApproved
}

// IsArchived returns true if the report is archived
func (r *FinancialReport) IsArchived() bool {
	return r.Status == ReportStatusArchived
}
