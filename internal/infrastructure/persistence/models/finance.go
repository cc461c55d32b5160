package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// FinancialReportModel is the persistence model for the FinancialReport
// aggregate root. Category breakdowns are stored as JSONB documents; the
// derived totals are not stored, only the tax block and the equity block
// which carries the computed current earnings.
type FinancialReportModel struct {
	HospitalAggregateModel
	ReportType        finance.ReportType        `gorm:"type:varchar(20);not null;index:idx_report_period,priority:2"`
	Period            string                    `gorm:"type:varchar(50);not null"`
	Year              int                       `gorm:"not null;index:idx_report_period,priority:3"`
	Month             *int                      `gorm:"index:idx_report_period,priority:4"`
	Quarter           *int                      `gorm:"index:idx_report_period,priority:5"`
	Revenue           finance.RevenueBreakdown  `gorm:"type:jsonb;serializer:json;not null"`
	Expenses          finance.ExpenseBreakdown  `gorm:"type:jsonb;serializer:json;not null"`
	Assets            finance.Assets            `gorm:"type:jsonb;serializer:json;not null"`
	Liabilities       finance.Liabilities       `gorm:"type:jsonb;serializer:json;not null"`
	Equity            finance.Equity            `gorm:"type:jsonb;serializer:json;not null"`
	TaxIncome         decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	TaxRate           decimal.Decimal           `gorm:"type:decimal(8,6);not null"`
	TaxAmount         decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	TaxDeductions     decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	TaxNetTaxable     decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Status            finance.ReportStatus      `gorm:"type:varchar(20);not null;default:'draft';index"`
	Notes             string                    `gorm:"type:text"`
	ApprovedBy        *uuid.UUID                `gorm:"type:uuid"`
	ApprovedAt        *time.Time
	PreviousVersionID *uuid.UUID                `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (FinancialReportModel) TableName() string {
	return "financial_reports"
}

// ToDomain converts the persistence model to a domain FinancialReport
func (m *FinancialReportModel) ToDomain() *finance.FinancialReport {
	return &finance.FinancialReport{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		ReportType:            m.ReportType,
		Period:                m.Period,
		Year:                  m.Year,
		Month:                 m.Month,
		Quarter:               m.Quarter,
		Revenue:               m.Revenue,
		Expenses:              m.Expenses,
		Assets:                m.Assets,
		Liabilities:           m.Liabilities,
		Equity:                m.Equity,
		Tax: finance.Tax{
			Income:     m.TaxIncome,
			Rate:       m.TaxRate,
			Amount:     m.TaxAmount,
			Deductions: m.TaxDeductions,
			NetTaxable: m.TaxNetTaxable,
		},
		Status:            m.Status,
		Notes:             m.Notes,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		PreviousVersionID: m.PreviousVersionID,
	}
}

// FromDomain populates the persistence model from a domain FinancialReport
func (m *FinancialReportModel) FromDomain(r *finance.FinancialReport) {
	m.FromDomainHospitalAggregateRoot(r.HospitalAggregateRoot)
	m.ReportType = r.ReportType
	m.Period = r.Period
	m.Year = r.Year
	m.Month = r.Month
	m.Quarter = r.Quarter
	m.Revenue = r.Revenue
	m.Expenses = r.Expenses
	m.Assets = r.Assets
	m.Liabilities = r.Liabilities
	m.Equity = r.Equity
	m.TaxIncome = r.Tax.Income
	m.TaxRate = r.Tax.Rate
	m.TaxAmount = r.Tax.Amount
	m.TaxDeductions = r.Tax.Deductions
	m.TaxNetTaxable = r.Tax.NetTaxable
	m.Status = r.Status
	m.Notes = r.Notes
	m.ApprovedBy = r.ApprovedBy
	m.ApprovedAt = r.ApprovedAt
	m.PreviousVersionID = r.PreviousVersionID
}

// FinancialReportModelFromDomain creates a new persistence model from a
// domain FinancialReport
func FinancialReportModelFromDomain(r *finance.FinancialReport) *FinancialReportModel {
	m := &FinancialReportModel{}
	m.FromDomain(r)
	return m
}

// ArchiveLogModel is the persistence model for ArchiveLog. The archived
// report refs are denormalized snapshots stored as JSONB.
type ArchiveLogModel struct {
	HospitalAggregateModel
	ArchiveType     finance.ArchiveType         `gorm:"type:varchar(20);not null"`
	ArchivedReports []finance.ArchivedReportRef `gorm:"type:jsonb;serializer:json;not null"`
	TotalArchived   int                         `gorm:"not null"`
	CutoffDate      time.Time                   `gorm:"not null"`
	Reason          string                      `gorm:"type:varchar(500);not null"`
	ArchivedBy      uuid.UUID                   `gorm:"type:uuid;not null"`
	CompletedAt     *time.Time
}

// TableName returns the table name for GORM
func (ArchiveLogModel) TableName() string {
	return "archive_logs"
}

// ToDomain converts the persistence model to a domain ArchiveLog
func (m *ArchiveLogModel) ToDomain() *finance.ArchiveLog {
	return &finance.ArchiveLog{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		ArchiveType:           m.ArchiveType,
		ArchivedReports:       m.ArchivedReports,
		TotalArchived:         m.TotalArchived,
		CutoffDate:            m.CutoffDate,
		Reason:                m.Reason,
		ArchivedBy:            m.ArchivedBy,
		CompletedAt:           m.CompletedAt,
	}
}

// ArchiveLogModelFromDomain creates a new persistence model from a domain
// ArchiveLog
func ArchiveLogModelFromDomain(log *finance.ArchiveLog) *ArchiveLogModel {
	m := &ArchiveLogModel{}
	m.FromDomainHospitalAggregateRoot(log.HospitalAggregateRoot)
	m.ArchiveType = log.ArchiveType
	m.ArchivedReports = log.ArchivedReports
	m.TotalArchived = log.TotalArchived
	m.CutoffDate = log.CutoffDate
	m.Reason = log.Reason
	m.ArchivedBy = log.ArchivedBy
	m.CompletedAt = log.CompletedAt
	return m
}
