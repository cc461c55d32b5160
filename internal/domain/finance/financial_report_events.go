package finance

import (
	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const reportAggregateType = "FinancialReport"

// ReportCreatedEvent is raised when a financial report is created
type ReportCreatedEvent struct {
	shared.BaseDomainEvent
	ReportType ReportType `json:"report_type"`
	Period     string     `json:"period"`
	Year       int        `json:"year"`
}

// NewReportCreatedEvent creates a ReportCreatedEvent
func NewReportCreatedEvent(report *FinancialReport) *ReportCreatedEvent {
	return &ReportCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("report.created", reportAggregateType, report.ID, report.HospitalID),
		ReportType:      report.ReportType,
		Period:          report.Period,
		Year:            report.Year,
	}
}

// ReportSubmittedEvent is raised when a report moves from draft to submitted
type ReportSubmittedEvent struct {
	shared.BaseDomainEvent
	Period       string          `json:"period"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

// NewReportSubmittedEvent creates a ReportSubmittedEvent
func NewReportSubmittedEvent(report *FinancialReport) *ReportSubmittedEvent {
	return &ReportSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("report.submitted", reportAggregateType, report.ID, report.HospitalID),
		Period:          report.Period,
		TotalRevenue:    report.TotalRevenue(),
		NetProfit:       report.NetProfit(),
	}
}

// ReportApprovedEvent is raised when a submitted report is approved
type ReportApprovedEvent struct {
	shared.BaseDomainEvent
	Period     string    `json:"period"`
	ApprovedBy uuid.UUID `json:"approved_by"`
}

// NewReportApprovedEvent creates a ReportApprovedEvent
func NewReportApprovedEvent(report *FinancialReport) *ReportApprovedEvent {
	event := &ReportApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("report.approved", reportAggregateType, report.ID, report.HospitalID),
		Period:          report.Period,
	}
	if report.ApprovedBy != nil {
		event.ApprovedBy = *report.ApprovedBy
	}
	return event
}

// ReportArchivedEvent is raised when a report is archived
type ReportArchivedEvent struct {
	shared.BaseDomainEvent
	Period string `json:"period"`
}

// NewReportArchivedEvent creates a ReportArchivedEvent
func NewReportArchivedEvent(report *FinancialReport) *ReportArchivedEvent {
	return &ReportArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("report.archived", reportAggregateType, report.ID, report.HospitalID),
		Period:          report.Period,
	}
}

// ReportDuplicatedEvent is raised when a report is duplicated into a new draft
type ReportDuplicatedEvent struct {
	shared.BaseDomainEvent
	SourceReportID uuid.UUID `json:"source_report_id"`
	Period         string    `json:"period"`
}

// NewReportDuplicatedEvent creates a ReportDuplicatedEvent
func NewReportDuplicatedEvent(copy *FinancialReport, sourceID uuid.UUID) *ReportDuplicatedEvent {
	return &ReportDuplicatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("report.duplicated", reportAggregateType, copy.ID, copy.HospitalID),
		SourceReportID:  sourceID,
		Period:          copy.Period,
	}
}
