package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/analysis"
)

// FinancialAnalysisModel is the persistence model for FinancialAnalysis.
// Analyses are written once and read back whole, so the structured payload
// lives in JSONB columns.
type FinancialAnalysisModel struct {
	HospitalAggregateModel
	AnalysisType analysis.AnalysisType   `gorm:"type:varchar(20);not null;index"`
	Window       analysis.AnalysisWindow `gorm:"type:jsonb;serializer:json;not null"`
	ReportIDs    []uuid.UUID             `gorm:"type:jsonb;serializer:json;not null"`
	Metrics      analysis.Metrics        `gorm:"type:jsonb;serializer:json;not null"`
	Insights     []analysis.Insight      `gorm:"type:jsonb;serializer:json;not null"`
	Trends       []analysis.Trend        `gorm:"type:jsonb;serializer:json;not null"`
	Forecasts    []analysis.Forecast     `gorm:"type:jsonb;serializer:json;not null"`
	GeneratedBy  uuid.UUID               `gorm:"type:uuid;not null"`
	CompletedAt  *time.Time
}

// TableName returns the table name for GORM
func (FinancialAnalysisModel) TableName() string {
	return "financial_analyses"
}

// ToDomain converts the persistence model to a domain FinancialAnalysis
func (m *FinancialAnalysisModel) ToDomain() *analysis.FinancialAnalysis {
	return &analysis.FinancialAnalysis{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		AnalysisType:          m.AnalysisType,
		Window:                m.Window,
		ReportIDs:             m.ReportIDs,
		Metrics:               m.Metrics,
		Insights:              m.Insights,
		Trends:                m.Trends,
		Forecasts:             m.Forecasts,
		GeneratedBy:           m.GeneratedBy,
		CompletedAt:           m.CompletedAt,
	}
}

// FinancialAnalysisModelFromDomain creates a new persistence model from a
// domain FinancialAnalysis
func FinancialAnalysisModelFromDomain(a *analysis.FinancialAnalysis) *FinancialAnalysisModel {
	m := &FinancialAnalysisModel{}
	m.FromDomainHospitalAggregateRoot(a.HospitalAggregateRoot)
	m.AnalysisType = a.AnalysisType
	m.Window = a.Window
	m.ReportIDs = a.ReportIDs
	m.Metrics = a.Metrics
	m.Insights = a.Insights
	m.Trends = a.Trends
	m.Forecasts = a.Forecasts
	m.GeneratedBy = a.GeneratedBy
	m.CompletedAt = a.CompletedAt
	return m
}
