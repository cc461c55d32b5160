package models

import (
	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/settings"
	"github.com/hospfin/backend/internal/domain/shared/valueobject"
)

// HospitalSettingsModel is the persistence model for HospitalSettings.
// One row per hospital, enforced by a unique index on hospital_id in the
// schema migration.
type HospitalSettingsModel struct {
	HospitalAggregateModel
	HospitalName    string                        `gorm:"type:varchar(200);not null"`
	Address         string                        `gorm:"type:varchar(500)"`
	Phone           string                        `gorm:"type:varchar(50)"`
	Email           string                        `gorm:"type:varchar(200)"`
	TaxID           string                        `gorm:"type:varchar(50)"`
	FiscalYearStart int                           `gorm:"not null;default:1"`
	Currency        valueobject.Currency          `gorm:"type:varchar(3);not null;default:'IDR'"`
	Tax             settings.TaxSettings          `gorm:"type:jsonb;serializer:json;not null"`
	Reporting       settings.ReportingSettings    `gorm:"type:jsonb;serializer:json;not null"`
	Notifications   settings.NotificationSettings `gorm:"type:jsonb;serializer:json;not null"`
	Security        settings.SecuritySettings     `gorm:"type:jsonb;serializer:json;not null"`
	Backup          settings.BackupSettings       `gorm:"type:jsonb;serializer:json;not null"`
	IsActive        bool                          `gorm:"not null;default:true"`
	LastModifiedBy  *uuid.UUID                    `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (HospitalSettingsModel) TableName() string {
	return "hospital_settings"
}

// ToDomain converts the persistence model to domain HospitalSettings
func (m *HospitalSettingsModel) ToDomain() *settings.HospitalSettings {
	return &settings.HospitalSettings{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		HospitalName:          m.HospitalName,
		Address:               m.Address,
		Phone:                 m.Phone,
		Email:                 m.Email,
		TaxID:                 m.TaxID,
		FiscalYearStart:       m.FiscalYearStart,
		Currency:              m.Currency,
		Tax:                   m.Tax,
		Reporting:             m.Reporting,
		Notifications:         m.Notifications,
		Security:              m.Security,
		Backup:                m.Backup,
		IsActive:              m.IsActive,
		LastModifiedBy:        m.LastModifiedBy,
	}
}

// HospitalSettingsModelFromDomain creates a new persistence model from
// domain HospitalSettings
func HospitalSettingsModelFromDomain(s *settings.HospitalSettings) *HospitalSettingsModel {
	m := &HospitalSettingsModel{}
	m.FromDomainHospitalAggregateRoot(s.HospitalAggregateRoot)
	m.HospitalName = s.HospitalName
	m.Address = s.Address
	m.Phone = s.Phone
	m.Email = s.Email
	m.TaxID = s.TaxID
	m.FiscalYearStart = s.FiscalYearStart
	m.Currency = s.Currency
	m.Tax = s.Tax
	m.Reporting = s.Reporting
	m.Notifications = s.Notifications
	m.Security = s.Security
	m.Backup = s.Backup
	m.IsActive = s.IsActive
	m.LastModifiedBy = s.LastModifiedBy
	return m
}
