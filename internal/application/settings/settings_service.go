package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/settings"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/hospfin/backend/internal/domain/shared/valueobject"
)

// SettingsService manages the per-hospital configuration document
type SettingsService struct {
	settingsRepo settings.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo settings.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// UpdateSettingsRequest represents a full settings update
type UpdateSettingsRequest struct {
	HospitalName    string                        `json:"hospital_name" binding:"required,max=200"`
	Address         string                        `json:"address" binding:"max=500"`
	Phone           string                        `json:"phone"`
	Email           string                        `json:"email" binding:"required"`
	TaxID           string                        `json:"tax_id"`
	FiscalYearStart int                           `json:"fiscal_year_start" binding:"required,min=1,max=12"`
	Currency        string                        `json:"currency" binding:"required"`
	Tax             settings.TaxSettings          `json:"tax"`
	Reporting       settings.ReportingSettings    `json:"reporting"`
	Notifications   settings.NotificationSettings `json:"notifications"`
	Security        settings.SecuritySettings     `json:"security"`
	Backup          settings.BackupSettings       `json:"backup"`
}

// SettingsResponse represents hospital settings in API responses
type SettingsResponse struct {
	ID              uuid.UUID                     `json:"id"`
	HospitalID      string                        `json:"hospital_id"`
	HospitalName    string                        `json:"hospital_name"`
	Address         string                        `json:"address"`
	Phone           string                        `json:"phone"`
	Email           string                        `json:"email"`
	TaxID           string                        `json:"tax_id"`
	FiscalYearStart int                           `json:"fiscal_year_start"`
	Currency        string                        `json:"currency"`
	Tax             settings.TaxSettings          `json:"tax"`
	Reporting       settings.ReportingSettings    `json:"reporting"`
	Notifications   settings.NotificationSettings `json:"notifications"`
	Security        settings.SecuritySettings     `json:"security"`
	Backup          settings.BackupSettings       `json:"backup"`
	IsActive        bool                          `json:"is_active"`
	LastModifiedBy  *uuid.UUID                    `json:"last_modified_by,omitempty"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
	Version         int                           `json:"version"`
}

// GetSettings returns the hospital's settings, creating and persisting the
// defaults on first access.
func (s *SettingsService) GetSettings(ctx context.Context, actor identity.Actor) (*SettingsResponse, error) {
	current, err := s.settingsRepo.FindByHospital(ctx, actor.HospitalID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current, err = settings.NewDefaultSettings(actor.HospitalID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if err := s.settingsRepo.Save(ctx, current); err != nil {
			return nil, err
		}
	}
	return toSettingsResponse(current), nil
}

// UpdateSettings replaces the hospital's settings. Admin only.
func (s *SettingsService) UpdateSettings(ctx context.Context, actor identity.Actor, req UpdateSettingsRequest) (*SettingsResponse, error) {
	if !actor.IsElevated() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only an admin can change hospital settings")
	}

	current, err := s.settingsRepo.FindByHospital(ctx, actor.HospitalID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current, err = settings.NewDefaultSettings(actor.HospitalID, actor.UserID)
		if err != nil {
			return nil, err
		}
	}

	current.HospitalName = req.HospitalName
	current.Address = req.Address
	current.Phone = req.Phone
	current.Email = req.Email
	current.TaxID = req.TaxID
	current.FiscalYearStart = req.FiscalYearStart
	current.Currency = valueobject.Currency(req.Currency)
	current.Tax = req.Tax
	current.Reporting = req.Reporting
	current.Notifications = req.Notifications
	current.Security = req.Security
	current.Backup = req.Backup
	current.ApplyDefaultDeductions()

	if err := current.Validate(); err != nil {
		return nil, err
	}
	current.MarkModifiedBy(actor.UserID)

	if err := s.settingsRepo.Save(ctx, current); err != nil {
		return nil, err
	}
	return toSettingsResponse(current), nil
}

// ResetSettings restores the default settings document. Admin only.
func (s *SettingsService) ResetSettings(ctx context.Context, actor identity.Actor) (*SettingsResponse, error) {
	if !actor.IsElevated() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only an admin can reset hospital settings")
	}

	defaults, err := settings.NewDefaultSettings(actor.HospitalID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.settingsRepo.Save(ctx, defaults); err != nil {
		return nil, err
	}
	return toSettingsResponse(defaults), nil
}

func toSettingsResponse(hs *settings.HospitalSettings) *SettingsResponse {
	return &SettingsResponse{
		ID:              hs.ID,
		HospitalID:      hs.HospitalID,
		HospitalName:    hs.HospitalName,
		Address:         hs.Address,
		Phone:           hs.Phone,
		Email:           hs.Email,
		TaxID:           hs.TaxID,
		FiscalYearStart: hs.FiscalYearStart,
		Currency:        string(hs.Currency),
		Tax:             hs.Tax,
		Reporting:       hs.Reporting,
		Notifications:   hs.Notifications,
		Security:        hs.Security,
		Backup:          hs.Backup,
		IsActive:        hs.IsActive,
		LastModifiedBy:  hs.LastModifiedBy,
		CreatedAt:       hs.CreatedAt,
		UpdatedAt:       hs.UpdatedAt,
		Version:         hs.Version,
	}
}
