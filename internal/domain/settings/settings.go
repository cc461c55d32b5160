package settings

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/hospfin/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// TaxSettings holds the hospital's tax configuration. Rates are fractions
// in [0, 1].
type TaxSettings struct {
	CorporateTaxRate   decimal.Decimal `json:"corporate_tax_rate"`
	VATRate            decimal.Decimal `json:"vat_rate"`
	WithholdingTaxRate decimal.Decimal `json:"withholding_tax_rate"`
	DeductionTypes     []string        `json:"deduction_types"`
}

// DefaultDeductionTypes are the Indonesian deduction categories applied
// when a hospital has not configured its own
var DefaultDeductionTypes = []string{
	"Penyusutan Peralatan",
	"Biaya Operasional",
	"Biaya Penelitian",
	"Biaya CSR",
	"Biaya Pelatihan",
}

// ReportingSettings controls report workflow behavior
type ReportingSettings struct {
	AutoApproval        bool  `json:"auto_approval"`
	RequireDualApproval bool  `json:"require_dual_approval"`
	ArchiveAfterMonths  int   `json:"archive_after_months"`
	ReminderDays        []int `json:"reminder_days"`
}

// NotificationSettings controls reminder delivery
type NotificationSettings struct {
	EmailNotifications bool     `json:"email_notifications"`
	ReminderDays       []int    `json:"reminder_days"`
	NotifyRoles        []string `json:"notify_roles"`
}

// SecuritySettings holds password and session policy
type SecuritySettings struct {
	PasswordMinLength     int  `json:"password_min_length"`
	RequireUppercase      bool `json:"require_uppercase"`
	RequireNumbers        bool `json:"require_numbers"`
	RequireSpecialChars   bool `json:"require_special_chars"`
	SessionTimeoutMinutes int  `json:"session_timeout_minutes"`
	MaxLoginAttempts      int  `json:"max_login_attempts"`
}

// BackupFrequency is how often automatic backups run
type BackupFrequency string

const (
	BackupDaily   BackupFrequency = "daily"
	BackupWeekly  BackupFrequency = "weekly"
	BackupMonthly BackupFrequency = "monthly"
)

// IsValid checks if the frequency is valid
func (f BackupFrequency) IsValid() bool {
	switch f {
	case BackupDaily, BackupWeekly, BackupMonthly:
		return true
	}
	return false
}

// BackupSettings holds backup scheduling configuration
type BackupSettings struct {
	AutoBackup      bool            `json:"auto_backup"`
	BackupFrequency BackupFrequency `json:"backup_frequency"`
	RetentionDays   int             `json:"retention_days"`
}

// HospitalSettings is the singleton-per-hospital configuration aggregate
type HospitalSettings struct {
	shared.HospitalAggregateRoot
	HospitalName    string                  `json:"hospital_name"`
	Address         string                  `json:"address"`
	Phone           string                  `json:"phone"`
	Email           string                  `json:"email"`
	TaxID           string                  `json:"tax_id"`
	FiscalYearStart int                     `json:"fiscal_year_start"` // month 1..12
	Currency        valueobject.Currency    `json:"currency"`
	Tax             TaxSettings             `json:"tax"`
	Reporting       ReportingSettings       `json:"reporting"`
	Notifications   NotificationSettings    `json:"notifications"`
	Security        SecuritySettings        `json:"security"`
	Backup          BackupSettings          `json:"backup"`
	IsActive        bool                    `json:"is_active"`
	LastModifiedBy  *uuid.UUID              `json:"last_modified_by,omitempty"`
}

// NewDefaultSettings creates the default settings for a hospital. Called
// lazily on first read when a hospital has no settings document yet.
func NewDefaultSettings(hospitalID string, modifiedBy uuid.UUID) (*HospitalSettings, error) {
	if hospitalID == "" {
		return nil, shared.NewDomainError("INVALID_HOSPITAL_ID", "Hospital ID is required")
	}

	settings := &HospitalSettings{
		HospitalAggregateRoot: shared.NewHospitalAggregateRootWithCreator(hospitalID, modifiedBy),
		HospitalName:          "Rumah Sakit Umum Daerah",
		Address:               "Jl. Kesehatan No. 123",
		Phone:                 "+62-21-1234567",
		Email:                 "admin@hospital.com",
		TaxID:                 "01.234.567.8-901.000",
		FiscalYearStart:       1,
		Currency:              valueobject.IDR,
		Tax: TaxSettings{
			CorporateTaxRate:   decimal.NewFromFloat(0.25),
			VATRate:            decimal.NewFromFloat(0.11),
			WithholdingTaxRate: decimal.NewFromFloat(0.02),
			DeductionTypes:     append([]string(nil), DefaultDeductionTypes...),
		},
		Reporting: ReportingSettings{
			AutoApproval:        false,
			RequireDualApproval: true,
			ArchiveAfterMonths:  24,
			ReminderDays:        []int{7, 3, 1},
		},
		Notifications: NotificationSettings{
			EmailNotifications: true,
			ReminderDays:       []int{7, 3, 1},
			NotifyRoles:        []string{"admin", "finance"},
		},
		Security: SecuritySettings{
			PasswordMinLength:     8,
			RequireUppercase:      true,
			RequireNumbers:        true,
			RequireSpecialChars:   false,
			SessionTimeoutMinutes: 30,
			MaxLoginAttempts:      5,
		},
		Backup: BackupSettings{
			AutoBackup:      true,
			BackupFrequency: BackupWeekly,
			RetentionDays:   90,
		},
		IsActive: true,
	}
	if modifiedBy != uuid.Nil {
		settings.LastModifiedBy = &modifiedBy
	}
	return settings, nil
}

// Validate checks all settings fields against their allowed ranges
func (s *HospitalSettings) Validate() error {
	if strings.TrimSpace(s.HospitalName) == "" {
		return shared.NewDomainError("INVALID_NAME", "Hospital name is required")
	}
	if len(s.HospitalName) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Hospital name cannot exceed 200 characters")
	}
	if len(s.Address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if s.Email != "" && !emailPattern.MatchString(s.Email) {
		return shared.NewDomainError("INVALID_EMAIL", "Please enter a valid email")
	}
	if s.FiscalYearStart < 1 || s.FiscalYearStart > 12 {
		return shared.NewDomainError("INVALID_FISCAL_YEAR", "Fiscal year start month must be between 1 and 12")
	}
	if !s.Currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be IDR, USD, or EUR")
	}
	if err := validateRate("corporate tax rate", s.Tax.CorporateTaxRate); err != nil {
		return err
	}
	if err := validateRate("VAT rate", s.Tax.VATRate); err != nil {
		return err
	}
	if err := validateRate("withholding tax rate", s.Tax.WithholdingTaxRate); err != nil {
		return err
	}
	if s.Reporting.ArchiveAfterMonths < 1 || s.Reporting.ArchiveAfterMonths > 120 {
		return shared.NewDomainError("INVALID_ARCHIVE_PERIOD", "Archive period must be between 1 and 120 months")
	}
	for _, days := range s.Reporting.ReminderDays {
		if days < 1 {
			return shared.NewDomainError("INVALID_REMINDER", "Reminder days must be positive")
		}
	}
	if s.Security.PasswordMinLength < 6 || s.Security.PasswordMinLength > 20 {
		return shared.NewDomainError("INVALID_SECURITY", "Password minimum length must be between 6 and 20")
	}
	if s.Security.SessionTimeoutMinutes < 5 || s.Security.SessionTimeoutMinutes > 480 {
		return shared.NewDomainError("INVALID_SECURITY", "Session timeout must be between 5 and 480 minutes")
	}
	if s.Security.MaxLoginAttempts < 3 || s.Security.MaxLoginAttempts > 10 {
		return shared.NewDomainError("INVALID_SECURITY", "Max login attempts must be between 3 and 10")
	}
	if !s.Backup.BackupFrequency.IsValid() {
		return shared.NewDomainError("INVALID_BACKUP", "Backup frequency must be daily, weekly, or monthly")
	}
	if s.Backup.RetentionDays < 7 {
		return shared.NewDomainError("INVALID_BACKUP", "Retention period must be at least 7 days")
	}
	return nil
}

func validateRate(name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewDomainError("INVALID_TAX_RATE", name+" must be between 0 and 1")
	}
	return nil
}

// ApplyDefaultDeductions fills in the deduction types when none are set
func (s *HospitalSettings) ApplyDefaultDeductions() {
	if len(s.Tax.DeductionTypes) == 0 {
		s.Tax.DeductionTypes = append([]string(nil), DefaultDeductionTypes...)
	}
}

// MarkModifiedBy records who last changed the settings
func (s *HospitalSettings) MarkModifiedBy(userID uuid.UUID) {
	if userID != uuid.Nil {
		s.LastModifiedBy = &userID
	}
}
