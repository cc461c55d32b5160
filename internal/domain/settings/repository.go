package settings

import (
	"context"
)

// SettingsRepository persists the one settings document per hospital.
// Save upserts on the hospital key.
type SettingsRepository interface {
	FindByHospital(ctx context.Context, hospitalID string) (*HospitalSettings, error)
	Save(ctx context.Context, settings *HospitalSettings) error
}
