package identity

// Capability is a named permission granted per role. Authorization checks are
// expressed against capabilities, never against role names, so a role's grant
// set can change without touching call sites.
type Capability string

const (
	CapViewReports    Capability = "view_reports"
	CapCreateReports  Capability = "create_reports"
	CapEditReports    Capability = "edit_reports"
	CapDeleteReports  Capability = "delete_reports"
	CapApproveReports Capability = "approve_reports"
	CapManageUsers    Capability = "manage_users"
	CapManageSettings Capability = "manage_settings"
	CapExportData     Capability = "export_data"
)

// IsValid checks if the capability is a known Capability
func (c Capability) IsValid() bool {
	switch c {
	case CapViewReports, CapCreateReports, CapEditReports, CapDeleteReports,
		CapApproveReports, CapManageUsers, CapManageSettings, CapExportData:
		return true
	}
	return false
}

// String returns the string representation of Capability
func (c Capability) String() string {
	return string(c)
}

// Role represents a named user role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFinance Role = "finance"
	RoleViewer  Role = "viewer"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFinance, RoleViewer:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// roleCapabilities is the declarative role → capability grant table.
var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapViewReports, CapCreateReports, CapEditReports, CapDeleteReports,
		CapApproveReports, CapManageUsers, CapManageSettings, CapExportData,
	},
	RoleFinance: {
		CapViewReports, CapCreateReports, CapEditReports, CapApproveReports,
		CapExportData,
	},
	RoleViewer: {
		CapViewReports,
	},
}

// CapabilitiesForRole returns the capability grant set for a role.
// Unknown roles receive no capabilities.
func CapabilitiesForRole(role Role) []Capability {
	caps, ok := roleCapabilities[role]
	if !ok {
		return nil
	}
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
