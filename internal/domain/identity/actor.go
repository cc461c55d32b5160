package identity

import (
	"github.com/google/uuid"
)

// Actor is the acting user as supplied by the identity collaborator (JWT
// claims). The core trusts this input and only evaluates predicates over it.
type Actor struct {
	UserID       uuid.UUID
	Role         Role
	HospitalID   string
	Capabilities []Capability
}

// NewActor creates an actor with the default capability set for its role
func NewActor(userID uuid.UUID, role Role, hospitalID string) Actor {
	return Actor{
		UserID:       userID,
		Role:         role,
		HospitalID:   hospitalID,
		Capabilities: CapabilitiesForRole(role),
	}
}

// HasCapability checks whether the actor has been granted a capability
func (a Actor) HasCapability(capability Capability) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// IsElevated reports whether the actor may bypass draft-only edit
// restrictions and other ownership checks. Hospital scoping still applies.
func (a Actor) IsElevated() bool {
	return a.Role == RoleAdmin
}

// CanAccessHospital checks hospital-scope access. The scope is absolute:
// no role crosses hospital boundaries.
func (a Actor) CanAccessHospital(hospitalID string) bool {
	return a.HospitalID == hospitalID
}
