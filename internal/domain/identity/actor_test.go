package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesForRole(t *testing.T) {
	t.Run("admin gets the full grant set", func(t *testing.T) {
		caps := CapabilitiesForRole(RoleAdmin)
		assert.Len(t, caps, 8)
		assert.Contains(t, caps, CapManageSettings)
		assert.Contains(t, caps, CapDeleteReports)
	})

	t.Run("finance cannot delete reports or manage settings", func(t *testing.T) {
		caps := CapabilitiesForRole(RoleFinance)
		assert.Contains(t, caps, CapApproveReports)
		assert.NotContains(t, caps, CapDeleteReports)
		assert.NotContains(t, caps, CapManageSettings)
	})

	t.Run("viewer only views", func(t *testing.T) {
		caps := CapabilitiesForRole(RoleViewer)
		assert.Equal(t, []Capability{CapViewReports}, caps)
	})

	t.Run("unknown role gets nothing", func(t *testing.T) {
		assert.Empty(t, CapabilitiesForRole(Role("intern")))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		caps := CapabilitiesForRole(RoleViewer)
		caps[0] = CapDeleteReports
		assert.Equal(t, []Capability{CapViewReports}, CapabilitiesForRole(RoleViewer))
	})
}

func TestActor_HasCapability(t *testing.T) {
	actor := NewActor(uuid.New(), RoleFinance, "hosp-001")

	assert.True(t, actor.HasCapability(CapCreateReports))
	assert.False(t, actor.HasCapability(CapManageUsers))
}

func TestActor_CanAccessHospital(t *testing.T) {
	t.Run("same hospital allowed", func(t *testing.T) {
		actor := NewActor(uuid.New(), RoleViewer, "hosp-001")
		assert.True(t, actor.CanAccessHospital("hosp-001"))
	})

	t.Run("cross hospital denied", func(t *testing.T) {
		actor := NewActor(uuid.New(), RoleFinance, "hosp-001")
		assert.False(t, actor.CanAccessHospital("hosp-002"))
	})

	t.Run("admin does not cross hospitals", func(t *testing.T) {
		actor := NewActor(uuid.New(), RoleAdmin, "hosp-001")
		assert.False(t, actor.CanAccessHospital("hosp-002"))
	})
}
