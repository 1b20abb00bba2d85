package perms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/areys-travel/areys/internal/auth"
)

func TestEvaluatorAdminBypassesMatrix(t *testing.T) {
	eval := NewEvaluator(nil)
	require.True(t, eval.Has(auth.RoleAdmin, CategoryFlight, "delete"))
	require.True(t, eval.Has(auth.RoleAdmin, "nonsense", "anything"))
}

func TestEvaluatorFailsClosed(t *testing.T) {
	eval := NewEvaluator([]RoleDefinition{{
		ID:   1,
		Role: "Agent",
		Permissions: Matrix{
			CategoryFlight: {"view_own": true},
		},
	}})

	require.True(t, eval.Has("Agent", CategoryFlight, "view_own"))
	// Absent action, absent category, unknown role: all deny.
	require.False(t, eval.Has("Agent", CategoryFlight, "delete"))
	require.False(t, eval.Has("Agent", CategorySettings, "pricing_edit"))
	require.False(t, eval.Has("Ghost", CategoryFlight, "view_own"))
	require.False(t, eval.Has("", CategoryFlight, "view_own"))
}

func TestDefaultMatrixGrantsViewOwnOnly(t *testing.T) {
	m := DefaultMatrix()
	require.True(t, m.Allows(CategoryFlight, "view_own"))
	require.True(t, m.Allows(CategoryPassenger, "view_own"))
	for category, actions := range m {
		for action, granted := range actions {
			if action == "view_own" {
				continue
			}
			require.False(t, granted, "%s/%s should default to deny", category, action)
		}
	}
}

func TestAuthorizerTracksRoleChanges(t *testing.T) {
	authz := NewAuthorizer([]RoleDefinition{{
		ID:          1,
		Role:        "Agent",
		Permissions: DefaultMatrix(),
	}})
	require.False(t, authz.Has("Agent", CategoryFlight, "create"))

	updated := DefaultMatrix()
	updated[CategoryFlight]["create"] = true
	authz.UpsertRoleDefinition(RoleDefinition{ID: 1, Role: "Agent", Permissions: updated})
	require.True(t, authz.Has("Agent", CategoryFlight, "create"))

	authz.UpsertRoleDefinition(RoleDefinition{ID: 2, Role: "Viewer", Permissions: DefaultMatrix()})
	require.True(t, authz.Has("Viewer", CategoryFlight, "view_own"))
}
