package perms

import "time"

// Permission categories. Category/action pairs mirror the permission
// matrix edited on the roles screen.
const (
	CategoryFlight     = "flight"
	CategoryPassenger  = "passenger"
	CategoryGenerating = "generating"
	CategorySearching  = "searching"
	CategorySettings   = "settings"
)

// Matrix maps category -> action -> granted.
type Matrix map[string]map[string]bool

// Allows reports whether the matrix grants category/action. Missing
// categories and actions deny.
func (m Matrix) Allows(category, action string) bool {
	if m == nil {
		return false
	}
	actions, ok := m[category]
	if !ok {
		return false
	}
	return actions[action]
}

// RoleDefinition is a named permission matrix. The Admin role has no
// definition; it bypasses the matrix entirely.
type RoleDefinition struct {
	ID          int64     `json:"id"`
	Role        string    `json:"role"`
	Permissions Matrix    `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultMatrix is the permission set a newly created role starts with:
// view-own access only, nothing else.
func DefaultMatrix() Matrix {
	return Matrix{
		CategoryFlight:    {"create": false, "delete": false, "delete_own": false, "view_own": true, "view_any": false},
		CategoryPassenger: {"create": false, "delete": false, "delete_own": false, "view_own": true, "view_any": false},
		CategoryGenerating: {
			"batch": false, "manifest": false, "ticket": false, "download": false,
		},
		CategorySearching: {"past": false, "upcoming": false},
		CategorySettings: {
			"airline_create": false, "airline_update": false, "airline_delete": false,
			"pricing_edit": false,
			"agency_create": false, "agency_update": false, "agency_delete": false,
			"user_create": false, "user_activate": false, "user_deactivate": false,
		},
	}
}
