package perms

import "github.com/areys-travel/areys/internal/auth"

// Evaluator answers permission checks against a loaded set of role
// definitions. It is a pure function of that set: rebuild it whenever
// the definitions reload.
type Evaluator struct {
	defs map[string]Matrix
}

// NewEvaluator indexes role definitions by role name.
func NewEvaluator(defs []RoleDefinition) *Evaluator {
	indexed := make(map[string]Matrix, len(defs))
	for _, def := range defs {
		indexed[def.Role] = def.Permissions
	}
	return &Evaluator{defs: indexed}
}

// Has reports whether the role grants category/action. Admin always
// passes; any role without a definition, or any absent category/action
// key, fails closed.
func (e *Evaluator) Has(role, category, action string) bool {
	if role == auth.RoleAdmin {
		return true
	}
	if e == nil {
		return false
	}
	return e.defs[role].Allows(category, action)
}
