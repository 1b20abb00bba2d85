package perms

import "sync"

// Authorizer is a process-wide permission checker kept current as role
// definitions change. Per-actor snapshots carry their own evaluator;
// this one serves checks that run before a snapshot exists, such as
// staff creation during sign-up flows.
type Authorizer struct {
	mu   sync.RWMutex
	eval *Evaluator
	defs []RoleDefinition
}

// NewAuthorizer constructs an Authorizer from the current catalog.
func NewAuthorizer(defs []RoleDefinition) *Authorizer {
	return &Authorizer{eval: NewEvaluator(defs), defs: defs}
}

// Has evaluates a permission.
func (a *Authorizer) Has(role, category, action string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eval.Has(role, category, action)
}

// UpsertRoleDefinition folds a changed definition into the catalog.
func (a *Authorizer) UpsertRoleDefinition(def RoleDefinition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	replaced := false
	for i := range a.defs {
		if a.defs[i].ID == def.ID {
			a.defs[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		a.defs = append(a.defs, def)
	}
	a.eval = NewEvaluator(a.defs)
}
