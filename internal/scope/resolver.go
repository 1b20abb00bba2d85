// Package scope resolves which account's data set an authenticated
// actor works in. Admins and self-registered owners are their own
// account; staff actors share the data set of the owner that created
// them.
package scope

import (
	"context"
	"fmt"

	"github.com/areys-travel/areys/internal/auth"
)

// ActorSource looks up the actor's current role row.
type ActorSource interface {
	FindByID(ctx context.Context, id string) (*auth.Actor, error)
}

// Resolver determines the owning account for an actor.
type Resolver struct {
	actors ActorSource
}

// NewResolver constructs a Resolver.
func NewResolver(actors ActorSource) *Resolver {
	return &Resolver{actors: actors}
}

// Resolve refreshes the actor's role row and returns the account owner
// id whose data set should be loaded. A failed lookup fails closed: the
// caller gets an error, never a silently self-scoped (and therefore
// over-granted) view.
func (r *Resolver) Resolve(ctx context.Context, actor *auth.Actor) (string, error) {
	if actor == nil {
		return "", fmt.Errorf("scope: no authenticated actor")
	}
	fresh, err := r.actors.FindByID(ctx, actor.ID)
	if err != nil {
		return "", fmt.Errorf("scope: resolve %s: %w", actor.ID, err)
	}
	return Owner(fresh), nil
}

// Owner is the pure scope rule over an already-loaded actor.
func Owner(actor *auth.Actor) string {
	if actor.Role == auth.RoleAdmin || actor.CreatedBy == nil || *actor.CreatedBy == "" {
		return actor.ID
	}
	return *actor.CreatedBy
}
