package auth

import (
	"context"
	"time"
)

// RoleAdmin is the privileged role; it bypasses every permission check
// and always owns its own account scope.
const RoleAdmin = "Admin"

// Actor is an authenticated identity. Staff actors carry a CreatedBy
// back-reference to the account owner whose data set they work in.
type Actor struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Active     bool      `json:"active"`
	CreatedBy  *string   `json:"created_by,omitempty"`
	AgencyName *string   `json:"agency_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsAdmin reports whether the actor holds the privileged role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

type actorContextKey struct{}

// ContextWithActor attaches the authenticated actor to the context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext retrieves the authenticated actor, if any.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
