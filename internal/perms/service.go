package perms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/areys-travel/areys/internal/audit"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/shared"
)

// Broadcaster pushes a changed role definition to every live snapshot.
// Implemented by the store manager, since roles are global while
// snapshots are per actor.
type Broadcaster interface {
	UpsertRoleDefinition(def RoleDefinition)
}

// ActivityLogger appends audit entries.
type ActivityLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service implements role catalog mutations. Editing the permission
// matrix is how every other permission comes to exist, so it is
// restricted to Admin outright rather than gated on a matrix entry.
type Service struct {
	repo        Repository
	broadcaster Broadcaster
	activity    ActivityLogger
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, broadcaster Broadcaster, activity ActivityLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, broadcaster: broadcaster, activity: activity, logger: logger}
}

// List returns every role definition.
func (s *Service) List(ctx context.Context) ([]RoleDefinition, error) {
	return s.repo.List(ctx)
}

// CreateRole adds a role with the default view-own-only matrix.
func (s *Service) CreateRole(ctx context.Context, actor *auth.Actor, scopeID, role string) (RoleDefinition, error) {
	if !actor.IsAdmin() {
		return RoleDefinition{}, shared.ErrPermissionDenied
	}
	role = strings.TrimSpace(role)
	if role == "" || role == auth.RoleAdmin {
		return RoleDefinition{}, fmt.Errorf("perms: invalid role name %q", role)
	}

	def, err := s.repo.Create(ctx, role, DefaultMatrix())
	if err != nil {
		return RoleDefinition{}, err
	}

	s.broadcaster.UpsertRoleDefinition(def)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionCreate,
		EntityType:  "role",
		EntityID:    def.Role,
		Description: fmt.Sprintf("Added role %s", def.Role),
	})
	return def, nil
}

// UpdateRole replaces a role's permission matrix.
func (s *Service) UpdateRole(ctx context.Context, actor *auth.Actor, scopeID string, id int64, permissions Matrix) (RoleDefinition, error) {
	if !actor.IsAdmin() {
		return RoleDefinition{}, shared.ErrPermissionDenied
	}

	def, err := s.repo.UpdatePermissions(ctx, id, permissions)
	if err != nil {
		return RoleDefinition{}, err
	}

	s.broadcaster.UpsertRoleDefinition(def)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionUpdate,
		EntityType:  "role",
		EntityID:    def.Role,
		Description: fmt.Sprintf("Updated permissions for role %s", def.Role),
	})
	return def, nil
}
