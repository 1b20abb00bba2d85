package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/areys-travel/areys/internal/audit"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/shared"
)

// Cache is the actor-local snapshot patched after successful writes.
type Cache interface {
	Has(role, category, action string) bool
	UpsertManagedUser(u ManagedUser)
}

// ActivityLogger appends audit entries.
type ActivityLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

// Notifier announces a scope's data changed.
type Notifier interface {
	PublishChange(ctx context.Context, scopeID string)
}

// Service implements staff activation and deactivation.
type Service struct {
	repo     Repository
	activity ActivityLogger
	notifier Notifier
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, activity ActivityLogger, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, notifier: notifier, logger: logger}
}

// UpdateInput carries the editable staff-listing fields.
type UpdateInput struct {
	Name       string  `json:"name" validate:"required"`
	Role       string  `json:"role" validate:"required"`
	AgencyName *string `json:"agency_name"`
}

// Update rewrites a staff member's listing row and mirrors it onto the
// actor row. Requires the staff-management permission; role changes
// take effect on the target's next data load.
func (s *Service) Update(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, managedUserID string, in UpdateInput) (ManagedUser, error) {
	if !cache.Has(actor.Role, perms.CategorySettings, "user_create") {
		return ManagedUser{}, shared.ErrPermissionDenied
	}
	if in.Role == auth.RoleAdmin {
		return ManagedUser{}, fmt.Errorf("users: staff cannot be given the %s role", auth.RoleAdmin)
	}

	updated, err := s.repo.UpdateManagedUser(ctx, scopeID, managedUserID, in.Name, in.Role, in.AgencyName)
	if err != nil {
		return ManagedUser{}, err
	}
	if err := s.repo.SyncActorProfile(ctx, managedUserID, in.Name, in.Role, in.AgencyName); err != nil {
		s.logger.Warn("actor profile not mirrored",
			slog.String("managed_user_id", managedUserID), slog.Any("error", err))
	}

	cache.UpsertManagedUser(updated)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionUpdate,
		EntityType:  "user",
		EntityID:    managedUserID,
		Description: fmt.Sprintf("Updated user %s", updated.Name),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return updated, nil
}

// SetActive flips a staff member's active flag. The listing row is
// authoritative for the console; the actor row is mirrored best-effort
// so a failed mirror never hides the state change that already
// happened, it just delays the sign-in block until the next sync.
func (s *Service) SetActive(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, managedUserID string, active bool) (ManagedUser, error) {
	action := "user_deactivate"
	if active {
		action = "user_activate"
	}
	if !cache.Has(actor.Role, perms.CategorySettings, action) {
		return ManagedUser{}, shared.ErrPermissionDenied
	}
	if managedUserID == actor.ID {
		return ManagedUser{}, fmt.Errorf("users: cannot change own active state")
	}

	updated, err := s.repo.SetActive(ctx, scopeID, managedUserID, active)
	if err != nil {
		return ManagedUser{}, err
	}
	if err := s.repo.SyncActorActive(ctx, managedUserID, active); err != nil {
		s.logger.Warn("actor active flag not mirrored",
			slog.String("managed_user_id", managedUserID), slog.Any("error", err))
	}

	cache.UpsertManagedUser(updated)
	verb := "Deactivated"
	actionType := audit.ActionDelete
	if active {
		verb = "Activated"
		actionType = audit.ActionUpdate
	}
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  actionType,
		EntityType:  "user",
		EntityID:    managedUserID,
		Description: fmt.Sprintf("%s user %s", verb, updated.Name),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return updated, nil
}
