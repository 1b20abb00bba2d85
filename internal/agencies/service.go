package agencies

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
// Agencies are account-wide; no ownership fallback applies.
type Cache interface {
	Has(role, category, action string) bool
	UpsertAgency(a Agency)
	RemoveAgency(id int64)
}

// ActivityLogger appends audit entries.
type ActivityLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

// Notifier announces a scope's data changed.
type Notifier interface {
	PublishChange(ctx context.Context, scopeID string)
}

// Service implements agency mutations.
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

// Input carries the editable agency fields.
type Input struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone"`
	ManagerName  string `json:"manager_name"`
	ManagerPhone string `json:"manager_phone"`
}

// Create inserts an agency.
func (s *Service) Create(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, in Input) (Agency, error) {
	if !cache.Has(actor.Role, perms.CategorySettings, "agency_create") {
		return Agency{}, shared.ErrPermissionDenied
	}

	actorID := actor.ID
	created, err := s.repo.Create(ctx, scopeID, Agency{
		Name:         in.Name,
		Phone:        in.Phone,
		ManagerName:  in.ManagerName,
		ManagerPhone: in.ManagerPhone,
		UpdatedBy:    &actorID,
	})
	if err != nil {
		return Agency{}, err
	}

	cache.UpsertAgency(created)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionCreate,
		EntityType:  "agency",
		EntityID:    fmt.Sprint(created.ID),
		Description: fmt.Sprintf("Added agency %s", created.Name),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return created, nil
}

// Update rewrites an agency.
func (s *Service) Update(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, id int64, in Input) (Agency, error) {
	if !cache.Has(actor.Role, perms.CategorySettings, "agency_update") {
		return Agency{}, shared.ErrPermissionDenied
	}

	actorID := actor.ID
	updated, err := s.repo.Update(ctx, scopeID, id, Agency{
		Name:         in.Name,
		Phone:        in.Phone,
		ManagerName:  in.ManagerName,
		ManagerPhone: in.ManagerPhone,
		UpdatedBy:    &actorID,
	})
	if err != nil {
		return Agency{}, err
	}

	cache.UpsertAgency(updated)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionUpdate,
		EntityType:  "agency",
		EntityID:    fmt.Sprint(updated.ID),
		Description: fmt.Sprintf("Updated agency %s", updated.Name),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return updated, nil
}

// Delete removes an agency. Passengers keep the agency name as plain
// text, so nothing cascades.
func (s *Service) Delete(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, id int64) error {
	if !cache.Has(actor.Role, perms.CategorySettings, "agency_delete") {
		return shared.ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, scopeID, id); err != nil {
		return err
	}

	cache.RemoveAgency(id)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionDelete,
		EntityType:  "agency",
		EntityID:    fmt.Sprint(id),
		Description: "Deleted agency",
	})
	s.notifier.PublishChange(ctx, scopeID)
	return nil
}
