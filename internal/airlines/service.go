package airlines

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
// Airlines are account-wide, so there is no ownership fallback: only
// the explicit settings permission grants access.
type Cache interface {
	Has(role, category, action string) bool
	UpsertAirline(a Airline)
	RemoveAirline(id int64)
}

// ActivityLogger appends audit entries.
type ActivityLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

// Notifier announces a scope's data changed.
type Notifier interface {
	PublishChange(ctx context.Context, scopeID string)
}

// Service implements airline configuration mutations.
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

// Input carries the editable airline fields.
type Input struct {
	Name                    string  `json:"name" validate:"required"`
	TicketTemplate          string  `json:"ticket_template"`
	ManifestTemplate        string  `json:"manifest_template"`
	ManifestUS              string  `json:"manifest_us"`
	ManifestAirport         string  `json:"manifest_airport"`
	DefaultBookingReference string  `json:"default_booking_reference"`
	DefaultFlightNumber     string  `json:"default_flight_number"`
	AdultPrice              float64 `json:"adult_price" validate:"min=0"`
	ChildPrice              float64 `json:"child_price" validate:"min=0"`
	InfantPrice             float64 `json:"infant_price" validate:"min=0"`
	Tax                     float64 `json:"tax" validate:"min=0"`
	Surcharge               float64 `json:"surcharge" validate:"min=0"`
}

func (in Input) model(updatedBy string) Airline {
	return Airline{
		Name:                    in.Name,
		TicketTemplate:          in.TicketTemplate,
		ManifestTemplate:        in.ManifestTemplate,
		ManifestUS:              in.ManifestUS,
		ManifestAirport:         in.ManifestAirport,
		DefaultBookingReference: in.DefaultBookingReference,
		DefaultFlightNumber:     in.DefaultFlightNumber,
		AdultPrice:              in.AdultPrice,
		ChildPrice:              in.ChildPrice,
		InfantPrice:             in.InfantPrice,
		Tax:                     in.Tax,
		Surcharge:               in.Surcharge,
		UpdatedBy:               &updatedBy,
	}
}

// Create inserts an airline configuration.
func (s *Service) Create(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, in Input) (Airline, error) {
	if !cache.Has(actor.Role, perms.CategorySettings, "airline_create") {
		return Airline{}, shared.ErrPermissionDenied
	}

	created, err := s.repo.Create(ctx, scopeID, in.model(actor.ID))
	if err != nil {
		return Airline{}, err
	}

	cache.UpsertAirline(created)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionCreate,
		EntityType:  "airline",
		EntityID:    fmt.Sprint(created.ID),
		Description: fmt.Sprintf("Added airline %s", created.Name),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return created, nil
}

// Update rewrites an airline configuration.
func (s *Service) Update(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, id int64, in Input) (Airline, error) {
	if !cache.Has(actor.Role, perms.CategorySettings, "airline_update") {
		return Airline{}, shared.ErrPermissionDenied
	}

	updated, err := s.repo.Update(ctx, scopeID, id, in.model(actor.ID))
	if err != nil {
		return Airline{}, err
	}

	cache.UpsertAirline(updated)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionUpdate,
		EntityType:  "airline",
		EntityID:    fmt.Sprint(updated.ID),
		Description: fmt.Sprintf("Updated airline %s", updated.Name),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return updated, nil
}

// Delete removes an airline configuration. Flights keep the airline
// name as plain text, so nothing cascades.
func (s *Service) Delete(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, id int64) error {
	if !cache.Has(actor.Role, perms.CategorySettings, "airline_delete") {
		return shared.ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, scopeID, id); err != nil {
		return err
	}

	cache.RemoveAirline(id)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionDelete,
		EntityType:  "airline",
		EntityID:    fmt.Sprint(id),
		Description: "Deleted airline",
	})
	s.notifier.PublishChange(ctx, scopeID)
	return nil
}
