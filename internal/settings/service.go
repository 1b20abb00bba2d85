package settings

import (
	"context"
	"log/slog"

	"github.com/areys-travel/areys/internal/audit"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/shared"
)

// Cache is the actor-local snapshot patched after a successful write.
type Cache interface {
	Has(role, category, action string) bool
	SetSettings(s Settings)
}

// ActivityLogger appends audit entries.
type ActivityLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

// Notifier announces a scope's data changed.
type Notifier interface {
	PublishChange(ctx context.Context, scopeID string)
}

// Service implements default pricing and branding updates.
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

// Input carries the editable settings fields.
type Input struct {
	AdultPrice    float64 `json:"adult_price" validate:"min=0"`
	ChildPrice    float64 `json:"child_price" validate:"min=0"`
	InfantPrice   float64 `json:"infant_price" validate:"min=0"`
	Tax           float64 `json:"tax" validate:"min=0"`
	Surcharge     float64 `json:"surcharge" validate:"min=0"`
	AgencyName    string  `json:"agency_name" validate:"required"`
	AgencyTagline string  `json:"agency_tagline"`
}

// Update replaces the account's default pricing and branding. It needs
// the explicit pricing permission; there is no ownership fallback.
func (s *Service) Update(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, in Input) (Settings, error) {
	if !cache.Has(actor.Role, perms.CategorySettings, "pricing_edit") {
		return Settings{}, shared.ErrPermissionDenied
	}

	actorID := actor.ID
	saved, err := s.repo.Upsert(ctx, scopeID, Settings{
		AdultPrice:    in.AdultPrice,
		ChildPrice:    in.ChildPrice,
		InfantPrice:   in.InfantPrice,
		Tax:           in.Tax,
		Surcharge:     in.Surcharge,
		AgencyName:    in.AgencyName,
		AgencyTagline: in.AgencyTagline,
		UpdatedBy:     &actorID,
	})
	if err != nil {
		return Settings{}, err
	}

	cache.SetSettings(saved)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionUpdate,
		EntityType:  "settings",
		EntityID:    scopeID,
		Description: "Updated default pricing and branding",
	})
	s.notifier.PublishChange(ctx, scopeID)
	return saved, nil
}
