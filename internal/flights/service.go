package flights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/areys-travel/areys/internal/audit"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/shared"
)

// Cache is the actor-local snapshot the service consults for permission
// checks and pricing, and patches after successful writes. Implemented
// by the store.
type Cache interface {
	Has(role, category, action string) bool
	FlightByRef(ref string) (Flight, bool)
	PriceBookFor(airlineName string) PriceBook
	UpsertFlight(f Flight)
	RemoveFlight(id int64)
	UpsertPassenger(flightUUID string, p Passenger)
	RemovePassenger(flightUUID, passengerID string)
}

// ActivityLogger appends audit entries. Failures are the logger's
// problem, never the mutation's.
type ActivityLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

// Notifier announces a scope's data changed so other sessions reload.
type Notifier interface {
	PublishChange(ctx context.Context, scopeID string)
}

// Service implements flight and passenger mutations.
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

// FlightInput carries the editable flight fields.
type FlightInput struct {
	Airline      string    `json:"airline" validate:"required"`
	FlightNumber string    `json:"flight_number" validate:"required"`
	Date         time.Time `json:"date" validate:"required"`
	Route        string    `json:"route" validate:"required"`
}

// PassengerInput carries the editable passenger fields. TicketPrice
// zero means "derive from the airline's price book"; the pointer price
// fields, when set, override the derived values and are stored
// verbatim.
type PassengerInput struct {
	FlightRef        string    `json:"flight_ref" validate:"required"`
	Name             string    `json:"name" validate:"required"`
	Type             string    `json:"type" validate:"required,oneof=Adult Child"`
	Gender           string    `json:"gender"`
	PhoneNumber      string    `json:"phone_number"`
	Agency           string    `json:"agency"`
	BookingReference string    `json:"booking_reference"`
	TicketPrice      float64   `json:"ticket_price"`
	Tax              *float64  `json:"tax"`
	Surcharge        *float64  `json:"surcharge"`
	TotalPrice       *float64  `json:"total_price"`
	DateOfIssue      time.Time `json:"date_of_issue"`
	Infants          []string  `json:"infants" validate:"max=5"`
}

// canMutate reports whether the actor may update or delete a record in
// the category: delete-level permission, or being its creator.
func canMutate(cache Cache, actor *auth.Actor, category, createdBy string) bool {
	return cache.Has(actor.Role, category, "delete") || createdBy == actor.ID
}

// CreateFlight inserts a flight and patches it into the actor's cache.
func (s *Service) CreateFlight(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, in FlightInput) (Flight, error) {
	if !cache.Has(actor.Role, perms.CategoryFlight, "create") {
		return Flight{}, shared.ErrPermissionDenied
	}

	created, err := s.repo.CreateFlight(ctx, scopeID, Flight{
		Airline:      in.Airline,
		FlightNumber: in.FlightNumber,
		Date:         in.Date,
		Route:        in.Route,
		CreatedBy:    actor.ID,
	})
	if err != nil {
		return Flight{}, err
	}

	cache.UpsertFlight(created)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionCreate,
		EntityType:  "flight",
		EntityID:    created.UUID,
		Description: fmt.Sprintf("Added flight %s (%s)", created.FlightNumber, created.Route),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return created, nil
}

// UpdateFlight rewrites a flight's fields. The creator may always
// update; anyone else needs delete-level flight permission.
func (s *Service) UpdateFlight(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, ref string, in FlightInput) (Flight, error) {
	existing, ok := cache.FlightByRef(ref)
	if !ok {
		return Flight{}, shared.ErrNotFound
	}
	if !canMutate(cache, actor, perms.CategoryFlight, existing.CreatedBy) {
		return Flight{}, shared.ErrPermissionDenied
	}

	updated, err := s.repo.UpdateFlight(ctx, scopeID, existing.ID, Flight{
		Airline:      in.Airline,
		FlightNumber: in.FlightNumber,
		Date:         in.Date,
		Route:        in.Route,
	})
	if err != nil {
		return Flight{}, err
	}

	cache.UpsertFlight(updated)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionUpdate,
		EntityType:  "flight",
		EntityID:    updated.UUID,
		Description: fmt.Sprintf("Updated flight %s", updated.FlightNumber),
		Details:     audit.Diff(existing, updated),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return updated, nil
}

// DeleteFlight removes a flight; passengers and infants go with it via
// cascading deletes.
func (s *Service) DeleteFlight(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, ref string) error {
	existing, ok := cache.FlightByRef(ref)
	if !ok {
		return shared.ErrNotFound
	}
	if !canMutate(cache, actor, perms.CategoryFlight, existing.CreatedBy) {
		return shared.ErrPermissionDenied
	}

	if err := s.repo.DeleteFlight(ctx, scopeID, existing.ID); err != nil {
		return err
	}

	cache.RemoveFlight(existing.ID)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionDelete,
		EntityType:  "flight",
		EntityID:    existing.UUID,
		Description: fmt.Sprintf("Deleted flight %s (%s)", existing.FlightNumber, existing.Route),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return nil
}

// AddPassenger inserts a passenger with its infants and prices the
// ticket from the flight's airline price book.
func (s *Service) AddPassenger(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, in PassengerInput) (Passenger, error) {
	if !cache.Has(actor.Role, perms.CategoryPassenger, "create") {
		return Passenger{}, shared.ErrPermissionDenied
	}
	flight, ok := cache.FlightByRef(in.FlightRef)
	if !ok {
		return Passenger{}, shared.ErrNotFound
	}

	p := s.pricedPassenger(cache, flight, in)
	p.FlightID = flight.UUID
	p.CreatedBy = actor.ID

	created, err := s.repo.InsertPassenger(ctx, scopeID, p)
	if err != nil {
		return Passenger{}, err
	}

	cache.UpsertPassenger(flight.UUID, created)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionCreate,
		EntityType:  "passenger",
		EntityID:    created.ID,
		Description: fmt.Sprintf("Added passenger %s to flight %s", created.Name, flight.FlightNumber),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return created, nil
}

// UpdatePassenger rewrites a passenger and replaces its infants
// wholesale. The creator may always update; anyone else needs
// delete-level passenger permission.
func (s *Service) UpdatePassenger(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, passengerID string, in PassengerInput) (Passenger, error) {
	flight, existing, ok := findPassenger(cache, in.FlightRef, passengerID)
	if !ok {
		return Passenger{}, shared.ErrNotFound
	}
	if !canMutate(cache, actor, perms.CategoryPassenger, existing.CreatedBy) {
		return Passenger{}, shared.ErrPermissionDenied
	}

	p := s.pricedPassenger(cache, flight, in)
	p.ID = existing.ID
	p.FlightID = flight.UUID
	p.CreatedBy = existing.CreatedBy
	actorID := actor.ID
	p.UpdatedBy = &actorID

	updated, err := s.repo.UpdatePassenger(ctx, scopeID, p)
	if err != nil {
		return Passenger{}, err
	}

	cache.UpsertPassenger(flight.UUID, updated)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionUpdate,
		EntityType:  "passenger",
		EntityID:    updated.ID,
		Description: fmt.Sprintf("Updated passenger %s", updated.Name),
		Details:     audit.Diff(existing, updated),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return updated, nil
}

// RemovePassenger deletes a passenger; its infant rows cascade.
func (s *Service) RemovePassenger(ctx context.Context, actor *auth.Actor, scopeID string, cache Cache, flightRef, passengerID string) error {
	flight, existing, ok := findPassenger(cache, flightRef, passengerID)
	if !ok {
		return shared.ErrNotFound
	}
	if !canMutate(cache, actor, perms.CategoryPassenger, existing.CreatedBy) {
		return shared.ErrPermissionDenied
	}

	if err := s.repo.DeletePassenger(ctx, scopeID, existing.ID); err != nil {
		return err
	}

	cache.RemovePassenger(flight.UUID, existing.ID)
	s.activity.Record(ctx, audit.Entry{
		AccountID:   scopeID,
		ActorID:     actor.ID,
		ActionType:  audit.ActionDelete,
		EntityType:  "passenger",
		EntityID:    existing.ID,
		Description: fmt.Sprintf("Removed passenger %s from flight %s", existing.Name, flight.FlightNumber),
	})
	s.notifier.PublishChange(ctx, scopeID)
	return nil
}

// pricedPassenger builds the write model from the input. Price fields
// derive from the flight's airline price book unless the input carries
// overrides, which are stored verbatim. Children never carry infants
// or a gender.
func (s *Service) pricedPassenger(cache Cache, flight Flight, in PassengerInput) Passenger {
	infants := in.Infants
	gender := in.Gender
	if in.Type == TypeChild {
		infants = nil
		gender = ""
	}
	infants = cleanInfantNames(infants)

	book := cache.PriceBookFor(flight.Airline)
	base := in.TicketPrice
	if base == 0 {
		base = book.BasePrice(in.Type)
	}
	tax := book.Tax
	if in.Tax != nil {
		tax = *in.Tax
	}
	surcharge := book.Surcharge
	if in.Surcharge != nil {
		surcharge = *in.Surcharge
	}
	total := base + tax + surcharge + float64(len(infants))*book.Infant
	if in.TotalPrice != nil {
		total = *in.TotalPrice
	}
	dateOfIssue := in.DateOfIssue
	if dateOfIssue.IsZero() {
		dateOfIssue = time.Now()
	}
	return Passenger{
		Name:             in.Name,
		Type:             in.Type,
		Gender:           gender,
		PhoneNumber:      in.PhoneNumber,
		Agency:           in.Agency,
		FlightNumber:     flight.FlightNumber,
		BookingReference: in.BookingReference,
		TicketPrice:      base,
		Tax:              tax,
		Surcharge:        surcharge,
		TotalPrice:       total,
		DateOfIssue:      dateOfIssue,
		Infants:          infants,
	}
}

func findPassenger(cache Cache, flightRef, passengerID string) (Flight, Passenger, bool) {
	flight, ok := cache.FlightByRef(flightRef)
	if !ok {
		return Flight{}, Passenger{}, false
	}
	for _, p := range flight.Passengers {
		if p.ID == passengerID {
			return flight, p, true
		}
	}
	return Flight{}, Passenger{}, false
}
