package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/areys-travel/areys/internal/agencies"
	"github.com/areys-travel/areys/internal/airlines"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/flights"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/settings"
	"github.com/areys-travel/areys/internal/users"
)

// memorySources backs the loader with fixed rows. Any dataset can be
// failed independently.
type memorySources struct {
	flights    []flights.Flight
	passengers []flights.Passenger
	infants    []flights.Infant
	airlines   []airlines.Airline
	agencies   []agencies.Agency
	settings   settings.Settings
	hasSet     bool
	managed    []users.ManagedUser
	actors     []users.ManagedUser
	roles      []perms.RoleDefinition

	fail map[string]error

	// When set, the first ListFlights call signals flightStarted and
	// then blocks until flightGate is closed. Later calls pass through.
	flightGate    chan struct{}
	flightStarted chan struct{}
	flightCalls   atomic.Int32
}

func (m *memorySources) failing(dataset string) error {
	if m.fail == nil {
		return nil
	}
	return m.fail[dataset]
}

func (m *memorySources) ListFlights(ctx context.Context, scope string) ([]flights.Flight, error) {
	if m.flightGate != nil && m.flightCalls.Add(1) == 1 {
		if m.flightStarted != nil {
			m.flightStarted <- struct{}{}
		}
		<-m.flightGate
	}
	if err := m.failing("flights"); err != nil {
		return nil, err
	}
	return m.flights, nil
}

func (m *memorySources) ListPassengers(ctx context.Context, scope string) ([]flights.Passenger, error) {
	if err := m.failing("passengers"); err != nil {
		return nil, err
	}
	return m.passengers, nil
}

func (m *memorySources) ListInfants(ctx context.Context, scope string) ([]flights.Infant, error) {
	if err := m.failing("infants"); err != nil {
		return nil, err
	}
	return m.infants, nil
}

func (m *memorySources) ListAirlines(ctx context.Context, scope string) ([]airlines.Airline, error) {
	if err := m.failing("airlines"); err != nil {
		return nil, err
	}
	return m.airlines, nil
}

func (m *memorySources) ListAgencies(ctx context.Context, scope string) ([]agencies.Agency, error) {
	if err := m.failing("agencies"); err != nil {
		return nil, err
	}
	return m.agencies, nil
}

func (m *memorySources) GetSettings(ctx context.Context, scope string) (settings.Settings, error) {
	if err := m.failing("settings"); err != nil {
		return settings.Settings{}, err
	}
	if !m.hasSet {
		return settings.Defaults(), nil
	}
	return m.settings, nil
}

func (m *memorySources) ListManagedUsers(ctx context.Context, scope string) ([]users.ManagedUser, error) {
	if err := m.failing("managed"); err != nil {
		return nil, err
	}
	return m.managed, nil
}

func (m *memorySources) ListAccountActors(ctx context.Context, scope string) ([]users.ManagedUser, error) {
	if err := m.failing("actors"); err != nil {
		return nil, err
	}
	return m.actors, nil
}

func (m *memorySources) List(ctx context.Context) ([]perms.RoleDefinition, error) {
	if err := m.failing("roles"); err != nil {
		return nil, err
	}
	return m.roles, nil
}

func newTestLoader(src *memorySources) *Loader {
	logger := slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewLoader(src, src, src, src, src, src, logger)
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func adminView(actorID string) View {
	return View{Actor: &auth.Actor{ID: actorID, Role: auth.RoleAdmin}, Scope: actorID}
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoadAllJoinsInfantsIntoPassengersIntoFlights(t *testing.T) {
	src := &memorySources{
		flights:    []flights.Flight{{ID: 1, UUID: "F1", Airline: "Daallo", Date: date("2026-09-01"), CreatedBy: "u1"}},
		passengers: []flights.Passenger{{ID: "P1", FlightID: "F1", Name: "Asha", Type: flights.TypeAdult, CreatedBy: "u1"}},
		infants:    []flights.Infant{{ID: 1, PassengerID: "P1", Name: "baby"}},
	}
	loader := newTestLoader(src)

	snap, err := loader.LoadAll(context.Background(), adminView("u1"))
	require.NoError(t, err)
	require.Len(t, snap.Flights, 1)
	require.Len(t, snap.Flights[0].Passengers, 1)
	require.Equal(t, []string{"baby"}, snap.Flights[0].Passengers[0].Infants)
}

func TestLoadAllOrphanPassengerIsDropped(t *testing.T) {
	src := &memorySources{
		flights:    []flights.Flight{{ID: 1, UUID: "F1", CreatedBy: "u1"}},
		passengers: []flights.Passenger{{ID: "P1", FlightID: "missing", Name: "Lost", CreatedBy: "u1"}},
	}
	loader := newTestLoader(src)

	snap, err := loader.LoadAll(context.Background(), adminView("u1"))
	require.NoError(t, err)
	require.Len(t, snap.Flights, 1)
	require.Empty(t, snap.Flights[0].Passengers)
}

func TestLoadAllVisibilityFiltering(t *testing.T) {
	defs := []perms.RoleDefinition{{
		ID:   1,
		Role: "Agent",
		Permissions: perms.Matrix{
			perms.CategoryFlight:    {"view_own": true},
			perms.CategoryPassenger: {"view_own": true},
		},
	}}
	src := &memorySources{
		flights: []flights.Flight{
			{ID: 1, UUID: "F1", Date: date("2026-09-02"), CreatedBy: "agent-1"},
			{ID: 2, UUID: "F2", Date: date("2026-09-03"), CreatedBy: "someone-else"},
		},
		passengers: []flights.Passenger{
			{ID: "P1", FlightID: "F1", Name: "Mine", CreatedBy: "agent-1"},
			{ID: "P2", FlightID: "F1", Name: "Theirs", CreatedBy: "someone-else"},
		},
		roles: defs,
	}
	loader := newTestLoader(src)
	view := View{Actor: &auth.Actor{ID: "agent-1", Role: "Agent"}, Scope: "owner-x"}

	snap, err := loader.LoadAll(context.Background(), view)
	require.NoError(t, err)
	require.Len(t, snap.Flights, 1)
	require.Equal(t, "F1", snap.Flights[0].UUID)
	require.Len(t, snap.Flights[0].Passengers, 1)
	require.Equal(t, "Mine", snap.Flights[0].Passengers[0].Name)
}

func TestLoadAllViewAnySeesEverything(t *testing.T) {
	defs := []perms.RoleDefinition{{
		ID:   1,
		Role: "Supervisor",
		Permissions: perms.Matrix{
			perms.CategoryFlight:    {"view_any": true},
			perms.CategoryPassenger: {"view_any": true},
		},
	}}
	src := &memorySources{
		flights: []flights.Flight{
			{ID: 1, UUID: "F1", Date: date("2026-09-02"), CreatedBy: "someone-else"},
		},
		passengers: []flights.Passenger{
			{ID: "P1", FlightID: "F1", CreatedBy: "another"},
		},
		roles: defs,
	}
	loader := newTestLoader(src)
	view := View{Actor: &auth.Actor{ID: "sup-1", Role: "Supervisor"}, Scope: "owner-x"}

	snap, err := loader.LoadAll(context.Background(), view)
	require.NoError(t, err)
	require.Len(t, snap.Flights, 1)
	require.Len(t, snap.Flights[0].Passengers, 1)
}

func TestLoadAllSortsFlightsNewestFirst(t *testing.T) {
	src := &memorySources{
		flights: []flights.Flight{
			{ID: 1, UUID: "F1", Date: date("2026-09-01"), CreatedBy: "u1"},
			{ID: 2, UUID: "F2", Date: date("2026-09-05"), CreatedBy: "u1"},
			{ID: 3, UUID: "F3", Date: date("2026-09-03"), CreatedBy: "u1"},
		},
	}
	loader := newTestLoader(src)

	snap, err := loader.LoadAll(context.Background(), adminView("u1"))
	require.NoError(t, err)
	require.Equal(t, []string{"F2", "F3", "F1"}, []string{
		snap.Flights[0].UUID, snap.Flights[1].UUID, snap.Flights[2].UUID,
	})
}

func TestLoadAllDatasetFailureDegradesToEmpty(t *testing.T) {
	src := &memorySources{
		flights: []flights.Flight{{ID: 1, UUID: "F1", CreatedBy: "u1"}},
		fail:    map[string]error{"airlines": errors.New("boom")},
	}
	loader := newTestLoader(src)

	snap, err := loader.LoadAll(context.Background(), adminView("u1"))
	require.NoError(t, err)
	require.Len(t, snap.Flights, 1)
	require.Empty(t, snap.Airlines)
	// Settings degrade to the defaults, never to a zero struct.
	require.Equal(t, settings.Defaults(), snap.Settings)
}

func TestLoadAllTotalFailureErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &memorySources{fail: map[string]error{
		"flights": boom, "passengers": boom, "infants": boom,
		"airlines": boom, "agencies": boom, "settings": boom,
		"managed": boom, "actors": boom, "roles": boom,
	}}
	loader := newTestLoader(src)

	_, err := loader.LoadAll(context.Background(), adminView("u1"))
	require.Error(t, err)
}

func TestLoadAllIdempotent(t *testing.T) {
	src := &memorySources{
		flights: []flights.Flight{
			{ID: 1, UUID: "F1", Date: date("2026-09-01"), CreatedBy: "u1"},
			{ID: 2, UUID: "F2", Date: date("2026-09-01"), CreatedBy: "u1"},
		},
		passengers: []flights.Passenger{{ID: "P1", FlightID: "F1", CreatedBy: "u1"}},
		infants:    []flights.Infant{{ID: 1, PassengerID: "P1", Name: "baby"}},
		airlines:   []airlines.Airline{{ID: 1, Name: "Daallo"}},
		managed:    []users.ManagedUser{{ID: 1, ManagedUserID: "staff-1", Name: "Sagal"}},
	}
	loader := newTestLoader(src)

	first, err := loader.LoadAll(context.Background(), adminView("u1"))
	require.NoError(t, err)
	second, err := loader.LoadAll(context.Background(), adminView("u1"))
	require.NoError(t, err)

	require.Equal(t, first.Flights, second.Flights)
	require.Equal(t, first.Airlines, second.Airlines)
	require.Equal(t, first.Users, second.Users)
	// Equal-date flights keep their input order on both loads.
	require.Equal(t, "F1", first.Flights[0].UUID)
}

func TestMergeUsersFoldsAccountActors(t *testing.T) {
	managed := []users.ManagedUser{{ID: 1, ManagedUserID: "staff-1", Name: ""}}
	account := []users.ManagedUser{
		{ManagedUserID: "staff-1", Name: "Sagal"},
		{ManagedUserID: "owner-1", Name: "Owner"},
	}

	merged := mergeUsers(managed, account)
	require.Len(t, merged, 2)
	require.Equal(t, "Sagal", merged[0].Name)
	require.True(t, merged[1].IsAccountUser)
}
