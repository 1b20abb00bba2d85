package flights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/areys-travel/areys/internal/audit"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/shared"
)

type memoryRepo struct {
	flights    map[int64]Flight
	passengers map[string]Passenger
	infants    map[string][]string
	nextFlight int64
	nextPax    int

	failWrites error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		flights:    make(map[int64]Flight),
		passengers: make(map[string]Passenger),
		infants:    make(map[string][]string),
	}
}

func (r *memoryRepo) ListFlights(ctx context.Context, scope string) ([]Flight, error) {
	var out []Flight
	for _, f := range r.flights {
		out = append(out, f)
	}
	return out, nil
}

func (r *memoryRepo) ListPassengers(ctx context.Context, scope string) ([]Passenger, error) {
	var out []Passenger
	for _, p := range r.passengers {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) ListInfants(ctx context.Context, scope string) ([]Infant, error) {
	var out []Infant
	var id int64
	for pid, names := range r.infants {
		for _, name := range names {
			id++
			out = append(out, Infant{ID: id, PassengerID: pid, Name: name})
		}
	}
	return out, nil
}

func (r *memoryRepo) CreateFlight(ctx context.Context, scope string, f Flight) (Flight, error) {
	if r.failWrites != nil {
		return Flight{}, r.failWrites
	}
	r.nextFlight++
	f.ID = r.nextFlight
	f.UUID = "uuid-" + strconv.FormatInt(f.ID, 10)
	f.Passengers = []Passenger{}
	r.flights[f.ID] = f
	return f, nil
}

func (r *memoryRepo) UpdateFlight(ctx context.Context, scope string, id int64, f Flight) (Flight, error) {
	if r.failWrites != nil {
		return Flight{}, r.failWrites
	}
	existing, ok := r.flights[id]
	if !ok {
		return Flight{}, shared.ErrNotFound
	}
	existing.Airline = f.Airline
	existing.FlightNumber = f.FlightNumber
	existing.Date = f.Date
	existing.Route = f.Route
	r.flights[id] = existing
	return existing, nil
}

func (r *memoryRepo) DeleteFlight(ctx context.Context, scope string, id int64) error {
	if r.failWrites != nil {
		return r.failWrites
	}
	if _, ok := r.flights[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.flights, id)
	return nil
}

func (r *memoryRepo) InsertPassenger(ctx context.Context, scope string, p Passenger) (Passenger, error) {
	if r.failWrites != nil {
		return Passenger{}, r.failWrites
	}
	r.nextPax++
	p.ID = fmt.Sprintf("pax-%d", r.nextPax)
	r.passengers[p.ID] = p
	r.infants[p.ID] = append([]string(nil), p.Infants...)
	return p, nil
}

func (r *memoryRepo) UpdatePassenger(ctx context.Context, scope string, p Passenger) (Passenger, error) {
	if r.failWrites != nil {
		return Passenger{}, r.failWrites
	}
	if _, ok := r.passengers[p.ID]; !ok {
		return Passenger{}, shared.ErrNotFound
	}
	r.passengers[p.ID] = p
	// Wholesale replace, never a merge.
	r.infants[p.ID] = append([]string(nil), p.Infants...)
	return p, nil
}

func (r *memoryRepo) DeletePassenger(ctx context.Context, scope string, id string) error {
	if r.failWrites != nil {
		return r.failWrites
	}
	if _, ok := r.passengers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.passengers, id)
	delete(r.infants, id)
	return nil
}

type fakeCache struct {
	eval    *perms.Evaluator
	flights []Flight
	book    PriceBook

	upsertedFlights    []Flight
	removedFlights     []int64
	upsertedPassengers []Passenger
	removedPassengers  []string
}

func (c *fakeCache) Has(role, category, action string) bool {
	return c.eval.Has(role, category, action)
}

func (c *fakeCache) FlightByRef(ref string) (Flight, bool) {
	for _, f := range c.flights {
		if f.UUID == ref || strconv.FormatInt(f.ID, 10) == ref {
			return f, true
		}
	}
	return Flight{}, false
}

func (c *fakeCache) PriceBookFor(airlineName string) PriceBook { return c.book }

func (c *fakeCache) UpsertFlight(f Flight) { c.upsertedFlights = append(c.upsertedFlights, f) }

func (c *fakeCache) RemoveFlight(id int64) { c.removedFlights = append(c.removedFlights, id) }

func (c *fakeCache) UpsertPassenger(flightUUID string, p Passenger) {
	c.upsertedPassengers = append(c.upsertedPassengers, p)
}

func (c *fakeCache) RemovePassenger(flightUUID, passengerID string) {
	c.removedPassengers = append(c.removedPassengers, passengerID)
}

// flakyActivity records calls while simulating a sink that always
// fails internally. Failures must stay invisible to the mutation.
type flakyActivity struct {
	calls []audit.Entry
}

func (a *flakyActivity) Record(ctx context.Context, e audit.Entry) {
	a.calls = append(a.calls, e)
}

type recordingNotifier struct {
	scopes []string
}

func (n *recordingNotifier) PublishChange(ctx context.Context, scopeID string) {
	n.scopes = append(n.scopes, scopeID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func agentEvaluator(grants perms.Matrix) *perms.Evaluator {
	return perms.NewEvaluator([]perms.RoleDefinition{{ID: 1, Role: "Agent", Permissions: grants}})
}

func defaultBook() PriceBook {
	return PriceBook{Adult: 130, Child: 90, Infant: 20, Tax: 10, Surcharge: 10}
}

func agent() *auth.Actor { return &auth.Actor{ID: "agent-1", Role: "Agent"} }

func TestCreateFlightRequiresCreatePermission(t *testing.T) {
	svc := NewService(newMemoryRepo(), &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{eval: agentEvaluator(perms.Matrix{})}

	_, err := svc.CreateFlight(context.Background(), agent(), "owner-x", cache, FlightInput{
		Airline: "Daallo", FlightNumber: "D3 152", Date: time.Now(), Route: "MGQ-JIB",
	})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestCreateFlightPatchesCacheAndNotifies(t *testing.T) {
	repo := newMemoryRepo()
	activity := &flakyActivity{}
	notifier := &recordingNotifier{}
	svc := NewService(repo, activity, notifier, testLogger())
	cache := &fakeCache{eval: agentEvaluator(perms.Matrix{perms.CategoryFlight: {"create": true}})}

	created, err := svc.CreateFlight(context.Background(), agent(), "owner-x", cache, FlightInput{
		Airline: "Daallo", FlightNumber: "D3 152", Date: time.Now(), Route: "MGQ-JIB",
	})
	require.NoError(t, err)
	require.Equal(t, "agent-1", created.CreatedBy)
	require.Len(t, cache.upsertedFlights, 1)
	require.Equal(t, []string{"owner-x"}, notifier.scopes)
	require.Len(t, activity.calls, 1)
	require.Equal(t, audit.ActionCreate, activity.calls[0].ActionType)
}

func TestUpdateFlightOwnershipFallback(t *testing.T) {
	repo := newMemoryRepo()
	repo.flights[1] = Flight{ID: 1, UUID: "F1", FlightNumber: "D3 152", CreatedBy: "agent-1"}
	repo.flights[2] = Flight{ID: 2, UUID: "F2", FlightNumber: "D3 160", CreatedBy: "someone-else"}
	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{
		eval:    agentEvaluator(perms.Matrix{}),
		flights: []Flight{repo.flights[1], repo.flights[2]},
	}

	// Creator may update without any flight permission.
	_, err := svc.UpdateFlight(context.Background(), agent(), "owner-x", cache, "F1", FlightInput{
		Airline: "Daallo", FlightNumber: "D3 153", Date: time.Now(), Route: "MGQ-JIB",
	})
	require.NoError(t, err)

	// Non-creator without delete-level permission may not.
	_, err = svc.UpdateFlight(context.Background(), agent(), "owner-x", cache, "F2", FlightInput{
		Airline: "Daallo", FlightNumber: "D3 161", Date: time.Now(), Route: "MGQ-JIB",
	})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestDeleteFlightWithDeletePermissionOnForeignFlight(t *testing.T) {
	repo := newMemoryRepo()
	repo.flights[2] = Flight{ID: 2, UUID: "F2", CreatedBy: "someone-else"}
	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{
		eval:    agentEvaluator(perms.Matrix{perms.CategoryFlight: {"delete": true}}),
		flights: []Flight{repo.flights[2]},
	}

	require.NoError(t, svc.DeleteFlight(context.Background(), agent(), "owner-x", cache, "F2"))
	require.Empty(t, repo.flights)
	require.Equal(t, []int64{2}, cache.removedFlights)
}

func TestDeleteFlightDeniedLeavesStateUntouched(t *testing.T) {
	repo := newMemoryRepo()
	repo.flights[2] = Flight{ID: 2, UUID: "F2", CreatedBy: "someone-else"}
	notifier := &recordingNotifier{}
	svc := NewService(repo, &flakyActivity{}, notifier, testLogger())
	cache := &fakeCache{eval: agentEvaluator(perms.Matrix{}), flights: []Flight{repo.flights[2]}}

	err := svc.DeleteFlight(context.Background(), agent(), "owner-x", cache, "F2")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Len(t, repo.flights, 1)
	require.Empty(t, cache.removedFlights)
	require.Empty(t, notifier.scopes)
}

func TestAddPassengerDerivesPriceFromBook(t *testing.T) {
	repo := newMemoryRepo()
	flight := Flight{ID: 1, UUID: "F1", Airline: "Daallo", FlightNumber: "D3 152", CreatedBy: "agent-1"}
	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{
		eval:    agentEvaluator(perms.Matrix{perms.CategoryPassenger: {"create": true}}),
		flights: []Flight{flight},
		book:    defaultBook(),
	}

	created, err := svc.AddPassenger(context.Background(), agent(), "owner-x", cache, PassengerInput{
		FlightRef: "F1", Name: "Asha", Type: TypeAdult, Infants: []string{"A", "B"},
	})
	require.NoError(t, err)
	require.Equal(t, 130.0, created.TicketPrice)
	require.Equal(t, 190.0, created.TotalPrice) // 130 + 10 + 10 + 2*20
	require.Equal(t, "D3 152", created.FlightNumber)
	require.Equal(t, []string{"A", "B"}, repo.infants[created.ID])
}

func TestAddChildPassengerDropsInfantsAndGender(t *testing.T) {
	repo := newMemoryRepo()
	flight := Flight{ID: 1, UUID: "F1", Airline: "Daallo", CreatedBy: "agent-1"}
	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{
		eval:    agentEvaluator(perms.Matrix{perms.CategoryPassenger: {"create": true}}),
		flights: []Flight{flight},
		book:    defaultBook(),
	}

	created, err := svc.AddPassenger(context.Background(), agent(), "owner-x", cache, PassengerInput{
		FlightRef: "F1", Name: "Liban", Type: TypeChild, Gender: "Male", Infants: []string{"A"},
	})
	require.NoError(t, err)
	require.Empty(t, created.Infants)
	require.Empty(t, created.Gender)
	require.Equal(t, 110.0, created.TotalPrice) // 90 + 10 + 10, no infants
}

func TestAddPassengerStoresSubmittedPriceOverrides(t *testing.T) {
	repo := newMemoryRepo()
	flight := Flight{ID: 1, UUID: "F1", Airline: "Daallo", CreatedBy: "agent-1"}
	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{
		eval:    agentEvaluator(perms.Matrix{perms.CategoryPassenger: {"create": true}}),
		flights: []Flight{flight},
		book:    defaultBook(),
	}

	tax, surcharge, total := 50.0, 50.0, 999.0
	created, err := svc.AddPassenger(context.Background(), agent(), "owner-x", cache, PassengerInput{
		FlightRef: "F1", Name: "Asha", Type: TypeAdult,
		Tax: &tax, Surcharge: &surcharge, TotalPrice: &total,
	})
	require.NoError(t, err)
	require.Equal(t, 50.0, created.Tax)
	require.Equal(t, 50.0, created.Surcharge)
	// The submitted total wins over the derived one.
	require.Equal(t, 999.0, created.TotalPrice)
}

func TestAddPassengerOverridesTaxWithoutTotal(t *testing.T) {
	repo := newMemoryRepo()
	flight := Flight{ID: 1, UUID: "F1", Airline: "Daallo", CreatedBy: "agent-1"}
	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{
		eval:    agentEvaluator(perms.Matrix{perms.CategoryPassenger: {"create": true}}),
		flights: []Flight{flight},
		book:    defaultBook(),
	}

	tax := 0.0
	created, err := svc.AddPassenger(context.Background(), agent(), "owner-x", cache, PassengerInput{
		FlightRef: "F1", Name: "Asha", Type: TypeAdult, Tax: &tax,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, created.Tax)
	require.Equal(t, 140.0, created.TotalPrice) // 130 + 0 + 10
}

func TestUpdatePassengerReplacesInfantsWholesale(t *testing.T) {
	repo := newMemoryRepo()
	flight := Flight{ID: 1, UUID: "F1", Airline: "Daallo", CreatedBy: "agent-1"}
	existing := Passenger{ID: "pax-1", FlightID: "F1", Name: "Asha", Type: TypeAdult, CreatedBy: "agent-1", Infants: []string{"A", "B"}}
	repo.passengers["pax-1"] = existing
	repo.infants["pax-1"] = []string{"A", "B"}
	flight.Passengers = []Passenger{existing}

	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{eval: agentEvaluator(perms.Matrix{}), flights: []Flight{flight}, book: defaultBook()}

	updated, err := svc.UpdatePassenger(context.Background(), agent(), "owner-x", cache, "pax-1", PassengerInput{
		FlightRef: "F1", Name: "Asha", Type: TypeAdult, Infants: []string{"A"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, repo.infants["pax-1"])
	require.Equal(t, []string{"A"}, updated.Infants)
	require.Equal(t, "agent-1", *updated.UpdatedBy)
	require.Equal(t, 170.0, updated.TotalPrice) // 130 + 10 + 10 + 1*20
}

func TestRemovePassengerOwnershipFallback(t *testing.T) {
	repo := newMemoryRepo()
	flight := Flight{ID: 1, UUID: "F1", CreatedBy: "someone-else"}
	mine := Passenger{ID: "pax-1", FlightID: "F1", CreatedBy: "agent-1"}
	theirs := Passenger{ID: "pax-2", FlightID: "F1", CreatedBy: "someone-else"}
	repo.passengers["pax-1"] = mine
	repo.passengers["pax-2"] = theirs
	flight.Passengers = []Passenger{mine, theirs}

	svc := NewService(repo, &flakyActivity{}, &recordingNotifier{}, testLogger())
	cache := &fakeCache{eval: agentEvaluator(perms.Matrix{}), flights: []Flight{flight}}

	require.NoError(t, svc.RemovePassenger(context.Background(), agent(), "owner-x", cache, "F1", "pax-1"))
	err := svc.RemovePassenger(context.Background(), agent(), "owner-x", cache, "F1", "pax-2")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestWriteFailureLeavesCacheUntouched(t *testing.T) {
	repo := newMemoryRepo()
	repo.failWrites = errors.New("backend down")
	notifier := &recordingNotifier{}
	svc := NewService(repo, &flakyActivity{}, notifier, testLogger())
	cache := &fakeCache{eval: agentEvaluator(perms.Matrix{perms.CategoryFlight: {"create": true}})}

	_, err := svc.CreateFlight(context.Background(), agent(), "owner-x", cache, FlightInput{
		Airline: "Daallo", FlightNumber: "D3 152", Date: time.Now(), Route: "MGQ-JIB",
	})
	require.Error(t, err)
	require.Empty(t, cache.upsertedFlights)
	require.Empty(t, notifier.scopes)
}

func TestActivityFailureNeverBlocksMutation(t *testing.T) {
	repo := newMemoryRepo()
	activity := &flakyActivity{}
	svc := NewService(repo, activity, &recordingNotifier{}, testLogger())
	cache := &fakeCache{eval: agentEvaluator(perms.Matrix{perms.CategoryFlight: {"create": true}})}

	created, err := svc.CreateFlight(context.Background(), agent(), "owner-x", cache, FlightInput{
		Airline: "Daallo", FlightNumber: "D3 152", Date: time.Now(), Route: "MGQ-JIB",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	// The sink was invoked, and whatever it did internally is its own
	// problem: the flight exists either way.
	require.Len(t, activity.calls, 1)
	require.Contains(t, repo.flights, created.ID)
}
