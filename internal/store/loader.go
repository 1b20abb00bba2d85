package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/areys-travel/areys/internal/agencies"
	"github.com/areys-travel/areys/internal/airlines"
	"github.com/areys-travel/areys/internal/flights"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/settings"
	"github.com/areys-travel/areys/internal/users"
)

// Sources are the scoped dataset fetchers the loader reconciles.
// Implemented by the domain repositories.
type (
	FlightSource interface {
		ListFlights(ctx context.Context, scope string) ([]flights.Flight, error)
		ListPassengers(ctx context.Context, scope string) ([]flights.Passenger, error)
		ListInfants(ctx context.Context, scope string) ([]flights.Infant, error)
	}
	AirlineSource interface {
		ListAirlines(ctx context.Context, scope string) ([]airlines.Airline, error)
	}
	AgencySource interface {
		ListAgencies(ctx context.Context, scope string) ([]agencies.Agency, error)
	}
	SettingsSource interface {
		GetSettings(ctx context.Context, scope string) (settings.Settings, error)
	}
	UserSource interface {
		ListManagedUsers(ctx context.Context, scope string) ([]users.ManagedUser, error)
		ListAccountActors(ctx context.Context, scope string) ([]users.ManagedUser, error)
	}
	RoleSource interface {
		List(ctx context.Context) ([]perms.RoleDefinition, error)
	}
)

// Loader fetches every dataset for a scope and reconciles them into a
// Snapshot.
type Loader struct {
	flights  FlightSource
	airlines AirlineSource
	agencies AgencySource
	settings SettingsSource
	users    UserSource
	roles    RoleSource
	logger   *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(fl FlightSource, al AirlineSource, ag AgencySource, st SettingsSource, us UserSource, ro RoleSource, logger *slog.Logger) *Loader {
	return &Loader{flights: fl, airlines: al, agencies: ag, settings: st, users: us, roles: ro, logger: logger}
}

// LoadAll fetches the nine datasets in parallel and reconciles them.
// A failing dataset degrades to empty rather than aborting the load;
// only a load where every dataset failed returns an error.
func (l *Loader) LoadAll(ctx context.Context, view View) (*Snapshot, error) {
	var (
		flightRows    []flights.Flight
		passengerRows []flights.Passenger
		infantRows    []flights.Infant
		airlineRows   []airlines.Airline
		agencyRows    []agencies.Agency
		settingsRow   = settings.Defaults()
		managedRows   []users.ManagedUser
		accountRows   []users.ManagedUser
		roleRows      []perms.RoleDefinition
	)

	var failures atomic.Int32
	countFailure := func(dataset string, err error) {
		failures.Add(1)
		l.logger.Warn("dataset load failed", slog.String("dataset", dataset), slog.Any("error", err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := l.flights.ListFlights(gctx, view.Scope)
		if err != nil {
			countFailure("flights", err)
			return nil
		}
		flightRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := l.flights.ListPassengers(gctx, view.Scope)
		if err != nil {
			countFailure("passengers", err)
			return nil
		}
		passengerRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := l.flights.ListInfants(gctx, view.Scope)
		if err != nil {
			countFailure("infants", err)
			return nil
		}
		infantRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := l.airlines.ListAirlines(gctx, view.Scope)
		if err != nil {
			countFailure("airlines", err)
			return nil
		}
		airlineRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := l.agencies.ListAgencies(gctx, view.Scope)
		if err != nil {
			countFailure("agencies", err)
			return nil
		}
		agencyRows = rows
		return nil
	})
	g.Go(func() error {
		row, err := l.settings.GetSettings(gctx, view.Scope)
		if err != nil {
			countFailure("settings", err)
			return nil
		}
		settingsRow = row
		return nil
	})
	g.Go(func() error {
		rows, err := l.users.ListManagedUsers(gctx, view.Scope)
		if err != nil {
			countFailure("managed users", err)
			return nil
		}
		managedRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := l.users.ListAccountActors(gctx, view.Scope)
		if err != nil {
			countFailure("account actors", err)
			return nil
		}
		accountRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := l.roles.List(gctx)
		if err != nil {
			countFailure("role definitions", err)
			return nil
		}
		roleRows = rows
		return nil
	})
	_ = g.Wait()

	if failures.Load() >= 9 {
		return nil, errors.New("store: every dataset failed to load")
	}

	snap := &Snapshot{
		Airlines:        airlineRows,
		Agencies:        agencyRows,
		Settings:        settingsRow,
		Users:           mergeUsers(managedRows, accountRows),
		RoleDefinitions: roleRows,
		LoadedAt:        time.Now(),
		evaluator:       perms.NewEvaluator(roleRows),
	}
	if view.Actor != nil {
		snap.actorID = view.Actor.ID
	}
	snap.Flights = reconcileFlights(flightRows, passengerRows, infantRows, view, snap.evaluator)
	return snap, nil
}

// reconcileFlights joins infants into passengers, passengers into
// flights, applies the view_any/view_own visibility rules and sorts by
// departure date, newest first.
func reconcileFlights(flightRows []flights.Flight, passengerRows []flights.Passenger, infantRows []flights.Infant, view View, eval *perms.Evaluator) []flights.Flight {
	infantsByPassenger := make(map[string][]string, len(passengerRows))
	for _, inf := range infantRows {
		infantsByPassenger[inf.PassengerID] = append(infantsByPassenger[inf.PassengerID], inf.Name)
	}

	passengersByFlight := make(map[string][]flights.Passenger, len(flightRows))
	for _, p := range passengerRows {
		p.Infants = infantsByPassenger[p.ID]
		if p.Infants == nil {
			p.Infants = []string{}
		}
		passengersByFlight[p.FlightID] = append(passengersByFlight[p.FlightID], p)
	}

	actorID := ""
	role := ""
	if view.Actor != nil {
		actorID = view.Actor.ID
		role = view.Actor.Role
	}
	viewAnyFlight := eval.Has(role, perms.CategoryFlight, "view_any")
	viewOwnFlight := eval.Has(role, perms.CategoryFlight, "view_own")
	viewAnyPassenger := eval.Has(role, perms.CategoryPassenger, "view_any")
	viewOwnPassenger := eval.Has(role, perms.CategoryPassenger, "view_own")

	out := make([]flights.Flight, 0, len(flightRows))
	for _, f := range flightRows {
		if !viewAnyFlight {
			if !viewOwnFlight || f.CreatedBy != actorID {
				continue
			}
		}
		attached := passengersByFlight[f.UUID]
		visible := make([]flights.Passenger, 0, len(attached))
		for _, p := range attached {
			if viewAnyPassenger || (viewOwnPassenger && p.CreatedBy == actorID) {
				visible = append(visible, p)
			}
		}
		f.Passengers = visible
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// mergeUsers folds account-level actor rows into the managed-user list
// so display-name resolution covers every identity in the account.
func mergeUsers(managed, account []users.ManagedUser) []users.ManagedUser {
	merged := append([]users.ManagedUser(nil), managed...)
	for _, au := range account {
		found := false
		for i := range merged {
			if merged[i].ManagedUserID == au.ManagedUserID {
				if merged[i].Name == "" {
					merged[i].Name = au.Name
				}
				if merged[i].AgencyName == nil {
					merged[i].AgencyName = au.AgencyName
				}
				found = true
				break
			}
		}
		if !found {
			au.IsAccountUser = true
			merged = append(merged, au)
		}
	}
	return merged
}
