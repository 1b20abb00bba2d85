package store

import (
	"context"
	"sort"
	"sync"

	"github.com/areys-travel/areys/internal/agencies"
	"github.com/areys-travel/areys/internal/airlines"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/flights"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/settings"
	"github.com/areys-travel/areys/internal/users"
)

// Store owns the current Snapshot for one actor's view of an account.
// The loader and the mutation services are the only writers. Reloads
// are tagged with a monotonic sequence so a slow load can never clobber
// the result of a load that started after it.
type Store struct {
	loader *Loader
	view   View

	mu         sync.RWMutex
	snap       *Snapshot
	seq        uint64 // latest load started
	appliedSeq uint64 // load the current snapshot came from
}

// NewStore constructs an empty Store for the view.
func NewStore(loader *Loader, view View) *Store {
	return &Store{loader: loader, view: view}
}

// View returns the actor/scope this store serves.
func (s *Store) View() View {
	return s.view
}

// Reload runs a full load cycle and installs the result, unless a newer
// cycle started while this one was in flight.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	started := s.seq
	s.mu.Unlock()

	snap, err := s.loader.LoadAll(ctx, s.view)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if started < s.seq {
		// a newer load superseded this one
		return nil
	}
	s.snap = snap
	s.appliedSeq = started
	return nil
}

// Snapshot returns the current snapshot; nil before the first load.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Has evaluates a permission against the current snapshot.
func (s *Store) Has(role, category, action string) bool {
	snap := s.Snapshot()
	if snap == nil {
		return role == auth.RoleAdmin
	}
	return snap.Has(role, category, action)
}

// PriceBookFor returns the effective pricing for an airline: its own
// configuration when present, otherwise the account defaults.
func (s *Store) PriceBookFor(airlineName string) flights.PriceBook {
	snap := s.Snapshot()
	if snap == nil {
		d := settings.Defaults()
		return flights.PriceBook{Adult: d.AdultPrice, Child: d.ChildPrice, Infant: d.InfantPrice, Tax: d.Tax, Surcharge: d.Surcharge}
	}
	return snap.PriceBookFor(airlineName)
}

// FlightByRef finds a flight by uuid or serial id in the current snapshot.
func (s *Store) FlightByRef(ref string) (flights.Flight, bool) {
	snap := s.Snapshot()
	if snap == nil {
		return flights.Flight{}, false
	}
	return snap.FlightByRef(ref)
}

func (s *Store) patch(apply func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return
	}
	next := s.snap.clone()
	apply(next)
	s.snap = next
}

// UpsertFlight merges a flight into the snapshot, keeping date order.
func (s *Store) UpsertFlight(f flights.Flight) {
	s.patch(func(snap *Snapshot) {
		if f.Passengers == nil {
			f.Passengers = []flights.Passenger{}
		}
		replaced := false
		for i := range snap.Flights {
			if snap.Flights[i].UUID == f.UUID {
				f.Passengers = snap.Flights[i].Passengers
				snap.Flights[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			snap.Flights = append(snap.Flights, f)
		}
		sort.SliceStable(snap.Flights, func(i, j int) bool {
			return snap.Flights[i].Date.After(snap.Flights[j].Date)
		})
	})
}

// RemoveFlight drops a flight from the snapshot.
func (s *Store) RemoveFlight(id int64) {
	s.patch(func(snap *Snapshot) {
		kept := snap.Flights[:0:0]
		for _, f := range snap.Flights {
			if f.ID != id {
				kept = append(kept, f)
			}
		}
		snap.Flights = kept
	})
}

// UpsertPassenger merges a passenger into its flight's list.
func (s *Store) UpsertPassenger(flightUUID string, p flights.Passenger) {
	s.patch(func(snap *Snapshot) {
		for i := range snap.Flights {
			if snap.Flights[i].UUID != flightUUID {
				continue
			}
			list := append([]flights.Passenger(nil), snap.Flights[i].Passengers...)
			replaced := false
			for j := range list {
				if list[j].ID == p.ID {
					list[j] = p
					replaced = true
					break
				}
			}
			if !replaced {
				list = append(list, p)
			}
			snap.Flights[i].Passengers = list
			return
		}
	})
}

// RemovePassenger drops a passenger from its flight's list.
func (s *Store) RemovePassenger(flightUUID, passengerID string) {
	s.patch(func(snap *Snapshot) {
		for i := range snap.Flights {
			if snap.Flights[i].UUID != flightUUID {
				continue
			}
			kept := make([]flights.Passenger, 0, len(snap.Flights[i].Passengers))
			for _, p := range snap.Flights[i].Passengers {
				if p.ID != passengerID {
					kept = append(kept, p)
				}
			}
			snap.Flights[i].Passengers = kept
			return
		}
	})
}

// UpsertAirline merges an airline row into the snapshot.
func (s *Store) UpsertAirline(a airlines.Airline) {
	s.patch(func(snap *Snapshot) {
		for i := range snap.Airlines {
			if snap.Airlines[i].ID == a.ID {
				snap.Airlines[i] = a
				return
			}
		}
		snap.Airlines = append(snap.Airlines, a)
	})
}

// RemoveAirline drops an airline row.
func (s *Store) RemoveAirline(id int64) {
	s.patch(func(snap *Snapshot) {
		kept := snap.Airlines[:0:0]
		for _, a := range snap.Airlines {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		snap.Airlines = kept
	})
}

// UpsertAgency merges an agency row into the snapshot.
func (s *Store) UpsertAgency(a agencies.Agency) {
	s.patch(func(snap *Snapshot) {
		for i := range snap.Agencies {
			if snap.Agencies[i].ID == a.ID {
				snap.Agencies[i] = a
				return
			}
		}
		snap.Agencies = append(snap.Agencies, a)
	})
}

// RemoveAgency drops an agency row.
func (s *Store) RemoveAgency(id int64) {
	s.patch(func(snap *Snapshot) {
		kept := snap.Agencies[:0:0]
		for _, a := range snap.Agencies {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		snap.Agencies = kept
	})
}

// SetSettings replaces the account settings row.
func (s *Store) SetSettings(row settings.Settings) {
	s.patch(func(snap *Snapshot) {
		snap.Settings = row
	})
}

// UpsertManagedUser merges a managed-user row into the snapshot.
func (s *Store) UpsertManagedUser(u users.ManagedUser) {
	s.patch(func(snap *Snapshot) {
		for i := range snap.Users {
			if snap.Users[i].ID == u.ID {
				snap.Users[i] = u
				return
			}
		}
		snap.Users = append(snap.Users, u)
	})
}

// UpsertRoleDefinition merges a role definition and rebuilds the
// evaluator so permission checks see the change immediately.
func (s *Store) UpsertRoleDefinition(def perms.RoleDefinition) {
	s.patch(func(snap *Snapshot) {
		replaced := false
		for i := range snap.RoleDefinitions {
			if snap.RoleDefinitions[i].ID == def.ID {
				snap.RoleDefinitions[i] = def
				replaced = true
				break
			}
		}
		if !replaced {
			snap.RoleDefinitions = append(snap.RoleDefinitions, def)
		}
		snap.evaluator = perms.NewEvaluator(snap.RoleDefinitions)
	})
}
