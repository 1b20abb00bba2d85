package store

import (
	"strconv"
	"time"

	"github.com/areys-travel/areys/internal/agencies"
	"github.com/areys-travel/areys/internal/airlines"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/flights"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/settings"
	"github.com/areys-travel/areys/internal/users"
)

// View identifies whose data is loaded (Scope) and through whose eyes
// it is filtered (Actor).
type View struct {
	Actor *auth.Actor
	Scope string
}

// Snapshot is the reconciled in-memory view of an account's data. It is
// the sole source of truth rendered to the client until the next load.
type Snapshot struct {
	Flights         []flights.Flight       `json:"flights"`
	Airlines        []airlines.Airline     `json:"airlines"`
	Agencies        []agencies.Agency      `json:"agencies"`
	Settings        settings.Settings      `json:"settings"`
	Users           []users.ManagedUser    `json:"users"`
	RoleDefinitions []perms.RoleDefinition `json:"role_definitions"`
	LoadedAt        time.Time              `json:"loaded_at"`

	actorID   string
	evaluator *perms.Evaluator
}

// Has evaluates a permission against this snapshot's role definitions.
func (s *Snapshot) Has(role, category, action string) bool {
	if s == nil {
		return role == auth.RoleAdmin
	}
	return s.evaluator.Has(role, category, action)
}

// ResolveUserName maps an identity referenced by createdBy/updatedBy
// fields to a display label.
func (s *Snapshot) ResolveUserName(id string) string {
	if id == "" {
		return "System"
	}
	if id == s.actorID {
		return "Me"
	}
	for i := range s.Users {
		if s.Users[i].ManagedUserID == id {
			if s.Users[i].Name != "" {
				return s.Users[i].Name
			}
			break
		}
	}
	return "User"
}

// FlightByRef finds a flight by uuid or serial id rendered as a string.
func (s *Snapshot) FlightByRef(ref string) (flights.Flight, bool) {
	for i := range s.Flights {
		if s.Flights[i].UUID == ref || itoa(s.Flights[i].ID) == ref {
			return s.Flights[i], true
		}
	}
	return flights.Flight{}, false
}

// AirlineByName finds an airline configuration by name.
func (s *Snapshot) AirlineByName(name string) (airlines.Airline, bool) {
	for i := range s.Airlines {
		if s.Airlines[i].Name == name {
			return s.Airlines[i], true
		}
	}
	return airlines.Airline{}, false
}

// PriceBookFor returns the airline's pricing when configured, falling
// back to the account default prices.
func (s *Snapshot) PriceBookFor(airlineName string) flights.PriceBook {
	if a, ok := s.AirlineByName(airlineName); ok {
		return flights.PriceBook{
			Adult:     a.AdultPrice,
			Child:     a.ChildPrice,
			Infant:    a.InfantPrice,
			Tax:       a.Tax,
			Surcharge: a.Surcharge,
		}
	}
	return flights.PriceBook{
		Adult:     s.Settings.AdultPrice,
		Child:     s.Settings.ChildPrice,
		Infant:    s.Settings.InfantPrice,
		Tax:       s.Settings.Tax,
		Surcharge: s.Settings.Surcharge,
	}
}

func (s *Snapshot) clone() *Snapshot {
	next := *s
	next.Flights = append([]flights.Flight(nil), s.Flights...)
	next.Airlines = append([]airlines.Airline(nil), s.Airlines...)
	next.Agencies = append([]agencies.Agency(nil), s.Agencies...)
	next.Users = append([]users.ManagedUser(nil), s.Users...)
	next.RoleDefinitions = append([]perms.RoleDefinition(nil), s.RoleDefinitions...)
	return &next
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
