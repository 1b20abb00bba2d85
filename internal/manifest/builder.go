// Package manifest assembles passenger manifests for a flight from the
// reconciled snapshot. The document is what the external generator and
// the CSV download both render.
package manifest

import (
	"fmt"
	"time"

	"github.com/areys-travel/areys/internal/flights"
	"github.com/areys-travel/areys/internal/store"
)

// Variants select which airline template reference the document points
// at.
const (
	VariantGeneral = "general"
	VariantUS      = "us"
	VariantAirport = "airport"
)

// Document is one flight's manifest.
type Document struct {
	Airline       string    `json:"airline"`
	FlightNumber  string    `json:"flight_number"`
	Date          time.Time `json:"date"`
	Route         string    `json:"route"`
	AgencyName    string    `json:"agency_name"`
	AgencyTagline string    `json:"agency_tagline"`
	TemplateRef   string    `json:"template_ref,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
	Rows          []Row     `json:"rows"`
	Summary       Summary   `json:"summary"`
}

// Row is one passenger line.
type Row struct {
	Seq              int      `json:"seq"`
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Gender           string   `json:"gender,omitempty"`
	PhoneNumber      string   `json:"phone_number"`
	Agency           string   `json:"agency"`
	BookingReference string   `json:"booking_reference"`
	Infants          []string `json:"infants"`
	TotalPrice       float64  `json:"total_price"`
	IssuedBy         string   `json:"issued_by"`
}

// Summary carries the per-type counts and the revenue total.
type Summary struct {
	Adults   int     `json:"adults"`
	Children int     `json:"children"`
	Infants  int     `json:"infants"`
	Revenue  float64 `json:"revenue"`
}

// Build assembles the manifest for a flight out of the snapshot. Only
// passengers visible in the snapshot appear, so the caller's view
// filtering carries over.
func Build(snap *store.Snapshot, flightRef, variant string) (Document, error) {
	flight, ok := snap.FlightByRef(flightRef)
	if !ok {
		return Document{}, fmt.Errorf("manifest: flight %q not found", flightRef)
	}

	doc := Document{
		Airline:       flight.Airline,
		FlightNumber:  flight.FlightNumber,
		Date:          flight.Date,
		Route:         flight.Route,
		AgencyName:    snap.Settings.AgencyName,
		AgencyTagline: snap.Settings.AgencyTagline,
		TemplateRef:   templateRef(snap, flight.Airline, variant),
		GeneratedAt:   time.Now(),
		Rows:          make([]Row, 0, len(flight.Passengers)),
	}

	for i, p := range flight.Passengers {
		doc.Rows = append(doc.Rows, Row{
			Seq:              i + 1,
			Name:             p.Name,
			Type:             p.Type,
			Gender:           p.Gender,
			PhoneNumber:      p.PhoneNumber,
			Agency:           p.Agency,
			BookingReference: p.BookingReference,
			Infants:          p.Infants,
			TotalPrice:       p.TotalPrice,
			IssuedBy:         snap.ResolveUserName(p.CreatedBy),
		})
		switch p.Type {
		case flights.TypeChild:
			doc.Summary.Children++
		default:
			doc.Summary.Adults++
		}
		doc.Summary.Infants += len(p.Infants)
		doc.Summary.Revenue += p.TotalPrice
	}
	return doc, nil
}

// Ticket is the handoff for one passenger's ticket document.
type Ticket struct {
	Airline       string    `json:"airline"`
	FlightNumber  string    `json:"flight_number"`
	Date          time.Time `json:"date"`
	Route         string    `json:"route"`
	AgencyName    string    `json:"agency_name"`
	AgencyTagline string    `json:"agency_tagline"`
	TemplateRef   string    `json:"template_ref,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
	Passenger     Row       `json:"passenger"`
}

// BuildTicket assembles one passenger's ticket handoff.
func BuildTicket(snap *store.Snapshot, flightRef, passengerID string) (Ticket, error) {
	flight, ok := snap.FlightByRef(flightRef)
	if !ok {
		return Ticket{}, fmt.Errorf("manifest: flight %q not found", flightRef)
	}
	tickets, err := BuildTickets(snap, flightRef)
	if err != nil {
		return Ticket{}, err
	}
	for i, p := range flight.Passengers {
		if p.ID == passengerID {
			return tickets[i], nil
		}
	}
	return Ticket{}, fmt.Errorf("manifest: passenger %q not found on flight %q", passengerID, flightRef)
}

// BuildTickets assembles tickets for every visible passenger on the
// flight, for batch generation.
func BuildTickets(snap *store.Snapshot, flightRef string) ([]Ticket, error) {
	flight, ok := snap.FlightByRef(flightRef)
	if !ok {
		return nil, fmt.Errorf("manifest: flight %q not found", flightRef)
	}
	ref := ticketTemplateRef(snap, flight.Airline)
	now := time.Now()

	out := make([]Ticket, 0, len(flight.Passengers))
	for i, p := range flight.Passengers {
		out = append(out, Ticket{
			Airline:       flight.Airline,
			FlightNumber:  flight.FlightNumber,
			Date:          flight.Date,
			Route:         flight.Route,
			AgencyName:    snap.Settings.AgencyName,
			AgencyTagline: snap.Settings.AgencyTagline,
			TemplateRef:   ref,
			GeneratedAt:   now,
			Passenger: Row{
				Seq:              i + 1,
				Name:             p.Name,
				Type:             p.Type,
				Gender:           p.Gender,
				PhoneNumber:      p.PhoneNumber,
				Agency:           p.Agency,
				BookingReference: p.BookingReference,
				Infants:          p.Infants,
				TotalPrice:       p.TotalPrice,
				IssuedBy:         snap.ResolveUserName(p.CreatedBy),
			},
		})
	}
	return out, nil
}

func ticketTemplateRef(snap *store.Snapshot, airlineName string) string {
	airline, ok := snap.AirlineByName(airlineName)
	if !ok {
		return ""
	}
	return airline.TicketTemplate
}

func templateRef(snap *store.Snapshot, airlineName, variant string) string {
	airline, ok := snap.AirlineByName(airlineName)
	if !ok {
		return ""
	}
	switch variant {
	case VariantUS:
		return airline.ManifestUS
	case VariantAirport:
		return airline.ManifestAirport
	default:
		return airline.ManifestTemplate
	}
}
