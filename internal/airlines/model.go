package airlines

import "time"

// Airline carries an account's pricing and document-template
// configuration for one carrier. Template fields are opaque references
// consumed by the external document generator.
type Airline struct {
	ID                      int64     `json:"id"`
	Name                    string    `json:"name"`
	TicketTemplate          string    `json:"ticket_template"`
	ManifestTemplate        string    `json:"manifest_template"`
	ManifestUS              string    `json:"manifest_us"`
	ManifestAirport         string    `json:"manifest_airport"`
	DefaultBookingReference string    `json:"default_booking_reference"`
	DefaultFlightNumber     string    `json:"default_flight_number"`
	AdultPrice              float64   `json:"adult_price"`
	ChildPrice              float64   `json:"child_price"`
	InfantPrice             float64   `json:"infant_price"`
	Tax                     float64   `json:"tax"`
	Surcharge               float64   `json:"surcharge"`
	UpdatedAt               time.Time `json:"updated_at"`
	UpdatedBy               *string   `json:"updated_by,omitempty"`
}
