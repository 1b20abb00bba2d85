package flights

import "time"

// Passenger types.
const (
	TypeAdult = "Adult"
	TypeChild = "Child"
)

// MaxInfants caps the infants attachable to one adult passenger.
const MaxInfants = 5

// Flight is a scheduled departure with its reconciled passenger list.
// UUID is the stable join key passengers reference; the serial ID is
// never reused as a foreign key.
type Flight struct {
	ID           int64       `json:"id"`
	UUID         string      `json:"uuid"`
	Airline      string      `json:"airline"`
	FlightNumber string      `json:"flight_number"`
	Date         time.Time   `json:"date"`
	Route        string      `json:"route"`
	CreatedBy    string      `json:"created_by"`
	CreatedAt    time.Time   `json:"created_at"`
	Passengers   []Passenger `json:"passengers"`
}

// Passenger is a ticketed traveller on a flight. Infants carries the
// ordered infant names already joined in from the infants table; it is
// replaced wholesale on every write.
type Passenger struct {
	ID               string    `json:"id"`
	FlightID         string    `json:"flight_id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Gender           string    `json:"gender,omitempty"`
	PhoneNumber      string    `json:"phone_number"`
	Agency           string    `json:"agency"`
	FlightNumber     string    `json:"flight_number"`
	BookingReference string    `json:"booking_reference"`
	TicketPrice      float64   `json:"ticket_price"`
	Tax              float64   `json:"tax"`
	Surcharge        float64   `json:"surcharge"`
	TotalPrice       float64   `json:"total_price"`
	DateOfIssue      time.Time `json:"date_of_issue"`
	CreatedBy        string    `json:"created_by"`
	UpdatedBy        *string   `json:"updated_by,omitempty"`
	Infants          []string  `json:"infants"`
}

// Infant is the normalized child record as stored; the snapshot folds
// these into Passenger.Infants.
type Infant struct {
	ID          int64  `json:"id"`
	PassengerID string `json:"passenger_id"`
	Name        string `json:"name"`
	CreatedBy   string `json:"created_by"`
}
