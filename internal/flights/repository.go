package flights

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/platform/db"
	"github.com/areys-travel/areys/internal/shared"
)

// Repository provides scoped access to flights, passengers and infants.
type Repository interface {
	ListFlights(ctx context.Context, scope string) ([]Flight, error)
	ListPassengers(ctx context.Context, scope string) ([]Passenger, error)
	ListInfants(ctx context.Context, scope string) ([]Infant, error)

	CreateFlight(ctx context.Context, scope string, f Flight) (Flight, error)
	UpdateFlight(ctx context.Context, scope string, id int64, f Flight) (Flight, error)
	DeleteFlight(ctx context.Context, scope string, id int64) error

	InsertPassenger(ctx context.Context, scope string, p Passenger) (Passenger, error)
	UpdatePassenger(ctx context.Context, scope string, p Passenger) (Passenger, error)
	DeletePassenger(ctx context.Context, scope string, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by postgres.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const flightColumns = `id, uuid, airline, flight_number, date, route, created_by, created_at`

func (r *repository) ListFlights(ctx context.Context, scope string) ([]Flight, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+flightColumns+` FROM flights WHERE user_id = $1`, scope)
	if err != nil {
		return nil, shared.TranslatePG("flights: list", err)
	}
	defer rows.Close()

	var out []Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const passengerColumns = `id, flight_id, name, type, COALESCE(gender, ''), COALESCE(phone_number, ''),
	COALESCE(agency, ''), COALESCE(flight_number, ''), COALESCE(booking_reference, ''),
	ticket_price, tax, surcharge, total_price, date_of_issue, created_by, updated_by`

func (r *repository) ListPassengers(ctx context.Context, scope string) ([]Passenger, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+passengerColumns+` FROM passengers WHERE user_id = $1`, scope)
	if err != nil {
		return nil, shared.TranslatePG("passengers: list", err)
	}
	defer rows.Close()

	var out []Passenger
	for rows.Next() {
		p, err := scanPassenger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListInfants(ctx context.Context, scope string) ([]Infant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, passenger_id, name, created_by FROM infants WHERE user_id = $1 ORDER BY id`, scope)
	if err != nil {
		return nil, shared.TranslatePG("infants: list", err)
	}
	defer rows.Close()

	var out []Infant
	for rows.Next() {
		var inf Infant
		if err := rows.Scan(&inf.ID, &inf.PassengerID, &inf.Name, &inf.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, inf)
	}
	return out, rows.Err()
}

func (r *repository) CreateFlight(ctx context.Context, scope string, f Flight) (Flight, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO flights (user_id, airline, flight_number, date, route, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+flightColumns,
		scope, f.Airline, f.FlightNumber, f.Date, f.Route, f.CreatedBy)
	created, err := scanFlight(row)
	if err != nil {
		return Flight{}, shared.TranslatePG("flights: create", err)
	}
	created.Passengers = []Passenger{}
	return created, nil
}

func (r *repository) UpdateFlight(ctx context.Context, scope string, id int64, f Flight) (Flight, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE flights SET airline = $3, flight_number = $4, date = $5, route = $6
		WHERE id = $1 AND user_id = $2
		RETURNING `+flightColumns,
		id, scope, f.Airline, f.FlightNumber, f.Date, f.Route)
	updated, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Flight{}, shared.ErrNotFound
		}
		return Flight{}, shared.TranslatePG("flights: update", err)
	}
	return updated, nil
}

func (r *repository) DeleteFlight(ctx context.Context, scope string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM flights WHERE id = $1 AND user_id = $2`, id, scope)
	if err != nil {
		return shared.TranslatePG("flights: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertPassenger(ctx context.Context, scope string, p Passenger) (Passenger, error) {
	var created Passenger
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO passengers (flight_id, user_id, name, type, gender, phone_number, agency,
				flight_number, booking_reference, ticket_price, tax, surcharge, total_price,
				date_of_issue, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING `+passengerColumns,
			p.FlightID, scope, p.Name, p.Type, p.Gender, p.PhoneNumber, p.Agency,
			p.FlightNumber, p.BookingReference, p.TicketPrice, p.Tax, p.Surcharge, p.TotalPrice,
			p.DateOfIssue, p.CreatedBy)
		var err error
		created, err = scanPassenger(row)
		if err != nil {
			return err
		}
		return replaceInfants(ctx, tx, scope, created.ID, p.Infants, p.CreatedBy)
	})
	if err != nil {
		return Passenger{}, shared.TranslatePG("passengers: insert", err)
	}
	created.Infants = cleanInfantNames(p.Infants)
	return created, nil
}

func (r *repository) UpdatePassenger(ctx context.Context, scope string, p Passenger) (Passenger, error) {
	var updated Passenger
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE passengers SET name = $3, type = $4, gender = $5, phone_number = $6, agency = $7,
				flight_number = $8, booking_reference = $9, ticket_price = $10, tax = $11,
				surcharge = $12, total_price = $13, date_of_issue = $14, updated_by = $15
			WHERE id = $1 AND user_id = $2
			RETURNING `+passengerColumns,
			p.ID, scope, p.Name, p.Type, p.Gender, p.PhoneNumber, p.Agency,
			p.FlightNumber, p.BookingReference, p.TicketPrice, p.Tax, p.Surcharge, p.TotalPrice,
			p.DateOfIssue, p.UpdatedBy)
		var err error
		updated, err = scanPassenger(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		creator := p.CreatedBy
		if p.UpdatedBy != nil {
			creator = *p.UpdatedBy
		}
		return replaceInfants(ctx, tx, scope, updated.ID, p.Infants, creator)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Passenger{}, err
		}
		return Passenger{}, shared.TranslatePG("passengers: update", err)
	}
	updated.Infants = cleanInfantNames(p.Infants)
	return updated, nil
}

func (r *repository) DeletePassenger(ctx context.Context, scope string, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM passengers WHERE id = $1 AND user_id = $2`, id, scope)
	if err != nil {
		return shared.TranslatePG("passengers: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// replaceInfants rewrites a passenger's infant rows wholesale:
// delete-all then insert the surviving non-blank names.
func replaceInfants(ctx context.Context, tx pgx.Tx, scope, passengerID string, names []string, createdBy string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM infants WHERE passenger_id = $1`, passengerID); err != nil {
		return err
	}
	for _, name := range cleanInfantNames(names) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO infants (passenger_id, user_id, name, created_by)
			VALUES ($1, $2, $3, $4)`, passengerID, scope, name, createdBy); err != nil {
			return err
		}
	}
	return nil
}

func cleanInfantNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, name)
		if len(out) == MaxInfants {
			break
		}
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlight(row rowScanner) (Flight, error) {
	var (
		f         Flight
		date      pgtype.Date
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&f.ID, &f.UUID, &f.Airline, &f.FlightNumber, &date, &f.Route, &f.CreatedBy, &createdAt); err != nil {
		return Flight{}, err
	}
	if date.Valid {
		f.Date = date.Time
	}
	if createdAt.Valid {
		f.CreatedAt = createdAt.Time
	}
	return f, nil
}

func scanPassenger(row rowScanner) (Passenger, error) {
	var (
		p           Passenger
		ticketPrice pgtype.Numeric
		tax         pgtype.Numeric
		surcharge   pgtype.Numeric
		totalPrice  pgtype.Numeric
		dateOfIssue pgtype.Date
		updatedBy   pgtype.Text
	)
	if err := row.Scan(&p.ID, &p.FlightID, &p.Name, &p.Type, &p.Gender, &p.PhoneNumber,
		&p.Agency, &p.FlightNumber, &p.BookingReference,
		&ticketPrice, &tax, &surcharge, &totalPrice, &dateOfIssue, &p.CreatedBy, &updatedBy); err != nil {
		return Passenger{}, err
	}
	p.TicketPrice = numericFloat(ticketPrice)
	p.Tax = numericFloat(tax)
	p.Surcharge = numericFloat(surcharge)
	p.TotalPrice = numericFloat(totalPrice)
	if dateOfIssue.Valid {
		p.DateOfIssue = dateOfIssue.Time
	}
	if updatedBy.Valid {
		v := updatedBy.String
		p.UpdatedBy = &v
	}
	return p, nil
}

func numericFloat(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, err := n.Float64Value()
	if err != nil {
		return 0
	}
	return f.Float64
}
