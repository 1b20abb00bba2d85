package airlines

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/shared"
)

// Repository provides scoped access to airline configurations.
type Repository interface {
	ListAirlines(ctx context.Context, scope string) ([]Airline, error)
	Create(ctx context.Context, scope string, a Airline) (Airline, error)
	Update(ctx context.Context, scope string, id int64, a Airline) (Airline, error)
	Delete(ctx context.Context, scope string, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by postgres.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const airlineColumns = `id, name, COALESCE(ticket_template, ''), COALESCE(manifest_template, ''),
	COALESCE(manifest_us, ''), COALESCE(manifest_airport, ''),
	COALESCE(default_booking_reference, ''), COALESCE(default_flight_number, ''),
	adult_price, child_price, infant_price, tax, surcharge, updated_at, updated_by`

func (r *repository) ListAirlines(ctx context.Context, scope string) ([]Airline, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+airlineColumns+` FROM airlines WHERE user_id = $1 ORDER BY name`, scope)
	if err != nil {
		return nil, shared.TranslatePG("airlines: list", err)
	}
	defer rows.Close()

	var out []Airline
	for rows.Next() {
		a, err := scanAirline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, scope string, a Airline) (Airline, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO airlines (user_id, name, ticket_template, manifest_template, manifest_us,
			manifest_airport, default_booking_reference, default_flight_number,
			adult_price, child_price, infant_price, tax, surcharge, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+airlineColumns,
		scope, a.Name, a.TicketTemplate, a.ManifestTemplate, a.ManifestUS,
		a.ManifestAirport, a.DefaultBookingReference, a.DefaultFlightNumber,
		a.AdultPrice, a.ChildPrice, a.InfantPrice, a.Tax, a.Surcharge, a.UpdatedBy)
	created, err := scanAirline(row)
	if err != nil {
		return Airline{}, shared.TranslatePG("airlines: create", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, scope string, id int64, a Airline) (Airline, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE airlines SET name = $3, ticket_template = $4, manifest_template = $5,
			manifest_us = $6, manifest_airport = $7, default_booking_reference = $8,
			default_flight_number = $9, adult_price = $10, child_price = $11,
			infant_price = $12, tax = $13, surcharge = $14, updated_at = now(), updated_by = $15
		WHERE id = $1 AND user_id = $2
		RETURNING `+airlineColumns,
		id, scope, a.Name, a.TicketTemplate, a.ManifestTemplate,
		a.ManifestUS, a.ManifestAirport, a.DefaultBookingReference,
		a.DefaultFlightNumber, a.AdultPrice, a.ChildPrice,
		a.InfantPrice, a.Tax, a.Surcharge, a.UpdatedBy)
	updated, err := scanAirline(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Airline{}, shared.ErrNotFound
		}
		return Airline{}, shared.TranslatePG("airlines: update", err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, scope string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM airlines WHERE id = $1 AND user_id = $2`, id, scope)
	if err != nil {
		return shared.TranslatePG("airlines: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAirline(row rowScanner) (Airline, error) {
	var (
		a         Airline
		updatedAt pgtype.Timestamptz
		updatedBy pgtype.Text
	)
	if err := row.Scan(&a.ID, &a.Name, &a.TicketTemplate, &a.ManifestTemplate,
		&a.ManifestUS, &a.ManifestAirport, &a.DefaultBookingReference, &a.DefaultFlightNumber,
		&a.AdultPrice, &a.ChildPrice, &a.InfantPrice, &a.Tax, &a.Surcharge,
		&updatedAt, &updatedBy); err != nil {
		return Airline{}, err
	}
	if updatedAt.Valid {
		a.UpdatedAt = updatedAt.Time
	}
	if updatedBy.Valid {
		v := updatedBy.String
		a.UpdatedBy = &v
	}
	return a, nil
}
