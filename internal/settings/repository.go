package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/shared"
)

// Repository provides access to the per-account settings row.
type Repository interface {
	GetSettings(ctx context.Context, scope string) (Settings, error)
	Upsert(ctx context.Context, scope string, s Settings) (Settings, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by postgres.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const settingsColumns = `adult_price, child_price, infant_price, tax, surcharge,
	COALESCE(agency_name, ''), COALESCE(agency_tagline, ''), updated_at, updated_by`

// GetSettings returns the account's settings row, or the defaults when
// no row exists yet.
func (r *repository) GetSettings(ctx context.Context, scope string) (Settings, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings WHERE user_id = $1`, scope)
	s, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Defaults(), nil
		}
		return Settings{}, shared.TranslatePG("settings: get", err)
	}
	return s, nil
}

func (r *repository) Upsert(ctx context.Context, scope string, s Settings) (Settings, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO settings (user_id, adult_price, child_price, infant_price, tax, surcharge,
			agency_name, agency_tagline, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			adult_price = EXCLUDED.adult_price, child_price = EXCLUDED.child_price,
			infant_price = EXCLUDED.infant_price, tax = EXCLUDED.tax,
			surcharge = EXCLUDED.surcharge, agency_name = EXCLUDED.agency_name,
			agency_tagline = EXCLUDED.agency_tagline, updated_at = now(),
			updated_by = EXCLUDED.updated_by
		RETURNING `+settingsColumns,
		scope, s.AdultPrice, s.ChildPrice, s.InfantPrice, s.Tax, s.Surcharge,
		s.AgencyName, s.AgencyTagline, s.UpdatedBy)
	saved, err := scanSettings(row)
	if err != nil {
		return Settings{}, shared.TranslatePG("settings: upsert", err)
	}
	return saved, nil
}

func scanSettings(row pgx.Row) (Settings, error) {
	var (
		s         Settings
		updatedAt pgtype.Timestamptz
		updatedBy pgtype.Text
	)
	if err := row.Scan(&s.AdultPrice, &s.ChildPrice, &s.InfantPrice, &s.Tax, &s.Surcharge,
		&s.AgencyName, &s.AgencyTagline, &updatedAt, &updatedBy); err != nil {
		return Settings{}, err
	}
	if updatedAt.Valid {
		s.UpdatedAt = updatedAt.Time
	}
	if updatedBy.Valid {
		v := updatedBy.String
		s.UpdatedBy = &v
	}
	return s, nil
}
