package agencies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/shared"
)

// Repository provides scoped access to agencies.
type Repository interface {
	ListAgencies(ctx context.Context, scope string) ([]Agency, error)
	Create(ctx context.Context, scope string, a Agency) (Agency, error)
	Update(ctx context.Context, scope string, id int64, a Agency) (Agency, error)
	Delete(ctx context.Context, scope string, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by postgres.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const agencyColumns = `id, name, COALESCE(phone, ''), COALESCE(manager_name, ''),
	COALESCE(manager_phone, ''), updated_at, updated_by`

func (r *repository) ListAgencies(ctx context.Context, scope string) ([]Agency, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE user_id = $1 ORDER BY name`, scope)
	if err != nil {
		return nil, shared.TranslatePG("agencies: list", err)
	}
	defer rows.Close()

	var out []Agency
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, scope string, a Agency) (Agency, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agencies (user_id, name, phone, manager_name, manager_phone, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+agencyColumns,
		scope, a.Name, a.Phone, a.ManagerName, a.ManagerPhone, a.UpdatedBy)
	created, err := scanAgency(row)
	if err != nil {
		return Agency{}, shared.TranslatePG("agencies: create", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, scope string, id int64, a Agency) (Agency, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agencies SET name = $3, phone = $4, manager_name = $5, manager_phone = $6,
			updated_at = now(), updated_by = $7
		WHERE id = $1 AND user_id = $2
		RETURNING `+agencyColumns,
		id, scope, a.Name, a.Phone, a.ManagerName, a.ManagerPhone, a.UpdatedBy)
	updated, err := scanAgency(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agency{}, shared.ErrNotFound
		}
		return Agency{}, shared.TranslatePG("agencies: update", err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, scope string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agencies WHERE id = $1 AND user_id = $2`, id, scope)
	if err != nil {
		return shared.TranslatePG("agencies: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgency(row rowScanner) (Agency, error) {
	var (
		a         Agency
		updatedAt pgtype.Timestamptz
		updatedBy pgtype.Text
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.ManagerName, &a.ManagerPhone, &updatedAt, &updatedBy); err != nil {
		return Agency{}, err
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
