package perms

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/shared"
)

// Repository stores role definitions. The role catalog is global, not
// scoped to an account.
type Repository interface {
	List(ctx context.Context) ([]RoleDefinition, error)
	Create(ctx context.Context, role string, permissions Matrix) (RoleDefinition, error)
	UpdatePermissions(ctx context.Context, id int64, permissions Matrix) (RoleDefinition, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by postgres.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]RoleDefinition, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, role, permissions, created_at, updated_at FROM role_permissions ORDER BY role`)
	if err != nil {
		return nil, shared.TranslatePG("perms: list roles", err)
	}
	defer rows.Close()

	var defs []RoleDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (r *repository) Create(ctx context.Context, role string, permissions Matrix) (RoleDefinition, error) {
	data, err := json.Marshal(permissions)
	if err != nil {
		return RoleDefinition{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO role_permissions (role, permissions)
		VALUES ($1, $2)
		RETURNING id, role, permissions, created_at, updated_at`, role, data)
	def, err := scanDefinition(row)
	if err != nil {
		return RoleDefinition{}, shared.TranslatePG("perms: create role", err)
	}
	return def, nil
}

func (r *repository) UpdatePermissions(ctx context.Context, id int64, permissions Matrix) (RoleDefinition, error) {
	data, err := json.Marshal(permissions)
	if err != nil {
		return RoleDefinition{}, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE role_permissions SET permissions = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, role, permissions, created_at, updated_at`, id, data)
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleDefinition{}, shared.ErrNotFound
		}
		return RoleDefinition{}, shared.TranslatePG("perms: update role", err)
	}
	return def, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (RoleDefinition, error) {
	var (
		def       RoleDefinition
		raw       []byte
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&def.ID, &def.Role, &raw, &createdAt, &updatedAt); err != nil {
		return RoleDefinition{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &def.Permissions); err != nil {
			return RoleDefinition{}, err
		}
	}
	if createdAt.Valid {
		def.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		def.UpdatedAt = updatedAt.Time
	}
	return def, nil
}
