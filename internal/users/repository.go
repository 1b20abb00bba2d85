package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/shared"
)

// Repository provides access to an account's staff listing and the
// actor rows backing it.
type Repository interface {
	ListManagedUsers(ctx context.Context, scope string) ([]ManagedUser, error)
	ListAccountActors(ctx context.Context, scope string) ([]ManagedUser, error)
	UpdateManagedUser(ctx context.Context, scope, managedUserID, name, role string, agencyName *string) (ManagedUser, error)
	SyncActorProfile(ctx context.Context, managedUserID, name, role string, agencyName *string) error
	SetActive(ctx context.Context, scope, managedUserID string, active bool) (ManagedUser, error)
	SyncActorActive(ctx context.Context, managedUserID string, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by postgres.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const managedColumns = `id, managed_user_id, COALESCE(name, ''), COALESCE(email, ''), role, active, agency_name`

func (r *repository) ListManagedUsers(ctx context.Context, scope string) ([]ManagedUser, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+managedColumns+` FROM managed_users WHERE user_id = $1 ORDER BY id`, scope)
	if err != nil {
		return nil, shared.TranslatePG("users: list managed", err)
	}
	defer rows.Close()

	var out []ManagedUser
	for rows.Next() {
		u, err := scanManagedUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListAccountActors returns the account owner and staff as they appear
// in the role table, for display-name resolution.
func (r *repository) ListAccountActors(ctx context.Context, scope string) ([]ManagedUser, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT 0, user_id, COALESCE(name, ''), email, role, active, agency_name
		FROM user_roles WHERE user_id = $1 OR created_by = $1`, scope)
	if err != nil {
		return nil, shared.TranslatePG("users: list actors", err)
	}
	defer rows.Close()

	var out []ManagedUser
	for rows.Next() {
		u, err := scanManagedUser(rows)
		if err != nil {
			return nil, err
		}
		u.IsAccountUser = true
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repository) UpdateManagedUser(ctx context.Context, scope, managedUserID, name, role string, agencyName *string) (ManagedUser, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE managed_users SET name = $3, role = $4, agency_name = COALESCE($5, agency_name)
		WHERE user_id = $1 AND managed_user_id = $2
		RETURNING `+managedColumns,
		scope, managedUserID, name, role, agencyName)
	updated, err := scanManagedUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ManagedUser{}, shared.ErrNotFound
		}
		return ManagedUser{}, shared.TranslatePG("users: update managed", err)
	}
	return updated, nil
}

// SyncActorProfile mirrors an edited listing row onto the actor row.
func (r *repository) SyncActorProfile(ctx context.Context, managedUserID, name, role string, agencyName *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_roles SET name = $2, role = $3, agency_name = COALESCE($4, agency_name), updated_at = NOW()
		WHERE user_id = $1`,
		managedUserID, name, role, agencyName)
	if err != nil {
		return shared.TranslatePG("users: sync actor profile", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, scope, managedUserID string, active bool) (ManagedUser, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE managed_users SET active = $3
		WHERE user_id = $1 AND managed_user_id = $2
		RETURNING `+managedColumns,
		scope, managedUserID, active)
	updated, err := scanManagedUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ManagedUser{}, shared.ErrNotFound
		}
		return ManagedUser{}, shared.TranslatePG("users: set active", err)
	}
	return updated, nil
}

// SyncActorActive mirrors the active flag onto the actor row so the
// next sign-in attempt sees it.
func (r *repository) SyncActorActive(ctx context.Context, managedUserID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_roles SET active = $2, updated_at = NOW() WHERE user_id = $1`, managedUserID, active)
	if err != nil {
		return shared.TranslatePG("users: sync actor", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManagedUser(row rowScanner) (ManagedUser, error) {
	var (
		u          ManagedUser
		agencyName pgtype.Text
	)
	if err := row.Scan(&u.ID, &u.ManagedUserID, &u.Name, &u.Email, &u.Role, &u.Active, &agencyName); err != nil {
		return ManagedUser{}, err
	}
	if agencyName.Valid {
		v := agencyName.String
		u.AgencyName = &v
	}
	return u, nil
}
