package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/shared"
)

// Repository provides access to actor records.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Actor, string, error)
	FindByID(ctx context.Context, id string) (*Actor, error)
	Create(ctx context.Context, actor Actor, passwordHash string) error
	InsertManagedUser(ctx context.Context, ownerID string, actor Actor) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id, name string, agencyName *string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by postgres.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const actorColumns = `user_id, email, COALESCE(name, ''), role, active, created_by, agency_name, created_at, updated_at`

func (r *repository) FindByEmail(ctx context.Context, email string) (*Actor, string, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+actorColumns+`, password_hash FROM user_roles WHERE email = $1`, email)
	actor, hash, err := scanActorWithHash(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", shared.ErrNotFound
		}
		return nil, "", err
	}
	return actor, hash, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Actor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM user_roles WHERE user_id = $1`, id)
	actor, err := scanActor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return actor, nil
}

func (r *repository) Create(ctx context.Context, actor Actor, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, email, name, role, active, created_by, agency_name, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		actor.ID, actor.Email, actor.Name, actor.Role, actor.Active, actor.CreatedBy, actor.AgencyName, passwordHash)
	return shared.TranslatePG("auth: create actor", err)
}

func (r *repository) InsertManagedUser(ctx context.Context, ownerID string, actor Actor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO managed_users (user_id, managed_user_id, name, email, role, active, agency_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ownerID, actor.ID, actor.Name, actor.Email, actor.Role, actor.Active, actor.AgencyName)
	return shared.TranslatePG("auth: insert managed user", err)
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_roles SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`, id, passwordHash)
	if err != nil {
		return shared.TranslatePG("auth: update password", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateProfile(ctx context.Context, id, name string, agencyName *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_roles SET name = $2, agency_name = COALESCE($3, agency_name), updated_at = NOW() WHERE user_id = $1`, id, name, agencyName)
	if err != nil {
		return shared.TranslatePG("auth: update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*Actor, error) {
	var (
		a          Actor
		createdBy  pgtype.Text
		agencyName pgtype.Text
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.Active, &createdBy, &agencyName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	applyActorNullables(&a, createdBy, agencyName, createdAt, updatedAt)
	return &a, nil
}

func scanActorWithHash(row rowScanner) (*Actor, string, error) {
	var (
		a          Actor
		createdBy  pgtype.Text
		agencyName pgtype.Text
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
		hash       string
	)
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.Active, &createdBy, &agencyName, &createdAt, &updatedAt, &hash); err != nil {
		return nil, "", err
	}
	applyActorNullables(&a, createdBy, agencyName, createdAt, updatedAt)
	return &a, hash, nil
}

func applyActorNullables(a *Actor, createdBy, agencyName pgtype.Text, createdAt, updatedAt pgtype.Timestamptz) {
	if createdBy.Valid {
		v := createdBy.String
		a.CreatedBy = &v
	}
	if agencyName.Valid {
		v := agencyName.String
		a.AgencyName = &v
	}
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		a.UpdatedAt = updatedAt.Time
	}
}
