package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areys-travel/areys/internal/shared"
)

// Recorder persists activity-log entries and serves the review screen.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Insert writes one entry into activity_logs.
func (r *Recorder) Insert(ctx context.Context, entry Entry) error {
	if entry.ActionType == "" || entry.EntityType == "" {
		return errors.New("audit: entry requires action and entity type")
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	at := entry.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO activity_logs (user_id, action_type, entity_type, entity_id, description, details, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.AccountID, entry.ActionType, entry.EntityType, entry.EntityID, entry.Description, details, entry.ActorID, at)
	return shared.TranslatePG("audit: insert", err)
}

// List returns the newest entries for an account, most recent first.
func (r *Recorder) List(ctx context.Context, accountID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, action_type, entity_type, entity_id, description, details, created_by, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, shared.TranslatePG("audit: list", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			raw       []byte
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&e.AccountID, &e.ActionType, &e.EntityType, &e.EntityID, &e.Description, &raw, &e.ActorID, &createdAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &e.Details)
		}
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
