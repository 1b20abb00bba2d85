package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/areys-travel/areys/internal/audit"
)

type memoryInserter struct {
	entries []audit.Entry
	err     error
}

func (m *memoryInserter) Insert(ctx context.Context, entry audit.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestActivityLogJobInserts(t *testing.T) {
	inserter := &memoryInserter{}
	job := NewActivityLogJob(inserter, testLogger())

	payload, err := json.Marshal(audit.Entry{
		AccountID:  "owner-x",
		ActorID:    "agent-1",
		ActionType: audit.ActionCreate,
		EntityType: "flight",
		EntityID:   "F1",
	})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(audit.TaskTypeActivityLog, payload))
	require.NoError(t, err)
	require.Len(t, inserter.entries, 1)
	require.Equal(t, "flight", inserter.entries[0].EntityType)
}

func TestActivityLogJobDropsMalformedPayload(t *testing.T) {
	inserter := &memoryInserter{}
	job := NewActivityLogJob(inserter, testLogger())

	err := job.Handle(context.Background(), asynq.NewTask(audit.TaskTypeActivityLog, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, inserter.entries)
}

func TestActivityLogJobPropagatesInsertFailureForRetry(t *testing.T) {
	boom := errors.New("db down")
	inserter := &memoryInserter{err: boom}
	job := NewActivityLogJob(inserter, testLogger())

	payload, err := json.Marshal(audit.Entry{ActionType: audit.ActionDelete, EntityType: "flight"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(audit.TaskTypeActivityLog, payload))
	require.ErrorIs(t, err, boom)
}
