package audit

import (
	"context"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRecordSwallowsEnqueueFailure(t *testing.T) {
	// Nothing listens on this address, so every enqueue fails.
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"})
	defer func() { _ = client.Close() }()

	l := NewLogger(client, testLogger())
	require.NotPanics(t, func() {
		l.Record(context.Background(), Entry{
			AccountID:   "owner-x",
			ActorID:     "agent-1",
			ActionType:  ActionCreate,
			EntityType:  "flight",
			EntityID:    "F1",
			Description: "Added flight D3 152",
		})
	})
}

func TestRecordWithoutClientIsSilent(t *testing.T) {
	var l *Logger
	l.Record(context.Background(), Entry{})

	l = NewLogger(nil, testLogger())
	l.Record(context.Background(), Entry{})
}

func TestDiffCapturesChangedFields(t *testing.T) {
	type row struct {
		Name  string `json:"name"`
		Route string `json:"route"`
	}
	d := Diff(row{Name: "a", Route: "MGQ-JIB"}, row{Name: "a", Route: "MGQ-DXB"})
	require.NotNil(t, d)
	require.Contains(t, d, "before")
	require.Contains(t, d, "after")
}
