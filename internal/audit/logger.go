package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskTypeActivityLog is the asynq task type for activity-log writes.
const TaskTypeActivityLog = "audit:activity_log"

// Logger enqueues activity-log entries for the background worker.
// Recording is best effort: every failure is reduced to a diagnostic
// log line and never reaches the caller.
type Logger struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewLogger constructs a Logger.
func NewLogger(client *asynq.Client, logger *slog.Logger) *Logger {
	return &Logger{client: client, logger: logger}
}

// Record enqueues the entry. Failures are swallowed after a diagnostic.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	if l == nil || l.client == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		l.logger.Warn("activity log marshal failed", slog.Any("error", err))
		return
	}
	task := asynq.NewTask(TaskTypeActivityLog, payload)
	if _, err := l.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		l.logger.Warn("activity log enqueue failed",
			slog.String("entity", entry.EntityType),
			slog.String("action", entry.ActionType),
			slog.Any("error", err))
	}
}
