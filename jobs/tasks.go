// Package jobs runs the background task queue. The only durable task
// today is the activity-log write enqueued by the mutation services.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/areys-travel/areys/internal/audit"
)

// QueueDefault is the default queue name for background jobs.
const QueueDefault = "default"

// ActivityInserter persists a log entry. Implemented by audit.Recorder.
type ActivityInserter interface {
	Insert(ctx context.Context, entry audit.Entry) error
}

// ActivityLogJob drains activity-log tasks into postgres.
type ActivityLogJob struct {
	inserter ActivityInserter
	logger   *slog.Logger
}

// NewActivityLogJob constructs the job.
func NewActivityLogJob(inserter ActivityInserter, logger *slog.Logger) *ActivityLogJob {
	return &ActivityLogJob{inserter: inserter, logger: logger}
}

// Handle processes one audit.TaskTypeActivityLog task. A payload that
// cannot be decoded is dropped rather than retried; insert failures are
// retried by the queue.
func (j *ActivityLogJob) Handle(ctx context.Context, t *asynq.Task) error {
	var entry audit.Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		j.logger.Warn("activity log payload malformed", slog.Any("error", err))
		return asynq.SkipRetry
	}
	if err := j.inserter.Insert(ctx, entry); err != nil {
		j.logger.Warn("activity log insert failed",
			slog.String("entity", entry.EntityType),
			slog.Any("error", err))
		return err
	}
	return nil
}
