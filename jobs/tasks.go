// Package jobs defines the background tasks and the Asynq worker that runs
// them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge removes expired session rows from postgres.
	TaskSessionPurge = "session:purge_expired"
	// TaskMediaSweep removes uploads no picture post references.
	TaskMediaSweep = "media:sweep_orphans"
)

// SessionPurger deletes expired session rows.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// MediaSweeper removes orphaned uploads older than the retention window.
type MediaSweeper interface {
	SweepOrphans(ctx context.Context, retention time.Duration) (int, error)
}

// NewSessionPurgeTask constructs the session purge task.
func NewSessionPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionPurge, nil)
}

// MediaSweepPayload carries the retention window for the orphan sweep.
type MediaSweepPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewMediaSweepTask constructs the media sweep task.
func NewMediaSweepTask(payload MediaSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMediaSweep, data), nil
}

// HandleSessionPurge returns the handler for TaskSessionPurge.
func HandleSessionPurge(sessions SessionPurger, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskSessionPurge)
		purged, err := sessions.PurgeExpiredSessions(ctx, time.Now().UTC())
		if err != nil {
			if logger != nil {
				logger.Error("purge expired sessions", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		metrics.AddSwept(TaskSessionPurge, int(purged))
		if logger != nil {
			logger.Info("purged expired sessions", slog.Int64("count", purged))
		}
		return tracker.End(nil)
	}
}

// HandleMediaSweep returns the handler for TaskMediaSweep.
func HandleMediaSweep(media MediaSweeper, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload MediaSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionHours <= 0 {
			payload.RetentionHours = 24
		}
		tracker := metrics.Track(TaskMediaSweep)
		swept, err := media.SweepOrphans(ctx, time.Duration(payload.RetentionHours)*time.Hour)
		if err != nil {
			if logger != nil {
				logger.Error("sweep orphaned media", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		metrics.AddSwept(TaskMediaSweep, swept)
		if logger != nil {
			logger.Info("swept orphaned media", slog.Int("count", swept))
		}
		return tracker.End(nil)
	}
}
