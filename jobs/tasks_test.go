package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
	"github.com/inkwell-blog/inkwell/jobs"
)

type fakePurger struct {
	purged int64
	err    error
	calls  int
}

func (f *fakePurger) PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	return f.purged, f.err
}

type fakeSweeper struct {
	retention time.Duration
	swept     int
	err       error
}

func (f *fakeSweeper) SweepOrphans(ctx context.Context, retention time.Duration) (int, error) {
	f.retention = retention
	return f.swept, f.err
}

func newJobMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func TestHandleSessionPurge(t *testing.T) {
	purger := &fakePurger{purged: 3}
	handler := jobs.HandleSessionPurge(purger, newJobMetrics(), nil)

	require.NoError(t, handler(t.Context(), jobs.NewSessionPurgeTask()))
	require.Equal(t, 1, purger.calls)
}

func TestHandleSessionPurgePropagatesError(t *testing.T) {
	purger := &fakePurger{err: errors.New("postgres down")}
	handler := jobs.HandleSessionPurge(purger, newJobMetrics(), nil)

	require.Error(t, handler(t.Context(), jobs.NewSessionPurgeTask()))
}

func TestHandleMediaSweep(t *testing.T) {
	sweeper := &fakeSweeper{swept: 2}
	handler := jobs.HandleMediaSweep(sweeper, newJobMetrics(), nil)

	task, err := jobs.NewMediaSweepTask(jobs.MediaSweepPayload{RetentionHours: 48})
	require.NoError(t, err)
	require.NoError(t, handler(t.Context(), task))
	require.Equal(t, 48*time.Hour, sweeper.retention)
}

func TestHandleMediaSweepDefaultsRetention(t *testing.T) {
	sweeper := &fakeSweeper{}
	handler := jobs.HandleMediaSweep(sweeper, newJobMetrics(), nil)

	task, err := jobs.NewMediaSweepTask(jobs.MediaSweepPayload{})
	require.NoError(t, err)
	require.NoError(t, handler(t.Context(), task))
	require.Equal(t, 24*time.Hour, sweeper.retention)
}

func TestHandleMediaSweepSkipsBadPayload(t *testing.T) {
	handler := jobs.HandleMediaSweep(&fakeSweeper{}, newJobMetrics(), nil)

	err := handler(t.Context(), asynq.NewTask(jobs.TaskMediaSweep, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
