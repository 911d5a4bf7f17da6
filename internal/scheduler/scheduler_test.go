package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/services/cycle"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(ctx context.Context) (*cycle.Report, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &cycle.Report{NoData: true}, nil
}

func TestSchedule_ReplacesEntry(t *testing.T) {
	s := New(logger.Discard(), time.UTC)
	defer s.Stop()

	require.NoError(t, s.Schedule("0 * * * *", func() {}))
	require.NoError(t, s.Schedule(DefaultSpec, func() {}))
	s.Start()

	assert.Len(t, s.cron.Entries(), 1)
	next := s.Next()
	assert.False(t, next.IsZero())
	assert.Zero(t, next.Minute()%10)
}

func TestSchedule_InvalidSpec(t *testing.T) {
	s := New(nil, nil)
	defer s.Stop()

	assert.Error(t, s.Schedule("every ten minutes", func() {}))
	assert.True(t, s.Next().IsZero())
}

func TestScheduleCycles_Runs(t *testing.T) {
	s := New(logger.Discard(), time.UTC)
	runner := &countingRunner{}

	require.NoError(t, s.ScheduleCycles(context.Background(), "@every 1s", runner))
	s.Start()

	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestScheduleCycles_InProgressIsTolerated(t *testing.T) {
	s := New(logger.Discard(), time.UTC)
	runner := &countingRunner{err: cycle.ErrCycleInProgress}

	require.NoError(t, s.ScheduleCycles(context.Background(), "@every 1s", runner))
	s.Start()

	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	s.Stop()
}
