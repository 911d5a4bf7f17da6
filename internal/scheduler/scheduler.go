package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
	"realtime-rank/internal/services/cycle"
)

const DefaultSpec = "*/10 * * * *"

type CycleRunner interface {
	Run(ctx context.Context) (*cycle.Report, error)
}

// Scheduler runs ranking cycles on a cron spec evaluated in a fixed location.
type Scheduler struct {
	log      *slog.Logger
	cron     *cron.Cron
	location *time.Location
	mu       sync.Mutex
	entryID  cron.EntryID
	started  bool
}

func New(log *slog.Logger, loc *time.Location) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		log: log,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{log: log})),
		),
		location: loc,
	}
}

// Schedule installs fn under spec, replacing whatever was scheduled before.
func (s *Scheduler) Schedule(spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = entryID

	return nil
}

// ScheduleCycles runs runner on spec. ctx bounds every triggered cycle.
func (s *Scheduler) ScheduleCycles(ctx context.Context, spec string, runner CycleRunner) error {
	return s.Schedule(spec, func() {
		report, err := runner.Run(ctx)
		switch {
		case errors.Is(err, cycle.ErrCycleInProgress):
			s.log.Warn("scheduled cycle skipped", sl.Err(err))
		case err != nil:
			s.log.Error("scheduled cycle failed", sl.Err(err))
		case report.NoData:
			s.log.Info("scheduled cycle found no keywords")
		default:
			s.log.Info("scheduled cycle done",
				slog.Int("ranked", len(report.Entries)),
				slog.String("last_updated", report.LastUpdated),
			)
		}
	})
}

// Next returns the next activation time, or the zero time when nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{sl.Err(err)}, keysAndValues...)...)
}
