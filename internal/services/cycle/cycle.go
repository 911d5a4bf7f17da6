// Package cycle runs one crawl-rank-persist round at a time.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"realtime-rank/internal/domain/models"
	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
	"realtime-rank/internal/services/crawler"
	"realtime-rank/internal/services/trend"
	utils "realtime-rank/internal/utils"
	"realtime-rank/internal/utils/metrics"
)

const (
	DefaultHistoryWindow    = 25 * time.Minute
	DefaultHistoryLag       = 5 * time.Minute
	DefaultHistoryRetention = 24 * time.Hour
)

var ErrCycleInProgress = errors.New("ranking cycle already in progress")

type ArticleSource interface {
	Crawl(ctx context.Context) ([]models.Article, error)
}

type HistoryStore interface {
	AppendFrequencies(ctx context.Context, at time.Time, freq map[string]int) error
	Baseline(ctx context.Context, from, to time.Time) (models.Baseline, error)
}

type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
}

// Store is the external store holding both the history log and the snapshot.
type Store interface {
	HistoryStore
	SnapshotStore
}

type AuditStore interface {
	ReplaceScoredArticles(ctx context.Context, rows []models.ScoredArticle) error
}

// pruner is implemented by stores that can drop old history rows.
type pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}

type Options struct {
	Location         *time.Location
	HistoryWindow    time.Duration
	HistoryLag       time.Duration
	HistoryRetention time.Duration
	Now              func() time.Time
}

type Runner struct {
	log     *slog.Logger
	engine  *trend.Engine
	tagger  trend.Tagger
	source  ArticleSource
	store   Store
	audit   AuditStore
	metrics *metrics.Metrics
	opts    Options

	mu sync.Mutex
}

type Report struct {
	Entries     []models.RankedEntry `json:"rankings"`
	LastUpdated string               `json:"last_updated"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Stats       trend.Stats          `json:"stats"`
	NoData      bool                 `json:"no_data"`
	Timings     map[string]string    `json:"timings"`
}

// New wires a runner. audit may be nil.
func New(
	log *slog.Logger,
	engine *trend.Engine,
	tagger trend.Tagger,
	source ArticleSource,
	store Store,
	audit AuditStore,
	m *metrics.Metrics,
	opts Options,
) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.HistoryLag <= 0 {
		opts.HistoryLag = DefaultHistoryLag
	}
	if opts.HistoryRetention <= 0 {
		opts.HistoryRetention = DefaultHistoryRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		log:     log,
		engine:  engine,
		tagger:  tagger,
		source:  source,
		store:   store,
		audit:   audit,
		metrics: m,
		opts:    opts,
	}
}

func (r *Runner) Metrics() *metrics.Metrics {
	return r.metrics
}

// Run executes one cycle. A second call while one is running fails fast with
// ErrCycleInProgress. When persistence fails the report is still returned with the error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	const op = "cycle.Runner.Run"

	if !r.mu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer r.mu.Unlock()

	log := r.log.With(slog.String("op", op))
	started := time.Now()
	now := r.opts.Now()
	timings := make(map[string]string)

	previous := r.loadPrevious(ctx, log)

	step := time.Now()
	articles, err := r.source.Crawl(ctx)
	switch {
	case errors.Is(err, crawler.ErrNoArticles):
		log.Warn("ranking page had no articles")
	case err != nil:
		r.metrics.RecordFailure(time.Since(started))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	timings["crawl"] = utils.FormatDuration(time.Since(step))

	baseline := r.loadBaseline(ctx, log, now)

	step = time.Now()
	in := trend.Input{
		Articles: articles,
		Tagger:   r.tagger,
		Baseline: baseline,
		Previous: previous,
		Now:      now,
	}
	res, err := r.engine.Rank(in)
	if errors.Is(err, trend.ErrInvalidSnapshot) {
		// The stored snapshot is replaced below, so later cycles see valid ranks again.
		log.Error("stored snapshot rejected, ranking as if every keyword were new", sl.Err(err))
		in.Previous = models.PreviousSnapshot{}
		res, err = r.engine.Rank(in)
	}
	if err != nil {
		r.metrics.RecordFailure(time.Since(started))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	timings["rank"] = utils.FormatDuration(time.Since(step))

	log.Info("cycle ranked",
		slog.Int("crawled", res.Stats.Crawled),
		slog.Int("missing_id", res.Stats.MissingID),
		slog.Int("tagging_failures", res.Stats.TaggingFailures),
		slog.Int("keywords", res.Stats.Keywords),
		slog.Int("duplicates", res.Stats.Duplicates),
		slog.Int("ranked", res.Stats.Ranked),
	)

	report := &Report{
		Entries:     res.Entries,
		LastUpdated: FormatLastUpdated(res.UpdatedAt, r.opts.Location),
		UpdatedAt:   res.UpdatedAt,
		Stats:       res.Stats,
		NoData:      res.Stats.Empty(),
		Timings:     timings,
	}

	step = time.Now()
	persistErr := r.persist(ctx, log, res, report)
	timings["persist"] = utils.FormatDuration(time.Since(step))
	timings["total"] = utils.FormatDuration(time.Since(started))

	if persistErr != nil {
		r.metrics.RecordFailure(time.Since(started))
		return report, fmt.Errorf("%s: %w", op, persistErr)
	}

	r.metrics.RecordSuccess(time.Since(started), res.Stats.Ranked)
	r.metrics.PrintMetrics(log)

	return report, nil
}

func (r *Runner) loadPrevious(ctx context.Context, log *slog.Logger) models.PreviousSnapshot {
	snap, err := r.store.LoadSnapshot(ctx)
	if err != nil {
		log.Warn("previous snapshot unavailable, every keyword is new", sl.Err(err))
		return models.PreviousSnapshot{}
	}
	return snap.Ranks()
}

// loadBaseline reads the history window [now-lag-window, now-lag).
func (r *Runner) loadBaseline(ctx context.Context, log *slog.Logger, now time.Time) models.Baseline {
	to := now.Add(-r.opts.HistoryLag)
	from := to.Add(-r.opts.HistoryWindow)

	baseline, err := r.store.Baseline(ctx, from, to)
	if err != nil {
		log.Warn("history unavailable, baseline treated as empty", sl.Err(err))
		return models.Baseline{}
	}
	return baseline
}

func (r *Runner) persist(ctx context.Context, log *slog.Logger, res *trend.Result, report *Report) error {
	var errs []error

	if r.audit != nil {
		if err := r.audit.ReplaceScoredArticles(ctx, res.Scored); err != nil {
			errs = append(errs, err)
		}
	}

	if report.NoData {
		log.Info("no keywords to analyze, previous snapshot kept")
	} else {
		snap := &models.Snapshot{
			Entries:     res.Entries,
			UpdatedAt:   res.UpdatedAt,
			LastUpdated: report.LastUpdated,
		}
		if err := r.store.SaveSnapshot(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.store.AppendFrequencies(ctx, res.UpdatedAt, res.Frequencies); err != nil {
		errs = append(errs, err)
	}

	if p, ok := r.store.(pruner); ok {
		removed, err := p.Prune(ctx, res.UpdatedAt.Add(-r.opts.HistoryRetention))
		if err != nil {
			log.Warn("history prune failed", sl.Err(err))
		} else if removed > 0 {
			log.Debug("history pruned", slog.Int("removed", removed))
		}
	}

	return errors.Join(errs...)
}

// FormatLastUpdated renders t in loc as e.g. "10월 15일, 오후 3:04 업데이트됨".
func FormatLastUpdated(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}

	meridiem := "오전"
	if t.Hour() >= 12 {
		meridiem = "오후"
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}

	return fmt.Sprintf("%d월 %d일, %s %d:%02d 업데이트됨", int(t.Month()), t.Day(), meridiem, hour, t.Minute())
}
