package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"realtime-rank/config"
	"realtime-rank/internal/lib/logger/sl"
	"realtime-rank/internal/scheduler"
	"realtime-rank/internal/services/crawler"
	"realtime-rank/internal/services/cycle"
	"realtime-rank/internal/services/tagger"
	"realtime-rank/internal/services/trend"
	"realtime-rank/internal/transport/httpapi"
	"realtime-rank/internal/utils/metrics"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	log        *slog.Logger
	cfg        *config.Config
	Runner     *cycle.Runner
	Scheduler  *scheduler.Scheduler
	StorageApp *StorageApp
	server     *http.Server
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	loc := cfg.Location()

	storageApp, err := NewStorageApp(ctx, cfg.Storage, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("storage initialised", slog.String("backend", storageApp.Backend()))

	opts := trend.DefaultOptions()
	opts.Location = loc
	opts.MaxEntries = cfg.Ranking.MaxEntries
	opts.JaccardThreshold = cfg.Ranking.JaccardThreshold
	if len(cfg.Ranking.BreakingMarkers) > 0 {
		opts.BreakingMarkers = cfg.Ranking.BreakingMarkers
	}
	opts.Stopwords = trend.MergeStopwords(trend.DefaultStopwords, cfg.Ranking.Stopwords)
	engine := trend.New(log, opts)

	source := crawler.New(log, crawler.Options{
		RankingURL: cfg.Crawler.RankingURL,
		UserAgent:  cfg.Crawler.UserAgent,
		Timeout:    cfg.Crawler.Timeout,
		Workers:    cfg.Crawler.Workers,
		Location:   loc,
	}, nil)

	// A nil *sqlite.Storage must not become a non-nil interface.
	var audit cycle.AuditStore
	var auditReader httpapi.AuditReader
	if a := storageApp.Audit(); a != nil {
		audit, auditReader = a, a
	}

	m := metrics.New()
	runner := cycle.New(log, engine, tagger.New(cfg.Ranking.ProperNouns), source, storageApp.Store(), audit, m, cycle.Options{
		Location:         loc,
		HistoryWindow:    cfg.Ranking.HistoryWindow,
		HistoryLag:       cfg.Ranking.HistoryLag,
		HistoryRetention: cfg.Ranking.HistoryRetention,
	})

	api := httpapi.New(log, storageApp.Store(), runner, auditReader, m, cfg.HTTP.CronSecret)
	if cfg.HTTP.CronSecret == "" {
		log.Warn("cron secret is not set, /api/cron will reject every request")
	}

	return &App{
		log:        log,
		cfg:        cfg,
		Runner:     runner,
		Scheduler:  scheduler.New(log, loc),
		StorageApp: storageApp,
		server: &http.Server{
			Addr:         cfg.HTTP.Address,
			Handler:      api.Handler(),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
	}, nil
}

// Start arms the scheduler (when enabled) and serves HTTP in the background.
// ctx bounds scheduled cycles.
func (a *App) Start(ctx context.Context) error {
	const op = "app.App.Start"

	if a.cfg.Schedule.Enabled {
		if err := a.Scheduler.ScheduleCycles(ctx, a.cfg.Schedule.Cron, a.Runner); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		a.Scheduler.Start()
		a.log.Info("scheduler started",
			slog.String("spec", a.cfg.Schedule.Cron),
			slog.Time("next", a.Scheduler.Next()),
		)
	}

	go func() {
		a.log.Info("http server started", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server stopped", sl.Err(err))
		}
	}()

	return nil
}

// Stop shuts down HTTP, waits for a running cycle and closes the stores.
func (a *App) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	a.Scheduler.Stop()
	if err := a.StorageApp.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
