package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"realtime-rank/config"
	"realtime-rank/internal/app"
	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
)

func main() {
	once := flag.Bool("once", false, "run a single ranking cycle, print the report and exit")
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	log.Info("realtime-rank", "env", cfg.Env, "timezone", cfg.Timezone)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	application, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("failed to initialise", sl.Err(err))
		os.Exit(1)
	}

	if *once {
		os.Exit(runOnce(ctx, application))
	}

	if err := application.Start(ctx); err != nil {
		log.Error("failed to start", sl.Err(err))
		_ = application.Stop()
		os.Exit(1)
	}

	// Waiting for SIGINT (pkill -2) or SIGTERM
	<-ctx.Done()

	if err := application.Stop(); err != nil {
		log.Error("failed to stop cleanly", sl.Err(err))
	}
	log.Info("Gracefully stopped")
}

func runOnce(ctx context.Context, application *app.App) int {
	defer func() { _ = application.Stop() }()

	report, err := application.Runner.Run(ctx)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}
	if err != nil || report == nil || report.NoData {
		return 1
	}
	return 0
}
