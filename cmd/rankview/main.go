package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"realtime-rank/config"
	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
	"realtime-rank/internal/services/cui"
)

func main() {
	endpoint := flag.String("endpoint", "", "base URL of a running rank service (default: derived from http.address)")
	cfg := config.MustLoad()

	// The terminal belongs to the UI.
	log := logger.FileOnly(cfg.Env, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	base := *endpoint
	if base == "" {
		base = endpointFromAddress(cfg.HTTP.Address)
	}

	view, err := cui.New(context.Background(), log, cui.NewHTTPSource(base, 5*time.Second))
	if err != nil {
		log.Error("failed to create terminal ui", sl.Err(err))
		os.Exit(1)
	}

	if err := view.Start(); err != nil {
		log.Error("terminal ui stopped", sl.Err(err))
		os.Exit(1)
	}
}

func endpointFromAddress(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
