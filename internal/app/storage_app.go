package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"realtime-rank/config"
	"realtime-rank/internal/services/cycle"
	"realtime-rank/internal/storage/leveldb"
	"realtime-rank/internal/storage/redis"
	"realtime-rank/internal/storage/sqlite"
)

// StorageApp owns the history/snapshot store and the article audit table.
type StorageApp struct {
	store   cycle.Store
	closer  io.Closer
	audit   *sqlite.Storage
	backend string
}

// NewStorageApp opens the configured stores. loc is the zone audit timestamps are read in.
func NewStorageApp(ctx context.Context, cfg config.StorageConfig, loc *time.Location) (*StorageApp, error) {
	const op = "app.NewStorageApp"

	s := &StorageApp{backend: cfg.Backend}

	switch cfg.Backend {
	case config.BackendRedis:
		storage, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			LogTTL:   cfg.RedisLogTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.store, s.closer = storage, storage
	default:
		if err := ensureDir(cfg.LevelDBPath); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		storage, err := leveldb.New(cfg.LevelDBPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.store, s.closer = storage, storage
	}

	if cfg.AuditPath != "" {
		if err := ensureDir(cfg.AuditPath); err != nil {
			_ = s.closer.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		audit, err := sqlite.New(cfg.AuditPath, loc)
		if err != nil {
			_ = s.closer.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.audit = audit
	}

	return s, nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func (s *StorageApp) Stop() error {
	var errs []error
	if s.closer != nil {
		errs = append(errs, s.closer.Close())
	}
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	return errors.Join(errs...)
}

func (s *StorageApp) Store() cycle.Store {
	return s.store
}

// Audit returns the audit table, or nil when none is configured.
func (s *StorageApp) Audit() *sqlite.Storage {
	return s.audit
}

func (s *StorageApp) Backend() string {
	return s.backend
}
