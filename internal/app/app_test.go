package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-rank/config"
	"realtime-rank/internal/domain/models"
	"realtime-rank/internal/lib/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:      logger.EnvLocal,
		Timezone: "UTC",
		Crawler:  config.CrawlerConfig{Workers: 2, Timeout: time.Second},
		Ranking:  config.RankingConfig{MaxEntries: 50, JaccardThreshold: 0.5},
		Storage: config.StorageConfig{
			Backend:     config.BackendLevelDB,
			LevelDBPath: filepath.Join(dir, "nested", "rank.db"),
			AuditPath:   filepath.Join(dir, "audit", "audit.db"),
		},
		HTTP: config.HTTPConfig{Address: "127.0.0.1:0"},
	}
}

func TestNewStorageApp_LevelDB(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	s, err := NewStorageApp(ctx, cfg.Storage, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, config.BackendLevelDB, s.Backend())
	require.NotNil(t, s.Audit())

	snap := &models.Snapshot{Entries: []models.RankedEntry{{Keyword: "선거", Link: "l", RankChange: "new"}}}
	require.NoError(t, s.Store().SaveSnapshot(ctx, snap))
	got, err := s.Store().LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Entries, got.Entries)

	require.NoError(t, s.Stop())
}

func TestNewStorageApp_NoAudit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.AuditPath = ""

	s, err := NewStorageApp(context.Background(), cfg.Storage, time.UTC)
	require.NoError(t, err)
	assert.Nil(t, s.Audit())
	require.NoError(t, s.Stop())
}

func TestApp_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule = config.ScheduleConfig{Enabled: true, Cron: "*/10 * * * *"}

	a, err := New(context.Background(), logger.Discard(), cfg)
	require.NoError(t, err)

	require.NoError(t, a.Start(context.Background()))
	assert.False(t, a.Scheduler.Next().IsZero())
	require.NoError(t, a.Stop())
}

func TestApp_BadCronSpec(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule = config.ScheduleConfig{Enabled: true, Cron: "sometimes"}

	a, err := New(context.Background(), logger.Discard(), cfg)
	require.NoError(t, err)
	defer func() { _ = a.Stop() }()

	assert.Error(t, a.Start(context.Background()))
}
