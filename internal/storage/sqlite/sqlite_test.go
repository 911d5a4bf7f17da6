package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-rank/internal/domain/models"
)

var seoul = time.FixedZone("KST", 9*60*60)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "audit.db"), seoul)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReplaceScoredArticles(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)
	published := time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

	first := []models.ScoredArticle{
		{ID: "0000000001", Title: "old", Link: "l1", SourceRank: 1, Score: 80},
	}
	require.NoError(t, s.ReplaceScoredArticles(ctx, first))

	second := []models.ScoredArticle{
		{ID: "0000000003", Title: "c", Link: "l3", SourceRank: 3, Score: 78.4},
		{ID: "0000000002", Title: "b", Link: "l2", SourceRank: 2, PublishTime: &published, Score: 118.80000001},
	}
	require.NoError(t, s.ReplaceScoredArticles(ctx, second))

	got, err := s.ScoredArticles(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "0000000002", got[0].ID)
	assert.Equal(t, 118.8, got[0].Score)
	require.NotNil(t, got[0].PublishTime)
	assert.True(t, published.Equal(*got[0].PublishTime))
	assert.Equal(t, seoul, got[0].PublishTime.Location())

	assert.Equal(t, "0000000003", got[1].ID)
	assert.Nil(t, got[1].PublishTime)
	assert.Equal(t, "unknown", got[1].PublishedLabel())
}

func TestReplaceScoredArticles_Empty(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)

	require.NoError(t, s.ReplaceScoredArticles(ctx, []models.ScoredArticle{{ID: "1", Title: "t", Link: "l", SourceRank: 1, Score: 1}}))
	require.NoError(t, s.ReplaceScoredArticles(ctx, nil))

	got, err := s.ScoredArticles(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceScoredArticles_RepeatedArticleID(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)

	rows := []models.ScoredArticle{
		{ID: "0000000007", Title: "a", Link: "l7", SourceRank: 1, Score: 80},
		{ID: "0000000007", Title: "a", Link: "l7", SourceRank: 4, Score: 77.6},
	}
	require.NoError(t, s.ReplaceScoredArticles(ctx, rows))

	got, err := s.ScoredArticles(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].SourceRank)
	assert.Equal(t, 4, got[1].SourceRank)
}

func TestNew_ReplacesLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s, err := New(path, nil)
	require.NoError(t, err)
	_, err = s.db.Exec(`CREATE TABLE article_scores (article_id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path, nil)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE name = 'article_scores'`).Scan(&n))
	assert.Zero(t, n)
}
