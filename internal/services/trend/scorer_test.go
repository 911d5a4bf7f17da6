package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-rank/internal/domain/models"
)

var seoul = time.FixedZone("KST", 9*60*60)

// Wednesday afternoon: no off-peak bonus.
var weekdayAfternoon = time.Date(2026, 10, 14, 15, 0, 0, 0, seoul)

func TestExtractID(t *testing.T) {
	tests := []struct {
		link   string
		wantID string
		wantOK bool
	}{
		{"https://news.naver.com/main/read.naver?mode=LSD&oid=001&aid=0012345678", "0012345678", true},
		{"https://n.news.naver.com/article/001/0014567890?ntype=RANKING", "0014567890", true},
		{"https://n.news.naver.com/article/001/123?from=/1234567890", "", false},
		{"https://example.com/story/abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			id, ok := ExtractID(tt.link)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestBaseScore(t *testing.T) {
	assert.Equal(t, 100.0, BaseScore(1))
	assert.Equal(t, 1.0, BaseScore(100))
	assert.Equal(t, 0.0, BaseScore(101))
	assert.Equal(t, 0.0, BaseScore(250))
}

func TestBreakingBonus(t *testing.T) {
	markers := DefaultBreakingMarkers

	assert.Equal(t, 1.2, BreakingBonus("[속보] 국회 본회의 개최", markers))
	assert.Equal(t, 1.2, BreakingBonus("[BREAKING] Markets fall", markers))
	assert.Equal(t, 1.0, BreakingBonus("속보 없는 제목", markers))
	assert.Equal(t, 1.0, BreakingBonus("anything", nil))
}

func TestRecencyFactor(t *testing.T) {
	now := weekdayAfternoon
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name      string
		published *time.Time
		want      float64
	}{
		{"unknown is stale", nil, 0.8},
		{"thirty minutes", at(30 * time.Minute), 1.2},
		{"just under an hour", at(59*time.Minute + 59*time.Second), 1.2},
		{"exactly one hour", at(time.Hour), 1.0},
		{"two hours", at(2 * time.Hour), 1.0},
		{"exactly three hours", at(3 * time.Hour), 0.8},
		{"a day", at(24 * time.Hour), 0.8},
		{"future timestamp", at(-10 * time.Minute), 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecencyFactor(tt.published, now))
		})
	}
}

func TestOffPeakBonus(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"weekday afternoon", weekdayAfternoon, 1.0},
		{"weekday midnight", time.Date(2026, 10, 14, 0, 0, 0, 0, seoul), 1.1},
		{"weekday 06:59", time.Date(2026, 10, 14, 6, 59, 0, 0, seoul), 1.1},
		{"weekday 07:00", time.Date(2026, 10, 14, 7, 0, 0, 0, seoul), 1.0},
		{"saturday noon", time.Date(2026, 10, 17, 12, 0, 0, 0, seoul), 1.1},
		{"sunday evening", time.Date(2026, 10, 18, 21, 0, 0, 0, seoul), 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OffPeakBonus(tt.now, seoul))
		})
	}

	t.Run("evaluated in the configured location", func(t *testing.T) {
		// 16:00 UTC on a Wednesday is 01:00 Thursday in Seoul.
		utc := time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC)
		assert.Equal(t, 1.0, OffPeakBonus(utc, time.UTC))
		assert.Equal(t, 1.1, OffPeakBonus(utc, seoul))
	})
}

func TestScoreArticles_StaleDefault(t *testing.T) {
	articles := []models.Article{
		{Title: "첫째", Link: "https://n.news.naver.com/article/001/0000000001", SourceRank: 1},
		{Title: "둘째", Link: "https://n.news.naver.com/article/001/0000000002", SourceRank: 2},
		{Title: "셋째", Link: "https://n.news.naver.com/article/001/0000000003", SourceRank: 3},
	}

	scored, missing := newScorer(nil, weekdayAfternoon, seoul).scoreArticles(articles)
	require.Len(t, scored, 3)
	assert.Zero(t, missing)

	assert.InDelta(t, 80.0, scored[0].Score, 1e-9)
	assert.InDelta(t, 79.2, scored[1].Score, 1e-9)
	assert.InDelta(t, 78.4, scored[2].Score, 1e-9)
	assert.Equal(t, "0000000001", scored[0].ID)
}

func TestScoreArticles_DropsMissingID(t *testing.T) {
	articles := []models.Article{
		{Title: "no id", Link: "https://example.com/a", SourceRank: 1},
		{Title: "ok", Link: "https://n.news.naver.com/article/001/0000000002", SourceRank: 2},
	}

	scored, missing := newScorer(nil, weekdayAfternoon, seoul).scoreArticles(articles)
	assert.Equal(t, 1, missing)
	require.Len(t, scored, 1)
	assert.Equal(t, 2, scored[0].SourceRank)
}

func TestScore_MonotonicInRank(t *testing.T) {
	s := newScorer(DefaultBreakingMarkers, weekdayAfternoon, seoul)
	published := weekdayAfternoon.Add(-90 * time.Minute)

	prev := s.score(models.Article{Title: "[속보] x", SourceRank: 1, PublishTime: &published})
	for rank := 2; rank <= 120; rank++ {
		cur := s.score(models.Article{Title: "[속보] x", SourceRank: rank, PublishTime: &published})
		assert.LessOrEqual(t, cur, prev, "rank %d", rank)
		assert.GreaterOrEqual(t, cur, 0.0)
		prev = cur
	}
}

func TestScore_AllFactors(t *testing.T) {
	saturday := time.Date(2026, 10, 17, 12, 0, 0, 0, seoul)
	published := saturday.Add(-10 * time.Minute)
	s := newScorer(DefaultBreakingMarkers, saturday, seoul)

	got := s.score(models.Article{Title: "[속보] 지진 발생", SourceRank: 11, PublishTime: &published})
	assert.InDelta(t, 90*1.2*1.2*1.1, got, 1e-9)
}

func TestAuditTable_SortedByScore(t *testing.T) {
	scored := []models.Article{
		{ID: "a", SourceRank: 3, Score: 10},
		{ID: "b", SourceRank: 1, Score: 30},
		{ID: "c", SourceRank: 2, Score: 10},
	}

	rows := auditTable(scored)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, "unknown", rows[0].PublishedLabel())
}
