package trend

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-rank/internal/domain/models"
	"realtime-rank/internal/lib/logger"
)

type mapTagger map[string][]models.TaggedToken

func (m mapTagger) Tag(title string) ([]models.TaggedToken, error) {
	if title == "explode" {
		panic("tagger crashed")
	}
	tokens, ok := m[title]
	if !ok {
		return nil, errors.New("unknown title")
	}
	return tokens, nil
}

func link(id int) string {
	return fmt.Sprintf("https://n.news.naver.com/article/001/%010d", id)
}

func newTestEngine() *Engine {
	opts := DefaultOptions()
	opts.Location = seoul
	return New(logger.Discard(), opts)
}

func TestEngineRank_EndToEnd(t *testing.T) {
	tagger := mapTagger{
		"[속보] 국정 감사 시작": {
			tok("속보", models.CommonNoun), tok("국정", models.CommonNoun), tok("감사", models.CommonNoun), tok("시작", models.CommonNoun),
		},
		"국정 감사 쟁점 정리": {
			tok("국정", models.CommonNoun), tok("감사", models.CommonNoun), tok("쟁점", models.CommonNoun), tok("정리", models.CommonNoun),
		},
		"홍길동 선거 출마": {
			tok("홍길동", models.ProperNoun), tok("선거", models.CommonNoun), tok("출마", models.CommonNoun),
		},
		"엉망": {},
	}

	articles := []models.Article{
		{Title: "[속보] 국정 감사 시작", Link: link(1), SourceRank: 1},
		{Title: "국정 감사 쟁점 정리", Link: link(2), SourceRank: 2},
		{Title: "홍길동 선거 출마", Link: link(3), SourceRank: 3},
		{Title: "no id here", Link: "https://example.com/x", SourceRank: 4},
		{Title: "엉망", Link: link(5), SourceRank: 5},
		{Title: "unknown", Link: link(6), SourceRank: 6},
		{Title: "explode", Link: link(7), SourceRank: 7},
	}

	res, err := newTestEngine().Rank(Input{
		Articles: articles,
		Tagger:   tagger,
		Baseline: models.Baseline{"홍길동 선거": 1},
		Previous: models.PreviousSnapshot{"홍길동": 1, "국정 감사": 2},
		Now:      weekdayAfternoon,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, res.Stats.Crawled)
	assert.Equal(t, 6, res.Stats.Scored)
	assert.Equal(t, 1, res.Stats.MissingID)
	assert.Equal(t, 3, res.Stats.TaggingFailures)
	assert.False(t, res.Stats.Empty())

	// "국정 감사" appears twice across two articles: 2*10*2 = 40.
	assert.Equal(t, 2, res.Frequencies["국정 감사"])
	require.NotEmpty(t, res.Entries)
	assert.Equal(t, "국정 감사", res.Entries[0].Keyword)
	assert.Equal(t, "up_1", res.Entries[0].RankChange)
	// best link is the breaking, higher-scored article
	assert.Equal(t, link(1), res.Entries[0].Link)

	for _, e := range res.Entries {
		if e.Keyword == "홍길동" {
			t.Fatalf("홍길동 shares its only article with longer phrases and should be deduplicated")
		}
	}

	require.Len(t, res.Scored, 6)
	assert.Equal(t, "0000000001", res.Scored[0].ID)
	for i := 1; i < len(res.Scored); i++ {
		assert.GreaterOrEqual(t, res.Scored[i-1].Score, res.Scored[i].Score)
	}
	assert.Equal(t, weekdayAfternoon, res.UpdatedAt)
}

func TestEngineRank_RiseRateScenario(t *testing.T) {
	var articles []models.Article
	tagger := mapTagger{}
	for i := 1; i <= 5; i++ {
		a := fmt.Sprintf("선거 기사 %d", i)
		b := fmt.Sprintf("감사 기사 %d", i)
		tagger[a] = []models.TaggedToken{tok("선거", models.ProperNoun)}
		tagger[b] = []models.TaggedToken{tok("국정", models.CommonNoun), tok("감사", models.CommonNoun)}
		articles = append(articles,
			models.Article{Title: a, Link: link(i), SourceRank: i},
			models.Article{Title: b, Link: link(100 + i), SourceRank: 10 + i},
		)
	}

	res, err := newTestEngine().Rank(Input{Articles: articles, Tagger: tagger, Now: weekdayAfternoon})
	require.NoError(t, err)

	require.Len(t, res.Keywords, 2)
	assert.Equal(t, "국정 감사", res.Keywords[0].Phrase)
	assert.Equal(t, 100.0, res.Keywords[0].RiseRate)
	assert.Equal(t, "선거", res.Keywords[1].Phrase)
	assert.Equal(t, 50.0, res.Keywords[1].RiseRate)
}

func TestEngineRank_EmptyCycle(t *testing.T) {
	res, err := newTestEngine().Rank(Input{Now: weekdayAfternoon})
	require.NoError(t, err)

	assert.True(t, res.Stats.Empty())
	assert.Empty(t, res.Entries)
	assert.Empty(t, res.Scored)
	assert.Empty(t, res.Frequencies)
}

func TestEngineRank_NilTagger(t *testing.T) {
	res, err := newTestEngine().Rank(Input{
		Articles: []models.Article{{Title: "t", Link: link(1), SourceRank: 1}},
		Now:      weekdayAfternoon,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.TaggingFailures)
	assert.True(t, res.Stats.Empty())
	assert.Len(t, res.Scored, 1)
}

func TestEngineRank_InvalidSnapshot(t *testing.T) {
	_, err := newTestEngine().Rank(Input{
		Previous: models.PreviousSnapshot{"a": 1, "b": 1},
		Now:      weekdayAfternoon,
	})
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestEngineRank_Truncates(t *testing.T) {
	var articles []models.Article
	tagger := mapTagger{}
	for i := 1; i <= 80; i++ {
		title := fmt.Sprintf("title %d", i)
		tagger[title] = []models.TaggedToken{tok(fmt.Sprintf("이름%02d", i), models.ProperNoun)}
		articles = append(articles, models.Article{Title: title, Link: link(i), SourceRank: i})
	}

	res, err := newTestEngine().Rank(Input{Articles: articles, Tagger: tagger, Now: weekdayAfternoon.Add(-time.Minute)})
	require.NoError(t, err)

	assert.Equal(t, 80, res.Stats.Keywords)
	assert.Len(t, res.Entries, 50)
	// equal rates keep aggregation order, which follows article score
	assert.Equal(t, "이름01", res.Entries[0].Keyword)
	assert.Equal(t, "이름50", res.Entries[49].Keyword)
}
