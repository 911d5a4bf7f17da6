package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-rank/internal/domain/models"
)

func occ(phrase string, score float64, link string) models.KeywordOccurrence {
	return models.KeywordOccurrence{Phrase: phrase, SourceScore: score, SourceLink: link}
}

func TestAggregate_Invariants(t *testing.T) {
	occurrences := []models.KeywordOccurrence{
		occ("선거", 50, "l1"),
		occ("선거", 70, "l2"),
		occ("선거", 70, "l2"),
		occ("국정 감사", 90, "l3"),
		occ("선거", 10, "l3"),
	}

	aggs := Aggregate(occurrences)
	require.Len(t, aggs, 2)

	byPhrase := map[string]*models.KeywordAggregate{}
	for _, a := range aggs {
		byPhrase[a.Phrase] = a
	}

	for phrase, agg := range byPhrase {
		count := 0
		links := models.NewLinkSet()
		for _, o := range occurrences {
			if o.Phrase == phrase {
				count++
				links.Add(o.SourceLink)
			}
		}
		assert.Equal(t, count, agg.Frequency, phrase)
		assert.Equal(t, links, agg.SupportingLinks, phrase)
	}

	assert.Equal(t, 4, byPhrase["선거"].Frequency)
	assert.Equal(t, models.NewLinkSet("l1", "l2", "l3"), byPhrase["선거"].SupportingLinks)
}

func TestAggregate_BestLinkIsHighestScore(t *testing.T) {
	aggs := Aggregate([]models.KeywordOccurrence{
		occ("태풍", 40, "low"),
		occ("태풍", 95, "high"),
		occ("태풍", 60, "mid"),
		occ("태풍", 95, "high-later"),
	})

	require.Len(t, aggs, 1)
	assert.Equal(t, "high", aggs[0].BestLink)
	assert.Equal(t, 95.0, aggs[0].BestScore)
}

func TestAggregate_OrderFollowsScore(t *testing.T) {
	aggs := Aggregate([]models.KeywordOccurrence{
		occ("b", 10, "l1"),
		occ("a", 90, "l2"),
		occ("c", 10, "l3"),
	})

	require.Len(t, aggs, 3)
	assert.Equal(t, "a", aggs[0].Phrase)
	assert.Equal(t, "b", aggs[1].Phrase)
	assert.Equal(t, "c", aggs[2].Phrase)
}

func TestRiseRate(t *testing.T) {
	assert.Equal(t, 50.0, RiseRate("선거", 5, 0))
	assert.Equal(t, 100.0, RiseRate("국정 감사", 5, 0))
	assert.Equal(t, 150.0, RiseRate("국정 감사 청문회", 5, 0))
	assert.Equal(t, 10.0, RiseRate("선거", 5, 4))
}

func TestRankByRise(t *testing.T) {
	aggs := []*models.KeywordAggregate{
		{Phrase: "선거", Frequency: 5},
		{Phrase: "국정 감사", Frequency: 5},
		{Phrase: "날씨", Frequency: 5},
	}

	ranked := RankByRise(aggs, models.Baseline{"날씨": 4})

	require.Len(t, ranked, 3)
	assert.Equal(t, "국정 감사", ranked[0].Phrase)
	assert.Equal(t, 100.0, ranked[0].RiseRate)
	assert.Equal(t, "선거", ranked[1].Phrase)
	assert.Equal(t, 50.0, ranked[1].RiseRate)
	assert.Equal(t, "날씨", ranked[2].Phrase)
	assert.Equal(t, 10.0, ranked[2].RiseRate)
}

func TestRankByRise_StableTies(t *testing.T) {
	aggs := []*models.KeywordAggregate{
		{Phrase: "first", Frequency: 2},
		{Phrase: "second", Frequency: 2},
		{Phrase: "third", Frequency: 2},
	}

	ranked := RankByRise(aggs, nil)

	assert.Equal(t, "first", ranked[0].Phrase)
	assert.Equal(t, "second", ranked[1].Phrase)
	assert.Equal(t, "third", ranked[2].Phrase)
}

func TestFrequencies(t *testing.T) {
	freq := Frequencies([]*models.KeywordAggregate{
		{Phrase: "a", Frequency: 3},
		{Phrase: "b c", Frequency: 1},
	})
	assert.Equal(t, map[string]int{"a": 3, "b c": 1}, freq)
}
