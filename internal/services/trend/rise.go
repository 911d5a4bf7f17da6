package trend

import (
	"cmp"
	"slices"
	"strings"

	"realtime-rank/internal/domain/models"
)

// Aggregate groups occurrences by phrase. Occurrences are first ordered by source
// score, highest first, so aggregation order and best links are deterministic.
func Aggregate(occurrences []models.KeywordOccurrence) []*models.KeywordAggregate {
	ordered := slices.Clone(occurrences)
	slices.SortStableFunc(ordered, func(a, b models.KeywordOccurrence) int {
		return cmp.Compare(b.SourceScore, a.SourceScore)
	})

	index := make(map[string]*models.KeywordAggregate)
	var aggregates []*models.KeywordAggregate
	for _, o := range ordered {
		agg, ok := index[o.Phrase]
		if !ok {
			agg = &models.KeywordAggregate{
				Phrase:          o.Phrase,
				SupportingLinks: models.NewLinkSet(),
				BestLink:        o.SourceLink,
				BestScore:       o.SourceScore,
			}
			index[o.Phrase] = agg
			aggregates = append(aggregates, agg)
		}
		agg.Frequency++
		agg.SupportingLinks.Add(o.SourceLink)
		if o.SourceScore > agg.BestScore {
			agg.BestLink = o.SourceLink
			agg.BestScore = o.SourceScore
		}
	}
	return aggregates
}

// RiseRate is frequency*10 / (history+1), multiplied by the word count for
// multi-word phrases.
func RiseRate(phrase string, frequency int, historicalAverage float64) float64 {
	rate := float64(frequency*10) / (historicalAverage + 1)
	if words := strings.Count(phrase, " ") + 1; words > 1 {
		rate *= float64(words)
	}
	return rate
}

// RankByRise sets RiseRate on every aggregate and returns them sorted by rate,
// highest first, keeping aggregation order between equal rates.
func RankByRise(aggregates []*models.KeywordAggregate, baseline models.Baseline) []*models.KeywordAggregate {
	ranked := slices.Clone(aggregates)
	for _, agg := range ranked {
		agg.RiseRate = RiseRate(agg.Phrase, agg.Frequency, baseline[agg.Phrase])
	}
	slices.SortStableFunc(ranked, func(a, b *models.KeywordAggregate) int {
		return cmp.Compare(b.RiseRate, a.RiseRate)
	})
	return ranked
}

// Frequencies returns phrase -> frequency for the history log.
func Frequencies(aggregates []*models.KeywordAggregate) map[string]int {
	freq := make(map[string]int, len(aggregates))
	for _, agg := range aggregates {
		freq[agg.Phrase] = agg.Frequency
	}
	return freq
}
