package trend

import "realtime-rank/internal/domain/models"

// Deduplicate walks keywords in the given (rate-descending) order and drops any keyword
// whose supporting links overlap an already kept one by more than threshold. Kept
// representatives are never modified. The result is cut to limit entries when limit > 0.
//
// The pass is O(k²) in the number of distinct keywords, which is bounded by the crawl
// size times the three n-gram lengths.
func Deduplicate(ranked []*models.KeywordAggregate, threshold float64, limit int) (kept []*models.KeywordAggregate, duplicates int) {
	for _, candidate := range ranked {
		if similarToAny(candidate, kept, threshold) {
			duplicates++
			continue
		}
		kept = append(kept, candidate)
	}

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, duplicates
}

func similarToAny(candidate *models.KeywordAggregate, kept []*models.KeywordAggregate, threshold float64) bool {
	for _, rep := range kept {
		if candidate.SupportingLinks.Jaccard(rep.SupportingLinks) > threshold {
			return true
		}
	}
	return false
}
