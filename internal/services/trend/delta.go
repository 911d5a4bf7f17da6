package trend

import (
	"errors"
	"fmt"
	"slices"

	"realtime-rank/internal/domain/models"
)

var ErrInvalidSnapshot = errors.New("invalid previous snapshot")

// ValidateSnapshot checks that ranks are exactly 1..n with no repeats.
func ValidateSnapshot(prev models.PreviousSnapshot) error {
	if len(prev) == 0 {
		return nil
	}

	seen := make(map[int]string, len(prev))
	keywords := make([]string, 0, len(prev))
	for k := range prev {
		keywords = append(keywords, k)
	}
	slices.Sort(keywords)

	for _, k := range keywords {
		rank := prev[k]
		if rank < 1 || rank > len(prev) {
			return fmt.Errorf("%w: keyword %q has rank %d outside 1..%d", ErrInvalidSnapshot, k, rank, len(prev))
		}
		if other, dup := seen[rank]; dup {
			return fmt.Errorf("%w: keywords %q and %q share rank %d", ErrInvalidSnapshot, other, k, rank)
		}
		seen[rank] = k
	}
	return nil
}

// RankChange tags the move of keyword to newRank relative to prev.
func RankChange(prev models.PreviousSnapshot, keyword string, newRank int) string {
	oldRank, ok := prev[keyword]
	switch {
	case !ok:
		return models.ChangeNew
	case oldRank > newRank:
		return fmt.Sprintf("up_%d", oldRank-newRank)
	case oldRank < newRank:
		return fmt.Sprintf("down_%d", newRank-oldRank)
	default:
		return models.ChangeSame
	}
}

// Annotate turns the final keyword order into ranked entries.
func Annotate(kept []*models.KeywordAggregate, prev models.PreviousSnapshot) []models.RankedEntry {
	entries := make([]models.RankedEntry, 0, len(kept))
	for i, agg := range kept {
		entries = append(entries, models.RankedEntry{
			Keyword:    agg.Phrase,
			Link:       agg.BestLink,
			RankChange: RankChange(prev, agg.Phrase, i+1),
		})
	}
	return entries
}
