package models

import "time"

const (
	ChangeNew  = "new"
	ChangeSame = "same_0"
)

// RankedEntry is the externally visible unit of the trending list.
// Its position in the containing slice is its rank.
type RankedEntry struct {
	Keyword    string `json:"keyword"`
	Link       string `json:"link"`
	RankChange string `json:"rank_change"`
}

// PreviousSnapshot maps a keyword to its 1-based rank in the previous cycle.
type PreviousSnapshot map[string]int

// Baseline maps a keyword to its averaged frequency over the trailing window.
type Baseline map[string]float64

// Snapshot is what a cycle hands to the persistence layer.
type Snapshot struct {
	Entries     []RankedEntry `json:"entries"`
	UpdatedAt   time.Time     `json:"updated_at"`
	LastUpdated string        `json:"last_updated"`
}

// Ranks converts a persisted snapshot back into the rank lookup used by the next cycle.
func (s *Snapshot) Ranks() PreviousSnapshot {
	if s == nil {
		return PreviousSnapshot{}
	}
	ranks := make(PreviousSnapshot, len(s.Entries))
	for i, e := range s.Entries {
		if _, seen := ranks[e.Keyword]; seen {
			continue
		}
		ranks[e.Keyword] = i + 1
	}
	return ranks
}
