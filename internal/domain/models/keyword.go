package models

import (
	"encoding/json"
	"slices"
)

// KeywordOccurrence is one n-gram candidate produced from one article title.
type KeywordOccurrence struct {
	Phrase      string  `json:"phrase"`
	SourceScore float64 `json:"source_score"`
	SourceLink  string  `json:"source_link"`
}

// LinkSet is the set of article links that support a keyword.
type LinkSet map[string]struct{}

func NewLinkSet(links ...string) LinkSet {
	s := make(LinkSet, len(links))
	for _, l := range links {
		s.Add(l)
	}
	return s
}

func (s LinkSet) Add(link string) {
	s[link] = struct{}{}
}

func (s LinkSet) Has(link string) bool {
	_, ok := s[link]
	return ok
}

// Jaccard returns |s ∩ o| / |s ∪ o|, or 0 when both sets are empty.
func (s LinkSet) Jaccard(o LinkSet) float64 {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for link := range small {
		if large.Has(link) {
			intersection++
		}
	}

	union := len(s) + len(o) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Sorted returns the links in lexical order.
func (s LinkSet) Sorted() []string {
	links := make([]string, 0, len(s))
	for l := range s {
		links = append(links, l)
	}
	slices.Sort(links)
	return links
}

func (s LinkSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *LinkSet) UnmarshalJSON(data []byte) error {
	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return err
	}
	*s = NewLinkSet(links...)
	return nil
}

// KeywordAggregate groups every occurrence of one phrase within a cycle.
type KeywordAggregate struct {
	Phrase          string  `json:"phrase"`
	Frequency       int     `json:"frequency"`
	SupportingLinks LinkSet `json:"supporting_links"`
	BestLink        string  `json:"best_link"`
	BestScore       float64 `json:"best_score"`
	RiseRate        float64 `json:"rise_rate"`
}
