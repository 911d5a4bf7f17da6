package trend

import (
	"slices"
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

// DefaultStopwords are generic headline words that never make a useful keyword.
var DefaultStopwords = []string{
	"속보", "뉴스", "종합", "기자", "사진", "영상", "단독", "포토", "오늘",
	"news", "today", "photo", "exclusive", "breaking", "video", "update",
}

// DefaultBreakingMarkers flag breaking-news titles.
var DefaultBreakingMarkers = []string{"[속보]", "[Breaking]"}

// stopwordSet holds every stopword lower-cased and, for Latin words, also in the
// stemmed form the tagger emits for common words.
func stopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, 2*len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
		if isLatinWord(w) {
			set[snowballeng.Stem(w, false)] = struct{}{}
		}
	}
	return set
}

func isStopword(stop map[string]struct{}, text string) bool {
	_, ok := stop[strings.ToLower(text)]
	return ok
}

func isLatinWord(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

// MergeStopwords appends extra to base, skipping words already present.
func MergeStopwords(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, w := range slices.Concat(base, extra) {
		key := strings.ToLower(strings.TrimSpace(w))
		if _, dup := seen[key]; dup || key == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return out
}
