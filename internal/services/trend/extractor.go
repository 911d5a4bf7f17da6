package trend

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"realtime-rank/internal/domain/models"
)

const maxNGram = 3

// keywordTag reports whether a tag may take part in a keyword at all.
func keywordTag(tag models.PartOfSpeech) bool {
	switch tag {
	case models.CommonNoun, models.ProperNoun, models.Alphabetic:
		return true
	case models.Other, models.Unrecognized:
		return false
	default:
		return false
	}
}

func DropShort(seq iter.Seq[models.TaggedToken]) iter.Seq[models.TaggedToken] {
	return func(yield func(models.TaggedToken) bool) {
		for token := range seq {
			if utf8.RuneCountInString(token.Text) <= 1 {
				continue
			}
			if !yield(token) {
				return
			}
		}
	}
}

// DropStopWords matches case-insensitively, so a stopword also catches its
// capitalised and stemmed spellings.
func DropStopWords(seq iter.Seq[models.TaggedToken], stop map[string]struct{}) iter.Seq[models.TaggedToken] {
	return func(yield func(models.TaggedToken) bool) {
		for token := range seq {
			if isStopword(stop, token.Text) {
				continue
			}
			if !yield(token) {
				return
			}
		}
	}
}

func KeepKeywordTags(seq iter.Seq[models.TaggedToken]) iter.Seq[models.TaggedToken] {
	return func(yield func(models.TaggedToken) bool) {
		for token := range seq {
			if !keywordTag(token.Tag) {
				continue
			}
			if !yield(token) {
				return
			}
		}
	}
}

// MeaningfulTokens applies the length, stopword and tag filters in order.
func MeaningfulTokens(tokens []models.TaggedToken, stop map[string]struct{}) []models.TaggedToken {
	seq := slices.Values(tokens)
	seq = DropShort(seq)
	seq = DropStopWords(seq, stop)
	seq = KeepKeywordTags(seq)
	return slices.Collect(seq)
}

// NGrams yields every contiguous window of n tokens.
func NGrams(tokens []models.TaggedToken, n int) iter.Seq[[]models.TaggedToken] {
	return func(yield func([]models.TaggedToken) bool) {
		if n <= 0 {
			return
		}
		for i := 0; i+n <= len(tokens); i++ {
			if !yield(tokens[i : i+n]) {
				return
			}
		}
	}
}

func joinPhrase(window []models.TaggedToken) string {
	var b strings.Builder
	for i, t := range window {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// ExtractKeywords turns one tagged title into 1..3-gram occurrences carrying the
// article's score and link. Single-token candidates must be proper nouns.
func ExtractKeywords(tokens []models.TaggedToken, score float64, link string, stop map[string]struct{}) []models.KeywordOccurrence {
	meaningful := MeaningfulTokens(tokens, stop)

	var out []models.KeywordOccurrence
	for n := 1; n <= maxNGram; n++ {
		for window := range NGrams(meaningful, n) {
			if n == 1 && window[0].Tag != models.ProperNoun {
				continue
			}
			out = append(out, models.KeywordOccurrence{
				Phrase:      joinPhrase(window),
				SourceScore: score,
				SourceLink:  link,
			})
		}
	}
	return out
}
