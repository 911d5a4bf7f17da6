// Package tagger is a rule-based part-of-speech tagger for news headlines.
package tagger

import (
	"errors"
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	snowballeng "github.com/kljensen/snowball/english"

	"realtime-rank/internal/domain/models"
)

var ErrEmptyTitle = errors.New("empty title")

// particles are trailing postpositions trimmed from Hangul tokens, longest first.
var particles = []string{"에서", "으로", "은", "는", "이", "가", "을", "를", "의", "에", "도", "와", "과", "로"}

type Tagger struct {
	properNouns map[string]struct{}
}

func New(properNouns []string) *Tagger {
	set := make(map[string]struct{}, len(properNouns))
	for _, p := range properNouns {
		if p = strings.TrimSpace(p); p != "" {
			set[p] = struct{}{}
		}
	}
	return &Tagger{properNouns: set}
}

func (t *Tagger) Tag(title string) ([]models.TaggedToken, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	return slices.Collect(t.tagAll(Tokenize(title))), nil
}

func (t *Tagger) tagAll(seq iter.Seq[string]) iter.Seq[models.TaggedToken] {
	return func(yield func(models.TaggedToken) bool) {
		for token := range seq {
			if !yield(t.tag(token)) {
				return
			}
		}
	}
}

func (t *Tagger) tag(token string) models.TaggedToken {
	switch {
	case isDigits(token):
		return models.TaggedToken{Text: token, Tag: models.Other}
	case containsHangul(token):
		word := TrimParticle(token)
		if _, ok := t.properNouns[word]; ok {
			return models.TaggedToken{Text: word, Tag: models.ProperNoun}
		}
		return models.TaggedToken{Text: word, Tag: models.CommonNoun}
	case isLatin(token):
		if _, ok := t.properNouns[token]; ok {
			return models.TaggedToken{Text: token, Tag: models.ProperNoun}
		}
		first, _ := utf8.DecodeRuneInString(token)
		if unicode.IsUpper(first) {
			return models.TaggedToken{Text: token, Tag: models.ProperNoun}
		}
		return models.TaggedToken{Text: snowballeng.Stem(strings.ToLower(token), false), Tag: models.Alphabetic}
	default:
		return models.TaggedToken{Text: token, Tag: models.Alphabetic}
	}
}

// Tokenize splits content on every rune that is neither a letter nor a number.
func Tokenize(content string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i, r := range content {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if !yield(content[start:i]) {
					return
				}
				start = -1
			}
		}
		if start >= 0 {
			yield(content[start:])
		}
	}
}

// TrimParticle strips one trailing particle from tokens longer than two runes.
func TrimParticle(token string) string {
	if utf8.RuneCountInString(token) <= 2 {
		return token
	}
	for _, p := range particles {
		if rest, ok := strings.CutSuffix(token, p); ok && utf8.RuneCountInString(rest) >= 2 {
			return rest
		}
	}
	return token
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func containsHangul(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

func isLatin(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Latin, r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
