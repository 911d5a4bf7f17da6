package models

import "strings"

// PartOfSpeech is the closed set of tag categories the keyword extractor understands.
type PartOfSpeech int

const (
	Unrecognized PartOfSpeech = iota
	CommonNoun
	ProperNoun
	Alphabetic
	Other
)

var posNames = map[PartOfSpeech]string{
	Unrecognized: "Unrecognized",
	CommonNoun:   "CommonNoun",
	ProperNoun:   "ProperNoun",
	Alphabetic:   "Alphabetic",
	Other:        "Other",
}

func (p PartOfSpeech) String() string {
	if name, ok := posNames[p]; ok {
		return name
	}
	return posNames[Unrecognized]
}

// ParsePartOfSpeech maps the loose tag strings produced by taggers onto PartOfSpeech.
// Anything it does not know becomes Unrecognized.
func ParsePartOfSpeech(tag string) PartOfSpeech {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "noun", "commonnoun", "nng":
		return CommonNoun
	case "propernoun", "nnp":
		return ProperNoun
	case "alpha", "alphabetic", "foreign", "sl", "sh":
		return Alphabetic
	case "other", "josa", "verb", "adjective", "punctuation", "number", "suffix":
		return Other
	default:
		return Unrecognized
	}
}

// TaggedToken is a single token of a title together with its tag.
type TaggedToken struct {
	Text string       `json:"text"`
	Tag  PartOfSpeech `json:"tag"`
}
