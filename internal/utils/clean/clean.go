package clean

import (
	"regexp"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonText    = regexp.MustCompile(`[^\p{L}\p{N}\p{P}\p{S}\p{Z}]`)
)

// Title flattens a scraped headline onto one line and drops control and format runes.
func Title(text string) string {
	text = whitespace.ReplaceAllString(text, " ")

	text = nonText.ReplaceAllString(text, "")

	text = whitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
