package processing

import (
	"html"
	"regexp"
	"strings"
)

var (
	tags = regexp.MustCompile(`<[^>]+>`)
	// Everything outside word characters, whitespace and the basic
	// Latin/CJK sentence punctuation is dropped.
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:，。！？；：]`)
)

// CleanText decodes HTML entities, strips markup tags and removes characters
// outside the punctuation allow-list. It is pure and idempotent; malformed
// input degrades to a partially stripped or empty string, never an error.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = tags.ReplaceAllString(decoded, "")
	decoded = disallowed.ReplaceAllString(decoded, "")
	return strings.TrimSpace(decoded)
}
