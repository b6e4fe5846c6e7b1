// Package cleaner holds the text transforms shared by the extraction schemas:
// whitespace normalization, rune-safe truncation, HTML to Markdown and
// readability text.
package cleaner

import (
	"strings"
	"unicode/utf8"
)

// Normalize collapses every run of whitespace to a single space and trims
// both ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
