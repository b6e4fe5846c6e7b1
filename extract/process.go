package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/use-agent/harvest/cleaner"
)

// Processor is a pure cleanup transform applied to a raw matched value
// before validation.
type Processor func(string) string

// Validator decides whether a cleaned value is accepted.
type Validator func(string) bool

// Chain applies processors left to right.
func Chain(ps ...Processor) Processor {
	return func(s string) string {
		for _, p := range ps {
			if p != nil {
				s = p(s)
			}
		}
		return s
	}
}

// Trim collapses internal whitespace and trims the ends.
func Trim(s string) string { return cleaner.Normalize(s) }

// Truncate keeps at most n runes.
func Truncate(n int) Processor {
	return func(s string) string { return cleaner.Truncate(s, n) }
}

// CutAt truncates s at the first rune found in delims.
func CutAt(delims string) Processor {
	return func(s string) string {
		if i := strings.IndexAny(s, delims); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(s)
	}
}

// SplitFirst keeps the text before the first match of re.
func SplitFirst(re *regexp.Regexp) Processor {
	return func(s string) string {
		return strings.TrimSpace(re.Split(s, 2)[0])
	}
}

// Submatch returns capture group n of the first match of re, or "" when
// nothing matches.
func Submatch(re *regexp.Regexp, n int) Processor {
	return func(s string) string {
		m := re.FindStringSubmatch(s)
		if len(m) <= n {
			return ""
		}
		return strings.TrimSpace(m[n])
	}
}

// Markdown converts an HTML fragment to Markdown and keeps at most limit
// runes. Conversion failures yield "".
func Markdown(limit int) Processor {
	return func(s string) string {
		md, err := cleaner.ToMarkdown(s, readableBaseURL)
		if err != nil {
			return ""
		}
		return cleaner.Truncate(md, limit)
	}
}

// NonEmpty rejects the empty string.
func NonEmpty(s string) bool { return s != "" }

// MaxLen accepts values of at most n runes.
func MaxLen(n int) Validator {
	return func(s string) bool { return utf8.RuneCountInString(s) <= n }
}

// MinLen accepts values of at least n runes.
func MinLen(n int) Validator {
	return func(s string) bool { return utf8.RuneCountInString(s) >= n }
}

// Contains accepts values containing sub.
func Contains(sub string) Validator {
	return func(s string) bool { return strings.Contains(s, sub) }
}

// Excludes rejects values containing any of words, case-insensitively.
func Excludes(words ...string) Validator {
	return func(s string) bool {
		lower := strings.ToLower(s)
		for _, w := range words {
			if strings.Contains(lower, strings.ToLower(w)) {
				return false
			}
		}
		return true
	}
}

// NoMatch rejects values matching re.
func NoMatch(re *regexp.Regexp) Validator {
	return func(s string) bool { return !re.MatchString(s) }
}

// All accepts a value only if every validator does. Empty values are always
// rejected.
func All(vs ...Validator) Validator {
	return func(s string) bool {
		if s == "" {
			return false
		}
		for _, v := range vs {
			if v != nil && !v(s) {
				return false
			}
		}
		return true
	}
}
