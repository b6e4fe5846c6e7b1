package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/harvest/cleaner"
)

type readMode int

const (
	readText readMode = iota
	readAttr
	readHTML
)

// Locator is a structural query against a parsed document: a compiled CSS
// selector group plus what to read from the matched element.
//
// By default only the first match is considered. All() makes the locator
// offer every match, in document order, to the validator.
type Locator struct {
	query string
	sel   cascadia.Selector
	mode  readMode
	attr  string
	all   bool
}

// MustLocator compiles query and panics if it is not a valid selector.
// Schemas are package-level values, so a bad selector fails at init.
func MustLocator(query string) Locator {
	return Locator{query: query, sel: cascadia.MustCompile(query)}
}

// Locators compiles each query in order.
func Locators(queries ...string) []Locator {
	out := make([]Locator, len(queries))
	for i, q := range queries {
		out[i] = MustLocator(q)
	}
	return out
}

// AttrLocators compiles each query to read the named attribute.
func AttrLocators(attr string, queries ...string) []Locator {
	out := Locators(queries...)
	for i := range out {
		out[i] = out[i].Attr(attr)
	}
	return out
}

// Attr reads the named attribute instead of the element text. Elements
// without the attribute are skipped.
func (l Locator) Attr(name string) Locator {
	l.mode = readAttr
	l.attr = name
	return l
}

// HTML reads the inner HTML of the element.
func (l Locator) HTML() Locator {
	l.mode = readHTML
	return l
}

// All offers every match to the validator instead of only the first.
func (l Locator) All() Locator {
	l.all = true
	return l
}

func (l Locator) String() string {
	if l.mode == readAttr {
		return l.query + "@" + l.attr
	}
	return l.query
}

// matches returns every element under root that the selector matches.
func (l Locator) matches(root *goquery.Selection) *goquery.Selection {
	if l.sel == nil {
		return root.Slice(0, 0)
	}
	return root.FindMatcher(l.sel)
}

// candidates returns the raw values the locator yields under root.
func (l Locator) candidates(root *goquery.Selection) []string {
	m := l.matches(root)
	if !l.all {
		m = m.First()
	}
	var out []string
	m.Each(func(_ int, s *goquery.Selection) {
		if v, ok := l.read(s); ok {
			out = append(out, v)
		}
	})
	return out
}

func (l Locator) read(s *goquery.Selection) (string, bool) {
	switch l.mode {
	case readAttr:
		v, ok := s.Attr(l.attr)
		return strings.TrimSpace(v), ok
	case readHTML:
		h, err := s.Html()
		if err != nil {
			return "", false
		}
		return h, true
	default:
		return cleaner.Normalize(s.Text()), true
	}
}

// firstText returns the first non-empty text any of locs yields under root.
func firstText(root *goquery.Selection, locs []Locator) string {
	for _, l := range locs {
		for _, v := range l.candidates(root) {
			if v != "" {
				return v
			}
		}
	}
	return ""
}
