package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/ysmood/gson"

	"github.com/use-agent/harvest/cleaner"
)

// readableBaseURL anchors relative links when readability renders a page.
// Only TextContent is used, so the host never leaks into results.
const readableBaseURL = "https://www.linkedin.com/"

var (
	titleSel  = cascadia.MustCompile("title")
	ldJSONSel = cascadia.MustCompile(`script[type="application/ld+json"]`)
)

// Source is a fallback strategy consulted only when none of a field's
// locators produced an accepted value.
type Source struct {
	name   string
	lookup func(root *goquery.Selection) []string
	before string
}

func (s Source) String() string {
	if s.before != "" {
		return s.name + " before " + fmt.Sprintf("%q", s.before)
	}
	return s.name
}

// Before keeps only values that contain sep and cuts them at its first
// occurrence. Values without sep are dropped.
func (s Source) Before(sep string) Source {
	s.before = sep
	return s
}

func (s Source) values(root *goquery.Selection) []string {
	if s.lookup == nil {
		return nil
	}
	raw := s.lookup(root)
	if s.before == "" {
		return raw
	}
	var out []string
	for _, v := range raw {
		if head, _, found := strings.Cut(v, s.before); found {
			out = append(out, strings.TrimSpace(head))
		}
	}
	return out
}

// Title reads the document <title>. With a non-empty sep it behaves like
// Title("").Before(sep).
func Title(sep string) Source {
	return Source{
		name: "title",
		lookup: func(root *goquery.Selection) []string {
			t := root.FindMatcher(titleSel).First()
			if t.Length() == 0 {
				return nil
			}
			return []string{cleaner.Normalize(t.Text())}
		},
		before: sep,
	}
}

// Meta reads the content of <meta attr="key">, e.g. Meta("property", "og:title")
// or Meta("name", "description").
func Meta(attr, key string) Source {
	sel := metaSelector(attr, key)
	return Source{
		name: "meta " + key,
		lookup: func(root *goquery.Selection) []string {
			var out []string
			root.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
				if v, ok := s.Attr("content"); ok {
					out = append(out, cleaner.Normalize(v))
				}
			})
			return out
		},
	}
}

// MetaPair joins two meta values with a space, e.g. a first and last name.
// Both must be present.
func MetaPair(attr, first, second string) Source {
	a, b := metaSelector(attr, first), metaSelector(attr, second)
	return Source{
		name: "meta " + first + "+" + second,
		lookup: func(root *goquery.Selection) []string {
			x, okX := root.FindMatcher(a).First().Attr("content")
			y, okY := root.FindMatcher(b).First().Attr("content")
			x, y = cleaner.Normalize(x), cleaner.Normalize(y)
			if !okX || !okY || x == "" || y == "" {
				return nil
			}
			return []string{x + " " + y}
		},
	}
}

// JSONLD reads a dot path (e.g. "worksFor.name") from every embedded
// application/ld+json block. Top-level arrays and @graph lists are walked
// node by node. A non-empty typ restricts the lookup to nodes whose @type
// equals it. Only string values are returned.
func JSONLD(typ, path string) Source {
	return Source{
		name: "json-ld " + path,
		lookup: func(root *goquery.Selection) []string {
			var out []string
			root.FindMatcher(ldJSONSel).Each(func(_ int, s *goquery.Selection) {
				for _, node := range ldNodes(gson.NewFrom(s.Text())) {
					if typ != "" && !ldHasType(node, typ) {
						continue
					}
					v, ok := node.Gets(gson.Path(path)...)
					if !ok {
						continue
					}
					if str, isStr := v.Val().(string); isStr {
						out = append(out, cleaner.Normalize(str))
					}
				}
			})
			return out
		},
	}
}

// ldNodes flattens a JSON-LD block into its top-level nodes. Unparseable
// blocks decode to nil and yield nothing.
func ldNodes(doc gson.JSON) []gson.JSON {
	switch doc.Val().(type) {
	case []interface{}:
		return doc.Arr()
	case map[string]interface{}:
		if graph, ok := doc.Gets("@graph"); ok {
			return append([]gson.JSON{doc}, graph.Arr()...)
		}
		return []gson.JSON{doc}
	default:
		return nil
	}
}

func ldHasType(node gson.JSON, typ string) bool {
	t, ok := node.Gets("@type")
	if !ok {
		return false
	}
	switch v := t.Val().(type) {
	case string:
		return v == typ
	case []interface{}:
		for _, el := range t.Arr() {
			if s, isStr := el.Val().(string); isStr && s == typ {
				return true
			}
		}
	}
	return false
}

// PageText searches the normalized text of the whole root for re and
// returns the leftmost match.
func PageText(re *regexp.Regexp) Source {
	return Source{
		name: "text " + re.String(),
		lookup: func(root *goquery.Selection) []string {
			if m := re.FindString(cleaner.Normalize(root.Text())); m != "" {
				return []string{m}
			}
			return nil
		},
	}
}

// Readable runs readability over a rendered copy of root and returns the
// main content text. The tree itself is never modified.
func Readable() Source {
	return Source{
		name: "readability",
		lookup: func(root *goquery.Selection) []string {
			raw, err := goquery.OuterHtml(root)
			if err != nil {
				return nil
			}
			if text, ok := cleaner.ReadableText(raw, readableBaseURL); ok {
				return []string{text}
			}
			return nil
		},
	}
}

func metaSelector(attr, key string) cascadia.Selector {
	return cascadia.MustCompile(fmt.Sprintf(`meta[%s=%q]`, attr, key))
}
