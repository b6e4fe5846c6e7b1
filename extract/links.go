package extract

import (
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Cards returns the elements matched by the first container locator that
// matches anything, at most limit of them (0 means all).
func Cards(root *goquery.Selection, containers []Locator, limit int) []*goquery.Selection {
	for _, loc := range containers {
		m := loc.matches(root)
		if m.Length() == 0 {
			continue
		}
		var cards []*goquery.Selection
		m.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			cards = append(cards, s)
			return limit <= 0 || len(cards) < limit
		})
		return cards
	}
	return nil
}

// Link is an anchor found on a page.
type Link struct {
	URL  string
	Text string
}

// Links collects http(s) anchors under root whose path matches pattern,
// resolved against base with query and fragment stripped. Duplicates are
// dropped; at most limit are returned (0 means all).
func Links(root *goquery.Selection, base *url.URL, pattern *regexp.Regexp, limit int) []Link {
	seen := make(map[string]struct{})
	var out []Link
	root.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		abs, ok := resolveURL(base, href)
		if !ok {
			return true
		}
		if pattern != nil && !pattern.MatchString(abs.Path) {
			return true
		}
		key := abs.String()
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		out = append(out, Link{URL: key, Text: Trim(s.Text())})
		return limit <= 0 || len(out) < limit
	})
	return out
}

// ResolveURL makes ref absolute against base and strips query and
// fragment. It returns "" for non-http(s) or unparseable references.
func ResolveURL(base *url.URL, ref string) string {
	u, ok := resolveURL(base, ref)
	if !ok {
		return ""
	}
	return u.String()
}

func resolveURL(base *url.URL, ref string) (*url.URL, bool) {
	if ref == "" {
		return nil, false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, true
}
