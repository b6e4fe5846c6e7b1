package extract

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Spec is one entry of a Schema. It names the result fields it can set and
// resolves them against a document. Implementations only ever fill fields
// that are still unset.
type Spec interface {
	Targets() []string
	resolve(root *goquery.Selection, r *Result)
}

// Field resolves a single scalar value.
type Field struct {
	Name      string
	Locators  []Locator
	Fallbacks []Source
	Process   Processor // default: Trim
	Validate  Validator // default: NonEmpty

	// DistinctFrom rejects a value equal to any of these already-resolved
	// fields.
	DistinctFrom []string
}

func (f Field) Targets() []string { return []string{f.Name} }

func (f Field) resolve(root *goquery.Selection, r *Result) {
	if r.Has(f.Name) {
		return
	}
	accept := func(v string) bool {
		if !validate(f.Validate, v) {
			return false
		}
		for _, other := range f.DistinctFrom {
			if r.Has(other) && r.Text(other) == v {
				return false
			}
		}
		return true
	}
	if v, strategy, ok := cascade(root, f.Locators, f.Fallbacks, f.Process, accept); ok {
		r.set(f.Name, Value{Text: v, Strategy: strategy})
	}
}

// Compound resolves one string and splits it into two fields on the first
// occurrence of Sep. Only the part after Sep is cut at the first rune of Cut.
// Without Sep the whole string goes to First and Second stays unset.
type Compound struct {
	Name      string
	Locators  []Locator
	Fallbacks []Source
	Process   Processor
	Validate  Validator

	Sep    string
	Cut    string
	First  string
	Second string

	// FallbackOnly skips the compound once First is resolved, so Second is
	// never paired with a First that came from elsewhere.
	FallbackOnly bool
}

func (c Compound) Targets() []string { return []string{c.First, c.Second} }

func (c Compound) resolve(root *goquery.Selection, r *Result) {
	if c.FallbackOnly && r.Has(c.First) {
		return
	}
	accept := func(v string) bool { return validate(c.Validate, v) }
	v, strategy, ok := cascade(root, c.Locators, c.Fallbacks, c.Process, accept)
	if !ok {
		return
	}
	strategy = c.Name + " via " + strategy
	first, second := SplitCompound(v, c.Sep, c.Cut)
	if first != "" && !r.Has(c.First) {
		r.set(c.First, Value{Text: first, Strategy: strategy})
	}
	if second != "" && !r.Has(c.Second) {
		r.set(c.Second, Value{Text: second, Strategy: strategy})
	}
}

// SplitCompound splits s once on the first sep. The tail is truncated at
// the first rune of cut; the head never is. When sep is absent the whole
// of s is the head and the tail is "".
func SplitCompound(s, sep, cut string) (first, second string) {
	head, tail, found := strings.Cut(s, sep)
	if sep == "" || !found {
		return strings.TrimSpace(s), ""
	}
	if cut != "" {
		if i := strings.IndexAny(tail, cut); i >= 0 {
			tail = tail[:i]
		}
	}
	return strings.TrimSpace(head), strings.TrimSpace(tail)
}

// List gathers every match of every locator into a deduplicated list in
// first-seen order, capped at Limit (0 means no cap).
type List struct {
	Name     string
	Locators []Locator
	Process  Processor
	Validate Validator
	Limit    int

	// DistinctFrom drops items equal to any of these already-resolved fields.
	DistinctFrom []string
}

func (l List) Targets() []string { return []string{l.Name} }

func (l List) resolve(root *goquery.Selection, r *Result) {
	if r.Has(l.Name) {
		return
	}
	seen := make(map[string]struct{})
	var items []string
	var strategy string

collect:
	for _, loc := range l.Locators {
		for _, raw := range loc.All().candidates(root) {
			v := process(l.Process, raw)
			if !validate(l.Validate, v) || l.excluded(r, v) {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			items = append(items, v)
			if strategy == "" {
				strategy = "locator " + loc.String()
			}
			if l.Limit > 0 && len(items) >= l.Limit {
				break collect
			}
		}
	}
	if len(items) > 0 {
		r.set(l.Name, Value{List: items, Strategy: strategy})
	}
}

func (l List) excluded(r *Result, v string) bool {
	for _, other := range l.DistinctFrom {
		if r.Has(other) && r.Text(other) == v {
			return true
		}
	}
	return false
}

// Education walks entry containers, reads a school and degree from each and
// classifies the degree. The first undergraduate entry wins the
// Undergraduate field; graduate entries accumulate in Graduate, deduplicated
// on the exact (school, degree) pair. An entry whose degree matches neither
// keyword set fills Undergraduate only while it is still empty. Name, when
// set, receives every classified entry.
type Education struct {
	Name          string
	Undergraduate string
	Graduate      string

	Entries []Locator
	School  []Locator
	Degree  []Locator

	UndergraduateKeywords []string
	GraduateKeywords      []string
}

func (e Education) Targets() []string {
	out := []string{e.Undergraduate, e.Graduate}
	if e.Name != "" {
		out = append(out, e.Name)
	}
	return out
}

func (e Education) resolve(root *goquery.Selection, r *Result) {
	var (
		all       []Entry
		undergrad string
		grads     []Entry
	)
	seenNode := make(map[*html.Node]struct{})
	seenGrad := make(map[[2]string]struct{})

	for _, loc := range e.Entries {
		loc.matches(root).Each(func(_ int, s *goquery.Selection) {
			node := s.Get(0)
			if _, dup := seenNode[node]; dup {
				return
			}
			seenNode[node] = struct{}{}

			school := firstText(s, e.School)
			if school == "" {
				return
			}
			degree := firstText(s, e.Degree)
			entry := Entry{School: school, Degree: degree, Category: Classify(degree, e.UndergraduateKeywords, e.GraduateKeywords)}
			all = append(all, entry)

			switch entry.Category {
			case Graduate:
				key := [2]string{school, degree}
				if _, dup := seenGrad[key]; !dup {
					seenGrad[key] = struct{}{}
					grads = append(grads, entry)
				}
			default:
				// Unknown degrees default to undergraduate while none is set.
				if undergrad == "" {
					undergrad = school
				}
			}
		})
	}

	const strategy = "education"
	if undergrad != "" && !r.Has(e.Undergraduate) {
		r.set(e.Undergraduate, Value{Text: undergrad, Strategy: strategy})
	}
	if len(grads) > 0 && !r.Has(e.Graduate) {
		r.set(e.Graduate, Value{Entries: grads, Strategy: strategy})
	}
	if e.Name != "" && len(all) > 0 && !r.Has(e.Name) {
		r.set(e.Name, Value{Entries: all, Strategy: strategy})
	}
}

// Classify sorts a degree string into Undergraduate, Graduate or Unknown.
// A set matches when the lower-cased degree, dots removed, contains one of
// its keywords ("M.Sc." is "msc" and contains "ms"). A keyword of up to
// three letters does not count when every occurrence sits inside a word
// that is itself a keyword of the other set, so "MBA" never counts as "ba".
// The undergraduate set is checked first.
func Classify(degree string, undergraduate, graduate []string) Category {
	compact := strings.ReplaceAll(strings.ToLower(degree), ".", "")
	words := strings.FieldsFunc(compact, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	if matchesAny(compact, words, undergraduate, graduate) {
		return Undergraduate
	}
	if matchesAny(compact, words, graduate, undergraduate) {
		return Graduate
	}
	return Unknown
}

func matchesAny(compact string, words, keywords, other []string) bool {
	for _, kw := range keywords {
		if kw == "" || !strings.Contains(compact, kw) {
			continue
		}
		if len(kw) > 3 || !shadowed(compact, words, kw, other) {
			return true
		}
	}
	return false
}

// shadowed reports whether every occurrence of kw lies inside words that
// are keywords of other.
func shadowed(compact string, words []string, kw string, other []string) bool {
	inside := 0
	for _, w := range words {
		if w != kw && slices.Contains(other, w) {
			inside += strings.Count(w, kw)
		}
	}
	return inside > 0 && inside >= strings.Count(compact, kw)
}

// cascade runs locators then fallbacks and returns the first processed value
// accept approves, with a description of where it came from.
func cascade(root *goquery.Selection, locs []Locator, fallbacks []Source, p Processor, accept func(string) bool) (string, string, bool) {
	for _, loc := range locs {
		for _, raw := range loc.candidates(root) {
			if v := process(p, raw); accept(v) {
				return v, "locator " + loc.String(), true
			}
		}
	}
	for _, src := range fallbacks {
		for _, raw := range src.values(root) {
			if v := process(p, raw); accept(v) {
				return v, "fallback " + src.String(), true
			}
		}
	}
	return "", "", false
}

func process(p Processor, raw string) string {
	if p == nil {
		return Trim(raw)
	}
	return p(raw)
}

func validate(v Validator, s string) bool {
	if v == nil {
		return NonEmpty(s)
	}
	return s != "" && v(s)
}
