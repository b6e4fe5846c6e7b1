// Package extract resolves a fixed schema of fields from loosely structured
// HTML. Each field is a declarative cascade: CSS locators tried in order,
// then coarser fallback sources (title, meta tags, JSON-LD), each value
// cleaned and validated before it is accepted. A field nothing satisfies is
// left unset; extraction never fails because a field is missing.
//
// Extraction is a pure function of (document, schema). It performs no I/O
// and keeps no state between calls, so callers may run it concurrently.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNilDocument is returned when Extract is handed no document.
	ErrNilDocument = errors.New("extract: nil document")
	// ErrEmptyDocument is returned by Parse for blank markup.
	ErrEmptyDocument = errors.New("extract: empty document")
)

// Schema is an ordered list of specs. Order matters only for dependent
// fields: a spec sees what earlier specs resolved, and a field targeted by
// several specs keeps the first value it receives.
type Schema struct {
	Name  string
	Specs []Spec
}

// NewSchema builds a schema from specs in resolution order.
func NewSchema(name string, specs ...Spec) Schema {
	return Schema{Name: name, Specs: specs}
}

// Fields lists every field the schema can set, in declaration order.
func (s Schema) Fields() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, spec := range s.Specs {
		for _, t := range spec.Targets() {
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// Parse builds a queryable document from raw markup. Blank input is
// rejected so callers never hand Extract an empty tree.
func Parse(raw string) (*goquery.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyDocument
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("extract: parse document: %w", err)
	}
	return doc, nil
}

// Extract resolves schema against doc. The only error is ErrNilDocument.
func Extract(doc *goquery.Document, schema Schema) (*Result, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	return ExtractFrom(doc.Selection, schema)
}

// ExtractFrom resolves schema against a subtree, e.g. one job card of a
// search page.
func ExtractFrom(root *goquery.Selection, schema Schema) (*Result, error) {
	if root == nil || root.Length() == 0 {
		return nil, ErrNilDocument
	}
	r := newResult()
	for _, spec := range schema.Specs {
		if spec == nil || resolved(r, spec.Targets()) {
			continue
		}
		spec.resolve(root, r)
	}
	return r, nil
}

func resolved(r *Result, targets []string) bool {
	for _, t := range targets {
		if t != "" && !r.Has(t) {
			return false
		}
	}
	return true
}
