package extract

import "sort"

// Category is the education level an entry was classified into.
type Category int

const (
	Unknown Category = iota
	Undergraduate
	Graduate
)

func (c Category) String() string {
	switch c {
	case Undergraduate:
		return "undergraduate"
	case Graduate:
		return "graduate"
	default:
		return "unknown"
	}
}

// Entry is one structured education record.
type Entry struct {
	School   string
	Degree   string
	Category Category
}

// Value is a resolved field. Exactly one of Text, List or Entries is
// populated; Strategy names the locator or fallback that produced it.
type Value struct {
	Text     string
	List     []string
	Entries  []Entry
	Strategy string
}

// Result maps field names to resolved values. Unset fields are simply
// absent; every accessor returns a zero value for them.
type Result struct {
	values map[string]Value
}

func newResult() *Result {
	return &Result{values: make(map[string]Value)}
}

func (r *Result) set(name string, v Value) {
	r.values[name] = v
}

// Has reports whether name resolved.
func (r *Result) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Text returns the scalar value of name, or "".
func (r *Result) Text(name string) string {
	return r.values[name].Text
}

// List returns a copy of a multi-valued field. Never nil.
func (r *Result) List(name string) []string {
	src := r.values[name].List
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Entries returns a copy of a structured field. Never nil.
func (r *Result) Entries(name string) []Entry {
	src := r.values[name].Entries
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Strategy returns which locator or fallback satisfied name.
func (r *Result) Strategy(name string) string {
	return r.values[name].Strategy
}

// Fields lists resolved field names in sorted order.
func (r *Result) Fields() []string {
	names := make([]string, 0, len(r.values))
	for k := range r.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len is the number of resolved fields.
func (r *Result) Len() int { return len(r.values) }

// LogAttrs flattens provenance into slog key/value pairs, e.g.
// slog.Debug("extracted", r.LogAttrs()...).
func (r *Result) LogAttrs() []any {
	var attrs []any
	for _, name := range r.Fields() {
		attrs = append(attrs, name, r.values[name].Strategy)
	}
	return attrs
}
