package repository

import "strings"

// termSeparator joins the parts of composite term values such as
// (provider, key) or (type, value). Parts containing it are rejected before
// they reach a term, see HasSeparator.
const termSeparator = "\x1f"

// HasSeparator reports whether s would make a composite term ambiguous.
func HasSeparator(s string) bool {
	return strings.Contains(s, termSeparator)
}

// Term is a single exact-match index entry of a document.
type Term struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// NewTerm builds a term from one or more value parts.
func NewTerm(field string, parts ...string) Term {
	return Term{Field: field, Value: strings.Join(parts, termSeparator)}
}

// Key is the flattened form used by key-value backends.
func (t Term) Key() string {
	return t.Field + ":" + t.Value
}

// Document is an aggregate the document store can persist.
type Document interface {
	DocumentID() string
	// AssignDocumentID is called by the store on first persistence only.
	AssignDocumentID(id string)
	DocumentVersion() int64
	SetDocumentVersion(v int64)
	// IndexTerms lists the terms the document can be queried by.
	IndexTerms() []Term
}

// Collection describes how documents of one kind are named and allocated.
type Collection[T Document] struct {
	Name string
	New  func() T
}

// Query selects the documents carrying Term, ordered by id.
// A zero Limit means no limit.
type Query struct {
	Term   Term
	Offset int
	Limit  int
}

// Window applies Offset and Limit to an already ordered slice.
func Window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Diff returns the terms in before that are not in after, and the terms in
// after that are not in before.
func Diff(before, after []Term) (removed, added []Term) {
	seen := make(map[Term]struct{}, len(after))
	for _, t := range after {
		seen[t] = struct{}{}
	}
	old := make(map[Term]struct{}, len(before))
	for _, t := range before {
		old[t] = struct{}{}
		if _, ok := seen[t]; !ok {
			removed = append(removed, t)
		}
	}
	for _, t := range after {
		if _, ok := old[t]; !ok {
			added = append(added, t)
			old[t] = struct{}{}
		}
	}
	return removed, added
}

// Keys flattens terms with Term.Key, dropping duplicates.
func Keys(terms []Term) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		k := t.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
