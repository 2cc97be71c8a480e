package codebase

import (
	"fmt"
	"sort"

	"github.com/funvibe/flowcheck/internal/ast"
)

// DuplicateSymbolError indicates a class-like or function declared twice.
type DuplicateSymbolError struct {
	Kind  string
	Name  string
	Span  ast.Span // the rejected declaration
	First ast.Span // the declaration that was kept, when known
}

func (e *DuplicateSymbolError) Error() string {
	if e.First.Line == 0 {
		return fmt.Sprintf("%s: duplicate %s %s", e.Span, e.Kind, e.Name)
	}
	return fmt.Sprintf("%s: duplicate %s %s, first declared at %s", e.Span, e.Kind, e.Name, e.First)
}

// Merge reduces partial metadata into one. Partials are merged in order;
// on a duplicate the earlier declaration is kept and the later reported.
// Records are moved, not copied: a partial must not be used after merging.
func Merge(partials ...*Metadata) (*Metadata, []error) {
	out := New()
	var errs []error
	for _, p := range partials {
		if p == nil {
			continue
		}
		for _, key := range sortedKeys(p.Classes) {
			c := p.Classes[key]
			if first, exists := out.Classes[key]; exists {
				errs = append(errs, &DuplicateSymbolError{Kind: c.Kind.String(), Name: c.Name, Span: c.Span, First: first.Span})
				continue
			}
			out.Classes[key] = c
		}
		for _, key := range sortedKeys(p.Functions) {
			f := p.Functions[key]
			if first, exists := out.Functions[key]; exists {
				errs = append(errs, &DuplicateSymbolError{Kind: "function", Name: f.Name, Span: f.Span, First: first.Span})
				continue
			}
			out.Functions[key] = f
		}
	}
	return out, errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
