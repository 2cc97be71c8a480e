// codebase/codebase.go - Codebase metadata entry point
//
// The metadata is split into focused modules:
// - metadata.go: ClassLike, Function, Property and the other records
// - lookup.go: read-only queries, including the typesystem.Codebase and
//   expander.Lookup implementations
// - scan.go: lifting declaration nodes of one unit into partial metadata
// - merge.go: reducing partial metadata, duplicate detection
// - populate.go: ancestor resolution, member inheritance, type expansion
// - load.go: the embedded builtin declarations
// - overlay.go: worker-local memoized inferred types
// - references.go: the symbol-reference graph

package codebase

import "strings"

// Metadata is the index of every class-like and function of the analyzed
// code. It is built by Scan/Merge/Populate and read-only afterwards.
type Metadata struct {
	Classes   map[string]*ClassLike // by lowercase name
	Functions map[string]*Function  // by lowercase name

	populated bool
}

// New returns empty metadata.
func New() *Metadata {
	return &Metadata{
		Classes:   make(map[string]*ClassLike),
		Functions: make(map[string]*Function),
	}
}

// IsPopulated reports whether Populate has run.
func (m *Metadata) IsPopulated() bool { return m.populated }

func lower(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, `\`))
}
