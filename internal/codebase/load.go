package codebase

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/funvibe/flowcheck/internal/ast"
)

// BuiltinsFile is the span file of every builtin declaration.
const BuiltinsFile = "<builtins>"

//go:embed builtins.yaml
var builtinsYAML []byte

// Builtins returns fresh partial metadata for the runtime classes and
// functions. It panics if the embedded declarations are malformed.
func Builtins() *Metadata {
	prog, err := ast.DecodeYAML(builtinsYAML, BuiltinsFile)
	if err != nil {
		panic(fmt.Sprintf("codebase: builtins: %v", err))
	}
	meta, errs := Scan(prog)
	if len(errs) > 0 {
		panic(fmt.Sprintf("codebase: builtins: %v", errors.Join(errs...)))
	}
	return meta
}

// IsBuiltin reports whether a declaration comes from the builtins.
func IsBuiltin(span ast.Span) bool {
	return span.File == BuiltinsFile
}

// Build scans the units in order, merges them after the builtins and
// populates the result. Pipelines scan concurrently and call Merge and
// Populate themselves; Build is the serial equivalent.
func Build(units ...*ast.Program) (*Metadata, []error) {
	partials := []*Metadata{Builtins()}
	var errs []error
	for _, u := range units {
		meta, scanErrs := Scan(u)
		errs = append(errs, scanErrs...)
		partials = append(partials, meta)
	}
	meta, mergeErrs := Merge(partials...)
	errs = append(errs, mergeErrs...)
	errs = append(errs, meta.Populate()...)
	return meta, errs
}
