package invocation

import (
	"errors"
	"testing"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/template"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
	"github.com/funvibe/flowcheck/internal/typesystem/typeparse"
)

const unit = `
statements:
  - kind: function
    name: choose
    params: [{name: $x, type: "int|string"}]
    return: "($x is int ? string : bool)"
  - kind: function
    name: reject
    params: [{name: $x, type: "int|string"}]
    return: "($x is not int ? string : bool)"
  - kind: function
    name: pick
    templates: [T]
    params: [{name: $x, type: T}]
    return: "(T is int ? string : bool)"
  - kind: function
    name: first
    templates: [T]
    params: [{name: $items, type: "list<T>"}]
    return: T
  - kind: class
    name: Builder
    methods:
      - {name: with, return: static}
  - kind: class
    name: SubBuilder
    parent: Builder
  - kind: class
    name: Sealed
    final: true
    methods:
      - {name: with, return: static}
`

func buildMeta(t *testing.T) *codebase.Metadata {
	t.Helper()
	prog, err := ast.DecodeYAML([]byte(unit), "invocation.yaml")
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	meta, errs := codebase.Build(prog)
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errors.Join(errs...))
	}
	return meta
}

func function(t *testing.T, meta *codebase.Metadata, name string) *codebase.Function {
	t.Helper()
	f, ok := meta.Function(name)
	if !ok {
		t.Fatalf("function %s not found", name)
	}
	return f
}

func method(t *testing.T, meta *codebase.Metadata, class, name string) *codebase.Function {
	t.Helper()
	f, ok := meta.Method(class, name)
	if !ok {
		t.Fatalf("method %s::%s not found", class, name)
	}
	return f
}

func parse(t *testing.T, s string) *ts.Union {
	t.Helper()
	u, err := typeparse.Parse(s, typeparse.Options{})
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return u
}

func TestConditionalReturn(t *testing.T) {
	meta := buildMeta(t)
	tests := []struct {
		fn   string
		arg  *ts.Union
		want string
	}{
		{"choose", ts.LiteralInt(5), "string"},
		{"choose", ts.String(), "bool"},
		{"choose", parse(t, "int|string"), "string|bool"},
		{"reject", ts.LiteralInt(5), "bool"},
		{"reject", ts.String(), "string"},
	}
	for _, tt := range tests {
		t.Run(tt.fn+"/"+tt.arg.ID(), func(t *testing.T) {
			got := ResolveReturnType(meta, function(t, meta, tt.fn), nil, Args{"x": tt.arg}, Options{})
			if !got.Equals(parse(t, tt.want)) {
				t.Errorf("got %s, want %s", got.ID(), tt.want)
			}
		})
	}
}

func TestMissingArgumentIsMixed(t *testing.T) {
	meta := buildMeta(t)
	got := ResolveReturnType(meta, function(t, meta, "choose"), nil, nil, Options{})
	if !got.Equals(parse(t, "string|bool")) {
		t.Errorf("got %s, want string|bool", got.ID())
	}
}

func TestTemplateConditional(t *testing.T) {
	meta := buildMeta(t)
	pick := function(t, meta, "pick")
	r := template.NewResult()
	r.Bind("T", pick.Entity(), ts.LiteralInt(3))
	if got := ResolveReturnType(meta, pick, r, nil, Options{}); got.ID() != "string" {
		t.Errorf("pick(3) = %s, want string", got.ID())
	}
}

func TestUnboundTemplateIsNever(t *testing.T) {
	meta := buildMeta(t)
	first := function(t, meta, "first")

	if got := ResolveReturnType(meta, first, nil, nil, Options{}); !got.IsNever() {
		t.Errorf("unbound T = %s, want never", got.ID())
	}

	r := template.NewResult()
	r.Define("T", first.Entity(), nil)
	template.InferBounds(meta, first.Params[0].Type, parse(t, "list<int>"), r, 0, 0)
	if got := ResolveReturnType(meta, first, r, nil, Options{}); got.ID() != "int" {
		t.Errorf("first(list<int>) = %s, want int", got.ID())
	}
}

func TestIdempotent(t *testing.T) {
	meta := buildMeta(t)
	first := function(t, meta, "first")
	r := template.NewResult()
	r.Define("T", first.Entity(), nil)
	template.InferBounds(meta, first.Params[0].Type, parse(t, "list<string>"), r, 0, 0)

	a := ResolveReturnType(meta, first, r, nil, Options{})
	b := ResolveReturnType(meta, first, r, nil, Options{})
	if a.ID() != b.ID() {
		t.Errorf("resolution is not idempotent: %s vs %s", a.ID(), b.ID())
	}
	choose := function(t, meta, "choose")
	args := Args{"x": parse(t, "int|string")}
	if x, y := ResolveReturnType(meta, choose, r, args, Options{}), ResolveReturnType(meta, choose, r, args, Options{}); x.ID() != y.ID() {
		t.Errorf("conditional resolution is not idempotent: %s vs %s", x.ID(), y.ID())
	}
}

func TestStaticReturn(t *testing.T) {
	meta := buildMeta(t)
	sub := ts.TNamedObject{Name: "SubBuilder"}

	with := method(t, meta, "Builder", "with")
	got := ResolveReturnType(meta, with, nil, nil, Options{Static: &sub})
	n := got.NamedObjects()
	if len(n) != 1 || n[0].Name != "SubBuilder" || !n[0].IsThis {
		t.Errorf("Builder::with on SubBuilder = %s, want SubBuilder&static", got.ID())
	}

	sealed := method(t, meta, "Sealed", "with")
	other := ts.TNamedObject{Name: "Other"}
	got = ResolveReturnType(meta, sealed, nil, nil, Options{Static: &other})
	if got.ID() != "Sealed" {
		t.Errorf("final class static = %s, want Sealed", got.ID())
	}
}

func TestParamOutType(t *testing.T) {
	meta, errs := codebase.Build()
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errors.Join(errs...))
	}
	pm, ok := meta.Function("preg_match")
	if !ok {
		t.Fatal("preg_match not in builtins")
	}
	got, ok := ResolveParamOutType(meta, pm, "$matches", nil, nil, Options{})
	if !ok {
		t.Fatal("matches is by reference")
	}
	if !got.Equals(parse(t, "array<array-key, string>")) {
		t.Errorf("out type = %s", got.ID())
	}
	if _, ok := ResolveParamOutType(meta, pm, "subject", nil, nil, Options{}); ok {
		t.Error("subject is by value")
	}
}
