package template

import (
	"errors"
	"testing"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/typesystem"
	"github.com/funvibe/flowcheck/internal/typesystem/typeparse"
)

const collectionUnit = `
statements:
  - kind: class
    name: Collection
    templates: [{name: TKey, as: array-key}, TValue]
    methods:
      - {name: first, return: "?TValue"}
  - kind: class
    name: IntList
    templates: [TItem]
    parent: "Collection<int, TItem>"
  - kind: class
    name: Names
    parent: "IntList<string>"
`

func buildMeta(t *testing.T, src string) *codebase.Metadata {
	t.Helper()
	prog, err := ast.DecodeYAML([]byte(src), "unit.yaml")
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	meta, errs := codebase.Build(prog)
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errors.Join(errs...))
	}
	return meta
}

func parse(t *testing.T, src string, templates map[string]typeparse.TemplateScope) *typesystem.Union {
	t.Helper()
	u, err := typeparse.Parse(src, typeparse.Options{Templates: templates})
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return u
}

func named(name string, params ...*typesystem.Union) *typesystem.TNamedObject {
	return &typesystem.TNamedObject{Name: name, TypeParams: params}
}

func TestResultLayering(t *testing.T) {
	root := NewResult()
	root.Define("T", "fn-f", typesystem.Mixed())
	root.Bind("T", "fn-f", typesystem.Int())

	child := root.Derive()
	child.Define("U", "fn-g", nil)
	child.AddLowerBound("U", "fn-g", Bound{Type: typesystem.String()})
	child.AddLowerBound("U", "fn-g", Bound{Type: typesystem.LiteralInt(1), ArgOffset: 1})
	child.Bind("T", "fn-f", typesystem.Float())

	if u, _ := root.Lookup("T", "fn-f"); u.ID() != "int" {
		t.Errorf("parent binding changed to %s", u.ID())
	}
	if u, _ := child.Lookup("T", "fn-f"); u.ID() != "float" {
		t.Errorf("child binding = %s, want float", u.ID())
	}
	if root.HasLowerBound("U", "fn-g") {
		t.Error("child bounds leaked into the parent")
	}
	defs := child.Definitions()
	if len(defs) != 2 || defs[0].Name != "T" || defs[1].Name != "U" {
		t.Errorf("Definitions = %+v", defs)
	}
	u, ok := child.Resolved("U", "fn-g", nil)
	if !ok || !u.ContainsID("string") || !u.ContainsID("int(1)") {
		t.Errorf("Resolved(U) = %v, %v", u, ok)
	}
	if _, ok := child.Resolved("V", "fn-g", nil); ok {
		t.Error("an unknown template must not resolve")
	}
}

func TestCollect(t *testing.T) {
	meta := buildMeta(t, collectionUnit)

	tests := []struct {
		name      string
		class     string
		declaring string
		lhs       *typesystem.TNamedObject
		selfCall  bool
		want      map[string]map[string]string
	}{
		{
			name:      "direct arguments",
			class:     "Collection",
			declaring: "Collection",
			lhs:       named("Collection", typesystem.String(), typesystem.Float()),
			want: map[string]map[string]string{
				"TKey":   {"Collection": "string"},
				"TValue": {"Collection": "float"},
			},
		},
		{
			name:      "missing arguments fall back to the bound",
			class:     "Collection",
			declaring: "Collection",
			lhs:       named("Collection"),
			want: map[string]map[string]string{
				"TKey":   {"Collection": "array-key"},
				"TValue": {"Collection": "mixed"},
			},
		},
		{
			name:      "through extends",
			class:     "IntList",
			declaring: "Collection",
			lhs:       named("IntList", typesystem.Bool()),
			want: map[string]map[string]string{
				"TItem":  {"IntList": "bool"},
				"TKey":   {"Collection": "int"},
				"TValue": {"Collection": "bool"},
			},
		},
		{
			name:      "through two levels",
			class:     "Names",
			declaring: "Collection",
			lhs:       named("Names"),
			want: map[string]map[string]string{
				"TKey":   {"Collection": "int"},
				"TValue": {"Collection": "string"},
			},
		},
		{
			name:      "self call keeps own templates",
			class:     "IntList",
			declaring: "Collection",
			selfCall:  true,
			want: map[string]map[string]string{
				"TKey":   {"Collection": "int"},
				"TValue": {"Collection": "TItem:IntList"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(meta, tt.class, tt.declaring, tt.lhs, tt.selfCall)
			if len(got) != len(tt.want) {
				t.Fatalf("Collect = %v, want %v", got, tt.want)
			}
			for name, byEntity := range tt.want {
				for entity, want := range byEntity {
					u, ok := got[name][entity]
					if !ok {
						t.Errorf("%s of %s not collected", name, entity)
						continue
					}
					if u.ID() != want {
						t.Errorf("%s of %s = %s, want %s", name, entity, u.ID(), want)
					}
				}
			}
		})
	}
}

// cyclicLookup declares Loop<A as list<B>, B as list<A>>, which the
// scanner cannot produce because a bound only sees earlier templates.
type cyclicLookup struct {
	*codebase.Metadata
}

func (cyclicLookup) ClassTemplateConstraint(class, name string) (*typesystem.Union, bool) {
	other := map[string]string{"A": "B", "B": "A"}[name]
	if other == "" {
		return nil, false
	}
	gp := typesystem.TGenericParam{Name: other, DefiningEntity: "Loop", As: typesystem.Mixed()}
	return typesystem.NewUnion(typesystem.NewList(typesystem.NewUnion(gp))), true
}

func TestResolveTemplateParameterCycle(t *testing.T) {
	a := typesystem.NewUnion(typesystem.TGenericParam{Name: "A", DefiningEntity: "Loop", As: typesystem.Mixed()})
	got := ResolveTemplateParameter(cyclicLookup{codebase.New()}, "Loop", a, nil)
	if got.ID() != "list<list<mixed>>" {
		t.Errorf("cyclic bounds resolved to %s", got.ID())
	}
}

func TestInferBounds(t *testing.T) {
	scope := map[string]typeparse.TemplateScope{
		"T": {Entity: "fn-f"},
		"K": {Entity: "fn-f", As: typesystem.ArrayKeyType()},
	}
	tests := []struct {
		name  string
		param string
		arg   string
		want  map[string]string
	}{
		{"bare", "T", "5", map[string]string{"T": "int(5)"}},
		{"nullable drops null", "?T", "string|null", map[string]string{"T": "string"}},
		{"list element", "list<T>", "list<float>", map[string]string{"T": "float"}},
		{"array key and value", "array<K, T>", "array<string, bool>", map[string]string{"K": "string", "T": "bool"}},
		{"list into array", "array<K, T>", "list<int>", map[string]string{"K": "non-negative-int", "T": "int"}},
		{"shape", "array{a: T}", "array{a: int, b: string}", map[string]string{"T": "int"}},
		{"callable return", "callable(): T", "callable(): string", map[string]string{"T": "string"}},
		{"concrete param binds nothing", "int", "int", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult()
			r.Define("T", "fn-f", nil)
			r.Define("K", "fn-f", typesystem.ArrayKeyType())
			InferBounds(nil, parse(t, tt.param, scope), parse(t, tt.arg, nil), r, 0, 0)
			for _, name := range []string{"T", "K"} {
				u, ok := r.Resolved(name, "fn-f", nil)
				want, expected := tt.want[name]
				if ok != expected {
					t.Errorf("%s resolved = %v, want %v (%v)", name, ok, expected, u)
					continue
				}
				if ok && u.ID() != want {
					t.Errorf("%s = %s, want %s", name, u.ID(), want)
				}
			}
		})
	}
}

func TestInferBoundsThroughGenericObject(t *testing.T) {
	meta := buildMeta(t, collectionUnit)
	scope := map[string]typeparse.TemplateScope{"V": {Entity: "fn-first"}}
	param := parse(t, "Collection<int, V>", scope)
	param = typesystem.TransformUnion(param, func(a typesystem.Atomic) *typesystem.Union {
		if ref, ok := a.(typesystem.TReference); ok {
			return typesystem.NewUnion(typesystem.TNamedObject{Name: ref.Symbol, TypeParams: ref.TypeParams})
		}
		return nil
	})

	r := NewResult()
	r.Define("V", "fn-first", nil)
	arg := typesystem.NewUnion(typesystem.TNamedObject{Name: "IntList", TypeParams: []*typesystem.Union{typesystem.Float()}})
	InferBounds(meta, param, arg, r, 0, 2)

	bounds := r.LowerBounds("V", "fn-first")
	if len(bounds) != 1 {
		t.Fatalf("bounds = %+v", bounds)
	}
	if bounds[0].Type.ID() != "float" || bounds[0].Depth != 1 || bounds[0].ArgOffset != 2 {
		t.Errorf("bound = {%s %d %d}", bounds[0].Type.ID(), bounds[0].Depth, bounds[0].ArgOffset)
	}
}

func TestReplaceIdempotent(t *testing.T) {
	meta := buildMeta(t, collectionUnit)
	r := NewResult()
	r.BindAll(Collect(meta, "IntList", "Collection", named("IntList", typesystem.Bool()), false))

	first, _ := meta.Method("Collection", "first")
	once := Replace(first.ReturnType, r, meta)
	twice := Replace(first.ReturnType, r, meta)
	if once.ID() != twice.ID() {
		t.Fatalf("Replace not idempotent: %s vs %s", once.ID(), twice.ID())
	}
	if !once.ContainsID("bool") || !once.ContainsID("null") || len(once.Types) != 2 {
		t.Errorf("first() = %s, want bool|null", once.ID())
	}
	if !once.HadTemplate {
		t.Error("replaced union should be marked HadTemplate")
	}
	if again := Replace(once, r, meta); again.ID() != once.ID() {
		t.Errorf("replacing a resolved type changed it: %s", again.ID())
	}
}
