package codebase

import (
	"errors"
	"reflect"
	"testing"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/typesystem"
)

func decodeUnit(t *testing.T, file, src string) *ast.Program {
	t.Helper()
	prog, err := ast.DecodeYAML([]byte(src), file)
	if err != nil {
		t.Fatalf("DecodeYAML(%s): %v", file, err)
	}
	return prog
}

func buildMeta(t *testing.T, srcs ...string) *Metadata {
	t.Helper()
	var units []*ast.Program
	for i, src := range srcs {
		units = append(units, decodeUnit(t, "unit"+string(rune('a'+i))+".yaml", src))
	}
	meta, errs := Build(units...)
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errors.Join(errs...))
	}
	return meta
}

const inheritanceUnit = `
statements:
  - kind: class
    name: Base
    templates: [T]
    constants:
      - {name: A_ONE, value: 1}
    properties:
      - {name: $item, type: T}
    methods:
      - {name: get, return: T}
      - {name: describe, return: string}
  - kind: trait
    name: Greets
    methods:
      - {name: hello, return: string}
  - kind: class
    name: Child
    parent: "Base<int>"
    traits: [Greets]
    constants:
      - {name: A_TWO, value: 2}
      - {name: B, type: "self::A_*"}
    methods:
      - {name: get, return: int}
      - {name: copy, return: static}
`

func TestPopulateInheritance(t *testing.T) {
	meta := buildMeta(t, inheritanceUnit)
	if !meta.IsPopulated() {
		t.Fatal("metadata not marked populated")
	}

	methods := []struct {
		class, method, declaredIn string
	}{
		{"Child", "hello", "Greets"},
		{"child", "GET", "Child"},
		{"Child", "describe", "Base"},
		{"Base", "get", "Base"},
	}
	for _, tt := range methods {
		f, ok := meta.Method(tt.class, tt.method)
		if !ok {
			t.Errorf("Method(%s, %s) not found", tt.class, tt.method)
			continue
		}
		if f.Class != tt.declaredIn {
			t.Errorf("Method(%s, %s) declared in %s, want %s", tt.class, tt.method, f.Class, tt.declaredIn)
		}
	}
	if _, ok := meta.Method("Base", "hello"); ok {
		t.Error("Base should not see the trait method of Child")
	}

	p, ok := meta.Property("Child", "item")
	if !ok || p.Class != "Base" {
		t.Fatalf("Property(Child, item) = %+v, %v", p, ok)
	}

	if !meta.IsInstanceOf("Child", "base") || meta.IsInstanceOf("Base", "Child") {
		t.Error("IsInstanceOf does not follow the parent chain")
	}

	params, ok := meta.TemplateExtendedParams("Child", "Base")
	if !ok || len(params) != 1 || params[0].ID() != "int" {
		t.Errorf("TemplateExtendedParams(Child, Base) = %v, %v", params, ok)
	}

	if got, want := meta.ClassConstantNames("Child"), []string{"A_TWO", "B", "A_ONE"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ClassConstantNames(Child) = %v, want %v", got, want)
	}
	b, ok := meta.ClassConstantType("Child", "B")
	if !ok {
		t.Fatal("constant B missing")
	}
	if !b.ContainsID("int(1)") || !b.ContainsID("int(2)") || len(b.Types) != 2 {
		t.Errorf("self::A_* expanded to %s, want int(1)|int(2)", b.ID())
	}

	copyMethod, _ := meta.Method("Child", "copy")
	if got := copyMethod.ReturnType.ID(); got != "Child&static" {
		t.Errorf("copy() return = %s, want Child&static", got)
	}
}

func TestBuiltinGenerics(t *testing.T) {
	meta := buildMeta(t)

	if !meta.IsInstanceOf("ArrayIterator", "Traversable") {
		t.Fatal("ArrayIterator should implement Traversable through Iterator")
	}
	params, ok := meta.TemplateExtendedParams("ArrayIterator", "Traversable")
	if !ok || len(params) != 2 {
		t.Fatalf("TemplateExtendedParams(ArrayIterator, Traversable) = %v, %v", params, ok)
	}
	if params[0].ID() != "TKey:ArrayIterator as array-key" || params[1].ID() != "TValue:ArrayIterator" {
		t.Errorf("transitive params = %s, %s", params[0].ID(), params[1].ID())
	}

	if !meta.IsFinalClass("Closure") {
		t.Error("Closure should be final")
	}
	if !meta.IsInstanceOf("InvalidArgumentException", "Throwable") {
		t.Error("InvalidArgumentException should implement Throwable")
	}
	msg, ok := meta.Method("InvalidArgumentException", "getMessage")
	if !ok || msg.Class != "Exception" {
		t.Errorf("getMessage resolved to %+v", msg)
	}

	abs, ok := meta.Function("ABS")
	if !ok {
		t.Fatal("abs missing")
	}
	if _, isCond := abs.ReturnType.Single().(typesystem.TConditional); !isCond {
		t.Errorf("abs return = %s, want a conditional", abs.ReturnType.ID())
	}
}

func TestEnums(t *testing.T) {
	meta := buildMeta(t, `
statements:
  - kind: enum
    name: Suit
    backing: string
    cases: [{name: Hearts, value: H}, {name: Spades, value: S}]
    constants:
      - {name: Wild, value: {kind: class_constant, class: self, constant: Spades}}
  - kind: enum
    name: Flag
    cases: [On, Off]
`)
	if got := meta.EnumCases("Suit"); !reflect.DeepEqual(got, []string{"Hearts", "Spades"}) {
		t.Errorf("EnumCases(Suit) = %v", got)
	}
	if !meta.IsInstanceOf("Suit", "BackedEnum") || !meta.IsInstanceOf("Suit", "UnitEnum") {
		t.Error("a backed enum implements BackedEnum and UnitEnum")
	}
	if meta.IsInstanceOf("Flag", "BackedEnum") || !meta.IsInstanceOf("Flag", "UnitEnum") {
		t.Error("a pure enum implements only UnitEnum")
	}
	if !meta.IsFinalClass("Flag") {
		t.Error("enums are final")
	}
	value, ok := meta.Property("Suit", "value")
	if !ok || value.Type.ID() != "string" || !value.Readonly {
		t.Errorf("Suit::$value = %+v", value)
	}
	if _, ok := meta.Property("Flag", "value"); ok {
		t.Error("a pure enum has no value property")
	}
	wild, ok := meta.ClassConstantType("Suit", "Wild")
	if !ok || wild.ID() != "enum(Suit::Spades)" {
		t.Errorf("Suit::Wild = %v", wild)
	}
	cases, _ := meta.Method("Suit", "cases")
	if got := cases.ReturnType.ID(); got != "list<UnitEnum&static>" {
		t.Errorf("cases() return = %s", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		units []string
		check func(t *testing.T, errs []error)
	}{
		{
			name: "duplicate across units",
			units: []string{
				"statements: [{kind: class, name: Foo}]",
				"statements: [{kind: class, name: foo}, {kind: function, name: f}, {kind: function, name: F}]",
			},
			check: func(t *testing.T, errs []error) {
				var dup *DuplicateSymbolError
				n := 0
				for _, err := range errs {
					if errors.As(err, &dup) {
						n++
					}
				}
				if n != 2 {
					t.Errorf("got %d duplicate errors, want 2: %v", n, errs)
				}
			},
		},
		{
			name:  "unknown parent",
			units: []string{"statements: [{kind: class, name: A, parent: Missing}]"},
			check: wantAncestorError("Missing", "unknown class"),
		},
		{
			name:  "implements a class",
			units: []string{"statements: [{kind: class, name: A}, {kind: class, name: B, interfaces: [A]}]"},
			check: wantAncestorError("A", "interface expected, found class"),
		},
		{
			name:  "circular inheritance",
			units: []string{"statements: [{kind: class, name: A, parent: B}, {kind: class, name: B, parent: A}]"},
			check: wantAncestorError("A", "circular inheritance through"),
		},
		{
			name:  "bad signature type",
			units: []string{"statements: [{kind: function, name: f, return: 'array<int'}]"},
			check: func(t *testing.T, errs []error) {
				var te *TypeError
				if len(errs) != 1 || !errors.As(errs[0], &te) {
					t.Errorf("errs = %v, want one TypeError", errs)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var units []*ast.Program
			for _, src := range tt.units {
				units = append(units, decodeUnit(t, "unit.yaml", src))
			}
			_, errs := Build(units...)
			tt.check(t, errs)
		})
	}
}

func wantAncestorError(ancestor, reason string) func(t *testing.T, errs []error) {
	return func(t *testing.T, errs []error) {
		t.Helper()
		for _, err := range errs {
			var ae *AncestorError
			if errors.As(err, &ae) && ae.Ancestor == ancestor && ae.Reason == reason {
				return
			}
		}
		t.Errorf("no AncestorError(%s, %q) in %v", ancestor, reason, errs)
	}
}

func TestBadTypeFallsBackToMixed(t *testing.T) {
	prog := decodeUnit(t, "unit.yaml", "statements: [{kind: function, name: f, return: 'array<int'}]")
	meta, errs := Scan(prog)
	if len(errs) != 1 {
		t.Fatalf("Scan errs = %v", errs)
	}
	f, _ := meta.Function("f")
	if !f.ReturnType.IsMixed() {
		t.Errorf("return = %s, want mixed", f.ReturnType.ID())
	}
}

func TestLiteralType(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"int", &ast.IntegerLiteral{Value: 3}, "int(3)"},
		{"negative", &ast.UnaryExpression{Operator: "-", Operand: &ast.IntegerLiteral{Value: 3}}, "int(-3)"},
		{"string", &ast.StringLiteral{Value: "a"}, `string("a")`},
		{"null", &ast.NullLiteral{}, "null"},
		{"class name", &ast.ClassConstantFetch{Class: "Foo", Constant: "class"}, "non-empty-string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LiteralType(tt.expr, "").ID(); got != tt.want {
				t.Errorf("LiteralType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOverlay(t *testing.T) {
	meta := buildMeta(t, "statements: [{kind: class, name: Bag, properties: [{name: $x}]}]")
	o := NewOverlay(meta)
	if _, ok := o.InferredPropertyType("Bag", "x"); ok {
		t.Fatal("fresh overlay should know nothing")
	}
	o.AddPropertyAssignment("Bag", "x", typesystem.Int())
	o.AddPropertyAssignment("bag", "x", typesystem.String())
	u, ok := o.InferredPropertyType("BAG", "x")
	if !ok || !u.ContainsID("int") || !u.ContainsID("string") {
		t.Errorf("inferred type = %v", u)
	}
}

func TestReferences(t *testing.T) {
	meta := buildMeta(t, `
statements:
  - kind: class
    name: Base
    properties: [{name: $used}, {name: $unused}]
    methods:
      - {name: run}
      - {name: __toString, return: string}
  - kind: class
    name: Impl
    parent: Base
    methods:
      - {name: run}
      - {name: idle}
  - {kind: function, name: main}
  - {kind: function, name: helper}
`)
	refs := NewSymbolReferences()
	refs.AddMethodReference("main()", "Impl", "run")
	refs.AddPropertyReference("main()", "Impl", "used")
	refs.AddClassReference("main()", "Base")

	other := NewSymbolReferences()
	other.AddFunctionReference("unita.yaml", "main")
	other.AddFunctionReference("helper()", "helper")
	refs.Merge(other)

	if !refs.Referenced("impl::run()") {
		t.Error("impl::run() should be referenced")
	}
	if refs.Referenced("helper()") {
		t.Error("a self reference does not count")
	}

	got := refs.Unreferenced(meta)
	want := []string{"base::$unused", "helper()", "impl::idle()"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unreferenced = %v, want %v", got, want)
	}

	edges := refs.Edges()
	if len(edges) == 0 || edges[0].From != "helper()" {
		t.Errorf("edges not sorted: %v", edges)
	}
}
