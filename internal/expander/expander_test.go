package expander

import (
	"strings"
	"testing"

	"github.com/funvibe/flowcheck/internal/typesystem"
	"github.com/funvibe/flowcheck/internal/typesystem/typeparse"
)

type fakeLookup struct {
	classes   map[string]string
	enums     map[string][]string
	constants map[string]map[string]*typesystem.Union
	order     map[string][]string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		classes:   map[string]string{},
		enums:     map[string][]string{},
		constants: map[string]map[string]*typesystem.Union{},
		order:     map[string][]string{},
	}
}

func (f *fakeLookup) addClass(name string) {
	f.classes[strings.ToLower(name)] = name
}

func (f *fakeLookup) addConstant(class, name string, t *typesystem.Union) {
	lc := strings.ToLower(class)
	if f.constants[lc] == nil {
		f.constants[lc] = map[string]*typesystem.Union{}
	}
	f.constants[lc][name] = t
	f.order[lc] = append(f.order[lc], name)
}

func (f *fakeLookup) ClassLikeName(name string) (string, bool) {
	n, ok := f.classes[strings.ToLower(name)]
	return n, ok
}

func (f *fakeLookup) IsEnum(name string) bool {
	_, ok := f.enums[strings.ToLower(name)]
	return ok
}

func (f *fakeLookup) EnumCases(name string) []string { return f.enums[strings.ToLower(name)] }

func (f *fakeLookup) ClassConstantType(class, name string) (*typesystem.Union, bool) {
	t, ok := f.constants[strings.ToLower(class)][name]
	return t, ok
}

func (f *fakeLookup) ClassConstantNames(class string) []string { return f.order[strings.ToLower(class)] }

func TestExpandReferences(t *testing.T) {
	lookup := newFakeLookup()
	lookup.addClass("Acme\\Widget")
	lookup.addClass("Suit")
	lookup.enums["suit"] = []string{"Hearts", "Spades"}
	lookup.addClass("Limits")
	lookup.addConstant("Limits", "LIMIT_LOW", typesystem.LiteralInt(1))
	lookup.addConstant("Limits", "LIMIT_HIGH", typesystem.LiteralInt(10))
	lookup.addConstant("Limits", "OTHER", typesystem.LiteralString("x"))
	lookup.addConstant("Limits", "ALIAS", typesystem.NewUnion(typesystem.TReference{Symbol: "Limits", Member: "LIMIT_LOW"}))
	lookup.addConstant("Limits", "LOOP", typesystem.NewUnion(typesystem.TReference{Symbol: "Limits", Member: "LOOP"}))

	opts := typeparse.Options{Self: "Limits"}
	tests := []struct {
		input string
		want  string
	}{
		{"acme\\widget", "Acme\\Widget"},
		{"?Acme\\Widget", "Acme\\Widget|null"},
		{"Missing", "Missing"},
		{"Suit", "enum(Suit)"},
		{"Suit::Hearts", "enum(Suit::Hearts)"},
		{"self::LIMIT_HIGH", "int(10)"},
		{"self::LIMIT_*", "int(1)|int(10)"},
		{"self::ALIAS", "int(1)"},
		{"self::LOOP", "mixed"},
		{"self::NOPE", "mixed"},
		{"list<Suit::Spades>", "list<enum(Suit::Spades)>"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			u := typeparse.MustParse(tt.input, opts)
			if got := Expand(u, lookup, Options{Self: "Limits"}); got.ID() != tt.want {
				t.Errorf("Expand(%s) = %s, want %s", tt.input, got.ID(), tt.want)
			}
		})
	}
}

func TestExpandStatic(t *testing.T) {
	lookup := newFakeLookup()
	lookup.addClass("Base")
	lookup.addClass("Child")
	static := typeparse.MustParse("static", typeparse.Options{Self: "Base"})

	if got := Expand(static, lookup, Options{Self: "Base"}); got.ID() != "Base&static" {
		t.Errorf("static without target = %s, want Base&static", got.ID())
	}
	child := typesystem.TNamedObject{Name: "Child"}
	if got := Expand(static, lookup, Options{Self: "Base", Static: &child}); got.ID() != "Child&static" {
		t.Errorf("static bound to Child = %s, want Child&static", got.ID())
	}
	if got := Expand(static, lookup, Options{Self: "Base", Static: &child, FinalStatic: true}); got.ID() != "Base" {
		t.Errorf("final static = %s, want Base", got.ID())
	}
}
