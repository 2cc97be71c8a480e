package typeparse

import (
	"errors"
	"testing"

	"github.com/funvibe/flowcheck/internal/typesystem"
)

func TestParse(t *testing.T) {
	opts := Options{
		Self:   "Foo",
		Parent: "Base",
		Templates: map[string]TemplateScope{
			"T": {Entity: "Box", As: typesystem.Mixed()},
			"K": {Entity: typesystem.FunctionEntity("pick"), As: typesystem.ArrayKeyType()},
		},
	}
	tests := []struct {
		input string
		want  string
	}{
		{"int", "int"},
		{"?string", "string|null"},
		{"int|string|null", "int|string|null"},
		{"true|false", "bool"},
		{"non-empty-string", "non-empty-string"},
		{"positive-int", "positive-int"},
		{"int<0, 10>", "int<0, 10>"},
		{"int<min, -1>", "negative-int"},
		{"int<min, max>", "int"},
		{"5|'a'", `int(5)|string("a")`},
		{"-3", "int(-3)"},
		{"1.5", "float(1.5)"},
		{"array", "array<array-key, mixed>"},
		{"array<int>", "array<array-key, int>"},
		{"non-empty-array<string, int>", "non-empty-array<string, int>"},
		{"int[]", "array<array-key, int>"},
		{"list<string>", "list<string>"},
		{"non-empty-list<int>", "non-empty-list<int>"},
		{"array{}", "array<never, never>"},
		{"array{int, string}", "list{int, string}"},
		{"list{int, 1?: string}", "list{0: int, 1?: string}"},
		{"array{id: int, name?: string}", "array{'id': int, 'name'?: string}"},
		{"array{'a': int, ...}", "array{'a': int, ...}"},
		{"array{'a': int, ...<string, bool>}", "array{'a': int, ...<string, bool>}"},
		{"\\Acme\\Widget", "ref(Acme\\Widget)"},
		{"Box<int, string>", "ref(Box<int, string>)"},
		{"Suit::Hearts", "ref(Suit::Hearts)"},
		{"self::LIMIT_*", "ref(Foo::LIMIT_*)"},
		{"static", "Foo&static"},
		{"self", "Foo"},
		{"parent", "Base"},
		{"$this", "Foo&static"},
		{"T", "T:Box"},
		{"K", "K:fn-pick as array-key"},
		{"list<T>", "list<T:Box>"},
		{"callable", "callable"},
		{"callable(int, string=): bool", "callable(int, string=): bool"},
		{"Closure(int ...$rest): void", "Closure(...int): void"},
		{"Closure", "Closure"},
		{"Countable&Traversable", "Countable&ref(Traversable)"},
		{"($x is int ? string : bool)", "($x is int ? string : bool)"},
		{"(T is not null ? T : never)", "(T:Box is not null ? T:Box : never)"},
		{"$x is string ? int : float", "($x is string ? int : float)"},
		{"class-string<Foo>", "non-empty-string"},
		{"Foo::class", "non-empty-string"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input, opts)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got.ID() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got.ID(), tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"array<int",
		"int<5, 1>",
		"array{a: }",
		"int|",
		"(int",
		"static",
		"int&string",
		"list{a: int}",
		"int string",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input, Options{})
			if err == nil {
				t.Fatalf("Parse(%q) should fail", input)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("Parse(%q) error %T is not a *SyntaxError", input, err)
			}
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustParse should panic on invalid input")
		}
	}()
	MustParse("array<", Options{})
}
