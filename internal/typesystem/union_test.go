package typesystem

import "testing"

func TestAtomicIDs(t *testing.T) {
	tests := []struct {
		name string
		typ  Atomic
		want string
	}{
		{"never", TNever{}, "never"},
		{"nonnull", TMixed{NonNull: true}, "nonnull"},
		{"truthy mixed", TMixed{Truthiness: TruthinessTruthy}, "truthy-mixed"},
		{"literal int", TLiteralInt{Value: -3}, "int(-3)"},
		{"positive int", TIntRange{Min: IntPtr(1)}, "positive-int"},
		{"bounded range", TIntRange{Min: IntPtr(2), Max: IntPtr(9)}, "int<2, 9>"},
		{"open max range", TIntRange{Min: IntPtr(5)}, "int<5, max>"},
		{"literal float", TLiteralFloat{Value: 1.5}, "float(1.5)"},
		{"non-empty string", TString{NonEmpty: true}, "non-empty-string"},
		{"truthy lowercase", TString{Truthy: true, Lowercase: true}, "truthy-lowercase-string"},
		{"numeric string", TString{Numeric: true, NonEmpty: true}, "numeric-string"},
		{"literal string", TLiteralString{Value: "a"}, `string("a")`},
		{"list", NewList(Int()), "list<int>"},
		{"non-empty list", NewNonEmptyList(String()), "non-empty-list<string>"},
		{"empty array", EmptyArray(), "array<never, never>"},
		{"generic array", NewArray(ArrayKeyType(), Mixed()), "array<array-key, mixed>"},
		{"list shape", TList{Element: Never(), KnownElements: map[int]ListElement{
			0: {Type: Int()}, 1: {Type: String()},
		}}, "list{int, string}"},
		{"optional list shape", TList{Element: Never(), KnownElements: map[int]ListElement{
			0: {Type: Int()}, 1: {Type: String(), Optional: true},
		}}, "list{0: int, 1?: string}"},
		{"keyed shape", TKeyedArray{KnownItems: []KeyedItem{
			{Key: StringKey("a"), Type: Int()},
			{Key: IntKey(1), Type: String(), Optional: true},
		}}, "array{'a': int, 1?: string}"},
		{"unsealed keyed shape", TKeyedArray{
			KnownItems: []KeyedItem{{Key: IntKey(0), Type: Int()}},
			Params:     &KeyedParams{Key: ArrayKeyType(), Value: Mixed()},
		}, "array{0: int, ...}"},
		{"generic object", TNamedObject{Name: "Box", TypeParams: []*Union{Int()}}, "Box<int>"},
		{"static object", TNamedObject{Name: "Foo", IsThis: true}, "Foo&static"},
		{"enum case", TEnum{Name: "Suit", Case: "Hearts"}, "enum(Suit::Hearts)"},
		{"template", TGenericParam{Name: "T", DefiningEntity: "Box", As: Mixed()}, "T:Box"},
		{"bounded template", TGenericParam{Name: "T", DefiningEntity: FunctionEntity("Id"), As: Int()}, "T:fn-id as int"},
		{"closure", TCallable{Signature: &CallableSignature{
			Params:    []CallableParam{{Type: Int()}, {Type: String(), Optional: true}},
			Return:    Bool(),
			IsClosure: true,
		}}, "Closure(int, string=): bool"},
		{"alias", TCallable{Alias: &CallableAlias{Class: "Foo", Method: "bar"}}, "callable-alias(Foo::bar)"},
		{"conditional", TConditional{
			Subject: NewUnion(TVariable{Name: "$x"}), Target: Int(), Then: String(), Otherwise: Bool(),
		}, "($x is int ? string : bool)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.ID(); got != tt.want {
				t.Errorf("ID() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewUnion(t *testing.T) {
	if got := NewUnion().ID(); got != "never" {
		t.Errorf("NewUnion() = %s, want never", got)
	}
	if got := NewUnion(TInt{}, TInt{}, TNull{}).ID(); got != "int|null" {
		t.Errorf("duplicates not removed: %s", got)
	}
	if got := NewUnion(TNever{}, TString{}).ID(); got != "string" {
		t.Errorf("never not dropped: %s", got)
	}
	if got := NewUnion(TNever{}, TNever{}).ID(); got != "never" {
		t.Errorf("all-never union = %s, want never", got)
	}
}

func TestUnionEquals(t *testing.T) {
	a := NewUnion(TInt{}, TString{})
	b := NewUnion(TString{}, TInt{})
	b.PossiblyUndefined = true
	if !a.Equals(b) {
		t.Errorf("%s should equal %s regardless of order and flags", a, b)
	}
	if a.Equals(Int()) {
		t.Errorf("%s should not equal int", a)
	}
}

func TestUnionPredicates(t *testing.T) {
	nullable := Nullable(TInt{})
	if !nullable.IsNullable() || !nullable.HasNull() {
		t.Errorf("int|null should be nullable")
	}
	if got := nullable.WithoutNull().ID(); got != "int" {
		t.Errorf("WithoutNull = %s, want int", got)
	}
	if got := NewUnion(TBool{}, TNull{}).WithoutFalse().ID(); got != "true|null" {
		t.Errorf("WithoutFalse = %s, want true|null", got)
	}
	if v, ok := LiteralInt(7).SingleLiteralIntValue(); !ok || v != 7 {
		t.Errorf("SingleLiteralIntValue = %d, %v", v, ok)
	}
	if _, ok := Int().SingleLiteralIntValue(); ok {
		t.Errorf("int has no single literal value")
	}
	if v, ok := True().SingleBoolValue(); !ok || !v {
		t.Errorf("SingleBoolValue(true) = %v, %v", v, ok)
	}
	if !NewUnion(TNamedObject{Name: "Foo"}).IsAlwaysTruthy() {
		t.Errorf("objects are always truthy")
	}
	undefined := NewUnion(TTrue{}).AsPossiblyUndefined()
	if undefined.IsAlwaysTruthy() {
		t.Errorf("a possibly undefined value is not always truthy")
	}
	if !LiteralString("0").IsAlwaysFalsy() {
		t.Errorf(`"0" is falsy`)
	}
	tmpl := NewList(NewUnion(TGenericParam{Name: "T", DefiningEntity: "Box", As: Mixed()}))
	if !NewUnion(tmpl).HasTemplate() {
		t.Errorf("nested template not found")
	}
}

func TestListKeyedConversion(t *testing.T) {
	keyed := TKeyedArray{KnownItems: []KeyedItem{
		{Key: IntKey(0), Type: Int()},
		{Key: IntKey(1), Type: String(), Optional: true},
	}}
	l, ok := KeyedAsList(keyed)
	if !ok {
		t.Fatalf("KeyedAsList(%s) failed", keyed.ID())
	}
	if got := l.ID(); got != "list{0: int, 1?: string}" {
		t.Errorf("KeyedAsList = %s", got)
	}

	gap := TKeyedArray{KnownItems: []KeyedItem{{Key: IntKey(1), Type: Int()}}}
	if _, ok := KeyedAsList(gap); ok {
		t.Errorf("array{1: int} is not a list")
	}

	back := ListAsKeyed(NewList(Int()))
	if got := back.ID(); got != "array<non-negative-int, int>" {
		t.Errorf("ListAsKeyed = %s", got)
	}
}

func TestReplaceGenericParams(t *testing.T) {
	tmpl := TGenericParam{Name: "T", DefiningEntity: "Box", As: Mixed()}
	u := NewUnion(NewList(NewUnion(tmpl)), TNull{})
	got := ReplaceGenericParams(u, map[string]*Union{tmpl.Key(): Int()})
	if got.ID() != "list<int>|null" {
		t.Errorf("ReplaceGenericParams = %s, want list<int>|null", got)
	}
	top := ReplaceGenericParams(NewUnion(tmpl, TNull{}), map[string]*Union{tmpl.Key(): Int()})
	if top.ID() != "int|null" || !top.HadTemplate {
		t.Errorf("ReplaceGenericParams = %s (HadTemplate %v), want int|null marked HadTemplate", top, top.HadTemplate)
	}
	again := ReplaceGenericParams(got, map[string]*Union{tmpl.Key(): Int()})
	if !again.Equals(got) {
		t.Errorf("replacement is not idempotent: %s vs %s", again, got)
	}
}
