package typesystem

import "testing"

func sampleUnions() []*Union {
	return []*Union{
		Int(),
		LiteralInt(5),
		NewUnion(TIntRange{Min: IntPtr(0), Max: IntPtr(10)}),
		Nullable(TString{}),
		NewUnion(TString{NonEmpty: true}),
		Mixed(),
		NonNull(),
		Bool(),
		Float(),
		NewUnion(NewList(Int())),
		MixedArray(),
		NewUnion(TKeyedArray{KnownItems: []KeyedItem{{Key: StringKey("a"), Type: Int(), Optional: true}}}),
		Named("Foo"),
		NewUnion(TNamedObject{Name: "Box", TypeParams: []*Union{Int()}}),
		NewUnion(TEnum{Name: "Suit", Case: "Hearts"}),
		NewUnion(TGenericParam{Name: "T", DefiningEntity: "Box", As: Mixed()}),
		NewUnion(TCallable{Signature: &CallableSignature{Params: []CallableParam{{Type: Int()}}, Return: Int(), IsClosure: true}}),
		Object(),
	}
}

func TestContainmentReflexive(t *testing.T) {
	for _, u := range sampleUnions() {
		if !IsContainedBy(u, u, nil, CompareOptions{}, nil) {
			t.Errorf("%s is not contained by itself", u)
		}
	}
}

func TestNeverContainedByEverything(t *testing.T) {
	for _, u := range sampleUnions() {
		if !IsContainedBy(Never(), u, nil, CompareOptions{}, nil) {
			t.Errorf("never is not contained by %s", u)
		}
	}
}

func TestIsContainedBy(t *testing.T) {
	cb := newFakeCodebase().extends("Child", "Parent")
	cb.templates["box"] = []string{"T"}
	cb.templates["intbox"] = nil
	cb.extends("IntBox", "Box")
	cb.extended["intbox>box"] = []*Union{Int()}

	tests := []struct {
		name      string
		input     *Union
		container *Union
		want      bool
		coerced   bool
	}{
		{"int into int|string", Int(), NewUnion(TInt{}, TString{}), true, false},
		{"int into float", Int(), Float(), true, false},
		{"float into int", Float(), Int(), false, false},
		{"literal into range", LiteralInt(5), NewUnion(TIntRange{Min: IntPtr(1), Max: IntPtr(10)}), true, false},
		{"wider range into range", NewUnion(TIntRange{Min: IntPtr(0), Max: IntPtr(20)}), NewUnion(TIntRange{Min: IntPtr(1), Max: IntPtr(10)}), false, true},
		{"literal string into non-empty", LiteralString("abc"), NewUnion(TString{NonEmpty: true}), true, false},
		{"string into non-empty", String(), NewUnion(TString{NonEmpty: true}), false, true},
		{"mixed into int", Mixed(), Int(), false, true},
		{"null into int", Null(), Int(), false, false},
		{"int|null into int", Nullable(TInt{}), Int(), false, false},
		{"child into parent", Named("Child"), Named("Parent"), true, false},
		{"parent into child", Named("Parent"), Named("Child"), false, true},
		{"unrelated classes", Named("Child"), Named("Other"), false, false},
		{"named into object", Named("Foo"), Object(), true, false},
		{"object into named", Object(), Named("Foo"), false, true},
		{"generic covariance", NewUnion(TNamedObject{Name: "Box", TypeParams: []*Union{Int()}}),
			NewUnion(TNamedObject{Name: "Box", TypeParams: []*Union{NewUnion(TInt{}, TString{})}}), true, false},
		{"generic narrower container", NewUnion(TNamedObject{Name: "Box", TypeParams: []*Union{NewUnion(TInt{}, TString{})}}),
			NewUnion(TNamedObject{Name: "Box", TypeParams: []*Union{Int()}}), false, false},
		{"extended generic", Named("IntBox"),
			NewUnion(TNamedObject{Name: "Box", TypeParams: []*Union{Int()}}), true, false},
		{"enum case into enum", NewUnion(TEnum{Name: "Suit", Case: "Hearts"}), NewUnion(TEnum{Name: "Suit"}), true, false},
		{"enum into enum case", NewUnion(TEnum{Name: "Suit"}), NewUnion(TEnum{Name: "Suit", Case: "Hearts"}), false, true},
		{"list into array", NewUnion(NewList(Int())), NewUnion(NewArray(Int(), Int())), true, false},
		{"list into non-empty list", NewUnion(NewList(Int())), NewUnion(NewNonEmptyList(Int())), false, true},
		{"empty array into list", NewUnion(EmptyArray()), NewUnion(NewList(Int())), true, false},
		{"template as int into int", NewUnion(TGenericParam{Name: "T", DefiningEntity: "f", As: Int()}), Int(), true, false},
		{"int into nonnull", Int(), NonNull(), true, false},
		{"null into nonnull", Null(), NonNull(), false, false},
		{"object into truthy mixed", Object(), NewUnion(TMixed{Truthiness: TruthinessTruthy}), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r ComparisonResult
			got := IsContainedBy(tt.input, tt.container, cb, CompareOptions{}, &r)
			if got != tt.want {
				t.Errorf("IsContainedBy(%s, %s) = %v, want %v", tt.input, tt.container, got, tt.want)
			}
			if r.TypeCoerced != tt.coerced {
				t.Errorf("IsContainedBy(%s, %s) coerced = %v, want %v", tt.input, tt.container, r.TypeCoerced, tt.coerced)
			}
		})
	}
}

func TestContainmentOptions(t *testing.T) {
	if !IsContainedBy(Nullable(TInt{}), Int(), nil, CompareOptions{IgnoreNull: true}, nil) {
		t.Errorf("int|null should fit int when null is ignored")
	}
	falsable := NewUnion(TString{}, TFalse{})
	if !IsContainedBy(falsable, String(), nil, CompareOptions{IgnoreFalse: true}, nil) {
		t.Errorf("string|false should fit string when false is ignored")
	}
	if IsContainedBy(Null(), Int(), nil, CompareOptions{IgnoreNull: true}, nil) {
		t.Errorf("a lone null is never ignored")
	}
}

func TestCoercionDetails(t *testing.T) {
	t.Run("top-level mixed", func(t *testing.T) {
		var r ComparisonResult
		IsContainedBy(Mixed(), Int(), nil, CompareOptions{}, &r)
		if !r.TypeCoerced || r.TypeCoercedFromNestedMixed {
			t.Errorf("mixed into int: %+v", r)
		}
	})
	t.Run("nested mixed", func(t *testing.T) {
		var r ComparisonResult
		got := IsContainedBy(MixedArray(), NewUnion(NewArray(ArrayKeyType(), Int())), nil, CompareOptions{}, &r)
		if got || !r.TypeCoerced || !r.TypeCoercedFromNestedMixed {
			t.Errorf("array<array-key, mixed> into array<array-key, int>: %v %+v", got, r)
		}
	})
	t.Run("mixed template", func(t *testing.T) {
		var r ComparisonResult
		tmpl := NewUnion(TGenericParam{Name: "T", DefiningEntity: "f", As: Mixed()})
		if IsContainedBy(tmpl, Int(), nil, CompareOptions{}, &r) || !r.TypeCoercedFromAsMixed {
			t.Errorf("T into int: %+v", r)
		}
	})
	t.Run("to literal", func(t *testing.T) {
		var r ComparisonResult
		IsContainedBy(Int(), LiteralInt(5), nil, CompareOptions{}, &r)
		if !r.TypeCoerced || !r.TypeCoercedToLiteral {
			t.Errorf("int into int(5): %+v", r)
		}
	})
	t.Run("scalar mismatch", func(t *testing.T) {
		var r ComparisonResult
		IsContainedBy(Int(), String(), nil, CompareOptions{}, &r)
		if r.TypeCoerced || !r.ScalarTypeMatchFound {
			t.Errorf("int into string: %+v", r)
		}
	})
	t.Run("raw generic", func(t *testing.T) {
		var r ComparisonResult
		IsContainedBy(Named("Box"), NewUnion(TNamedObject{Name: "Box", TypeParams: []*Union{Int()}}), nil, CompareOptions{}, &r)
		if !r.TypeCoerced || !r.TypeCoercedFromNestedMixed {
			t.Errorf("Box into Box<int>: %+v", r)
		}
	})
}

func TestArrayShapeContainment(t *testing.T) {
	input := NewUnion(TKeyedArray{KnownItems: []KeyedItem{
		{Key: IntKey(0), Type: Int()},
		{Key: IntKey(1), Type: String()},
	}})
	unsealed := NewUnion(TKeyedArray{
		KnownItems: []KeyedItem{
			{Key: IntKey(0), Type: Int()},
			{Key: IntKey(1), Type: String()},
		},
		Params: &KeyedParams{Key: ArrayKeyType(), Value: Mixed()},
	})
	sealed := NewUnion(TKeyedArray{KnownItems: []KeyedItem{{Key: IntKey(0), Type: Int()}}})
	optional := NewUnion(TKeyedArray{KnownItems: []KeyedItem{
		{Key: IntKey(0), Type: Int()},
		{Key: IntKey(1), Type: String()},
		{Key: IntKey(2), Type: Bool(), Optional: true},
	}})
	required := NewUnion(TKeyedArray{KnownItems: []KeyedItem{
		{Key: IntKey(0), Type: Int()},
		{Key: IntKey(1), Type: String()},
		{Key: IntKey(2), Type: Bool()},
	}})

	if !IsContainedBy(input, unsealed, nil, CompareOptions{}, nil) {
		t.Errorf("%s should fit %s", input, unsealed)
	}
	if IsContainedBy(input, sealed, nil, CompareOptions{}, nil) {
		t.Errorf("%s should not fit sealed %s", input, sealed)
	}
	if !IsContainedBy(input, optional, nil, CompareOptions{}, nil) {
		t.Errorf("%s should fit %s: the extra item is optional", input, optional)
	}
	if IsContainedBy(input, required, nil, CompareOptions{}, nil) {
		t.Errorf("%s should not fit %s: item 2 is required", input, required)
	}
	list := NewUnion(TList{Element: NewUnion(TInt{}, TString{})})
	if !IsContainedBy(input, list, nil, CompareOptions{}, nil) {
		t.Errorf("%s should fit %s through its list view", input, list)
	}
}

func TestCallableContainment(t *testing.T) {
	closure := func(param, ret *Union) *Union {
		return NewUnion(TCallable{Signature: &CallableSignature{
			Params:    []CallableParam{{Type: param}},
			Return:    ret,
			IsClosure: true,
		}})
	}
	container := closure(Int(), String())

	tests := []struct {
		name  string
		input *Union
		want  bool
	}{
		{"same", closure(Int(), String()), true},
		{"wider param", closure(NewUnion(TInt{}, TString{}), String()), true},
		{"narrower param", closure(LiteralInt(1), String()), false},
		{"wider return", closure(Int(), NewUnion(TInt{}, TString{})), false},
		{"narrower return", closure(Int(), NewUnion(TString{NonEmpty: true})), true},
		{"Closure object", Named("Closure"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsContainedBy(tt.input, container, nil, CompareOptions{}, nil); got != tt.want {
				t.Errorf("IsContainedBy(%s, %s) = %v, want %v", tt.input, container, got, tt.want)
			}
		})
	}

	if !IsContainedBy(Named("Closure"), NewUnion(TCallable{}), nil, CompareOptions{}, nil) {
		t.Errorf("Closure should fit callable")
	}
}

func TestCanBeIdentical(t *testing.T) {
	cb := newFakeCodebase()
	cb.interfaces["countable"] = true
	cb.finals["sealedthing"] = true

	tests := []struct {
		name string
		a, b *Union
		want bool
	}{
		{"int and string", Int(), String(), false},
		{"int and literal", Int(), LiteralInt(5), true},
		{"different literals", LiteralInt(1), LiteralInt(2), false},
		{"int and float", Int(), Float(), true},
		{"mixed and anything", Mixed(), Named("Foo"), true},
		{"interface and open class", Named("Countable"), Named("Foo"), true},
		{"interface and final class", Named("Countable"), Named("SealedThing"), false},
		{"arrays", NewUnion(NewList(Int())), NewUnion(NewArray(String(), String())), true},
		{"null and int", Null(), Int(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanBeIdentical(tt.a, tt.b, cb); got != tt.want {
				t.Errorf("CanBeIdentical(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNumericOrdering(t *testing.T) {
	one, two := LiteralInt(1), LiteralInt(2)
	half := LiteralFloat(0.5)

	if !IsAlwaysLessThan(one, two) || IsAlwaysLessThan(two, one) {
		t.Errorf("1 < 2 ordering wrong")
	}
	if !IsAlwaysLessThan(half, one) {
		t.Errorf("0.5 < 1 should hold")
	}
	if !IsAlwaysLessThanOrEqual(one, LiteralInt(1)) {
		t.Errorf("1 <= 1 should hold")
	}
	if !IsAlwaysGreaterThan(two, one) || !IsAlwaysGreaterThanOrEqual(two, two) {
		t.Errorf("greater-than ordering wrong")
	}
	if IsAlwaysLessThan(one, Int()) || IsAlwaysLessThan(Int(), one) {
		t.Errorf("non-literal comparisons must be unknown")
	}
	if IsAlwaysLessThan(NewUnion(TLiteralInt{Value: 1}, TLiteralInt{Value: 2}), LiteralInt(5)) {
		t.Errorf("multi-atomic comparisons must be unknown")
	}
	// one literal side falls back to identity
	if IsAlwaysLessThanOrEqual(one, Int()) {
		t.Errorf("int(1) <= int is unknown")
	}
	if IsAlwaysLessThanOrEqual(Int(), Int()) {
		t.Errorf("int <= int without literals is unknown")
	}
}
