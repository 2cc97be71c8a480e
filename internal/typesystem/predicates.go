package typesystem

// IsNever reports whether the union is the bottom type.
func (u *Union) IsNever() bool {
	for _, t := range u.Types {
		if _, ok := t.(TNever); !ok {
			return false
		}
	}
	return true
}

// IsVoid reports whether the union is exactly void.
func (u *Union) IsVoid() bool {
	return u.IsSingle() && isType[TVoid](u.Types[0])
}

// IsNull reports whether the union is exactly null.
func (u *Union) IsNull() bool {
	return u.IsSingle() && isType[TNull](u.Types[0])
}

// IsNullable reports whether null is one of several members.
func (u *Union) IsNullable() bool {
	return len(u.Types) > 1 && u.HasNull()
}

// HasNull reports whether null (or void) is a member.
func (u *Union) HasNull() bool {
	for _, t := range u.Types {
		switch t.(type) {
		case TNull, TVoid:
			return true
		}
	}
	return false
}

// IsMixed reports whether the union is exactly a plain mixed (nullable, no truthiness).
func (u *Union) IsMixed() bool {
	if !u.IsSingle() {
		return false
	}
	m, ok := u.Types[0].(TMixed)
	return ok && !m.NonNull && m.Truthiness == TruthinessUnknown
}

// IsVanillaMixed is an alias of IsMixed kept for readability at call sites.
func (u *Union) IsVanillaMixed() bool { return u.IsMixed() }

// HasMixed reports whether any member is mixed (of any flavour).
func (u *Union) HasMixed() bool {
	for _, t := range u.Types {
		if _, ok := t.(TMixed); ok {
			return true
		}
	}
	return false
}

// IsFalsable reports whether false is one of several members.
func (u *Union) IsFalsable() bool {
	if len(u.Types) < 2 {
		return false
	}
	for _, t := range u.Types {
		if _, ok := t.(TFalse); ok {
			return true
		}
	}
	return false
}

// IsBool reports whether every member is a boolean kind.
func (u *Union) IsBool() bool { return u.all(IsBoolAtomic) }

// IsInt reports whether every member is an integer kind.
func (u *Union) IsInt() bool { return u.all(IsIntAtomic) }

// IsFloat reports whether every member is a float kind.
func (u *Union) IsFloat() bool { return u.all(IsFloatAtomic) }

// IsString reports whether every member is a string kind.
func (u *Union) IsString() bool { return u.all(IsStringAtomic) }

// IsNumeric reports whether every member is an int or float kind.
func (u *Union) IsNumeric() bool {
	return u.all(func(a Atomic) bool { return IsIntAtomic(a) || IsFloatAtomic(a) || isType[TNumeric](a) })
}

// IsScalar reports whether every member is a scalar.
func (u *Union) IsScalar() bool { return u.all(IsScalarAtomic) }

// IsArray reports whether every member is an array.
func (u *Union) IsArray() bool { return u.all(IsArrayAtomic) }

// IsList reports whether every member is a list.
func (u *Union) IsList() bool {
	return u.all(func(a Atomic) bool { return isType[TList](a) })
}

// HasArray reports whether any member is an array.
func (u *Union) HasArray() bool { return u.any(IsArrayAtomic) }

// IsObjectType reports whether every member is an object.
func (u *Union) IsObjectType() bool { return u.all(IsObjectAtomic) }

// HasObject reports whether any member is an object.
func (u *Union) HasObject() bool { return u.any(IsObjectAtomic) }

// HasObjectType reports whether any member is an object or a template
// constrained to objects.
func (u *Union) HasObjectType() bool {
	return u.any(func(a Atomic) bool {
		if gp, ok := a.(TGenericParam); ok {
			return gp.As != nil && gp.As.HasObjectType()
		}
		return IsObjectAtomic(a)
	})
}

// HasTemplate reports whether a generic param occurs anywhere in the union.
func (u *Union) HasTemplate() bool {
	found := false
	WalkUnion(u, func(a Atomic) bool {
		if _, ok := a.(TGenericParam); ok {
			found = true
		}
		return !found
	})
	return found
}

// HasTemplateOrStatic reports whether a generic param or a `static` object occurs anywhere.
func (u *Union) HasTemplateOrStatic() bool {
	found := false
	WalkUnion(u, func(a Atomic) bool {
		switch t := a.(type) {
		case TGenericParam:
			found = true
		case TNamedObject:
			if t.IsThis {
				found = true
			}
		}
		return !found
	})
	return found
}

// HasConditional reports whether a conditional type occurs at the top level.
func (u *Union) HasConditional() bool {
	return u.any(func(a Atomic) bool { return isType[TConditional](a) })
}

// HasLiteralValue reports whether any member is a literal scalar.
func (u *Union) HasLiteralValue() bool {
	return u.any(func(a Atomic) bool {
		switch a.(type) {
		case TLiteralInt, TLiteralFloat, TLiteralString:
			return true
		}
		return false
	})
}

// AllLiterals reports whether every member denotes exactly one value.
func (u *Union) AllLiterals() bool { return u.all(IsLiteralAtomic) }

// IsAlwaysTruthy reports whether every member is truthy for every value.
func (u *Union) IsAlwaysTruthy() bool {
	if u.PossiblyUndefined || u.PossiblyUndefinedFromTry {
		return false
	}
	return u.all(IsAtomicAlwaysTruthy)
}

// IsAlwaysFalsy reports whether every member is falsy for every value.
func (u *Union) IsAlwaysFalsy() bool { return u.all(IsAtomicAlwaysFalsy) }

// IsAlwaysTrue reports whether the union is exactly true.
func (u *Union) IsAlwaysTrue() bool {
	return u.IsSingle() && isType[TTrue](u.Types[0])
}

// IsAlwaysFalse reports whether the union is exactly false.
func (u *Union) IsAlwaysFalse() bool {
	return u.IsSingle() && isType[TFalse](u.Types[0])
}

// CanBeFalsy reports whether some value of the union is falsy.
func (u *Union) CanBeFalsy() bool {
	return !u.IsAlwaysTruthy()
}

// ContainsID reports whether an atomic with the given ID is a member.
func (u *Union) ContainsID(id string) bool {
	for _, t := range u.Types {
		if t.ID() == id {
			return true
		}
	}
	return false
}

// SingleLiteralIntValue returns the value when the union is a single int literal.
func (u *Union) SingleLiteralIntValue() (int64, bool) {
	if !u.IsSingle() {
		return 0, false
	}
	if l, ok := u.Types[0].(TLiteralInt); ok {
		return l.Value, true
	}
	return 0, false
}

// SingleLiteralFloatValue returns the value when the union is a single float literal.
func (u *Union) SingleLiteralFloatValue() (float64, bool) {
	if !u.IsSingle() {
		return 0, false
	}
	if l, ok := u.Types[0].(TLiteralFloat); ok {
		return l.Value, true
	}
	return 0, false
}

// SingleLiteralStringValue returns the value when the union is a single string literal.
func (u *Union) SingleLiteralStringValue() (string, bool) {
	if !u.IsSingle() {
		return "", false
	}
	if l, ok := u.Types[0].(TLiteralString); ok {
		return l.Value, true
	}
	return "", false
}

// SingleBoolValue returns the value when the union is exactly true or false.
func (u *Union) SingleBoolValue() (bool, bool) {
	if !u.IsSingle() {
		return false, false
	}
	switch u.Types[0].(type) {
	case TTrue:
		return true, true
	case TFalse:
		return false, true
	}
	return false, false
}

// LiteralIntValues returns every int literal value when all members are int literals.
func (u *Union) LiteralIntValues() ([]int64, bool) {
	values := make([]int64, 0, len(u.Types))
	for _, t := range u.Types {
		l, ok := t.(TLiteralInt)
		if !ok {
			return nil, false
		}
		values = append(values, l.Value)
	}
	return values, true
}

// LiteralStringValues returns every string literal value when all members are string literals.
func (u *Union) LiteralStringValues() ([]string, bool) {
	values := make([]string, 0, len(u.Types))
	for _, t := range u.Types {
		l, ok := t.(TLiteralString)
		if !ok {
			return nil, false
		}
		values = append(values, l.Value)
	}
	return values, true
}

// NamedObjects returns the named object members.
func (u *Union) NamedObjects() []TNamedObject {
	var out []TNamedObject
	for _, t := range u.Types {
		if n, ok := t.(TNamedObject); ok {
			out = append(out, n)
		}
	}
	return out
}

// WithoutNull returns a copy without null and void members. If nothing is
// left the result is never.
func (u *Union) WithoutNull() *Union {
	return u.filter(func(a Atomic) bool {
		switch a.(type) {
		case TNull, TVoid:
			return false
		}
		return true
	})
}

// WithoutFalse returns a copy without the false member; bool becomes true.
func (u *Union) WithoutFalse() *Union {
	out := make([]Atomic, 0, len(u.Types))
	for _, t := range u.Types {
		switch t.(type) {
		case TFalse:
			continue
		case TBool:
			out = append(out, TTrue{})
			continue
		}
		out = append(out, t)
	}
	return u.WithTypes(out)
}

// WithoutAtomic returns a copy without members carrying the given ID.
func (u *Union) WithoutAtomic(id string) *Union {
	return u.filter(func(a Atomic) bool { return a.ID() != id })
}

func (u *Union) filter(keep func(Atomic) bool) *Union {
	out := make([]Atomic, 0, len(u.Types))
	for _, t := range u.Types {
		if keep(t) {
			out = append(out, t)
		}
	}
	return u.WithTypes(out)
}

func (u *Union) all(pred func(Atomic) bool) bool {
	if len(u.Types) == 0 {
		return false
	}
	for _, t := range u.Types {
		if !pred(t) {
			return false
		}
	}
	return true
}

func (u *Union) any(pred func(Atomic) bool) bool {
	for _, t := range u.Types {
		if pred(t) {
			return true
		}
	}
	return false
}

func isType[T Atomic](a Atomic) bool {
	_, ok := a.(T)
	return ok
}

// IsObjectAtomic reports whether the atomic is an object kind.
func IsObjectAtomic(a Atomic) bool {
	switch t := a.(type) {
	case TObject, TNamedObject, TEnum:
		return true
	case TCallable:
		return t.IsClosure()
	}
	return false
}

// IsAtomicAlwaysTruthy reports whether every value of the atomic is truthy.
func IsAtomicAlwaysTruthy(a Atomic) bool {
	switch t := a.(type) {
	case TTrue, TObject, TNamedObject, TEnum, TCallable:
		return true
	case TLiteralInt:
		return t.Value != 0
	case TIntRange:
		return !t.Contains(0)
	case TLiteralFloat:
		return t.Value != 0
	case TLiteralString:
		return t.Value != "" && t.Value != "0"
	case TString:
		return t.Truthy
	case TList:
		return t.IsNonEmpty()
	case TKeyedArray:
		return t.IsNonEmpty()
	case TMixed:
		return t.Truthiness == TruthinessTruthy
	case TGenericParam:
		return t.As != nil && t.As.IsAlwaysTruthy()
	}
	return false
}

// IsAtomicAlwaysFalsy reports whether every value of the atomic is falsy.
func IsAtomicAlwaysFalsy(a Atomic) bool {
	switch t := a.(type) {
	case TFalse, TNull, TVoid, TNever:
		return true
	case TLiteralInt:
		return t.Value == 0
	case TLiteralFloat:
		return t.Value == 0
	case TLiteralString:
		return t.Value == "" || t.Value == "0"
	case TKeyedArray:
		return t.IsEmpty()
	case TList:
		return len(t.KnownElements) == 0 && t.IsSealed()
	case TMixed:
		return t.Truthiness == TruthinessFalsy
	}
	return false
}
