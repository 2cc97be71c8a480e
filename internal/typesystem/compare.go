package typesystem

// ComparisonResult collects soft-failure details of a containment check.
//
// When IsContainedBy returns false with TypeCoerced set, the input is a
// strictly wider type than the container (mixed into int, a parent class
// into a child class). Callers report a coercion rather than a hard error.
type ComparisonResult struct {
	TypeCoerced bool
	// TypeCoercedFromNestedMixed: the coercion came from a mixed nested in
	// an array value, list element or generic argument.
	TypeCoercedFromNestedMixed bool
	// TypeCoercedFromAsMixed: the coercion came from a template whose
	// constraint is mixed.
	TypeCoercedFromAsMixed bool
	// TypeCoercedToLiteral: a general scalar was passed where a literal
	// was expected.
	TypeCoercedToLiteral bool
	// ScalarTypeMatchFound: both sides were scalars and the failure is one
	// loose comparison would accept.
	ScalarTypeMatchFound bool
}

func (r *ComparisonResult) merge(o ComparisonResult) {
	r.TypeCoerced = r.TypeCoerced || o.TypeCoerced
	r.TypeCoercedFromNestedMixed = r.TypeCoercedFromNestedMixed || o.TypeCoercedFromNestedMixed
	r.TypeCoercedFromAsMixed = r.TypeCoercedFromAsMixed || o.TypeCoercedFromAsMixed
	r.TypeCoercedToLiteral = r.TypeCoercedToLiteral || o.TypeCoercedToLiteral
	r.ScalarTypeMatchFound = r.ScalarTypeMatchFound || o.ScalarTypeMatchFound
}

// CompareOptions relaxes a containment check.
type CompareOptions struct {
	// IgnoreNull skips the null member of a nullable input.
	IgnoreNull bool
	// IgnoreFalse skips the false member of a falsable input.
	IgnoreFalse bool
}

// IsContainedBy reports whether every value of input is a value of
// container. Every input atomic must be contained by at least one
// container atomic. A nil union is treated as mixed.
func IsContainedBy(input, container *Union, cb Codebase, opts CompareOptions, result *ComparisonResult) bool {
	if result == nil {
		result = &ComparisonResult{}
	}
	return isContainedBy(input, container, cb, opts, false, result)
}

func isContainedBy(input, container *Union, cb Codebase, opts CompareOptions, inside bool, result *ComparisonResult) bool {
	if container == nil || acceptsEverything(container) {
		return true
	}
	if input == nil {
		input = Mixed()
	}
	if input.IsNever() {
		return true
	}
	multiple := len(input.Types) > 1
	for _, a := range input.Types {
		if multiple {
			if _, ok := a.(TNull); ok && opts.IgnoreNull {
				continue
			}
			if _, ok := a.(TFalse); ok && opts.IgnoreFalse {
				continue
			}
		}
		var r ComparisonResult
		if !atomicContainedByUnion(a, container, cb, inside, &r) {
			result.merge(r)
			return false
		}
	}
	return true
}

func acceptsEverything(u *Union) bool {
	for _, t := range u.Types {
		if m, ok := t.(TMixed); ok && !m.NonNull && m.Truthiness == TruthinessUnknown {
			return true
		}
	}
	return false
}

func atomicContainedByUnion(a Atomic, container *Union, cb Codebase, inside bool, r *ComparisonResult) bool {
	if gp, ok := a.(TGenericParam); ok {
		for _, c := range container.Types {
			if cgp, ok := c.(TGenericParam); ok && cgp.Key() == gp.Key() {
				return true
			}
		}
		as := gp.As
		if as == nil {
			as = Mixed()
		}
		var cr ComparisonResult
		if isContainedBy(as, container, cb, CompareOptions{}, inside, &cr) {
			return true
		}
		if as.IsMixed() && cr.TypeCoerced {
			cr.TypeCoercedFromAsMixed = true
		}
		r.merge(cr)
		return false
	}

	var coerced *ComparisonResult
	scalarMatch := false
	for _, c := range container.Types {
		var cr ComparisonResult
		if IsAtomicContainedBy(a, c, cb, inside, &cr) {
			return true
		}
		if cr.TypeCoerced && coerced == nil {
			coerced = &cr
		}
		if cr.ScalarTypeMatchFound {
			scalarMatch = true
		}
	}
	if coerced != nil {
		r.merge(*coerced)
	}
	if scalarMatch {
		r.ScalarTypeMatchFound = true
	}
	return false
}

// IsAtomicContainedBy reports whether every value of a is a value of c.
// inside marks a comparison nested in an array or generic argument.
func IsAtomicContainedBy(a, c Atomic, cb Codebase, inside bool, r *ComparisonResult) bool {
	if a.ID() == c.ID() {
		return true
	}
	if _, ok := a.(TNever); ok {
		return true
	}

	if cm, ok := c.(TMixed); ok {
		return isContainedByMixed(a, cm, inside, r)
	}

	switch at := a.(type) {
	case TMixed:
		r.TypeCoerced = true
		if inside {
			r.TypeCoercedFromNestedMixed = true
		}
		return false
	case TVoid:
		switch c.(type) {
		case TNull, TVoid:
			return true
		}
		return false
	case TNull:
		_, ok := c.(TVoid)
		return ok
	case TGenericParam:
		if cgp, ok := c.(TGenericParam); ok && cgp.Key() == at.Key() {
			return true
		}
		as := at.As
		if as == nil {
			as = Mixed()
		}
		var cr ComparisonResult
		if isContainedBy(as, NewUnion(c), cb, CompareOptions{}, inside, &cr) {
			return true
		}
		if as.IsMixed() && cr.TypeCoerced {
			cr.TypeCoercedFromAsMixed = true
		}
		r.merge(cr)
		return false
	}

	switch ct := c.(type) {
	case TNever, TNull, TVoid:
		return false
	case TGenericParam:
		return false
	case TCallable:
		return isContainedByCallable(a, ct, cb, r)
	case TList, TKeyedArray:
		return isArrayContainedBy(a, c, cb, r)
	case TObject, TNamedObject, TEnum:
		return isObjectContainedBy(a, c, cb, r)
	}
	if IsScalarAtomic(c) {
		return isScalarContainedBy(a, c, r)
	}
	return false
}

func isContainedByMixed(a Atomic, c TMixed, inside bool, r *ComparisonResult) bool {
	am, inputMixed := a.(TMixed)
	switch c.Truthiness {
	case TruthinessTruthy:
		if IsAtomicAlwaysTruthy(a) {
			return true
		}
	case TruthinessFalsy:
		if IsAtomicAlwaysFalsy(a) {
			return true
		}
	default:
		if !c.NonNull {
			return true
		}
		switch a.(type) {
		case TNull, TVoid:
			return false
		}
		if !inputMixed || am.NonNull || am.Truthiness == TruthinessTruthy {
			return true
		}
	}
	if inputMixed || !IsAtomicAlwaysFalsy(a) && c.Truthiness == TruthinessTruthy ||
		!IsAtomicAlwaysTruthy(a) && c.Truthiness == TruthinessFalsy {
		r.TypeCoerced = true
		if inputMixed && inside {
			r.TypeCoercedFromNestedMixed = true
		}
	}
	return false
}

// nestedCheck accumulates nested containment checks of an array, object
// or callable comparison. A hard failure wins over a coercion.
type nestedCheck struct {
	cb      Codebase
	failed  bool
	coerced bool
	result  ComparisonResult
}

func (n *nestedCheck) union(input, container *Union) {
	if n.failed {
		return
	}
	var cr ComparisonResult
	if isContainedBy(input, container, n.cb, CompareOptions{}, true, &cr) {
		return
	}
	if cr.TypeCoerced {
		n.coerced = true
		n.result.merge(cr)
		return
	}
	n.failed = true
}

func (n *nestedCheck) fail() { n.failed = true }

func (n *nestedCheck) coerce() { n.coerced = true }

func (n *nestedCheck) done(r *ComparisonResult) bool {
	if n.failed {
		return false
	}
	if n.coerced {
		r.merge(n.result)
		r.TypeCoerced = true
		return false
	}
	return true
}

// CanBeIdentical reports whether some value can be typed by both a and b.
// It is used to detect comparisons that can never be true.
func CanBeIdentical(a, b *Union, cb Codebase) bool {
	if a == nil || b == nil || a.HasMixed() || b.HasMixed() {
		return true
	}
	for _, at := range a.Types {
		for _, bt := range b.Types {
			if atomicsCanBeIdentical(at, bt, cb) {
				return true
			}
		}
	}
	return false
}

func atomicsCanBeIdentical(a, b Atomic, cb Codebase) bool {
	if ga, ok := a.(TGenericParam); ok {
		return CanBeIdentical(ga.As, NewUnion(b), cb)
	}
	if gb, ok := b.(TGenericParam); ok {
		return CanBeIdentical(NewUnion(a), gb.As, cb)
	}
	var r1, r2 ComparisonResult
	if IsAtomicContainedBy(a, b, cb, false, &r1) || IsAtomicContainedBy(b, a, cb, false, &r2) {
		return true
	}
	if (r1.TypeCoerced || r2.TypeCoerced) && IsScalarAtomic(a) && IsScalarAtomic(b) {
		return true
	}
	if IsArrayAtomic(a) && IsArrayAtomic(b) {
		return true
	}
	na, okA := a.(TNamedObject)
	nb, okB := b.(TNamedObject)
	if okA && okB {
		if isInterface(cb, na.Name) && !isFinal(cb, nb.Name) {
			return true
		}
		if isInterface(cb, nb.Name) && !isFinal(cb, na.Name) {
			return true
		}
	}
	return false
}
