package typesystem

func isScalarContainedBy(a, c Atomic, r *ComparisonResult) bool {
	if !IsScalarAtomic(a) {
		return false
	}
	if scalarContains(a, c, r) {
		return true
	}
	if !r.TypeCoerced {
		r.ScalarTypeMatchFound = true
	}
	return false
}

// widerScalar reports whether a is one of the general scalar kinds that
// may hold values of c without being contained by it.
func widerScalar(a Atomic) bool {
	switch a.(type) {
	case TScalar, TArrayKey, TNumeric:
		return true
	}
	return false
}

func coerceScalar(r *ComparisonResult, toLiteral bool) bool {
	r.TypeCoerced = true
	if toLiteral {
		r.TypeCoercedToLiteral = true
	}
	return false
}

func scalarContains(a, c Atomic, r *ComparisonResult) bool {
	switch ct := c.(type) {
	case TScalar:
		return true

	case TArrayKey:
		if IsIntAtomic(a) || IsStringAtomic(a) {
			return true
		}
		if _, ok := a.(TScalar); ok {
			return coerceScalar(r, false)
		}
		if _, ok := a.(TNumeric); ok {
			return coerceScalar(r, false)
		}

	case TNumeric:
		switch at := a.(type) {
		case TInt, TLiteralInt, TIntRange, TFloat, TLiteralFloat:
			return true
		case TString:
			if at.Numeric {
				return true
			}
			return coerceScalar(r, false)
		case TLiteralString:
			return IsNumericString(at.Value)
		case TScalar, TArrayKey:
			return coerceScalar(r, false)
		}

	case TBool:
		if IsBoolAtomic(a) {
			return true
		}
		if _, ok := a.(TScalar); ok {
			return coerceScalar(r, false)
		}

	case TTrue, TFalse:
		if _, ok := a.(TBool); ok {
			return coerceScalar(r, true)
		}
		if _, ok := a.(TScalar); ok {
			return coerceScalar(r, true)
		}

	case TInt:
		if IsIntAtomic(a) {
			return true
		}
		if widerScalar(a) {
			return coerceScalar(r, false)
		}

	case TLiteralInt:
		switch at := a.(type) {
		case TInt:
			return coerceScalar(r, true)
		case TIntRange:
			if at.Contains(ct.Value) {
				return coerceScalar(r, true)
			}
		case TScalar, TArrayKey, TNumeric:
			return coerceScalar(r, true)
		}

	case TIntRange:
		switch at := a.(type) {
		case TLiteralInt:
			if ct.Contains(at.Value) {
				return true
			}
		case TIntRange:
			if ct.ContainsRange(at) {
				return true
			}
			if ct.Overlaps(at) {
				return coerceScalar(r, false)
			}
		case TInt:
			return coerceScalar(r, false)
		case TScalar, TArrayKey, TNumeric:
			return coerceScalar(r, false)
		}

	case TFloat:
		// ints are implicitly widened to float
		if IsFloatAtomic(a) || IsIntAtomic(a) {
			return true
		}
		if widerScalar(a) {
			return coerceScalar(r, false)
		}

	case TLiteralFloat:
		switch at := a.(type) {
		case TFloat:
			return coerceScalar(r, true)
		case TLiteralInt:
			return float64(at.Value) == ct.Value
		case TScalar, TNumeric:
			return coerceScalar(r, true)
		}

	case TString:
		switch at := a.(type) {
		case TLiteralString:
			if stringFlagsSatisfy(at.Flags(), ct) {
				return true
			}
		case TString:
			if stringFlagsSatisfy(at, ct) {
				return true
			}
			return coerceScalar(r, false)
		case TScalar, TArrayKey:
			return coerceScalar(r, false)
		}

	case TLiteralString:
		switch at := a.(type) {
		case TString:
			if stringFlagsSatisfy(ct.Flags(), at) {
				return coerceScalar(r, true)
			}
		case TScalar, TArrayKey:
			return coerceScalar(r, true)
		}
	}
	return false
}

// stringFlagsSatisfy reports whether a string with flags have meets every
// refinement of want.
func stringFlagsSatisfy(have, want TString) bool {
	have, want = have.normalized(), want.normalized()
	return (!want.Numeric || have.Numeric) &&
		(!want.Truthy || have.Truthy) &&
		(!want.NonEmpty || have.NonEmpty) &&
		(!want.Lowercase || have.Lowercase)
}
