package typesystem

// Numeric ordering is decided only between single literals. Anything else
// is unknown and reported as false.

type literalNumber struct {
	isInt bool
	i     int64
	f     float64
}

func singleLiteralNumber(u *Union) (literalNumber, bool) {
	if u == nil {
		return literalNumber{}, false
	}
	if v, ok := u.SingleLiteralIntValue(); ok {
		return literalNumber{isInt: true, i: v, f: float64(v)}, true
	}
	if v, ok := u.SingleLiteralFloatValue(); ok {
		return literalNumber{f: v}, true
	}
	return literalNumber{}, false
}

func (a literalNumber) less(b literalNumber) bool {
	if a.isInt && b.isInt {
		return a.i < b.i
	}
	return a.f < b.f
}

func (a literalNumber) lessOrEqual(b literalNumber) bool {
	if a.isInt && b.isInt {
		return a.i <= b.i
	}
	return a.f <= b.f
}

// IsAlwaysLessThan reports whether a < b holds for every value.
func IsAlwaysLessThan(a, b *Union) bool {
	av, okA := singleLiteralNumber(a)
	bv, okB := singleLiteralNumber(b)
	return okA && okB && av.less(bv)
}

// IsAlwaysLessThanOrEqual reports whether a <= b holds for every value.
// When only one side is a literal it falls back to type identity.
func IsAlwaysLessThanOrEqual(a, b *Union) bool {
	av, okA := singleLiteralNumber(a)
	bv, okB := singleLiteralNumber(b)
	switch {
	case okA && okB:
		return av.lessOrEqual(bv)
	case okA || okB:
		return a.Equals(b)
	}
	return false
}

// IsAlwaysGreaterThan reports whether a > b holds for every value.
func IsAlwaysGreaterThan(a, b *Union) bool {
	return IsAlwaysLessThan(b, a)
}

// IsAlwaysGreaterThanOrEqual reports whether a >= b holds for every value.
func IsAlwaysGreaterThanOrEqual(a, b *Union) bool {
	return IsAlwaysLessThanOrEqual(b, a)
}
