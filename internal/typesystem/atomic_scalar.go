package typesystem

import (
	"math"
	"strconv"
	"strings"
)

type TBool struct{}

func (TBool) ID() string { return "bool" }
func (TBool) atomic()    {}

type TTrue struct{}

func (TTrue) ID() string { return "true" }
func (TTrue) atomic()    {}

type TFalse struct{}

func (TFalse) ID() string { return "false" }
func (TFalse) atomic()    {}

// TInt is any integer.
type TInt struct{}

func (TInt) ID() string { return "int" }
func (TInt) atomic()    {}

// TLiteralInt is a single known integer.
type TLiteralInt struct {
	Value int64
}

func (t TLiteralInt) ID() string { return "int(" + strconv.FormatInt(t.Value, 10) + ")" }
func (TLiteralInt) atomic()      {}

// TIntRange is an integer between Min and Max inclusive. A nil bound is
// unbounded on that side.
type TIntRange struct {
	Min *int64
	Max *int64
}

func (t TIntRange) ID() string {
	switch {
	case t.Min != nil && t.Max == nil && *t.Min == 1:
		return "positive-int"
	case t.Min != nil && t.Max == nil && *t.Min == 0:
		return "non-negative-int"
	case t.Min == nil && t.Max != nil && *t.Max == -1:
		return "negative-int"
	case t.Min == nil && t.Max != nil && *t.Max == 0:
		return "non-positive-int"
	}
	lo, hi := "min", "max"
	if t.Min != nil {
		lo = strconv.FormatInt(*t.Min, 10)
	}
	if t.Max != nil {
		hi = strconv.FormatInt(*t.Max, 10)
	}
	return "int<" + lo + ", " + hi + ">"
}
func (TIntRange) atomic() {}

// NewIntRange builds a range; use nil for an open side.
func NewIntRange(min, max *int64) TIntRange {
	return TIntRange{Min: min, Max: max}
}

// IntPtr is a helper to build range bounds.
func IntPtr(v int64) *int64 { return &v }

func (t TIntRange) lower() int64 {
	if t.Min == nil {
		return math.MinInt64
	}
	return *t.Min
}

func (t TIntRange) upper() int64 {
	if t.Max == nil {
		return math.MaxInt64
	}
	return *t.Max
}

// Contains reports whether v lies in the range.
func (t TIntRange) Contains(v int64) bool {
	return v >= t.lower() && v <= t.upper()
}

// ContainsRange reports whether every value of o lies in t.
func (t TIntRange) ContainsRange(o TIntRange) bool {
	return o.lower() >= t.lower() && o.upper() <= t.upper()
}

// Overlaps reports whether t and o share at least one value.
func (t TIntRange) Overlaps(o TIntRange) bool {
	return t.lower() <= o.upper() && o.lower() <= t.upper()
}

// IsUnbounded reports whether the range is the same as int.
func (t TIntRange) IsUnbounded() bool {
	return t.Min == nil && t.Max == nil
}

type TFloat struct{}

func (TFloat) ID() string { return "float" }
func (TFloat) atomic()    {}

// TLiteralFloat is a single known float.
type TLiteralFloat struct {
	Value float64
}

func (t TLiteralFloat) ID() string {
	return "float(" + strconv.FormatFloat(t.Value, 'g', -1, 64) + ")"
}
func (TLiteralFloat) atomic() {}

// TString is a string with optional refinement flags.
// Numeric and Truthy both imply NonEmpty.
type TString struct {
	Numeric   bool
	Truthy    bool
	NonEmpty  bool
	Lowercase bool
}

func (t TString) ID() string {
	if t.Numeric {
		return "numeric-string"
	}
	var parts []string
	switch {
	case t.Truthy:
		parts = append(parts, "truthy")
	case t.NonEmpty:
		parts = append(parts, "non-empty")
	}
	if t.Lowercase {
		parts = append(parts, "lowercase")
	}
	parts = append(parts, "string")
	return strings.Join(parts, "-")
}
func (TString) atomic() {}

// normalized returns the flags with implications applied.
func (t TString) normalized() TString {
	if t.Numeric || t.Truthy {
		t.NonEmpty = true
	}
	return t
}

// IsGeneral reports whether the string carries no refinement.
func (t TString) IsGeneral() bool {
	return !t.Numeric && !t.Truthy && !t.NonEmpty && !t.Lowercase
}

// TLiteralString is a single known string.
type TLiteralString struct {
	Value string
}

func (t TLiteralString) ID() string {
	return "string(" + strconv.Quote(t.Value) + ")"
}
func (TLiteralString) atomic() {}

// Flags returns the refinement flags the literal satisfies.
func (t TLiteralString) Flags() TString {
	return TString{
		Numeric:   IsNumericString(t.Value),
		Truthy:    t.Value != "" && t.Value != "0",
		NonEmpty:  t.Value != "",
		Lowercase: t.Value == strings.ToLower(t.Value),
	}
}

// IsNumericString follows the source language rules for numeric strings:
// optional surrounding whitespace, an optional sign, digits with an
// optional fraction and exponent.
func IsNumericString(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	if strings.ContainsAny(s, "xXpP_") || strings.EqualFold(s, "inf") || strings.EqualFold(s, "nan") ||
		strings.EqualFold(s, "+inf") || strings.EqualFold(s, "-inf") || strings.EqualFold(s, "infinity") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// TArrayKey is int|string.
type TArrayKey struct{}

func (TArrayKey) ID() string { return "array-key" }
func (TArrayKey) atomic()    {}

// TNumeric is int|float|numeric-string.
type TNumeric struct{}

func (TNumeric) ID() string { return "numeric" }
func (TNumeric) atomic()    {}

// TScalar is bool|int|float|string.
type TScalar struct{}

func (TScalar) ID() string { return "scalar" }
func (TScalar) atomic()    {}

// IsScalarAtomic reports whether the atomic is one of the scalar kinds.
func IsScalarAtomic(a Atomic) bool {
	switch a.(type) {
	case TBool, TTrue, TFalse, TInt, TLiteralInt, TIntRange, TFloat, TLiteralFloat,
		TString, TLiteralString, TArrayKey, TNumeric, TScalar:
		return true
	}
	return false
}

// IsIntAtomic reports whether the atomic is an integer kind.
func IsIntAtomic(a Atomic) bool {
	switch a.(type) {
	case TInt, TLiteralInt, TIntRange:
		return true
	}
	return false
}

// IsStringAtomic reports whether the atomic is a string kind.
func IsStringAtomic(a Atomic) bool {
	switch a.(type) {
	case TString, TLiteralString:
		return true
	}
	return false
}

// IsFloatAtomic reports whether the atomic is a float kind.
func IsFloatAtomic(a Atomic) bool {
	switch a.(type) {
	case TFloat, TLiteralFloat:
		return true
	}
	return false
}

// IsBoolAtomic reports whether the atomic is a boolean kind.
func IsBoolAtomic(a Atomic) bool {
	switch a.(type) {
	case TBool, TTrue, TFalse:
		return true
	}
	return false
}

// IsLiteralAtomic reports whether the atomic denotes exactly one value.
func IsLiteralAtomic(a Atomic) bool {
	switch a.(type) {
	case TLiteralInt, TLiteralFloat, TLiteralString, TTrue, TFalse, TNull:
		return true
	case TEnum:
		return a.(TEnum).Case != ""
	}
	return false
}
