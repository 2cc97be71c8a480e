package typesystem

import (
	"sort"
	"strings"
)

// Union is a set of atomic types: the value is one of them.
//
// A union is never empty. The impossible type is the single atomic TNever.
// Unions are treated as immutable once built; operations that change a
// union return a new one.
type Union struct {
	Types []Atomic

	IgnoreNullableIssues bool
	IgnoreFalsableIssues bool

	// HadTemplate marks a type produced by substituting a template.
	HadTemplate bool
	// FromTemplateDefault marks a template resolved to its default because
	// nothing bound it.
	FromTemplateDefault bool

	// PossiblyUndefined marks a variable or array item that may not be set.
	PossiblyUndefined bool
	// PossiblyUndefinedFromTry marks a variable first assigned inside a try block.
	PossiblyUndefinedFromTry bool
}

// NewUnion builds a union from atomics, dropping duplicates by ID.
// An empty list yields never.
func NewUnion(types ...Atomic) *Union {
	if len(types) == 0 {
		return &Union{Types: []Atomic{TNever{}}}
	}
	if len(types) == 1 {
		return &Union{Types: []Atomic{types[0]}}
	}
	seen := make(map[string]bool, len(types))
	unique := make([]Atomic, 0, len(types))
	for _, t := range types {
		id := t.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, t)
	}
	if len(unique) > 1 {
		// never is the identity of union
		filtered := unique[:0]
		for _, t := range unique {
			if _, ok := t.(TNever); !ok {
				filtered = append(filtered, t)
			}
		}
		if len(filtered) == 0 {
			filtered = append(filtered, TNever{})
		}
		unique = filtered
	}
	return &Union{Types: unique}
}

func Never() *Union   { return NewUnion(TNever{}) }
func Void() *Union    { return NewUnion(TVoid{}) }
func Null() *Union    { return NewUnion(TNull{}) }
func Mixed() *Union   { return NewUnion(TMixed{}) }
func NonNull() *Union { return NewUnion(TMixed{NonNull: true}) }
func Bool() *Union    { return NewUnion(TBool{}) }
func True() *Union    { return NewUnion(TTrue{}) }
func False() *Union   { return NewUnion(TFalse{}) }
func Int() *Union     { return NewUnion(TInt{}) }
func Float() *Union   { return NewUnion(TFloat{}) }
func String() *Union  { return NewUnion(TString{}) }
func ArrayKeyType() *Union {
	return NewUnion(TArrayKey{})
}
func Object() *Union { return NewUnion(TObject{}) }

func LiteralInt(v int64) *Union      { return NewUnion(TLiteralInt{Value: v}) }
func LiteralFloat(v float64) *Union  { return NewUnion(TLiteralFloat{Value: v}) }
func LiteralString(s string) *Union  { return NewUnion(TLiteralString{Value: s}) }
func Named(name string) *Union       { return NewUnion(TNamedObject{Name: name}) }
func Nullable(types ...Atomic) *Union { return NewUnion(append(types, TNull{})...) }

// MixedArray returns array<array-key, mixed>.
func MixedArray() *Union {
	return NewUnion(NewArray(ArrayKeyType(), Mixed()))
}

// ID returns the identity string of the union: atomic IDs joined by "|".
func (u *Union) ID() string {
	if u == nil {
		return "mixed"
	}
	if len(u.Types) == 1 {
		return u.Types[0].ID()
	}
	parts := make([]string, len(u.Types))
	for i, t := range u.Types {
		parts[i] = t.ID()
	}
	return strings.Join(parts, "|")
}

func (u *Union) String() string {
	return u.ID()
}

// SortedIDs returns the atomic IDs in sorted order.
func (u *Union) SortedIDs() []string {
	ids := make([]string, len(u.Types))
	for i, t := range u.Types {
		ids[i] = t.ID()
	}
	sort.Strings(ids)
	return ids
}

// Equals reports structural equality: the same set of atomic IDs.
// Flags are not compared.
func (u *Union) Equals(o *Union) bool {
	if u == o {
		return true
	}
	if u == nil || o == nil {
		return false
	}
	if len(u.Types) != len(o.Types) {
		return false
	}
	a, b := u.SortedIDs(), o.SortedIDs()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy that can be modified independently.
func (u *Union) Clone() *Union {
	c := *u
	c.Types = append([]Atomic(nil), u.Types...)
	return &c
}

// WithTypes returns a copy of u carrying u's flags but the given atomics.
func (u *Union) WithTypes(types []Atomic) *Union {
	n := NewUnion(types...)
	n.copyFlags(u)
	return n
}

func (u *Union) copyFlags(from *Union) {
	u.IgnoreNullableIssues = from.IgnoreNullableIssues
	u.IgnoreFalsableIssues = from.IgnoreFalsableIssues
	u.HadTemplate = from.HadTemplate
	u.FromTemplateDefault = from.FromTemplateDefault
	u.PossiblyUndefined = from.PossiblyUndefined
	u.PossiblyUndefinedFromTry = from.PossiblyUndefinedFromTry
}

// AsPossiblyUndefined returns a copy flagged as possibly undefined.
func (u *Union) AsPossiblyUndefined() *Union {
	c := u.Clone()
	c.PossiblyUndefined = true
	return c
}

// AsDefined returns a copy with the possibly-undefined flags cleared.
func (u *Union) AsDefined() *Union {
	if !u.PossiblyUndefined && !u.PossiblyUndefinedFromTry {
		return u
	}
	c := u.Clone()
	c.PossiblyUndefined = false
	c.PossiblyUndefinedFromTry = false
	return c
}

// IsSingle reports whether the union has exactly one atomic.
func (u *Union) IsSingle() bool {
	return len(u.Types) == 1
}

// Single returns the only atomic; it panics when there are more.
func (u *Union) Single() Atomic {
	if len(u.Types) != 1 {
		panic("typesystem: Single called on union " + u.ID())
	}
	return u.Types[0]
}
