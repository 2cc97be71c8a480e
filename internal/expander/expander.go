// Package expander resolves the symbolic parts of a declared type:
// references to classes, enum cases and class constants, and the late
// static binding marker of `static`.
package expander

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/typesystem"
)

// Lookup is the part of the codebase expansion reads.
type Lookup interface {
	// ClassLikeName returns the declared spelling of a class-like name.
	ClassLikeName(name string) (string, bool)
	IsEnum(name string) bool
	EnumCases(name string) []string
	ClassConstantType(class, name string) (*typesystem.Union, bool)
	ClassConstantNames(class string) []string
}

// Options describe the class context a type is expanded in.
type Options struct {
	// Self is the class that declared the type.
	Self string
	// Parent is the parent class of Self.
	Parent string
	// Static is the late static binding target. When nil, `static`
	// is left as declared.
	Static *typesystem.TNamedObject
	// FinalStatic marks a final method or class: `static` is then exactly
	// Self and loses its marker.
	FinalStatic bool
}

// Expand returns u with references and `static` resolved.
func Expand(u *typesystem.Union, lookup Lookup, opts Options) *typesystem.Union {
	e := &expander{lookup: lookup, opts: opts, visiting: map[string]bool{}}
	return e.union(u)
}

type expander struct {
	lookup   Lookup
	opts     Options
	visiting map[string]bool // class::CONST pairs being expanded
}

func (e *expander) union(u *typesystem.Union) *typesystem.Union {
	return typesystem.TransformUnion(u, e.atomic)
}

func (e *expander) atomic(a typesystem.Atomic) *typesystem.Union {
	switch t := a.(type) {
	case typesystem.TReference:
		if t.Member == "" {
			return typesystem.NewUnion(e.classReference(t))
		}
		return e.memberReference(t)
	case typesystem.TNamedObject:
		if t.IsThis {
			if r, ok := e.static(t); ok {
				return typesystem.NewUnion(r)
			}
		}
	}
	return nil
}

func (e *expander) classReference(t typesystem.TReference) typesystem.Atomic {
	name, ok := e.lookup.ClassLikeName(t.Symbol)
	if !ok {
		return typesystem.TNamedObject{Name: t.Symbol, TypeParams: t.TypeParams}
	}
	if e.lookup.IsEnum(name) {
		return typesystem.TEnum{Name: name}
	}
	return typesystem.TNamedObject{Name: name, TypeParams: t.TypeParams}
}

func (e *expander) memberReference(t typesystem.TReference) *typesystem.Union {
	class, ok := e.lookup.ClassLikeName(t.Symbol)
	if !ok {
		return typesystem.Mixed()
	}
	if strings.Contains(t.Member, "*") {
		return e.wildcard(class, t.Member)
	}
	if e.lookup.IsEnum(class) && hasCase(e.lookup.EnumCases(class), t.Member) {
		return typesystem.NewUnion(typesystem.TEnum{Name: class, Case: t.Member})
	}
	return e.constant(class, t.Member)
}

func (e *expander) constant(class, name string) *typesystem.Union {
	key := strings.ToLower(class) + "::" + name
	if e.visiting[key] {
		return typesystem.Mixed()
	}
	ct, ok := e.lookup.ClassConstantType(class, name)
	if !ok {
		return typesystem.Mixed()
	}
	e.visiting[key] = true
	defer delete(e.visiting, key)
	return e.union(ct)
}

// wildcard expands Foo::PREFIX_* to the union of the matching constants
// and enum cases.
func (e *expander) wildcard(class, pattern string) *typesystem.Union {
	prefix := strings.TrimSuffix(pattern, "*")
	var parts []*typesystem.Union
	if e.lookup.IsEnum(class) {
		for _, c := range e.lookup.EnumCases(class) {
			if strings.HasPrefix(c, prefix) {
				parts = append(parts, typesystem.NewUnion(typesystem.TEnum{Name: class, Case: c}))
			}
		}
	}
	for _, c := range e.lookup.ClassConstantNames(class) {
		if strings.HasPrefix(c, prefix) {
			parts = append(parts, e.constant(class, c))
		}
	}
	if len(parts) == 0 {
		return typesystem.Mixed()
	}
	return typesystem.CombineUnions(nil, false, parts...)
}

func (e *expander) static(t typesystem.TNamedObject) (typesystem.Atomic, bool) {
	if e.opts.FinalStatic {
		return t.WithoutThis(), true
	}
	if e.opts.Static == nil {
		return nil, false
	}
	r := *e.opts.Static
	r.IsThis = true
	if len(r.TypeParams) == 0 {
		r.TypeParams = t.TypeParams
	}
	if len(t.Intersections) > 0 {
		r.Intersections = append(append([]typesystem.Atomic(nil), r.Intersections...), t.Intersections...)
	}
	return r, true
}

func hasCase(cases []string, name string) bool {
	for _, c := range cases {
		if c == name {
			return true
		}
	}
	return false
}
