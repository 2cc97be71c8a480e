package typesystem

import "strings"

// Codebase lets the comparator and combiner look up nominal facts
// (inheritance, enums, templates) without depending on the metadata
// package. A nil Codebase is allowed: only exact name matches succeed.
type Codebase interface {
	ClassLikeExists(name string) bool
	IsInterface(name string) bool
	IsEnum(name string) bool
	IsFinalClass(name string) bool

	// IsInstanceOf reports whether child extends or implements parent,
	// directly or transitively. Names are case-insensitive.
	IsInstanceOf(child, parent string) bool

	// EnumCases returns the case names of an enum in declaration order.
	EnumCases(name string) []string

	// ClassTemplateNames returns the declared template names of a class.
	ClassTemplateNames(name string) []string

	// TemplateExtendedParams returns, in the order of ancestor's templates,
	// the types child passes to ancestor, expressed with child's own
	// templates. ok is false when child does not parameterize ancestor.
	TemplateExtendedParams(child, ancestor string) (params []*Union, ok bool)

	// CallableForAlias resolves a callable alias to its signature.
	CallableForAlias(alias CallableAlias) (*CallableSignature, bool)
}

func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

func isInstanceOf(cb Codebase, child, parent string) bool {
	if sameName(child, parent) {
		return true
	}
	if cb == nil {
		return false
	}
	return cb.IsInstanceOf(child, parent)
}

func isInterface(cb Codebase, name string) bool {
	return cb != nil && cb.IsInterface(name)
}

func isFinal(cb Codebase, name string) bool {
	return cb != nil && cb.IsFinalClass(name)
}

// ObjectParamsFor maps the type arguments of obj onto the templates of
// ancestor. The second result is false when the mapping is unknown.
func ObjectParamsFor(cb Codebase, obj TNamedObject, ancestor string) ([]*Union, bool) {
	if sameName(obj.Name, ancestor) {
		return obj.TypeParams, len(obj.TypeParams) > 0
	}
	if cb == nil {
		return nil, false
	}
	extended, ok := cb.TemplateExtendedParams(obj.Name, ancestor)
	if !ok {
		return nil, false
	}
	names := cb.ClassTemplateNames(obj.Name)
	byName := make(map[string]*Union, len(names))
	for i, n := range names {
		if i < len(obj.TypeParams) {
			byName[n] = obj.TypeParams[i]
		}
	}
	out := make([]*Union, len(extended))
	for i, p := range extended {
		out[i] = ReplaceGenericParamsByName(p, obj.Name, byName)
	}
	return out, true
}
