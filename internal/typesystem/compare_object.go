package typesystem

import "github.com/funvibe/flowcheck/internal/config"

func isObjectContainedBy(a, c Atomic, cb Codebase, r *ComparisonResult) bool {
	switch ct := c.(type) {
	case TObject:
		return IsObjectAtomic(a)

	case TEnum:
		at, ok := a.(TEnum)
		if !ok || !sameName(at.Name, ct.Name) {
			if _, ok := a.(TObject); ok {
				r.TypeCoerced = true
			}
			return false
		}
		if ct.Case == "" {
			return true
		}
		if at.Case == "" {
			r.TypeCoerced = true
			r.TypeCoercedToLiteral = true
		}
		return false

	case TNamedObject:
		switch at := a.(type) {
		case TObject:
			r.TypeCoerced = true
			return false
		case TEnum:
			return len(ct.TypeParams) == 0 && isInstanceOf(cb, at.Name, ct.Name)
		case TCallable:
			return at.IsClosure() && sameName(ct.Name, config.ClosureClass)
		case TNamedObject:
			return isNamedContainedBy(at, ct, cb, r)
		}
	}
	return false
}

func isNamedContainedBy(a, c TNamedObject, cb Codebase, r *ComparisonResult) bool {
	if len(c.Intersections) > 0 {
		base := c
		base.Intersections = nil
		if !isNamedContainedBy(a, base, cb, r) {
			return false
		}
		for _, it := range c.Intersections {
			var cr ComparisonResult
			if !IsAtomicContainedBy(a, it, cb, false, &cr) {
				r.merge(cr)
				return false
			}
		}
		return true
	}

	// any part of an intersection input may satisfy the container
	candidates := []TNamedObject{a}
	for _, it := range a.Intersections {
		if n, ok := it.(TNamedObject); ok {
			candidates = append(candidates, n)
		}
	}

	var downcast bool
	for _, cand := range candidates {
		if !isInstanceOf(cb, cand.Name, c.Name) {
			if isInstanceOf(cb, c.Name, cand.Name) {
				downcast = true
			}
			continue
		}
		if c.IsThis && !cand.IsThis && !isFinal(cb, c.Name) {
			r.TypeCoerced = true
			return false
		}
		if len(c.TypeParams) == 0 {
			return true
		}
		return typeParamsContained(cand, c, cb, r)
	}
	if downcast {
		r.TypeCoerced = true
	}
	return false
}

// typeParamsContained compares generic arguments covariantly after mapping
// the input's arguments onto the container's class.
func typeParamsContained(a, c TNamedObject, cb Codebase, r *ComparisonResult) bool {
	n := &nestedCheck{cb: cb}
	params, ok := ObjectParamsFor(cb, a, c.Name)
	if !ok {
		// raw generic input: its arguments default to mixed
		n.coerce()
		n.result.TypeCoercedFromNestedMixed = true
		return n.done(r)
	}
	for i, cp := range c.TypeParams {
		if i >= len(params) {
			break
		}
		n.union(params[i], cp)
	}
	return n.done(r)
}
