package typesystem

// WalkUnion visits every atomic of u depth-first, including atomics nested
// in arrays, generic arguments, callables and conditionals. The visitor
// returns false to stop the walk.
func WalkUnion(u *Union, visit func(Atomic) bool) bool {
	if u == nil {
		return true
	}
	for _, t := range u.Types {
		if !WalkAtomic(t, visit) {
			return false
		}
	}
	return true
}

// WalkAtomic visits a and everything nested in it.
func WalkAtomic(a Atomic, visit func(Atomic) bool) bool {
	if !visit(a) {
		return false
	}
	switch t := a.(type) {
	case TList:
		if !WalkUnion(t.Element, visit) {
			return false
		}
		for _, i := range t.SortedIndexes() {
			if !WalkUnion(t.KnownElements[i].Type, visit) {
				return false
			}
		}
	case TKeyedArray:
		for _, it := range t.KnownItems {
			if !WalkUnion(it.Type, visit) {
				return false
			}
		}
		if t.Params != nil {
			if !WalkUnion(t.Params.Key, visit) || !WalkUnion(t.Params.Value, visit) {
				return false
			}
		}
	case TNamedObject:
		for _, p := range t.TypeParams {
			if !WalkUnion(p, visit) {
				return false
			}
		}
		for _, it := range t.Intersections {
			if !WalkAtomic(it, visit) {
				return false
			}
		}
	case TReference:
		for _, p := range t.TypeParams {
			if !WalkUnion(p, visit) {
				return false
			}
		}
	case TGenericParam:
		if !WalkUnion(t.As, visit) {
			return false
		}
	case TCallable:
		if t.Signature != nil {
			for _, p := range t.Signature.Params {
				if !WalkUnion(p.Type, visit) {
					return false
				}
			}
			if !WalkUnion(t.Signature.Return, visit) {
				return false
			}
		}
	case TConditional:
		for _, part := range []*Union{t.Subject, t.Target, t.Then, t.Otherwise} {
			if !WalkUnion(part, visit) {
				return false
			}
		}
	}
	return true
}

// TransformUnion rebuilds u bottom-up. For every atomic (after its nested
// unions were transformed) replace is called; a nil result keeps the atomic.
// The top-level result is re-combined so substituted members merge.
func TransformUnion(u *Union, replace func(Atomic) *Union) *Union {
	if u == nil {
		return nil
	}
	out := make([]Atomic, 0, len(u.Types))
	changed := false
	for _, t := range u.Types {
		nt := TransformAtomic(t, replace)
		if r := replace(nt); r != nil {
			out = append(out, r.Types...)
			changed = true
			if r.HadTemplate {
				u = withHadTemplate(u)
			}
			continue
		}
		if nt.ID() != t.ID() {
			changed = true
		}
		out = append(out, nt)
	}
	if !changed {
		return u
	}
	res := NewUnion(Combine(out, nil, false)...)
	res.copyFlags(u)
	return res
}

func withHadTemplate(u *Union) *Union {
	if u.HadTemplate {
		return u
	}
	c := u.Clone()
	c.HadTemplate = true
	return c
}

// TransformAtomic rebuilds the unions nested inside a; a itself is not
// passed to replace.
func TransformAtomic(a Atomic, replace func(Atomic) *Union) Atomic {
	tr := func(u *Union) *Union { return TransformUnion(u, replace) }
	switch t := a.(type) {
	case TList:
		n := t
		n.Element = tr(t.Element)
		if len(t.KnownElements) > 0 {
			n.KnownElements = make(map[int]ListElement, len(t.KnownElements))
			for i, e := range t.KnownElements {
				n.KnownElements[i] = ListElement{Type: tr(e.Type), Optional: e.Optional}
			}
		}
		return n
	case TKeyedArray:
		n := t
		if len(t.KnownItems) > 0 {
			n.KnownItems = make([]KeyedItem, len(t.KnownItems))
			for i, it := range t.KnownItems {
				n.KnownItems[i] = KeyedItem{Key: it.Key, Type: tr(it.Type), Optional: it.Optional}
			}
		}
		if t.Params != nil {
			n.Params = &KeyedParams{Key: tr(t.Params.Key), Value: tr(t.Params.Value)}
		}
		return n
	case TNamedObject:
		if len(t.TypeParams) == 0 && len(t.Intersections) == 0 {
			return t
		}
		n := t
		n.TypeParams = transformList(t.TypeParams, tr)
		if len(t.Intersections) > 0 {
			n.Intersections = make([]Atomic, len(t.Intersections))
			for i, it := range t.Intersections {
				n.Intersections[i] = TransformAtomic(it, replace)
			}
		}
		return n
	case TReference:
		if len(t.TypeParams) == 0 {
			return t
		}
		n := t
		n.TypeParams = transformList(t.TypeParams, tr)
		return n
	case TGenericParam:
		n := t
		n.As = tr(t.As)
		return n
	case TCallable:
		if t.Signature == nil {
			return t
		}
		sig := *t.Signature
		sig.Params = make([]CallableParam, len(t.Signature.Params))
		for i, p := range t.Signature.Params {
			p.Type = tr(p.Type)
			sig.Params[i] = p
		}
		sig.Return = tr(t.Signature.Return)
		return TCallable{Signature: &sig, Alias: t.Alias}
	case TConditional:
		return TConditional{
			Subject:   tr(t.Subject),
			Target:    tr(t.Target),
			Then:      tr(t.Then),
			Otherwise: tr(t.Otherwise),
			Negated:   t.Negated,
		}
	}
	return a
}

func transformList(list []*Union, tr func(*Union) *Union) []*Union {
	if list == nil {
		return nil
	}
	out := make([]*Union, len(list))
	for i, u := range list {
		out[i] = tr(u)
	}
	return out
}

// ReplaceGenericParams substitutes templates by key (see TGenericParam.Key).
// Templates without a replacement are kept.
func ReplaceGenericParams(u *Union, replacements map[string]*Union) *Union {
	if len(replacements) == 0 {
		return u
	}
	return TransformUnion(u, func(a Atomic) *Union {
		gp, ok := a.(TGenericParam)
		if !ok {
			return nil
		}
		if r, ok := replacements[gp.Key()]; ok {
			r = r.Clone()
			r.HadTemplate = true
			return r
		}
		return nil
	})
}

// ReplaceGenericParamsByName substitutes templates by name only, for the
// given defining entity. It is used to map a class's own templates to the
// arguments of an instance.
func ReplaceGenericParamsByName(u *Union, entity string, byName map[string]*Union) *Union {
	if len(byName) == 0 {
		return u
	}
	return TransformUnion(u, func(a Atomic) *Union {
		gp, ok := a.(TGenericParam)
		if !ok || !sameName(gp.DefiningEntity, entity) {
			return nil
		}
		if r, ok := byName[gp.Name]; ok {
			return r
		}
		return nil
	})
}
