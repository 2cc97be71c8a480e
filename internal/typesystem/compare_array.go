package typesystem

func isArrayContainedBy(a, c Atomic, cb Codebase, r *ComparisonResult) bool {
	switch ct := c.(type) {
	case TList:
		switch at := a.(type) {
		case TList:
			return isListContainedBy(at, ct, cb, r)
		case TKeyedArray:
			if at.IsEmpty() {
				return !ct.IsNonEmpty()
			}
			if l, ok := KeyedAsList(at); ok {
				return isListContainedBy(l, ct, cb, r)
			}
			// an int-keyed array may happen to be a list
			if at.Params != nil && len(at.KnownItems) == 0 {
				n := &nestedCheck{cb: cb}
				n.union(at.Params.Key, Int())
				n.union(at.Params.Value, orMixed(ct.Element))
				if n.failed {
					return false
				}
				n.coerce()
				return n.done(r)
			}
		}
	case TKeyedArray:
		switch at := a.(type) {
		case TList:
			return isKeyedContainedBy(ListAsKeyed(at), ct, cb, r)
		case TKeyedArray:
			return isKeyedContainedBy(at, ct, cb, r)
		}
	}
	return false
}

func orMixed(u *Union) *Union {
	if u == nil {
		return Mixed()
	}
	return u
}

func isListContainedBy(a, c TList, cb Codebase, r *ComparisonResult) bool {
	n := &nestedCheck{cb: cb}
	for i, ce := range c.KnownElements {
		if ae, ok := a.KnownElements[i]; ok {
			n.union(ae.Type, ce.Type)
			if ae.Optional && !ce.Optional {
				n.fail()
			}
			continue
		}
		if !ce.Optional {
			if a.IsSealed() {
				n.fail()
			} else {
				n.coerce()
			}
		}
		if !a.IsSealed() {
			n.union(a.Element, ce.Type)
		}
	}
	for i, ae := range a.KnownElements {
		if _, ok := c.KnownElements[i]; ok {
			continue
		}
		if c.IsSealed() {
			n.fail()
			break
		}
		n.union(ae.Type, c.Element)
	}
	if !a.IsSealed() {
		if c.IsSealed() {
			n.fail()
		} else {
			n.union(a.Element, c.Element)
		}
	}
	if c.IsNonEmpty() && !a.IsNonEmpty() {
		n.coerce()
	}
	return n.done(r)
}

func isKeyedContainedBy(a, c TKeyedArray, cb Codebase, r *ComparisonResult) bool {
	if a.IsEmpty() {
		return !c.IsNonEmpty()
	}
	n := &nestedCheck{cb: cb}
	for _, ci := range c.KnownItems {
		if ai, ok := a.Item(ci.Key); ok {
			n.union(ai.Type, ci.Type)
			if ai.Optional && !ci.Optional {
				n.fail()
			}
			continue
		}
		if ci.Optional {
			continue
		}
		if a.Params != nil {
			// a generic array may hold the key
			n.coerce()
			continue
		}
		n.fail()
	}
	for _, ai := range a.KnownItems {
		if _, ok := c.Item(ai.Key); ok {
			continue
		}
		if c.Params == nil {
			n.fail()
			break
		}
		n.union(NewUnion(ai.Key.Atomic()), c.Params.Key)
		n.union(ai.Type, c.Params.Value)
	}
	if a.Params != nil {
		if c.Params == nil {
			n.coerce()
		} else {
			n.union(a.Params.Key, c.Params.Key)
			n.union(a.Params.Value, c.Params.Value)
		}
	}
	if c.IsNonEmpty() && !a.IsNonEmpty() {
		n.coerce()
	}
	return n.done(r)
}
