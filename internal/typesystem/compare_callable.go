package typesystem

import "github.com/funvibe/flowcheck/internal/config"

func callableSignature(cb Codebase, t TCallable) *CallableSignature {
	if t.Signature != nil {
		return t.Signature
	}
	if t.Alias != nil && cb != nil {
		if sig, ok := cb.CallableForAlias(*t.Alias); ok {
			return sig
		}
	}
	return nil
}

func isContainedByCallable(a Atomic, c TCallable, cb Codebase, r *ComparisonResult) bool {
	csig := callableSignature(cb, c)
	switch at := a.(type) {
	case TCallable:
		asig := callableSignature(cb, at)
		if csig == nil {
			return true
		}
		if asig == nil {
			r.TypeCoerced = true
			return false
		}
		if csig.IsClosure && !asig.IsClosure {
			r.TypeCoerced = true
			return false
		}
		return signatureContained(asig, csig, cb, r)
	case TNamedObject:
		if !sameName(at.Name, config.ClosureClass) {
			return false
		}
		if csig == nil {
			return true
		}
		r.TypeCoerced = true
		return false
	case TLiteralString:
		if cb != nil {
			if sig, ok := cb.CallableForAlias(CallableAlias{Function: at.Value}); ok {
				if csig == nil {
					return true
				}
				if csig.IsClosure {
					return false
				}
				return signatureContained(sig, csig, cb, r)
			}
		}
		r.TypeCoerced = true
		return false
	case TString:
		r.TypeCoerced = true
		return false
	case TList, TKeyedArray:
		// [object, 'method'] pairs are not resolved here
		if csig == nil || !csig.IsClosure {
			r.TypeCoerced = true
		}
		return false
	}
	return false
}

// signatureContained compares parameters contravariantly and the return
// type covariantly.
func signatureContained(a, c *CallableSignature, cb Codebase, r *ComparisonResult) bool {
	n := &nestedCheck{cb: cb}
	for i, cp := range c.Params {
		var ap CallableParam
		switch {
		case i < len(a.Params):
			ap = a.Params[i]
		case len(a.Params) > 0 && a.Params[len(a.Params)-1].Variadic:
			ap = a.Params[len(a.Params)-1]
		default:
			// the input ignores extra arguments
			continue
		}
		n.union(orMixed(cp.Type), orMixed(ap.Type))
	}
	for i := len(c.Params); i < len(a.Params); i++ {
		if !a.Params[i].Optional && !a.Params[i].Variadic {
			n.fail()
		}
	}
	if c.Return != nil {
		n.union(orMixed(a.Return), c.Return)
	}
	return n.done(r)
}
