package template

import (
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/typesystem"
)

// InferBounds walks a declared parameter type against the type of the
// argument passed for it and records lower bounds for every template the
// parameter mentions. Only templates defined in r are bound.
func InferBounds(cb typesystem.Codebase, param, arg *typesystem.Union, r *Result, depth, offset int) {
	if param == nil || arg == nil || !param.HasTemplate() {
		return
	}
	inf := &inferrer{cb: cb, r: r, offset: offset}
	inf.union(param, arg, depth)
}

type inferrer struct {
	cb     typesystem.Codebase
	r      *Result
	offset int
}

func (inf *inferrer) union(param, arg *typesystem.Union, depth int) {
	if depth > config.MaxTemplateDepth || arg.IsNever() {
		return
	}
	// The part of the argument matched by concrete members of the
	// parameter does not flow into its templates: T|null given int|null
	// binds T to int.
	rest := arg
	var generic []typesystem.TGenericParam
	var structured []typesystem.Atomic
	for _, p := range param.Types {
		switch pt := p.(type) {
		case typesystem.TGenericParam:
			generic = append(generic, pt)
		default:
			if hasTemplate(pt) {
				structured = append(structured, pt)
				continue
			}
			rest = without(rest, pt, inf.cb)
		}
	}
	for _, p := range structured {
		for _, a := range arg.Types {
			inf.atomic(p, a, depth)
		}
	}
	if rest.IsNever() {
		return
	}
	for _, gp := range generic {
		if _, ok := inf.r.Constraint(gp.Name, gp.DefiningEntity); !ok {
			continue
		}
		inf.r.AddLowerBound(gp.Name, gp.DefiningEntity, Bound{Type: rest, Depth: depth, ArgOffset: inf.offset})
	}
}

func (inf *inferrer) atomic(param, arg typesystem.Atomic, depth int) {
	switch p := param.(type) {
	case typesystem.TList:
		switch a := arg.(type) {
		case typesystem.TList:
			inf.union(p.Element, listValue(a), depth+1)
		case typesystem.TKeyedArray:
			if l, ok := typesystem.KeyedAsList(a); ok {
				inf.union(p.Element, listValue(l), depth+1)
			}
		}
	case typesystem.TKeyedArray:
		if p.Params == nil {
			inf.shape(p, arg, depth)
			return
		}
		switch a := arg.(type) {
		case typesystem.TList:
			inf.union(p.Params.Key, typesystem.NewUnion(typesystem.TIntRange{Min: typesystem.IntPtr(0)}), depth+1)
			inf.union(p.Params.Value, listValue(a), depth+1)
		case typesystem.TKeyedArray:
			key, value := keyedParams(a)
			inf.union(p.Params.Key, key, depth+1)
			inf.union(p.Params.Value, value, depth+1)
		}
	case typesystem.TNamedObject:
		a, ok := arg.(typesystem.TNamedObject)
		if !ok || len(p.TypeParams) == 0 {
			return
		}
		params, ok := typesystem.ObjectParamsFor(inf.cb, a, p.Name)
		if !ok {
			return
		}
		for i, pp := range p.TypeParams {
			if i < len(params) {
				inf.union(pp, params[i], depth+1)
			}
		}
	case typesystem.TCallable:
		sig := p.Signature
		argSig := inf.signature(arg)
		if sig == nil || argSig == nil {
			return
		}
		if sig.Return != nil && argSig.Return != nil {
			inf.union(sig.Return, argSig.Return, depth+1)
		}
		for i, pp := range sig.Params {
			if i < len(argSig.Params) && argSig.Params[i].Type != nil && pp.Type != nil {
				inf.union(pp.Type, argSig.Params[i].Type, depth+1)
			}
		}
	}
}

// shape binds the known items of a sealed parameter shape.
func (inf *inferrer) shape(p typesystem.TKeyedArray, arg typesystem.Atomic, depth int) {
	a, ok := arg.(typesystem.TKeyedArray)
	if !ok {
		if l, isList := arg.(typesystem.TList); isList {
			a = typesystem.ListAsKeyed(l)
		} else {
			return
		}
	}
	for _, it := range p.KnownItems {
		if ai, ok := a.Item(it.Key); ok {
			inf.union(it.Type, ai.Type, depth+1)
		}
	}
}

func (inf *inferrer) signature(a typesystem.Atomic) *typesystem.CallableSignature {
	c, ok := a.(typesystem.TCallable)
	if !ok {
		return nil
	}
	if c.Signature != nil {
		return c.Signature
	}
	if c.Alias != nil && inf.cb != nil {
		sig, _ := inf.cb.CallableForAlias(*c.Alias)
		return sig
	}
	return nil
}

func hasTemplate(a typesystem.Atomic) bool {
	found := false
	typesystem.WalkAtomic(a, func(t typesystem.Atomic) bool {
		if _, ok := t.(typesystem.TGenericParam); ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// without drops the argument atomics the concrete parameter member accepts.
func without(arg *typesystem.Union, p typesystem.Atomic, cb typesystem.Codebase) *typesystem.Union {
	keep := make([]typesystem.Atomic, 0, len(arg.Types))
	for _, a := range arg.Types {
		if !typesystem.IsAtomicContainedBy(a, p, cb, false, &typesystem.ComparisonResult{}) {
			keep = append(keep, a)
		}
	}
	if len(keep) == len(arg.Types) {
		return arg
	}
	return typesystem.NewUnion(keep...)
}

// listValue is the union of every element a list may hold.
func listValue(l typesystem.TList) *typesystem.Union {
	parts := []*typesystem.Union{}
	if l.Element != nil && !l.Element.IsNever() {
		parts = append(parts, l.Element)
	}
	for _, i := range l.SortedIndexes() {
		parts = append(parts, l.KnownElements[i].Type)
	}
	if len(parts) == 0 {
		return typesystem.Never()
	}
	return typesystem.CombineUnions(nil, false, parts...)
}

// keyedParams is the key and value union of every entry a keyed array may
// hold.
func keyedParams(a typesystem.TKeyedArray) (*typesystem.Union, *typesystem.Union) {
	var keys []typesystem.Atomic
	var values []*typesystem.Union
	for _, it := range a.KnownItems {
		keys = append(keys, it.Key.Atomic())
		values = append(values, it.Type)
	}
	if a.Params != nil {
		keys = append(keys, a.Params.Key.Types...)
		values = append(values, a.Params.Value)
	}
	if len(values) == 0 {
		return typesystem.Never(), typesystem.Never()
	}
	return typesystem.NewUnion(typesystem.Combine(keys, nil, false)...), typesystem.CombineUnions(nil, false, values...)
}
