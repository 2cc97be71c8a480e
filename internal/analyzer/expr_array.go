package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

const (
	traversableClass = "Traversable"
	offsetGetMethod  = "offsetGet"
)

type arrayEntry struct {
	key    *ts.Union // nil without an explicit key
	value  *ts.Union
	spread bool
}

func (w *walker) arrayLiteral(n *ast.ArrayLiteral, ctx *flow.BlockContext) *ts.Union {
	if len(n.Items) == 0 {
		return ts.NewUnion(ts.EmptyArray())
	}
	entries := make([]arrayEntry, 0, len(n.Items))
	for _, it := range n.Items {
		var e arrayEntry
		if it.Key != nil {
			e.key = w.expr(it.Key, ctx)
		}
		e.value = w.expr(it.Value, ctx)
		e.spread = it.Spread
		entries = append(entries, e)
	}
	if l, ok := w.listLiteral(entries); ok {
		return ts.NewUnion(l)
	}

	k := ts.TKeyedArray{}
	var keys, values []*ts.Union
	next := int64(0)
	for i, e := range entries {
		if e.spread {
			key, value, ok := w.iterableTypes(e.value)
			if !ok {
				w.report(issue.New(issue.InvalidOperand, "cannot unpack %s into an array", e.value.ID()).
					At(n.Items[i].Span, "not iterable"))
				key, value = ts.ArrayKeyType(), ts.Mixed()
			}
			keys = append(keys, key)
			values = append(values, value)
			continue
		}
		k.NonEmpty = true
		if e.key == nil {
			k.KnownItems = setKeyedItem(k.KnownItems, ts.KeyedItem{Key: ts.IntKey(next), Type: e.value})
			next++
			continue
		}
		key, ok := literalKey(e.key)
		if !ok {
			keys = append(keys, e.key)
			values = append(values, e.value)
			continue
		}
		if !key.IsString && key.Int >= next {
			next = key.Int + 1
		}
		k.KnownItems = setKeyedItem(k.KnownItems, ts.KeyedItem{Key: key, Type: e.value})
	}
	if len(keys) > 0 {
		k.Params = &ts.KeyedParams{
			Key:   ts.CombineUnions(w.meta, true, keys...),
			Value: ts.CombineUnions(w.meta, true, values...),
		}
	}
	if l, ok := ts.KeyedAsList(k); ok && len(k.KnownItems) > 0 {
		count := len(k.KnownItems)
		l.KnownCount = &count
		return ts.NewUnion(l)
	}
	return ts.NewUnion(k)
}

// listLiteral types an array literal without keys whose spreads are all
// lists.
func (w *walker) listLiteral(entries []arrayEntry) (ts.TList, bool) {
	spreads := false
	for _, e := range entries {
		if e.key != nil {
			return ts.TList{}, false
		}
		if e.spread {
			if !e.value.IsList() {
				return ts.TList{}, false
			}
			spreads = true
		}
	}
	if !spreads {
		l := ts.TList{Element: ts.Never(), KnownElements: make(map[int]ts.ListElement, len(entries)), NonEmpty: true}
		for i, e := range entries {
			l.KnownElements[i] = ts.ListElement{Type: e.value}
		}
		n := len(entries)
		l.KnownCount = &n
		return l, true
	}
	var values []*ts.Union
	nonEmpty := false
	for _, e := range entries {
		if !e.spread {
			nonEmpty = true
			values = append(values, e.value)
			continue
		}
		_, v, _ := w.iterableTypes(e.value)
		values = append(values, v)
	}
	return ts.TList{Element: ts.CombineUnions(w.meta, true, values...), NonEmpty: nonEmpty}, true
}

func literalKey(u *ts.Union) (ts.ArrayKey, bool) {
	if i, ok := u.SingleLiteralIntValue(); ok {
		return ts.IntKey(i), true
	}
	if s, ok := u.SingleLiteralStringValue(); ok {
		return ts.StringKey(s), true
	}
	return ts.ArrayKey{}, false
}

func setKeyedItem(items []ts.KeyedItem, item ts.KeyedItem) []ts.KeyedItem {
	for i, it := range items {
		if it.Key == item.Key {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func (w *walker) arrayDimFetch(n *ast.ArrayDimFetch, ctx *flow.BlockContext) *ts.Union {
	arr := w.expr(n.Array, ctx)
	if n.Index == nil {
		w.report(issue.New(issue.InvalidArrayAccess, "cannot read from an append offset").
			At(n.Span, "[] used for reading"))
		return ts.Mixed()
	}
	key := w.expr(n.Index, ctx)
	if id := ExprID(n); id != "" {
		if t, ok := ctx.Get(id); ok && !t.PossiblyUndefined {
			return t
		}
	}
	return w.elementFetch(arr, key, n.Span)
}

// elementFetch is the type of arr[key].
func (w *walker) elementFetch(arr, key *ts.Union, span ast.Span) *ts.Union {
	lit, isLiteral := literalKey(key)
	var parts []*ts.Union
	possiblyUndefined, undefined, mixed, invalid := false, false, false, false

	for _, a := range arr.Types {
		switch t := a.(type) {
		case ts.TNull:
			parts = append(parts, ts.Null())
		case ts.TMixed:
			mixed = true
			parts = append(parts, ts.Mixed())
		case ts.TList:
			if isLiteral && !lit.IsString {
				if e, ok := t.KnownElements[int(lit.Int)]; ok {
					possiblyUndefined = possiblyUndefined || e.Optional
					parts = append(parts, e.Type)
					continue
				}
				if t.IsSealed() {
					undefined = true
					parts = append(parts, ts.Null())
					continue
				}
			}
			parts = append(parts, listValues(t)...)
		case ts.TKeyedArray:
			if isLiteral {
				if it, ok := t.Item(lit); ok {
					possiblyUndefined = possiblyUndefined || it.Optional
					parts = append(parts, it.Type)
					continue
				}
				if t.IsSealed() {
					undefined = true
					parts = append(parts, ts.Null())
					continue
				}
				parts = append(parts, t.Params.Value)
				continue
			}
			for _, it := range t.KnownItems {
				parts = append(parts, it.Type)
			}
			if t.Params != nil {
				parts = append(parts, t.Params.Value)
			}
		case ts.TString, ts.TLiteralString:
			parts = append(parts, ts.String())
		case ts.TNamedObject:
			if f, ok := w.meta.Method(t.Name, offsetGetMethod); ok {
				w.refs.AddMethodReference(w.scope.referrer, f.Class, f.Name)
				parts = append(parts, orMixedReturn(f))
				continue
			}
			invalid = true
		case ts.TNever:
		default:
			invalid = true
		}
	}

	switch {
	case undefined:
		w.report(issue.New(issue.UndefinedArrayKey, "key %s does not exist in %s", key.ID(), arr.ID()).
			At(span, "undefined key"))
	case possiblyUndefined && !w.settings.AllowPossiblyUndefinedArrayKeys:
		w.report(issue.New(issue.PossiblyUndefinedArrayKey, "key %s might not exist in %s", key.ID(), arr.ID()).
			At(span, "possibly undefined key"))
	}
	if mixed && w.settings.ReportMixedIssues {
		w.report(issue.New(issue.MixedArrayAccess, "cannot determine the type of the array being accessed").
			At(span, "mixed array"))
	}
	if invalid {
		w.report(issue.New(issue.InvalidArrayAccess, "cannot access an offset of %s", arr.ID()).
			At(span, "not an array"))
		parts = append(parts, ts.Null())
	}
	if len(parts) == 0 {
		return ts.Never()
	}
	return ts.CombineUnions(w.meta, true, parts...)
}

func listValues(l ts.TList) []*ts.Union {
	var out []*ts.Union
	for _, i := range l.SortedIndexes() {
		out = append(out, l.KnownElements[i].Type)
	}
	if l.Element != nil && !l.Element.IsNever() {
		out = append(out, l.Element)
	}
	return out
}

// iterableTypes returns the key and value types produced by iterating t.
// ok is false when some member of t cannot be iterated.
func (w *walker) iterableTypes(t *ts.Union) (key, value *ts.Union, ok bool) {
	var keys, values []*ts.Union
	iterable := false
	for _, a := range t.Types {
		switch x := a.(type) {
		case ts.TMixed:
			return ts.Mixed(), ts.Mixed(), true
		case ts.TList:
			iterable = true
			keys = append(keys, ts.NewUnion(ts.NewIntRange(ts.IntPtr(0), nil)))
			values = append(values, listValues(x)...)
		case ts.TKeyedArray:
			iterable = true
			for _, it := range x.KnownItems {
				keys = append(keys, ts.NewUnion(it.Key.Atomic()))
				values = append(values, it.Type)
			}
			if x.Params != nil {
				keys = append(keys, x.Params.Key)
				values = append(values, x.Params.Value)
			}
		case ts.TNamedObject:
			if params, found := ts.ObjectParamsFor(w.meta, x, traversableClass); found && len(params) == 2 {
				keys = append(keys, params[0])
				values = append(values, params[1])
			} else if w.meta.IsInstanceOf(x.Name, traversableClass) {
				keys = append(keys, ts.Mixed())
				values = append(values, ts.Mixed())
			} else {
				return nil, nil, false
			}
			iterable = true
		case ts.TGenericParam:
			if x.As == nil {
				return ts.Mixed(), ts.Mixed(), true
			}
			k, v, found := w.iterableTypes(x.As)
			if !found {
				return nil, nil, false
			}
			iterable = true
			keys = append(keys, k)
			values = append(values, v)
		case ts.TNever, ts.TNull:
		default:
			return nil, nil, false
		}
	}
	if !iterable && !t.IsNever() {
		return nil, nil, false
	}
	if len(values) == 0 {
		return ts.Never(), ts.Never(), true
	}
	return ts.CombineUnions(w.meta, true, keys...), ts.CombineUnions(w.meta, true, values...), true
}

// arrayWithElement returns arr after arr[key] = value. A nil key appends.
func (w *walker) arrayWithElement(arr, key, value *ts.Union) *ts.Union {
	if arr.HasMixed() {
		return arr
	}
	lit, isLiteral := ts.ArrayKey{}, false
	if key != nil {
		lit, isLiteral = literalKey(key)
	}
	var out []ts.Atomic
	for _, a := range arr.Types {
		switch t := a.(type) {
		case ts.TNull:
			out = append(out, w.withElement(ts.EmptyArray(), key, lit, isLiteral, value))
		case ts.TList:
			if key == nil {
				out = append(out, appendToList(t, value, w.meta))
				continue
			}
			out = append(out, w.withElement(ts.ListAsKeyed(t), key, lit, isLiteral, value))
		case ts.TKeyedArray:
			out = append(out, w.withElement(t, key, lit, isLiteral, value))
		default:
			out = append(out, a)
		}
	}
	return ts.NewUnion(out...)
}

func appendToList(l ts.TList, value *ts.Union, cb ts.Codebase) ts.TList {
	if l.KnownCount != nil {
		n := *l.KnownCount
		elems := make(map[int]ts.ListElement, n+1)
		for i, e := range l.KnownElements {
			elems[i] = e
		}
		elems[n] = ts.ListElement{Type: value}
		n++
		return ts.TList{Element: l.Element, KnownElements: elems, KnownCount: &n, NonEmpty: true}
	}
	return ts.TList{
		Element:       ts.CombineUnionTypes(l.Element, value, cb, true),
		KnownElements: l.KnownElements,
		NonEmpty:      true,
	}
}

func (w *walker) withElement(k ts.TKeyedArray, key *ts.Union, lit ts.ArrayKey, isLiteral bool, value *ts.Union) ts.Atomic {
	out := ts.TKeyedArray{KnownItems: append([]ts.KeyedItem(nil), k.KnownItems...), NonEmpty: true}
	if k.Params != nil {
		p := *k.Params
		out.Params = &p
	}
	switch {
	case key == nil:
		next := int64(0)
		for _, it := range out.KnownItems {
			if !it.Key.IsString && it.Key.Int >= next {
				next = it.Key.Int + 1
			}
		}
		if out.Params == nil {
			out.KnownItems = setKeyedItem(out.KnownItems, ts.KeyedItem{Key: ts.IntKey(next), Type: value})
		} else {
			out.Params.Key = ts.CombineUnionTypes(out.Params.Key, ts.Int(), w.meta, true)
			out.Params.Value = ts.CombineUnionTypes(out.Params.Value, value, w.meta, true)
		}
	case isLiteral:
		out.KnownItems = setKeyedItem(out.KnownItems, ts.KeyedItem{Key: lit, Type: value})
	default:
		if out.Params == nil {
			out.Params = &ts.KeyedParams{Key: key, Value: value}
		} else {
			out.Params.Key = ts.CombineUnionTypes(out.Params.Key, key, w.meta, true)
			out.Params.Value = ts.CombineUnionTypes(out.Params.Value, value, w.meta, true)
		}
	}
	if l, ok := ts.KeyedAsList(out); ok {
		n := len(out.KnownItems)
		l.KnownCount = &n
		return l
	}
	return out
}
