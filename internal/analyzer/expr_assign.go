package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

func (w *walker) assign(n *ast.AssignExpression, ctx *flow.BlockContext) *ts.Union {
	var value *ts.Union
	switch n.Operator {
	case "":
		if n.ByRef {
			if id := ExprID(n.Value); id != "" {
				if _, ok := ctx.Get(id); !ok {
					// Taking a reference creates the variable.
					ctx.Set(id, ts.Null())
				}
			}
		}
		value = w.expr(n.Value, ctx)
	case "??":
		cur, ok := w.currentType(n.Target, ctx)
		if !ok {
			cur = ts.Null()
		}
		v := w.expr(n.Value, ctx)
		if rest := cur.WithoutNull(); !rest.IsNever() && !cur.IsNull() {
			value = ts.CombineUnionTypes(rest.AsDefined(), v, w.meta, true)
		} else {
			value = v
		}
	default:
		cur := w.expr(n.Target, ctx)
		v := w.expr(n.Value, ctx)
		value = w.binaryResult(n.Operator, cur, v, n.Span)
	}
	w.assignTo(n.Target, value, ctx)
	return value
}

// assignTo stores value into target and records the new type.
func (w *walker) assignTo(target ast.Expression, value *ts.Union, ctx *flow.BlockContext) {
	switch t := target.(type) {
	case *ast.Variable:
		if t.IsThis() {
			w.report(issue.New(issue.InvalidThis, "cannot assign to $this").
				At(t.Span, "reassigned"))
			return
		}
		ctx.Set("$"+t.Name, value.AsDefined())
	case *ast.PropertyFetch:
		w.assignProperty(t, value, ctx)
	case *ast.StaticPropertyFetch:
		w.assignStaticProperty(t, value, ctx)
	case *ast.ArrayDimFetch:
		w.assignArrayElement(t, value, ctx)
	case *ast.ArrayLiteral:
		w.destructure(t, value, ctx)
	default:
		w.expr(target, ctx)
		return
	}
	w.TypeMap[target] = value
}

// assignArrayElement handles base[key] = value: the base is rebuilt with
// the new element and assigned back.
func (w *walker) assignArrayElement(n *ast.ArrayDimFetch, value *ts.Union, ctx *flow.BlockContext) {
	cur, ok := w.currentType(n.Array, ctx)
	if !ok || cur.PossiblyUndefined {
		cur = ts.NewUnion(ts.EmptyArray())
	}
	var key *ts.Union
	if n.Index != nil {
		key = w.expr(n.Index, ctx)
	}
	if !cur.HasMixed() {
		for _, a := range cur.Types {
			switch a.(type) {
			case ts.TList, ts.TKeyedArray, ts.TNull:
			case ts.TNamedObject:
				// ArrayAccess objects accept any offset.
			default:
				w.report(issue.New(issue.InvalidArrayAccess, "cannot assign an offset of %s", cur.ID()).
					At(n.Span, "not an array"))
			}
		}
	}
	w.assignTo(n.Array, w.arrayWithElement(cur, key, value), ctx)
	if id := ExprID(n); id != "" {
		ctx.Set(id, value.AsDefined())
	}
}

// destructure assigns the elements of value to the targets of a list
// pattern.
func (w *walker) destructure(pattern *ast.ArrayLiteral, value *ts.Union, ctx *flow.BlockContext) {
	next := int64(0)
	for _, it := range pattern.Items {
		if it == nil || it.Value == nil {
			next++
			continue
		}
		var key *ts.Union
		if it.Key != nil {
			key = w.expr(it.Key, ctx)
		} else {
			key = ts.LiteralInt(next)
			next++
		}
		w.assignTo(it.Value, w.elementFetch(value, key, it.Span), ctx)
	}
}
