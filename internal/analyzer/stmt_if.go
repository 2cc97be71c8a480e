package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

func (w *walker) ifStatement(st *ast.IfStatement, ctx *flow.BlockContext) {
	thenCtx, elseCtx := w.condition(st.Condition, ctx)
	w.block(st.Then, thenCtx)
	branches := []*flow.BlockContext{thenCtx}
	for _, ei := range st.ElseIfs {
		t, e := w.condition(ei.Condition, elseCtx)
		w.block(ei.Body, t)
		branches = append(branches, t)
		elseCtx = e
	}
	w.block(st.Else, elseCtx)
	branches = append(branches, elseCtx)
	flow.MergeBranches(ctx, branches, w.meta)
}

// condition analyzes cond in ctx and returns the contexts the true and
// false branches start from.
func (w *walker) condition(cond ast.Expression, ctx *flow.BlockContext) (*flow.BlockContext, *flow.BlockContext) {
	t := w.expr(cond, ctx)
	w.checkCondition(cond, t)
	thenCtx, elseCtx := ctx.Clone(), ctx.Clone()
	w.narrow(cond, thenCtx, true)
	w.narrow(cond, elseCtx, false)
	return thenCtx, elseCtx
}

// checkCondition reports a computed condition whose outcome is fixed.
// Literal conditions such as while (true) are intentional.
func (w *walker) checkCondition(cond ast.Expression, t *ts.Union) {
	switch cond.(type) {
	case *ast.BooleanLiteral, *ast.IntegerLiteral, *ast.StringLiteral, *ast.NullLiteral:
		return
	}
	if t.IsNever() || t.HasMixed() {
		return
	}
	switch {
	case t.IsAlwaysTruthy():
		w.report(issue.New(issue.RedundantCondition, "condition of type %s is always true", t.ID()).
			At(cond.GetSpan(), "always true"))
	case t.IsAlwaysFalsy():
		w.report(issue.New(issue.ImpossibleCondition, "condition of type %s is always false", t.ID()).
			At(cond.GetSpan(), "always false"))
	}
}

// narrow refines the types in ctx assuming cond evaluated to positive.
func (w *walker) narrow(cond ast.Expression, ctx *flow.BlockContext, positive bool) {
	switch e := cond.(type) {
	case *ast.UnaryExpression:
		if e.Operator == "!" {
			w.narrow(e.Operand, ctx, !positive)
		}
	case *ast.BinaryExpression:
		switch e.Operator {
		case "&&", "and":
			if positive {
				w.narrow(e.Left, ctx, true)
				w.narrow(e.Right, ctx, true)
			}
		case "||", "or":
			if !positive {
				w.narrow(e.Left, ctx, false)
				w.narrow(e.Right, ctx, false)
			}
		case "===", "!==":
			subject := e.Left
			if _, ok := e.Left.(*ast.NullLiteral); ok {
				subject = e.Right
			} else if _, ok := e.Right.(*ast.NullLiteral); !ok {
				return
			}
			isNull := positive == (e.Operator == "===")
			w.narrowNull(subject, ctx, isNull)
		}
	case *ast.InstanceofExpression:
		w.narrowInstanceof(e, ctx, positive)
	case *ast.IssetExpression:
		if positive {
			for _, v := range e.Values {
				w.narrowNull(v, ctx, false)
			}
		}
	case *ast.Variable, *ast.PropertyFetch, *ast.ArrayDimFetch:
		id := ExprID(e)
		t, ok := w.currentType(e, ctx)
		if id == "" || !ok {
			return
		}
		if positive {
			if nt := t.WithoutNull().WithoutFalse(); !nt.IsNever() {
				ctx.Set(id, nt.AsDefined())
			}
		} else if t.HasNull() && t.WithoutNull().IsAlwaysTruthy() {
			ctx.Set(id, ts.Null())
		}
	case *ast.AssignExpression:
		if e.Operator == "" {
			w.narrow(e.Target, ctx, positive)
		}
	}
}

func (w *walker) narrowNull(subject ast.Expression, ctx *flow.BlockContext, isNull bool) {
	id := ExprID(subject)
	if id == "" {
		return
	}
	t, ok := w.currentType(subject, ctx)
	if !ok {
		if isNull {
			return
		}
		t = ts.Mixed()
	}
	if isNull {
		if t.HasNull() || t.HasMixed() {
			ctx.Set(id, ts.Null())
		}
		return
	}
	if nt := t.WithoutNull(); !nt.IsNever() {
		ctx.Set(id, nt.AsDefined())
	}
}

func (w *walker) narrowInstanceof(e *ast.InstanceofExpression, ctx *flow.BlockContext, positive bool) {
	id := ExprID(e.Value)
	if id == "" {
		return
	}
	c, found := w.meta.Class(e.Class)
	if !found {
		return
	}
	t, ok := w.currentType(e.Value, ctx)
	if !ok {
		t = ts.Mixed()
	}
	var kept []ts.Atomic
	for _, a := range t.Types {
		n, isNamed := a.(ts.TNamedObject)
		match := isNamed && w.meta.IsInstanceOf(n.Name, c.Name)
		if match == positive {
			kept = append(kept, a)
		}
	}
	switch {
	case len(kept) > 0:
		ctx.Set(id, t.WithTypes(kept).AsDefined())
	case positive:
		ctx.Set(id, ts.Named(c.Name))
	}
}

// currentType is the type an id-bearing expression has in ctx. Property
// and array fetches not tracked in ctx are resolved from their
// declarations.
func (w *walker) currentType(e ast.Expression, ctx *flow.BlockContext) (*ts.Union, bool) {
	if t, ok := ctx.Get(ExprID(e)); ok {
		return t, true
	}
	if _, isVar := e.(*ast.Variable); isVar {
		return nil, false
	}
	return w.quietExpr(e, ctx), true
}
