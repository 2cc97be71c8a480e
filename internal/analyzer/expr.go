package analyzer

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// expr infers the type of e in ctx and records it in the type map.
func (w *walker) expr(e ast.Expression, ctx *flow.BlockContext) *ts.Union {
	if e == nil {
		return ts.Mixed()
	}
	t := w.exprType(e, ctx)
	if t == nil {
		t = ts.Mixed()
	}
	w.TypeMap[e] = t
	return t
}

// quietExpr infers a type without reporting anything.
func (w *walker) quietExpr(e ast.Expression, ctx *flow.BlockContext) *ts.Union {
	var t *ts.Union
	w.quietly(func() { t = w.expr(e, ctx) })
	return t
}

func (w *walker) exprType(e ast.Expression, ctx *flow.BlockContext) *ts.Union {
	switch n := e.(type) {
	case *ast.Variable:
		return w.variable(n, ctx)
	case *ast.IntegerLiteral:
		return ts.LiteralInt(n.Value)
	case *ast.FloatLiteral:
		return ts.LiteralFloat(n.Value)
	case *ast.StringLiteral:
		return ts.LiteralString(n.Value)
	case *ast.BooleanLiteral:
		if n.Value {
			return ts.True()
		}
		return ts.False()
	case *ast.NullLiteral:
		return ts.Null()
	case *ast.ArrayLiteral:
		return w.arrayLiteral(n, ctx)
	case *ast.AssignExpression:
		return w.assign(n, ctx)
	case *ast.PropertyFetch:
		return w.propertyFetch(n, ctx)
	case *ast.StaticPropertyFetch:
		return w.staticPropertyFetch(n, ctx)
	case *ast.MethodCall:
		return w.methodCall(n, ctx)
	case *ast.StaticCall:
		return w.staticCall(n, ctx)
	case *ast.FunctionCall:
		return w.functionCall(n, ctx)
	case *ast.NewExpression:
		return w.newExpression(n, ctx)
	case *ast.CloneExpression:
		return w.cloneExpression(n, ctx)
	case *ast.ClosureExpression:
		return w.closure(n, ctx)
	case *ast.ArrowFunction:
		return w.arrowFunction(n, ctx)
	case *ast.BinaryExpression:
		return w.binary(n, ctx)
	case *ast.UnaryExpression:
		return w.unary(n, ctx)
	case *ast.CastExpression:
		w.expr(n.Value, ctx)
		return castType(n.Type)
	case *ast.InstanceofExpression:
		w.expr(n.Value, ctx)
		w.className(n.Class, n.Span)
		return ts.Bool()
	case *ast.IssetExpression:
		for _, v := range n.Values {
			w.quietExpr(v, ctx)
		}
		return ts.Bool()
	case *ast.TernaryExpression:
		return w.ternary(n, ctx)
	case *ast.ClassConstantFetch:
		return w.classConstant(n, ctx)
	case *ast.ArrayDimFetch:
		return w.arrayDimFetch(n, ctx)
	}
	w.fail(e.GetSpan(), "unexpected expression %T", e)
	return nil
}

func (w *walker) variable(v *ast.Variable, ctx *flow.BlockContext) *ts.Union {
	if v.IsThis() {
		t, ok := ctx.Get(config.ThisVarName)
		if !ok {
			w.report(issue.New(issue.InvalidThis, "$this used outside an instance context").
				At(v.Span, "no $this here"))
			return ts.Mixed()
		}
		return t
	}
	id := "$" + v.Name
	t, ok := ctx.Get(id)
	if !ok {
		w.report(issue.New(issue.UndefinedVariable, "variable %s is not defined", id).
			At(v.Span, "undefined"))
		return ts.Mixed()
	}
	if t.PossiblyUndefined || t.PossiblyUndefinedFromTry {
		w.report(issue.New(issue.PossiblyUndefinedVariable, "variable %s might not be defined", id).
			At(v.Span, "possibly undefined"))
		return t.AsDefined()
	}
	return t
}

func (w *walker) cloneExpression(n *ast.CloneExpression, ctx *flow.BlockContext) *ts.Union {
	t := w.expr(n.Value, ctx)
	if t.HasMixed() {
		return t
	}
	var objects []ts.Atomic
	for _, a := range t.Types {
		if ts.IsObjectAtomic(a) {
			if named, ok := a.(ts.TNamedObject); ok {
				a = named.WithoutThis()
			}
			objects = append(objects, a)
		}
	}
	if len(objects) == 0 {
		w.report(issue.New(issue.InvalidClone, "cannot clone %s", t.ID()).
			At(n.Value.GetSpan(), "not an object"))
		return ts.Never()
	}
	return ts.NewUnion(objects...)
}

func (w *walker) ternary(n *ast.TernaryExpression, ctx *flow.BlockContext) *ts.Union {
	cond := w.expr(n.Condition, ctx)
	thenCtx, elseCtx := ctx.Clone(), ctx.Clone()
	w.narrow(n.Condition, thenCtx, true)
	w.narrow(n.Condition, elseCtx, false)

	var then *ts.Union
	if n.Then == nil {
		then = cond.WithoutNull().WithoutFalse()
	} else {
		then = w.expr(n.Then, thenCtx)
	}
	otherwise := w.expr(n.Else, elseCtx)
	flow.MergeBranches(ctx, []*flow.BlockContext{thenCtx, elseCtx}, w.meta)
	return ts.CombineUnionTypes(then, otherwise, w.meta, true)
}

func castType(t string) *ts.Union {
	switch strings.ToLower(t) {
	case "int", "integer":
		return ts.Int()
	case "float", "double":
		return ts.Float()
	case "string":
		return ts.String()
	case "bool", "boolean":
		return ts.Bool()
	case "array":
		return ts.MixedArray()
	case "object":
		return ts.Object()
	}
	return ts.Mixed()
}
