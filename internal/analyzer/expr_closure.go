package analyzer

import (
	"errors"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// closureParams parses the parameters of a closure or arrow function in
// the enclosing naming context.
func (w *walker) closureParams(decls []*ast.Parameter) []*codebase.Param {
	params, errs := codebase.ScanParams(decls, w.scope.typeOpts)
	for _, err := range errs {
		var te *codebase.TypeError
		if errors.As(err, &te) {
			w.report(issue.New(issue.InvalidTypeDeclaration, "invalid parameter type").
				At(te.Span, te.Err.Error()))
		}
	}
	return params
}

func (w *walker) closureScope(static bool, ret *ts.Union) *scope {
	return &scope{
		self:       w.scope.self,
		static:     static || w.scope.static,
		returnType: ret,
		templates:  w.scope.templates,
		typeOpts:   w.scope.typeOpts,
		referrer:   w.scope.referrer,
		closure:    true,
	}
}

func closureType(params []*codebase.Param, ret *ts.Union) *ts.Union {
	sig := &ts.CallableSignature{Return: ret, IsClosure: true}
	for _, p := range params {
		sig.Params = append(sig.Params, ts.CallableParam{
			Type:     p.Type,
			Optional: p.HasDefault,
			Variadic: p.Variadic,
			ByRef:    p.ByRef,
		})
	}
	return ts.NewUnion(ts.TCallable{Signature: sig})
}

// closure analyzes the body in a fresh context holding the parameters,
// the captured variables and $this.
func (w *walker) closure(n *ast.ClosureExpression, ctx *flow.BlockContext) *ts.Union {
	params := w.closureParams(n.Params)
	ret := w.parseType(n.ReturnType, n.Span)

	inner := flow.NewBlockContext()
	if !n.Static {
		if this, ok := ctx.Get(config.ThisVarName); ok {
			inner.Set(config.ThisVarName, this)
		}
	}
	for _, u := range n.Uses {
		id := "$" + u.Name
		t, ok := ctx.Get(id)
		switch {
		case ok:
			inner.Set(id, t.AsDefined())
		case u.ByRef:
			ctx.Set(id, ts.Null())
			inner.Set(id, ts.Null())
		default:
			w.report(issue.New(issue.UndefinedVariable, "captured variable %s is not defined", id).
				At(u.Span, "undefined"))
			inner.Set(id, ts.Mixed())
		}
	}
	for _, p := range params {
		inner.Set("$"+p.Name, paramLocalType(p))
	}

	w.withScope(w.closureScope(n.Static, ret), func() {
		w.statements(n.Body.Statements, inner)
		w.finishBody(n.Span, n.Body, inner)
		if ret == nil {
			ret = w.inferredReturn(n.Body)
		}
	})

	// A by-reference capture may be changed whenever the closure runs.
	for _, u := range n.Uses {
		if !u.ByRef {
			continue
		}
		id := "$" + u.Name
		after, ok := inner.Get(id)
		before, _ := ctx.Get(id)
		if ok && !after.Equals(before) {
			ctx.Set(id, ts.CombineUnionTypes(before, after, w.meta, true).AsDefined())
		}
	}
	return closureType(params, ret)
}

// arrowFunction analyzes the body expression in a copy of the enclosing
// context; an arrow function captures everything by value.
func (w *walker) arrowFunction(n *ast.ArrowFunction, ctx *flow.BlockContext) *ts.Union {
	params := w.closureParams(n.Params)
	ret := w.parseType(n.ReturnType, n.Span)

	inner := ctx.Clone()
	if n.Static {
		inner.Remove(config.ThisVarName)
	}
	for _, p := range params {
		inner.Set("$"+p.Name, paramLocalType(p))
	}

	var body *ts.Union
	w.withScope(w.closureScope(n.Static, ret), func() {
		body = w.expr(n.Body, inner)
	})
	if ret == nil {
		return closureType(params, body)
	}
	var cr ts.ComparisonResult
	if !body.HasMixed() && !ret.IsVoid() && !ts.IsContainedBy(body, ret, w.meta, ts.CompareOptions{}, &cr) && !cr.TypeCoerced {
		w.report(issue.New(issue.InvalidReturnStatement, "arrow function returns %s, declared %s", body.ID(), ret.ID()).
			At(n.Body.GetSpan(), "returned here"))
	}
	return closureType(params, ret)
}
