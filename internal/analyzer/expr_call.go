package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	"github.com/funvibe/flowcheck/internal/template"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

func (w *walker) functionCall(n *ast.FunctionCall, ctx *flow.BlockContext) *ts.Union {
	if n.Callee != nil {
		return w.callValue(n, ctx)
	}
	f, ok := w.meta.Function(strings.TrimPrefix(n.Name, `\`))
	if !ok {
		w.report(issue.New(issue.NonExistentFunction, "function %s does not exist", n.Name).
			At(n.Span, "unknown function"))
		w.evalArgs(n.Args, nil, ctx)
		return ts.Mixed()
	}
	w.refs.AddFunctionReference(w.scope.referrer, f.Name)
	args := w.evalArgs(n.Args, f, ctx)
	return w.invoke(callee{fn: f}, args, n.Span, ctx, true)
}

// callValue calls the value of an expression: a closure, a callable
// string or an invokable object.
func (w *walker) callValue(n *ast.FunctionCall, ctx *flow.BlockContext) *ts.Union {
	t := w.expr(n.Callee, ctx)
	if t.HasMixed() {
		w.evalArgs(n.Args, nil, ctx)
		return ts.Mixed()
	}

	var targets []callee
	invalid, untyped := false, false
	for _, a := range t.Types {
		switch c := a.(type) {
		case ts.TCallable:
			sig := c.Signature
			if c.Alias != nil {
				sig, _ = w.meta.CallableForAlias(*c.Alias)
			}
			if sig == nil {
				untyped = true
				continue
			}
			targets = append(targets, callee{fn: signatureFunction(sig)})
		case ts.TLiteralString:
			if f, ok := w.meta.Function(c.Value); ok {
				w.refs.AddFunctionReference(w.scope.referrer, f.Name)
				targets = append(targets, callee{fn: f})
			} else {
				invalid = true
			}
		case ts.TNamedObject:
			if f, ok := w.meta.Method(c.Name, config.InvokeMethodName); ok {
				w.refs.AddMethodReference(w.scope.referrer, f.Class, f.Name)
				obj := c
				targets = append(targets, callee{fn: f, static: &obj})
			} else {
				invalid = true
			}
		default:
			invalid = true
		}
	}
	if invalid || len(targets) == 0 && !untyped {
		w.report(issue.New(issue.InvalidCallable, "%s is not callable", t.ID()).
			At(n.Callee.GetSpan(), "not callable"))
	}
	if len(targets) == 0 {
		w.evalArgs(n.Args, nil, ctx)
		return ts.Mixed()
	}

	args := w.evalArgs(n.Args, targets[0].fn, ctx)
	var results []*ts.Union
	if untyped {
		results = append(results, ts.Mixed())
	}
	for i, c := range targets {
		results = append(results, w.invoke(c, args, n.Span, ctx, i == 0))
	}
	return ts.CombineUnions(w.meta, true, results...)
}

// signatureFunction turns a callable signature into a function the
// argument checker can work with.
func signatureFunction(sig *ts.CallableSignature) *codebase.Function {
	f := &codebase.Function{Name: "{closure}", ReturnType: sig.Return}
	if f.ReturnType == nil {
		f.ReturnType = ts.Mixed()
	}
	for i, p := range sig.Params {
		f.Params = append(f.Params, &codebase.Param{
			Name:       fmt.Sprintf("arg%d", i),
			Type:       p.Type,
			HasDefault: p.Optional,
			Variadic:   p.Variadic,
			ByRef:      p.ByRef,
		})
	}
	return f
}

// methodTarget is one class a method call dispatches to.
type methodTarget struct {
	fn  *codebase.Function
	lhs ts.TNamedObject
}

func (w *walker) methodCall(n *ast.MethodCall, ctx *flow.BlockContext) *ts.Union {
	objType := w.expr(n.Object, ctx)

	var targets []methodTarget
	var extra []*ts.Union
	hasNull, hasMixed := false, false
	named, missing, invalid := 0, 0, 0
	inaccessible := false

	var visit func(a ts.Atomic)
	visit = func(a ts.Atomic) {
		switch t := a.(type) {
		case ts.TNull:
			hasNull = true
		case ts.TMixed, ts.TObject:
			hasMixed = true
		case ts.TGenericParam:
			if t.As == nil || t.As.HasMixed() {
				hasMixed = true
				return
			}
			for _, b := range t.As.Types {
				visit(b)
			}
		case ts.TEnum:
			visit(ts.TNamedObject{Name: t.Name})
		case ts.TCallable:
			visit(ts.TNamedObject{Name: config.ClosureClass})
		case ts.TNamedObject:
			named++
			f, ok := w.findMethod(t, n.Method)
			if !ok {
				if magic, ok := w.meta.Method(t.Name, config.CallMethodName); ok {
					w.refs.AddMethodReference(w.scope.referrer, magic.Class, magic.Name)
					extra = append(extra, orMixedReturn(magic))
					return
				}
				missing++
				return
			}
			if !w.canAccess(f.Class, f.Visibility) {
				inaccessible = true
			}
			w.refs.AddMethodReference(w.scope.referrer, f.Class, f.Name)
			targets = append(targets, methodTarget{fn: f, lhs: t})
		default:
			invalid++
		}
	}
	for _, a := range objType.Types {
		visit(a)
	}

	switch {
	case objType.IsNull():
		if !n.NullSafe {
			w.report(issue.New(issue.NullMethodCall, "cannot call method %s on null", n.Method).
				At(n.Object.GetSpan(), "always null"))
		}
		w.evalArgs(n.Args, nil, ctx)
		return ts.Null()
	case hasNull && n.NullSafe:
		extra = append(extra, ts.Null())
	case hasNull && w.settings.ReportNullableIssues && !objType.IgnoreNullableIssues:
		w.report(issue.New(issue.PossiblyNullMethodCall, "cannot call method %s on possibly null %s", n.Method, objType.ID()).
			At(n.Object.GetSpan(), "possibly null"))
	}
	if hasMixed {
		if w.settings.ReportMixedIssues {
			w.report(issue.New(issue.MixedMethodCall, "cannot determine the type of the receiver of %s", n.Method).
				At(n.Object.GetSpan(), "mixed receiver"))
		}
		extra = append(extra, ts.Mixed())
	}
	if invalid > 0 && len(targets) == 0 && !hasMixed && len(extra) == 0 {
		w.report(issue.New(issue.InvalidMethodCall, "cannot call method %s on %s", n.Method, objType.ID()).
			At(n.Object.GetSpan(), "not an object"))
	}
	if missing > 0 {
		code, msg := issue.NonExistentMethod, "method %s does not exist on %s"
		if missing < named || len(extra) > 0 {
			code, msg = issue.PossiblyNonExistentMethod, "method %s might not exist on %s"
		}
		w.report(issue.New(code, msg, n.Method, objType.ID()).
			At(n.Span, "unknown method"))
	}
	if inaccessible {
		w.report(issue.New(issue.InaccessibleMethod, "method %s is not visible from this scope", n.Method).
			At(n.Span, "inaccessible"))
	}

	var first *codebase.Function
	if len(targets) > 0 {
		first = targets[0].fn
	}
	args := w.evalArgs(n.Args, first, ctx)
	results := extra
	for i, t := range targets {
		results = append(results, w.invoke(w.methodCallee(t), args, n.Span, ctx, i == 0))
	}
	if len(results) == 0 {
		return ts.Mixed()
	}
	return ts.CombineUnions(w.meta, true, results...)
}

// findMethod looks the method up on the class and on its intersections.
func (w *walker) findMethod(t ts.TNamedObject, method string) (*codebase.Function, bool) {
	if f, ok := w.meta.Method(t.Name, method); ok {
		return f, true
	}
	for _, it := range t.Intersections {
		if n, ok := it.(ts.TNamedObject); ok {
			if f, ok := w.meta.Method(n.Name, method); ok {
				return f, true
			}
		}
	}
	return nil, false
}

func orMixedReturn(f *codebase.Function) *ts.Union {
	if f.ReturnType == nil {
		return ts.Mixed()
	}
	return f.ReturnType
}

// methodCallee binds the receiver's type arguments to the templates of
// the receiver class and of the class declaring the method.
func (w *walker) methodCallee(t methodTarget) callee {
	r := w.callTemplates()
	lhs := t.lhs
	r.BindAll(template.Collect(w.meta, lhs.Name, t.fn.Class, &lhs, lhs.IsThis))
	return callee{fn: t.fn, templates: r, static: &lhs}
}

func (w *walker) staticCall(n *ast.StaticCall, ctx *flow.BlockContext) *ts.Union {
	class, isStatic, ok := w.className(n.Class, n.Span)
	if !ok {
		w.evalArgs(n.Args, nil, ctx)
		return ts.Mixed()
	}
	f, found := w.meta.Method(class, n.Method)
	if !found {
		if magic, ok := w.meta.Method(class, config.CallStaticName); ok {
			w.refs.AddMethodReference(w.scope.referrer, magic.Class, magic.Name)
			w.evalArgs(n.Args, nil, ctx)
			return orMixedReturn(magic)
		}
		w.report(issue.New(issue.NonExistentMethod, "method %s::%s does not exist", class, n.Method).
			At(n.Span, "unknown method"))
		w.evalArgs(n.Args, nil, ctx)
		return ts.Mixed()
	}
	w.refs.AddMethodReference(w.scope.referrer, f.Class, f.Name)
	if !w.canAccess(f.Class, f.Visibility) {
		w.report(issue.New(issue.InaccessibleMethod, "method %s::%s is not visible from this scope", f.Class, f.Name).
			At(n.Span, "inaccessible"))
	}

	lhs := ts.TNamedObject{Name: class, IsThis: isStatic}
	if !f.Static {
		this, hasThis := ctx.Get(config.ThisVarName)
		forwarding := hasThis && isClassKeyword(n.Class) && w.scope.self != nil &&
			w.meta.IsInstanceOf(w.scope.self.Name, class)
		if !forwarding {
			w.report(issue.New(issue.InvalidStaticMethodCall, "method %s::%s is not static", f.Class, f.Name).
				At(n.Span, "instance method called statically"))
		} else if this.IsSingle() {
			if obj, ok := this.Single().(ts.TNamedObject); ok && strings.EqualFold(obj.Name, class) {
				lhs = obj
			}
		}
	}

	args := w.evalArgs(n.Args, f, ctx)
	return w.invoke(w.methodCallee(methodTarget{fn: f, lhs: lhs}), args, n.Span, ctx, true)
}

func isClassKeyword(name string) bool {
	switch strings.ToLower(name) {
	case config.SelfKeyword, config.StaticKeyword, config.ParentKeyword:
		return true
	}
	return false
}

func (w *walker) newExpression(n *ast.NewExpression, ctx *flow.BlockContext) *ts.Union {
	class, isStatic, ok := w.className(n.Class, n.Span)
	if !ok {
		w.evalArgs(n.Args, nil, ctx)
		return ts.Mixed()
	}
	c, _ := w.meta.Class(class)
	switch {
	case c.IsInterface():
		w.report(issue.New(issue.InterfaceInstantiation, "cannot instantiate interface %s", c.Name).
			At(n.Span, "interface"))
	case c.IsEnum():
		w.report(issue.New(issue.EnumInstantiation, "cannot instantiate enum %s", c.Name).
			At(n.Span, "enum"))
	case c.IsTrait(), c.Abstract && !isStatic:
		w.report(issue.New(issue.AbstractInstantiation, "cannot instantiate abstract %s", c.Name).
			At(n.Span, "abstract"))
	}

	obj := ts.TNamedObject{Name: c.Name, IsThis: isStatic}
	r := w.callTemplates()
	for _, tp := range c.Templates {
		r.Define(tp.Name, c.Name, tp.As)
	}

	ctor, hasCtor := w.meta.Method(c.Name, config.ConstructMethodName)
	if hasCtor {
		w.refs.AddMethodReference(w.scope.referrer, ctor.Class, ctor.Name)
		if !w.canAccess(ctor.Class, ctor.Visibility) {
			w.report(issue.New(issue.InaccessibleMethod, "constructor of %s is not visible from this scope", c.Name).
				At(n.Span, "inaccessible"))
		}
		if !strings.EqualFold(ctor.Class, c.Name) {
			if dc, ok := w.meta.Class(ctor.Class); ok {
				for _, tp := range dc.Templates {
					r.Define(tp.Name, dc.Name, tp.As)
				}
			}
		}
		args := w.evalArgs(n.Args, ctor, ctx)
		w.invoke(callee{fn: ctor, templates: r, static: &obj}, args, n.Span, ctx, true)
	} else if len(n.Args) > 0 {
		w.evalArgs(n.Args, nil, ctx)
		w.report(issue.New(issue.TooManyArguments, "%s has no constructor but is given arguments", c.Name).
			At(n.Span, "extra arguments"))
	}

	for _, tp := range c.Templates {
		u, ok := r.Resolved(tp.Name, c.Name, w.meta)
		if !ok {
			u = tp.As
			if u == nil {
				u = ts.Mixed()
			}
		}
		obj.TypeParams = append(obj.TypeParams, u)
	}
	return ts.NewUnion(obj)
}
