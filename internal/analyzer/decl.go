package analyzer

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	"github.com/funvibe/flowcheck/internal/template"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
	"github.com/funvibe/flowcheck/internal/typesystem/typeparse"
)

func (w *walker) functionDeclaration(fd *ast.FunctionDeclaration) {
	f, ok := w.meta.Function(strings.TrimPrefix(fd.Name, `\`))
	if !ok {
		w.fail(fd.Span, "function %s is missing from the codebase", fd.Name)
	}
	if f.Span != fd.Span {
		// A duplicate definition; the first one is analyzed.
		return
	}
	if fd.Body == nil {
		return
	}
	opts := typeparse.Options{Templates: templateScope(f.Templates, f.Entity(), nil)}
	w.functionBody(f, nil, fd.Body, opts)
}

func (w *walker) classDeclaration(cd *ast.ClassDeclaration) {
	c, ok := w.meta.Class(strings.TrimPrefix(cd.Name, `\`))
	if !ok {
		w.fail(cd.Span, "class %s is missing from the codebase", cd.Name)
	}
	if c.Span != cd.Span {
		return
	}
	classScope := &scope{self: c, referrer: codebase.ClassKey(c.Name)}
	w.withScope(classScope, func() {
		for _, p := range cd.Properties {
			w.propertyDefault(c, p)
		}
	})

	classTemplates := templateScope(c.Templates, c.Name, nil)
	for _, md := range cd.Methods {
		if md.Body == nil {
			continue
		}
		f, ok := c.Methods[strings.ToLower(md.Name)]
		if !ok {
			w.fail(md.Span, "method %s::%s is missing from the codebase", c.Name, md.Name)
		}
		opts := typeparse.Options{
			Templates: templateScope(f.Templates, f.Entity(), classTemplates),
			Self:      c.Name,
			Parent:    c.Parent,
		}
		w.functionBody(f, c, md.Body, opts)
	}
}

func templateScope(params []codebase.TemplateParam, entity string, outer map[string]typeparse.TemplateScope) map[string]typeparse.TemplateScope {
	if len(params) == 0 {
		return outer
	}
	out := make(map[string]typeparse.TemplateScope, len(outer)+len(params))
	for k, v := range outer {
		out[k] = v
	}
	for _, tp := range params {
		out[tp.Name] = typeparse.TemplateScope{Entity: entity, As: tp.As}
	}
	return out
}

func (w *walker) propertyDefault(c *codebase.ClassLike, pd *ast.PropertyDeclaration) {
	p, ok := c.Properties[pd.Name]
	if !ok || p.Type == nil || p.DefaultType == nil {
		return
	}
	if !ts.IsContainedBy(p.DefaultType, p.Type, w.meta, ts.CompareOptions{}, nil) {
		w.report(issue.New(issue.InvalidPropertyAssignmentValue,
			"default value of %s::$%s has type %s, declared %s", c.Name, p.Name, p.DefaultType.ID(), p.Type.ID()).
			At(pd.Span, "invalid default"))
	}
}

// functionBody walks the body of a function or method.
func (w *walker) functionBody(f *codebase.Function, self *codebase.ClassLike, body *ast.BlockStatement, opts typeparse.Options) {
	s := &scope{
		self:       self,
		fn:         f,
		static:     f.Static,
		returnType: f.ReturnType,
		templates:  template.NewResult(),
		typeOpts:   opts,
		referrer:   f.Key(),
	}
	ctx := flow.NewBlockContext()
	if self != nil && !f.Static {
		ctx.Set(config.ThisVarName, ts.NewUnion(thisType(self)))
	}
	for _, p := range f.Params {
		ctx.Set("$"+p.Name, paramLocalType(p))
	}

	w.withScope(s, func() {
		w.statements(body.Statements, ctx)
		w.finishBody(f.Span, body, ctx)
		if f.ReturnType == nil {
			w.overlay.SetInferredReturnType(f, w.inferredReturn(body))
		}
	})
}

// paramLocalType is the type of a parameter inside the body.
func paramLocalType(p *codebase.Param) *ts.Union {
	t := p.Type
	if t == nil {
		t = ts.Mixed()
	}
	if p.Variadic {
		return ts.NewUnion(ts.NewList(t))
	}
	return t
}

// finishBody reports a body that can fall off its end although its
// declared type requires a value.
func (w *walker) finishBody(span ast.Span, body *ast.BlockStatement, ctx *flow.BlockContext) {
	declared := w.scope.returnType
	if declared == nil || declared.IsVoid() || declared.HasMixed() {
		return
	}
	if ctx.HasReturned || !flow.ControlActions(body.Statements).Has(flow.None) {
		return
	}
	w.report(issue.New(issue.MissingReturnStatement, "not all paths return a value of type %s", declared.ID()).
		At(span, "declared here"))
}

// inferredReturn combines the collected return types. Falling off the
// end contributes null; a body that never returns a value is void.
func (w *walker) inferredReturn(body *ast.BlockStatement) *ts.Union {
	returns := w.scope.returns
	if body != nil && flow.ControlActions(body.Statements).Has(flow.None) && len(returns) > 0 {
		returns = append(returns, ts.Null())
	}
	if len(returns) == 0 {
		return ts.Void()
	}
	return ts.CombineUnions(w.meta, true, returns...)
}

func (w *walker) returnStatement(st *ast.ReturnStatement, ctx *flow.BlockContext) {
	declared := w.scope.returnType
	if st.Value == nil {
		if declared != nil && !declared.IsVoid() && !declared.HasMixed() {
			w.report(issue.New(issue.InvalidReturnStatement, "empty return in a body declared to return %s", declared.ID()).
				At(st.Span, "value expected"))
		}
		ctx.Return(w.meta)
		return
	}

	t := w.expr(st.Value, ctx)
	switch {
	case declared == nil:
		w.scope.returns = append(w.scope.returns, t)
	case declared.IsVoid():
		w.report(issue.New(issue.InvalidReturnStatement, "a void body returns %s", t.ID()).
			At(st.Value.GetSpan(), "no value expected"))
	default:
		var cr ts.ComparisonResult
		if !t.HasMixed() && !ts.IsContainedBy(t, declared, w.meta, ts.CompareOptions{}, &cr) && !cr.TypeCoerced {
			w.report(issue.New(issue.InvalidReturnStatement, "returned %s is not %s", t.ID(), declared.ID()).
				At(st.Value.GetSpan(), "returned here"))
		}
	}
	ctx.Return(w.meta)
}
