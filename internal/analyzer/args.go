package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/expander"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/invocation"
	"github.com/funvibe/flowcheck/internal/issue"
	"github.com/funvibe/flowcheck/internal/template"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// argument is an analyzed call argument.
type argument struct {
	node *ast.Argument
	t    *ts.Union
}

// callee is a resolved call target with the template bindings of its
// receiver.
type callee struct {
	fn        *codebase.Function
	templates *template.Result
	static    *ts.TNamedObject
}

// callTemplates returns a fresh template layer for one call.
func (w *walker) callTemplates() *template.Result {
	if w.scope != nil && w.scope.templates != nil {
		return w.scope.templates.Derive()
	}
	return template.NewResult()
}

func paramFor(f *codebase.Function, a *ast.Argument, i int) *codebase.Param {
	if f == nil {
		return nil
	}
	if a.Name != "" {
		p, _, ok := f.Param(strings.TrimPrefix(a.Name, "$"))
		if !ok {
			return nil
		}
		return p
	}
	if i < len(f.Params) {
		return f.Params[i]
	}
	if n := len(f.Params); n > 0 && f.Params[n-1].Variadic {
		return f.Params[n-1]
	}
	return nil
}

// evalArgs analyzes the arguments once. Arguments passed to a
// by-reference parameter may name a variable that does not exist yet.
func (w *walker) evalArgs(args []*ast.Argument, target *codebase.Function, ctx *flow.BlockContext) []argument {
	out := make([]argument, 0, len(args))
	for i, a := range args {
		if p := paramFor(target, a, i); p != nil && p.ByRef && ExprID(a.Value) != "" {
			var t *ts.Union
			if id := ExprID(a.Value); id != "" {
				if _, ok := ctx.Get(id); !ok {
					t = ts.Null()
					w.TypeMap[a.Value] = t
				}
			}
			if t == nil {
				t = w.quietExpr(a.Value, ctx)
			}
			out = append(out, argument{node: a, t: t})
			continue
		}
		out = append(out, argument{node: a, t: w.expr(a.Value, ctx)})
	}
	return out
}

func calleeName(f *codebase.Function) string {
	if f.Class != "" {
		return f.Class + "::" + f.Name
	}
	return f.Name
}

// invoke checks args against c and returns the type of the call. With
// applyOut the by-reference arguments receive their out types.
func (w *walker) invoke(c callee, args []argument, span ast.Span, ctx *flow.BlockContext, applyOut bool) *ts.Union {
	f := c.fn
	r := c.templates
	if r == nil {
		r = w.callTemplates()
	}
	for _, tp := range f.Templates {
		r.Define(tp.Name, f.Entity(), tp.As)
	}

	type pair struct {
		p *codebase.Param
		a argument
	}
	var pairs []pair
	provided := make(map[string]bool)
	unpacked := false
	tooMany := false
	for i, a := range args {
		if a.node.Unpack {
			unpacked = true
			if value, ok := w.unpackedValue(a); ok {
				for _, p := range f.Params[min(i, len(f.Params)):] {
					pairs = append(pairs, pair{p, argument{node: a.node, t: value}})
				}
			}
			continue
		}
		p := paramFor(f, a.node, i)
		if p == nil {
			switch {
			case a.node.Name != "":
				w.report(issue.New(issue.InvalidNamedArgument, "%s has no parameter named %s", calleeName(f), a.node.Name).
					At(a.node.Span, "unknown parameter"))
			case !tooMany:
				tooMany = true
				w.report(issue.New(issue.TooManyArguments, "too many arguments for %s: expected at most %d", calleeName(f), len(f.Params)).
					At(a.node.Span, "extra argument"))
			}
			continue
		}
		pairs = append(pairs, pair{p, a})
		provided[p.Name] = true
	}

	for i, pr := range pairs {
		template.InferBounds(w.meta, pr.p.Type, pr.a.t, r, 0, i)
	}

	parent := w.parentOf(f.Class)
	opts := expander.Options{Self: f.Class, Parent: parent, Static: c.static}
	named := make(invocation.Args, len(pairs))
	for _, pr := range pairs {
		if prev, ok := named[pr.p.Name]; ok {
			named[pr.p.Name] = ts.CombineUnionTypes(prev, pr.a.t, w.meta, true)
		} else {
			named[pr.p.Name] = pr.a.t
		}
		if pr.p.Type == nil {
			continue
		}
		expected := expander.Expand(template.Replace(pr.p.Type, r, w.meta), w.meta, opts)
		w.checkArgument(f, pr.p, expected, pr.a)
	}

	if !unpacked {
		missing := 0
		for _, p := range f.Params {
			if !p.HasDefault && !p.Variadic && !provided[p.Name] {
				missing++
			}
		}
		if missing > 0 {
			w.report(issue.New(issue.TooFewArguments, "too few arguments for %s: expected %d, got %d",
				calleeName(f), f.RequiredParams(), f.RequiredParams()-missing).
				At(span, "missing arguments"))
		}
	}

	iopts := invocation.Options{Static: c.static, Parent: parent}
	var ret *ts.Union
	if f.ReturnType == nil {
		if inferred, ok := w.overlay.InferredReturnType(f); ok {
			ret = inferred
		} else {
			ret = ts.Mixed()
		}
	} else {
		ret = invocation.ResolveReturnType(w.meta, f, r, named, iopts)
	}

	if applyOut {
		for _, pr := range pairs {
			if !pr.p.ByRef || pr.a.node.Unpack || ExprID(pr.a.node.Value) == "" {
				continue
			}
			if out, ok := invocation.ResolveParamOutType(w.meta, f, pr.p.Name, r, named, iopts); ok {
				w.assignTo(pr.a.node.Value, out, ctx)
			}
		}
	}
	return ret
}

// unpackedValue returns the element type of an unpacked argument.
func (w *walker) unpackedValue(a argument) (*ts.Union, bool) {
	_, value, ok := w.iterableTypes(a.t)
	if !ok {
		w.report(issue.New(issue.InvalidArgument, "cannot unpack %s", a.t.ID()).
			At(a.node.Span, "not iterable"))
	}
	return value, ok
}

func (w *walker) parentOf(class string) string {
	if class == "" {
		return ""
	}
	if c, ok := w.meta.Class(class); ok {
		return c.Parent
	}
	return ""
}

// checkArgument compares an argument with the parameter type it is
// passed to.
func (w *walker) checkArgument(f *codebase.Function, p *codebase.Param, expected *ts.Union, a argument) {
	if expected == nil || a.t.IsNever() || expected.HasMixed() {
		return
	}
	target := fmt.Sprintf("argument $%s of %s", p.Name, calleeName(f))
	span := a.node.Value.GetSpan()
	declared := func(i *issue.Issue) *issue.Issue {
		if codebase.IsBuiltin(p.Span) {
			return i
		}
		return i.Also(p.Span, "parameter declared here")
	}

	if a.t.HasMixed() {
		if w.settings.ReportMixedIssues {
			w.report(issue.New(issue.MixedArgument, "%s expects %s, mixed given", target, expected.ID()).
				At(span, "mixed argument"))
		}
		return
	}

	opts := ts.CompareOptions{IgnoreNull: a.t.IgnoreNullableIssues, IgnoreFalse: a.t.IgnoreFalsableIssues}
	var cr ts.ComparisonResult
	if ts.IsContainedBy(a.t, expected, w.meta, opts, &cr) {
		return
	}
	if cr.TypeCoerced {
		if w.settings.ReportCoercions {
			code := issue.ArgumentTypeCoercion
			if cr.TypeCoercedFromNestedMixed {
				code = issue.MixedArgument
			}
			w.report(declared(issue.New(code, "%s expects %s, parent type %s given", target, expected.ID(), a.t.ID()).
				At(span, "coerced argument")))
		}
		return
	}
	if a.t.IsNull() {
		w.report(declared(issue.New(issue.NullArgument, "%s does not accept null", target).
			At(span, "null given")))
		return
	}
	if a.t.HasNull() && ts.IsContainedBy(a.t.WithoutNull(), expected, w.meta, opts, nil) {
		if w.settings.ReportNullableIssues && !a.t.IgnoreNullableIssues {
			w.report(declared(issue.New(issue.PossiblyNullArgument, "%s does not accept null, %s given", target, a.t.ID()).
				At(span, "possibly null")))
		}
		return
	}
	for _, at := range a.t.Types {
		if ts.IsContainedBy(ts.NewUnion(at), expected, w.meta, opts, nil) {
			w.report(declared(issue.New(issue.PossiblyInvalidArgument, "%s expects %s, possibly different type %s given", target, expected.ID(), a.t.ID()).
				At(span, "partly invalid")))
			return
		}
	}
	w.report(declared(issue.New(issue.InvalidArgument, "%s expects %s, %s given", target, expected.ID(), a.t.ID()).
		At(span, "invalid argument")))
}
