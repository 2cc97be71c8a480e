package analyzer

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/expander"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

const classNameConstant = "class"

// classConstant resolves Foo::BAR, Foo::class and enum cases.
func (w *walker) classConstant(n *ast.ClassConstantFetch, _ *flow.BlockContext) *ts.Union {
	name, isStatic, ok := w.className(n.Class, n.Span)
	if !ok {
		return ts.Mixed()
	}
	if strings.EqualFold(n.Constant, classNameConstant) {
		if isStatic && !w.meta.IsFinalClass(name) {
			// Late static binding: only a subclass name is known.
			return ts.NewUnion(ts.TString{NonEmpty: true})
		}
		return ts.LiteralString(name)
	}

	c, _ := w.meta.Class(name)
	if c.IsEnum() {
		for _, ec := range c.Cases {
			if ec.Name == n.Constant {
				w.refs.AddConstantReference(w.scope.referrer, c.Name, ec.Name)
				return ts.NewUnion(ts.TEnum{Name: c.Name, Case: ec.Name})
			}
		}
	}

	k, found := w.meta.ClassConstant(name, n.Constant)
	if !found {
		w.report(issue.New(issue.NonExistentClassConstant, "constant %s::%s does not exist", name, n.Constant).
			At(n.Span, "unknown constant"))
		return ts.Mixed()
	}
	w.refs.AddConstantReference(w.scope.referrer, k.Class, k.Name)
	if !w.canAccess(k.Class, k.Visibility) {
		w.report(issue.New(issue.InaccessibleProperty, "constant %s::%s is not visible here", k.Class, k.Name).
			At(n.Span, "accessed here").
			Also(k.Span, "constant declared here"))
	}
	if k.Type == nil {
		return ts.Mixed()
	}
	opts := expander.Options{Self: k.Class}
	if parent, ok := w.meta.Class(k.Class); ok {
		opts.Parent = parent.Parent
	}
	return expander.Expand(k.Type, w.meta, opts)
}
