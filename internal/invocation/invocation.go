// Package invocation computes the type a call produces: the declared
// return or out type of the callee with its templates substituted, its
// argument placeholders filled in and its conditional types decided.
package invocation

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/expander"
	"github.com/funvibe/flowcheck/internal/template"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// Codebase is what resolution reads. *codebase.Metadata implements it.
type Codebase interface {
	template.Lookup
	expander.Lookup
}

// Args maps parameter names (without '$') to the inferred argument types.
type Args map[string]*ts.Union

// Options describe the class context of the call.
type Options struct {
	// Static is the late static binding class of a method call.
	Static *ts.TNamedObject
	// Parent is the parent class of the callee's declaring class.
	Parent string
}

// ResolveReturnType returns the type of a call to target. A callee
// without a declared return type yields mixed.
func ResolveReturnType(cb Codebase, target *codebase.Function, r *template.Result, args Args, opts Options) *ts.Union {
	if target.ReturnType == nil {
		return ts.Mixed()
	}
	return resolve(cb, target, target.ReturnType, r, args, opts)
}

// ResolveParamOutType returns the type a by-reference parameter holds
// after the call: its declared out type, else its declared type. ok is
// false for an unknown or by-value parameter.
func ResolveParamOutType(cb Codebase, target *codebase.Function, param string, r *template.Result, args Args, opts Options) (*ts.Union, bool) {
	p, _, found := target.Param(strings.TrimPrefix(param, "$"))
	if !found || !p.ByRef {
		return nil, false
	}
	declared := p.OutType
	if declared == nil {
		declared = p.Type
	}
	if declared == nil {
		return ts.Mixed(), true
	}
	return resolve(cb, target, declared, r, args, opts), true
}

func resolve(cb Codebase, target *codebase.Function, declared *ts.Union, r *template.Result, args Args, opts Options) *ts.Union {
	seeded := seed(cb, target, r)
	u := template.Replace(declared, seeded, cb)

	rs := &resolver{cb: cb, args: args, opts: opts}
	rs.expand = expander.Options{
		Self:        target.Class,
		Parent:      opts.Parent,
		Static:      opts.Static,
		FinalStatic: target.Final || (target.Class != "" && cb.IsFinalClass(target.Class)),
	}
	u = ts.TransformUnion(u, rs.atomic)
	return expander.Expand(u, cb, rs.expand)
}

// seed derives a layer that binds the callee's own templates nothing was
// inferred for to never. r itself is left untouched.
func seed(cb Codebase, target *codebase.Function, r *template.Result) *template.Result {
	if r == nil {
		r = template.NewResult()
	}
	out := r.Derive()
	entity := target.Entity()
	for _, tp := range target.Templates {
		if _, ok := r.Resolved(tp.Name, entity, cb); !ok {
			out.Bind(tp.Name, entity, ts.Never())
		}
	}
	return out
}

type resolver struct {
	cb     Codebase
	args   Args
	opts   Options
	expand expander.Options
}

// atomic is called bottom-up, so the parts of a conditional are already
// resolved when the conditional itself is visited.
func (rs *resolver) atomic(a ts.Atomic) *ts.Union {
	switch t := a.(type) {
	case ts.TVariable:
		return rs.variable(t.Name)
	case ts.TConditional:
		return rs.conditional(t)
	}
	return nil
}

func (rs *resolver) variable(name string) *ts.Union {
	if name == config.ThisVarName && rs.opts.Static != nil {
		return ts.NewUnion(*rs.opts.Static)
	}
	if u, ok := rs.args[strings.TrimPrefix(name, "$")]; ok && u != nil {
		return u
	}
	return ts.Mixed()
}

func (rs *resolver) conditional(t ts.TConditional) *ts.Union {
	subject := expander.Expand(t.Subject, rs.cb, rs.expand)
	target := expander.Expand(t.Target, rs.cb, rs.expand)
	then, otherwise := t.Then, t.Otherwise
	if t.Negated {
		then, otherwise = otherwise, then
	}

	var cr ts.ComparisonResult
	if ts.IsContainedBy(subject, target, rs.cb, ts.CompareOptions{}, &cr) && !cr.TypeCoerced {
		return orMixed(then)
	}
	if !ts.CanBeIdentical(subject, target, rs.cb) {
		return orMixed(otherwise)
	}
	return ts.CombineUnionTypes(orMixed(then), orMixed(otherwise), rs.cb, false)
}

func orMixed(u *ts.Union) *ts.Union {
	if u == nil {
		return ts.Mixed()
	}
	return u
}
