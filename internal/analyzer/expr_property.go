package analyzer

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/expander"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	"github.com/funvibe/flowcheck/internal/template"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// propertyAccess accumulates the outcome of resolving a property over
// every member of the receiver type.
type propertyAccess struct {
	types           []*ts.Union
	hasInvalidPath  bool
	encounteredNull bool
	hasMixed        bool
	invalid         bool
	named, missing  int
	inaccessible    *codebase.Property
}

// result unions the resolved types. An invalid path keeps never in the
// union and a null receiver keeps null.
func (pa *propertyAccess) result(cb ts.Codebase) *ts.Union {
	parts := pa.types
	if pa.encounteredNull {
		parts = append(parts, ts.Null())
	}
	u := ts.CombineUnions(cb, true, parts...)
	if pa.hasInvalidPath && !u.IsNever() {
		u = u.Clone()
		u.Types = append(u.Types, ts.TNever{})
	}
	return u
}

func (w *walker) propertyFetch(n *ast.PropertyFetch, ctx *flow.BlockContext) *ts.Union {
	objType := w.expr(n.Object, ctx)
	id := ExprID(n)
	if id != "" {
		if t, ok := ctx.Get(id); ok && !t.PossiblyUndefined {
			return t
		}
	}

	if objType.IsNull() {
		if !n.NullSafe {
			w.report(issue.New(issue.NullPropertyFetch, "cannot fetch property %s on null", n.Property).
				At(n.Object.GetSpan(), "always null"))
		}
		return ts.Null()
	}

	pa := &propertyAccess{}
	for _, a := range objType.Types {
		w.resolveProperty(pa, a, n.Property)
	}
	w.reportPropertyAccess(pa, objType, n.Property, n.Span, n.Object.GetSpan(), n.NullSafe)

	t := pa.result(w.meta)
	if id != "" && w.settings.MemoizeProperties && isThisFetch(n) {
		ctx.Locals[id] = t
	}
	return t
}

func isThisFetch(n *ast.PropertyFetch) bool {
	v := rootVariable(n)
	return v != nil && v.IsThis()
}

func (w *walker) resolveProperty(pa *propertyAccess, a ts.Atomic, name string) {
	switch t := a.(type) {
	case ts.TNull:
		pa.encounteredNull = true
	case ts.TMixed, ts.TObject:
		pa.hasMixed = true
		pa.types = append(pa.types, ts.Mixed())
	case ts.TGenericParam:
		if t.As == nil || t.As.HasMixed() {
			pa.hasMixed = true
			pa.types = append(pa.types, ts.Mixed())
			return
		}
		for _, b := range t.As.Types {
			w.resolveProperty(pa, b, name)
		}
	case ts.TEnum:
		if u, ok := w.enumProperty(t, name); ok {
			pa.types = append(pa.types, u)
			return
		}
		w.resolveProperty(pa, ts.TNamedObject{Name: t.Name}, name)
	case ts.TNamedObject:
		pa.named++
		p, u, ok := w.namedProperty(t, name)
		if !ok {
			if magic, ok := w.meta.Method(t.Name, config.GetMethodName); ok {
				w.refs.AddMethodReference(w.scope.referrer, magic.Class, magic.Name)
				pa.types = append(pa.types, orMixedReturn(magic))
				return
			}
			pa.missing++
			pa.hasInvalidPath = true
			return
		}
		if !w.canAccess(p.Class, p.Visibility) {
			pa.inaccessible = p
		}
		pa.types = append(pa.types, u)
	default:
		pa.invalid = true
		pa.hasInvalidPath = true
	}
}

// enumProperty types name and value of a single enum case.
func (w *walker) enumProperty(t ts.TEnum, name string) (*ts.Union, bool) {
	if t.Case == "" {
		return nil, false
	}
	c, ok := w.meta.Class(t.Name)
	if !ok {
		return nil, false
	}
	switch name {
	case "name":
		return ts.LiteralString(t.Case), true
	case "value":
		for _, ec := range c.Cases {
			if ec.Name == t.Case && ec.Value != nil {
				return ec.Value, true
			}
		}
	}
	return nil, false
}

// namedProperty resolves a property of a class instance with the
// receiver's type arguments substituted.
func (w *walker) namedProperty(t ts.TNamedObject, name string) (*codebase.Property, *ts.Union, bool) {
	p, ok := w.meta.Property(t.Name, name)
	if !ok {
		for _, it := range t.Intersections {
			if n, isNamed := it.(ts.TNamedObject); isNamed {
				if p, ok = w.meta.Property(n.Name, name); ok {
					break
				}
			}
		}
	}
	if !ok {
		return nil, nil, false
	}
	w.refs.AddPropertyReference(w.scope.referrer, p.Class, p.Name)
	return p, w.propertyType(p, t), true
}

// propertyType is the declared type of p as seen through obj, or the
// type inferred from assignments for an untyped property.
func (w *walker) propertyType(p *codebase.Property, obj ts.TNamedObject) *ts.Union {
	if p.Type == nil {
		if inferred, ok := w.overlay.InferredPropertyType(p.Class, p.Name); ok {
			return inferred
		}
		return ts.Mixed()
	}
	r := template.NewResult()
	r.BindAll(template.Collect(w.meta, obj.Name, p.Class, &obj, obj.IsThis))
	u := template.Replace(p.Type, r, w.meta)
	return expander.Expand(u, w.meta, expander.Options{
		Self:   p.Class,
		Parent: w.parentOf(p.Class),
		Static: &obj,
	})
}

func (w *walker) reportPropertyAccess(pa *propertyAccess, objType *ts.Union, name string, span, objSpan ast.Span, nullSafe bool) {
	if pa.encounteredNull && !nullSafe && w.settings.ReportNullableIssues && !objType.IgnoreNullableIssues {
		w.report(issue.New(issue.PossiblyNullPropertyFetch, "cannot fetch property %s on possibly null %s", name, objType.ID()).
			At(objSpan, "possibly null"))
	}
	if pa.hasMixed && w.settings.ReportMixedIssues {
		w.report(issue.New(issue.MixedPropertyFetch, "cannot determine the type of the object holding %s", name).
			At(objSpan, "mixed receiver"))
	}
	if pa.invalid {
		w.report(issue.New(issue.InvalidPropertyFetch, "cannot fetch property %s on %s", name, objType.ID()).
			At(objSpan, "not an object"))
	}
	if pa.missing > 0 {
		code, msg := issue.NonExistentProperty, "property %s does not exist on %s"
		if pa.missing < pa.named || pa.hasMixed {
			code, msg = issue.PossiblyNonExistentProperty, "property %s might not exist on %s"
		}
		w.report(issue.New(code, msg, name, objType.ID()).At(span, "unknown property"))
	}
	if p := pa.inaccessible; p != nil {
		w.report(issue.New(issue.InaccessibleProperty, "property %s::$%s is not visible from this scope", p.Class, p.Name).
			At(span, "inaccessible").
			Also(p.Span, "property declared here"))
	}
}

func (w *walker) staticPropertyFetch(n *ast.StaticPropertyFetch, ctx *flow.BlockContext) *ts.Union {
	p, obj, ok := w.staticProperty(n)
	if !ok {
		return ts.Mixed()
	}
	if t, ok := ctx.Get(ExprID(n)); ok && !t.PossiblyUndefined {
		return t
	}
	return w.propertyType(p, obj)
}

// staticProperty resolves Class::$name and reports misuse.
func (w *walker) staticProperty(n *ast.StaticPropertyFetch) (*codebase.Property, ts.TNamedObject, bool) {
	class, isStatic, ok := w.className(n.Class, n.Span)
	if !ok {
		return nil, ts.TNamedObject{}, false
	}
	p, found := w.meta.Property(class, strings.TrimPrefix(n.Property, "$"))
	if !found {
		w.report(issue.New(issue.NonExistentProperty, "static property %s::$%s does not exist", class, n.Property).
			At(n.Span, "unknown property"))
		return nil, ts.TNamedObject{}, false
	}
	w.refs.AddPropertyReference(w.scope.referrer, p.Class, p.Name)
	if !p.Static {
		w.report(issue.New(issue.InvalidStaticPropertyAccess, "property %s::$%s is not static", p.Class, p.Name).
			At(n.Span, "instance property").
			Also(p.Span, "property declared here"))
	}
	if !w.canAccess(p.Class, p.Visibility) {
		w.report(issue.New(issue.InaccessibleProperty, "property %s::$%s is not visible from this scope", p.Class, p.Name).
			At(n.Span, "inaccessible").
			Also(p.Span, "property declared here"))
	}
	return p, ts.TNamedObject{Name: class, IsThis: isStatic}, true
}

func (w *walker) assignProperty(n *ast.PropertyFetch, value *ts.Union, ctx *flow.BlockContext) {
	objType := w.expr(n.Object, ctx)
	if objType.IsNull() {
		w.report(issue.New(issue.NullPropertyFetch, "cannot assign property %s on null", n.Property).
			At(n.Object.GetSpan(), "always null"))
		return
	}

	pa := &propertyAccess{}
	var declared []*ts.Union
	for _, a := range objType.Types {
		obj, ok := a.(ts.TNamedObject)
		if !ok {
			w.resolveProperty(pa, a, n.Property)
			continue
		}
		pa.named++
		p, u, found := w.namedProperty(obj, n.Property)
		if !found {
			if _, magic := w.meta.Method(obj.Name, config.SetMethodName); !magic {
				pa.missing++
			}
			continue
		}
		if !w.canAccess(p.Class, p.Visibility) {
			pa.inaccessible = p
		}
		if w.checkPropertyAssignment(p, u, value, n.Span) {
			declared = append(declared, value)
		} else {
			declared = append(declared, u)
		}
	}
	w.reportPropertyAccess(pa, objType, n.Property, n.Span, n.Object.GetSpan(), n.NullSafe)

	if id := ExprID(n); id != "" && len(declared) > 0 {
		ctx.Set(id, ts.CombineUnions(w.meta, true, declared...).AsDefined())
	}
}

func (w *walker) assignStaticProperty(n *ast.StaticPropertyFetch, value *ts.Union, ctx *flow.BlockContext) {
	p, obj, ok := w.staticProperty(n)
	if !ok {
		return
	}
	declared := w.propertyType(p, obj)
	if w.checkPropertyAssignment(p, declared, value, n.Span) {
		declared = value
	}
	ctx.Set(ExprID(n), declared.AsDefined())
}

// checkPropertyAssignment reports a value that does not fit the declared
// type of p. It returns whether the value is accepted as is.
func (w *walker) checkPropertyAssignment(p *codebase.Property, declared, value *ts.Union, span ast.Span) bool {
	if p.Type == nil {
		w.overlay.AddPropertyAssignment(p.Class, p.Name, value)
		return true
	}
	if p.Readonly && !w.scope.inConstructorOf(p.Class) {
		w.report(issue.New(issue.ReadonlyPropertyReassignment, "readonly property %s::$%s can only be set in the constructor", p.Class, p.Name).
			At(span, "reassigned here").
			Also(p.Span, "property declared here"))
	}
	if value.IsNever() {
		return true
	}

	opts := ts.CompareOptions{IgnoreNull: value.IgnoreNullableIssues, IgnoreFalse: value.IgnoreFalsableIssues}
	var cr ts.ComparisonResult
	if ts.IsContainedBy(value, declared, w.meta, opts, &cr) {
		return true
	}
	if cr.TypeCoerced {
		if w.settings.ReportCoercions {
			code := issue.PropertyTypeCoercion
			if cr.TypeCoercedFromNestedMixed {
				code = issue.MixedPropertyTypeCoercion
			}
			w.report(issue.New(code, "%s::$%s expects %s, parent type %s assigned", p.Class, p.Name, declared.ID(), value.ID()).
				At(span, "coerced value").
				Also(p.Span, "property declared here"))
		}
		return false
	}
	for _, a := range value.Types {
		if ts.IsContainedBy(ts.NewUnion(a), declared, w.meta, opts, nil) {
			w.report(issue.New(issue.PossiblyInvalidPropertyAssignment, "%s::$%s expects %s, possibly different type %s assigned", p.Class, p.Name, declared.ID(), value.ID()).
				At(span, "partly invalid").
				Also(p.Span, "property declared here"))
			return false
		}
	}
	w.report(issue.New(issue.InvalidPropertyAssignmentValue, "%s::$%s expects %s, %s assigned", p.Class, p.Name, declared.ID(), value.ID()).
		At(span, "invalid value").
		Also(p.Span, "property declared here"))
	return false
}
