package codebase

import (
	"fmt"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/expander"
	"github.com/funvibe/flowcheck/internal/typesystem"
)

// AncestorError reports an extends, implements or use entry that names an
// unknown class-like, the wrong kind of class-like, or closes a cycle.
type AncestorError struct {
	Class    string
	Ancestor string
	Span     ast.Span
	Reason   string
}

func (e *AncestorError) Error() string {
	return fmt.Sprintf("%s: %s: %s %s", e.Span, e.Class, e.Reason, e.Ancestor)
}

// Populate resolves ancestors, inherits members and template arguments
// along extends/implements/use chains, and expands every declared type.
// It must see all declarations, so it runs once on merged metadata, on a
// single goroutine. The metadata is read-only afterwards.
func (m *Metadata) Populate() []error {
	p := &populator{meta: m, done: map[string]bool{}, visiting: map[string]bool{}}
	for _, key := range sortedKeys(m.Classes) {
		p.class(key)
	}
	for _, key := range sortedKeys(m.Classes) {
		p.expandClass(m.Classes[key])
	}
	for _, key := range sortedKeys(m.Functions) {
		p.expandFunction(m.Functions[key], expander.Options{})
	}
	m.populated = true
	return p.errs
}

type populator struct {
	meta     *Metadata
	done     map[string]bool
	visiting map[string]bool
	errs     []error
}

func (p *populator) errorf(c *ClassLike, ancestor, reason string) {
	p.errs = append(p.errs, &AncestorError{Class: c.Name, Ancestor: ancestor, Span: c.Span, Reason: reason})
}

// resolve populates the ancestor key first and returns it. ok is false
// when the ancestor is missing, has the wrong kind or is part of a cycle.
func (p *populator) resolve(c *ClassLike, name string, want func(*ClassLike) bool, kind string) (*ClassLike, bool) {
	key := lower(name)
	a, ok := p.meta.Classes[key]
	if !ok {
		p.errorf(c, name, "unknown "+kind)
		return nil, false
	}
	if !want(a) {
		p.errorf(c, name, kind+" expected, found "+a.Kind.String())
		return nil, false
	}
	if p.visiting[key] {
		p.errorf(c, name, "circular inheritance through")
		return nil, false
	}
	p.class(key)
	return a, true
}

func (p *populator) class(key string) {
	if p.done[key] {
		return
	}
	c := p.meta.Classes[key]
	p.visiting[key] = true
	defer func() {
		delete(p.visiting, key)
		p.done[key] = true
	}()

	isClass := func(a *ClassLike) bool { return a.Kind == ast.KindClass }
	isInterface := func(a *ClassLike) bool { return a.IsInterface() }
	isTrait := func(a *ClassLike) bool { return a.IsTrait() }

	if c.Parent != "" {
		if parent, ok := p.resolve(c, c.Parent, isClass, "class"); ok {
			pk := lower(parent.Name)
			c.AllParents = append([]string{pk}, parent.AllParents...)
			for iface := range parent.AllInterfaces {
				c.AllInterfaces[iface] = true
			}
			inherit(c.DeclaringProperty, parent.DeclaringProperty, true)
			inherit(c.DeclaringMethod, parent.DeclaringMethod, true)
			inherit(c.DeclaringConstant, parent.DeclaringConstant, true)
			inheritParams(c, parent)
		}
	}
	for _, name := range c.Interfaces {
		iface, ok := p.resolve(c, name, isInterface, "interface")
		if !ok {
			continue
		}
		ik := lower(iface.Name)
		c.AllInterfaces[ik] = true
		for x := range iface.AllInterfaces {
			c.AllInterfaces[x] = true
		}
		inherit(c.DeclaringMethod, iface.DeclaringMethod, false)
		inherit(c.DeclaringConstant, iface.DeclaringConstant, false)
		inheritParams(c, iface)
	}
	for _, name := range c.Traits {
		trait, ok := p.resolve(c, name, isTrait, "trait")
		if !ok {
			continue
		}
		inherit(c.DeclaringProperty, trait.DeclaringProperty, true)
		inherit(c.DeclaringMethod, trait.DeclaringMethod, true)
		inherit(c.DeclaringConstant, trait.DeclaringConstant, true)
	}

	for name := range c.Properties {
		c.DeclaringProperty[name] = key
	}
	for name := range c.Methods {
		c.DeclaringMethod[name] = key
	}
	for name := range c.Constants {
		c.DeclaringConstant[name] = key
	}
	for _, name := range sortedKeys(c.DeclaringConstant) {
		if _, own := c.Constants[name]; !own {
			c.ConstantOrder = append(c.ConstantOrder, name)
		}
	}
}

// inherit copies member-to-declaring-class entries. Without override,
// entries already present win.
func inherit(dst, src map[string]string, override bool) {
	for name, declaring := range src {
		if _, exists := dst[name]; exists && !override {
			continue
		}
		dst[name] = declaring
	}
}

// inheritParams derives the template arguments c passes to the ancestors
// of a, by substituting c's arguments for a into a's own mapping.
func inheritParams(c, a *ClassLike) {
	if len(a.ExtendedParams) == 0 {
		return
	}
	args := c.ExtendedParams[lower(a.Name)]
	byName := make(map[string]*typesystem.Union, len(a.Templates))
	for i, t := range a.Templates {
		if i < len(args) {
			byName[t.Name] = args[i]
		} else {
			byName[t.Name] = t.As
		}
	}
	for _, x := range sortedKeys(a.ExtendedParams) {
		if _, exists := c.ExtendedParams[x]; exists {
			continue
		}
		params := a.ExtendedParams[x]
		out := make([]*typesystem.Union, len(params))
		for i, u := range params {
			out[i] = typesystem.ReplaceGenericParamsByName(u, a.Name, byName)
		}
		c.ExtendedParams[x] = out
	}
}

func (p *populator) expand(u *typesystem.Union, opts expander.Options) *typesystem.Union {
	if u == nil {
		return nil
	}
	return expander.Expand(u, p.meta, opts)
}

func (p *populator) expandClass(c *ClassLike) {
	opts := expander.Options{Self: c.Name, Parent: c.Parent}
	for i := range c.Templates {
		c.Templates[i].As = p.expand(c.Templates[i].As, opts)
	}
	for k, params := range c.ExtendedParams {
		out := make([]*typesystem.Union, len(params))
		for i, u := range params {
			out[i] = p.expand(u, opts)
		}
		c.ExtendedParams[k] = out
	}
	c.BackingType = p.expand(c.BackingType, opts)
	for _, name := range sortedKeys(c.Constants) {
		k := c.Constants[name]
		k.Type = p.expand(k.Type, opts)
	}
	for _, ec := range c.Cases {
		ec.Value = p.expand(ec.Value, opts)
	}
	for _, name := range sortedKeys(c.Properties) {
		prop := c.Properties[name]
		prop.Type = p.expand(prop.Type, opts)
		prop.DefaultType = p.expand(prop.DefaultType, opts)
	}
	for _, name := range sortedKeys(c.Methods) {
		p.expandFunction(c.Methods[name], opts)
	}
}

func (p *populator) expandFunction(f *Function, opts expander.Options) {
	for i := range f.Templates {
		f.Templates[i].As = p.expand(f.Templates[i].As, opts)
	}
	for _, param := range f.Params {
		param.Type = p.expand(param.Type, opts)
		param.OutType = p.expand(param.OutType, opts)
	}
	f.ReturnType = p.expand(f.ReturnType, opts)
}
