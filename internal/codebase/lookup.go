package codebase

import (
	"github.com/funvibe/flowcheck/internal/typesystem"
)

// Class returns the class-like with the given name.
func (m *Metadata) Class(name string) (*ClassLike, bool) {
	c, ok := m.Classes[lower(name)]
	return c, ok
}

// Function returns the top-level function with the given name.
func (m *Metadata) Function(name string) (*Function, bool) {
	f, ok := m.Functions[lower(name)]
	return f, ok
}

// Method returns a method declared in or inherited by class.
func (m *Metadata) Method(class, name string) (*Function, bool) {
	c, ok := m.Class(class)
	if !ok {
		return nil, false
	}
	key := lower(name)
	if declaring, ok := c.DeclaringMethod[key]; ok {
		if dc, ok := m.Classes[declaring]; ok {
			if f, ok := dc.Methods[key]; ok {
				return f, true
			}
		}
	}
	f, ok := c.Methods[key]
	return f, ok
}

// Property returns a property declared in or inherited by class.
func (m *Metadata) Property(class, name string) (*Property, bool) {
	c, ok := m.Class(class)
	if !ok {
		return nil, false
	}
	if declaring, ok := c.DeclaringProperty[name]; ok {
		if dc, ok := m.Classes[declaring]; ok {
			if p, ok := dc.Properties[name]; ok {
				return p, true
			}
		}
	}
	p, ok := c.Properties[name]
	return p, ok
}

// ClassConstant returns a constant declared in or inherited by class.
func (m *Metadata) ClassConstant(class, name string) (*ClassConstant, bool) {
	c, ok := m.Class(class)
	if !ok {
		return nil, false
	}
	if declaring, ok := c.DeclaringConstant[name]; ok {
		if dc, ok := m.Classes[declaring]; ok {
			if k, ok := dc.Constants[name]; ok {
				return k, true
			}
		}
	}
	k, ok := c.Constants[name]
	return k, ok
}

// typesystem.Codebase

func (m *Metadata) ClassLikeExists(name string) bool {
	_, ok := m.Class(name)
	return ok
}

func (m *Metadata) IsInterface(name string) bool {
	c, ok := m.Class(name)
	return ok && c.IsInterface()
}

func (m *Metadata) IsEnum(name string) bool {
	c, ok := m.Class(name)
	return ok && c.IsEnum()
}

func (m *Metadata) IsFinalClass(name string) bool {
	c, ok := m.Class(name)
	return ok && (c.Final || c.IsEnum())
}

func (m *Metadata) IsInstanceOf(child, parent string) bool {
	lc, lp := lower(child), lower(parent)
	if lc == lp {
		return true
	}
	c, ok := m.Classes[lc]
	if !ok {
		return false
	}
	if c.AllInterfaces[lp] {
		return true
	}
	for _, p := range c.AllParents {
		if p == lp {
			return true
		}
	}
	return false
}

func (m *Metadata) EnumCases(name string) []string {
	c, ok := m.Class(name)
	if !ok || !c.IsEnum() {
		return nil
	}
	out := make([]string, len(c.Cases))
	for i, ec := range c.Cases {
		out[i] = ec.Name
	}
	return out
}

func (m *Metadata) ClassTemplateNames(name string) []string {
	c, ok := m.Class(name)
	if !ok {
		return nil
	}
	return c.TemplateNames()
}

func (m *Metadata) TemplateExtendedParams(child, ancestor string) ([]*typesystem.Union, bool) {
	c, ok := m.Class(child)
	if !ok {
		return nil, false
	}
	params, ok := c.ExtendedParams[lower(ancestor)]
	return params, ok
}

func (m *Metadata) CallableForAlias(alias typesystem.CallableAlias) (*typesystem.CallableSignature, bool) {
	if alias.Function != "" {
		f, ok := m.Function(alias.Function)
		if !ok {
			return nil, false
		}
		return f.Signature(), true
	}
	f, ok := m.Method(alias.Class, alias.Method)
	if !ok {
		return nil, false
	}
	return f.Signature(), true
}

// expander.Lookup

func (m *Metadata) ClassLikeName(name string) (string, bool) {
	c, ok := m.Class(name)
	if !ok {
		return "", false
	}
	return c.Name, true
}

func (m *Metadata) ClassConstantType(class, name string) (*typesystem.Union, bool) {
	k, ok := m.ClassConstant(class, name)
	if !ok || k.Type == nil {
		return nil, false
	}
	return k.Type, true
}

func (m *Metadata) ClassConstantNames(class string) []string {
	c, ok := m.Class(class)
	if !ok {
		return nil
	}
	return c.ConstantOrder
}

// template.Lookup

func (m *Metadata) ClassTemplateConstraint(class, template string) (*typesystem.Union, bool) {
	c, ok := m.Class(class)
	if !ok {
		return nil, false
	}
	for _, t := range c.Templates {
		if t.Name == template {
			return t.As, true
		}
	}
	return nil, false
}
