// Package template records generic parameter definitions and the concrete
// types bound to them while a call or instantiation is analyzed.
package template

import (
	"github.com/funvibe/flowcheck/internal/typesystem"
)

// Origin is one declaration of a template: the defining entity and its
// upper bound.
type Origin struct {
	Entity string
	As     *typesystem.Union
}

// Definition is a template name with every entity that declares it.
type Definition struct {
	Name    string
	Origins []Origin
}

// Bound is a lower bound discovered from an argument. Depth is how deep
// inside the parameter type the template appeared; ArgOffset is the
// position of the contributing argument.
type Bound struct {
	Type      *typesystem.Union
	Depth     int
	ArgOffset int
}

// Result is the template context of one scope. A child derived with
// Derive layers its own definitions, bindings and bounds over the parent
// and never mutates it.
type Result struct {
	parent *Result

	defs     []Definition
	resolved map[string]*typesystem.Union // by name:entity
	order    []string                     // resolved keys, first bind first
	bounds   map[string][]Bound           // by name:entity
}

// NewResult returns an empty root context.
func NewResult() *Result {
	return &Result{
		resolved: make(map[string]*typesystem.Union),
		bounds:   make(map[string][]Bound),
	}
}

// Derive returns a child context layered over r.
func (r *Result) Derive() *Result {
	child := NewResult()
	child.parent = r
	return child
}

func key(name, entity string) string { return name + ":" + entity }

// Define declares a template in this layer.
func (r *Result) Define(name, entity string, as *typesystem.Union) {
	if as == nil {
		as = typesystem.Mixed()
	}
	for i := range r.defs {
		if r.defs[i].Name != name {
			continue
		}
		for j, o := range r.defs[i].Origins {
			if o.Entity == entity {
				r.defs[i].Origins[j].As = as
				return
			}
		}
		r.defs[i].Origins = append(r.defs[i].Origins, Origin{Entity: entity, As: as})
		return
	}
	r.defs = append(r.defs, Definition{Name: name, Origins: []Origin{{Entity: entity, As: as}}})
}

// Definitions returns the definitions visible from r, outermost first.
func (r *Result) Definitions() []Definition {
	var out []Definition
	if r.parent != nil {
		out = r.parent.Definitions()
	}
	for _, d := range r.defs {
		merged := false
		for i := range out {
			if out[i].Name == d.Name {
				out[i].Origins = append(append([]Origin(nil), out[i].Origins...), d.Origins...)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, d)
		}
	}
	return out
}

// Constraint returns the upper bound of a visible template.
func (r *Result) Constraint(name, entity string) (*typesystem.Union, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		for _, d := range cur.defs {
			if d.Name != name {
				continue
			}
			for _, o := range d.Origins {
				if o.Entity == entity {
					return o.As, true
				}
			}
		}
	}
	return nil, false
}

// Bind records the concrete type of a template in this layer.
func (r *Result) Bind(name, entity string, u *typesystem.Union) {
	k := key(name, entity)
	if _, exists := r.resolved[k]; !exists {
		r.order = append(r.order, k)
	}
	r.resolved[k] = u
}

// BindAll records every entry of a Collect result.
func (r *Result) BindAll(bindings map[string]map[string]*typesystem.Union) {
	for _, name := range sortedKeys(bindings) {
		byEntity := bindings[name]
		for _, entity := range sortedKeys(byEntity) {
			r.Bind(name, entity, byEntity[entity])
		}
	}
}

// Lookup returns the explicit binding of a template, searching outwards.
func (r *Result) Lookup(name, entity string) (*typesystem.Union, bool) {
	k := key(name, entity)
	for cur := r; cur != nil; cur = cur.parent {
		if u, ok := cur.resolved[k]; ok {
			return u, true
		}
	}
	return nil, false
}

// AddLowerBound records a lower bound in this layer.
func (r *Result) AddLowerBound(name, entity string, b Bound) {
	k := key(name, entity)
	r.bounds[k] = append(r.bounds[k], b)
}

// LowerBounds returns the lower bounds of a template, outermost first.
func (r *Result) LowerBounds(name, entity string) []Bound {
	var out []Bound
	if r.parent != nil {
		out = r.parent.LowerBounds(name, entity)
	}
	return append(out, r.bounds[key(name, entity)]...)
}

// HasLowerBound reports whether any argument contributed to a template.
func (r *Result) HasLowerBound(name, entity string) bool {
	for cur := r; cur != nil; cur = cur.parent {
		if len(cur.bounds[key(name, entity)]) > 0 {
			return true
		}
	}
	return false
}

// Resolved returns the concrete type of a template: its explicit binding,
// or the union of its lower bounds.
func (r *Result) Resolved(name, entity string, cb typesystem.Codebase) (*typesystem.Union, bool) {
	if u, ok := r.Lookup(name, entity); ok {
		return u, true
	}
	bounds := r.LowerBounds(name, entity)
	if len(bounds) == 0 {
		return nil, false
	}
	unions := make([]*typesystem.Union, len(bounds))
	for i, b := range bounds {
		unions[i] = b.Type
	}
	return typesystem.CombineUnions(cb, false, unions...), true
}

// Replacements maps name:entity keys of every resolvable template to its
// concrete type, in the form ReplaceGenericParams expects.
func (r *Result) Replacements(cb typesystem.Codebase) map[string]*typesystem.Union {
	out := make(map[string]*typesystem.Union)
	var keys []string
	for cur := r; cur != nil; cur = cur.parent {
		keys = append(keys, cur.order...)
		for k := range cur.bounds {
			keys = append(keys, k)
		}
	}
	for _, d := range r.Definitions() {
		for _, o := range d.Origins {
			keys = append(keys, key(d.Name, o.Entity))
		}
	}
	for _, k := range keys {
		if _, done := out[k]; done {
			continue
		}
		name, entity := splitKey(k)
		if u, ok := r.Resolved(name, entity, cb); ok {
			out[k] = u
		}
	}
	return out
}

func splitKey(k string) (string, string) {
	for i := 0; i < len(k); i++ {
		if k[i] == ':' {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}

// Replace substitutes every resolvable template in u.
func Replace(u *typesystem.Union, r *Result, cb typesystem.Codebase) *typesystem.Union {
	if u == nil || r == nil {
		return u
	}
	return typesystem.ReplaceGenericParams(u, r.Replacements(cb))
}
