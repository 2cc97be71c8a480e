package template

import (
	"sort"
	"strings"

	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/typesystem"
)

// Lookup is what template collection needs from the codebase.
type Lookup interface {
	typesystem.Codebase
	ClassTemplateConstraint(class, template string) (*typesystem.Union, bool)
}

// Collect maps the templates of class (the static type of the call) and of
// declaring (the class that declares the called member) to the concrete
// types carried by lhs. The result is name -> entity -> type.
//
// Templates lhs does not parameterize fall back to their upper bound,
// except on a self call where they stay the template itself; a template
// bound to itself is left out.
func Collect(cb Lookup, class, declaring string, lhs *typesystem.TNamedObject, selfCall bool) map[string]map[string]*typesystem.Union {
	out := make(map[string]map[string]*typesystem.Union)
	args := make(map[string]*typesystem.Union)
	for i, name := range cb.ClassTemplateNames(class) {
		as, _ := cb.ClassTemplateConstraint(class, name)
		switch {
		case lhs != nil && i < len(lhs.TypeParams):
			args[name] = lhs.TypeParams[i]
		case selfCall:
			args[name] = typesystem.NewUnion(typesystem.TGenericParam{Name: name, DefiningEntity: class, As: orMixed(as)})
		default:
			args[name] = orMixed(as)
		}
		if !isOwnParam(args[name], name, class) {
			set(out, name, class, args[name])
		}
	}
	if declaring == "" || strings.EqualFold(class, declaring) {
		return out
	}

	extended, ok := cb.TemplateExtendedParams(class, declaring)
	for i, name := range cb.ClassTemplateNames(declaring) {
		var u *typesystem.Union
		if ok && i < len(extended) {
			u = ResolveTemplateParameter(cb, class, extended[i], args)
		} else {
			as, _ := cb.ClassTemplateConstraint(declaring, name)
			u = orMixed(as)
		}
		if !isOwnParam(u, name, declaring) {
			set(out, name, declaring, u)
		}
	}
	return out
}

// ResolveTemplateParameter replaces the templates of class inside an
// extends constraint with the position-matched arguments. A template
// without an argument falls back to its upper bound, itself resolved the
// same way; a repeated (class, template) pair stops at mixed.
func ResolveTemplateParameter(cb Lookup, class string, constraint *typesystem.Union, args map[string]*typesystem.Union) *typesystem.Union {
	r := &resolver{cb: cb, class: class, args: args, visiting: make(map[string]bool)}
	return r.union(constraint, 0)
}

type resolver struct {
	cb       Lookup
	class    string
	args     map[string]*typesystem.Union
	visiting map[string]bool
}

func (r *resolver) union(u *typesystem.Union, depth int) *typesystem.Union {
	return typesystem.TransformUnion(u, func(a typesystem.Atomic) *typesystem.Union {
		gp, ok := a.(typesystem.TGenericParam)
		if !ok || !strings.EqualFold(gp.DefiningEntity, r.class) {
			return nil
		}
		if arg, ok := r.args[gp.Name]; ok {
			return arg
		}
		k := strings.ToLower(r.class) + "::" + gp.Name
		if r.visiting[k] || depth >= config.MaxTemplateDepth {
			return typesystem.Mixed()
		}
		r.visiting[k] = true
		defer delete(r.visiting, k)
		as, ok := r.cb.ClassTemplateConstraint(r.class, gp.Name)
		if !ok {
			as = gp.As
		}
		return r.union(orMixed(as), depth+1)
	})
}

func isOwnParam(u *typesystem.Union, name, entity string) bool {
	if u == nil || !u.IsSingle() {
		return false
	}
	gp, ok := u.Single().(typesystem.TGenericParam)
	return ok && gp.Name == name && strings.EqualFold(gp.DefiningEntity, entity)
}

func set(out map[string]map[string]*typesystem.Union, name, entity string, u *typesystem.Union) {
	byEntity, ok := out[name]
	if !ok {
		byEntity = make(map[string]*typesystem.Union)
		out[name] = byEntity
	}
	byEntity[entity] = u
}

func orMixed(u *typesystem.Union) *typesystem.Union {
	if u == nil {
		return typesystem.Mixed()
	}
	return u
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
