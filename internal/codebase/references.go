package codebase

import (
	"sort"
	"strings"
)

// Reference graph keys. Class-like names are lowercased; property and
// constant names keep their case.

func ClassKey(class string) string { return lower(class) }

func MethodKey(class, method string) string {
	return lower(class) + "::" + strings.ToLower(method) + "()"
}

func PropertyKey(class, property string) string {
	return lower(class) + "::$" + property
}

func ConstantKey(class, constant string) string {
	return lower(class) + "::" + constant
}

func FunctionKey(function string) string { return lower(function) + "()" }

// SymbolReferences records which symbol uses which. The referencing
// symbol is the enclosing function or method key, or the file for
// top-level code.
type SymbolReferences struct {
	edges map[string]map[string]bool
}

// NewSymbolReferences returns an empty graph.
func NewSymbolReferences() *SymbolReferences {
	return &SymbolReferences{edges: make(map[string]map[string]bool)}
}

func (r *SymbolReferences) add(from, to string) {
	set, ok := r.edges[from]
	if !ok {
		set = make(map[string]bool)
		r.edges[from] = set
	}
	set[to] = true
}

func (r *SymbolReferences) AddClassReference(from, class string) {
	r.add(from, ClassKey(class))
}

func (r *SymbolReferences) AddMethodReference(from, class, method string) {
	r.add(from, ClassKey(class))
	r.add(from, MethodKey(class, method))
}

func (r *SymbolReferences) AddPropertyReference(from, class, property string) {
	r.add(from, ClassKey(class))
	r.add(from, PropertyKey(class, property))
}

func (r *SymbolReferences) AddConstantReference(from, class, constant string) {
	r.add(from, ClassKey(class))
	r.add(from, ConstantKey(class, constant))
}

func (r *SymbolReferences) AddFunctionReference(from, function string) {
	r.add(from, FunctionKey(function))
}

// Merge adds every edge of o.
func (r *SymbolReferences) Merge(o *SymbolReferences) {
	if o == nil {
		return
	}
	for from, set := range o.edges {
		for to := range set {
			r.add(from, to)
		}
	}
}

// Edge is one recorded use.
type Edge struct {
	From string
	To   string
}

// Edges returns every edge sorted by From then To.
func (r *SymbolReferences) Edges() []Edge {
	var out []Edge
	for _, from := range sortedKeys(r.edges) {
		for _, to := range sortedKeys(r.edges[from]) {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// Referenced reports whether anything uses key.
func (r *SymbolReferences) Referenced(key string) bool {
	for from, set := range r.edges {
		if set[key] && from != key {
			return true
		}
	}
	return false
}

func (r *SymbolReferences) referencedSet() map[string]bool {
	out := make(map[string]bool)
	for from, set := range r.edges {
		for to := range set {
			if to != from {
				out[to] = true
			}
		}
	}
	return out
}

// Unreferenced returns the keys of user-declared classes, functions,
// methods and properties that nothing references, sorted. A method
// counts as used when the same method is referenced on a class that
// inherits it or on an ancestor it overrides. Magic methods are skipped.
func (r *SymbolReferences) Unreferenced(meta *Metadata) []string {
	used := r.referencedSet()
	var out []string
	for _, key := range sortedKeys(meta.Functions) {
		f := meta.Functions[key]
		if IsBuiltin(f.Span) {
			continue
		}
		if !used[f.Key()] {
			out = append(out, f.Key())
		}
	}
	for _, ck := range sortedKeys(meta.Classes) {
		c := meta.Classes[ck]
		if IsBuiltin(c.Span) {
			continue
		}
		if !used[ClassKey(c.Name)] {
			out = append(out, ClassKey(c.Name))
		}
		for _, mk := range sortedKeys(c.Methods) {
			if strings.HasPrefix(mk, "__") {
				continue
			}
			if !methodUsed(meta, used, c, mk) {
				out = append(out, MethodKey(c.Name, mk))
			}
		}
		for _, pk := range sortedKeys(c.Properties) {
			if c.IsEnum() {
				continue
			}
			if !propertyUsed(meta, used, c, pk) {
				out = append(out, PropertyKey(c.Name, pk))
			}
		}
	}
	sort.Strings(out)
	return out
}

// related returns the class itself, its ancestors and every class
// inheriting from it.
func related(meta *Metadata, c *ClassLike) []string {
	own := lower(c.Name)
	out := []string{own}
	out = append(out, c.AllParents...)
	for k := range c.AllInterfaces {
		out = append(out, k)
	}
	for _, k := range sortedKeys(meta.Classes) {
		if k != own && meta.IsInstanceOf(k, own) {
			out = append(out, k)
		}
	}
	return out
}

func methodUsed(meta *Metadata, used map[string]bool, c *ClassLike, method string) bool {
	for _, k := range related(meta, c) {
		if used[MethodKey(k, method)] {
			return true
		}
	}
	return false
}

func propertyUsed(meta *Metadata, used map[string]bool, c *ClassLike, property string) bool {
	for _, k := range related(meta, c) {
		if used[PropertyKey(k, property)] {
			return true
		}
	}
	return false
}
