package codebase

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/typesystem"
)

// TemplateParam is a declared generic parameter.
type TemplateParam struct {
	Name string
	As   *typesystem.Union
}

// ClassLike describes a class, interface, trait or enum.
type ClassLike struct {
	Name     string
	Kind     ast.ClassKind
	Span     ast.Span
	Final    bool
	Abstract bool
	Readonly bool

	Parent     string   // direct parent class, declared spelling
	Interfaces []string // direct interfaces (extended interfaces for an interface)
	Traits     []string

	Templates []TemplateParam

	// ExtendedParams maps a lowercase ancestor name to the type arguments
	// this class passes to it, expressed with this class's own templates.
	// Scan records the direct ancestors; Populate adds the transitive ones.
	ExtendedParams map[string][]*typesystem.Union

	BackingType *typesystem.Union // backed enums only

	Constants     map[string]*ClassConstant
	ConstantOrder []string
	Cases         []*EnumCase
	Properties    map[string]*Property // declared here, by name
	Methods       map[string]*Function // declared here, by lowercase name

	// Filled by Populate.
	AllParents        []string        // lowercase, nearest first
	AllInterfaces     map[string]bool // lowercase
	DeclaringProperty map[string]string
	DeclaringMethod   map[string]string
	DeclaringConstant map[string]string
}

func newClassLike(name string, kind ast.ClassKind, span ast.Span) *ClassLike {
	return &ClassLike{
		Name:              name,
		Kind:              kind,
		Span:              span,
		ExtendedParams:    make(map[string][]*typesystem.Union),
		Constants:         make(map[string]*ClassConstant),
		Properties:        make(map[string]*Property),
		Methods:           make(map[string]*Function),
		AllInterfaces:     make(map[string]bool),
		DeclaringProperty: make(map[string]string),
		DeclaringMethod:   make(map[string]string),
		DeclaringConstant: make(map[string]string),
	}
}

func (c *ClassLike) IsInterface() bool { return c.Kind == ast.KindInterface }
func (c *ClassLike) IsTrait() bool     { return c.Kind == ast.KindTrait }
func (c *ClassLike) IsEnum() bool      { return c.Kind == ast.KindEnum }

// IsInstantiable reports whether `new` may create the class.
func (c *ClassLike) IsInstantiable() bool {
	return c.Kind == ast.KindClass && !c.Abstract
}

// TemplateNames returns the declared template names in order.
func (c *ClassLike) TemplateNames() []string {
	out := make([]string, len(c.Templates))
	for i, t := range c.Templates {
		out[i] = t.Name
	}
	return out
}

// TemplateIndex returns the position of a template, or -1.
func (c *ClassLike) TemplateIndex(name string) int {
	for i, t := range c.Templates {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// HasCase reports whether the enum declares the case.
func (c *ClassLike) HasCase(name string) bool {
	for _, ec := range c.Cases {
		if ec.Name == name {
			return true
		}
	}
	return false
}

// Function describes a function or a method.
type Function struct {
	Name  string // declared spelling
	Class string // declaring class; empty for functions
	Span  ast.Span

	Templates  []TemplateParam
	Params     []*Param
	ReturnType *typesystem.Union // nil when not declared

	Visibility ast.Visibility
	Static     bool
	Abstract   bool
	Final      bool
}

// IsMethod reports whether the function belongs to a class.
func (f *Function) IsMethod() bool { return f.Class != "" }

// Entity is the defining entity of the function's own templates.
func (f *Function) Entity() string {
	if f.Class != "" {
		return typesystem.MethodEntity(f.Class, f.Name)
	}
	return typesystem.FunctionEntity(f.Name)
}

// Key identifies the function in the reference graph.
func (f *Function) Key() string {
	if f.Class != "" {
		return MethodKey(f.Class, f.Name)
	}
	return FunctionKey(f.Name)
}

// Param returns the parameter with the given name.
func (f *Function) Param(name string) (*Param, int, bool) {
	for i, p := range f.Params {
		if p.Name == name {
			return p, i, true
		}
	}
	return nil, -1, false
}

// RequiredParams counts the parameters without default that are not variadic.
func (f *Function) RequiredParams() int {
	n := 0
	for _, p := range f.Params {
		if !p.HasDefault && !p.Variadic {
			n++
		}
	}
	return n
}

// Signature returns the callable signature of the function.
func (f *Function) Signature() *typesystem.CallableSignature {
	sig := &typesystem.CallableSignature{Return: f.ReturnType}
	for _, p := range f.Params {
		sig.Params = append(sig.Params, typesystem.CallableParam{
			Type:     p.Type,
			Optional: p.HasDefault,
			Variadic: p.Variadic,
			ByRef:    p.ByRef,
		})
	}
	return sig
}

// Param is a function parameter.
type Param struct {
	Name       string // without '$'
	Span       ast.Span
	Type       *typesystem.Union // nil when untyped
	OutType    *typesystem.Union // by-reference out type, nil when not declared
	HasDefault bool
	ByRef      bool
	Variadic   bool
}

// Property is a declared property.
type Property struct {
	Name        string // without '$'
	Class       string // declaring class
	Span        ast.Span
	Type        *typesystem.Union // nil when untyped
	DefaultType *typesystem.Union // type of the default value, nil without default
	Visibility  ast.Visibility
	Static      bool
	Readonly    bool
	Promoted    bool
}

// ClassConstant is a declared class constant.
type ClassConstant struct {
	Name       string
	Class      string
	Span       ast.Span
	Type       *typesystem.Union
	Visibility ast.Visibility
}

// EnumCase is a declared enum case.
type EnumCase struct {
	Name  string
	Span  ast.Span
	Value *typesystem.Union // nil for pure enums
}
