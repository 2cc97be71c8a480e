package ast

// Signature types (Parameter.Type, ReturnType, PropertyDeclaration.Type,
// ...) are kept as docblock type strings. They are parsed by the scanner,
// which knows the template scope they appear in.

// TemplateDeclaration declares a generic parameter: @template T of As
type TemplateDeclaration struct {
	Name string
	As   string // empty means mixed
}

// Parameter of a function, method, closure or arrow function.
type Parameter struct {
	Span     Span
	Name     string // without '$'
	Type     string // empty when untyped
	OutType  string // @param-out type for by-reference parameters
	Default  Expression
	ByRef    bool
	Variadic bool

	// Promoted constructor parameters also declare a property.
	Promoted   bool
	Visibility Visibility
	Readonly   bool
}

func (p *Parameter) GetSpan() Span {
	if p == nil {
		return Span{}
	}
	return p.Span
}

// FunctionDeclaration is a named top-level function.
type FunctionDeclaration struct {
	Span       Span
	Name       string
	Templates  []*TemplateDeclaration
	Params     []*Parameter
	ReturnType string
	Body       *BlockStatement
}

func (fd *FunctionDeclaration) statementNode() {}
func (fd *FunctionDeclaration) GetSpan() Span {
	if fd == nil {
		return Span{}
	}
	return fd.Span
}

// ClassDeclaration declares a class, interface, trait or enum.
//
// Parent and Interfaces are type strings so that generic ancestors can be
// written directly: Parent "Collection<int>", Interfaces ["Countable"].
// For interfaces, Interfaces holds the extended interfaces.
type ClassDeclaration struct {
	Span        Span
	Kind        ClassKind
	Name        string
	Parent      string
	Interfaces  []string
	Traits      []string
	Templates   []*TemplateDeclaration
	Final       bool
	Abstract    bool
	Readonly    bool
	BackingType string // enums only: int or string

	Constants  []*ConstantDeclaration
	Cases      []*EnumCaseDeclaration
	Properties []*PropertyDeclaration
	Methods    []*MethodDeclaration
}

func (cd *ClassDeclaration) statementNode() {}
func (cd *ClassDeclaration) GetSpan() Span {
	if cd == nil {
		return Span{}
	}
	return cd.Span
}

// PropertyDeclaration declares one property.
type PropertyDeclaration struct {
	Span       Span
	Name       string // without '$'
	Type       string
	Default    Expression
	Visibility Visibility
	Static     bool
	Readonly   bool
}

func (pd *PropertyDeclaration) GetSpan() Span {
	if pd == nil {
		return Span{}
	}
	return pd.Span
}

// MethodDeclaration declares one method. Body is nil for abstract and
// interface methods.
type MethodDeclaration struct {
	Span       Span
	Name       string
	Templates  []*TemplateDeclaration
	Params     []*Parameter
	ReturnType string
	Visibility Visibility
	Static     bool
	Abstract   bool
	Final      bool
	Body       *BlockStatement
}

func (md *MethodDeclaration) GetSpan() Span {
	if md == nil {
		return Span{}
	}
	return md.Span
}

// ConstantDeclaration declares a class constant.
type ConstantDeclaration struct {
	Span       Span
	Name       string
	Type       string
	Value      Expression
	Visibility Visibility
	Final      bool
}

func (cd *ConstantDeclaration) GetSpan() Span {
	if cd == nil {
		return Span{}
	}
	return cd.Span
}

// EnumCaseDeclaration declares an enum case. Value is set for backed enums.
type EnumCaseDeclaration struct {
	Span  Span
	Name  string
	Value Expression
}

func (ec *EnumCaseDeclaration) GetSpan() Span {
	if ec == nil {
		return Span{}
	}
	return ec.Span
}
