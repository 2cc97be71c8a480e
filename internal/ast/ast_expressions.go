package ast

// Variable is a local variable. Name has no leading '$'.
type Variable struct {
	Span Span
	Name string
}

func (v *Variable) expressionNode() {}
func (v *Variable) GetSpan() Span {
	if v == nil {
		return Span{}
	}
	return v.Span
}

// IsThis reports whether the variable is $this.
func (v *Variable) IsThis() bool { return v.Name == "this" }

type IntegerLiteral struct {
	Span  Span
	Value int64
}

func (il *IntegerLiteral) expressionNode() {}
func (il *IntegerLiteral) GetSpan() Span {
	if il == nil {
		return Span{}
	}
	return il.Span
}

type FloatLiteral struct {
	Span  Span
	Value float64
}

func (fl *FloatLiteral) expressionNode() {}
func (fl *FloatLiteral) GetSpan() Span {
	if fl == nil {
		return Span{}
	}
	return fl.Span
}

type StringLiteral struct {
	Span  Span
	Value string
}

func (sl *StringLiteral) expressionNode() {}
func (sl *StringLiteral) GetSpan() Span {
	if sl == nil {
		return Span{}
	}
	return sl.Span
}

type BooleanLiteral struct {
	Span  Span
	Value bool
}

func (bl *BooleanLiteral) expressionNode() {}
func (bl *BooleanLiteral) GetSpan() Span {
	if bl == nil {
		return Span{}
	}
	return bl.Span
}

type NullLiteral struct {
	Span Span
}

func (nl *NullLiteral) expressionNode() {}
func (nl *NullLiteral) GetSpan() Span {
	if nl == nil {
		return Span{}
	}
	return nl.Span
}

// ArrayLiteral: [1, 'k' => 2, ...$rest]
type ArrayLiteral struct {
	Span  Span
	Items []*ArrayItem
}

func (al *ArrayLiteral) expressionNode() {}
func (al *ArrayLiteral) GetSpan() Span {
	if al == nil {
		return Span{}
	}
	return al.Span
}

// ArrayItem is one entry of an ArrayLiteral. Key is nil for positional
// entries; Spread marks ...$value.
type ArrayItem struct {
	Span   Span
	Key    Expression
	Value  Expression
	Spread bool
}

func (ai *ArrayItem) GetSpan() Span {
	if ai == nil {
		return Span{}
	}
	return ai.Span
}

// AssignExpression: Target = Value, or Target op= Value when Operator is set.
// Target is a Variable, PropertyFetch, StaticPropertyFetch or ArrayDimFetch.
type AssignExpression struct {
	Span     Span
	Target   Expression
	Operator string // "", "+", "-", "*", "/", ".", "??" ...
	Value    Expression
	ByRef    bool
}

func (ae *AssignExpression) expressionNode() {}
func (ae *AssignExpression) GetSpan() Span {
	if ae == nil {
		return Span{}
	}
	return ae.Span
}

// PropertyFetch: $obj->prop, or $obj?->prop when NullSafe.
type PropertyFetch struct {
	Span     Span
	Object   Expression
	Property string
	NullSafe bool
}

func (pf *PropertyFetch) expressionNode() {}
func (pf *PropertyFetch) GetSpan() Span {
	if pf == nil {
		return Span{}
	}
	return pf.Span
}

// StaticPropertyFetch: Foo::$prop. Class may be self, static or parent.
type StaticPropertyFetch struct {
	Span     Span
	Class    string
	Property string
}

func (sp *StaticPropertyFetch) expressionNode() {}
func (sp *StaticPropertyFetch) GetSpan() Span {
	if sp == nil {
		return Span{}
	}
	return sp.Span
}

// Argument is one call argument. Name is set for named arguments.
type Argument struct {
	Span   Span
	Name   string
	Value  Expression
	Unpack bool
}

func (a *Argument) GetSpan() Span {
	if a == nil {
		return Span{}
	}
	return a.Span
}

// MethodCall: $obj->m(args), or $obj?->m(args) when NullSafe.
type MethodCall struct {
	Span     Span
	Object   Expression
	Method   string
	Args     []*Argument
	NullSafe bool
}

func (mc *MethodCall) expressionNode() {}
func (mc *MethodCall) GetSpan() Span {
	if mc == nil {
		return Span{}
	}
	return mc.Span
}

// StaticCall: Foo::m(args). Class may be self, static or parent.
type StaticCall struct {
	Span   Span
	Class  string
	Method string
	Args   []*Argument
}

func (sc *StaticCall) expressionNode() {}
func (sc *StaticCall) GetSpan() Span {
	if sc == nil {
		return Span{}
	}
	return sc.Span
}

// FunctionCall calls a named function, or Callee when Name is empty
// ($fn(1), (fn() => 1)()).
type FunctionCall struct {
	Span   Span
	Name   string
	Callee Expression
	Args   []*Argument
}

func (fc *FunctionCall) expressionNode() {}
func (fc *FunctionCall) GetSpan() Span {
	if fc == nil {
		return Span{}
	}
	return fc.Span
}

// NewExpression: new Foo(args)
type NewExpression struct {
	Span  Span
	Class string
	Args  []*Argument
}

func (ne *NewExpression) expressionNode() {}
func (ne *NewExpression) GetSpan() Span {
	if ne == nil {
		return Span{}
	}
	return ne.Span
}

// CloneExpression: clone $obj
type CloneExpression struct {
	Span  Span
	Value Expression
}

func (ce *CloneExpression) expressionNode() {}
func (ce *CloneExpression) GetSpan() Span {
	if ce == nil {
		return Span{}
	}
	return ce.Span
}

// ClosureUse is one variable captured by use (...).
type ClosureUse struct {
	Span  Span
	Name  string
	ByRef bool
}

// ClosureExpression: function (params) use ($a, &$b): T { body }
type ClosureExpression struct {
	Span       Span
	Params     []*Parameter
	Uses       []*ClosureUse
	ReturnType string
	Body       *BlockStatement
	Static     bool
}

func (ce *ClosureExpression) expressionNode() {}
func (ce *ClosureExpression) GetSpan() Span {
	if ce == nil {
		return Span{}
	}
	return ce.Span
}

// ArrowFunction: fn (params): T => body. It captures the enclosing scope by value.
type ArrowFunction struct {
	Span       Span
	Params     []*Parameter
	ReturnType string
	Body       Expression
	Static     bool
}

func (af *ArrowFunction) expressionNode() {}
func (af *ArrowFunction) GetSpan() Span {
	if af == nil {
		return Span{}
	}
	return af.Span
}

// BinaryExpression: Left Operator Right
type BinaryExpression struct {
	Span     Span
	Operator string
	Left     Expression
	Right    Expression
}

func (be *BinaryExpression) expressionNode() {}
func (be *BinaryExpression) GetSpan() Span {
	if be == nil {
		return Span{}
	}
	return be.Span
}

// UnaryExpression: !x, -x, ++x, x++ (Postfix).
type UnaryExpression struct {
	Span     Span
	Operator string
	Operand  Expression
	Postfix  bool
}

func (ue *UnaryExpression) expressionNode() {}
func (ue *UnaryExpression) GetSpan() Span {
	if ue == nil {
		return Span{}
	}
	return ue.Span
}

// CastExpression: (int) $x
type CastExpression struct {
	Span  Span
	Type  string
	Value Expression
}

func (ce *CastExpression) expressionNode() {}
func (ce *CastExpression) GetSpan() Span {
	if ce == nil {
		return Span{}
	}
	return ce.Span
}

// InstanceofExpression: $x instanceof Foo
type InstanceofExpression struct {
	Span  Span
	Value Expression
	Class string
}

func (ie *InstanceofExpression) expressionNode() {}
func (ie *InstanceofExpression) GetSpan() Span {
	if ie == nil {
		return Span{}
	}
	return ie.Span
}

// IssetExpression: isset($a, $b->c)
type IssetExpression struct {
	Span   Span
	Values []Expression
}

func (ie *IssetExpression) expressionNode() {}
func (ie *IssetExpression) GetSpan() Span {
	if ie == nil {
		return Span{}
	}
	return ie.Span
}

// TernaryExpression: Condition ? Then : Else. Then is nil for the short form ?:.
type TernaryExpression struct {
	Span      Span
	Condition Expression
	Then      Expression
	Else      Expression
}

func (te *TernaryExpression) expressionNode() {}
func (te *TernaryExpression) GetSpan() Span {
	if te == nil {
		return Span{}
	}
	return te.Span
}

// ClassConstantFetch: Foo::BAR, Suit::Hearts, Foo::class
type ClassConstantFetch struct {
	Span     Span
	Class    string
	Constant string
}

func (cf *ClassConstantFetch) expressionNode() {}
func (cf *ClassConstantFetch) GetSpan() Span {
	if cf == nil {
		return Span{}
	}
	return cf.Span
}

// ArrayDimFetch: $a[Index]. Index is nil for the append form $a[].
type ArrayDimFetch struct {
	Span  Span
	Array Expression
	Index Expression
}

func (ad *ArrayDimFetch) expressionNode() {}
func (ad *ArrayDimFetch) GetSpan() Span {
	if ad == nil {
		return Span{}
	}
	return ad.Span
}
