package typesystem

import (
	"strings"
)

// Atomic is one indivisible member of a union (e.g. int, Foo<string>, null).
//
// Atomics are immutable value structs. Nested unions are shared by pointer
// and must not be mutated after construction.
type Atomic interface {
	// ID returns the stable identity string of the atomic.
	// Two atomics with the same ID are the same type.
	ID() string
	atomic()
}

// TNever is the bottom type: no value has it.
type TNever struct{}

func (TNever) ID() string { return "never" }
func (TNever) atomic()    {}

// TVoid is the result of a function that returns nothing.
type TVoid struct{}

func (TVoid) ID() string { return "void" }
func (TVoid) atomic()    {}

// TNull is the null value.
type TNull struct{}

func (TNull) ID() string { return "null" }
func (TNull) atomic()    {}

// Truthiness records what is known about the truthiness of a mixed value.
type Truthiness uint8

const (
	TruthinessUnknown Truthiness = iota
	TruthinessTruthy
	TruthinessFalsy
)

// TMixed is the top type.
type TMixed struct {
	NonNull    bool
	Truthiness Truthiness
	// IssetFromLoop marks a mixed produced for a variable that was only
	// proven set inside a previous loop iteration.
	IssetFromLoop bool
}

func (t TMixed) ID() string {
	switch t.Truthiness {
	case TruthinessTruthy:
		return "truthy-mixed"
	case TruthinessFalsy:
		return "falsy-mixed"
	}
	if t.NonNull {
		return "nonnull"
	}
	return "mixed"
}
func (TMixed) atomic() {}

// TObject is any object.
type TObject struct{}

func (TObject) ID() string { return "object" }
func (TObject) atomic()    {}

// TNamedObject is an instance of a class-like, optionally generic.
type TNamedObject struct {
	Name       string
	TypeParams []*Union
	// IsThis marks the late static binding type (`static` / `$this`).
	IsThis        bool
	Intersections []Atomic
}

func (t TNamedObject) ID() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	if len(t.TypeParams) > 0 {
		sb.WriteString("<")
		writeUnionList(&sb, t.TypeParams)
		sb.WriteString(">")
	}
	if t.IsThis {
		sb.WriteString("&static")
	}
	for _, it := range t.Intersections {
		sb.WriteString("&")
		sb.WriteString(it.ID())
	}
	return sb.String()
}
func (TNamedObject) atomic() {}

// WithoutThis returns a copy with the late static binding marker cleared.
func (t TNamedObject) WithoutThis() TNamedObject {
	t.IsThis = false
	return t
}

// TEnum is an enum instance, or a single case of it when Case is set.
type TEnum struct {
	Name string
	Case string
}

func (t TEnum) ID() string {
	if t.Case == "" {
		return "enum(" + t.Name + ")"
	}
	return "enum(" + t.Name + "::" + t.Case + ")"
}
func (TEnum) atomic() {}

// TGenericParam is a reference to a template declared by DefiningEntity.
//
// DefiningEntity is a class name for class templates, and the value of
// FunctionEntity / MethodEntity for function-level templates.
type TGenericParam struct {
	Name           string
	DefiningEntity string
	As             *Union
	Intersections  []Atomic
}

func (t TGenericParam) ID() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	sb.WriteString(":")
	sb.WriteString(t.DefiningEntity)
	if t.As != nil && !t.As.IsMixed() {
		sb.WriteString(" as ")
		sb.WriteString(t.As.ID())
	}
	for _, it := range t.Intersections {
		sb.WriteString("&")
		sb.WriteString(it.ID())
	}
	return sb.String()
}
func (TGenericParam) atomic() {}

// Key identifies the template independent of its constraint.
func (t TGenericParam) Key() string {
	return t.Name + ":" + t.DefiningEntity
}

// FunctionEntity returns the defining entity used for templates of a function.
func FunctionEntity(name string) string {
	return "fn-" + strings.ToLower(name)
}

// MethodEntity returns the defining entity used for templates of a method.
func MethodEntity(class, method string) string {
	return class + "::" + strings.ToLower(method)
}

// CallableParam is one parameter of a callable signature.
type CallableParam struct {
	Type     *Union
	Optional bool
	Variadic bool
	ByRef    bool
}

// CallableSignature is the shape of a callable or closure.
type CallableSignature struct {
	Params    []CallableParam
	Return    *Union
	IsClosure bool
}

// CallableAlias points at a named function or method instead of spelling
// out its signature.
type CallableAlias struct {
	Function string
	Class    string
	Method   string
}

func (a CallableAlias) String() string {
	if a.Class != "" {
		return a.Class + "::" + a.Method
	}
	return a.Function
}

// TCallable is a callable value.
type TCallable struct {
	Signature *CallableSignature
	Alias     *CallableAlias
}

func (t TCallable) ID() string {
	if t.Alias != nil {
		return "callable-alias(" + t.Alias.String() + ")"
	}
	name := "callable"
	if t.Signature == nil {
		return name
	}
	if t.Signature.IsClosure {
		name = "Closure"
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString("(")
	for i, p := range t.Signature.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Variadic {
			sb.WriteString("...")
		}
		if p.Type != nil {
			sb.WriteString(p.Type.ID())
		} else {
			sb.WriteString("mixed")
		}
		if p.ByRef {
			sb.WriteString("&")
		}
		if p.Optional {
			sb.WriteString("=")
		}
	}
	sb.WriteString(")")
	if t.Signature.Return != nil {
		sb.WriteString(": ")
		sb.WriteString(t.Signature.Return.ID())
	}
	return sb.String()
}
func (TCallable) atomic() {}

// IsClosure reports whether the callable is known to be a Closure object.
func (t TCallable) IsClosure() bool {
	return t.Signature != nil && t.Signature.IsClosure
}

// TReference is a symbol (or Symbol::Member) that still has to be resolved
// against the codebase.
type TReference struct {
	Symbol     string
	Member     string
	TypeParams []*Union
}

func (t TReference) ID() string {
	var sb strings.Builder
	sb.WriteString("ref(")
	sb.WriteString(t.Symbol)
	if t.Member != "" {
		sb.WriteString("::")
		sb.WriteString(t.Member)
	}
	if len(t.TypeParams) > 0 {
		sb.WriteString("<")
		writeUnionList(&sb, t.TypeParams)
		sb.WriteString(">")
	}
	sb.WriteString(")")
	return sb.String()
}
func (TReference) atomic() {}

// TConditional is a conditional return type:
// (Subject is Target ? Then : Otherwise), or "is not" when Negated.
type TConditional struct {
	Subject   *Union
	Target    *Union
	Then      *Union
	Otherwise *Union
	Negated   bool
}

func (t TConditional) ID() string {
	op := " is "
	if t.Negated {
		op = " is not "
	}
	return "(" + t.Subject.ID() + op + t.Target.ID() + " ? " + t.Then.ID() + " : " + t.Otherwise.ID() + ")"
}
func (TConditional) atomic() {}

// TVariable is a placeholder naming a call argument ($name). It is
// resolved by the invocation resolver.
type TVariable struct {
	Name string
}

func (t TVariable) ID() string { return t.Name }
func (TVariable) atomic()      {}

func writeUnionList(sb *strings.Builder, unions []*Union) {
	for i, u := range unions {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(u.ID())
	}
}
