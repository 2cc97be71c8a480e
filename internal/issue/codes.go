package issue

// Code is the stable identifier of an issue kind.
type Code string

// Control flow
const (
	InvalidBreak              Code = "invalid-break"
	InvalidContinue           Code = "invalid-continue"
	LoopDoesNotIterate        Code = "loop-does-not-iterate"
	UnreachableCode           Code = "unreachable-code"
	UnusedStatement           Code = "unused-statement"
	UndefinedVariable         Code = "undefined-variable"
	PossiblyUndefinedVariable Code = "possibly-undefined-variable"
	InvalidReturnStatement    Code = "invalid-return-statement"
	MissingReturnStatement    Code = "missing-return-statement"
)

// Properties
const (
	PropertyTypeCoercion              Code = "property-type-coercion"
	MixedPropertyTypeCoercion         Code = "mixed-property-type-coercion"
	InvalidPropertyAssignmentValue    Code = "invalid-property-assignment-value"
	PossiblyInvalidPropertyAssignment Code = "possibly-invalid-property-assignment-value"
	NonExistentProperty               Code = "non-existent-property"
	PossiblyNonExistentProperty       Code = "possibly-non-existent-property"
	NullPropertyFetch                 Code = "null-property-fetch"
	PossiblyNullPropertyFetch         Code = "possibly-null-property-fetch"
	MixedPropertyFetch                Code = "mixed-property-fetch"
	InvalidPropertyFetch              Code = "invalid-property-fetch"
	InaccessibleProperty              Code = "inaccessible-property"
	ReadonlyPropertyReassignment      Code = "readonly-property-reassignment"
	InvalidStaticPropertyAccess       Code = "invalid-static-property-access"
)

// Calls
const (
	NonExistentFunction       Code = "non-existent-function"
	NonExistentMethod         Code = "non-existent-method"
	PossiblyNonExistentMethod Code = "possibly-non-existent-method"
	NullMethodCall            Code = "null-method-call"
	PossiblyNullMethodCall    Code = "possibly-null-method-call"
	MixedMethodCall           Code = "mixed-method-call"
	InvalidMethodCall         Code = "invalid-method-call"
	InaccessibleMethod        Code = "inaccessible-method"
	InvalidStaticMethodCall   Code = "invalid-static-method-call"
	InvalidArgument           Code = "invalid-argument"
	PossiblyInvalidArgument   Code = "possibly-invalid-argument"
	ArgumentTypeCoercion      Code = "argument-type-coercion"
	MixedArgument             Code = "mixed-argument"
	NullArgument              Code = "null-argument"
	PossiblyNullArgument      Code = "possibly-null-argument"
	TooFewArguments           Code = "too-few-arguments"
	TooManyArguments          Code = "too-many-arguments"
	NamedArgumentNotAllowed   Code = "named-argument-not-allowed"
	InvalidNamedArgument      Code = "invalid-named-argument"
	InvalidCallable           Code = "invalid-callable"
)

// Classes
const (
	NonExistentClass         Code = "non-existent-class"
	NonExistentClassConstant Code = "non-existent-class-constant"
	AbstractInstantiation    Code = "abstract-instantiation"
	InterfaceInstantiation   Code = "interface-instantiation"
	EnumInstantiation        Code = "enum-instantiation"
	InvalidClone             Code = "invalid-clone"
	InvalidThis              Code = "invalid-this"
	InvalidParentReference   Code = "invalid-parent-reference"
)

// Arrays and operators
const (
	PossiblyUndefinedArrayKey Code = "possibly-undefined-array-key"
	UndefinedArrayKey         Code = "undefined-array-key"
	InvalidArrayAccess        Code = "invalid-array-access"
	MixedArrayAccess          Code = "mixed-array-access"
	InvalidOperand            Code = "invalid-operand"
	RedundantCondition        Code = "redundant-condition"
	ImpossibleCondition       Code = "impossible-condition"
	InvalidForeach            Code = "invalid-foreach"
)

// Declarations
const (
	InvalidTypeDeclaration Code = "invalid-type-declaration"
	DuplicateDefinition    Code = "duplicate-definition"
	UnknownAncestor        Code = "unknown-ancestor"
)

var warnings = map[Code]bool{
	LoopDoesNotIterate:                true,
	UnreachableCode:                   true,
	UnusedStatement:                   true,
	PossiblyUndefinedVariable:         true,
	PropertyTypeCoercion:              true,
	MixedPropertyTypeCoercion:         true,
	PossiblyInvalidPropertyAssignment: true,
	PossiblyNonExistentProperty:       true,
	PossiblyNullPropertyFetch:         true,
	MixedPropertyFetch:                true,
	PossiblyNonExistentMethod:         true,
	PossiblyNullMethodCall:            true,
	MixedMethodCall:                   true,
	PossiblyInvalidArgument:           true,
	ArgumentTypeCoercion:              true,
	MixedArgument:                     true,
	PossiblyNullArgument:              true,
	PossiblyUndefinedArrayKey:         true,
	MixedArrayAccess:                  true,
	RedundantCondition:                true,
	ImpossibleCondition:               true,
}

// Severity returns the default severity of the code.
func (c Code) Severity() Severity {
	if warnings[c] {
		return Warning
	}
	return Error
}
