package ast

import "fmt"

// Span locates a node in its source unit.
// Start and End are byte offsets; Line and Column are 1-based.
type Span struct {
	File   string
	Line   int
	Column int
	Start  int
	End    int
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Before orders spans by file, line and column.
func (s Span) Before(o Span) bool {
	if s.File != o.File {
		return s.File < o.File
	}
	if s.Line != o.Line {
		return s.Line < o.Line
	}
	return s.Column < o.Column
}

// SpanProvider is implemented by every node. It is what issue reporting
// uses to locate a node.
type SpanProvider interface {
	GetSpan() Span
}

// Node is the base interface for all syntax tree nodes.
type Node interface {
	SpanProvider
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of one unit.
type Program struct {
	File       string // Source file path
	Statements []Statement
}

func (p *Program) GetSpan() Span {
	if p == nil {
		return Span{}
	}
	return Span{File: p.File, Line: 1, Column: 1}
}

// Visibility of a class member.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// ParseVisibility maps a modifier keyword to a Visibility.
func ParseVisibility(s string) (Visibility, bool) {
	switch s {
	case "", "public":
		return Public, true
	case "protected":
		return Protected, true
	case "private":
		return Private, true
	}
	return Public, false
}

// ClassKind distinguishes the class-like declarations.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	default:
		return "class"
	}
}
