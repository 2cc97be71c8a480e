package analyzer

import (
	"strconv"

	"github.com/funvibe/flowcheck/internal/ast"
)

// ExprID returns the block context key of an expression whose type can be
// remembered between statements: "$x", "$x->p", "Foo::$p", "$x[0]",
// "$x['k']". Other expressions have no id and yield "".
func ExprID(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.Variable:
		return "$" + n.Name
	case *ast.PropertyFetch:
		if base := ExprID(n.Object); base != "" {
			return base + "->" + n.Property
		}
	case *ast.StaticPropertyFetch:
		return n.Class + "::$" + n.Property
	case *ast.ArrayDimFetch:
		if n.Index == nil {
			return ""
		}
		base := ExprID(n.Array)
		if base == "" {
			return ""
		}
		switch idx := n.Index.(type) {
		case *ast.IntegerLiteral:
			return base + "[" + strconv.FormatInt(idx.Value, 10) + "]"
		case *ast.StringLiteral:
			return base + "['" + idx.Value + "']"
		}
	}
	return ""
}

// rootVariable returns the variable an id-bearing expression starts from.
func rootVariable(e ast.Expression) *ast.Variable {
	for {
		switch n := e.(type) {
		case *ast.Variable:
			return n
		case *ast.PropertyFetch:
			e = n.Object
		case *ast.ArrayDimFetch:
			e = n.Array
		default:
			return nil
		}
	}
}
