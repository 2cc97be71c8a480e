package analyzer

import (
	"strconv"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

func (w *walker) binary(n *ast.BinaryExpression, ctx *flow.BlockContext) *ts.Union {
	switch n.Operator {
	case "&&", "and", "||", "or":
		return w.logical(n, ctx)
	case "??":
		left := w.quietExpr(n.Left, ctx)
		right := w.expr(n.Right, ctx)
		if rest := left.WithoutNull(); !rest.IsNever() && !left.IsNull() {
			return ts.CombineUnionTypes(rest.AsDefined(), right, w.meta, true)
		}
		return right
	}

	left := w.expr(n.Left, ctx)
	right := w.expr(n.Right, ctx)
	return w.binaryResult(n.Operator, left, right, n.Span)
}

// logical analyzes the right operand only in the context where it runs.
func (w *walker) logical(n *ast.BinaryExpression, ctx *flow.BlockContext) *ts.Union {
	w.expr(n.Left, ctx)
	rightCtx := ctx.Clone()
	isAnd := n.Operator == "&&" || n.Operator == "and"
	w.narrow(n.Left, rightCtx, isAnd)
	w.expr(n.Right, rightCtx)
	flow.MergeBranches(ctx, []*flow.BlockContext{ctx.Clone(), rightCtx}, w.meta)
	return ts.Bool()
}

// binaryResult computes the type of a non-short-circuit operator. It is
// shared with compound assignment.
func (w *walker) binaryResult(op string, left, right *ts.Union, span ast.Span) *ts.Union {
	switch op {
	case ".":
		w.checkOperand(op, left, span, false)
		w.checkOperand(op, right, span, false)
		if l, ok := literalString(left); ok {
			if r, ok := literalString(right); ok {
				return ts.LiteralString(l + r)
			}
		}
		return ts.String()
	case "+", "-", "*", "/", "%", "**":
		return w.arithmetic(op, left, right, span)
	case "&", "|", "^", "<<", ">>":
		w.checkOperand(op, left, span, true)
		w.checkOperand(op, right, span, true)
		return ts.Int()
	case "<=>":
		return ts.NewUnion(ts.NewIntRange(ts.IntPtr(-1), ts.IntPtr(1)))
	case "===":
		if !ts.CanBeIdentical(left, right, w.meta) {
			return ts.False()
		}
		return ts.Bool()
	case "!==":
		if !ts.CanBeIdentical(left, right, w.meta) {
			return ts.True()
		}
		return ts.Bool()
	case "<":
		return ordered(ts.IsAlwaysLessThan(left, right), ts.IsAlwaysGreaterThanOrEqual(left, right))
	case "<=":
		return ordered(ts.IsAlwaysLessThanOrEqual(left, right), ts.IsAlwaysGreaterThan(left, right))
	case ">":
		return ordered(ts.IsAlwaysGreaterThan(left, right), ts.IsAlwaysLessThanOrEqual(left, right))
	case ">=":
		return ordered(ts.IsAlwaysGreaterThanOrEqual(left, right), ts.IsAlwaysLessThan(left, right))
	case "==", "!=", "<>":
		return ts.Bool()
	}
	return ts.Mixed()
}

func ordered(always, never bool) *ts.Union {
	switch {
	case always:
		return ts.True()
	case never:
		return ts.False()
	}
	return ts.Bool()
}

func (w *walker) arithmetic(op string, left, right *ts.Union, span ast.Span) *ts.Union {
	if left.HasMixed() || right.HasMixed() {
		return ts.Mixed()
	}
	if op == "+" && left.IsArray() && right.IsArray() {
		return ts.CombineUnionTypes(left, right, w.meta, true)
	}
	okLeft := w.checkOperand(op, left, span, true)
	okRight := w.checkOperand(op, right, span, true)
	if !okLeft || !okRight {
		return ts.Mixed()
	}

	if l, ok := left.SingleLiteralIntValue(); ok {
		if r, ok := right.SingleLiteralIntValue(); ok {
			if v, ok := foldInt(op, l, r); ok {
				return ts.LiteralInt(v)
			}
		}
	}
	switch {
	case op == "%":
		return ts.Int()
	case left.IsInt() && right.IsInt():
		if op == "/" || op == "**" {
			return ts.NewUnion(ts.TInt{}, ts.TFloat{})
		}
		return ts.Int()
	case left.IsFloat() || right.IsFloat():
		return ts.Float()
	}
	return ts.NewUnion(ts.TInt{}, ts.TFloat{})
}

func foldInt(op string, l, r int64) (int64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "%":
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case "/":
		if r == 0 || l%r != 0 {
			return 0, false
		}
		return l / r, true
	}
	return 0, false
}

// checkOperand reports operands an operator cannot work with: arrays and
// objects for arithmetic, arrays for concatenation.
func (w *walker) checkOperand(op string, t *ts.Union, span ast.Span, numeric bool) bool {
	for _, a := range t.Types {
		bad := ts.IsArrayAtomic(a)
		if numeric && ts.IsObjectAtomic(a) {
			bad = true
		}
		if bad {
			w.report(issue.New(issue.InvalidOperand, "cannot use %s as an operand of %s", t.ID(), op).
				At(span, "invalid operand"))
			return false
		}
	}
	return true
}

func literalString(u *ts.Union) (string, bool) {
	if s, ok := u.SingleLiteralStringValue(); ok {
		return s, true
	}
	if i, ok := u.SingleLiteralIntValue(); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

func (w *walker) unary(n *ast.UnaryExpression, ctx *flow.BlockContext) *ts.Union {
	switch n.Operator {
	case "++", "--":
		return w.increment(n, ctx)
	}
	t := w.expr(n.Operand, ctx)
	switch n.Operator {
	case "!":
		switch {
		case t.HasMixed():
			return ts.Bool()
		case t.IsAlwaysTruthy():
			return ts.False()
		case t.IsAlwaysFalsy():
			return ts.True()
		}
		return ts.Bool()
	case "-":
		if v, ok := t.SingleLiteralIntValue(); ok {
			return ts.LiteralInt(-v)
		}
		if v, ok := t.SingleLiteralFloatValue(); ok {
			return ts.LiteralFloat(-v)
		}
		fallthrough
	case "+":
		switch {
		case t.HasMixed():
			return ts.Mixed()
		case t.IsInt():
			return ts.Int()
		case t.IsFloat():
			return ts.Float()
		}
		if w.checkOperand(n.Operator, t, n.Span, true) {
			return ts.NewUnion(ts.TInt{}, ts.TFloat{})
		}
		return ts.Mixed()
	case "~":
		return ts.Int()
	}
	return t
}

func (w *walker) increment(n *ast.UnaryExpression, ctx *flow.BlockContext) *ts.Union {
	old := w.expr(n.Operand, ctx)
	var updated *ts.Union
	delta := int64(1)
	if n.Operator == "--" {
		delta = -1
	}
	switch {
	case old.IsNull() && delta > 0:
		updated = ts.LiteralInt(1)
	case old.HasMixed():
		updated = ts.Mixed()
	default:
		if v, ok := old.SingleLiteralIntValue(); ok {
			updated = ts.LiteralInt(v + delta)
		} else if old.IsInt() {
			updated = ts.Int()
		} else if old.IsFloat() {
			updated = ts.Float()
		} else if w.checkOperand(n.Operator, old, n.Span, true) {
			updated = ts.NewUnion(ts.TInt{}, ts.TFloat{})
		} else {
			updated = ts.Mixed()
		}
	}
	w.assignTo(n.Operand, updated, ctx)
	if n.Postfix {
		return old
	}
	return updated
}
