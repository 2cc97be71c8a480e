package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
)

// statements walks a statement list. Once the context has returned the
// rest of the list is unreachable; it is reported once and skipped.
func (w *walker) statements(stmts []ast.Statement, ctx *flow.BlockContext) {
	for _, s := range stmts {
		if ctx.HasReturned {
			if w.settings.ReportUnreachableCode {
				w.report(issue.New(issue.UnreachableCode, "unreachable code").
					At(s.GetSpan(), "this statement is never executed"))
			}
			return
		}
		w.statement(s, ctx)
	}
}

func (w *walker) block(b *ast.BlockStatement, ctx *flow.BlockContext) {
	if b == nil {
		return
	}
	w.statements(b.Statements, ctx)
}

func (w *walker) statement(s ast.Statement, ctx *flow.BlockContext) {
	switch st := s.(type) {
	case *ast.ExpressionStatement:
		w.expr(st.Expr, ctx)
		if w.settings.FindUnusedExpressions && isPure(st.Expr) {
			w.report(issue.New(issue.UnusedStatement, "expression statement has no effect").
				At(st.Span, "result is discarded"))
		}
	case *ast.EchoStatement:
		for _, v := range st.Values {
			w.expr(v, ctx)
		}
	case *ast.ReturnStatement:
		w.returnStatement(st, ctx)
	case *ast.ThrowStatement:
		if st.Value != nil {
			w.expr(st.Value, ctx)
		}
		ctx.Return(w.meta)
	case *ast.BlockStatement:
		w.block(st, ctx)
	case *ast.IfStatement:
		w.ifStatement(st, ctx)
	case *ast.WhileStatement:
		w.whileStatement(st, ctx)
	case *ast.DoWhileStatement:
		w.doWhileStatement(st, ctx)
	case *ast.ForStatement:
		w.forStatement(st, ctx)
	case *ast.ForeachStatement:
		w.foreachStatement(st, ctx)
	case *ast.SwitchStatement:
		w.switchStatement(st, ctx)
	case *ast.TryStatement:
		w.tryStatement(st, ctx)
	case *ast.BreakStatement:
		w.breakStatement(st, ctx)
	case *ast.ContinueStatement:
		w.continueStatement(st, ctx)
	case *ast.UnsetStatement:
		for _, v := range st.Values {
			if id := ExprID(v); id != "" {
				ctx.Remove(id)
			}
		}
	case *ast.FunctionDeclaration:
		w.functionDeclaration(st)
	case *ast.ClassDeclaration:
		w.classDeclaration(st)
	default:
		w.fail(s.GetSpan(), "unexpected statement %T", s)
	}
}

// isPure reports whether evaluating e has no effect besides its value.
func isPure(e ast.Expression) bool {
	switch n := e.(type) {
	case *ast.Variable, *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral,
		*ast.BooleanLiteral, *ast.NullLiteral, *ast.ClassConstantFetch,
		*ast.ClosureExpression, *ast.ArrowFunction, *ast.IssetExpression:
		return true
	case *ast.PropertyFetch:
		return isPure(n.Object)
	case *ast.ArrayDimFetch:
		return isPure(n.Array) && (n.Index == nil || isPure(n.Index))
	case *ast.InstanceofExpression:
		return isPure(n.Value)
	case *ast.CastExpression:
		return isPure(n.Value)
	case *ast.BinaryExpression:
		return isPure(n.Left) && isPure(n.Right)
	case *ast.UnaryExpression:
		return n.Operator != "++" && n.Operator != "--" && isPure(n.Operand)
	case *ast.TernaryExpression:
		return isPure(n.Condition) && (n.Then == nil || isPure(n.Then)) && isPure(n.Else)
	case *ast.ArrayLiteral:
		for _, it := range n.Items {
			if (it.Key != nil && !isPure(it.Key)) || !isPure(it.Value) {
				return false
			}
		}
		return true
	}
	return false
}
