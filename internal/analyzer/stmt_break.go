package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
)

func (w *walker) breakStatement(st *ast.BreakStatement, ctx *flow.BlockContext) {
	depth := len(ctx.BreakTypes)
	if !ctx.Break(st.Level, w.meta) {
		w.report(issue.New(issue.InvalidBreak, "break %d used inside %d enclosing loop or switch levels", level(st.Level), depth).
			At(st.Span, "no such level"))
	}
}

func (w *walker) continueStatement(st *ast.ContinueStatement, ctx *flow.BlockContext) {
	depth := len(ctx.BreakTypes)
	if !ctx.Continue(st.Level, w.meta) {
		w.report(issue.New(issue.InvalidContinue, "continue %d used inside %d enclosing loop or switch levels", level(st.Level), depth).
			At(st.Span, "no such level"))
	}
}

func level(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
