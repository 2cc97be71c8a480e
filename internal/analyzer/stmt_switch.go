package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
)

// switchStatement analyzes the cases in order. A case starts from the
// state before the switch merged with the fallthrough of the previous
// case. After the switch control comes from a break, from the end of the
// last case, or directly from the subject when no case matched.
func (w *walker) switchStatement(st *ast.SwitchStatement, ctx *flow.BlockContext) {
	w.expr(st.Subject, ctx)
	pre := ctx.Clone()
	cs := &flow.CaseScope{}

	var fall *flow.BlockContext
	for _, c := range st.Cases {
		start := ctx.SwitchCase(cs)
		if fall != nil && !fall.HasReturned {
			flow.MergeBranches(start, []*flow.BlockContext{start.Clone(), fall}, w.meta)
		}
		if c.Match != nil {
			w.expr(c.Match, start)
		}
		w.statements(c.Body, start)
		fall = start
	}

	var branches []*flow.BlockContext
	if cs.BreakVars != nil {
		b := ctx.Clone()
		b.Locals = cs.BreakVars
		branches = append(branches, b)
	}
	if fall != nil {
		branches = append(branches, fall)
	}
	if !st.HasDefault() {
		branches = append(branches, pre)
	}
	flow.MergeBranches(ctx, branches, w.meta)
}
