package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// loopShape describes one loop construct to the generic loop driver.
type loopShape struct {
	span ast.Span
	body *ast.BlockStatement
	// head runs at the top of every iteration and returns the context
	// the body starts from.
	head func(*flow.BlockContext) *flow.BlockContext
	// tail runs when the body falls through.
	tail func(*flow.BlockContext)
	// exitCond is the condition that is false when the loop ends normally.
	exitCond ast.Expression
	infinite bool
	// runsOnce is set for do-while: the body runs before the condition.
	runsOnce       bool
	checkIteration bool
}

func (w *walker) whileStatement(st *ast.WhileStatement, ctx *flow.BlockContext) {
	w.loop(ctx, loopShape{
		span: st.Span,
		body: st.Body,
		head: func(b *flow.BlockContext) *flow.BlockContext {
			then, _ := w.condition(st.Condition, b)
			return then
		},
		exitCond:       st.Condition,
		infinite:       isLiteralTrue(st.Condition),
		checkIteration: true,
	})
}

func (w *walker) doWhileStatement(st *ast.DoWhileStatement, ctx *flow.BlockContext) {
	w.loop(ctx, loopShape{
		span: st.Span,
		body: st.Body,
		tail: func(b *flow.BlockContext) {
			w.expr(st.Condition, b)
		},
		exitCond:       st.Condition,
		infinite:       isLiteralTrue(st.Condition),
		runsOnce:       true,
		checkIteration: true,
	})
}

func (w *walker) forStatement(st *ast.ForStatement, ctx *flow.BlockContext) {
	for _, e := range st.Init {
		w.expr(e, ctx)
	}
	var last ast.Expression
	if n := len(st.Conditions); n > 0 {
		last = st.Conditions[n-1]
	}
	w.loop(ctx, loopShape{
		span: st.Span,
		body: st.Body,
		head: func(b *flow.BlockContext) *flow.BlockContext {
			for _, c := range st.Conditions[:max(len(st.Conditions)-1, 0)] {
				w.expr(c, b)
			}
			if last == nil {
				return b
			}
			then, _ := w.condition(last, b)
			return then
		},
		tail: func(b *flow.BlockContext) {
			for _, e := range st.Update {
				w.expr(e, b)
			}
		},
		exitCond:       last,
		infinite:       last == nil || isLiteralTrue(last),
		checkIteration: true,
	})
}

func (w *walker) foreachStatement(st *ast.ForeachStatement, ctx *flow.BlockContext) {
	subject := w.expr(st.Subject, ctx)
	key, value, ok := w.iterableTypes(subject)
	if !ok {
		w.report(issue.New(issue.InvalidForeach, "cannot iterate over %s", subject.ID()).
			At(st.Subject.GetSpan(), "not iterable"))
		key, value = ts.Mixed(), ts.Mixed()
	}
	w.loop(ctx, loopShape{
		span: st.Span,
		body: st.Body,
		head: func(b *flow.BlockContext) *flow.BlockContext {
			if st.Key != nil {
				w.assignTo(st.Key, key, b)
			}
			w.assignTo(st.Value, value, b)
			return b
		},
	})
}

func isLiteralTrue(e ast.Expression) bool {
	b, ok := e.(*ast.BooleanLiteral)
	return ok && b.Value
}

// loop analyzes a loop body until the types of the outer variables it
// changes settle, issues discarded, then once more with issues kept.
func (w *walker) loop(ctx *flow.BlockContext, l loopShape) {
	if l.checkIteration && w.settings.CheckLoopIteration && l.body != nil && len(l.body.Statements) > 0 {
		if a := flow.LoopBodyActions(l.body.Statements); !a.Has(flow.None) && !a.Has(flow.Continue) {
			w.report(issue.New(issue.LoopDoesNotIterate, "loop body never reaches a second iteration").
				At(l.span, "loop exits on its first pass"))
		}
	}

	h := ctx.EnterLoop()
	defer ctx.ExitLoop()
	ls := ctx.Loops.Get(h)

	entry := copyLocals(ctx.Locals)
	pass := 0
	for ; pass < config.MaxLoopPasses-1; pass++ {
		var end *flow.BlockContext
		w.quietly(func() { end = w.loopPass(ctx, h, entry, l, pass) })
		next := w.widen(entry, end, ls)
		if sameLocals(next, entry) {
			break
		}
		entry = next
	}
	end := w.loopPass(ctx, h, entry, l, pass+1)
	w.exitLoop(ctx, l, ls, entry, end)
}

func (w *walker) loopPass(ctx *flow.BlockContext, h int, entry map[string]*ts.Union, l loopShape, pass int) *flow.BlockContext {
	ls := ctx.Loops.Get(h)
	ls.StartPass()
	ls.IterationCount = pass

	base := ctx.Clone()
	base.Locals = copyLocals(entry)
	b := base.LoopBody(h)
	if l.head != nil {
		b = l.head(b)
	}
	w.block(l.body, b)
	if !b.HasReturned && l.tail != nil {
		l.tail(b)
	}
	return b
}

// widen returns the entry state of the next pass: every outer variable
// combined with its type at the end of the body and at continue points.
func (w *walker) widen(entry map[string]*ts.Union, end *flow.BlockContext, ls *flow.LoopScope) map[string]*ts.Union {
	next := make(map[string]*ts.Union, len(entry))
	for id, t := range entry {
		u := t
		if !end.HasReturned {
			if et, ok := end.Locals[id]; ok {
				u = ts.CombineUnionTypes(u, et, w.meta, true)
			}
		}
		if pt, ok := ls.PossiblyRedefinedLoopVars[id]; ok {
			u = ts.CombineUnionTypes(u, pt, w.meta, true)
		}
		next[id] = u
	}
	return next
}

// exitLoop computes the state after the loop: the normal exit through
// the condition plus every break point.
func (w *walker) exitLoop(ctx *flow.BlockContext, l loopShape, ls *flow.LoopScope, entry map[string]*ts.Union, end *flow.BlockContext) {
	breaks := ls.FinalActions.Has(flow.Break)
	live := !end.HasReturned || ls.FinalActions.Has(flow.Continue)
	if l.infinite && !breaks {
		ctx.HasReturned = true
		return
	}
	if l.runsOnce && !live && !breaks {
		ctx.HasReturned = true
		return
	}

	exit := make(map[string]*ts.Union)
	if !l.infinite {
		if l.runsOnce {
			if !end.HasReturned {
				for id, t := range end.Locals {
					exit[id] = t
				}
			}
		} else {
			for id, t := range entry {
				exit[id] = t
				if !end.HasReturned {
					if et, ok := end.Locals[id]; ok {
						exit[id] = ts.CombineUnionTypes(t, et, w.meta, true)
					}
				}
			}
			// First defined in a body that may not run.
			if !end.HasReturned {
				for id, t := range end.Locals {
					if _, ok := exit[id]; !ok {
						exit[id] = t.AsPossiblyUndefined()
					}
				}
			}
		}
		for id, t := range ls.PossiblyRedefinedLoopVars {
			if _, ok := entry[id]; ok {
				exit[id] = ts.CombineUnionTypes(exit[id], t, w.meta, true)
			}
		}
		if l.exitCond != nil {
			tmp := ctx.Clone()
			tmp.Locals = exit
			w.narrow(l.exitCond, tmp, false)
			exit = tmp.Locals
		}
	}

	if breaks {
		for id, t := range ls.PossiblyRedefinedLoopParentVars {
			exit[id] = ts.CombineUnionTypes(exit[id], t, w.meta, true)
		}
		for id, t := range ls.PossiblyDefinedLoopParentVars {
			switch prev, ok := exit[id]; {
			case ok:
				exit[id] = ts.CombineUnionTypes(prev, t, w.meta, true)
			case l.infinite, l.runsOnce && !live:
				// Break points are the only exits.
				exit[id] = t
			default:
				exit[id] = t.AsPossiblyUndefined()
			}
		}
	}

	for id, t := range exit {
		if prev, ok := ctx.Locals[id]; ctx.InsideLoop && (!ok || !prev.Equals(t)) {
			ctx.AssignedInLoop[id] = true
		}
	}
	ctx.Locals = exit
}

func copyLocals(m map[string]*ts.Union) map[string]*ts.Union {
	out := make(map[string]*ts.Union, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sameLocals(a, b map[string]*ts.Union) bool {
	if len(a) != len(b) {
		return false
	}
	for id, t := range a {
		u, ok := b[id]
		if !ok || !t.Equals(u) {
			return false
		}
	}
	return true
}
