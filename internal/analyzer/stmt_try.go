package analyzer

import (
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/flow"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

const throwableClass = "Throwable"

func (w *walker) tryStatement(st *ast.TryStatement, ctx *flow.BlockContext) {
	pre := copyLocals(ctx.Locals)
	outerFinally := ctx.FinallyScope
	var fs *flow.FinallyScope
	if st.Finally != nil {
		fs = flow.NewFinallyScope()
	}

	tryCtx := ctx.Clone()
	if fs != nil {
		tryCtx.FinallyScope = fs
	}
	w.block(st.Body, tryCtx)

	branches := []*flow.BlockContext{tryCtx}
	for _, c := range st.Catches {
		cc := ctx.Clone()
		if fs != nil {
			cc.FinallyScope = fs
		}
		// Any statement of the try body may have thrown.
		for id, t := range tryCtx.Locals {
			prev, ok := pre[id]
			switch {
			case !ok:
				cc.Locals[id] = fromTry(t)
			case !prev.Equals(t):
				cc.Locals[id] = ts.CombineUnionTypes(prev, t, w.meta, true)
			}
		}
		if c.Var != "" {
			cc.Set("$"+c.Var, w.catchType(c))
		}
		w.block(c.Body, cc)
		branches = append(branches, cc)
	}
	flow.MergeBranches(ctx, branches, w.meta)

	if st.Finally == nil {
		return
	}
	// Only the normal exit reaches the code after the statement, so the
	// post state comes from a quiet pass over that state alone.
	var after *flow.BlockContext
	if !ctx.HasReturned {
		after = finallyContext(ctx, outerFinally)
		w.quietly(func() { w.block(st.Finally, after) })
	}

	// The reported pass also sees the state of every early exit.
	fin := finallyContext(ctx, outerFinally)
	if ctx.HasReturned {
		fin.Locals = make(map[string]*ts.Union)
	}
	for id, t := range fs.Vars {
		fin.Locals[id] = ts.AddOptionalUnionType(t, fin.Locals[id], w.meta)
	}
	w.block(st.Finally, fin)
	if fin.HasReturned {
		ctx.HasReturned = true
		return
	}
	if after != nil {
		ctx.Locals = after.Locals
	}
}

func finallyContext(ctx *flow.BlockContext, outer *flow.FinallyScope) *flow.BlockContext {
	fin := ctx.Clone()
	fin.FinallyScope = outer
	fin.HasReturned = false
	return fin
}

func fromTry(t *ts.Union) *ts.Union {
	c := t.Clone()
	c.PossiblyUndefined = true
	c.PossiblyUndefinedFromTry = true
	return c
}

// catchType is the union of the caught classes. Unknown classes are
// reported and left out.
func (w *walker) catchType(c *ast.CatchClause) *ts.Union {
	var types []ts.Atomic
	for _, name := range c.Types {
		if resolved, _, ok := w.className(name, c.Span); ok {
			types = append(types, ts.TNamedObject{Name: resolved})
		}
	}
	if len(types) == 0 {
		return ts.Named(throwableClass)
	}
	return ts.NewUnion(types...)
}
