package flow

import (
	"strings"

	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// BreakTarget is one level a break or continue can refer to.
type BreakTarget struct {
	Kind BreakKind
	// Loop is the loop scope handle of a LoopLevel target.
	Loop int
	// Case is the case scope of a SwitchLevel target.
	Case *CaseScope
}

// BlockContext is the flow state at one point of a function body.
// Union values are immutable, so cloning copies maps, not types.
type BlockContext struct {
	Locals      map[string]*ts.Union
	HasReturned bool
	InsideLoop  bool
	// BreakTypes lists the enclosing loops and switches, innermost last.
	BreakTypes []BreakTarget
	// LoopScope is the handle of the innermost loop scope, or NoLoop.
	LoopScope    int
	Loops        *ScopeStack
	FinallyScope *FinallyScope
	// AssignedInLoop records variables assigned since the innermost loop
	// started.
	AssignedInLoop map[string]bool
}

// NewBlockContext returns the context at the start of a function body.
func NewBlockContext() *BlockContext {
	return &BlockContext{
		Locals:         make(map[string]*ts.Union),
		LoopScope:      NoLoop,
		Loops:          NewScopeStack(),
		AssignedInLoop: make(map[string]bool),
	}
}

// Clone returns an independent copy that shares the loop, case and
// finally scopes.
func (c *BlockContext) Clone() *BlockContext {
	n := *c
	n.Locals = copyVars(c.Locals)
	n.BreakTypes = append([]BreakTarget(nil), c.BreakTypes...)
	n.AssignedInLoop = make(map[string]bool, len(c.AssignedInLoop))
	for k := range c.AssignedInLoop {
		n.AssignedInLoop[k] = true
	}
	return &n
}

// Get returns the type of a variable or expression id.
func (c *BlockContext) Get(id string) (*ts.Union, bool) {
	t, ok := c.Locals[id]
	return t, ok
}

// Set assigns a type and forgets everything known about the id's
// descendants ("$a->b", "$a[0]").
func (c *BlockContext) Set(id string, t *ts.Union) {
	c.RemoveDescendants(id)
	c.Locals[id] = t
	if c.InsideLoop {
		c.AssignedInLoop[id] = true
	}
}

// Remove forgets an id and its descendants.
func (c *BlockContext) Remove(id string) {
	delete(c.Locals, id)
	c.RemoveDescendants(id)
}

// RemoveDescendants forgets the ids derived from id.
func (c *BlockContext) RemoveDescendants(id string) {
	for k := range c.Locals {
		if isDescendant(k, id) {
			delete(c.Locals, k)
		}
	}
}

func isDescendant(k, id string) bool {
	if len(k) <= len(id) || !strings.HasPrefix(k, id) {
		return false
	}
	rest := k[len(id):]
	return strings.HasPrefix(rest, "->") || strings.HasPrefix(rest, "[") || strings.HasPrefix(rest, "::")
}

// CurrentLoop returns the innermost loop scope, or nil.
func (c *BlockContext) CurrentLoop() *LoopScope {
	return c.Loops.Get(c.LoopScope)
}

// EnterLoop opens a loop scope over the current variables and returns
// the handle. Use LoopBody for each pass.
func (c *BlockContext) EnterLoop() int {
	return c.Loops.Push(c.LoopScope, copyVars(c.Locals))
}

// LoopBody returns the context a loop body pass starts from.
func (c *BlockContext) LoopBody(h int) *BlockContext {
	b := c.Clone()
	b.InsideLoop = true
	b.LoopScope = h
	b.BreakTypes = append(b.BreakTypes, BreakTarget{Kind: LoopLevel, Loop: h})
	b.AssignedInLoop = make(map[string]bool)
	return b
}

// ExitLoop closes the innermost loop scope.
func (c *BlockContext) ExitLoop() {
	c.Loops.Pop()
}

// SwitchCase returns the context a switch case body starts from.
func (c *BlockContext) SwitchCase(cs *CaseScope) *BlockContext {
	b := c.Clone()
	b.BreakTypes = append(b.BreakTypes, BreakTarget{Kind: SwitchLevel, Case: cs})
	return b
}

// Break resolves "break N". It reports false when N exceeds the enclosing
// levels; the context is marked as returned either way.
func (c *BlockContext) Break(levels int, cb ts.Codebase) bool {
	return c.jump(levels, false, cb)
}

// Continue resolves "continue N". A continue targeting a switch leaves the
// switch like a break.
func (c *BlockContext) Continue(levels int, cb ts.Codebase) bool {
	return c.jump(levels, true, cb)
}

func (c *BlockContext) jump(levels int, isContinue bool, cb ts.Codebase) bool {
	if levels < 1 {
		levels = 1
	}
	n := len(c.BreakTypes)
	if levels > n {
		c.HasReturned = true
		return false
	}
	target := c.BreakTypes[n-levels]

	// Inner loops that are crossed are left for good.
	for i := n - 1; i > n-levels; i-- {
		if bt := c.BreakTypes[i]; bt.Kind == LoopLevel {
			if l := c.Loops.Get(bt.Loop); l != nil {
				l.FinalActions |= Break
				c.addBreakVars(l, cb)
			}
		}
	}

	switch target.Kind {
	case SwitchLevel:
		if l := c.CurrentLoop(); l != nil && levels < 2 {
			l.FinalActions |= LeaveSwitch
		}
		if target.Case != nil {
			target.Case.add(c.Locals, cb)
		}
	case LoopLevel:
		l := c.Loops.Get(target.Loop)
		if l == nil {
			break
		}
		if isContinue {
			l.FinalActions |= Continue
			c.addContinueVars(l, cb)
		} else {
			l.FinalActions |= Break
			c.addBreakVars(l, cb)
		}
	}

	c.updateFinally(cb)
	c.HasReturned = true
	return true
}

func (c *BlockContext) addBreakVars(l *LoopScope, cb ts.Codebase) {
	for id, t := range c.Locals {
		if _, outer := l.ParentContextVars[id]; outer {
			l.PossiblyRedefinedLoopParentVars[id] = ts.AddOptionalUnionType(t, l.PossiblyRedefinedLoopParentVars[id], cb)
		} else if l.IterationCount == 0 {
			l.PossiblyDefinedLoopParentVars[id] = ts.AddOptionalUnionType(t, l.PossiblyDefinedLoopParentVars[id], cb)
		}
	}
}

func (c *BlockContext) addContinueVars(l *LoopScope, cb ts.Codebase) {
	if l.RedefinedLoopVars == nil {
		l.RedefinedLoopVars = make(map[string]*ts.Union)
		for id, t := range c.Locals {
			if prev, outer := l.ParentContextVars[id]; outer && !prev.Equals(t) {
				l.RedefinedLoopVars[id] = t
			}
		}
	} else {
		for id, t := range l.RedefinedLoopVars {
			lt, ok := c.Locals[id]
			if !ok {
				delete(l.RedefinedLoopVars, id)
				continue
			}
			l.RedefinedLoopVars[id] = ts.CombineUnionTypes(t, lt, cb, true)
		}
	}
	for id, t := range c.Locals {
		if prev, outer := l.ParentContextVars[id]; outer && !prev.Equals(t) {
			l.PossiblyRedefinedLoopVars[id] = ts.AddOptionalUnionType(t, l.PossiblyRedefinedLoopVars[id], cb)
		}
	}
}

// Return marks the context as left by a return or throw.
func (c *BlockContext) Return(cb ts.Codebase) {
	for h := c.LoopScope; h != NoLoop; {
		l := c.Loops.Get(h)
		if l == nil {
			break
		}
		l.FinalActions |= Return
		h = l.Parent
	}
	c.updateFinally(cb)
	c.HasReturned = true
}

func (c *BlockContext) updateFinally(cb ts.Codebase) {
	if c.FinallyScope != nil {
		c.FinallyScope.add(c.Locals, cb)
	}
}

// MergeBranches folds the contexts at the end of alternative branches
// into base. Branches that returned do not contribute. A variable missing
// from some live branch becomes possibly undefined. When every branch
// returned, base is marked as returned.
func MergeBranches(base *BlockContext, branches []*BlockContext, cb ts.Codebase) {
	var live []*BlockContext
	for _, b := range branches {
		if !b.HasReturned {
			live = append(live, b)
		}
	}
	if len(live) == 0 {
		base.HasReturned = true
		return
	}
	ids := make(map[string]bool)
	for _, b := range live {
		for id := range b.Locals {
			ids[id] = true
		}
	}
	merged := make(map[string]*ts.Union, len(ids))
	for id := range ids {
		var acc *ts.Union
		missing := false
		for _, b := range live {
			if t, ok := b.Locals[id]; ok {
				acc = ts.CombineUnionTypes(acc, t, cb, true)
			} else {
				missing = true
			}
		}
		if missing {
			acc = acc.AsPossiblyUndefined()
		}
		merged[id] = acc
	}
	base.Locals = merged
	for _, b := range live {
		for id := range b.AssignedInLoop {
			base.AssignedInLoop[id] = true
		}
	}
}
