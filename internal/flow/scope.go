package flow

import (
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// NoLoop is the loop handle of a context outside any loop.
const NoLoop = -1

// LoopScope is the state shared by every context inside one loop body
// during one analysis of the loop.
type LoopScope struct {
	// Parent is the handle of the enclosing loop scope, or NoLoop.
	Parent int
	// IterationCount is the number of completed body passes.
	IterationCount int
	// ParentContextVars are the variables live before the loop.
	ParentContextVars map[string]*ts.Union
	// RedefinedLoopVars are the types every continue point agrees on.
	// Nil until the first continue.
	RedefinedLoopVars map[string]*ts.Union
	// PossiblyRedefinedLoopVars are types some continue point gave an
	// outer variable.
	PossiblyRedefinedLoopVars map[string]*ts.Union
	// PossiblyRedefinedLoopParentVars are the types outer variables have
	// at break points.
	PossiblyRedefinedLoopParentVars map[string]*ts.Union
	// PossiblyDefinedLoopParentVars are variables first defined inside the
	// loop and live at a break point on the first pass.
	PossiblyDefinedLoopParentVars map[string]*ts.Union
	// FinalActions are the ways the body was left.
	FinalActions ControlAction
}

// StartPass resets the per-pass state before the body is analyzed again.
// Variables defined before a break on the first pass are kept.
func (l *LoopScope) StartPass() {
	l.RedefinedLoopVars = nil
	l.PossiblyRedefinedLoopVars = make(map[string]*ts.Union)
	l.PossiblyRedefinedLoopParentVars = make(map[string]*ts.Union)
	l.FinalActions = 0
}

// ScopeStack owns the loop scopes of a function body. Contexts refer to a
// scope by its index, so cloned contexts share the same scope.
type ScopeStack struct {
	scopes []*LoopScope
}

func NewScopeStack() *ScopeStack { return &ScopeStack{} }

// Push opens a loop scope and returns its handle.
func (s *ScopeStack) Push(parent int, parentVars map[string]*ts.Union) int {
	l := &LoopScope{
		Parent:                          parent,
		ParentContextVars:               parentVars,
		PossiblyRedefinedLoopVars:       make(map[string]*ts.Union),
		PossiblyRedefinedLoopParentVars: make(map[string]*ts.Union),
		PossiblyDefinedLoopParentVars:   make(map[string]*ts.Union),
	}
	s.scopes = append(s.scopes, l)
	return len(s.scopes) - 1
}

// Get returns the scope of a handle, or nil for NoLoop and closed scopes.
func (s *ScopeStack) Get(h int) *LoopScope {
	if h < 0 || h >= len(s.scopes) {
		return nil
	}
	return s.scopes[h]
}

// Pop closes the innermost scope.
func (s *ScopeStack) Pop() {
	if len(s.scopes) > 0 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *ScopeStack) Len() int { return len(s.scopes) }

// CaseScope collects the variables live at the breaks out of one switch.
type CaseScope struct {
	// BreakVars is nil until the first break.
	BreakVars map[string]*ts.Union
}

func (c *CaseScope) add(locals map[string]*ts.Union, cb ts.Codebase) {
	if c.BreakVars == nil {
		c.BreakVars = copyVars(locals)
		return
	}
	for id, t := range c.BreakVars {
		if lt, ok := locals[id]; ok {
			c.BreakVars[id] = ts.CombineUnionTypes(t, lt, cb, true)
		} else {
			c.BreakVars[id] = t.AsPossiblyUndefined()
		}
	}
	for id, lt := range locals {
		if _, ok := c.BreakVars[id]; !ok {
			c.BreakVars[id] = lt.AsPossiblyUndefined()
		}
	}
}

// FinallyScope collects every variable type that can reach a finally
// block through an early exit.
type FinallyScope struct {
	Vars map[string]*ts.Union
}

func NewFinallyScope() *FinallyScope {
	return &FinallyScope{Vars: make(map[string]*ts.Union)}
}

func (f *FinallyScope) add(locals map[string]*ts.Union, cb ts.Codebase) {
	for id, t := range locals {
		f.Vars[id] = ts.AddOptionalUnionType(t, f.Vars[id], cb)
	}
}

func copyVars(m map[string]*ts.Union) map[string]*ts.Union {
	out := make(map[string]*ts.Union, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
