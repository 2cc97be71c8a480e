// Package flow holds the flow state of one function body: variable types
// per block, the loop, switch and finally scopes, and the control actions
// by which a construct can be left.
package flow

import (
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
)

// ControlAction is a set of ways control can leave a statement.
type ControlAction uint8

const (
	// None: control falls through to the next statement.
	None ControlAction = 1 << iota
	// End: an exception is thrown.
	End
	Break
	Continue
	// LeaveSwitch: a break (or continue) targeting an enclosing switch.
	LeaveSwitch
	Return
)

func (a ControlAction) Has(b ControlAction) bool { return a&b != 0 }

// Only reports whether a is exactly b.
func (a ControlAction) Only(b ControlAction) bool { return a == b }

func (a ControlAction) String() string {
	if a == 0 {
		return "{}"
	}
	var parts []string
	for _, n := range []struct {
		bit  ControlAction
		name string
	}{{None, "none"}, {End, "end"}, {Break, "break"}, {Continue, "continue"}, {LeaveSwitch, "leave-switch"}, {Return, "return"}} {
		if a.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// BreakKind distinguishes what a break level refers to.
type BreakKind uint8

const (
	LoopLevel BreakKind = iota
	SwitchLevel
)

// ControlActions returns how control can leave a statement list that is
// not itself inside a loop or switch.
func ControlActions(stmts []ast.Statement) ControlAction {
	return actions(stmts, nil)
}

// LoopBodyActions returns how control can leave one iteration of a loop
// body. A body without Continue and None never reaches a second iteration.
func LoopBodyActions(body []ast.Statement) ControlAction {
	return actions(body, []BreakKind{LoopLevel})
}

func actions(stmts []ast.Statement, levels []BreakKind) ControlAction {
	var acc ControlAction
	for _, s := range stmts {
		a := statementActions(s, levels)
		if !a.Has(None) {
			return acc | a
		}
		acc |= a &^ None
	}
	return acc | None
}

func withLevel(levels []BreakKind, k BreakKind) []BreakKind {
	out := make([]BreakKind, len(levels), len(levels)+1)
	copy(out, levels)
	return append(out, k)
}

// jump classifies break/continue N against the enclosing levels.
func jump(levels []BreakKind, n int, loopAction ControlAction) ControlAction {
	if n < 1 {
		n = 1
	}
	if n > len(levels) {
		// Invalid; reported by the analyzer. Control still leaves.
		return loopAction
	}
	if levels[len(levels)-n] == SwitchLevel {
		return LeaveSwitch
	}
	for _, k := range levels[len(levels)-n+1:] {
		if k == LoopLevel {
			// An inner loop is left for good.
			return Break
		}
	}
	return loopAction
}

func statementActions(s ast.Statement, levels []BreakKind) ControlAction {
	switch st := s.(type) {
	case *ast.ReturnStatement:
		return Return
	case *ast.ThrowStatement:
		return End
	case *ast.BreakStatement:
		return jump(levels, st.Level, Break)
	case *ast.ContinueStatement:
		return jump(levels, st.Level, Continue)
	case *ast.BlockStatement:
		if st == nil {
			return None
		}
		return actions(st.Statements, levels)
	case *ast.IfStatement:
		res := blockActions(st.Then, levels)
		for _, ei := range st.ElseIfs {
			res |= blockActions(ei.Body, levels)
		}
		if st.Else != nil {
			res |= blockActions(st.Else, levels)
		} else {
			res |= None
		}
		return res
	case *ast.WhileStatement:
		return loopActions(blockActions(st.Body, withLevel(levels, LoopLevel)), isTrue(st.Condition))
	case *ast.DoWhileStatement:
		return loopActions(blockActions(st.Body, withLevel(levels, LoopLevel)), isTrue(st.Condition))
	case *ast.ForStatement:
		infinite := len(st.Conditions) == 0 || isTrue(st.Conditions[len(st.Conditions)-1])
		return loopActions(blockActions(st.Body, withLevel(levels, LoopLevel)), infinite)
	case *ast.ForeachStatement:
		return loopActions(blockActions(st.Body, withLevel(levels, LoopLevel)), false)
	case *ast.SwitchStatement:
		return switchActions(st, levels)
	case *ast.TryStatement:
		res := blockActions(st.Body, levels)
		for _, c := range st.Catches {
			res |= blockActions(c.Body, levels)
		}
		if st.Finally != nil {
			fin := blockActions(st.Finally, levels)
			if !fin.Has(None) {
				return fin
			}
			res |= fin &^ None
		}
		return res
	}
	return None
}

func blockActions(b *ast.BlockStatement, levels []BreakKind) ControlAction {
	if b == nil {
		return None
	}
	return actions(b.Statements, levels)
}

func loopActions(body ControlAction, infinite bool) ControlAction {
	res := body &^ (None | Break | Continue)
	if body.Has(Break) || !infinite {
		res |= None
	}
	return res
}

func switchActions(st *ast.SwitchStatement, levels []BreakKind) ControlAction {
	inner := withLevel(levels, SwitchLevel)
	var res ControlAction
	for i, c := range st.Cases {
		a := actions(c.Body, inner)
		if a.Has(LeaveSwitch) {
			res |= None
		}
		res |= a &^ (None | LeaveSwitch)
		if i == len(st.Cases)-1 && a.Has(None) {
			res |= None
		}
	}
	if !st.HasDefault() {
		res |= None
	}
	return res
}

func isTrue(e ast.Expression) bool {
	b, ok := e.(*ast.BooleanLiteral)
	return ok && b.Value
}
