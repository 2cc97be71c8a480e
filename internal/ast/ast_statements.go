package ast

// ExpressionStatement wraps an expression evaluated for its effect.
// $x = 1;
type ExpressionStatement struct {
	Span Span
	Expr Expression
}

func (es *ExpressionStatement) statementNode() {}
func (es *ExpressionStatement) GetSpan() Span {
	if es == nil {
		return Span{}
	}
	return es.Span
}

// EchoStatement prints its values.
type EchoStatement struct {
	Span   Span
	Values []Expression
}

func (es *EchoStatement) statementNode() {}
func (es *EchoStatement) GetSpan() Span {
	if es == nil {
		return Span{}
	}
	return es.Span
}

// ReturnStatement leaves the current function. Value is nil for a bare return.
type ReturnStatement struct {
	Span  Span
	Value Expression
}

func (rs *ReturnStatement) statementNode() {}
func (rs *ReturnStatement) GetSpan() Span {
	if rs == nil {
		return Span{}
	}
	return rs.Span
}

// ThrowStatement raises an exception.
type ThrowStatement struct {
	Span  Span
	Value Expression
}

func (ts *ThrowStatement) statementNode() {}
func (ts *ThrowStatement) GetSpan() Span {
	if ts == nil {
		return Span{}
	}
	return ts.Span
}

// BlockStatement is a braced statement list.
type BlockStatement struct {
	Span       Span
	Statements []Statement
}

func (bs *BlockStatement) statementNode() {}
func (bs *BlockStatement) GetSpan() Span {
	if bs == nil {
		return Span{}
	}
	return bs.Span
}

// IfStatement represents if/elseif/else. Else is nil when absent.
type IfStatement struct {
	Span      Span
	Condition Expression
	Then      *BlockStatement
	ElseIfs   []*ElseIfClause
	Else      *BlockStatement
}

func (is *IfStatement) statementNode() {}
func (is *IfStatement) GetSpan() Span {
	if is == nil {
		return Span{}
	}
	return is.Span
}

// ElseIfClause is one elseif branch of an IfStatement.
type ElseIfClause struct {
	Span      Span
	Condition Expression
	Body      *BlockStatement
}

func (ec *ElseIfClause) GetSpan() Span {
	if ec == nil {
		return Span{}
	}
	return ec.Span
}

// WhileStatement: while (cond) body
type WhileStatement struct {
	Span      Span
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode() {}
func (ws *WhileStatement) GetSpan() Span {
	if ws == nil {
		return Span{}
	}
	return ws.Span
}

// DoWhileStatement: do body while (cond)
type DoWhileStatement struct {
	Span      Span
	Body      *BlockStatement
	Condition Expression
}

func (ds *DoWhileStatement) statementNode() {}
func (ds *DoWhileStatement) GetSpan() Span {
	if ds == nil {
		return Span{}
	}
	return ds.Span
}

// ForStatement: for (init; conditions; update) body
// An empty Conditions list loops forever.
type ForStatement struct {
	Span       Span
	Init       []Expression
	Conditions []Expression
	Update     []Expression
	Body       *BlockStatement
}

func (fs *ForStatement) statementNode() {}
func (fs *ForStatement) GetSpan() Span {
	if fs == nil {
		return Span{}
	}
	return fs.Span
}

// ForeachStatement: foreach (subject as key => value) body
// Key is nil when only values are iterated.
type ForeachStatement struct {
	Span    Span
	Subject Expression
	Key     Expression
	Value   Expression
	ByRef   bool
	Body    *BlockStatement
}

func (fs *ForeachStatement) statementNode() {}
func (fs *ForeachStatement) GetSpan() Span {
	if fs == nil {
		return Span{}
	}
	return fs.Span
}

// SwitchStatement dispatches on Subject. Cases keep source order.
type SwitchStatement struct {
	Span    Span
	Subject Expression
	Cases   []*SwitchCase
}

func (ss *SwitchStatement) statementNode() {}
func (ss *SwitchStatement) GetSpan() Span {
	if ss == nil {
		return Span{}
	}
	return ss.Span
}

// HasDefault reports whether one of the cases is the default case.
func (ss *SwitchStatement) HasDefault() bool {
	for _, c := range ss.Cases {
		if c.IsDefault() {
			return true
		}
	}
	return false
}

// SwitchCase is one case label and the statements under it.
// Match is nil for the default case.
type SwitchCase struct {
	Span  Span
	Match Expression
	Body  []Statement
}

func (sc *SwitchCase) GetSpan() Span {
	if sc == nil {
		return Span{}
	}
	return sc.Span
}

func (sc *SwitchCase) IsDefault() bool { return sc.Match == nil }

// TryStatement represents try/catch/finally. Finally is nil when absent.
type TryStatement struct {
	Span    Span
	Body    *BlockStatement
	Catches []*CatchClause
	Finally *BlockStatement
}

func (ts *TryStatement) statementNode() {}
func (ts *TryStatement) GetSpan() Span {
	if ts == nil {
		return Span{}
	}
	return ts.Span
}

// CatchClause: catch (A|B $var) body. Var is empty when not bound.
type CatchClause struct {
	Span  Span
	Types []string
	Var   string
	Body  *BlockStatement
}

func (cc *CatchClause) GetSpan() Span {
	if cc == nil {
		return Span{}
	}
	return cc.Span
}

// BreakStatement: break N; Level is at least 1.
type BreakStatement struct {
	Span  Span
	Level int
}

func (bs *BreakStatement) statementNode() {}
func (bs *BreakStatement) GetSpan() Span {
	if bs == nil {
		return Span{}
	}
	return bs.Span
}

// ContinueStatement: continue N; Level is at least 1.
type ContinueStatement struct {
	Span  Span
	Level int
}

func (cs *ContinueStatement) statementNode() {}
func (cs *ContinueStatement) GetSpan() Span {
	if cs == nil {
		return Span{}
	}
	return cs.Span
}

// UnsetStatement: unset($a, $b['k'])
type UnsetStatement struct {
	Span   Span
	Values []Expression
}

func (us *UnsetStatement) statementNode() {}
func (us *UnsetStatement) GetSpan() Span {
	if us == nil {
		return Span{}
	}
	return us.Span
}
