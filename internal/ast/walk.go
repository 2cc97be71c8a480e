package ast

// Inspect traverses the tree rooted at node in depth-first order, calling
// f for every node. If f returns false the children of that node are
// skipped. Nil children are not visited.
func Inspect(node Node, f func(Node) bool) {
	if isNilNode(node) || !f(node) {
		return
	}
	for _, child := range children(node) {
		Inspect(child, f)
	}
}

func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *BlockStatement:
		return v == nil
	case *ElseIfClause:
		return v == nil
	case *SwitchCase:
		return v == nil
	case *CatchClause:
		return v == nil
	case *ArrayItem:
		return v == nil
	case *Argument:
		return v == nil
	case *Parameter:
		return v == nil
	}
	return false
}

func exprs(list []Expression) []Node {
	out := make([]Node, 0, len(list))
	for _, e := range list {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func stmts(list []Statement) []Node {
	out := make([]Node, 0, len(list))
	for _, s := range list {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func args(list []*Argument) []Node {
	out := make([]Node, 0, len(list))
	for _, a := range list {
		out = append(out, a)
	}
	return out
}

func params(list []*Parameter) []Node {
	out := make([]Node, 0, len(list))
	for _, p := range list {
		out = append(out, p)
	}
	return out
}

func nodes(list ...Node) []Node {
	out := make([]Node, 0, len(list))
	for _, n := range list {
		if !isNilNode(n) {
			out = append(out, n)
		}
	}
	return out
}

func children(node Node) []Node {
	switch n := node.(type) {
	case *Program:
		return stmts(n.Statements)
	case *ExpressionStatement:
		return nodes(n.Expr)
	case *EchoStatement:
		return exprs(n.Values)
	case *ReturnStatement:
		return nodes(n.Value)
	case *ThrowStatement:
		return nodes(n.Value)
	case *BlockStatement:
		return stmts(n.Statements)
	case *IfStatement:
		out := nodes(n.Condition, n.Then)
		for _, ei := range n.ElseIfs {
			out = append(out, ei)
		}
		if n.Else != nil {
			out = append(out, n.Else)
		}
		return out
	case *ElseIfClause:
		return nodes(n.Condition, n.Body)
	case *WhileStatement:
		return nodes(n.Condition, n.Body)
	case *DoWhileStatement:
		return nodes(n.Body, n.Condition)
	case *ForStatement:
		out := exprs(n.Init)
		out = append(out, exprs(n.Conditions)...)
		out = append(out, exprs(n.Update)...)
		return append(out, nodes(n.Body)...)
	case *ForeachStatement:
		return nodes(n.Subject, n.Key, n.Value, n.Body)
	case *SwitchStatement:
		out := nodes(n.Subject)
		for _, c := range n.Cases {
			out = append(out, c)
		}
		return out
	case *SwitchCase:
		return append(nodes(n.Match), stmts(n.Body)...)
	case *TryStatement:
		out := nodes(n.Body)
		for _, c := range n.Catches {
			out = append(out, c)
		}
		return append(out, nodes(n.Finally)...)
	case *CatchClause:
		return nodes(n.Body)
	case *UnsetStatement:
		return exprs(n.Values)
	case *FunctionDeclaration:
		return append(params(n.Params), nodes(n.Body)...)
	case *ClassDeclaration:
		var out []Node
		for _, c := range n.Constants {
			out = append(out, c)
		}
		for _, c := range n.Cases {
			out = append(out, c)
		}
		for _, p := range n.Properties {
			out = append(out, p)
		}
		for _, m := range n.Methods {
			out = append(out, m)
		}
		return out
	case *MethodDeclaration:
		return append(params(n.Params), nodes(n.Body)...)
	case *PropertyDeclaration:
		return nodes(n.Default)
	case *ConstantDeclaration:
		return nodes(n.Value)
	case *EnumCaseDeclaration:
		return nodes(n.Value)
	case *Parameter:
		return nodes(n.Default)

	case *ArrayLiteral:
		out := make([]Node, 0, len(n.Items))
		for _, it := range n.Items {
			out = append(out, it)
		}
		return out
	case *ArrayItem:
		return nodes(n.Key, n.Value)
	case *AssignExpression:
		return nodes(n.Target, n.Value)
	case *PropertyFetch:
		return nodes(n.Object)
	case *Argument:
		return nodes(n.Value)
	case *MethodCall:
		return append(nodes(n.Object), args(n.Args)...)
	case *StaticCall:
		return args(n.Args)
	case *FunctionCall:
		return append(nodes(n.Callee), args(n.Args)...)
	case *NewExpression:
		return args(n.Args)
	case *CloneExpression:
		return nodes(n.Value)
	case *ClosureExpression:
		return append(params(n.Params), nodes(n.Body)...)
	case *ArrowFunction:
		return append(params(n.Params), nodes(n.Body)...)
	case *BinaryExpression:
		return nodes(n.Left, n.Right)
	case *UnaryExpression:
		return nodes(n.Operand)
	case *CastExpression:
		return nodes(n.Value)
	case *InstanceofExpression:
		return nodes(n.Value)
	case *IssetExpression:
		return exprs(n.Values)
	case *TernaryExpression:
		return nodes(n.Condition, n.Then, n.Else)
	case *ArrayDimFetch:
		return nodes(n.Array, n.Index)
	}
	return nil
}
