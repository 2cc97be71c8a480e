package ast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeError reports a malformed node in a YAML unit.
type DecodeError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// DecodeYAML decodes one syntax tree unit.
//
// The document is either a mapping with `file` and `statements` keys or a
// bare statement sequence. Every node is a mapping with a `kind` key.
// Scalars are expression shorthands: numbers, booleans and null are
// literals, strings starting with '$' are variables and any other string
// is a string literal.
//
// Spans default to the position of the node in the YAML document; `line`,
// `column`, `start` and `end` keys override them. The file argument is
// used when the document has no `file` key.
func DecodeYAML(data []byte, file string) (*Program, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file, err)
	}
	prog := &Program{File: file}
	if len(doc.Content) == 0 {
		return prog, nil
	}
	root := doc.Content[0]

	d := &decoder{file: file}
	var body *yaml.Node
	switch root.Kind {
	case yaml.SequenceNode:
		body = root
	case yaml.MappingNode:
		f := d.fields(root)
		if name := d.str(f, "file"); name != "" {
			d.file = name
			prog.File = name
		}
		body = f["statements"]
	default:
		d.errorf(root, "unit must be a mapping or a sequence")
	}
	if body != nil {
		prog.Statements = d.statements(body)
	}
	if len(d.errs) > 0 {
		return nil, errors.Join(d.errs...)
	}
	return prog, nil
}

type decoder struct {
	file string
	errs []error
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) {
	d.errs = append(d.errs, &DecodeError{
		File:   d.file,
		Line:   n.Line,
		Column: n.Column,
		Msg:    fmt.Sprintf(format, args...),
	})
}

// fields indexes the keys of a mapping node.
func (d *decoder) fields(n *yaml.Node) map[string]*yaml.Node {
	if n.Kind != yaml.MappingNode {
		d.errorf(n, "expected a mapping")
		return nil
	}
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m[n.Content[i].Value] = n.Content[i+1]
	}
	return m
}

func (d *decoder) span(n *yaml.Node, f map[string]*yaml.Node) Span {
	s := Span{File: d.file, Line: n.Line, Column: n.Column}
	if f != nil {
		s.Line = d.integer(f, "line", s.Line)
		s.Column = d.integer(f, "column", s.Column)
		s.Start = d.integer(f, "start", 0)
		s.End = d.integer(f, "end", 0)
	}
	return s
}

func (d *decoder) str(f map[string]*yaml.Node, key string) string {
	n, ok := f[key]
	if !ok {
		return ""
	}
	if n.Kind != yaml.ScalarNode {
		d.errorf(n, "%s must be a scalar", key)
		return ""
	}
	return n.Value
}

func (d *decoder) boolean(f map[string]*yaml.Node, key string) bool {
	n, ok := f[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(n.Value)
	if err != nil {
		d.errorf(n, "%s must be a boolean", key)
	}
	return b
}

func (d *decoder) integer(f map[string]*yaml.Node, key string, def int) int {
	n, ok := f[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		d.errorf(n, "%s must be an integer", key)
		return def
	}
	return v
}

func (d *decoder) strList(f map[string]*yaml.Node, key string) []string {
	n, ok := f[key]
	if !ok {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}
	}
	if n.Kind != yaml.SequenceNode {
		d.errorf(n, "%s must be a list of strings", key)
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, c.Value)
	}
	return out
}

func (d *decoder) visibility(f map[string]*yaml.Node) Visibility {
	name := d.str(f, "visibility")
	v, ok := ParseVisibility(name)
	if !ok {
		d.errorf(f["visibility"], "unknown visibility %q", name)
	}
	return v
}

func trimDollar(name string) string {
	return strings.TrimPrefix(name, "$")
}

// Statements

func (d *decoder) statements(n *yaml.Node) []Statement {
	if n.Kind != yaml.SequenceNode {
		d.errorf(n, "expected a statement list")
		return nil
	}
	out := make([]Statement, 0, len(n.Content))
	for _, c := range n.Content {
		if s := d.statement(c); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) block(f map[string]*yaml.Node, key string) *BlockStatement {
	n, ok := f[key]
	if !ok {
		return nil
	}
	if n.Kind == yaml.MappingNode {
		if s, ok := d.statement(n).(*BlockStatement); ok {
			return s
		}
		d.errorf(n, "%s must be a block", key)
		return nil
	}
	return &BlockStatement{Span: d.span(n, nil), Statements: d.statements(n)}
}

func (d *decoder) statement(n *yaml.Node) Statement {
	if n.Kind == yaml.ScalarNode {
		return &ExpressionStatement{Span: d.span(n, nil), Expr: d.expression(n)}
	}
	f := d.fields(n)
	if f == nil {
		return nil
	}
	kind := d.str(f, "kind")
	sp := d.span(n, f)

	switch kind {
	case "expr":
		return &ExpressionStatement{Span: sp, Expr: d.expr(f, "expr")}
	case "echo":
		return &EchoStatement{Span: sp, Values: d.exprList(f, "values")}
	case "return":
		return &ReturnStatement{Span: sp, Value: d.expr(f, "value")}
	case "throw":
		return &ThrowStatement{Span: sp, Value: d.expr(f, "value")}
	case "block":
		return &BlockStatement{Span: sp, Statements: d.statementsAt(f, "body")}
	case "if":
		stmt := &IfStatement{Span: sp, Condition: d.expr(f, "cond"), Then: d.block(f, "then"), Else: d.block(f, "else")}
		if list, ok := f["elseif"]; ok {
			for _, c := range d.sequence(list, "elseif") {
				cf := d.fields(c)
				stmt.ElseIfs = append(stmt.ElseIfs, &ElseIfClause{
					Span:      d.span(c, cf),
					Condition: d.expr(cf, "cond"),
					Body:      d.block(cf, "body"),
				})
			}
		}
		return stmt
	case "while":
		return &WhileStatement{Span: sp, Condition: d.expr(f, "cond"), Body: d.block(f, "body")}
	case "do_while":
		return &DoWhileStatement{Span: sp, Body: d.block(f, "body"), Condition: d.expr(f, "cond")}
	case "for":
		return &ForStatement{
			Span:       sp,
			Init:       d.exprList(f, "init"),
			Conditions: d.exprList(f, "cond"),
			Update:     d.exprList(f, "update"),
			Body:       d.block(f, "body"),
		}
	case "foreach":
		return &ForeachStatement{
			Span:    sp,
			Subject: d.expr(f, "subject"),
			Key:     d.expr(f, "key"),
			Value:   d.expr(f, "value"),
			ByRef:   d.boolean(f, "by_ref"),
			Body:    d.block(f, "body"),
		}
	case "switch":
		stmt := &SwitchStatement{Span: sp, Subject: d.expr(f, "subject")}
		for _, c := range d.sequence(f["cases"], "cases") {
			cf := d.fields(c)
			sc := &SwitchCase{Span: d.span(c, cf), Body: d.statementsAt(cf, "body")}
			if !d.boolean(cf, "default") {
				sc.Match = d.expr(cf, "match")
				if sc.Match == nil {
					d.errorf(c, "case needs match or default: true")
				}
			}
			stmt.Cases = append(stmt.Cases, sc)
		}
		return stmt
	case "try":
		stmt := &TryStatement{Span: sp, Body: d.block(f, "body"), Finally: d.block(f, "finally")}
		for _, c := range d.sequence(f["catch"], "catch") {
			cf := d.fields(c)
			stmt.Catches = append(stmt.Catches, &CatchClause{
				Span:  d.span(c, cf),
				Types: d.strList(cf, "types"),
				Var:   trimDollar(d.str(cf, "var")),
				Body:  d.block(cf, "body"),
			})
		}
		return stmt
	case "break":
		return &BreakStatement{Span: sp, Level: d.integer(f, "level", 1)}
	case "continue":
		return &ContinueStatement{Span: sp, Level: d.integer(f, "level", 1)}
	case "unset":
		return &UnsetStatement{Span: sp, Values: d.exprList(f, "values")}
	case "function":
		return &FunctionDeclaration{
			Span:       sp,
			Name:       d.str(f, "name"),
			Templates:  d.templates(f),
			Params:     d.params(f),
			ReturnType: d.str(f, "return"),
			Body:       d.block(f, "body"),
		}
	case "class", "interface", "trait", "enum":
		return d.classDeclaration(kind, sp, f)
	case "":
		d.errorf(n, "statement has no kind")
		return nil
	}
	if isExpressionKind(kind) {
		return &ExpressionStatement{Span: sp, Expr: d.expression(n)}
	}
	d.errorf(n, "unknown statement kind %q", kind)
	return nil
}

func (d *decoder) statementsAt(f map[string]*yaml.Node, key string) []Statement {
	n, ok := f[key]
	if !ok {
		return nil
	}
	return d.statements(n)
}

func (d *decoder) sequence(n *yaml.Node, key string) []*yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		d.errorf(n, "%s must be a list", key)
		return nil
	}
	return n.Content
}

// Declarations

var classKinds = map[string]ClassKind{
	"class":     KindClass,
	"interface": KindInterface,
	"trait":     KindTrait,
	"enum":      KindEnum,
}

func (d *decoder) classDeclaration(kind string, sp Span, f map[string]*yaml.Node) *ClassDeclaration {
	cd := &ClassDeclaration{
		Span:        sp,
		Kind:        classKinds[kind],
		Name:        d.str(f, "name"),
		Parent:      d.str(f, "parent"),
		Interfaces:  d.strList(f, "interfaces"),
		Traits:      d.strList(f, "traits"),
		Templates:   d.templates(f),
		Final:       d.boolean(f, "final"),
		Abstract:    d.boolean(f, "abstract"),
		Readonly:    d.boolean(f, "readonly"),
		BackingType: d.str(f, "backing"),
	}
	if cd.Name == "" {
		d.errorf(f["kind"], "%s declaration has no name", kind)
	}
	for _, c := range d.sequence(f["constants"], "constants") {
		cf := d.fields(c)
		cd.Constants = append(cd.Constants, &ConstantDeclaration{
			Span:       d.span(c, cf),
			Name:       d.str(cf, "name"),
			Type:       d.str(cf, "type"),
			Value:      d.expr(cf, "value"),
			Visibility: d.visibility(cf),
			Final:      d.boolean(cf, "final"),
		})
	}
	for _, c := range d.sequence(f["cases"], "cases") {
		if c.Kind == yaml.ScalarNode {
			cd.Cases = append(cd.Cases, &EnumCaseDeclaration{Span: d.span(c, nil), Name: c.Value})
			continue
		}
		cf := d.fields(c)
		cd.Cases = append(cd.Cases, &EnumCaseDeclaration{
			Span:  d.span(c, cf),
			Name:  d.str(cf, "name"),
			Value: d.expr(cf, "value"),
		})
	}
	for _, c := range d.sequence(f["properties"], "properties") {
		cf := d.fields(c)
		cd.Properties = append(cd.Properties, &PropertyDeclaration{
			Span:       d.span(c, cf),
			Name:       trimDollar(d.str(cf, "name")),
			Type:       d.str(cf, "type"),
			Default:    d.expr(cf, "default"),
			Visibility: d.visibility(cf),
			Static:     d.boolean(cf, "static"),
			Readonly:   d.boolean(cf, "readonly") || cd.Readonly,
		})
	}
	for _, c := range d.sequence(f["methods"], "methods") {
		cf := d.fields(c)
		cd.Methods = append(cd.Methods, &MethodDeclaration{
			Span:       d.span(c, cf),
			Name:       d.str(cf, "name"),
			Templates:  d.templates(cf),
			Params:     d.params(cf),
			ReturnType: d.str(cf, "return"),
			Visibility: d.visibility(cf),
			Static:     d.boolean(cf, "static"),
			Abstract:   d.boolean(cf, "abstract"),
			Final:      d.boolean(cf, "final"),
			Body:       d.block(cf, "body"),
		})
	}
	return cd
}

func (d *decoder) templates(f map[string]*yaml.Node) []*TemplateDeclaration {
	var out []*TemplateDeclaration
	for _, c := range d.sequence(f["templates"], "templates") {
		if c.Kind == yaml.ScalarNode {
			out = append(out, &TemplateDeclaration{Name: c.Value})
			continue
		}
		cf := d.fields(c)
		out = append(out, &TemplateDeclaration{Name: d.str(cf, "name"), As: d.str(cf, "as")})
	}
	return out
}

func (d *decoder) params(f map[string]*yaml.Node) []*Parameter {
	var out []*Parameter
	for _, c := range d.sequence(f["params"], "params") {
		if c.Kind == yaml.ScalarNode {
			out = append(out, &Parameter{Span: d.span(c, nil), Name: trimDollar(c.Value)})
			continue
		}
		cf := d.fields(c)
		out = append(out, &Parameter{
			Span:       d.span(c, cf),
			Name:       trimDollar(d.str(cf, "name")),
			Type:       d.str(cf, "type"),
			OutType:    d.str(cf, "out"),
			Default:    d.expr(cf, "default"),
			ByRef:      d.boolean(cf, "by_ref"),
			Variadic:   d.boolean(cf, "variadic"),
			Promoted:   d.boolean(cf, "promoted"),
			Visibility: d.visibility(cf),
			Readonly:   d.boolean(cf, "readonly"),
		})
	}
	return out
}

// Expressions

var expressionKinds = map[string]bool{
	"variable": true, "int": true, "float": true, "string": true, "bool": true, "null": true,
	"array": true, "assign": true, "property_fetch": true, "static_property_fetch": true,
	"method_call": true, "static_call": true, "call": true, "new": true, "clone": true,
	"closure": true, "arrow_fn": true, "binary": true, "unary": true, "cast": true,
	"instanceof": true, "isset": true, "ternary": true, "class_constant": true, "dim_fetch": true,
}

func isExpressionKind(kind string) bool { return expressionKinds[kind] }

func (d *decoder) expr(f map[string]*yaml.Node, key string) Expression {
	n, ok := f[key]
	if !ok {
		return nil
	}
	return d.expression(n)
}

func (d *decoder) exprList(f map[string]*yaml.Node, key string) []Expression {
	n, ok := f[key]
	if !ok {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return []Expression{d.expression(n)}
	}
	out := make([]Expression, 0, len(n.Content))
	for _, c := range n.Content {
		if e := d.expression(c); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (d *decoder) expression(n *yaml.Node) Expression {
	if n.Kind == yaml.ScalarNode {
		return d.scalar(n)
	}
	f := d.fields(n)
	if f == nil {
		return nil
	}
	sp := d.span(n, f)

	switch kind := d.str(f, "kind"); kind {
	case "variable":
		return &Variable{Span: sp, Name: trimDollar(d.str(f, "name"))}
	case "int", "float", "bool", "null":
		if v, ok := f["value"]; ok {
			lit := d.scalar(v)
			return withSpan(lit, sp)
		}
		if kind == "null" {
			return &NullLiteral{Span: sp}
		}
		d.errorf(n, "%s literal has no value", kind)
		return nil
	case "string":
		return &StringLiteral{Span: sp, Value: d.str(f, "value")}
	case "array":
		return d.arrayLiteral(sp, f)
	case "assign":
		return &AssignExpression{
			Span:     sp,
			Target:   d.expr(f, "target"),
			Operator: d.str(f, "op"),
			Value:    d.expr(f, "value"),
			ByRef:    d.boolean(f, "by_ref"),
		}
	case "property_fetch":
		return &PropertyFetch{
			Span:     sp,
			Object:   d.expr(f, "object"),
			Property: trimDollar(d.str(f, "property")),
			NullSafe: d.boolean(f, "nullsafe"),
		}
	case "static_property_fetch":
		return &StaticPropertyFetch{Span: sp, Class: d.str(f, "class"), Property: trimDollar(d.str(f, "property"))}
	case "method_call":
		return &MethodCall{
			Span:     sp,
			Object:   d.expr(f, "object"),
			Method:   d.str(f, "method"),
			Args:     d.args(f),
			NullSafe: d.boolean(f, "nullsafe"),
		}
	case "static_call":
		return &StaticCall{Span: sp, Class: d.str(f, "class"), Method: d.str(f, "method"), Args: d.args(f)}
	case "call":
		return &FunctionCall{Span: sp, Name: d.str(f, "name"), Callee: d.expr(f, "callee"), Args: d.args(f)}
	case "new":
		return &NewExpression{Span: sp, Class: d.str(f, "class"), Args: d.args(f)}
	case "clone":
		return &CloneExpression{Span: sp, Value: d.expr(f, "value")}
	case "closure":
		return &ClosureExpression{
			Span:       sp,
			Params:     d.params(f),
			Uses:       d.uses(f),
			ReturnType: d.str(f, "return"),
			Body:       d.block(f, "body"),
			Static:     d.boolean(f, "static"),
		}
	case "arrow_fn":
		return &ArrowFunction{
			Span:       sp,
			Params:     d.params(f),
			ReturnType: d.str(f, "return"),
			Body:       d.expr(f, "body"),
			Static:     d.boolean(f, "static"),
		}
	case "binary":
		return &BinaryExpression{Span: sp, Operator: d.str(f, "op"), Left: d.expr(f, "left"), Right: d.expr(f, "right")}
	case "unary":
		return &UnaryExpression{Span: sp, Operator: d.str(f, "op"), Operand: d.expr(f, "operand"), Postfix: d.boolean(f, "postfix")}
	case "cast":
		return &CastExpression{Span: sp, Type: d.str(f, "type"), Value: d.expr(f, "value")}
	case "instanceof":
		return &InstanceofExpression{Span: sp, Value: d.expr(f, "value"), Class: d.str(f, "class")}
	case "isset":
		return &IssetExpression{Span: sp, Values: d.exprList(f, "values")}
	case "ternary":
		return &TernaryExpression{Span: sp, Condition: d.expr(f, "cond"), Then: d.expr(f, "then"), Else: d.expr(f, "else")}
	case "class_constant":
		return &ClassConstantFetch{Span: sp, Class: d.str(f, "class"), Constant: d.str(f, "constant")}
	case "dim_fetch":
		return &ArrayDimFetch{Span: sp, Array: d.expr(f, "array"), Index: d.expr(f, "index")}
	case "":
		d.errorf(n, "expression has no kind")
	default:
		d.errorf(n, "unknown expression kind %q", kind)
	}
	return nil
}

func withSpan(e Expression, sp Span) Expression {
	switch lit := e.(type) {
	case *IntegerLiteral:
		lit.Span = sp
	case *FloatLiteral:
		lit.Span = sp
	case *BooleanLiteral:
		lit.Span = sp
	case *NullLiteral:
		lit.Span = sp
	case *StringLiteral:
		lit.Span = sp
	case *Variable:
		lit.Span = sp
	}
	return e
}

func (d *decoder) scalar(n *yaml.Node) Expression {
	sp := d.span(n, nil)
	switch n.ShortTag() {
	case "!!int":
		v, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			d.errorf(n, "invalid integer %q", n.Value)
			return nil
		}
		return &IntegerLiteral{Span: sp, Value: v}
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			d.errorf(n, "invalid float %q", n.Value)
			return nil
		}
		return &FloatLiteral{Span: sp, Value: v}
	case "!!bool":
		v, _ := strconv.ParseBool(strings.ToLower(n.Value))
		return &BooleanLiteral{Span: sp, Value: v}
	case "!!null":
		return &NullLiteral{Span: sp}
	}
	if strings.HasPrefix(n.Value, "$") && n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 {
		return &Variable{Span: sp, Name: n.Value[1:]}
	}
	return &StringLiteral{Span: sp, Value: n.Value}
}

func (d *decoder) arrayLiteral(sp Span, f map[string]*yaml.Node) *ArrayLiteral {
	al := &ArrayLiteral{Span: sp}
	for _, c := range d.sequence(f["items"], "items") {
		if c.Kind == yaml.MappingNode {
			cf := d.fields(c)
			if _, hasKind := cf["kind"]; !hasKind {
				al.Items = append(al.Items, &ArrayItem{
					Span:   d.span(c, cf),
					Key:    d.expr(cf, "key"),
					Value:  d.expr(cf, "value"),
					Spread: d.boolean(cf, "spread"),
				})
				continue
			}
		}
		al.Items = append(al.Items, &ArrayItem{Span: d.span(c, nil), Value: d.expression(c)})
	}
	return al
}

func (d *decoder) args(f map[string]*yaml.Node) []*Argument {
	var out []*Argument
	for _, c := range d.sequence(f["args"], "args") {
		if c.Kind == yaml.MappingNode {
			cf := d.fields(c)
			if _, hasKind := cf["kind"]; !hasKind {
				out = append(out, &Argument{
					Span:   d.span(c, cf),
					Name:   d.str(cf, "name"),
					Value:  d.expr(cf, "value"),
					Unpack: d.boolean(cf, "unpack"),
				})
				continue
			}
		}
		out = append(out, &Argument{Span: d.span(c, nil), Value: d.expression(c)})
	}
	return out
}

func (d *decoder) uses(f map[string]*yaml.Node) []*ClosureUse {
	var out []*ClosureUse
	for _, c := range d.sequence(f["uses"], "uses") {
		if c.Kind == yaml.ScalarNode {
			name := c.Value
			byRef := strings.HasPrefix(name, "&")
			out = append(out, &ClosureUse{
				Span:  d.span(c, nil),
				Name:  trimDollar(strings.TrimPrefix(name, "&")),
				ByRef: byRef,
			})
			continue
		}
		cf := d.fields(c)
		out = append(out, &ClosureUse{Span: d.span(c, cf), Name: trimDollar(d.str(cf, "name")), ByRef: d.boolean(cf, "by_ref")})
	}
	return out
}
