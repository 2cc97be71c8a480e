package ast

import (
	"errors"
	"testing"
)

const sampleUnit = `
file: src/box.php
statements:
  - kind: class
    name: Box
    final: true
    templates: [T, {name: K, as: array-key}]
    parent: "Base<T>"
    interfaces: [Countable]
    properties:
      - {name: $value, type: T, visibility: private}
      - {name: count, type: int, default: 0, static: true}
    methods:
      - name: get
        return: T
        body:
          - kind: return
            value: {kind: property_fetch, object: $this, property: value}
  - kind: function
    name: loop
    params: [{name: $n, type: int}, $rest]
    body:
      - kind: while
        cond: true
        body:
          - {kind: assign, target: $x, value: {kind: binary, op: "+", left: $n, right: 1}}
          - {kind: break, level: 2, line: 40}
      - kind: echo
        values: ["$literal", 1.5, null, false]
`

func mustDecode(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := DecodeYAML([]byte(src), "unit.yaml")
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	return prog
}

func TestDecodeYAML(t *testing.T) {
	prog := mustDecode(t, sampleUnit)
	if prog.File != "src/box.php" {
		t.Errorf("File = %q, want src/box.php", prog.File)
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Statements))
	}

	class, ok := prog.Statements[0].(*ClassDeclaration)
	if !ok {
		t.Fatalf("statement 0 is %T, want *ClassDeclaration", prog.Statements[0])
	}
	if class.Name != "Box" || class.Kind != KindClass || !class.Final || class.Parent != "Base<T>" {
		t.Errorf("class header decoded wrong: %+v", class)
	}
	if len(class.Templates) != 2 || class.Templates[1].As != "array-key" {
		t.Errorf("templates decoded wrong: %+v", class.Templates)
	}
	if len(class.Properties) != 2 {
		t.Fatalf("got %d properties, want 2", len(class.Properties))
	}
	if p := class.Properties[0]; p.Name != "value" || p.Visibility != Private {
		t.Errorf("property 0 = %+v", p)
	}
	if p := class.Properties[1]; !p.Static {
		t.Errorf("property count should be static")
	} else if lit, ok := p.Default.(*IntegerLiteral); !ok || lit.Value != 0 {
		t.Errorf("property count default = %#v", p.Default)
	}
	ret, ok := class.Methods[0].Body.Statements[0].(*ReturnStatement)
	if !ok {
		t.Fatalf("method body statement is %T", class.Methods[0].Body.Statements[0])
	}
	fetch, ok := ret.Value.(*PropertyFetch)
	if !ok || fetch.Property != "value" {
		t.Fatalf("return value = %#v", ret.Value)
	}
	if v, ok := fetch.Object.(*Variable); !ok || !v.IsThis() {
		t.Errorf("fetch object = %#v, want $this", fetch.Object)
	}

	fn := prog.Statements[1].(*FunctionDeclaration)
	if len(fn.Params) != 2 || fn.Params[0].Name != "n" || fn.Params[1].Name != "rest" {
		t.Errorf("params decoded wrong: %+v", fn.Params)
	}
	loop := fn.Body.Statements[0].(*WhileStatement)
	if b, ok := loop.Condition.(*BooleanLiteral); !ok || !b.Value {
		t.Errorf("while condition = %#v", loop.Condition)
	}
	assign := loop.Body.Statements[0].(*ExpressionStatement).Expr.(*AssignExpression)
	if bin, ok := assign.Value.(*BinaryExpression); !ok || bin.Operator != "+" {
		t.Errorf("assign value = %#v", assign.Value)
	}
	brk := loop.Body.Statements[1].(*BreakStatement)
	if brk.Level != 2 || brk.Span.Line != 40 || brk.Span.File != "src/box.php" {
		t.Errorf("break = %+v", brk)
	}

	echo := fn.Body.Statements[1].(*EchoStatement)
	if len(echo.Values) != 4 {
		t.Fatalf("echo values = %d", len(echo.Values))
	}
	if s, ok := echo.Values[0].(*StringLiteral); !ok || s.Value != "$literal" {
		t.Errorf("quoted $ scalar = %#v, want string literal", echo.Values[0])
	}
	if _, ok := echo.Values[1].(*FloatLiteral); !ok {
		t.Errorf("1.5 = %T", echo.Values[1])
	}
	if _, ok := echo.Values[2].(*NullLiteral); !ok {
		t.Errorf("null = %T", echo.Values[2])
	}
	if b, ok := echo.Values[3].(*BooleanLiteral); !ok || b.Value {
		t.Errorf("false = %#v", echo.Values[3])
	}
}

func TestDecodeControlFlow(t *testing.T) {
	prog := mustDecode(t, `
- kind: switch
  subject: $x
  cases:
    - {match: 1, body: [{kind: break}]}
    - {default: true, body: []}
- kind: try
  body: [{kind: throw, value: {kind: new, class: Exception}}]
  catch:
    - {types: [RuntimeException, LogicException], var: $e, body: []}
  finally: [{kind: unset, values: [$x]}]
- kind: foreach
  subject: $items
  key: $k
  value: $v
  body: [{kind: continue}]
`)
	sw := prog.Statements[0].(*SwitchStatement)
	if !sw.HasDefault() || len(sw.Cases) != 2 || sw.Cases[0].IsDefault() {
		t.Errorf("switch cases decoded wrong: %+v", sw.Cases)
	}
	if _, ok := sw.Cases[0].Body[0].(*BreakStatement); !ok {
		t.Errorf("case body = %T", sw.Cases[0].Body[0])
	}
	try := prog.Statements[1].(*TryStatement)
	if len(try.Catches) != 1 || try.Catches[0].Var != "e" || len(try.Catches[0].Types) != 2 {
		t.Errorf("catch decoded wrong: %+v", try.Catches)
	}
	if try.Finally == nil || len(try.Finally.Statements) != 1 {
		t.Errorf("finally decoded wrong: %+v", try.Finally)
	}
	fe := prog.Statements[2].(*ForeachStatement)
	if fe.Key == nil || fe.Value == nil {
		t.Errorf("foreach key/value missing")
	}
	if c := fe.Body.Statements[0].(*ContinueStatement); c.Level != 1 {
		t.Errorf("continue level = %d, want 1", c.Level)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown statement", `[{kind: goto}]`},
		{"unknown expression", `[{kind: expr, expr: {kind: yield}}]`},
		{"missing kind", `[{value: 1}]`},
		{"bad level", `[{kind: break, level: two}]`},
		{"bad visibility", `[{kind: class, name: A, properties: [{name: a, visibility: internal}]}]`},
		{"case without match", `[{kind: switch, subject: $x, cases: [{body: []}]}]`},
		{"scalar unit", `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(tt.src), "bad.yaml")
			if err == nil {
				t.Fatalf("expected an error")
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("error %v is not a *DecodeError", err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	prog := mustDecode(t, sampleUnit)
	var vars, fetches int
	Inspect(prog, func(n Node) bool {
		switch n.(type) {
		case *Variable:
			vars++
		case *PropertyFetch:
			fetches++
		}
		return true
	})
	// $this, $x, $n
	if vars != 3 {
		t.Errorf("visited %d variables, want 3", vars)
	}
	if fetches != 1 {
		t.Errorf("visited %d property fetches, want 1", fetches)
	}

	var skipped int
	Inspect(prog, func(n Node) bool {
		if _, ok := n.(*ClassDeclaration); ok {
			return false
		}
		if _, ok := n.(*PropertyFetch); ok {
			skipped++
		}
		return true
	})
	if skipped != 0 {
		t.Errorf("children of a pruned node were visited")
	}
}
