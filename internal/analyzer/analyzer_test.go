package analyzer

import (
	"errors"
	"testing"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

func decode(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.DecodeYAML([]byte(src), "unit.yaml")
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	return prog
}

func analyzeWith(t *testing.T, settings config.Settings, src string) (*ast.Program, *Result) {
	t.Helper()
	prog := decode(t, src)
	meta, errs := codebase.Build(prog)
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errors.Join(errs...))
	}
	res, err := New(meta, settings).Analyze(prog)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return prog, res
}

func analyzeUnit(t *testing.T, src string) *Result {
	t.Helper()
	_, res := analyzeWith(t, config.DefaultSettings(), src)
	return res
}

func hasCode(res *Result, code issue.Code) bool {
	for _, i := range res.Issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func expectIssue(t *testing.T, res *Result, code issue.Code) {
	t.Helper()
	if !hasCode(res, code) {
		t.Errorf("expected %s, got %v", code, res.Issues)
	}
}

func expectNoIssues(t *testing.T, res *Result) {
	t.Helper()
	for _, i := range res.Issues {
		t.Errorf("unexpected issue: %s", i)
	}
}

// echoed returns the first value of every top-level echo statement.
func echoed(prog *ast.Program) []ast.Expression {
	return echoValues(prog.Statements)
}

// functionEchoed returns the first value of every echo statement at the
// top of the named function's body.
func functionEchoed(t *testing.T, prog *ast.Program, name string) []ast.Expression {
	t.Helper()
	for _, s := range prog.Statements {
		if fd, ok := s.(*ast.FunctionDeclaration); ok && fd.Name == name {
			return echoValues(fd.Body.Statements)
		}
	}
	t.Fatalf("no function %s", name)
	return nil
}

func echoValues(stmts []ast.Statement) []ast.Expression {
	var out []ast.Expression
	for _, s := range stmts {
		if e, ok := s.(*ast.EchoStatement); ok && len(e.Values) > 0 {
			out = append(out, e.Values[0])
		}
	}
	return out
}

func inferredType(t *testing.T, res *Result, e ast.Expression) *ts.Union {
	t.Helper()
	u, ok := res.TypeOf(e)
	if !ok {
		t.Fatalf("no type recorded for %T", e)
	}
	return u
}

func TestIssues(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want issue.Code
	}{
		{"break beyond the loop depth", `
- kind: function
  name: f
  params: [{name: $n, type: int}]
  body:
    - kind: while
      cond: {kind: binary, op: "<", left: $n, right: 10}
      body:
        - {kind: break, level: 2}
`, issue.InvalidBreak},
		{"continue outside a loop", `
- kind: function
  name: f
  body:
    - {kind: continue}
`, issue.InvalidContinue},
		{"loop that always returns", `
- kind: function
  name: f
  params: [{name: $n, type: int}]
  body:
    - kind: while
      cond: {kind: binary, op: "<", left: $n, right: 10}
      body:
        - {kind: return, value: 1}
`, issue.LoopDoesNotIterate},
		{"undefined variable", `
- kind: echo
  values: [$nope]
`, issue.UndefinedVariable},
		{"variable defined in one branch", `
- kind: function
  name: f
  params: [{name: $c, type: bool}]
  body:
    - kind: if
      cond: $c
      then:
        - {kind: assign, target: $x, value: 1}
    - {kind: echo, values: [$x]}
`, issue.PossiblyUndefinedVariable},
		{"variable defined in a loop body", `
- kind: function
  name: f
  params: [{name: $items, type: "list<int>"}]
  body:
    - kind: foreach
      subject: $items
      value: $v
      body:
        - {kind: assign, target: $last, value: $v}
    - {kind: echo, values: [$last]}
`, issue.PossiblyUndefinedVariable},
		{"code after return", `
- kind: function
  name: f
  body:
    - {kind: return, value: 1}
    - {kind: echo, values: [2]}
`, issue.UnreachableCode},
		{"not every path returns", `
- kind: function
  name: f
  params: [{name: $c, type: bool}]
  return: int
  body:
    - kind: if
      cond: $c
      then:
        - {kind: return, value: 1}
`, issue.MissingReturnStatement},
		{"wrong return type", `
- kind: function
  name: f
  return: int
  body:
    - {kind: return, value: "text"}
`, issue.InvalidReturnStatement},
		{"mixed assigned to an int property", `
- kind: class
  name: A
  properties:
    - {name: $i, type: int}
  methods:
    - name: set
      params: [$m]
      body:
        - kind: assign
          target: {kind: property_fetch, object: $this, property: i}
          value: $m
`, issue.PropertyTypeCoercion},
		{"mixed assigned to a static int property", `
- kind: class
  name: A
  properties:
    - {name: $s, type: int, static: true}
  methods:
    - name: set
      static: true
      params: [$m]
      body:
        - kind: assign
          target: {kind: static_property_fetch, class: self, property: s}
          value: $m
`, issue.PropertyTypeCoercion},
		{"array of mixed assigned to an array of int property", `
- kind: class
  name: A
  properties:
    - {name: $items, type: "array<array-key, int>"}
  methods:
    - name: set
      params: [{name: $m, type: "array<array-key, mixed>"}]
      body:
        - kind: assign
          target: {kind: property_fetch, object: $this, property: items}
          value: $m
`, issue.MixedPropertyTypeCoercion},
		{"string assigned to an int property", `
- kind: class
  name: A
  properties:
    - {name: $i, type: int}
  methods:
    - name: set
      body:
        - kind: assign
          target: {kind: property_fetch, object: $this, property: i}
          value: "text"
`, issue.InvalidPropertyAssignmentValue},
		{"readonly property set outside the constructor", `
- kind: class
  name: A
  properties:
    - {name: $i, type: int, readonly: true}
  methods:
    - name: set
      body:
        - kind: assign
          target: {kind: property_fetch, object: $this, property: i}
          value: 1
`, issue.ReadonlyPropertyReassignment},
		{"unknown property", `
- kind: class
  name: A
  methods:
    - name: get
      body:
        - kind: return
          value: {kind: property_fetch, object: $this, property: nope}
`, issue.NonExistentProperty},
		{"private property from outside", `
- kind: class
  name: A
  properties:
    - {name: $secret, type: int, visibility: private}
- kind: function
  name: f
  params: [{name: $a, type: A}]
  body:
    - kind: echo
      values: [{kind: property_fetch, object: $a, property: secret}]
`, issue.InaccessibleProperty},
		{"method call on null", `
- {kind: assign, target: $x, value: null}
- {kind: method_call, object: $x, method: run}
`, issue.NullMethodCall},
		{"method call on a nullable object", `
- kind: class
  name: A
  methods:
    - {name: run, body: []}
- kind: function
  name: f
  params: [{name: $a, type: "A|null"}]
  body:
    - {kind: method_call, object: $a, method: run}
`, issue.PossiblyNullMethodCall},
		{"unknown method", `
- kind: class
  name: A
- kind: function
  name: f
  params: [{name: $a, type: A}]
  body:
    - {kind: method_call, object: $a, method: run}
`, issue.NonExistentMethod},
		{"unknown function", `
- {kind: call, name: nope}
`, issue.NonExistentFunction},
		{"string passed to int", `
- kind: function
  name: takes
  params: [{name: $i, type: int}]
  body: []
- {kind: call, name: takes, args: ["text"]}
`, issue.InvalidArgument},
		{"missing argument", `
- kind: function
  name: takes
  params: [{name: $i, type: int}]
  body: []
- {kind: call, name: takes}
`, issue.TooFewArguments},
		{"extra argument", `
- kind: function
  name: takes
  params: [{name: $i, type: int}]
  body: []
- {kind: call, name: takes, args: [1, 2]}
`, issue.TooManyArguments},
		{"unknown named argument", `
- kind: function
  name: takes
  params: [{name: $i, type: int}]
  body: []
- {kind: call, name: takes, args: [{name: j, value: 1}]}
`, issue.InvalidNamedArgument},
		{"unknown class", `
- {kind: new, class: Nope}
`, issue.NonExistentClass},
		{"abstract class", `
- {kind: class, name: A, abstract: true}
- {kind: new, class: A}
`, issue.AbstractInstantiation},
		{"interface", `
- {kind: new, class: Countable}
`, issue.InterfaceInstantiation},
		{"unknown class constant", `
- kind: class
  name: A
  constants:
    - {name: ONE, value: 1}
- {kind: echo, values: [{kind: class_constant, class: A, constant: TWO}]}
`, issue.NonExistentClassConstant},
		{"undefined key of a sealed array", `
- kind: assign
  target: $a
  value: {kind: array, items: [{key: x, value: 1}]}
- kind: echo
  values: [{kind: dim_fetch, array: $a, index: y}]
`, issue.UndefinedArrayKey},
		{"arithmetic on an array", `
- kind: assign
  target: $a
  value: {kind: array, items: [1]}
- kind: echo
  values: [{kind: binary, op: "-", left: $a, right: 1}]
`, issue.InvalidOperand},
		{"captured variable that does not exist", `
- kind: assign
  target: $f
  value: {kind: closure, uses: [$missing], body: []}
`, issue.UndefinedVariable},
		{"arrow function returning the wrong type", `
- kind: assign
  target: $f
  value: {kind: arrow_fn, return: int, body: "text"}
`, issue.InvalidReturnStatement},
		{"assignment to $this", `
- kind: class
  name: A
  methods:
    - name: reset
      body:
        - {kind: assign, target: $this, value: null}
`, issue.InvalidThis},
		{"foreach over an int", `
- {kind: foreach, subject: 5, value: $v, body: []}
`, issue.InvalidForeach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectIssue(t, analyzeUnit(t, tt.src), tt.want)
		})
	}
}

func TestCleanUnit(t *testing.T) {
	res := analyzeUnit(t, `
- kind: class
  name: Counter
  properties:
    - {name: $count, type: int, default: 0}
  methods:
    - name: add
      params: [{name: $n, type: int}]
      return: void
      body:
        - kind: assign
          target: {kind: property_fetch, object: $this, property: count}
          op: "+"
          value: $n
    - name: get
      return: int
      body:
        - kind: return
          value: {kind: property_fetch, object: $this, property: count}
- kind: function
  name: total
  params: [{name: $items, type: "list<int>"}]
  return: int
  body:
    - {kind: assign, target: $c, value: {kind: new, class: Counter}}
    - kind: foreach
      subject: $items
      value: $i
      body:
        - {kind: method_call, object: $c, method: add, args: [$i]}
    - kind: return
      value: {kind: method_call, object: $c, method: get}
`)
	expectNoIssues(t, res)
}

func TestInferredTypes(t *testing.T) {
	prog, res := analyzeWith(t, config.DefaultSettings(), `
- kind: class
  name: Box
  templates: [T]
  properties:
    - {name: $value, type: T}
  methods:
    - name: __construct
      params: [{name: $value, type: T}]
      body:
        - kind: assign
          target: {kind: property_fetch, object: $this, property: value}
          value: $value
    - name: get
      return: T
      body:
        - kind: return
          value: {kind: property_fetch, object: $this, property: value}
- kind: enum
  name: Suit
  cases: [Hearts, Spades]
- kind: echo
  values: [{kind: binary, op: "+", left: 1, right: 2}]
- kind: echo
  values: [{kind: binary, op: ".", left: "a", right: "b"}]
- kind: echo
  values: [{kind: method_call, object: {kind: new, class: Box, args: [5]}, method: get}]
- kind: echo
  values: [{kind: class_constant, class: Suit, constant: Hearts}]
- kind: echo
  values: [{kind: class_constant, class: Box, constant: class}]
`)
	expectNoIssues(t, res)

	values := echoed(prog)
	if len(values) != 5 {
		t.Fatalf("got %d echo statements, want 5", len(values))
	}
	typeOf := func(e ast.Expression) *ts.Union {
		t.Helper()
		return inferredType(t, res, e)
	}

	if got := typeOf(values[0]).ID(); got != "int(3)" {
		t.Errorf("1 + 2 = %s, want int(3)", got)
	}
	if got, ok := typeOf(values[1]).SingleLiteralStringValue(); !ok || got != "ab" {
		t.Errorf("'a' . 'b' = %s, want the literal ab", typeOf(values[1]))
	}
	if got := typeOf(values[2]); !got.IsInt() {
		t.Errorf("Box(5)->get() = %s, want an int", got)
	}
	if got := typeOf(values[3]); !got.Equals(ts.NewUnion(ts.TEnum{Name: "Suit", Case: "Hearts"})) {
		t.Errorf("Suit::Hearts = %s", got)
	}
	if got, ok := typeOf(values[4]).SingleLiteralStringValue(); !ok || got != "Box" {
		t.Errorf("Box::class = %s, want the literal Box", typeOf(values[4]))
	}
}

func TestNarrowing(t *testing.T) {
	res := analyzeUnit(t, `
- kind: class
  name: A
  methods:
    - {name: run, body: []}
- kind: function
  name: f
  params: [{name: $a, type: "A|null"}]
  body:
    - kind: if
      cond: {kind: binary, op: "!==", left: $a, right: null}
      then:
        - {kind: method_call, object: $a, method: run}
    - kind: if
      cond: $a
      then:
        - {kind: method_call, object: $a, method: run}
    - kind: if
      cond: {kind: instanceof, value: $a, class: A}
      then:
        - {kind: method_call, object: $a, method: run}
`)
	expectNoIssues(t, res)
}

func TestSettingsGateIssues(t *testing.T) {
	src := `
- kind: class
  name: A
  methods:
    - {name: run, body: []}
- kind: function
  name: f
  params: [{name: $a, type: "A|null"}]
  body:
    - {kind: method_call, object: $a, method: run}
    - {kind: return}
    - {kind: echo, values: [1]}
`
	settings := config.DefaultSettings()
	settings.ReportNullableIssues = false
	settings.ReportUnreachableCode = false
	_, res := analyzeWith(t, settings, src)
	expectNoIssues(t, res)

	settings = config.DefaultSettings()
	settings.FindUnusedExpressions = true
	_, res = analyzeWith(t, settings, `
- {kind: assign, target: $x, value: 1}
- $x
`)
	expectIssue(t, res, issue.UnusedStatement)
}

func TestReferences(t *testing.T) {
	res := analyzeUnit(t, `
- kind: class
  name: Used
  methods:
    - {name: run, static: true, body: []}
- kind: class
  name: Unused
- {kind: static_call, class: Used, method: run}
`)
	expectNoIssues(t, res)
	if !res.References.Referenced(codebase.ClassKey("Used")) {
		t.Error("Used should be referenced")
	}
	if res.References.Referenced(codebase.ClassKey("Unused")) {
		t.Error("Unused should not be referenced")
	}
}

func TestAnalysisError(t *testing.T) {
	meta, errs := codebase.Build(decode(t, `[]`))
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errors.Join(errs...))
	}
	// The function is not part of the metadata the analyzer was given.
	_, err := New(meta, config.DefaultSettings()).Analyze(decode(t, `
- {kind: function, name: stray, body: []}
`))
	var ae *AnalysisError
	if !errors.As(err, &ae) {
		t.Fatalf("Analyze error = %v, want an *AnalysisError", err)
	}
}

func TestTryFinallyState(t *testing.T) {
	prog, res := analyzeWith(t, config.DefaultSettings(), `
- kind: class
  name: A
  methods:
    - {name: run, body: []}
- kind: function
  name: early
  params: [{name: $c, type: bool}]
  body:
    - {kind: assign, target: $x, value: null}
    - kind: try
      body:
        - kind: if
          cond: $c
          then:
            - {kind: return}
        - {kind: assign, target: $x, value: {kind: new, class: A}}
      finally:
        - {kind: echo, values: ["done"]}
    - {kind: method_call, object: $x, method: run}
- kind: function
  name: overwritten
  params: [{name: $c, type: bool}]
  body:
    - {kind: assign, target: $x, value: 1}
    - kind: try
      body:
        - {kind: assign, target: $x, value: "s"}
        - kind: if
          cond: $c
          then:
            - {kind: return}
        - {kind: assign, target: $x, value: true}
      finally:
        - {kind: echo, values: ["done"]}
    - {kind: echo, values: [$x]}
`)
	expectNoIssues(t, res)

	values := functionEchoed(t, prog, "overwritten")
	if len(values) != 1 {
		t.Fatalf("got %d echo statements, want 1", len(values))
	}
	if got := inferredType(t, res, values[0]).ID(); got != "true" {
		t.Errorf("$x after try = %s, want true", got)
	}
}

func TestDoWhileBreak(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		possibly bool
	}{
		{"every path defines", `
- kind: function
  name: f
  params: [{name: $c, type: bool}]
  body:
    - kind: do_while
      cond: $c
      body:
        - {kind: assign, target: $x, value: 1}
        - {kind: break}
    - {kind: echo, values: [$x]}
`, false},
		{"only the break path defines", `
- kind: function
  name: f
  params: [{name: $c, type: bool}, {name: $d, type: bool}]
  body:
    - kind: do_while
      cond: $d
      body:
        - kind: if
          cond: $c
          then:
            - {kind: assign, target: $y, value: 1}
            - {kind: break}
    - {kind: echo, values: [$y]}
`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyzeUnit(t, tt.src)
			if got := hasCode(res, issue.PossiblyUndefinedVariable); got != tt.possibly {
				t.Errorf("possibly undefined reported = %v, want %v: %v", got, tt.possibly, res.Issues)
			}
			if hasCode(res, issue.UndefinedVariable) {
				t.Errorf("unexpected undefined variable: %v", res.Issues)
			}
		})
	}
}

func TestPropertyFetchTypes(t *testing.T) {
	prog, res := analyzeWith(t, config.DefaultSettings(), `
- kind: class
  name: A
  properties:
    - {name: $p, type: int}
- kind: class
  name: B
- kind: function
  name: either
  params: [{name: $o, type: "A|B"}]
  body:
    - kind: echo
      values: [{kind: property_fetch, object: $o, property: p}]
- kind: function
  name: nullable
  params: [{name: $o, type: "A|null"}]
  body:
    - kind: echo
      values: [{kind: property_fetch, object: $o, property: p}]
`)
	has := func(u *ts.Union, want func(ts.Atomic) bool) bool {
		for _, a := range u.Types {
			if want(a) {
				return true
			}
		}
		return false
	}
	isInt := func(a ts.Atomic) bool { _, ok := a.(ts.TInt); return ok }
	isNever := func(a ts.Atomic) bool { _, ok := a.(ts.TNever); return ok }
	isNull := func(a ts.Atomic) bool { _, ok := a.(ts.TNull); return ok }

	either := inferredType(t, res, functionEchoed(t, prog, "either")[0])
	if !has(either, isInt) || !has(either, isNever) {
		t.Errorf("(A|B)->p = %s, want int with never for the missing path", either)
	}
	nullable := inferredType(t, res, functionEchoed(t, prog, "nullable")[0])
	if !has(nullable, isInt) || !has(nullable, isNull) {
		t.Errorf("(A|null)->p = %s, want int|null", nullable)
	}
	expectIssue(t, res, issue.PossiblyNullPropertyFetch)
}

func TestPanicIsAnalysisError(t *testing.T) {
	// Analyzing against no metadata dereferences a nil codebase.
	_, err := New(nil, config.DefaultSettings()).Analyze(decode(t, `
- {kind: function, name: f, body: []}
`))
	var ae *AnalysisError
	if !errors.As(err, &ae) {
		t.Fatalf("Analyze error = %v, want an *AnalysisError", err)
	}
	if ae.Panic == nil || len(ae.Stack) == 0 {
		t.Errorf("recovered panic not recorded: %+v", ae)
	}
	if ae.Span.File != "unit.yaml" {
		t.Errorf("span file = %q, want unit.yaml", ae.Span.File)
	}
}
