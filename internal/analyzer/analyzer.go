package analyzer

import (
	"fmt"
	"runtime/debug"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/flow"
	"github.com/funvibe/flowcheck/internal/issue"
	ts "github.com/funvibe/flowcheck/internal/typesystem"
)

// Analyzer checks function bodies against populated codebase metadata.
// Each Analyze call gets a fresh overlay of inferred facts, so results
// depend only on the unit. An Analyzer must not be shared between
// goroutines; create one per worker.
type Analyzer struct {
	meta     *codebase.Metadata
	settings config.Settings
}

// New creates an Analyzer over populated metadata.
func New(meta *codebase.Metadata, settings config.Settings) *Analyzer {
	return &Analyzer{
		meta:     meta,
		settings: settings,
	}
}

// Result is the outcome of analyzing one unit.
type Result struct {
	// Types holds the inferred type of every analyzed expression.
	Types map[ast.Expression]*ts.Union
	// Issues in report order.
	Issues     []*issue.Issue
	References *codebase.SymbolReferences
}

// TypeOf returns the inferred type of an expression.
func (r *Result) TypeOf(e ast.Expression) (*ts.Union, bool) {
	t, ok := r.Types[e]
	return t, ok
}

// AnalysisError reports an internal invariant violation or a panic
// during analysis. The unit it occurred in cannot be analyzed.
type AnalysisError struct {
	Span    ast.Span
	Message string
	// Panic and Stack are set when the error was recovered from a panic
	// other than an invariant violation.
	Panic any
	Stack []byte
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: analysis error: %s", e.Span, e.Message)
}

// Analyze walks every function, method and top-level statement of prog.
func (a *Analyzer) Analyze(prog *ast.Program) (res *Result, err error) {
	w := &walker{
		meta:      a.meta,
		overlay:   codebase.NewOverlay(a.meta),
		settings:  a.settings,
		collector: issue.NewCollector(),
		TypeMap:   make(map[ast.Expression]*ts.Union),
		refs:      codebase.NewSymbolReferences(),
		file:      prog.File,
	}
	defer func() {
		if r := recover(); r != nil {
			ae, ok := r.(*AnalysisError)
			if !ok {
				ae = &AnalysisError{
					Span:    ast.Span{File: prog.File},
					Message: fmt.Sprintf("panic: %v", r),
					Panic:   r,
					Stack:   debug.Stack(),
				}
			}
			res, err = nil, ae
		}
	}()
	w.program(prog)
	return &Result{Types: w.TypeMap, Issues: w.collector.Issues(), References: w.refs}, nil
}

type walker struct {
	meta      *codebase.Metadata
	overlay   *codebase.Overlay
	settings  config.Settings
	collector *issue.Collector
	TypeMap   map[ast.Expression]*ts.Union
	refs      *codebase.SymbolReferences
	file      string
	scope     *scope
}

// fail aborts the unit with an AnalysisError.
func (w *walker) fail(span ast.Span, format string, args ...any) {
	panic(&AnalysisError{Span: span, Message: fmt.Sprintf(format, args...)})
}

// report adds an issue; the collector drops duplicates at the same
// position and, during scratch loop passes, everything.
func (w *walker) report(i *issue.Issue) {
	w.collector.Report(i)
}

// quietly runs f with issues discarded.
func (w *walker) quietly(f func()) {
	saved := w.collector
	w.collector = issue.NewDiscard()
	defer func() { w.collector = saved }()
	f()
}

func (w *walker) program(prog *ast.Program) {
	top := &scope{referrer: prog.File}
	ctx := flow.NewBlockContext()
	var script []ast.Statement
	for _, s := range prog.Statements {
		switch d := s.(type) {
		case *ast.FunctionDeclaration:
			w.functionDeclaration(d)
		case *ast.ClassDeclaration:
			w.classDeclaration(d)
		default:
			script = append(script, s)
		}
	}
	w.withScope(top, func() {
		w.statements(script, ctx)
	})
}

func (w *walker) withScope(s *scope, f func()) {
	saved := w.scope
	w.scope = s
	defer func() { w.scope = saved }()
	f()
}
