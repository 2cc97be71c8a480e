package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/issue"
)

// Processor is one stage of a run.
type Processor interface {
	Name() string
	Process(ctx *Context) *Context
}

// Context carries the state of one run between the stages.
type Context struct {
	Ctx      context.Context
	Settings config.Settings
	Units    []Unit

	// Programs is index-aligned with Units; nil for units that were
	// excluded or could not be decoded.
	Programs []*ast.Program
	partials []*codebase.Metadata
	Meta     *codebase.Metadata

	// unitIssues is index-aligned with Units.
	unitIssues   [][]*issue.Issue
	declIssues   []*issue.Issue
	references   []*codebase.SymbolReferences
	Unanalyzable []Failure

	// Err stops the run; it is set when the context is cancelled.
	Err    error
	Result *Result
}

// Result is the outcome of a run.
type Result struct {
	RunID   string
	Started time.Time
	Elapsed time.Duration
	Units   []UnitSummary
	// Issues sorted by file, line, column and code.
	Issues       []*issue.Issue
	Unanalyzable []Failure
	References   *codebase.SymbolReferences
}

// UnitSummary describes one unit of a run.
type UnitSummary struct {
	Path     string
	Hash     string
	Issues   int
	Excluded bool
	Failed   bool
}

// Failure is a unit that could not be decoded or analyzed.
type Failure struct {
	Path string
	Err  error
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default returns the compile, link, analyze and collect stages.
func Default() *Pipeline {
	return New(&compileStage{}, &linkStage{}, &analyzeStage{}, &collectStage{})
}

// Run executes the pipeline. A failing unit does not stop the others;
// only cancellation does.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		if ctx.Err != nil {
			break
		}
		t := time.Now()
		ctx = processor.Process(ctx)
		slog.Info("pass.timing", "pass", processor.Name(), "elapsed", time.Since(t))
	}
	return ctx
}

// Run analyzes units with the default stages.
func Run(ctx context.Context, units []Unit, settings config.Settings) (*Result, error) {
	if settings.Workers <= 0 {
		settings.Workers = config.DefaultWorkers
	}
	started := time.Now()
	runID := uuid.NewString()
	slog.Info("pipeline.start", "run", runID, "units", len(units))

	pc := Default().Run(&Context{Ctx: ctx, Settings: settings, Units: units})
	if pc.Err != nil {
		return nil, pc.Err
	}
	res := pc.Result
	res.RunID = runID
	res.Started = started
	res.Elapsed = time.Since(started)
	slog.Info("pipeline.done", "run", runID, "issues", len(res.Issues), "unanalyzable", len(res.Unanalyzable), "elapsed", res.Elapsed)
	return res, nil
}
