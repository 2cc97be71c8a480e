package pipeline

import (
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/funvibe/flowcheck/internal/analyzer"
	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/codebase"
	"github.com/funvibe/flowcheck/internal/issue"
)

// compileStage decodes and scans every unit in parallel. Each worker
// produces partial metadata for its unit only.
type compileStage struct{}

func (compileStage) Name() string { return "compile" }

func (compileStage) Process(pc *Context) *Context {
	n := len(pc.Units)
	pc.Programs = make([]*ast.Program, n)
	pc.partials = make([]*codebase.Metadata, n)
	scanErrs := make([][]error, n)
	decodeErrs := make([]error, n)

	g, gctx := errgroup.WithContext(pc.Ctx)
	g.SetLimit(pc.workers())
	for i, u := range pc.Units {
		if pc.Settings.IsExcluded(u.Path) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			prog, err := ast.DecodeYAML(u.Data, u.Path)
			if err != nil {
				decodeErrs[i] = err
				return nil
			}
			meta, errs := codebase.Scan(prog)
			pc.Programs[i] = prog
			pc.partials[i] = meta
			scanErrs[i] = errs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		pc.Err = err
		return pc
	}

	for i, u := range pc.Units {
		if err := decodeErrs[i]; err != nil {
			slog.Warn("pipeline.decode.err", "path", u.Path, "err", err)
			pc.Unanalyzable = append(pc.Unanalyzable, Failure{Path: u.Path, Err: err})
		}
		pc.addDeclarationErrors(scanErrs[i])
	}
	slog.Info("pipeline.compile", "units", n, "failed", len(pc.Unanalyzable))
	return pc
}

// linkStage merges the partial metadata after the builtins and populates
// it on a single goroutine.
type linkStage struct{}

func (linkStage) Name() string { return "link" }

func (linkStage) Process(pc *Context) *Context {
	partials := []*codebase.Metadata{codebase.Builtins()}
	for _, p := range pc.partials {
		if p != nil {
			partials = append(partials, p)
		}
	}
	meta, errs := codebase.Merge(partials...)
	pc.addDeclarationErrors(errs)
	pc.addDeclarationErrors(meta.Populate())
	pc.Meta = meta
	pc.partials = nil
	slog.Info("pipeline.link", "classes", len(meta.Classes), "functions", len(meta.Functions))
	return pc
}

// analyzeStage analyzes the decoded units against the shared metadata.
// Every worker owns one analyzer and with it a private overlay.
type analyzeStage struct{}

func (analyzeStage) Name() string { return "analyze" }

func (analyzeStage) Process(pc *Context) *Context {
	n := len(pc.Units)
	pc.unitIssues = make([][]*issue.Issue, n)
	pc.references = make([]*codebase.SymbolReferences, n)
	failures := make([]error, n)

	var pending []int
	for i, prog := range pc.Programs {
		if prog != nil {
			pending = append(pending, i)
		}
	}
	workers := min(pc.workers(), len(pending))

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(pc.Ctx)
	for range workers {
		g.Go(func() error {
			a := analyzer.New(pc.Meta, pc.Settings)
			for i := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := a.Analyze(pc.Programs[i])
				if err != nil {
					failures[i] = err
					continue
				}
				pc.unitIssues[i] = res.Issues
				pc.references[i] = res.References
			}
			return nil
		})
	}
feed:
	for _, i := range pending {
		select {
		case jobs <- i:
		case <-gctx.Done():
			break feed
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		pc.Err = err
		return pc
	}
	if err := pc.Ctx.Err(); err != nil {
		pc.Err = err
		return pc
	}

	for i, err := range failures {
		if err == nil {
			continue
		}
		var ae *analyzer.AnalysisError
		if errors.As(err, &ae) {
			slog.Warn("pipeline.analyze.err", "path", pc.Units[i].Path, "span", ae.Span.String(), "err", ae.Message)
			if ae.Stack != nil {
				slog.Debug("pipeline.analyze.panic", "path", pc.Units[i].Path, "stack", string(ae.Stack))
			}
		}
		pc.Unanalyzable = append(pc.Unanalyzable, Failure{Path: pc.Units[i].Path, Err: err})
	}
	slog.Info("pipeline.analyze", "units", len(pending), "workers", workers)
	return pc
}

// collectStage sorts the issues, merges the reference graphs and builds
// the result.
type collectStage struct{}

func (collectStage) Name() string { return "collect" }

func (collectStage) Process(pc *Context) *Context {
	res := &Result{References: codebase.NewSymbolReferences()}
	for i := range pc.Units {
		res.Issues = append(res.Issues, pc.unitIssues[i]...)
		if r := pc.references[i]; r != nil {
			res.References.Merge(r)
		}
	}
	res.Issues = append(res.Issues, pc.declIssues...)
	issue.Sort(res.Issues)

	perFile := make(map[string]int)
	for _, is := range res.Issues {
		perFile[is.Span().File]++
	}
	failed := make(map[string]bool)
	for _, f := range pc.Unanalyzable {
		failed[f.Path] = true
	}
	for _, u := range pc.Units {
		res.Units = append(res.Units, UnitSummary{
			Path:     u.Path,
			Hash:     u.Hash(),
			Issues:   perFile[u.Path],
			Excluded: pc.Settings.IsExcluded(u.Path),
			Failed:   failed[u.Path],
		})
	}
	res.Unanalyzable = pc.Unanalyzable
	pc.Result = res
	return pc
}

func (pc *Context) workers() int {
	return max(pc.Settings.Workers, 1)
}

func (pc *Context) addDeclarationErrors(errs []error) {
	for _, err := range errs {
		if is := declarationIssue(err); is != nil {
			pc.declIssues = append(pc.declIssues, is)
		} else {
			slog.Warn("pipeline.declaration.err", "err", err)
		}
	}
}

// declarationIssue turns a scan, merge or populate error into an issue.
func declarationIssue(err error) *issue.Issue {
	var dup *codebase.DuplicateSymbolError
	var anc *codebase.AncestorError
	var te *codebase.TypeError
	switch {
	case errors.As(err, &dup):
		return issue.New(issue.DuplicateDefinition, "%s %s is already declared", dup.Kind, dup.Name).
			At(dup.Span, "duplicate declaration").
			Also(dup.First, "first declared here")
	case errors.As(err, &anc):
		return issue.New(issue.UnknownAncestor, "%s: %s %s", anc.Class, anc.Reason, anc.Ancestor).
			At(anc.Span, anc.Reason)
	case errors.As(err, &te):
		return issue.New(issue.InvalidTypeDeclaration, "invalid type declaration").
			At(te.Span, te.Err.Error())
	}
	return nil
}
