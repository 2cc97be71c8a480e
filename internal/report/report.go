// Package report renders the issues of a run for a terminal.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/flowcheck/internal/issue"
	"github.com/funvibe/flowcheck/internal/pipeline"
)

// ColorEnabled reports whether f is a terminal that accepts ANSI colour.
func ColorEnabled(f *os.File) bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// Printer writes issues and run summaries.
type Printer struct {
	w     io.Writer
	color bool
}

// New returns a printer for w. Colour is used only when enabled.
func New(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

// ForFile returns a printer for f with colour detected from the terminal.
func ForFile(f *os.File) *Printer {
	return New(f, ColorEnabled(f))
}

const (
	red    = 31
	yellow = 33
	blue   = 34
	cyan   = 36
	bold   = 1
)

func (p *Printer) fg(code int, s string) string {
	if !p.color {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[39m", code, s)
}

func (p *Printer) style(code int, s string) string {
	if !p.color {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[22m", code, s)
}

func (p *Printer) severity(s issue.Severity) string {
	switch s {
	case issue.Error:
		return p.fg(red, s.String())
	case issue.Warning:
		return p.fg(yellow, s.String())
	case issue.Info:
		return p.fg(blue, s.String())
	default:
		return p.fg(cyan, s.String())
	}
}

// Issue writes one issue with its secondary annotations, notes and help.
func (p *Printer) Issue(is *issue.Issue) {
	fmt.Fprintf(p.w, "%s: %s[%s]: %s\n", p.style(bold, is.Span().String()), p.severity(is.Severity), is.Code, is.Message)
	for _, a := range is.Annotations {
		if a.Primary {
			if a.Message != "" {
				fmt.Fprintf(p.w, "  %s\n", a.Message)
			}
			continue
		}
		fmt.Fprintf(p.w, "  %s: %s\n", a.Span, a.Message)
	}
	for _, n := range is.Notes {
		fmt.Fprintf(p.w, "  %s %s\n", p.style(bold, "note:"), n)
	}
	if is.Help != "" {
		fmt.Fprintf(p.w, "  %s %s\n", p.style(bold, "help:"), is.Help)
	}
}

// Result writes every issue of a run followed by a summary line.
func (p *Printer) Result(res *pipeline.Result) {
	for _, is := range res.Issues {
		p.Issue(is)
	}
	for _, f := range res.Unanalyzable {
		fmt.Fprintf(p.w, "%s: %s: %v\n", p.style(bold, f.Path), p.fg(red, "unanalyzable"), f.Err)
	}

	var errs, warnings int
	for _, is := range res.Issues {
		switch is.Severity {
		case issue.Error:
			errs++
		case issue.Warning:
			warnings++
		}
	}
	summary := fmt.Sprintf("%d units, %d errors, %d warnings, %d unanalyzable",
		len(res.Units), errs, warnings, len(res.Unanalyzable))
	if errs > 0 || len(res.Unanalyzable) > 0 {
		summary = p.fg(red, summary)
	}
	fmt.Fprintf(p.w, "%s (run %s)\n", summary, res.RunID)
}

// Failed reports whether a run has errors or unanalyzable units.
func Failed(res *pipeline.Result) bool {
	if len(res.Unanalyzable) > 0 {
		return true
	}
	for _, is := range res.Issues {
		if is.Severity == issue.Error {
			return true
		}
	}
	return false
}
