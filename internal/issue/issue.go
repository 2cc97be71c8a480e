// Package issue defines the diagnostics produced by analysis and the
// per-unit collector they are reported to.
package issue

import (
	"fmt"
	"strings"

	"github.com/funvibe/flowcheck/internal/ast"
)

// Severity of an issue. The values follow the LSP numbering.
type Severity uint8

const (
	Error   Severity = 1
	Warning Severity = 2
	Info    Severity = 3
	Help    Severity = 4
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "help"
	}
}

// Annotation points at a span involved in an issue. The primary
// annotation is where the issue is reported.
type Annotation struct {
	Span    ast.Span
	Message string
	Primary bool
}

// Edit is a safe textual fix: replace the bytes of Span with Replacement.
type Edit struct {
	Span        ast.Span
	Replacement string
}

// Issue is one diagnostic.
type Issue struct {
	Code        Code
	Severity    Severity
	Message     string
	Annotations []Annotation
	Notes       []string
	Help        string
	Edit        *Edit
}

// New returns an issue with the default severity of its code.
func New(code Code, format string, args ...any) *Issue {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Issue{Code: code, Severity: code.Severity(), Message: msg}
}

// At adds the primary annotation.
func (i *Issue) At(span ast.Span, message string) *Issue {
	i.Annotations = append(i.Annotations, Annotation{Span: span, Message: message, Primary: true})
	return i
}

// Also adds a secondary annotation ("property declared here").
func (i *Issue) Also(span ast.Span, message string) *Issue {
	if span.Line == 0 {
		return i
	}
	i.Annotations = append(i.Annotations, Annotation{Span: span, Message: message})
	return i
}

func (i *Issue) WithNote(note string) *Issue {
	i.Notes = append(i.Notes, note)
	return i
}

func (i *Issue) WithHelp(help string) *Issue {
	i.Help = help
	return i
}

func (i *Issue) WithEdit(span ast.Span, replacement string) *Issue {
	i.Edit = &Edit{Span: span, Replacement: replacement}
	return i
}

// Span returns the span of the primary annotation.
func (i *Issue) Span() ast.Span {
	for _, a := range i.Annotations {
		if a.Primary {
			return a.Span
		}
	}
	if len(i.Annotations) > 0 {
		return i.Annotations[0].Span
	}
	return ast.Span{}
}

func (i *Issue) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s[%s]: %s", i.Span(), i.Severity, i.Code, i.Message)
	for _, a := range i.Annotations {
		if a.Primary || a.Message == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n  %s: %s", a.Span, a.Message)
	}
	for _, n := range i.Notes {
		fmt.Fprintf(&sb, "\n  note: %s", n)
	}
	if i.Help != "" {
		fmt.Fprintf(&sb, "\n  help: %s", i.Help)
	}
	return sb.String()
}
