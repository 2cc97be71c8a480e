package issue

import (
	"fmt"
	"sort"
)

// Collector accumulates the issues of one unit analysis. It is owned by a
// single goroutine. Issues are deduplicated by line, column and code.
type Collector struct {
	seen    map[string]bool
	issues  []*Issue
	discard bool
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]bool)}
}

// NewDiscard returns a collector that drops everything. Loop bodies are
// analyzed with one until their variable types settle.
func NewDiscard() *Collector {
	return &Collector{discard: true}
}

// IsDiscarding reports whether reports are dropped.
func (c *Collector) IsDiscarding() bool { return c.discard }

// Report adds an issue unless an issue with the same code was already
// reported at the same position.
func (c *Collector) Report(i *Issue) {
	if c.discard {
		return
	}
	sp := i.Span()
	key := fmt.Sprintf("%s:%d:%d:%s", sp.File, sp.Line, sp.Column, i.Code)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.issues = append(c.issues, i)
}

// Issues returns the issues in report order.
func (c *Collector) Issues() []*Issue { return c.issues }

// Len returns the number of issues.
func (c *Collector) Len() int { return len(c.issues) }

// Has reports whether an issue with the code was reported.
func (c *Collector) Has(code Code) bool {
	for _, i := range c.issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the codes of the issues in report order.
func (c *Collector) Codes() []Code {
	out := make([]Code, len(c.issues))
	for i, is := range c.issues {
		out[i] = is.Code
	}
	return out
}

// Sort orders issues by file, line, column and code. It is stable, so
// issues at the same position keep report order.
func Sort(issues []*Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		sa, sb := issues[a].Span(), issues[b].Span()
		if sa.File != sb.File {
			return sa.File < sb.File
		}
		if sa.Line != sb.Line {
			return sa.Line < sb.Line
		}
		if sa.Column != sb.Column {
			return sa.Column < sb.Column
		}
		return issues[a].Code < issues[b].Code
	})
}
