package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/flowcheck/internal/ast"
	"github.com/funvibe/flowcheck/internal/issue"
	"github.com/funvibe/flowcheck/internal/pipeline"
)

func sampleIssue() *issue.Issue {
	return issue.New(issue.InvalidPropertyAssignmentValue, "A::$i expects int, string assigned").
		At(ast.Span{File: "a.yaml", Line: 4, Column: 7}, "invalid value").
		Also(ast.Span{File: "a.yaml", Line: 2, Column: 3}, "property declared here").
		WithHelp("cast the value")
}

func TestIssuePlain(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Issue(sampleIssue())
	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Errorf("plain output contains escape codes: %q", out)
	}
	for _, want := range []string{
		"[invalid-property-assignment-value]",
		"invalid value",
		"property declared here",
		"help: cast the value",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestIssueColor(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Issue(sampleIssue())
	if !strings.Contains(buf.String(), "\033[31m") {
		t.Errorf("an error should be red: %q", buf.String())
	}
}

func TestResultSummary(t *testing.T) {
	res := &pipeline.Result{
		RunID:        "run-1",
		Units:        []pipeline.UnitSummary{{Path: "a.yaml"}, {Path: "b.yaml"}},
		Issues:       []*issue.Issue{sampleIssue()},
		Unanalyzable: []pipeline.Failure{{Path: "b.yaml", Err: errors.New("bad unit")}},
	}
	var buf bytes.Buffer
	New(&buf, false).Result(res)
	out := buf.String()
	if !strings.Contains(out, "b.yaml: unanalyzable: bad unit") {
		t.Errorf("missing failure line in %q", out)
	}
	if !strings.Contains(out, "2 units, 1 errors, 0 warnings, 1 unanalyzable (run run-1)") {
		t.Errorf("missing summary in %q", out)
	}
	if !Failed(res) {
		t.Error("Failed = false, want true")
	}
	if Failed(&pipeline.Result{}) {
		t.Error("an empty run should not fail")
	}
}
