package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSettingsDefaults(t *testing.T) {
	s, err := ParseSettings([]byte("report_mixed_issues: false\n"), "flowcheck.yaml")
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.ReportMixedIssues {
		t.Error("report_mixed_issues should be off")
	}
	if !s.ReportNullableIssues || !s.ReportCoercions {
		t.Error("keys missing from the document should keep their defaults")
	}
	if s.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", s.Workers, DefaultWorkers)
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"negative workers", "workers: -2\n", "workers must not be negative"},
		{"empty pattern", "exclude: [\"\"]\n", "exclude[0] is empty"},
		{"bad pattern", "exclude: [\"[a\"]\n", "exclude[0]"},
		{"bad yaml", "workers: [1\n", "parsing flowcheck.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.data), "flowcheck.yaml")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	if err := os.WriteFile(path, []byte("workers: 3\nfind_unused_expressions: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Workers != 3 || !s.FindUnusedExpressions {
		t.Errorf("settings = %+v", s)
	}
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestIsExcluded(t *testing.T) {
	s := Settings{Exclude: []string{"vendor_*", "gen/*.yaml"}}
	tests := []struct {
		path string
		want bool
	}{
		{"vendor_lib.yaml", true},
		{"src/vendor_lib.yaml", true},
		{"gen/model.yaml", true},
		{"src/main.yaml", false},
	}
	for _, tt := range tests {
		if got := s.IsExcluded(tt.path); got != tt.want {
			t.Errorf("IsExcluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
