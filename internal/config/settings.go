package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the flat analysis configuration.
//
// Every toggle gates exactly one family of issues and never changes how
// types are computed.
type Settings struct {
	// ReportMixedIssues enables Mixed* issues (MixedArgument, MixedMethodCall, ...).
	ReportMixedIssues bool `yaml:"report_mixed_issues"`

	// ReportNullableIssues enables PossiblyNull* issues.
	ReportNullableIssues bool `yaml:"report_nullable_issues"`

	// MemoizeProperties makes `$this->prop` fetches remember the type they
	// resolved to, so that a second fetch in the same block sees the
	// narrowed type instead of the declared one.
	MemoizeProperties bool `yaml:"memoize_properties"`

	// AllowPossiblyUndefinedArrayKeys silences PossiblyUndefinedArrayOffset.
	AllowPossiblyUndefinedArrayKeys bool `yaml:"allow_possibly_undefined_array_keys"`

	// FindUnusedExpressions reports expression statements without effect.
	FindUnusedExpressions bool `yaml:"find_unused_expressions"`

	// ReportUnreachableCode reports statements after return/break/continue.
	ReportUnreachableCode bool `yaml:"report_unreachable_code"`

	// CheckLoopIteration reports loops that can never reach a second iteration.
	CheckLoopIteration bool `yaml:"check_loop_iteration"`

	// ReportCoercions reports *TypeCoercion issues. When disabled, coercions
	// are silently accepted.
	ReportCoercions bool `yaml:"report_coercions"`

	// Exclude lists glob patterns of units that are skipped entirely.
	Exclude []string `yaml:"exclude,omitempty"`

	// Workers is the number of parallel workers per phase. Zero means DefaultWorkers.
	Workers int `yaml:"workers,omitempty"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		ReportMixedIssues:     true,
		ReportNullableIssues:  true,
		MemoizeProperties:     true,
		ReportUnreachableCode: true,
		CheckLoopIteration:    true,
		ReportCoercions:       true,
		Workers:               DefaultWorkers,
	}
}

// LoadSettings reads and parses a flowcheck.yaml file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses flowcheck.yaml content from bytes.
// Keys missing from the document keep their default value.
// The path argument is used only for error messages.
func ParseSettings(data []byte, path string) (*Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(path); err != nil {
		return nil, err
	}
	s.setDefaults()
	return &s, nil
}

func (s *Settings) validate(path string) error {
	if s.Workers < 0 {
		return fmt.Errorf("%s: workers must not be negative, got %d", path, s.Workers)
	}
	for i, pattern := range s.Exclude {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%s: exclude[%d] is empty", path, i)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%s: exclude[%d] %q: %w", path, i, pattern, err)
		}
	}
	return nil
}

func (s *Settings) setDefaults() {
	if s.Workers == 0 {
		s.Workers = DefaultWorkers
	}
}

// IsExcluded reports whether a unit path matches one of the exclude patterns.
// Patterns are matched against the full path and against the base name.
func (s *Settings) IsExcluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range s.Exclude {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
