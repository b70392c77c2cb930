package types

import (
	"fmt"
	"time"
)

// SuiteKind selects the execution backend for a registered suite
type SuiteKind string

// String implements the Stringer interface for SuiteKind
func (k SuiteKind) String() string {
	return string(k)
}

// SuiteKind enum values
const (
	// SuiteKindCommand runs an arbitrary executable that reports per-case
	// results through a results file in its output directory.
	SuiteKindCommand SuiteKind = "command"
	// SuiteKindGoTest runs the test functions of a Go package.
	SuiteKindGoTest SuiteKind = "gotest"
)

// SuiteDefinition is one entry in the suite registry file
type SuiteDefinition struct {
	Name    string         `yaml:"name"`
	Kind    SuiteKind      `yaml:"kind"`
	Run     []string       `yaml:"run,omitempty"`     // command kind: argv to execute
	Package string         `yaml:"package,omitempty"` // gotest kind: package path
	WorkDir string         `yaml:"workdir,omitempty"`
	Timeout *time.Duration `yaml:"timeout,omitempty"`
	Cases   []string       `yaml:"cases,omitempty"` // command kind: declared test cases
}

// RegistryConfig represents the complete suite registry file
type RegistryConfig struct {
	Suites []SuiteDefinition `yaml:"suites"`
}

// Check validates a suite definition for its declared kind.
func (d SuiteDefinition) Check() error {
	if d.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	switch d.Kind {
	case SuiteKindCommand:
		if len(d.Run) == 0 {
			return fmt.Errorf("suite %s: command suites require a run argv", d.Name)
		}
		if len(d.Cases) == 0 {
			return fmt.Errorf("suite %s: command suites require declared cases", d.Name)
		}
		seen := make(map[string]bool, len(d.Cases))
		for _, c := range d.Cases {
			if c == "" {
				return fmt.Errorf("suite %s: empty test case name", d.Name)
			}
			if seen[c] {
				return fmt.Errorf("suite %s: duplicate test case %s", d.Name, c)
			}
			seen[c] = true
		}
	case SuiteKindGoTest:
		if d.Package == "" {
			return fmt.Errorf("suite %s: gotest suites require a package", d.Name)
		}
		if d.WorkDir == "" {
			return fmt.Errorf("suite %s: gotest suites require a workdir", d.Name)
		}
	case "":
		return fmt.Errorf("suite %s: kind is required", d.Name)
	default:
		return fmt.Errorf("suite %s: unknown kind %q", d.Name, d.Kind)
	}
	return nil
}
