// Package types contains shared types used across the suite-runner service.
package types

import (
	"context"
	"io"
)

// TestStatus represents the possible states of a test case execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// String implements the Stringer interface for TestStatus
func (s TestStatus) String() string {
	return string(s)
}

// Suite is an immutable unit of schedulable work: a named group of test
// cases that are executed together. The runner only reads a suite; it never
// mutates one.
type Suite interface {
	// Name returns the suite's unique name.
	Name() string
	// TestCases returns the declared test case names, ordered and unique.
	TestCases() []string
	// Run executes the suite and returns a status for every declared test
	// case. A returned error means the suite as a whole failed to produce
	// results; the runner then records every declared case as failed.
	Run(ctx context.Context, args SuiteRunArgs) (map[string]TestStatus, error)
}

// SuiteRunArgs carries the per-execution collaborators handed to a suite.
type SuiteRunArgs struct {
	// OutputDir is the suite's freshly created artifact directory.
	OutputDir string
	// Stdout receives everything the suite prints. The runner routes it to
	// the suite's log file, and additionally to the console when output is
	// streamed live.
	Stdout io.Writer
}
