// Package reporting accumulates test case results for a run and renders
// progress lines, aggregate statistics and the plain-text run summary.
package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum-optimism/infra/suite-runner/types"
	"github.com/ethereum-optimism/infra/suite-runner/ui"
)

// ReportStats contains aggregated statistics for a suite run
type ReportStats struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration // summed attributed case durations
}

// TestReport accumulates per-case results for one run and prints a progress
// line as each result arrives.
//
// A TestReport is not safe for concurrent use. The runner serializes every
// call under its reporting lock; see runner.Reporter.
type TestReport struct {
	out     io.Writer
	results []types.CaseResult
	stats   ReportStats
}

// NewTestReport creates a report writing progress lines to out, which
// defaults to os.Stdout.
func NewTestReport(out io.Writer) *TestReport {
	if out == nil {
		out = os.Stdout
	}
	return &TestReport{out: out}
}

// AddResult appends one test case outcome. Results are append-only and are
// never mutated after the fact.
func (r *TestReport) AddResult(result types.CaseResult) {
	r.results = append(r.results, result)
	r.stats.Total++
	r.stats.Duration += result.Duration
	switch result.Status {
	case types.TestStatusPass:
		r.stats.Passed++
	case types.TestStatusSkip:
		r.stats.Skipped++
	default:
		r.stats.Failed++
	}
}

// PrintLatestStatus emits a one-line progress update for the most recently
// added result, with the running pass/skip/fail tally against totalTests.
func (r *TestReport) PrintLatestStatus(totalTests int) {
	if len(r.results) == 0 {
		return
	}
	latest := r.results[len(r.results)-1]
	fmt.Fprintf(r.out, "%s (P=%d S=%d F=%d T=%d) %s (%s)\n",
		ui.StatusSymbol(latest.Status),
		r.stats.Passed, r.stats.Skipped, r.stats.Failed, totalTests,
		latest.TestName(), formatDuration(latest.Duration))
}

// Results returns the accumulated results in reporting order. The returned
// slice is owned by the report and must not be mutated.
func (r *TestReport) Results() []types.CaseResult {
	return r.results
}

// Stats returns the aggregate statistics accumulated so far.
func (r *TestReport) Stats() ReportStats {
	return r.stats
}

// HasFailures reports whether any test case failed.
func (r *TestReport) HasFailures() bool {
	return r.stats.Failed > 0
}

// OverallStatus collapses the run's results into a single status.
func (r *TestReport) OverallStatus() types.TestStatus {
	switch {
	case r.stats.Failed > 0:
		return types.TestStatusFail
	case r.stats.Skipped > 0:
		return types.TestStatusSkip
	default:
		return types.TestStatusPass
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
