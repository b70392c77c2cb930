package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

func caseResult(suite, name string, status types.TestStatus, d time.Duration) types.CaseResult {
	return types.CaseResult{
		SuiteName: suite,
		CaseName:  name,
		Status:    status,
		Duration:  d,
	}
}

func TestAddResultAccumulatesStats(t *testing.T) {
	r := NewTestReport(&bytes.Buffer{})

	r.AddResult(caseResult("smoke", "boot", types.TestStatusPass, 100*time.Millisecond))
	r.AddResult(caseResult("smoke", "api", types.TestStatusFail, 200*time.Millisecond))
	r.AddResult(caseResult("smoke", "slow", types.TestStatusSkip, 50*time.Millisecond))

	stats := r.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Passed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 350*time.Millisecond, stats.Duration)
	assert.True(t, r.HasFailures())
}

func TestOverallStatus(t *testing.T) {
	testCases := []struct {
		name     string
		statuses []types.TestStatus
		expected types.TestStatus
	}{
		{"empty report passes", nil, types.TestStatusPass},
		{"all passed", []types.TestStatus{types.TestStatusPass, types.TestStatusPass}, types.TestStatusPass},
		{"skip without failure", []types.TestStatus{types.TestStatusPass, types.TestStatusSkip}, types.TestStatusSkip},
		{"failure wins", []types.TestStatus{types.TestStatusPass, types.TestStatusSkip, types.TestStatusFail}, types.TestStatusFail},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewTestReport(&bytes.Buffer{})
			for i, status := range tc.statuses {
				r.AddResult(caseResult("smoke", string(rune('a'+i)), status, 0))
			}
			assert.Equal(t, tc.expected, r.OverallStatus())
		})
	}
}

func TestPrintLatestStatus(t *testing.T) {
	var out bytes.Buffer
	r := NewTestReport(&out)

	r.PrintLatestStatus(4)
	assert.Empty(t, out.String(), "an empty report prints nothing")

	r.AddResult(caseResult("smoke", "boot", types.TestStatusPass, 150*time.Millisecond))
	r.PrintLatestStatus(4)
	assert.Equal(t, "✓ pass (P=1 S=0 F=0 T=4) smoke.boot (150ms)\n", out.String())

	out.Reset()
	r.AddResult(caseResult("smoke", "api", types.TestStatusFail, 2500*time.Millisecond))
	r.PrintLatestStatus(4)
	assert.Equal(t, "✗ fail (P=1 S=0 F=1 T=4) smoke.api (2.5s)\n", out.String())
}

func TestResultsPreserveReportingOrder(t *testing.T) {
	r := NewTestReport(&bytes.Buffer{})
	r.AddResult(caseResult("beta", "one", types.TestStatusPass, 0))
	r.AddResult(caseResult("alpha", "one", types.TestStatusPass, 0))
	r.AddResult(caseResult("beta", "two", types.TestStatusPass, 0))

	results := r.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "beta.one", results[0].TestName())
	assert.Equal(t, "alpha.one", results[1].TestName())
	assert.Equal(t, "beta.two", results[2].TestName())
}
