package types

import "time"

// CaseResult captures the reported outcome of a single test case.
type CaseResult struct {
	SuiteName  string
	CaseName   string
	Status     TestStatus
	Duration   time.Duration // the case's even share of the suite's wall-clock time
	OutputFile string        // path to the suite's captured output log
}

// TestName returns the fully qualified test case name.
func (r CaseResult) TestName() string {
	return r.SuiteName + "." + r.CaseName
}
