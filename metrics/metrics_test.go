package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("suite failed"),
		},
		{
			name: "error with special chars",
			err:  errors.New("suite@failed#42"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("suite   failed"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("suite__failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errToLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("test_error")
}

func TestRecordErrorDetails(t *testing.T) {
	RecordErrorDetails("run", nil)
	RecordErrorDetails("run", errors.New("sample error"))
}

func TestRecordCaseResult(t *testing.T) {
	RecordCaseResult("run1", "smoke", "boot", types.TestStatusPass)
	RecordCaseResult("run1", "smoke", "api", types.TestStatusFail)
	RecordCaseResult("run1", "smoke", "slow", types.TestStatusSkip)

	// Invalid results are dropped without panicking.
	RecordCaseResult("run1", "smoke", "bogus", types.TestStatus("maybe"))
}

func TestRecordRun(t *testing.T) {
	RecordRun("run1", "pass", 4, 4, 0, time.Second)
	RecordRun("run2", "fail", 4, 3, 1, 2*time.Second)
}
