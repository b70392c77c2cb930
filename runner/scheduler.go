package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

// ErrNoMoreSuites signals that every suite has been dispatched. It is the
// normal end-of-work condition for a worker loop, not a failure.
var ErrNoMoreSuites = errors.New("no more suites")

// finishPollInterval bounds how often WaitForFinish re-checks completion.
const finishPollInterval = 50 * time.Millisecond

// SuiteScheduler hands out suites from a fixed ordered list to concurrent
// workers and tracks how many have completed. Dispatch order is the input
// order; completion order is whatever the workers produce.
type SuiteScheduler struct {
	mu        sync.Mutex
	suites    []types.Suite
	nextIndex int
	doneCount int
}

// NewSuiteScheduler creates a scheduler over the given ordered suite list.
// The list is read-only for the scheduler's lifetime.
func NewSuiteScheduler(suites []types.Suite) *SuiteScheduler {
	return &SuiteScheduler{suites: suites}
}

// Next claims the next undispatched suite. It returns ErrNoMoreSuites once
// every suite has been handed out, and the context error when the run has
// been interrupted. The claim and the index advance happen as one atomic
// step, so no suite is ever dispatched twice.
func (s *SuiteScheduler) Next(ctx context.Context) (types.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.nextIndex >= len(s.suites) {
		return nil, ErrNoMoreSuites
	}
	suite := s.suites[s.nextIndex]
	s.nextIndex++
	return suite, nil
}

// MarkDone records completion of a claimed suite. It must be called exactly
// once per suite returned by Next, regardless of the suite's outcome.
func (s *SuiteScheduler) MarkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doneCount++
}

// Finished reports whether every suite has been dispatched and completed.
func (s *SuiteScheduler) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCount == len(s.suites)
}

// WaitForFinish blocks until every suite has completed or the context is
// done, re-checking on a bounded interval rather than busy-spinning.
func (s *SuiteScheduler) WaitForFinish(ctx context.Context) error {
	ticker := time.NewTicker(finishPollInterval)
	defer ticker.Stop()

	for {
		if s.Finished() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
