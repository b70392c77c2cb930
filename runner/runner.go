package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/suite-runner/logging"
	"github.com/ethereum-optimism/infra/suite-runner/types"
)

// Reporter accumulates per-case results and renders progress lines.
// Implementations are not required to be goroutine-safe: the runner
// serializes every call under its reporting lock.
type Reporter interface {
	AddResult(result types.CaseResult)
	PrintLatestStatus(totalTests int)
}

// TestRunner defines the interface for executing a run of registered suites
type TestRunner interface {
	// Run executes every suite and blocks until all claimed suites have
	// completed. The returned error is non-nil only when the run was
	// interrupted.
	Run(ctx context.Context) error
	// TotalTestCases returns the number of test cases across all suites.
	TotalTestCases() int
}

// Config holds configuration for creating a new runner
type Config struct {
	Suites      []types.Suite
	Concurrency int  // number of workers; 0 or less means 1
	Verbose     bool // echo every suite's output, announce each test case
	Log         log.Logger
	Files       *logging.RunDirectory
	Reporter    Reporter
	Console     io.Writer // the real console; defaults to os.Stdout
}

// runner struct implements TestRunner interface
type runner struct {
	suites      []types.Suite
	concurrency int
	verbose     bool
	log         log.Logger
	console     *Console
	files       *logging.RunDirectory
	reporter    Reporter
	reportMu    sync.Mutex
	executor    *suiteExecutor
	totalTests  int
	tracer      trace.Tracer
}

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Files == nil {
		return nil, fmt.Errorf("run directory is required")
	}
	if cfg.Reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Console == nil {
		cfg.Console = os.Stdout
	}

	seen := make(map[string]bool, len(cfg.Suites))
	totalTests := 0
	for _, suite := range cfg.Suites {
		if seen[suite.Name()] {
			return nil, fmt.Errorf("duplicate suite name %s", suite.Name())
		}
		seen[suite.Name()] = true
		totalTests += len(suite.TestCases())
	}

	r := &runner{
		suites:      cfg.Suites,
		concurrency: cfg.Concurrency,
		verbose:     cfg.Verbose,
		log:         cfg.Log,
		console:     NewConsole(cfg.Console),
		files:       cfg.Files,
		reporter:    cfg.Reporter,
		totalTests:  totalTests,
		tracer:      otel.Tracer("suite runner"),
	}
	r.executor = &suiteExecutor{
		log:        r.log.New("component", "suite-executor"),
		console:    r.console,
		files:      r.files,
		reporter:   r.reporter,
		reportMu:   &r.reportMu,
		verbose:    r.verbose,
		teeLive:    r.concurrency == 1 && r.verbose,
		totalTests: totalTests,
		tracer:     r.tracer,
	}
	return r, nil
}

// TotalTestCases implements the TestRunner interface
func (r *runner) TotalTestCases() int {
	return r.totalTests
}

// Run implements the TestRunner interface. It drives concurrency-1
// background workers plus one worker inline in the calling goroutine, so a
// single-worker run is plain sequential execution.
func (r *runner) Run(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("suite run %s", r.files.GetRunID()))
	defer span.End()

	start := time.Now()
	r.log.Info("Starting suite run",
		"run_id", r.files.GetRunID(),
		"suites", len(r.suites),
		"testCases", r.totalTests,
		"concurrency", r.concurrency)
	r.announceRun()

	scheduler := NewSuiteScheduler(r.suites)

	var wg sync.WaitGroup
	for i := 1; i < r.concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			if err := r.workerLoop(ctx, scheduler, worker); err != nil {
				// Background workers exit silently on interruption;
				// the inline worker surfaces it.
				r.log.Debug("Worker interrupted", "worker", worker, "err", err)
			}
		}(i)
	}

	runErr := r.workerLoop(ctx, scheduler, 0)
	if runErr == nil {
		runErr = scheduler.WaitForFinish(ctx)
	}
	wg.Wait()

	if runErr != nil {
		r.log.Warn("Suite run interrupted", "elapsed", time.Since(start), "err", runErr)
		return fmt.Errorf("suite run interrupted: %w", runErr)
	}
	r.log.Info("Suite run complete", "elapsed", time.Since(start))
	return nil
}

// announceRun lists every test case when verbose, then the total count.
func (r *runner) announceRun() {
	if !r.verbose {
		return
	}
	console := r.console.Fallback()
	for _, suite := range r.suites {
		for _, name := range suite.TestCases() {
			fmt.Fprintf(console, "Running test: %s.%s\n", suite.Name(), name)
		}
	}
	fmt.Fprintf(console, "Running %d tests\n\n", r.totalTests)
}

// workerLoop pulls suites from the scheduler until the work is exhausted or
// the run is interrupted.
func (r *runner) workerLoop(ctx context.Context, scheduler *SuiteScheduler, worker int) error {
	for {
		suite, err := scheduler.Next(ctx)
		if errors.Is(err, ErrNoMoreSuites) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.runClaimedSuite(ctx, scheduler, worker, suite); err != nil {
			return err
		}
	}
}

// runClaimedSuite guarantees completion accounting for a claimed suite no
// matter how its execution ends.
func (r *runner) runClaimedSuite(ctx context.Context, scheduler *SuiteScheduler, worker int, suite types.Suite) error {
	defer scheduler.MarkDone()
	r.announceStart(suite)
	return r.executor.RunSuite(ctx, worker, suite)
}

// announceStart prints the starting lines for a suite's test cases. The
// reporting lock keeps announcements from different workers from
// interleaving.
func (r *runner) announceStart(suite types.Suite) {
	outputFile := r.files.SuiteOutputFile(suite.Name())

	r.reportMu.Lock()
	defer r.reportMu.Unlock()
	console := r.console.Fallback()
	for _, name := range suite.TestCases() {
		fmt.Fprintf(console, "Starting %s.%s\n", suite.Name(), name)
		fmt.Fprintf(console, "Output file: %s\n", outputFile)
	}
}
