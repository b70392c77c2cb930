package suiterunner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/suite-runner/logging"
	"github.com/ethereum-optimism/infra/suite-runner/metrics"
	"github.com/ethereum-optimism/infra/suite-runner/registry"
	"github.com/ethereum-optimism/infra/suite-runner/reporting"
	"github.com/ethereum-optimism/infra/suite-runner/runner"
)

// RunResult captures the outcome of one complete suite run.
type RunResult struct {
	RunID       string
	Report      *reporting.TestReport
	Duration    time.Duration
	Interrupted bool
	OutputDir   string
}

// Status returns the run's overall status label.
func (r *RunResult) Status() string {
	if r.Interrupted {
		return "interrupted"
	}
	return r.Report.OverallStatus().String()
}

// RunExecutor is responsible for executing suite runs
type RunExecutor interface {
	RunSuites(ctx context.Context) (*RunResult, error)
}

// DefaultRunExecutor is the default implementation of RunExecutor
type DefaultRunExecutor struct {
	logger   log.Logger
	registry *registry.Registry
	config   *Config
}

// NewDefaultRunExecutor creates a new DefaultRunExecutor
func NewDefaultRunExecutor(logger log.Logger, reg *registry.Registry, config *Config) *DefaultRunExecutor {
	return &DefaultRunExecutor{
		logger:   logger,
		registry: reg,
		config:   config,
	}
}

// RunSuites executes every registered suite once. Each run gets a fresh run
// ID and its own directory under the configured log dir. The returned error
// covers runtime failures only; test case failures and interruption are
// reported through the RunResult.
func (e *DefaultRunExecutor) RunSuites(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()
	e.logger.Info("Running all suites...", "run_id", runID)

	files, err := logging.NewRunDirectory(e.logger, e.config.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	report := reporting.NewTestReport(os.Stdout)
	testRunner, err := runner.NewTestRunner(runner.Config{
		Suites:      e.registry.GetSuites(),
		Concurrency: e.config.Concurrency,
		Verbose:     e.config.Verbose,
		Log:         e.logger,
		Files:       files,
		Reporter:    report,
		Console:     os.Stdout,
	})
	if err != nil {
		_ = files.Complete()
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	start := time.Now()
	runErr := testRunner.Run(ctx)
	elapsed := time.Since(start)
	if runErr != nil {
		e.logger.Warn("Suite run interrupted", "run_id", runID, "error", runErr)
	}

	result := &RunResult{
		RunID:       runID,
		Report:      report,
		Duration:    elapsed,
		Interrupted: runErr != nil,
		OutputDir:   files.GetDirectory(),
	}

	summary := report.Summary(runID, elapsed, result.Interrupted)
	if err := files.LogSummary(summary); err != nil {
		e.logger.Error("Failed to write run summary", "run_id", runID, "error", err)
	}
	if err := files.Complete(); err != nil {
		e.logger.Error("Failed to close run logs", "run_id", runID, "error", err)
	}

	for _, res := range report.Results() {
		metrics.RecordCaseResult(runID, res.SuiteName, res.CaseName, res.Status)
	}
	stats := report.Stats()
	metrics.RecordRun(runID, result.Status(), stats.Total, stats.Passed, stats.Failed, elapsed)

	e.logger.Info("Suite run completed",
		"run_id", runID,
		"status", result.Status(),
		"duration", elapsed,
		"outputDir", result.OutputDir)
	return result, nil
}
