package suiterunner

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/suite-runner/exitcodes"
	"github.com/ethereum-optimism/infra/suite-runner/metrics"
	"github.com/ethereum-optimism/infra/suite-runner/registry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// suiteRunner implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &suiteRunner{}

// suiteRunner runs the registered suites, once or on an interval.
type suiteRunner struct {
	ctx       context.Context
	config    *Config
	version   string
	registry  *registry.Registry
	executor  RunExecutor
	scheduler RunScheduler
	result    *RunResult // most recently completed run

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*suiteRunner, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating suite-runner with config",
		"suiteConfig", config.SuiteConfig,
		"logDir", config.LogDir,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"concurrency", config.Concurrency)

	reg, err := registry.NewRegistry(registry.Config{
		Log:             config.Log,
		SuiteConfigFile: config.SuiteConfig,
		DefaultTimeout:  config.DefaultTimeout,
		GoBinary:        config.GoBinary,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	s := &suiteRunner{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		executor:         NewDefaultRunExecutor(config.Log, reg, config),
		scheduler:        NewDefaultRunScheduler(config.RunInterval, config.RunOnce, config.Log),
		shutdownCallback: shutdownCallback,
	}
	config.Log.Info("suiterunner.New: created registry and run executor")
	return s, nil
}

// Start runs the suites periodically at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (s *suiteRunner) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			s.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	s.ctx = ctx

	if s.config.RunOnce {
		s.config.Log.Info("Starting suite-runner in run-once mode")
	} else {
		s.config.Log.Info("Starting suite-runner in continuous mode", "interval", s.config.RunInterval)
	}

	s.scheduler.RegisterCallback(s.runSuites)
	if err := s.scheduler.Start(ctx); err != nil {
		if IsTestFailureError(err) {
			// Test failures (assertions failed) exit with code 1
			s.config.Log.Warn("Run-once suite run completed with failures, returning exit code 1")
			return err
		}
		// Runtime errors (configuration issues, unwritable directories) exit with code 2
		s.config.Log.Error("Runtime error running suites", "error", err)
		return cli.Exit(err.Error(), 2)
	}

	// If in run-once mode, trigger shutdown and return
	if s.config.RunOnce {
		s.config.Log.Info("Suites completed, exiting (run-once mode)")
		go func() {
			s.shutdownCallback(nil)
		}()
		return nil
	}

	s.config.Log.Debug("suite-runner started successfully")
	return nil
}

// runSuites executes one complete run and processes the results
func (s *suiteRunner) runSuites() error {
	result, err := s.executor.RunSuites(s.ctx)
	if err != nil {
		// This is a runtime error (not a test failure)
		s.config.Log.Error("Runtime error running suites", "error", err)
		metrics.RecordErrorDetails("suite run", err)
		return NewRuntimeError(err)
	}
	s.result = result

	printResultsTable(os.Stdout, result)
	fmt.Println(result.Report.Summary(result.RunID, result.Duration, result.Interrupted))
	s.config.Log.Info("Suite run processed", "run_id", result.RunID, "status", result.Status())

	// Run-once mode turns failing or interrupted runs into the process exit code
	if s.config.RunOnce {
		if result.Interrupted {
			return NewTestFailureError("suite run interrupted")
		}
		if result.Report.HasFailures() {
			stats := result.Report.Stats()
			return NewTestFailureError(fmt.Sprintf("%d of %d test cases failed", stats.Failed, stats.Total))
		}
	}
	return nil
}

// Stop stops the suite-runner service.
// Stop implements the cliapp.Lifecycle interface.
func (s *suiteRunner) Stop(ctx context.Context) error {
	s.config.Log.Info("Stopping suite-runner")

	if s.scheduler.Stopped() {
		s.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	if err := s.scheduler.Stop(); err != nil {
		return err
	}
	s.config.Log.Info("suite-runner stopped successfully")
	return nil
}

// Stopped returns true if the suite-runner service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (s *suiteRunner) Stopped() bool {
	return s.scheduler.Stopped()
}

// WaitForShutdown blocks until all scheduler goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (s *suiteRunner) WaitForShutdown(ctx context.Context) error {
	return s.scheduler.WaitForShutdown(ctx)
}
