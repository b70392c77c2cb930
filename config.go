package suiterunner

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/suite-runner/flags"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the application configuration
type Config struct {
	SuiteConfig    string
	GoBinary       string
	RunInterval    time.Duration // Interval between suite runs
	RunOnce        bool          // Indicates if the service should exit after one run
	DefaultTimeout time.Duration // Timeout for suites without one of their own, 0 disables
	Concurrency    int           // Number of suites to run in parallel
	Verbose        bool          // Echo passing suite output to the console as well as failing
	LogDir         string        // Directory to store suite run logs
	Log            log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, suiteConfig string) (*Config, error) {
	// Parse flags
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if suiteConfig == "" {
		return nil, errors.New("suite configuration file is required")
	}

	absSuiteConfig, err := filepath.Abs(suiteConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for suite config '%s': %w", suiteConfig, err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	concurrency := ctx.Int(flags.Concurrency.Name)
	if concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
	}

	// Get log directory, default to "logs" if not specified
	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	return &Config{
		SuiteConfig:    absSuiteConfig,
		GoBinary:       ctx.String(flags.GoBinary.Name),
		RunInterval:    runInterval,
		RunOnce:        runOnce,
		DefaultTimeout: ctx.Duration(flags.DefaultTimeout.Name),
		Concurrency:    concurrency,
		Verbose:        ctx.Bool(flags.Verbose.Name),
		LogDir:         logDir,
		Log:            log,
	}, nil
}
