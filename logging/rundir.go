// Package logging manages the on-disk artifacts of a suite run: the
// per-run directory tree, each suite's captured output log, and the
// aggregated run log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

const (
	// RunDirectoryPrefix is the standardized prefix for run directories
	RunDirectoryPrefix = "testrun-"
	// SuiteLogFilename is the name of a suite's captured output file
	SuiteLogFilename = "output.txt"
)

// RunDirectory owns one run's directory tree:
//
//	<baseDir>/testrun-<runID>/
//	  <suite>/output.txt   captured output, one directory per suite
//	  failed/              copies of failing suites' logs
//	  all.log              one status line per completed suite
//	  summary.log          end-of-run summary
type RunDirectory struct {
	log         log.Logger
	baseDir     string
	logDir      string
	failedDir   string
	summaryFile string
	allLogs     *asyncFile
	runID       string
}

// NewRunDirectory creates the directory tree for a run and opens the
// aggregated run log.
func NewRunDirectory(logger log.Logger, baseDir string, runID string) (*RunDirectory, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if logger == nil {
		logger = log.New()
		logger.Error("No logger provided, using default")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	failedDir := filepath.Join(logDir, "failed")
	for _, dir := range []string{logDir, failedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	allLogs, err := newAsyncFile(filepath.Join(logDir, "all.log"))
	if err != nil {
		return nil, err
	}

	return &RunDirectory{
		log:         logger.New("component", "rundir"),
		baseDir:     baseDir,
		logDir:      logDir,
		failedDir:   failedDir,
		summaryFile: filepath.Join(logDir, "summary.log"),
		allLogs:     allLogs,
		runID:       runID,
	}, nil
}

// GetRunID returns the run ID this directory belongs to.
func (d *RunDirectory) GetRunID() string {
	return d.runID
}

// GetDirectory returns the run's root directory.
func (d *RunDirectory) GetDirectory() string {
	return d.logDir
}

// GetFailedDir returns the directory holding failing suites' log copies.
func (d *RunDirectory) GetFailedDir() string {
	return d.failedDir
}

// GetSummaryFile returns the path of the run's summary file.
func (d *RunDirectory) GetSummaryFile() string {
	return d.summaryFile
}

// SuiteDir returns the suite's artifact directory, derived from its name.
func (d *RunDirectory) SuiteDir(suiteName string) string {
	return filepath.Join(d.logDir, safeFilename(suiteName))
}

// SuiteOutputFile returns the deterministic path of the suite's output log.
func (d *RunDirectory) SuiteOutputFile(suiteName string) string {
	return filepath.Join(d.SuiteDir(suiteName), SuiteLogFilename)
}

// RenewSuiteDir recreates the suite's artifact directory, discarding
// anything a previous run left behind.
func (d *RunDirectory) RenewSuiteDir(suiteName string) (string, error) {
	dir := d.SuiteDir(suiteName)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// OpenSuiteLog opens the suite's output log for writing, truncating any
// previous content.
func (d *RunDirectory) OpenSuiteLog(suiteName string) (*SuiteLog, error) {
	return openSuiteLog(d.SuiteOutputFile(suiteName))
}

// EchoSuiteLog copies the suite's captured log to w.
func (d *RunDirectory) EchoSuiteLog(suiteName string, w io.Writer) error {
	f, err := os.Open(d.SuiteOutputFile(suiteName))
	if err != nil {
		return fmt.Errorf("failed to open suite log: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to echo suite log: %w", err)
	}
	return nil
}

// LogSuiteOutcome appends the suite's status line to the aggregated run log
// and, when the suite did not fully pass, copies its output log into the
// failed directory.
func (d *RunDirectory) LogSuiteOutcome(suiteName string, statuses map[string]types.TestStatus, elapsed time.Duration) error {
	var passed, failed, skipped int
	for _, status := range statuses {
		switch status {
		case types.TestStatusPass:
			passed++
		case types.TestStatusSkip:
			skipped++
		default:
			failed++
		}
	}

	overall := types.TestStatusPass
	if failed > 0 {
		overall = types.TestStatusFail
	} else if skipped > 0 {
		overall = types.TestStatusSkip
	}

	line := fmt.Sprintf("[%s] %s: %d/%d passed (%s)\n",
		overall, suiteName, passed, len(statuses), formatDuration(elapsed))
	if err := d.allLogs.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to append to run log: %w", err)
	}

	if overall == types.TestStatusFail {
		dst := filepath.Join(d.failedDir, safeFilename(suiteName)+".txt")
		if err := copyFile(d.SuiteOutputFile(suiteName), dst); err != nil {
			return fmt.Errorf("failed to copy failed suite log: %w", err)
		}
	}
	return nil
}

// LogSummary writes the end-of-run summary file.
func (d *RunDirectory) LogSummary(summary string) error {
	if err := os.WriteFile(d.summaryFile, []byte(summary), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

// Complete drains and closes the aggregated run log. The run directory must
// not be written to afterwards.
func (d *RunDirectory) Complete() error {
	return d.allLogs.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeFilename replaces characters that might be problematic in filenames
func safeFilename(s string) string {
	for _, c := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "} {
		s = strings.ReplaceAll(s, c, "_")
	}
	return s
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
