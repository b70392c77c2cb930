package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/ethereum-optimism/infra/suite-runner/logging"
	"github.com/ethereum-optimism/infra/suite-runner/types"
)

func newTestExecutor(t *testing.T, console io.Writer, reporter Reporter, verbose, teeLive bool, totalTests int) (*suiteExecutor, *logging.RunDirectory) {
	t.Helper()
	rd, err := logging.NewRunDirectory(log.NewLogger(log.DiscardHandler()), t.TempDir(), "exec")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rd.Complete() })

	e := &suiteExecutor{
		log:        log.NewLogger(log.DiscardHandler()),
		console:    NewConsole(console),
		files:      rd,
		reporter:   reporter,
		reportMu:   &sync.Mutex{},
		verbose:    verbose,
		teeLive:    teeLive,
		totalTests: totalTests,
		tracer:     otel.Tracer("suite executor test"),
	}
	return e, rd
}

func TestRunSuitePassingSuite(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, rd := newTestExecutor(t, &console, reporter, false, false, 2)

	suite := &stubSuite{name: "smoke", cases: []string{"boot", "api"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		fmt.Fprintln(args.Stdout, "hello from smoke")
		return map[string]types.TestStatus{
			"boot": types.TestStatusPass,
			"api":  types.TestStatusPass,
		}, nil
	}}

	require.NoError(t, e.RunSuite(context.Background(), 0, suite))

	require.Len(t, reporter.results, 2)
	assert.Equal(t, 2, reporter.prints)
	for _, res := range reporter.results {
		assert.Equal(t, "smoke", res.SuiteName)
		assert.Equal(t, types.TestStatusPass, res.Status)
		assert.Equal(t, rd.SuiteOutputFile("smoke"), res.OutputFile)
	}

	logContent, err := os.ReadFile(rd.SuiteOutputFile("smoke"))
	require.NoError(t, err)
	assert.Equal(t, "hello from smoke\n", string(logContent))
	assert.NotContains(t, console.String(), "hello from smoke",
		"a fully passing suite is not echoed to the console")
}

func TestRunSuiteErrorFailsEveryCase(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, rd := newTestExecutor(t, &console, reporter, false, false, 2)

	suite := &stubSuite{name: "smoke", cases: []string{"boot", "api"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		fmt.Fprintln(args.Stdout, "partial output")
		return nil, errors.New("boom")
	}}

	require.NoError(t, e.RunSuite(context.Background(), 0, suite),
		"a suite error is contained, not propagated")

	statuses := reporter.statusByTestName()
	assert.Equal(t, types.TestStatusFail, statuses["smoke.boot"])
	assert.Equal(t, types.TestStatusFail, statuses["smoke.api"])

	logContent, err := os.ReadFile(rd.SuiteOutputFile("smoke"))
	require.NoError(t, err)
	assert.Contains(t, string(logContent), "partial output")
	assert.Contains(t, string(logContent), "boom")
	assert.Contains(t, console.String(), "boom", "failing suite output is echoed")
}

func TestRunSuitePanicIsContained(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, rd := newTestExecutor(t, &console, reporter, false, false, 1)

	suite := &stubSuite{name: "smoke", cases: []string{"boot"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		panic("kaboom")
	}}

	require.NoError(t, e.RunSuite(context.Background(), 0, suite))

	statuses := reporter.statusByTestName()
	assert.Equal(t, types.TestStatusFail, statuses["smoke.boot"])

	logContent, err := os.ReadFile(rd.SuiteOutputFile("smoke"))
	require.NoError(t, err)
	assert.Contains(t, string(logContent), "panicked")
	assert.Contains(t, string(logContent), "kaboom")
}

// TestRunSuiteMissingCaseReportedFailed covers a suite that returns a status
// map omitting one of its declared test cases.
func TestRunSuiteMissingCaseReportedFailed(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, _ := newTestExecutor(t, &console, reporter, false, false, 2)

	suite := &stubSuite{name: "smoke", cases: []string{"boot", "api"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		return map[string]types.TestStatus{"boot": types.TestStatusPass}, nil
	}}

	require.NoError(t, e.RunSuite(context.Background(), 0, suite))

	statuses := reporter.statusByTestName()
	assert.Equal(t, types.TestStatusPass, statuses["smoke.boot"])
	assert.Equal(t, types.TestStatusFail, statuses["smoke.api"],
		"a declared case with no reported status fails")
}

// TestRunSuiteSetupFailure obstructs the run directory with a regular file
// so the suite's artifact directory cannot be created. The suite must never
// run and every declared case fails.
func TestRunSuiteSetupFailure(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, rd := newTestExecutor(t, &console, reporter, false, false, 1)

	require.NoError(t, rd.Complete())
	require.NoError(t, os.RemoveAll(rd.GetDirectory()))
	require.NoError(t, os.WriteFile(rd.GetDirectory(), []byte("obstruction"), 0644))

	suite := &stubSuite{name: "smoke", cases: []string{"boot"}}

	require.NoError(t, e.RunSuite(context.Background(), 0, suite))

	assert.False(t, suite.wasStarted(), "the suite must not run when setup fails")
	statuses := reporter.statusByTestName()
	assert.Equal(t, types.TestStatusFail, statuses["smoke.boot"])
	assert.Contains(t, console.String(), "failed to prepare output directory",
		"the setup error is printed through the worker's stream")
}

func TestRunSuiteInterruption(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, _ := newTestExecutor(t, &console, reporter, false, false, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	suite := &stubSuite{name: "smoke", cases: []string{"boot"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		cancel()
		return nil, ctx.Err()
	}}

	err := e.RunSuite(ctx, 0, suite)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reporter.results, "an interrupted suite reports nothing")
}

// TestRunSuiteTeeLiveStreamsOnce runs with the live tee enabled (single
// worker, verbose): output reaches the console exactly once, while it is
// produced, and is not echoed again afterwards.
func TestRunSuiteTeeLiveStreamsOnce(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, rd := newTestExecutor(t, &console, reporter, true, true, 1)

	suite := &stubSuite{name: "smoke", cases: []string{"boot"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		fmt.Fprintln(args.Stdout, "live line")
		return map[string]types.TestStatus{"boot": types.TestStatusPass}, nil
	}}

	require.NoError(t, e.RunSuite(context.Background(), 0, suite))

	assert.Equal(t, 1, strings.Count(console.String(), "live line"))
	logContent, err := os.ReadFile(rd.SuiteOutputFile("smoke"))
	require.NoError(t, err)
	assert.Contains(t, string(logContent), "live line")
}

// TestRunSuiteVerboseEchoesPassingSuite runs verbose without the live tee
// (multiple workers): even a passing suite's log is echoed, once.
func TestRunSuiteVerboseEchoesPassingSuite(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, _ := newTestExecutor(t, &console, reporter, true, false, 1)

	suite := &stubSuite{name: "smoke", cases: []string{"boot"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		fmt.Fprintln(args.Stdout, "quiet line")
		return map[string]types.TestStatus{"boot": types.TestStatusPass}, nil
	}}

	require.NoError(t, e.RunSuite(context.Background(), 0, suite))

	assert.Equal(t, 1, strings.Count(console.String(), "quiet line"))
}

// TestRunSuiteRecordsOutcome checks the run-level artifacts: the aggregated
// log gets one status line per suite and a failing suite's log is copied
// into the failed directory.
func TestRunSuiteRecordsOutcome(t *testing.T) {
	var console bytes.Buffer
	reporter := &recordingReporter{}
	e, rd := newTestExecutor(t, &console, reporter, false, false, 2)

	passing := &stubSuite{name: "alpha", cases: []string{"one"}}
	failing := &stubSuite{name: "beta", cases: []string{"one"}, run: func(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
		fmt.Fprintln(args.Stdout, "beta output")
		return nil, errors.New("boom")
	}}

	require.NoError(t, e.RunSuite(context.Background(), 0, passing))
	require.NoError(t, e.RunSuite(context.Background(), 0, failing))
	require.NoError(t, rd.Complete())

	allLog, err := os.ReadFile(filepath.Join(rd.GetDirectory(), "all.log"))
	require.NoError(t, err)
	assert.Contains(t, string(allLog), "[pass] alpha: 1/1 passed")
	assert.Contains(t, string(allLog), "[fail] beta: 0/1 passed")

	failedCopy, err := os.ReadFile(filepath.Join(rd.GetFailedDir(), "beta.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(failedCopy), "beta output")

	_, err = os.Stat(filepath.Join(rd.GetFailedDir(), "alpha.txt"))
	assert.True(t, os.IsNotExist(err), "passing suites are not copied to failed/")
}
