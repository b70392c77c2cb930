package runner

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/suite-runner/logging"
	"github.com/ethereum-optimism/infra/suite-runner/types"
)

// suiteExecutor runs one claimed suite end-to-end: it prepares the suite's
// artifact directory and log file, binds the worker's output sink, invokes
// the suite, classifies the outcome and reports one result per test case.
//
// A failure while preparing output or while running the suite never escapes:
// it degrades to a failed result for every declared test case and the run
// continues. Interruption is the only error that unwinds past RunSuite.
type suiteExecutor struct {
	log        log.Logger
	console    *Console
	files      *logging.RunDirectory
	reporter   Reporter
	reportMu   *sync.Mutex
	verbose    bool
	teeLive    bool // single worker + verbose: output already streams to the console
	totalTests int
	tracer     trace.Tracer
}

// RunSuite executes one claimed suite. The returned error is non-nil only
// when the run was interrupted.
func (e *suiteExecutor) RunSuite(ctx context.Context, worker int, suite types.Suite) error {
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("suite %s", suite.Name()))
	defer span.End()

	start := time.Now()
	stream := e.console.WorkerStream(worker)
	outputFile := e.files.SuiteOutputFile(suite.Name())

	outputDir, err := e.files.RenewSuiteDir(suite.Name())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.failSuite(suite, stream, outputFile, start, fmt.Errorf("failed to prepare output directory: %w", err))
		return nil
	}
	suiteLog, err := e.files.OpenSuiteLog(suite.Name())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.failSuite(suite, stream, outputFile, start, err)
		return nil
	}
	// Safety net for the interruption path; the normal path closes
	// explicitly before echoing.
	defer suiteLog.Close()

	if e.teeLive {
		e.console.Bind(worker, NewTee(e.console.Fallback(), suiteLog))
	} else {
		e.console.Bind(worker, NewTee(suiteLog))
	}
	defer e.console.Unbind(worker)

	statuses, runErr := e.invokeSuite(ctx, suite, types.SuiteRunArgs{
		OutputDir: outputDir,
		Stdout:    stream,
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		fmt.Fprintf(stream, "%v\n", runErr)
		statuses = nil
	}

	results := make(map[string]types.TestStatus, len(suite.TestCases()))
	anyNotPassed := false
	for _, name := range suite.TestCases() {
		status, ok := statuses[name]
		if !ok {
			status = types.TestStatusFail
		}
		if status != types.TestStatusPass {
			anyNotPassed = true
		}
		results[name] = status
	}

	e.console.Unbind(worker)
	if err := suiteLog.Close(); err != nil {
		e.log.Error("Failed to close suite log", "suite", suite.Name(), "err", err)
	}

	if !e.teeLive && (anyNotPassed || e.verbose) {
		if err := e.files.EchoSuiteLog(suite.Name(), e.console.Fallback()); err != nil {
			e.log.Error("Failed to echo suite log", "suite", suite.Name(), "err", err)
		}
	}

	e.reportResults(suite, results, start, outputFile)

	if err := e.files.LogSuiteOutcome(suite.Name(), results, time.Since(start)); err != nil {
		e.log.Error("Failed to record suite outcome", "suite", suite.Name(), "err", err)
	}
	return nil
}

// invokeSuite calls the suite's Run and contains panics, so a crashing
// suite degrades to a failed result instead of killing its worker.
func (e *suiteExecutor) invokeSuite(ctx context.Context, suite types.Suite, args types.SuiteRunArgs) (statuses map[string]types.TestStatus, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			statuses = nil
			err = fmt.Errorf("suite %s panicked: %v\n%s", suite.Name(), rec, debug.Stack())
		}
	}()
	return suite.Run(ctx, args)
}

// failSuite handles a suite that could not start: the triggering error is
// printed through the worker's stream and every declared test case is
// reported as failed.
func (e *suiteExecutor) failSuite(suite types.Suite, stream io.Writer, outputFile string, start time.Time, err error) {
	fmt.Fprintf(stream, "%v\n", err)
	results := make(map[string]types.TestStatus, len(suite.TestCases()))
	for _, name := range suite.TestCases() {
		results[name] = types.TestStatusFail
	}
	e.reportResults(suite, results, start, outputFile)
}

// reportResults attributes the suite's elapsed time evenly across its test
// cases and appends them to the report. The reporting lock keeps one
// suite's result lines contiguous across workers.
func (e *suiteExecutor) reportResults(suite types.Suite, statuses map[string]types.TestStatus, start time.Time, outputFile string) {
	cases := suite.TestCases()
	if len(cases) == 0 {
		return
	}
	timePerCase := time.Since(start) / time.Duration(len(cases))

	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	for _, name := range cases {
		e.reporter.AddResult(types.CaseResult{
			SuiteName:  suite.Name(),
			CaseName:   name,
			Status:     statuses[name],
			Duration:   timePerCase,
			OutputFile: outputFile,
		})
		e.reporter.PrintLatestStatus(e.totalTests)
	}
	fmt.Fprintln(e.console.Fallback())
}
