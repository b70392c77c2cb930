package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

// TestEvent represents a single event from the go test JSON output
type TestEvent struct {
	Time    time.Time // Time the event occurred
	Action  string    // The action taken (run, pause, cont, pass, fail, skip, output)
	Package string    // The package being tested
	Test    string    // The test function name (may be empty for package events)
	Output  string    // Output text (may be empty)
	Elapsed float64   // Seconds elapsed, set on pass/fail/skip events
}

// goTestSuite runs a set of Go test functions in one package through
// "go test -json" and maps the per-test verdicts onto test case statuses.
type goTestSuite struct {
	log      log.Logger
	name     string
	pkg      string
	workDir  string
	goBinary string
	timeout  time.Duration
	cases    []string
}

type goTestSuiteConfig struct {
	Log      log.Logger
	Name     string
	Package  string
	WorkDir  string
	GoBinary string
	Timeout  time.Duration
	Cases    []string
}

func newGoTestSuite(cfg goTestSuiteConfig) (*goTestSuite, error) {
	if cfg.Package == "" {
		return nil, fmt.Errorf("gotest suite requires a package")
	}
	if len(cfg.Cases) == 0 {
		return nil, fmt.Errorf("gotest suite has no test cases")
	}
	return &goTestSuite{
		log:      cfg.Log.New("suite", cfg.Name),
		name:     cfg.Name,
		pkg:      cfg.Package,
		workDir:  cfg.WorkDir,
		goBinary: cfg.GoBinary,
		timeout:  cfg.Timeout,
		cases:    cfg.Cases,
	}, nil
}

func (s *goTestSuite) Name() string {
	return s.name
}

func (s *goTestSuite) TestCases() []string {
	return s.cases
}

func (s *goTestSuite) Run(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
	runCtx := ctx
	if s.timeout != 0 {
		var cancel context.CancelFunc
		// The parent timeout is redundant, add 200ms so the child's own
		// -timeout fires first and produces a proper failure event.
		runCtx, cancel = context.WithTimeout(ctx, s.timeout+200*time.Millisecond)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.goBinary, s.buildTestArgs()...)
	cmd.Dir = s.workDir
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", OutputDirEnvVar, args.OutputDir))

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = args.Stdout

	s.log.Debug("Running go test", "command", cmd.String(), "dir", cmd.Dir, "timeout", s.timeout)

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	statuses := s.parseTestOutput(stdout.Bytes(), args)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("suite timed out after %v", s.timeout)
	}
	if runErr != nil && len(statuses) == 0 {
		// No per-test verdicts at all: the package failed to build or the
		// binary crashed before running. The raw output was already relayed.
		return nil, fmt.Errorf("go test failed: %w", runErr)
	}
	return statuses, nil
}

// buildTestArgs constructs the go test invocation for the suite's cases
func (s *goTestSuite) buildTestArgs() []string {
	args := []string{"test", s.pkg}

	// Run exactly the declared cases, nothing the package grew since.
	args = append(args, "-run", fmt.Sprintf("^(%s)$", strings.Join(s.cases, "|")))

	// Always disable caching
	args = append(args, "-count", "1")

	if s.timeout != 0 {
		args = append(args, "-timeout", s.timeout.String())
	}

	args = append(args, "-v")
	args = append(args, "-json")

	return args
}

// parseTestOutput walks the JSON event stream, relaying human-readable
// output to the suite's stream and collecting top-level test verdicts.
// Lines that are not valid events (build errors, panics outside tests) are
// relayed as-is.
func (s *goTestSuite) parseTestOutput(output []byte, args types.SuiteRunArgs) map[string]types.TestStatus {
	statuses := make(map[string]types.TestStatus)

	for _, line := range bytes.Split(output, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var event TestEvent
		if err := json.Unmarshal(line, &event); err != nil {
			fmt.Fprintf(args.Stdout, "%s\n", line)
			continue
		}

		if event.Output != "" {
			fmt.Fprint(args.Stdout, event.Output)
		}

		// Subtest events carry a slash-qualified name; the parent test's
		// final verdict is the one that counts.
		if event.Test == "" || strings.Contains(event.Test, "/") {
			continue
		}
		switch event.Action {
		case "pass":
			statuses[event.Test] = types.TestStatusPass
		case "fail":
			statuses[event.Test] = types.TestStatusFail
		case "skip":
			statuses[event.Test] = types.TestStatusSkip
		}
	}

	return statuses
}
