package registry

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

const (
	// OutputDirEnvVar tells the suite process where to write its artifacts,
	// including the results file.
	OutputDirEnvVar = "SUITE_OUTPUT_DIR"
	// ResultsFilename is the per-case results file a command suite writes
	// into its output directory, one "<case> <status>" line per case.
	ResultsFilename = "results.txt"
)

// commandSuite runs an arbitrary executable and reads per-case statuses back
// from the results file it leaves in the suite's output directory.
type commandSuite struct {
	log     log.Logger
	name    string
	argv    []string
	workDir string
	timeout time.Duration
	cases   []string
}

type commandSuiteConfig struct {
	Log     log.Logger
	Name    string
	Argv    []string
	WorkDir string
	Timeout time.Duration
	Cases   []string
}

func newCommandSuite(cfg commandSuiteConfig) (*commandSuite, error) {
	if len(cfg.Argv) == 0 {
		return nil, fmt.Errorf("command suite requires a run argv")
	}
	return &commandSuite{
		log:     cfg.Log.New("suite", cfg.Name),
		name:    cfg.Name,
		argv:    cfg.Argv,
		workDir: cfg.WorkDir,
		timeout: cfg.Timeout,
		cases:   cfg.Cases,
	}, nil
}

func (s *commandSuite) Name() string {
	return s.name
}

func (s *commandSuite) TestCases() []string {
	return s.cases
}

// Run executes the suite command with the output directory exported in its
// environment, then reads the results file. A timeout or a non-zero exit is
// a suite-level error; the caller turns it into failed results.
func (s *commandSuite) Run(ctx context.Context, args types.SuiteRunArgs) (map[string]types.TestStatus, error) {
	runCtx := ctx
	if s.timeout != 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.argv[0], s.argv[1:]...)
	cmd.Dir = s.workDir
	cmd.Stdout = args.Stdout
	cmd.Stderr = args.Stdout
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", OutputDirEnvVar, args.OutputDir))

	s.log.Debug("Running suite command", "command", cmd.String(), "dir", cmd.Dir, "timeout", s.timeout)

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("suite timed out after %v", s.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("suite command failed: %w", err)
	}

	return readResultsFile(filepath.Join(args.OutputDir, ResultsFilename))
}

// readResultsFile parses "<case> <status>" lines. Blank lines are ignored;
// anything else malformed fails the whole suite.
func readResultsFile(path string) (map[string]types.TestStatus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("suite left no results file: %w", err)
	}
	defer f.Close()

	statuses := make(map[string]types.TestStatus)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed results line %d: %q", lineNo, line)
		}
		status := types.TestStatus(fields[1])
		switch status {
		case types.TestStatusPass, types.TestStatusFail, types.TestStatusSkip:
		default:
			return nil, fmt.Errorf("unrecognized status %q on results line %d", fields[1], lineNo)
		}
		statuses[fields[0]] = status
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	return statuses, nil
}
