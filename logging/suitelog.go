package logging

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// SuiteLog is a suite's captured output file. Writes are buffered and
// stripped of ANSI escape sequences before they reach disk, so persisted
// logs stay readable in CI artifact viewers.
type SuiteLog struct {
	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	closed bool
}

func openSuiteLog(path string) (*SuiteLog, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create suite log %s: %w", path, err)
	}
	return &SuiteLog{
		file: file,
		w:    bufio.NewWriter(file),
	}, nil
}

// Name returns the path of the underlying file.
func (l *SuiteLog) Name() string {
	return l.file.Name()
}

// Write buffers p for the log file. The returned count refers to the input,
// not the stripped form written to disk.
func (l *SuiteLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, fmt.Errorf("suite log %s is closed", l.file.Name())
	}
	if _, err := l.w.WriteString(stripANSIEscapeSequences(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush writes any buffered output through to the file.
func (l *SuiteLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	return l.w.Flush()
}

// Close flushes and closes the log file. Closing twice is a no-op.
func (l *SuiteLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	flushErr := l.w.Flush()
	closeErr := l.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
