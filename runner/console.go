package runner

import (
	"io"
	"sync"
)

// Flusher is implemented by sinks that buffer writes.
type Flusher interface {
	Flush() error
}

// Console routes suite output by worker identity. Each worker holds a stable
// WorkerStream; writes through it land on whichever sink the worker has
// currently bound, falling back to the real console when none is bound.
// Because every write resolves against the calling worker's own sink, two
// suites running concurrently never interleave into each other's log files
// or into the wrong console.
type Console struct {
	mu       sync.RWMutex
	sinks    map[int]io.Writer
	fallback io.Writer
}

// NewConsole creates a console multiplexer with the given fallback writer,
// typically os.Stdout.
func NewConsole(fallback io.Writer) *Console {
	return &Console{
		sinks:    make(map[int]io.Writer),
		fallback: fallback,
	}
}

// Bind routes the worker's stream to w. At most one sink is active per
// worker at a time; only the owning worker binds or unbinds its sink.
func (c *Console) Bind(worker int, w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[worker] = w
}

// Unbind restores the worker's stream to the fallback console.
func (c *Console) Unbind(worker int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, worker)
}

// Fallback returns the unredirected console writer.
func (c *Console) Fallback() io.Writer {
	return c.fallback
}

// WorkerStream returns the worker's stream view. The sink lookup happens on
// every write, so a bind or unbind takes effect mid-stream.
func (c *Console) WorkerStream(worker int) *WorkerStream {
	return &WorkerStream{console: c, worker: worker}
}

func (c *Console) sink(worker int) io.Writer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if w, ok := c.sinks[worker]; ok {
		return w
	}
	return c.fallback
}

// WorkerStream is the io.Writer a worker hands to the code running on it.
type WorkerStream struct {
	console *Console
	worker  int
}

// Write forwards to the worker's currently bound sink.
func (ws *WorkerStream) Write(p []byte) (int, error) {
	return ws.console.sink(ws.worker).Write(p)
}

// Flush flushes the worker's currently bound sink when it buffers.
func (ws *WorkerStream) Flush() error {
	if f, ok := ws.console.sink(ws.worker).(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Tee duplicates writes to every sink in order, so suite output can stream
// to the console and persist to the log file at the same time.
type Tee struct {
	sinks []io.Writer
}

// NewTee creates a fan-out writer over the given sinks.
func NewTee(sinks ...io.Writer) *Tee {
	return &Tee{sinks: sinks}
}

// Write writes p to every sink, in order. All sinks receive the write even
// when an earlier one fails; the first error is returned.
func (t *Tee) Write(p []byte) (int, error) {
	n := len(p)
	var firstErr error
	for _, w := range t.sinks {
		written, err := w.Write(p)
		if err != nil && firstErr == nil {
			n = written
			firstErr = err
		}
	}
	if firstErr != nil {
		return n, firstErr
	}
	return len(p), nil
}

// Flush flushes every sink that buffers, returning the first error.
func (t *Tee) Flush() error {
	var firstErr error
	for _, w := range t.sinks {
		if f, ok := w.(Flusher); ok {
			if err := f.Flush(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
