package logging

import (
	"fmt"
	"os"
	"sync"
)

// asyncFile decouples log producers from disk latency: writes are queued on
// a buffered channel and drained by a background goroutine. Close waits for
// the queue to drain before closing the file.
type asyncFile struct {
	file    *os.File
	queue   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

func newAsyncFile(path string) (*asyncFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	af := &asyncFile{
		file:  file,
		queue: make(chan []byte, 100),
	}
	af.wg.Add(1)
	go af.processQueue()
	return af, nil
}

// Write queues data for the background writer. The data is copied, so the
// caller may reuse the slice.
func (af *asyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.stopped {
		return fmt.Errorf("async file %s is closed", af.file.Name())
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	af.queue <- buf
	return nil
}

func (af *asyncFile) processQueue() {
	defer af.wg.Done()
	for data := range af.queue {
		if _, err := af.file.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "error writing to %s: %v\n", af.file.Name(), err)
		}
	}
}

// Close stops accepting writes, drains the queue and closes the file.
func (af *asyncFile) Close() error {
	af.mu.Lock()
	if !af.stopped {
		af.stopped = true
		close(af.queue)
	}
	af.mu.Unlock()

	af.wg.Wait()
	return af.file.Close()
}
