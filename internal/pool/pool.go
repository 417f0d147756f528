// Package pool implements a small worker pool for parallelizing per-entry
// operations, such as decrypting every ciphertext of a report.
package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// task asks a worker to evaluate f at index i and store the result.
type task struct {
	i       int
	f       func(int) any
	results []any
	// remaining counts results that still need to be produced.
	remaining *int64
}

func worker(tasks <-chan task, finished chan<- struct{}) {
	for t := range tasks {
		t.results[t.i] = t.f(t.i)
		atomic.AddInt64(t.remaining, -1)
		finished <- struct{}{}
	}
}

func parallelizeAlone(count int, f func(int) any) []any {
	results := make([]any, count)
	for i := range results {
		results[i] = f(i)
	}
	return results
}

// Pool is a fixed set of latent workers fed through a common task channel.
//
// Functions taking a *Pool accept a nil receiver, in which case the work is
// done inline on the calling goroutine.
type Pool struct {
	tasks       chan task
	finished    chan struct{}
	workerCount int
}

// NewPool creates a pool with count workers.
// If count <= 0, the number of available CPUs is used instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		tasks:       make(chan task),
		finished:    make(chan struct{}),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go worker(p.tasks, p.finished)
	}
	return p
}

// TearDown stops the workers. The pool must not be used afterwards.
func (p *Pool) TearDown() {
	close(p.tasks)
}

// Parallelize returns [f(0), f(1), ..., f(count-1)], evaluating f on the
// pool's workers.
func (p *Pool) Parallelize(count int, f func(int) any) []any {
	if p == nil {
		return parallelizeAlone(count, f)
	}

	results := make([]any, count)
	remaining := int64(count)
	next := 0
	for next < count {
		t := task{i: next, f: f, results: results, remaining: &remaining}
		// Interleave draining completions so that busy workers do not
		// block us from handing out the remaining tasks.
		select {
		case p.tasks <- t:
			next++
		case <-p.finished:
		}
	}
	for atomic.LoadInt64(&remaining) > 0 {
		<-p.finished
	}
	return results
}

// LockedReader wraps an io.Reader so that it is safe for concurrent reads,
// e.g. when pool workers share one random source.
type LockedReader struct {
	reader io.Reader
	mu     sync.Mutex
}

// NewLockedReader wraps r.
func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{reader: r}
}

// Read implements io.Reader. Concurrent callers race for which bytes they
// get, but no byte is ever handed out twice.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader.Read(p)
}
