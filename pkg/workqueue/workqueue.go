// Package workqueue runs deferred work off the caller's path.
//
// A Queue executes Work items in scheduling order on its own goroutine. A
// Work item is pending from Schedule until it starts running, and a pending
// item cannot be scheduled again. Once it starts running it may be scheduled
// again, including from inside its own function.
package workqueue

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrQueueClosed is returned by Flush on a closed queue.
var ErrQueueClosed = errors.New("work queue closed")

// Work is a unit of deferred work.
type Work struct {
	name    string
	fn      func()
	pending atomic.Bool
}

// NewWork creates a work item that runs fn.
func NewWork(name string, fn func()) *Work {
	return &Work{name: name, fn: fn}
}

// Name returns the work item's name.
func (w *Work) Name() string {
	return w.name
}

// Pending returns true if w is scheduled and has not started yet.
func (w *Work) Pending() bool {
	return w.pending.Load()
}

// Queue executes scheduled work on a single goroutine.
type Queue struct {
	name   string
	logger *slog.Logger

	mu     sync.Mutex
	items  []*Work
	closed bool

	wake chan struct{}
	done chan struct{}
}

// New creates a queue and starts its worker.
func New(name string, logger *slog.Logger) *Queue {
	q := &Queue{
		name:   name,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Schedule queues w. It returns false if w is already pending or the queue
// is closed.
func (q *Queue) Schedule(w *Work) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if !w.pending.CompareAndSwap(false, true) {
		return false
	}
	q.items = append(q.items, w)
	q.signal()
	return true
}

// Cancel removes w if it is still pending. It returns true if w was removed.
func (q *Queue) Cancel(w *Work) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if item == w {
			q.items = append(q.items[:i], q.items[i+1:]...)
			w.pending.Store(false)
			return true
		}
	}
	return false
}

// Flush waits until all work scheduled before the call has run.
func (q *Queue) Flush() error {
	barrier := make(chan struct{})
	w := NewWork("flush", func() { close(barrier) })
	if !q.Schedule(w) {
		return ErrQueueClosed
	}
	select {
	case <-barrier:
		return nil
	case <-q.done:
		return ErrQueueClosed
	}
}

// Close stops the worker after the running item finishes. Pending items
// are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	for _, w := range q.items {
		w.pending.Store(false)
	}
	q.items = nil
	q.signal()
	q.mu.Unlock()

	<-q.done
}

// signal wakes the worker. Must be called with mu held.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for range q.wake {
		for {
			q.mu.Lock()
			if q.closed {
				q.mu.Unlock()
				return
			}
			if len(q.items) == 0 {
				q.mu.Unlock()
				break
			}
			w := q.items[0]
			q.items = q.items[1:]
			w.pending.Store(false)
			q.mu.Unlock()

			q.execute(w)
		}
	}
}

func (q *Queue) execute(w *Work) {
	defer func() {
		if r := recover(); r != nil && q.logger != nil {
			q.logger.Error("work panicked", "queue", q.name, "work", w.name, "panic", r)
		}
	}()
	w.fn()
}
