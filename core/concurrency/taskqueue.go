// File: core/concurrency/taskqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unbounded multi-producer/single-consumer task queue. The ring is
// github.com/eapache/queue guarded by a mutex; a one-slot channel signals the
// consumer.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/momentics/hioload-loop/api"
)

type taskQueue struct {
	mu     sync.Mutex
	ring   *queue.Queue
	closed bool
	signal chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		ring:   queue.New(),
		signal: make(chan struct{}, 1),
	}
}

// push appends task; false once the queue is closed.
func (q *taskQueue) push(task api.Task) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.ring.Add(task)
	q.mu.Unlock()
	q.wake()
	return true
}

// drain moves up to cap(buf)-len(buf) tasks into buf, in FIFO order.
func (q *taskQueue) drain(buf []api.Task) []api.Task {
	q.mu.Lock()
	for len(buf) < cap(buf) && q.ring.Length() > 0 {
		buf = append(buf, q.ring.Remove().(api.Task))
	}
	q.mu.Unlock()
	return buf
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length()
}

// close rejects further pushes and returns what is left.
func (q *taskQueue) close() []api.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	rest := make([]api.Task, 0, q.ring.Length())
	for q.ring.Length() > 0 {
		rest = append(rest, q.ring.Remove().(api.Task))
	}
	return rest
}

// wake signals the consumer without blocking.
func (q *taskQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
