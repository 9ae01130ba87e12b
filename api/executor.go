// Package api
// Author: momentics <momentics@gmail.com>
//
// Executor contract for strictly-serialized task execution.

package api

import "time"

// Task is a unit of short-lived, non-blocking work.
type Task interface {
	Run()
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func()

// Run calls f.
func (f TaskFunc) Run() { f() }

// FailureReporter may be implemented by a Task that wants to observe its own
// uncaught fault. It is called on the executor goroutine, after recovery.
type FailureReporter interface {
	ReportFailure(cause error)
}

// Executor is a single logical execution context. Tasks submitted to one
// Executor run one at a time, in submission order, on one goroutine.
type Executor interface {
	// Execute enqueues task without blocking the caller.
	// Fails with ErrRejectedSubmission once shutdown has begun.
	Execute(task Task) error

	// InLoop reports whether the caller runs on this executor's own goroutine.
	InLoop() bool

	// ShutdownGracefully begins shutdown, see the implementation for the
	// quiet period and timeout semantics. The returned future completes when
	// the executor is terminated.
	ShutdownGracefully(quietPeriod, timeout time.Duration) Future[struct{}]

	// TerminationFuture completes when the executor is terminated.
	TerminationFuture() Future[struct{}]

	IsShuttingDown() bool
	IsTerminated() bool
}
