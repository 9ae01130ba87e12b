// Package api
// Author: momentics <momentics@gmail.com>
//
// Single-assignment asynchronous results.

package api

import "context"

// Listener is notified once a Future completes.
type Listener[T any] func(f Future[T])

// Future is the consumer view of an asynchronous result.
type Future[T any] interface {
	// IsDone reports whether the future has completed, successfully or not.
	IsDone() bool
	// IsSuccess reports whether the future completed successfully.
	IsSuccess() bool
	// Cause returns the failure cause, or nil if pending or successful.
	Cause() error
	// GetNow returns the value without blocking; ok is false unless succeeded.
	GetNow() (value T, ok bool)
	// Done is closed on completion.
	Done() <-chan struct{}

	// AddListener registers l to be called exactly once on completion, on the
	// owning executor.
	AddListener(l Listener[T]) Future[T]

	// Sync waits for completion and returns the value or the failure cause.
	// Called from the owning executor on a pending future it fails with
	// ErrSelfDeadlock instead of blocking forever.
	Sync(ctx context.Context) (T, error)
	// Await waits for completion without inspecting the outcome.
	Await(ctx context.Context) error

	// Executor returns the executor that delivers notifications, may be nil.
	Executor() Executor
}
