// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values for hioload-loop. Compare with errors.Is: returned errors
// usually carry extra context around one of these values.

package api

import "errors"

const Namespace = "hioload"

var (
	// ErrRejectedSubmission: task submitted to an executor that has begun or
	// finished shutdown.
	ErrRejectedSubmission = errors.New(Namespace + ": task rejected, executor is shutting down")

	// ErrAlreadyCompleted: double completion of a promise, or reuse of a
	// completed promise.
	ErrAlreadyCompleted = errors.New(Namespace + ": promise already completed")

	// ErrSelfDeadlock: blocking wait from the owning executor's goroutine.
	ErrSelfDeadlock = errors.New(Namespace + ": blocking wait on the owning executor would deadlock")

	// ErrChannelRegistration: low-level bind of a channel failed.
	ErrChannelRegistration = errors.New(Namespace + ": channel registration failed")

	// ErrUncaughtTaskFault: a task panicked.
	ErrUncaughtTaskFault = errors.New(Namespace + ": uncaught task fault")

	// ErrInvalidConfiguration: invalid construction parameters.
	ErrInvalidConfiguration = errors.New(Namespace + ": invalid configuration")

	ErrShutdownTimeout   = errors.New(Namespace + ": shutdown timed out")
	ErrAlreadyRegistered = errors.New(Namespace + ": channel already registered")
	ErrNotRegistered     = errors.New(Namespace + ": channel not registered")
	ErrInvalidArgument   = errors.New(Namespace + ": invalid argument")
	ErrNotSupported      = errors.New(Namespace + ": operation not supported")
	ErrPollerClosed      = errors.New(Namespace + ": poller closed")
)
