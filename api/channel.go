// File: api/channel.go
// Author: momentics <momentics@gmail.com>
//
// Channel and EventLoop contracts used by the registration protocol.

package api

// EventLoop is an Executor that also owns an I/O readiness source.
type EventLoop interface {
	Executor

	// Poller returns the readiness source owned by this loop.
	Poller() Poller
}

// Channel is a unit of external work bound to exactly one EventLoop for its
// lifetime.
type Channel interface {
	// ID returns a stable identifier, used in logs and errors.
	ID() string

	// EventLoop returns the loop the channel is bound to, nil before that.
	EventLoop() EventLoop

	// AssignEventLoop records the channel's affinity. It fails with
	// ErrAlreadyRegistered if an affinity already exists.
	AssignEventLoop(loop EventLoop) error

	// Bind performs the low-level registration with loop. It is always called
	// on loop's own goroutine.
	Bind(loop EventLoop) error

	// IsRegistered reports whether Bind completed successfully.
	IsRegistered() bool

	// MarkRegistered is called by the loop after a successful Bind.
	MarkRegistered()
}
