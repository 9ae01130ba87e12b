// Package api
// Author: momentics
//
// Readiness source owned by an event loop.

package api

// Readiness is a bit set of I/O conditions.
type Readiness uint32

const (
	Readable Readiness = 1 << iota
	Writable
	Hangup
	Errored
)

// Has reports whether all bits of o are set.
func (r Readiness) Has(o Readiness) bool { return r&o == o }

// ReadinessFunc handles a readiness notification. It runs on the owning loop.
type ReadinessFunc func(fd int, ready Readiness)

// ReadyEvent is one readiness notification produced by Poller.Wait.
type ReadyEvent struct {
	Fd      int
	Ready   Readiness
	Handler ReadinessFunc
}

// Poller is an edge-triggered readiness source. Register, Modify and
// Unregister may be called from any goroutine while another goroutine blocks
// in Wait.
type Poller interface {
	// Register adds fd with the given interest set.
	Register(fd int, interest Readiness, fn ReadinessFunc) error

	// Modify replaces the interest set of fd.
	Modify(fd int, interest Readiness) error

	// Unregister removes fd.
	Unregister(fd int) error

	// Wait blocks until at least one event is ready or Wakeup is called, and
	// fills events. It returns ErrPollerClosed once Close has been called.
	Wait(events []ReadyEvent) (int, error)

	// Wakeup unblocks a pending Wait.
	Wakeup() error

	// Close releases the poller, waking a pending Wait first.
	Close() error
}
