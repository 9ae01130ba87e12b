// File: core/concurrency/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "fmt"

// State is the lifecycle state of an executor. Transitions only move forward.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
