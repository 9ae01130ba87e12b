// File: core/concurrency/observer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"time"
)

// Observer receives executor activity. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	TaskSubmitted(executor string)
	TaskRejected(executor string)
	TaskCompleted(executor string, elapsed time.Duration)
	TaskFault(executor string, err error)
	StateChanged(executor string, state State)
}

type nopObserver struct{}

func (nopObserver) TaskSubmitted(string)                {}
func (nopObserver) TaskRejected(string)                 {}
func (nopObserver) TaskCompleted(string, time.Duration) {}
func (nopObserver) TaskFault(string, error)             {}
func (nopObserver) StateChanged(string, State)          {}
