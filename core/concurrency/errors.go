// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"fmt"

	"github.com/momentics/hioload-loop/api"
)

// TaskFault is a recovered task panic. It matches api.ErrUncaughtTaskFault and,
// when the panic value is an error, that error too.
type TaskFault struct {
	Executor string
	Value    any
	Stack    []byte
}

func (f *TaskFault) Error() string {
	return fmt.Sprintf("%s: %s: %v", api.ErrUncaughtTaskFault.Error(), f.Executor, f.Value)
}

func (f *TaskFault) Unwrap() []error {
	if err, ok := f.Value.(error); ok {
		return []error{api.ErrUncaughtTaskFault, err}
	}
	return []error{api.ErrUncaughtTaskFault}
}
