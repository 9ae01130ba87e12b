// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files guarded by build tags.

package affinity

import (
	"runtime"
	"strconv"

	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

// maxCPU matches the kernel's CPU_SETSIZE.
const maxCPU = 1024

// Pin binds the calling OS thread to the given logical CPU. The caller must
// hold the thread with runtime.LockOSThread for the pin to be meaningful.
func Pin(cpu int) error {
	if cpu < 0 || cpu >= maxCPU {
		return errorc.With(api.ErrInvalidArgument, errorc.String("cpu", strconv.Itoa(cpu)))
	}
	return pinPlatform(cpu)
}

// Spread returns n CPU ids assigned round robin over the usable CPUs.
func Spread(n int) []int {
	cpus := make([]int, n)
	total := runtime.NumCPU()
	for i := range cpus {
		cpus[i] = i % total
	}
	return cpus
}
