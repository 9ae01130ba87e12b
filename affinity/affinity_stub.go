//go:build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import (
	"runtime"

	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

func pinPlatform(int) error {
	return errorc.With(api.ErrNotSupported, errorc.String("os", runtime.GOOS))
}

// Current is not available on this platform.
func Current() ([]int, error) {
	return nil, errorc.With(api.ErrNotSupported, errorc.String("os", runtime.GOOS))
}
