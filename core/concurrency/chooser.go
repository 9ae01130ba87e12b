// File: core/concurrency/chooser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Round-robin selection of the next executor of a fixed pool.

package concurrency

import (
	"strconv"
	"sync/atomic"

	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

// Chooser selects the next executor. Next is safe for concurrent use.
type Chooser[E any] interface {
	Next() E
}

// ChooserFactory builds a Chooser over a pool snapshot.
type ChooserFactory[E any] interface {
	NewChooser(executors []E) (Chooser[E], error)
}

// DefaultChooserFactory picks the mask-based chooser for power-of-two pool
// sizes and the modulo chooser otherwise.
type DefaultChooserFactory[E any] struct{}

// NewChooser fails with api.ErrInvalidConfiguration for an empty pool.
func (DefaultChooserFactory[E]) NewChooser(executors []E) (Chooser[E], error) {
	if len(executors) == 0 {
		return nil, errorc.With(api.ErrInvalidConfiguration, errorc.String("executors", "empty"))
	}
	snapshot := make([]E, len(executors))
	copy(snapshot, executors)
	if isPowerOfTwo(len(snapshot)) {
		return &powerOfTwoChooser[E]{executors: snapshot, mask: uint64(len(snapshot) - 1)}, nil
	}
	return &genericChooser[E]{executors: snapshot, n: uint64(len(snapshot))}, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

type powerOfTwoChooser[E any] struct {
	idx       atomic.Uint64
	_         [56]byte // keep the hot counter on its own cache line
	executors []E
	mask      uint64
}

func (c *powerOfTwoChooser[E]) Next() E {
	return c.executors[(c.idx.Add(1)-1)&c.mask]
}

func (c *powerOfTwoChooser[E]) String() string {
	return "powerOfTwoChooser(" + strconv.Itoa(len(c.executors)) + ")"
}

type genericChooser[E any] struct {
	idx       atomic.Uint64
	_         [56]byte
	executors []E
	n         uint64
}

// Next wraps at 2^64; the unsigned modulo keeps every index in range.
func (c *genericChooser[E]) Next() E {
	return c.executors[(c.idx.Add(1)-1)%c.n]
}

func (c *genericChooser[E]) String() string {
	return "genericChooser(" + strconv.Itoa(len(c.executors)) + ")"
}
