// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/core/concurrency"
	"github.com/momentics/hioload-loop/reactor"
)

// FakeChannel is an api.Channel that records its bind.
type FakeChannel struct {
	*reactor.ChannelBase

	mu        sync.Mutex
	BindErr   error
	BindPanic any
	binds     int
	bindGoID  atomic.Uint64
	boundLoop api.EventLoop
}

// NewFakeChannel returns a channel with the given id, or a random one.
func NewFakeChannel(id string) *FakeChannel {
	return &FakeChannel{ChannelBase: reactor.NewChannelBase(id)}
}

func (c *FakeChannel) Bind(loop api.EventLoop) error {
	c.mu.Lock()
	c.binds++
	c.boundLoop = loop
	err, p := c.BindErr, c.BindPanic
	c.mu.Unlock()
	c.bindGoID.Store(concurrency.CurrentGoroutineID())
	if p != nil {
		panic(p)
	}
	return err
}

// Binds returns how many times Bind ran.
func (c *FakeChannel) Binds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.binds
}

// BoundLoop returns the loop passed to the last Bind.
func (c *FakeChannel) BoundLoop() api.EventLoop {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boundLoop
}

// BindGoroutine returns the goroutine id Bind ran on.
func (c *FakeChannel) BindGoroutine() uint64 { return c.bindGoID.Load() }
