// File: reactor/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

type loopSlot struct {
	loop api.EventLoop
}

// ChannelBase carries the affinity bookkeeping every api.Channel needs.
// Embedders provide Bind.
type ChannelBase struct {
	id         string
	slot       atomic.Pointer[loopSlot]
	registered atomic.Bool
}

// NewChannelBase returns a base with the given id, or a random UUID when id
// is empty.
func NewChannelBase(id string) *ChannelBase {
	if id == "" {
		id = uuid.NewString()
	}
	return &ChannelBase{id: id}
}

func (c *ChannelBase) ID() string { return c.id }

func (c *ChannelBase) EventLoop() api.EventLoop {
	if s := c.slot.Load(); s != nil {
		return s.loop
	}
	return nil
}

// AssignEventLoop records the affinity once; it never changes afterwards.
func (c *ChannelBase) AssignEventLoop(loop api.EventLoop) error {
	if loop == nil {
		return errorc.With(api.ErrInvalidArgument, errorc.String("channel", c.id))
	}
	if !c.slot.CompareAndSwap(nil, &loopSlot{loop: loop}) {
		return errorc.With(api.ErrAlreadyRegistered, errorc.String("channel", c.id))
	}
	return nil
}

// Bind does nothing; channels with a kernel resource override it.
func (c *ChannelBase) Bind(api.EventLoop) error { return nil }

func (c *ChannelBase) IsRegistered() bool { return c.registered.Load() }

func (c *ChannelBase) MarkRegistered() { c.registered.Store(true) }

// Execute runs task on the channel's loop.
func (c *ChannelBase) Execute(task api.Task) error {
	loop := c.EventLoop()
	if loop == nil {
		return errorc.With(api.ErrNotRegistered, errorc.String("channel", c.id))
	}
	return loop.Execute(task)
}
