// File: reactor/group.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"strconv"
	"time"

	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/core/concurrency"
	"github.com/ygrebnov/errorc"
)

// EventLoopGroup is a fixed pool of event loops that registers channels.
type EventLoopGroup struct {
	*concurrency.Group[*EventLoop]
}

// NewEventLoopGroup creates n event loops named <name>-<i>. n <= 0 selects
// concurrency.DefaultGroupSize.
func NewEventLoopGroup(n int, opts ...Option) (*EventLoopGroup, error) {
	cfg, err := newLoopConfig("eventloop", opts)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = concurrency.DefaultGroupSize()
	}
	loops := make([]*EventLoop, 0, n)
	for i := 0; i < n; i++ {
		l, err := newEventLoop(cfg.member(i, cfg.name+"-"+strconv.Itoa(i)))
		if err != nil {
			for _, created := range loops {
				created.ShutdownGracefully(0, time.Second)
			}
			return nil, err
		}
		loops = append(loops, l)
	}
	g, err := concurrency.NewGroup[*EventLoop](loops, cfg.chooser,
		concurrency.WithNamePrefix(cfg.name),
		concurrency.WithLogger(cfg.logger),
		concurrency.WithShutdownGrace(cfg.grace),
	)
	if err != nil {
		return nil, err
	}
	return &EventLoopGroup{Group: g}, nil
}

// Register binds ch to the next loop.
func (g *EventLoopGroup) Register(ch api.Channel) api.Future[api.Channel] {
	return g.Next().Register(ch)
}

// RegisterPromise binds p's channel and completes p. A p owned by one of the
// group's loops is registered there, an unowned p on the next loop. A p owned
// by any other executor fails with api.ErrInvalidArgument. A completed p
// yields a future failed with api.ErrAlreadyCompleted.
func (g *EventLoopGroup) RegisterPromise(p *ChannelPromise) api.Future[api.Channel] {
	if p != nil && p.IsDone() {
		id := ""
		if p.channel != nil {
			id = p.channel.ID()
		}
		return concurrency.Failed[api.Channel](errorc.With(api.ErrAlreadyCompleted, errorc.String("channel", id)))
	}
	return register(g.loopFor(p), p)
}

func (g *EventLoopGroup) loopFor(p *ChannelPromise) *EventLoop {
	if p != nil {
		if owner, ok := p.Executor().(*EventLoop); ok {
			for _, l := range g.Executors() {
				if l == owner {
					return l
				}
			}
		}
	}
	return g.Next()
}
