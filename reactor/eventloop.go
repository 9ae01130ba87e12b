// File: reactor/eventloop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventLoop is a single-thread executor that also owns a readiness poller.
// Readiness is collected on a dedicated poll goroutine and handed to the loop
// as ordinary tasks, so handlers always run on the loop's worker.

package reactor

import (
	"errors"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/core/concurrency"
)

// EventLoop implements api.EventLoop.
type EventLoop struct {
	*concurrency.SingleThreadExecutor
	poller *loopPoller
	log    *logiface.Logger[logiface.Event]
}

var _ api.EventLoop = (*EventLoop)(nil)

// NewEventLoop creates an idle event loop with its own poller.
func NewEventLoop(opts ...Option) (*EventLoop, error) {
	cfg, err := newLoopConfig("eventloop", opts)
	if err != nil {
		return nil, err
	}
	return newEventLoop(cfg)
}

func newEventLoop(cfg *loopConfig) (*EventLoop, error) {
	execOpts := append([]concurrency.Option{
		concurrency.WithName(cfg.name),
		concurrency.WithLogger(cfg.logger),
		concurrency.WithObserver(cfg.observer),
		concurrency.WithCPU(cfg.cpu),
	}, cfg.executorOpts...)
	exec, err := concurrency.NewSingleThreadExecutor(execOpts...)
	if err != nil {
		return nil, err
	}
	poller, err := cfg.pollerFactory()
	if err != nil {
		return nil, err
	}
	l := &EventLoop{SingleThreadExecutor: exec, log: cfg.logger}
	l.poller = &loopPoller{
		Poller: poller,
		loop:   l,
		batch:  cfg.eventsPerWait,
	}
	l.TerminationFuture().AddListener(func(api.Future[struct{}]) {
		if err := l.poller.Close(); err != nil {
			l.log.Warning().Str("loop", l.Name()).Err(err).Log("poller close failed")
		}
	})
	return l, nil
}

// Poller returns the loop's readiness source.
func (l *EventLoop) Poller() api.Poller { return l.poller }

// Register binds ch to this loop.
func (l *EventLoop) Register(ch api.Channel) api.Future[api.Channel] {
	if ch == nil {
		return concurrency.Failed[api.Channel](api.ErrInvalidArgument)
	}
	return register(l, NewChannelPromise(ch, l))
}

// RegisterPromise binds p's channel to this loop and completes p.
func (l *EventLoop) RegisterPromise(p *ChannelPromise) api.Future[api.Channel] {
	return register(l, p)
}

// loopPoller starts the poll goroutine on the first registered fd.
type loopPoller struct {
	api.Poller
	loop  *EventLoop
	batch int
	once  sync.Once
}

func (p *loopPoller) Register(fd int, interest api.Readiness, fn api.ReadinessFunc) error {
	if fn == nil {
		return api.ErrInvalidArgument
	}
	if err := p.Poller.Register(fd, interest, fn); err != nil {
		return err
	}
	p.once.Do(func() { go p.pollLoop() })
	return nil
}

func (p *loopPoller) pollLoop() {
	log := p.loop.log
	log.Debug().Str("loop", p.loop.Name()).Log("poll goroutine started")
	events := make([]api.ReadyEvent, p.batch)
	for {
		n, err := p.Poller.Wait(events)
		if err != nil {
			if errors.Is(err, api.ErrPollerClosed) {
				log.Debug().Str("loop", p.loop.Name()).Log("poll goroutine stopped")
			} else {
				log.Err().Str("loop", p.loop.Name()).Err(err).Log("poller wait failed")
			}
			return
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			events[i] = api.ReadyEvent{}
			if err := p.loop.Schedule(api.TaskFunc(func() { ev.Handler(ev.Fd, ev.Ready) })); err != nil {
				return
			}
		}
	}
}
