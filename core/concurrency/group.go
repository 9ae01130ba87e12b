// File: core/concurrency/group.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Group is a fixed, ordered pool of executors with round-robin selection and
// pool-wide lifecycle control.

package concurrency

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

// DefaultGroupSize is twice the number of usable processors.
func DefaultGroupSize() int {
	return 2 * runtime.GOMAXPROCS(0)
}

// Group owns an immutable set of executors.
type Group[E api.Executor] struct {
	members []E
	chooser Chooser[E]
	name    string
	grace   time.Duration
	log     *logiface.Logger[logiface.Event]

	remaining  atomic.Int64
	terminated *Promise[struct{}]

	shutdownMu sync.Mutex
	aggregate  *Promise[struct{}]
}

// NewGroup builds a group over members. A nil factory selects
// DefaultChooserFactory.
func NewGroup[E api.Executor](members []E, factory ChooserFactory[E], opts ...Option) (*Group[E], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		factory = DefaultChooserFactory[E]{}
	}
	chooser, err := factory.NewChooser(members)
	if err != nil {
		return nil, err
	}
	g := &Group[E]{
		members:    append([]E(nil), members...),
		chooser:    chooser,
		name:       cfg.namePrefix,
		grace:      cfg.shutdownGrace,
		log:        cfg.logger,
		terminated: NewPromise[struct{}](nil),
	}
	g.remaining.Store(int64(len(g.members)))
	for _, m := range g.members {
		m.TerminationFuture().AddListener(func(api.Future[struct{}]) {
			if g.remaining.Add(-1) == 0 {
				g.terminated.TrySuccess(struct{}{})
			}
		})
	}
	return g, nil
}

// NewExecutorGroup creates n single-thread executors named <prefix>-<i>.
// n <= 0 selects DefaultGroupSize.
func NewExecutorGroup(n int, opts ...Option) (*Group[*SingleThreadExecutor], error) {
	if n <= 0 {
		n = DefaultGroupSize()
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	members := make([]*SingleThreadExecutor, n)
	for i := range members {
		if members[i], err = NewSingleThreadExecutor(cfg.memberOptions(i)...); err != nil {
			return nil, err
		}
	}
	return NewGroup[*SingleThreadExecutor](members, nil, opts...)
}

// Next returns the next member chosen by the group's chooser.
func (g *Group[E]) Next() E { return g.chooser.Next() }

// Executors returns a copy of the members, in order.
func (g *Group[E]) Executors() []E { return append([]E(nil), g.members...) }

func (g *Group[E]) Len() int { return len(g.members) }

// Execute submits task to the next member.
func (g *Group[E]) Execute(task api.Task) error { return g.Next().Execute(task) }

// TerminationFuture completes when every member has terminated.
func (g *Group[E]) TerminationFuture() api.Future[struct{}] { return g.terminated }

func (g *Group[E]) IsShuttingDown() bool {
	for _, m := range g.members {
		if !m.IsShuttingDown() {
			return false
		}
	}
	return true
}

func (g *Group[E]) IsTerminated() bool {
	for _, m := range g.members {
		if !m.IsTerminated() {
			return false
		}
	}
	return true
}

// ShutdownGracefully broadcasts shutdown to every member. The returned future
// succeeds once all members have terminated, or fails with
// api.ErrShutdownTimeout if that has not happened within timeout plus the
// group's shutdown grace. Repeated calls return the same future.
func (g *Group[E]) ShutdownGracefully(quietPeriod, timeout time.Duration) api.Future[struct{}] {
	if quietPeriod < 0 || timeout < quietPeriod {
		return Failed[struct{}](errorc.With(api.ErrInvalidArgument,
			errorc.String("quiet_period", quietPeriod.String()),
			errorc.String("timeout", timeout.String())))
	}

	g.shutdownMu.Lock()
	defer g.shutdownMu.Unlock()
	if g.aggregate != nil {
		return g.aggregate
	}
	agg := NewPromise[struct{}](nil)
	g.aggregate = agg

	g.log.Info().
		Str("group", g.name).
		Int("executors", len(g.members)).
		Dur("quiet_period", quietPeriod).
		Dur("timeout", timeout).
		Log("shutting down executor group")

	for _, m := range g.members {
		m.ShutdownGracefully(quietPeriod, timeout)
	}

	limit := timeout + g.grace
	timer := time.AfterFunc(limit, func() {
		if agg.TryFailure(errorc.With(api.ErrShutdownTimeout,
			errorc.String("group", g.name),
			errorc.String("limit", limit.String()))) {
			g.log.Warning().Str("group", g.name).Dur("limit", limit).Log("executor group shutdown timed out")
		}
	})
	g.terminated.AddListener(func(api.Future[struct{}]) {
		timer.Stop()
		if agg.TrySuccess(struct{}{}) {
			g.log.Info().Str("group", g.name).Log("executor group terminated")
		}
	})
	return agg
}

func (g *Group[E]) String() string {
	return g.name + "(" + strconv.Itoa(len(g.members)) + ")"
}
