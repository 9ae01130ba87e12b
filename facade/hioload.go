// File: facade/hioload.go
// Unified facade layer for hioload-loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Hioload aggregates the runtime behind a single facade: a boss event loop
// group for accepting channels, a worker event loop group for serving them,
// structured logging, metrics and debug probes, all built from one
// control.Config. Shutdown of both groups is coordinated.

package facade

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/affinity"
	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/control"
	"github.com/momentics/hioload-loop/core/concurrency"
	"github.com/momentics/hioload-loop/reactor"
	"golang.org/x/sync/errgroup"
)

// Option customizes New.
type Option func(*options)

type options struct {
	logger        *logiface.Logger[logiface.Event]
	pollerFactory reactor.PollerFactory
}

// WithLogger replaces the logger built from the configured log level.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(o *options) { o.logger = logger }
}

// WithPollerFactory replaces the platform poller of every loop.
func WithPollerFactory(f reactor.PollerFactory) Option {
	return func(o *options) { o.pollerFactory = f }
}

// Hioload is the main facade type.
// It implements api.GracefulShutdown to allow unified shutdown logic.
type Hioload struct {
	boss    *reactor.EventLoopGroup
	workers *reactor.EventLoopGroup
	log     *logiface.Logger[logiface.Event]
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes

	config  atomic.Pointer[control.Config]
	mu      sync.Mutex // Protects started flag
	started bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*Hioload)(nil)

// New builds the boss and worker groups described by cfg. Loops start lazily
// on their first task.
func New(cfg *control.Config, opts ...Option) (*Hioload, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		logger, err := control.NewLogger(cfg.LogLevel, nil)
		if err != nil {
			return nil, err
		}
		o.logger = logger
	}

	h := &Hioload{
		log:     o.logger,
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
	}
	h.config.Store(cfg)

	workers := cfg.WorkerThreads
	if workers <= 0 {
		workers = concurrency.DefaultGroupSize()
	}
	groupOpts := func(name string, n int) []reactor.Option {
		ro := []reactor.Option{
			reactor.WithName(name),
			reactor.WithLogger(o.logger),
			reactor.WithShutdownGrace(cfg.ShutdownGrace),
			reactor.WithExecutorOptions(concurrency.WithTaskBatchSize(cfg.TaskBatchSize)),
		}
		if cfg.EnableMetrics {
			ro = append(ro, reactor.WithObserver(h.metrics))
		}
		if cfg.CPUAffinity {
			ro = append(ro, reactor.WithCPUAffinity(affinity.Spread(n)))
		}
		if o.pollerFactory != nil {
			ro = append(ro, reactor.WithPollerFactory(o.pollerFactory))
		}
		return ro
	}

	var err error
	if h.boss, err = reactor.NewEventLoopGroup(cfg.BossThreads, groupOpts("boss", cfg.BossThreads)...); err != nil {
		return nil, err
	}
	if h.workers, err = reactor.NewEventLoopGroup(workers, groupOpts("worker", workers)...); err != nil {
		h.boss.ShutdownGracefully(0, cfg.ShutdownTimeout)
		return nil, err
	}
	return h, nil
}

// Start registers probes and marks the runtime started. Subsequent calls have
// no effect.
func (h *Hioload) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return nil
	}
	cfg := h.Config()
	if cfg.EnableDebug {
		control.RegisterPlatformProbes(h.probes)
		for _, g := range []*reactor.EventLoopGroup{h.boss, h.workers} {
			for _, l := range g.Executors() {
				l := l
				h.probes.RegisterProbe("loop."+l.Name()+".pending", func() any { return l.PendingTasks() })
				h.probes.RegisterProbe("loop."+l.Name()+".state", func() any { return l.State().String() })
			}
		}
	}
	h.log.Info().
		Int("boss_threads", h.boss.Len()).
		Int("worker_threads", h.workers.Len()).
		Log("hioload runtime started")
	h.started = true
	return nil
}

// Watch applies reloaded configurations. Only the shutdown quiet period and
// timeout take effect on a running runtime.
func (h *Hioload) Watch(w *control.Watcher) {
	w.OnReload(func(next *control.Config) {
		cur := *h.Config()
		cur.QuietPeriod = next.QuietPeriod
		cur.ShutdownTimeout = next.ShutdownTimeout
		h.config.Store(&cur)
		h.metrics.Add("config.reloads", 1)
		h.log.Info().
			Dur("quiet_period", cur.QuietPeriod).
			Dur("shutdown_timeout", cur.ShutdownTimeout).
			Log("shutdown settings updated")
	})
}

// Shutdown implements api.GracefulShutdown: both groups shut down
// concurrently with the configured quiet period and timeout.
func (h *Hioload) Shutdown(ctx context.Context) error {
	cfg := h.Config()
	h.log.Info().Log("hioload runtime shutting down")
	g, gctx := errgroup.WithContext(ctx)
	for _, group := range []*reactor.EventLoopGroup{h.boss, h.workers} {
		f := group.ShutdownGracefully(cfg.QuietPeriod, cfg.ShutdownTimeout)
		g.Go(func() error {
			if err := f.Await(gctx); err != nil {
				return err
			}
			return f.Cause()
		})
	}
	err := g.Wait()
	if err != nil {
		h.log.Err().Err(err).Log("hioload runtime shutdown incomplete")
	} else {
		h.log.Info().Log("hioload runtime terminated")
	}
	return err
}

// Submit runs fn on the next worker loop.
func (h *Hioload) Submit(fn func()) error {
	return h.workers.Execute(api.TaskFunc(fn))
}

// Register binds ch to the next worker loop.
func (h *Hioload) Register(ch api.Channel) api.Future[api.Channel] {
	return h.workers.Register(ch)
}

// Config returns the effective configuration.
func (h *Hioload) Config() *control.Config { return h.config.Load() }

// Boss returns the accepting group.
func (h *Hioload) Boss() *reactor.EventLoopGroup { return h.boss }

// Workers returns the serving group.
func (h *Hioload) Workers() *reactor.EventLoopGroup { return h.workers }

// Logger returns the runtime logger.
func (h *Hioload) Logger() *logiface.Logger[logiface.Event] { return h.log }

// GetMetrics returns the metrics registry.
func (h *Hioload) GetMetrics() *control.MetricsRegistry { return h.metrics }

// GetDebug returns the debug probes.
func (h *Hioload) GetDebug() *control.DebugProbes { return h.probes }
