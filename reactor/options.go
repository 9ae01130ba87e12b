// File: reactor/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"time"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/core/concurrency"
	"github.com/ygrebnov/errorc"
)

const defaultEventsPerWait = 128

// PollerFactory creates the readiness poller of one event loop.
type PollerFactory func() (api.Poller, error)

// Option configures event loops and event loop groups.
type Option func(*loopConfig) error

type loopConfig struct {
	name          string
	logger        *logiface.Logger[logiface.Event]
	observer      concurrency.Observer
	pollerFactory PollerFactory
	chooser       concurrency.ChooserFactory[*EventLoop]
	cpu           int
	cpus          []int
	eventsPerWait int
	grace         time.Duration
	executorOpts  []concurrency.Option
}

func newLoopConfig(defaultName string, opts []Option) (*loopConfig, error) {
	cfg := &loopConfig{
		name:          defaultName,
		pollerFactory: NewPoller,
		cpu:           -1,
		eventsPerWait: defaultEventsPerWait,
		grace:         time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithName names a loop, or sets the member name prefix of a group.
func WithName(name string) Option {
	return func(c *loopConfig) error {
		if name == "" {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("option", "name"))
		}
		c.name = name
		return nil
	}
}

// WithLogger sets the structured logger. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(c *loopConfig) error {
		c.logger = logger
		return nil
	}
}

// WithObserver installs an executor observer on every loop.
func WithObserver(observer concurrency.Observer) Option {
	return func(c *loopConfig) error {
		c.observer = observer
		return nil
	}
}

// WithPollerFactory replaces the platform poller.
func WithPollerFactory(f PollerFactory) Option {
	return func(c *loopConfig) error {
		if f == nil {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("option", "poller_factory"))
		}
		c.pollerFactory = f
		return nil
	}
}

// WithChooserFactory replaces the group's loop selection strategy.
func WithChooserFactory(f concurrency.ChooserFactory[*EventLoop]) Option {
	return func(c *loopConfig) error {
		c.chooser = f
		return nil
	}
}

// WithCPUAffinity pins group members to cpus, round robin.
func WithCPUAffinity(cpus []int) Option {
	return func(c *loopConfig) error {
		c.cpus = append([]int(nil), cpus...)
		return nil
	}
}

// WithEventsPerWait bounds the readiness events collected per poll.
func WithEventsPerWait(n int) Option {
	return func(c *loopConfig) error {
		if n <= 0 {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("option", "events_per_wait"))
		}
		c.eventsPerWait = n
		return nil
	}
}

// WithShutdownGrace sets how long past the shutdown timeout a group waits
// before failing its aggregate shutdown future.
func WithShutdownGrace(d time.Duration) Option {
	return func(c *loopConfig) error {
		if d < 0 {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("option", "shutdown_grace"))
		}
		c.grace = d
		return nil
	}
}

// WithExecutorOptions passes options through to every loop's executor.
func WithExecutorOptions(opts ...concurrency.Option) Option {
	return func(c *loopConfig) error {
		c.executorOpts = append(c.executorOpts, opts...)
		return nil
	}
}

func (c *loopConfig) member(i int, name string) *loopConfig {
	m := *c
	m.name = name
	if len(c.cpus) > 0 {
		m.cpu = c.cpus[i%len(c.cpus)]
	}
	return &m
}
