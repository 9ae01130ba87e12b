// File: core/concurrency/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"strconv"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

const (
	defaultTaskBatchSize = 64
	defaultShutdownGrace = time.Second
)

// FaultHandler receives every task fault after it has been logged.
type FaultHandler func(executor string, task api.Task, err error)

// Option configures executors and groups.
type Option func(*config) error

type config struct {
	name          string
	namePrefix    string
	logger        *logiface.Logger[logiface.Event]
	observer      Observer
	faultHandler  FaultHandler
	cpu           int
	cpus          []int
	batchSize     int
	shutdownGrace time.Duration
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		name:          "executor",
		namePrefix:    "executor",
		cpu:           -1,
		batchSize:     defaultTaskBatchSize,
		shutdownGrace: defaultShutdownGrace,
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

// memberOptions derives the options of the i-th member of a group.
func (c *config) memberOptions(i int) []Option {
	opts := []Option{
		WithName(c.namePrefix + "-" + strconv.Itoa(i)),
		WithLogger(c.logger),
		WithObserver(c.observer),
		WithFaultHandler(c.faultHandler),
		WithTaskBatchSize(c.batchSize),
	}
	if len(c.cpus) > 0 {
		opts = append(opts, WithCPU(c.cpus[i%len(c.cpus)]))
	}
	return opts
}

// WithName sets the executor name used in logs, metrics and errors.
func WithName(name string) Option {
	return func(c *config) error {
		if name == "" {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("option", "name"))
		}
		c.name = name
		return nil
	}
}

// WithNamePrefix sets the prefix of member names within a group.
func WithNamePrefix(prefix string) Option {
	return func(c *config) error {
		if prefix == "" {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("option", "name_prefix"))
		}
		c.namePrefix = prefix
		return nil
	}
}

// WithLogger sets the structured logger. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithObserver installs a metrics observer.
func WithObserver(observer Observer) Option {
	return func(c *config) error {
		c.observer = observer
		return nil
	}
}

// WithFaultHandler installs a task fault hook.
func WithFaultHandler(h FaultHandler) Option {
	return func(c *config) error {
		c.faultHandler = h
		return nil
	}
}

// WithCPU pins the worker goroutine's OS thread to cpu. Negative disables.
func WithCPU(cpu int) Option {
	return func(c *config) error {
		c.cpu = cpu
		return nil
	}
}

// WithCPUSet spreads group members over cpus, round robin.
func WithCPUSet(cpus []int) Option {
	return func(c *config) error {
		c.cpus = append([]int(nil), cpus...)
		return nil
	}
}

// WithTaskBatchSize bounds how many tasks the worker drains per wakeup.
func WithTaskBatchSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("task_batch_size", strconv.Itoa(n)))
		}
		c.batchSize = n
		return nil
	}
}

// WithShutdownGrace sets the extra time a group waits past the shutdown
// timeout before failing its aggregate future.
func WithShutdownGrace(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return errorc.With(api.ErrInvalidConfiguration, errorc.String("shutdown_grace", d.String()))
		}
		c.shutdownGrace = d
		return nil
	}
}
