// File: core/concurrency/executor.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SingleThreadExecutor runs tasks one at a time, in submission order, on a
// single lazily started worker goroutine. Shutdown is cooperative: queued
// tasks are drained, then the worker waits for a quiet period bounded by a
// hard timeout.

package concurrency

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/affinity"
	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

// SingleThreadExecutor implements api.Executor.
type SingleThreadExecutor struct {
	cfg      *config
	log      *logiface.Logger[logiface.Event]
	observer Observer
	queue    *taskQueue
	state    atomic.Int32
	goid     atomic.Uint64

	// written under shutdownMu before the transition to StateShuttingDown
	shutdownMu    sync.Mutex
	quietPeriod   time.Duration
	timeout       time.Duration
	shutdownStart time.Time

	// worker-local
	lastExecution time.Time

	terminated *Promise[struct{}]
}

var _ api.Executor = (*SingleThreadExecutor)(nil)

// NewSingleThreadExecutor creates an idle executor. No goroutine is started
// until the first task is submitted.
func NewSingleThreadExecutor(opts ...Option) (*SingleThreadExecutor, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	e := &SingleThreadExecutor{
		cfg:      cfg,
		log:      cfg.logger,
		observer: cfg.observer,
		queue:    newTaskQueue(),
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	e.terminated = NewPromise[struct{}](e)
	return e, nil
}

// Name returns the executor name.
func (e *SingleThreadExecutor) Name() string { return e.cfg.name }

// State returns the current lifecycle state.
func (e *SingleThreadExecutor) State() State { return State(e.state.Load()) }

func (e *SingleThreadExecutor) IsShuttingDown() bool { return e.State() >= StateShuttingDown }

func (e *SingleThreadExecutor) IsTerminated() bool { return e.State() == StateTerminated }

// PendingTasks returns the number of queued tasks.
func (e *SingleThreadExecutor) PendingTasks() int { return e.queue.len() }

func (e *SingleThreadExecutor) TerminationFuture() api.Future[struct{}] { return e.terminated }

// InLoop reports whether the caller is the worker goroutine.
func (e *SingleThreadExecutor) InLoop() bool {
	id := e.goid.Load()
	return id != 0 && id == CurrentGoroutineID()
}

// Execute enqueues task. It fails with api.ErrRejectedSubmission once
// shutdown has begun.
func (e *SingleThreadExecutor) Execute(task api.Task) error {
	if task == nil {
		return errorc.With(api.ErrInvalidArgument, errorc.String("executor", e.cfg.name))
	}
	if e.IsShuttingDown() || !e.queue.push(task) {
		e.observer.TaskRejected(e.cfg.name)
		return errorc.With(api.ErrRejectedSubmission, errorc.String("executor", e.cfg.name))
	}
	e.observer.TaskSubmitted(e.cfg.name)
	e.startWorker()
	return nil
}

// Schedule enqueues an internal task. Unlike Execute it is accepted while
// shutting down, and only rejected once the executor has terminated.
func (e *SingleThreadExecutor) Schedule(task api.Task) error {
	if task == nil {
		return errorc.With(api.ErrInvalidArgument, errorc.String("executor", e.cfg.name))
	}
	if !e.queue.push(task) {
		return errorc.With(api.ErrRejectedSubmission, errorc.String("executor", e.cfg.name))
	}
	e.startWorker()
	return nil
}

func (e *SingleThreadExecutor) startWorker() {
	if e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		e.observer.StateChanged(e.cfg.name, StateRunning)
		go e.run()
	}
}

// ShutdownGracefully moves the executor to StateShuttingDown. Queued tasks
// still run. The worker terminates once no task has run for quietPeriod,
// counted from the later of this call and the last task, or once timeout has
// elapsed since this call. The returned future completes on termination.
func (e *SingleThreadExecutor) ShutdownGracefully(quietPeriod, timeout time.Duration) api.Future[struct{}] {
	if quietPeriod < 0 || timeout < quietPeriod {
		return Failed[struct{}](errorc.With(api.ErrInvalidArgument,
			errorc.String("quiet_period", quietPeriod.String()),
			errorc.String("timeout", timeout.String())))
	}

	e.shutdownMu.Lock()
	defer e.shutdownMu.Unlock()
	if e.IsShuttingDown() {
		return e.terminated
	}
	e.quietPeriod = quietPeriod
	e.timeout = timeout
	e.shutdownStart = time.Now()

	for {
		old := e.state.Load()
		if State(old) >= StateShuttingDown {
			return e.terminated
		}
		if e.state.CompareAndSwap(old, int32(StateShuttingDown)) {
			e.observer.StateChanged(e.cfg.name, StateShuttingDown)
			e.log.Debug().
				Str("executor", e.cfg.name).
				Dur("quiet_period", quietPeriod).
				Dur("timeout", timeout).
				Log("executor shutting down")
			if State(old) == StateIdle {
				go e.run()
			} else {
				e.queue.wake()
			}
			return e.terminated
		}
	}
}

func (e *SingleThreadExecutor) run() {
	e.goid.Store(CurrentGoroutineID())
	if e.cfg.cpu >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := affinity.Pin(e.cfg.cpu); err != nil {
			e.log.Warning().
				Str("executor", e.cfg.name).
				Int("cpu", e.cfg.cpu).
				Err(err).
				Log("cpu pinning failed")
		}
	}
	e.log.Debug().Str("executor", e.cfg.name).Log("executor worker started")

	buf := make([]api.Task, 0, e.cfg.batchSize)
	for {
		buf = e.queue.drain(buf[:0])
		if len(buf) > 0 {
			for i, task := range buf {
				e.runTask(task)
				buf[i] = nil
			}
			e.lastExecution = time.Now()
			if e.IsShuttingDown() && time.Since(e.shutdownStart) >= e.timeout {
				break
			}
			continue
		}
		if e.IsShuttingDown() {
			if e.confirmShutdown() {
				break
			}
			continue
		}
		<-e.queue.signal
	}

	e.terminate()
}

// confirmShutdown reports whether the worker may terminate, otherwise it
// waits for new work or the end of the quiet period.
func (e *SingleThreadExecutor) confirmShutdown() bool {
	now := time.Now()
	elapsed := now.Sub(e.shutdownStart)
	if elapsed >= e.timeout || e.quietPeriod <= 0 {
		return true
	}
	idleFrom := e.shutdownStart
	if e.lastExecution.After(idleFrom) {
		idleFrom = e.lastExecution
	}
	idle := now.Sub(idleFrom)
	if idle >= e.quietPeriod {
		return true
	}
	wait := e.quietPeriod - idle
	if rem := e.timeout - elapsed; rem < wait {
		wait = rem
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.queue.signal:
	}
	return false
}

func (e *SingleThreadExecutor) terminate() {
	// Whatever slipped in before the queue closed still runs, once.
	for _, task := range e.queue.close() {
		e.runTask(task)
	}
	e.state.Store(int32(StateTerminated))
	e.observer.StateChanged(e.cfg.name, StateTerminated)
	e.log.Debug().Str("executor", e.cfg.name).Log("executor terminated")
	e.terminated.TrySuccess(struct{}{})
}

func (e *SingleThreadExecutor) runTask(task api.Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.handleFault(task, &TaskFault{Executor: e.cfg.name, Value: r, Stack: debug.Stack()})
			return
		}
		e.observer.TaskCompleted(e.cfg.name, time.Since(start))
	}()
	task.Run()
}

// handleFault reports err to the task itself, the log, the observer and the
// fault handler. None of them can bring the worker down.
func (e *SingleThreadExecutor) handleFault(task api.Task, err error) {
	if r, ok := task.(api.FailureReporter); ok {
		safeCall(func() { r.ReportFailure(err) })
	}
	e.log.Err().
		Str("executor", e.cfg.name).
		Err(err).
		Log("task fault")
	e.observer.TaskFault(e.cfg.name, err)
	if h := e.cfg.faultHandler; h != nil {
		safeCall(func() { h(e.cfg.name, task, err) })
	}
}

func safeCall(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// reportFault routes a fault raised outside a task, such as a panicking
// promise listener, through the same reporting path.
func (e *SingleThreadExecutor) reportFault(err error) {
	e.handleFault(nil, err)
}
