// File: core/concurrency/promise.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Promise is a single-assignment completion cell. Listeners are kept in one
// ordered list and drained by a single notifier running on the owning
// executor, so completion and AddListener never race on delivery order.

package concurrency

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

type promiseState uint8

const (
	promisePending promiseState = iota
	promiseSucceeded
	promiseFailed
)

// scheduler is the internal submission path of executors in this module.
type scheduler interface {
	Schedule(task api.Task) error
}

type faultReporter interface {
	reportFault(err error)
}

// Promise implements api.Future and adds the producer side.
type Promise[T any] struct {
	owner api.Executor

	mu        sync.Mutex
	state     promiseState
	value     T
	cause     error
	listeners []api.Listener[T]
	notifying bool
	done      chan struct{}
}

var _ api.Future[struct{}] = (*Promise[struct{}])(nil)

// NewPromise returns a pending promise whose listeners run on owner. A nil
// owner delivers on the completing or adding goroutine.
func NewPromise[T any](owner api.Executor) *Promise[T] {
	return &Promise[T]{owner: owner, done: make(chan struct{})}
}

// Succeeded returns a future already completed with v.
func Succeeded[T any](v T) *Promise[T] {
	p := NewPromise[T](nil)
	p.complete(promiseSucceeded, v, nil)
	return p
}

// Failed returns a future already failed with cause.
func Failed[T any](cause error) *Promise[T] {
	p := NewPromise[T](nil)
	var zero T
	p.complete(promiseFailed, zero, cause)
	return p
}

// Executor returns the owner listeners are delivered on, nil if unbound.
func (p *Promise[T]) Executor() api.Executor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owner
}

// BindExecutor sets the owner of a promise created without one. It reports
// whether owner is now the promise's executor; a different owner that was
// already set is kept.
func (p *Promise[T]) BindExecutor(owner api.Executor) bool {
	if owner == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner == nil {
		p.owner = owner
	}
	return p.owner == owner
}

// SetSuccess completes the promise with v, or fails with
// api.ErrAlreadyCompleted.
func (p *Promise[T]) SetSuccess(v T) error {
	if !p.complete(promiseSucceeded, v, nil) {
		return api.ErrAlreadyCompleted
	}
	return nil
}

// SetFailure completes the promise with cause, or fails with
// api.ErrAlreadyCompleted.
func (p *Promise[T]) SetFailure(cause error) error {
	if cause == nil {
		return errorc.With(api.ErrInvalidArgument, errorc.String("cause", "nil"))
	}
	var zero T
	if !p.complete(promiseFailed, zero, cause) {
		return api.ErrAlreadyCompleted
	}
	return nil
}

func (p *Promise[T]) TrySuccess(v T) bool {
	return p.complete(promiseSucceeded, v, nil)
}

func (p *Promise[T]) TryFailure(cause error) bool {
	if cause == nil {
		return false
	}
	var zero T
	return p.complete(promiseFailed, zero, cause)
}

func (p *Promise[T]) complete(state promiseState, v T, cause error) bool {
	p.mu.Lock()
	if p.state != promisePending {
		p.mu.Unlock()
		return false
	}
	p.state = state
	p.value = v
	p.cause = cause
	close(p.done)
	notify := len(p.listeners) > 0 && !p.notifying
	if notify {
		p.notifying = true
	}
	p.mu.Unlock()

	if notify {
		p.dispatch()
	}
	return true
}

// AddListener appends l. Once the promise is complete, l runs exactly once on
// the owning executor, after every listener added before it.
func (p *Promise[T]) AddListener(l api.Listener[T]) api.Future[T] {
	if l == nil {
		return p
	}
	p.mu.Lock()
	p.listeners = append(p.listeners, l)
	notify := p.state != promisePending && !p.notifying
	if notify {
		p.notifying = true
	}
	p.mu.Unlock()

	if notify {
		p.dispatch()
	}
	return p
}

// dispatch hands the notifier to the owner. A terminated owner cannot take
// it, then the caller delivers.
func (p *Promise[T]) dispatch() {
	owner := p.Executor()
	if owner == nil || owner.InLoop() {
		p.notifyListeners()
		return
	}
	var err error
	if s, ok := owner.(scheduler); ok {
		err = s.Schedule(api.TaskFunc(p.notifyListeners))
	} else {
		err = owner.Execute(api.TaskFunc(p.notifyListeners))
	}
	if err != nil {
		p.notifyListeners()
	}
}

func (p *Promise[T]) notifyListeners() {
	for {
		p.mu.Lock()
		batch := p.listeners
		p.listeners = nil
		if len(batch) == 0 {
			p.notifying = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		for _, l := range batch {
			p.invoke(l)
		}
	}
}

func (p *Promise[T]) invoke(l api.Listener[T]) {
	defer func() {
		if r := recover(); r != nil {
			fault := &TaskFault{Value: r, Stack: debug.Stack()}
			owner := p.Executor()
			if fr, ok := owner.(faultReporter); ok {
				fault.Executor = ownerName(owner)
				fr.reportFault(fault)
			}
		}
	}()
	l(p)
}

func ownerName(owner api.Executor) string {
	if n, ok := owner.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}

func (p *Promise[T]) IsDone() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Promise[T]) IsSuccess() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == promiseSucceeded
}

func (p *Promise[T]) Cause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cause
}

func (p *Promise[T]) GetNow() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.state == promiseSucceeded
}

func (p *Promise[T]) Done() <-chan struct{} { return p.done }

// Await waits for completion or the end of ctx. On the owning executor it
// fails with api.ErrSelfDeadlock unless the promise is already complete.
func (p *Promise[T]) Await(ctx context.Context) error {
	if p.IsDone() {
		return nil
	}
	if owner := p.Executor(); owner != nil && owner.InLoop() {
		return errorc.With(api.ErrSelfDeadlock, errorc.String("executor", ownerName(owner)))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync waits like Await and then returns the value or the failure cause.
func (p *Promise[T]) Sync(ctx context.Context) (T, error) {
	if err := p.Await(ctx); err != nil {
		var zero T
		return zero, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.cause
}
