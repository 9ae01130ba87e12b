// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-loop/api"
)

// FakePoller is an api.Poller whose readiness is fired by hand.
type FakePoller struct {
	mu        sync.Mutex
	handlers  map[int]api.ReadinessFunc
	interests map[int]api.Readiness
	ready     chan api.ReadyEvent
	wakeup    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewFakePoller returns an empty poller.
func NewFakePoller() *FakePoller {
	return &FakePoller{
		handlers:  make(map[int]api.ReadinessFunc),
		interests: make(map[int]api.Readiness),
		ready:     make(chan api.ReadyEvent, 64),
		wakeup:    make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
}

// Factory adapts f to a poller factory that always hands out f.
func (f *FakePoller) Factory() func() (api.Poller, error) {
	return func() (api.Poller, error) { return f, nil }
}

func (f *FakePoller) Register(fd int, interest api.Readiness, fn api.ReadinessFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.IsClosed() {
		return api.ErrPollerClosed
	}
	if _, ok := f.handlers[fd]; ok {
		return api.ErrAlreadyRegistered
	}
	f.handlers[fd] = fn
	f.interests[fd] = interest
	return nil
}

func (f *FakePoller) Modify(fd int, interest api.Readiness) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handlers[fd]; !ok {
		return api.ErrNotRegistered
	}
	f.interests[fd] = interest
	return nil
}

func (f *FakePoller) Unregister(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handlers[fd]; !ok {
		return api.ErrNotRegistered
	}
	delete(f.handlers, fd)
	delete(f.interests, fd)
	return nil
}

// Interest returns the registered interest of fd.
func (f *FakePoller) Interest(fd int) (api.Readiness, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.interests[fd]
	return r, ok
}

// Fire delivers readiness r for fd to the next Wait. It reports false when
// fd is not registered.
func (f *FakePoller) Fire(fd int, r api.Readiness) bool {
	f.mu.Lock()
	fn, ok := f.handlers[fd]
	f.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case f.ready <- api.ReadyEvent{Fd: fd, Ready: r, Handler: fn}:
		return true
	case <-f.closed:
		return false
	}
}

func (f *FakePoller) Wait(events []api.ReadyEvent) (int, error) {
	select {
	case <-f.closed:
		return 0, api.ErrPollerClosed
	case <-f.wakeup:
		return 0, nil
	case ev := <-f.ready:
		events[0] = ev
		n := 1
		for n < len(events) {
			select {
			case ev = <-f.ready:
				events[n] = ev
				n++
			default:
				return n, nil
			}
		}
		return n, nil
	}
}

func (f *FakePoller) Wakeup() error {
	select {
	case f.wakeup <- struct{}{}:
	default:
	}
	return nil
}

func (f *FakePoller) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// IsClosed reports whether Close has been called.
func (f *FakePoller) IsClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}
