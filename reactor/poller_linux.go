//go:build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based poller. Descriptors are edge triggered; an eventfd
// registered level triggered serves as the wakeup channel.

package reactor

import (
	"strconv"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
	"golang.org/x/sys/unix"
)

// epollPoller implements api.Poller.
type epollPoller struct {
	epfd   int
	wakefd int

	mu       sync.RWMutex
	handlers map[int]api.ReadinessFunc

	waitMu sync.Mutex
	raw    []unix.EpollEvent
	closed atomic.Bool
}

// NewPoller constructs the platform poller for Linux.
func NewPoller() (api.Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errorc.With(err, errorc.String("op", "epoll_create1"))
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, errorc.With(err, errorc.String("op", "eventfd"))
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, errorc.With(err, errorc.String("op", "epoll_ctl"))
	}
	return &epollPoller{
		epfd:     epfd,
		wakefd:   wakefd,
		handlers: make(map[int]api.ReadinessFunc),
	}, nil
}

func toEpoll(interest api.Readiness) uint32 {
	events := uint32(unix.EPOLLET | unix.EPOLLRDHUP)
	if interest.Has(api.Readable) {
		events |= unix.EPOLLIN
	}
	if interest.Has(api.Writable) {
		events |= unix.EPOLLOUT
	}
	return events
}

func fromEpoll(events uint32) api.Readiness {
	var r api.Readiness
	if events&unix.EPOLLIN != 0 {
		r |= api.Readable
	}
	if events&unix.EPOLLOUT != 0 {
		r |= api.Writable
	}
	if events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		r |= api.Hangup
	}
	if events&unix.EPOLLERR != 0 {
		r |= api.Errored
	}
	return r
}

// Register adds fd with the given interest set.
func (p *epollPoller) Register(fd int, interest api.Readiness, fn api.ReadinessFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return api.ErrPollerClosed
	}
	if _, ok := p.handlers[fd]; ok {
		return errorc.With(api.ErrAlreadyRegistered, errorc.String("fd", strconv.Itoa(fd)))
	}
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return errorc.With(err, errorc.String("fd", strconv.Itoa(fd)))
	}
	p.handlers[fd] = fn
	return nil
}

// Modify replaces the interest set of fd.
func (p *epollPoller) Modify(fd int, interest api.Readiness) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return api.ErrPollerClosed
	}
	if _, ok := p.handlers[fd]; !ok {
		return errorc.With(api.ErrNotRegistered, errorc.String("fd", strconv.Itoa(fd)))
	}
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// Unregister removes fd.
func (p *epollPoller) Unregister(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return api.ErrPollerClosed
	}
	if _, ok := p.handlers[fd]; !ok {
		return errorc.With(api.ErrNotRegistered, errorc.String("fd", strconv.Itoa(fd)))
	}
	delete(p.handlers, fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait waits for epoll events and fills events. Wakeups return zero events.
func (p *epollPoller) Wait(events []api.ReadyEvent) (int, error) {
	p.waitMu.Lock()
	defer p.waitMu.Unlock()
	if p.closed.Load() {
		return 0, api.ErrPollerClosed
	}
	if len(events) == 0 {
		return 0, api.ErrInvalidArgument
	}
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	raw := p.raw[:len(events)]

	var n int
	var err error
	for {
		n, err = unix.EpollWait(p.epfd, raw, -1)
		if err == unix.EINTR {
			continue
		}
		break
	}
	if p.closed.Load() {
		return 0, api.ErrPollerClosed
	}
	if err != nil {
		return 0, errorc.With(err, errorc.String("op", "epoll_wait"))
	}

	out := 0
	p.mu.RLock()
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == p.wakefd {
			p.drainWakeup()
			continue
		}
		fn, ok := p.handlers[fd]
		if !ok {
			continue
		}
		events[out] = api.ReadyEvent{Fd: fd, Ready: fromEpoll(raw[i].Events), Handler: fn}
		out++
	}
	p.mu.RUnlock()
	return out, nil
}

func (p *epollPoller) drainWakeup() {
	var buf [8]byte
	_, _ = unix.Read(p.wakefd, buf[:])
}

// Wakeup unblocks a pending Wait.
func (p *epollPoller) Wakeup() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return api.ErrPollerClosed
	}
	return p.wake()
}

func (p *epollPoller) wake() error {
	var buf [8]byte
	*(*uint64)(unsafe.Pointer(&buf[0])) = 1
	if _, err := unix.Write(p.wakefd, buf[:]); err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

// Close wakes a pending Wait, then closes the epoll instance.
func (p *epollPoller) Close() error {
	p.mu.Lock()
	if !p.closed.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return nil
	}
	_ = p.wake()
	p.mu.Unlock()

	p.waitMu.Lock()
	defer p.waitMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = nil
	err := unix.Close(p.epfd)
	if cerr := unix.Close(p.wakefd); err == nil {
		err = cerr
	}
	return err
}
