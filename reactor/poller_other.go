//go:build !linux

// File: reactor/poller_other.go
// Author: momentics <momentics@gmail.com>
//
// Placeholder poller for platforms without an implementation. Loops still
// run tasks; descriptor registration is refused.

package reactor

import (
	"runtime"
	"sync"

	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

type stubPoller struct {
	once   sync.Once
	wakeup chan struct{}
	closed chan struct{}
}

// NewPoller returns a poller that refuses registrations on this platform.
func NewPoller() (api.Poller, error) {
	return &stubPoller{wakeup: make(chan struct{}, 1), closed: make(chan struct{})}, nil
}

func (p *stubPoller) Register(int, api.Readiness, api.ReadinessFunc) error {
	return errorc.With(api.ErrNotSupported, errorc.String("os", runtime.GOOS))
}

func (p *stubPoller) Modify(int, api.Readiness) error {
	return errorc.With(api.ErrNotSupported, errorc.String("os", runtime.GOOS))
}

func (p *stubPoller) Unregister(int) error {
	return errorc.With(api.ErrNotSupported, errorc.String("os", runtime.GOOS))
}

func (p *stubPoller) Wait([]api.ReadyEvent) (int, error) {
	select {
	case <-p.closed:
		return 0, api.ErrPollerClosed
	case <-p.wakeup:
		return 0, nil
	}
}

func (p *stubPoller) Wakeup() error {
	select {
	case p.wakeup <- struct{}{}:
	default:
	}
	return nil
}

func (p *stubPoller) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
