//go:build linux

package reactor

import (
	"testing"
	"time"

	"github.com/momentics/hioload-loop/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestEpollPoller_PipeReadiness(t *testing.T) {
	p, err := NewPoller()
	require.NoError(t, err)
	defer p.Close()

	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	called := false
	require.NoError(t, p.Register(fds[0], api.Readable, func(int, api.Readiness) { called = true }))
	assert.ErrorIs(t, p.Register(fds[0], api.Readable, func(int, api.Readiness) {}), api.ErrAlreadyRegistered)

	_, err = unix.Write(fds[1], []byte("x"))
	require.NoError(t, err)

	events := make([]api.ReadyEvent, 8)
	n, err := p.Wait(events)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, fds[0], events[0].Fd)
	assert.True(t, events[0].Ready.Has(api.Readable))
	events[0].Handler(events[0].Fd, events[0].Ready)
	assert.True(t, called)

	require.NoError(t, p.Modify(fds[0], api.Readable|api.Writable))
	require.NoError(t, p.Unregister(fds[0]))
	assert.ErrorIs(t, p.Unregister(fds[0]), api.ErrNotRegistered)
}

func TestEpollPoller_WakeupAndClose(t *testing.T) {
	p, err := NewPoller()
	require.NoError(t, err)

	events := make([]api.ReadyEvent, 4)
	require.NoError(t, p.Wakeup())
	n, err := p.Wait(events)
	require.NoError(t, err)
	assert.Zero(t, n)

	result := make(chan error, 1)
	go func() {
		_, err := p.Wait(events)
		result <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.Close())
	select {
	case err := <-result:
		assert.ErrorIs(t, err, api.ErrPollerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait not released by Close")
	}
	assert.ErrorIs(t, p.Wakeup(), api.ErrPollerClosed)
	assert.ErrorIs(t, p.Register(0, api.Readable, func(int, api.Readiness) {}), api.ErrPollerClosed)
	assert.NoError(t, p.Close())
}
