//go:build linux

package tcp_test

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-loop/reactor"
	"github.com/momentics/hioload-loop/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	mu      sync.Mutex
	active  int
	closed  chan error
	onLoops bool
}

func (h *echoHandler) OnActive(c *tcp.Conn) {
	h.mu.Lock()
	h.active++
	h.onLoops = c.EventLoop().InLoop()
	h.mu.Unlock()
}

func (h *echoHandler) OnRead(c *tcp.Conn, data []byte) {
	_ = c.Write(data)
}

func (h *echoHandler) OnClose(_ *tcp.Conn, err error) {
	h.closed <- err
}

func newGroups(t *testing.T) (boss, workers *reactor.EventLoopGroup) {
	t.Helper()
	var err error
	boss, err = reactor.NewEventLoopGroup(1, reactor.WithName("boss"))
	require.NoError(t, err)
	workers, err = reactor.NewEventLoopGroup(2, reactor.WithName("worker"))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = boss.ShutdownGracefully(0, time.Second).Await(ctx)
		_ = workers.ShutdownGracefully(0, time.Second).Await(ctx)
	})
	return boss, workers
}

func TestEchoRoundTrip(t *testing.T) {
	boss, workers := newGroups(t)
	h := &echoHandler{closed: make(chan error, 4)}

	ln, err := tcp.Listen("127.0.0.1:0", workers, h, nil)
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = boss.Register(ln).Sync(ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		conn, err := net.DialTimeout("tcp", ln.Addr().String(), 2*time.Second)
		require.NoError(t, err)
		require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

		msg := []byte("hello hioload")
		_, err = conn.Write(msg)
		require.NoError(t, err)
		got := make([]byte, len(msg))
		_, err = io.ReadFull(conn, got)
		require.NoError(t, err)
		assert.Equal(t, msg, got)

		require.NoError(t, conn.Close())
		select {
		case err := <-h.closed:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server side not closed")
		}
	}

	assert.Equal(t, int64(2), ln.Accepted())
	h.mu.Lock()
	assert.Equal(t, 2, h.active)
	assert.True(t, h.onLoops)
	h.mu.Unlock()
}

func TestListen_InvalidArguments(t *testing.T) {
	_, err := tcp.Listen("127.0.0.1:0", nil, nil, nil)
	assert.Error(t, err)
}
