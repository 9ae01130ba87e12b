package concurrency

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/momentics/hioload-loop/api"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(w *syncBuffer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
}

func newTestExecutor(t *testing.T, opts ...Option) *SingleThreadExecutor {
	t.Helper()
	e, err := NewSingleThreadExecutor(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.ShutdownGracefully(0, time.Second).Await(ctx)
	})
	return e
}

// runOn executes fn on e and waits for it.
func runOn(t *testing.T, e *SingleThreadExecutor, fn func()) {
	t.Helper()
	done := make(chan struct{})
	require.NoError(t, e.Execute(api.TaskFunc(func() {
		defer close(done)
		fn()
	})))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}
