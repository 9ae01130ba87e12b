package control

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-loop/core/concurrency"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry_Observer(t *testing.T) {
	mr := NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mr.TaskSubmitted("w-0")
				mr.TaskCompleted("w-0", time.Millisecond)
			}
		}()
	}
	wg.Wait()
	mr.TaskRejected("w-0")
	mr.TaskFault("w-0", errors.New("x"))
	mr.StateChanged("w-0", concurrency.StateRunning)

	assert.Equal(t, int64(800), mr.Counter("executor.w-0.submitted"))
	assert.Equal(t, int64(800), mr.Counter("executor.w-0.completed"))
	assert.Equal(t, int64(1), mr.Counter("executor.w-0.rejected"))
	assert.Equal(t, int64(1), mr.Counter("executor.w-0.faults"))

	snap := mr.GetSnapshot()
	assert.Equal(t, "running", snap["executor.w-0.state"])
	assert.Equal(t, 800*time.Millisecond, snap["executor.w-0.busy"])
	assert.False(t, mr.Updated().IsZero())
}

func TestMetricsRegistry_FeedsFromExecutor(t *testing.T) {
	mr := NewMetricsRegistry()
	e, err := concurrency.NewSingleThreadExecutor(concurrency.WithName("obs"), concurrency.WithObserver(mr))
	assert.NoError(t, err)
	done := make(chan struct{})
	assert.NoError(t, e.Execute(taskFunc(func() { close(done) })))
	<-done
	<-e.ShutdownGracefully(0, time.Second).Done()

	assert.Equal(t, int64(1), mr.Counter("executor.obs.submitted"))
	assert.Equal(t, int64(1), mr.Counter("executor.obs.completed"))
	assert.Equal(t, "terminated", mr.GetSnapshot()["executor.obs.state"])
}

type taskFunc func()

func (f taskFunc) Run() { f() }
