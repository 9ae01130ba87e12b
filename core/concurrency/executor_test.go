package concurrency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-loop/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportingTask struct {
	run      func()
	reported chan error
}

func (r *reportingTask) Run() { r.run() }

func (r *reportingTask) ReportFailure(cause error) { r.reported <- cause }

type recordingObserver struct {
	submitted, rejected, completed, faults atomic.Int64
	mu                                     sync.Mutex
	states                                 []State
}

func (o *recordingObserver) TaskSubmitted(string)                { o.submitted.Add(1) }
func (o *recordingObserver) TaskRejected(string)                 { o.rejected.Add(1) }
func (o *recordingObserver) TaskCompleted(string, time.Duration) { o.completed.Add(1) }
func (o *recordingObserver) TaskFault(string, error)             { o.faults.Add(1) }
func (o *recordingObserver) StateChanged(_ string, s State) {
	o.mu.Lock()
	o.states = append(o.states, s)
	o.mu.Unlock()
}

func TestSingleThreadExecutor_LazyStart(t *testing.T) {
	e := newTestExecutor(t, WithName("lazy"))
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, "lazy", e.Name())
	assert.False(t, e.InLoop())

	runOn(t, e, func() {})
	assert.Equal(t, StateRunning, e.State())
}

func TestSingleThreadExecutor_OrderAndIdentity(t *testing.T) {
	e := newTestExecutor(t)

	const n = 1000
	var (
		mu    sync.Mutex
		order []int
		ids   = map[uint64]struct{}{}
		inOK  = true
	)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		require.NoError(t, e.Execute(api.TaskFunc(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			ids[CurrentGoroutineID()] = struct{}{}
			inOK = inOK && e.InLoop()
			mu.Unlock()
		})))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, n)
	for i, v := range order {
		require.Equal(t, i, v)
	}
	assert.Len(t, ids, 1)
	assert.True(t, inOK)
	assert.False(t, e.InLoop())
}

func TestSingleThreadExecutor_NilTask(t *testing.T) {
	e := newTestExecutor(t)
	assert.ErrorIs(t, e.Execute(nil), api.ErrInvalidArgument)
	assert.ErrorIs(t, e.Schedule(nil), api.ErrInvalidArgument)
}

func TestSingleThreadExecutor_FaultIsolation(t *testing.T) {
	var logs syncBuffer
	obs := &recordingObserver{}
	handled := make(chan error, 1)
	e := newTestExecutor(t,
		WithName("faulty"),
		WithLogger(newTestLogger(&logs)),
		WithObserver(obs),
		WithFaultHandler(func(name string, _ api.Task, err error) {
			assert.Equal(t, "faulty", name)
			handled <- err
		}),
	)

	boom := errors.New("boom")
	task := &reportingTask{
		run:      func() { panic(boom) },
		reported: make(chan error, 1),
	}
	require.NoError(t, e.Execute(task))

	ran := false
	runOn(t, e, func() { ran = true })
	assert.True(t, ran)

	reported := <-task.reported
	assert.ErrorIs(t, reported, api.ErrUncaughtTaskFault)
	assert.ErrorIs(t, reported, boom)
	var fault *TaskFault
	require.ErrorAs(t, reported, &fault)
	assert.Equal(t, "faulty", fault.Executor)
	assert.NotEmpty(t, fault.Stack)

	assert.ErrorIs(t, <-handled, boom)
	assert.Equal(t, int64(1), obs.faults.Load())
	assert.Contains(t, logs.String(), `task fault`)
	assert.Contains(t, logs.String(), `boom`)
}

func TestSingleThreadExecutor_ShutdownRejectsAndDrains(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestExecutor(t, WithObserver(obs))

	release := make(chan struct{})
	var ran atomic.Int32
	require.NoError(t, e.Execute(api.TaskFunc(func() { <-release; ran.Add(1) })))
	require.NoError(t, e.Execute(api.TaskFunc(func() { ran.Add(1) })))

	f := e.ShutdownGracefully(0, time.Second)
	assert.True(t, e.IsShuttingDown())
	err := e.Execute(api.TaskFunc(func() { ran.Add(100) }))
	assert.ErrorIs(t, err, api.ErrRejectedSubmission)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = f.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, e.IsTerminated())
	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, int64(1), obs.rejected.Load())
	assert.Same(t, f, e.TerminationFuture())
	assert.Same(t, f, e.ShutdownGracefully(0, time.Second))

	obs.mu.Lock()
	assert.Equal(t, []State{StateRunning, StateShuttingDown, StateTerminated}, obs.states)
	obs.mu.Unlock()

	assert.ErrorIs(t, e.Schedule(api.TaskFunc(func() {})), api.ErrRejectedSubmission)
}

func TestSingleThreadExecutor_ShutdownIdle(t *testing.T) {
	e := newTestExecutor(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.ShutdownGracefully(0, time.Second).Await(ctx))
	assert.True(t, e.IsTerminated())
}

func TestSingleThreadExecutor_QuietPeriodAcceptsScheduled(t *testing.T) {
	e := newTestExecutor(t)
	runOn(t, e, func() {})

	start := time.Now()
	f := e.ShutdownGracefully(100*time.Millisecond, 2*time.Second)
	ran := make(chan struct{})
	require.NoError(t, e.Schedule(api.TaskFunc(func() { close(ran) })))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, f.Await(ctx))
	<-ran
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestSingleThreadExecutor_TimeoutForcesTermination(t *testing.T) {
	e := newTestExecutor(t)

	// keeps the executor busy so the quiet period never elapses
	var tick func()
	tick = func() {
		time.Sleep(5 * time.Millisecond)
		_ = e.Schedule(api.TaskFunc(tick))
	}
	require.NoError(t, e.Execute(api.TaskFunc(tick)))

	start := time.Now()
	f := e.ShutdownGracefully(100*time.Millisecond, 300*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, f.Await(ctx))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.True(t, e.IsTerminated())
}

func TestSingleThreadExecutor_InvalidShutdownArguments(t *testing.T) {
	e := newTestExecutor(t)
	f := e.ShutdownGracefully(time.Second, time.Millisecond)
	require.True(t, f.IsDone())
	assert.ErrorIs(t, f.Cause(), api.ErrInvalidArgument)
	assert.False(t, e.IsShuttingDown())

	f = e.ShutdownGracefully(-time.Second, time.Second)
	assert.ErrorIs(t, f.Cause(), api.ErrInvalidArgument)
}

func TestSingleThreadExecutor_SyncOnOwnTerminationDeadlocks(t *testing.T) {
	e := newTestExecutor(t)
	var err error
	runOn(t, e, func() {
		_, err = e.TerminationFuture().Sync(context.Background())
	})
	assert.ErrorIs(t, err, api.ErrSelfDeadlock)
}

func TestNewSingleThreadExecutor_InvalidOptions(t *testing.T) {
	_, err := NewSingleThreadExecutor(WithTaskBatchSize(0))
	assert.ErrorIs(t, err, api.ErrInvalidConfiguration)
	_, err = NewSingleThreadExecutor(WithName(""))
	assert.ErrorIs(t, err, api.ErrInvalidConfiguration)
}
