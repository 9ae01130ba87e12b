// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-loop components.

package benchmarks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/core/concurrency"
	"github.com/momentics/hioload-loop/fake"
	"github.com/momentics/hioload-loop/reactor"
)

func pool(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// BenchmarkChooserPowerOfTwo measures mask-based selection under contention.
func BenchmarkChooserPowerOfTwo(b *testing.B) {
	c, err := concurrency.DefaultChooserFactory[int]{}.NewChooser(pool(8))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = c.Next()
		}
	})
}

// BenchmarkChooserGeneric measures modulo selection under contention.
func BenchmarkChooserGeneric(b *testing.B) {
	c, err := concurrency.DefaultChooserFactory[int]{}.NewChooser(pool(6))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = c.Next()
		}
	})
}

// BenchmarkExecutorThroughput submits from many goroutines to one executor.
func BenchmarkExecutorThroughput(b *testing.B) {
	e, err := concurrency.NewSingleThreadExecutor()
	if err != nil {
		b.Fatal(err)
	}
	defer e.ShutdownGracefully(0, time.Second)

	var wg sync.WaitGroup
	wg.Add(b.N)
	task := api.TaskFunc(wg.Done)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := e.Execute(task); err != nil {
				b.Error(err)
				wg.Done()
			}
		}
	})
	wg.Wait()
}

// BenchmarkPromiseListeners completes promises carrying one listener each.
func BenchmarkPromiseListeners(b *testing.B) {
	for i := 0; i < b.N; i++ {
		p := concurrency.NewPromise[int](nil)
		p.AddListener(func(api.Future[int]) {})
		_ = p.SetSuccess(i)
	}
}

// BenchmarkRegister registers channels across a group of loops.
func BenchmarkRegister(b *testing.B) {
	g, err := reactor.NewEventLoopGroup(4, reactor.WithPollerFactory(func() (api.Poller, error) {
		return fake.NewFakePoller(), nil
	}))
	if err != nil {
		b.Fatal(err)
	}
	defer g.ShutdownGracefully(0, time.Second)

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Register(fake.NewFakeChannel("")).Sync(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
