// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Exposes counters in a thread-safe map with dynamic registration, and
// records executor activity as a concurrency.Observer.

package control

import (
	"strconv"
	"sync"
	"time"

	"github.com/momentics/hioload-loop/core/concurrency"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

var _ concurrency.Observer = (*MetricsRegistry)(nil)

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Add increments an int64 counter, creating it at zero.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.mu.Lock()
	n, _ := mr.metrics[key].(int64)
	mr.metrics[key] = n + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Counter returns the value of an int64 counter.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	n, _ := mr.metrics[key].(int64)
	return n
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last change.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

func executorKey(executor, metric string) string {
	return "executor." + executor + "." + metric
}

func (mr *MetricsRegistry) TaskSubmitted(executor string) {
	mr.Add(executorKey(executor, "submitted"), 1)
}

func (mr *MetricsRegistry) TaskRejected(executor string) {
	mr.Add(executorKey(executor, "rejected"), 1)
}

func (mr *MetricsRegistry) TaskCompleted(executor string, elapsed time.Duration) {
	mr.mu.Lock()
	key := executorKey(executor, "completed")
	n, _ := mr.metrics[key].(int64)
	mr.metrics[key] = n + 1
	busy := executorKey(executor, "busy")
	d, _ := mr.metrics[busy].(time.Duration)
	mr.metrics[busy] = d + elapsed
	mr.updated = time.Now()
	mr.mu.Unlock()
}

func (mr *MetricsRegistry) TaskFault(executor string, _ error) {
	mr.Add(executorKey(executor, "faults"), 1)
}

func (mr *MetricsRegistry) StateChanged(executor string, state concurrency.State) {
	mr.Set(executorKey(executor, "state"), state.String())
}

func itoa(n int) string { return strconv.Itoa(n) }
