package control

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-loop/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Reload(t *testing.T) {
	path := writeConfig(t, "quiet_period: 1s\nshutdown_timeout: 2s\n")
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Second, w.Current().QuietPeriod)

	var seen []*Config
	w.OnReload(func(c *Config) { seen = append(seen, c) })

	require.NoError(t, os.WriteFile(path, []byte("quiet_period: 10ms\nshutdown_timeout: 20ms\n"), 0o600))
	w.Reload()
	require.Len(t, seen, 1)
	assert.Equal(t, 10*time.Millisecond, w.Current().QuietPeriod)
	assert.Same(t, w.Current(), seen[0])

	// invalid edits keep the last good configuration
	require.NoError(t, os.WriteFile(path, []byte("quiet_period: 1s\nshutdown_timeout: 1ms\n"), 0o600))
	w.Reload()
	assert.Len(t, seen, 1)
	assert.Equal(t, 10*time.Millisecond, w.Current().QuietPeriod)
}

func TestNewWatcher_NoPath(t *testing.T) {
	_, err := NewWatcher("", nil)
	assert.ErrorIs(t, err, api.ErrInvalidConfiguration)
}

func TestWatcher_ConcurrentReload(t *testing.T) {
	path := writeConfig(t, "quiet_period: 10ms\nshutdown_timeout: 20ms\n")
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	w.OnReload(func(*Config) { calls.Add(1) })
	w.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Reload()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(8), calls.Load())
	assert.Equal(t, 10*time.Millisecond, w.Current().QuietPeriod)
	assert.Equal(t, 20*time.Millisecond, w.Current().ShutdownTimeout)
}
