package affinity

import (
	"runtime"
	"testing"

	"github.com/momentics/hioload-loop/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPin_InvalidCPU(t *testing.T) {
	assert.ErrorIs(t, Pin(-1), api.ErrInvalidArgument)
	assert.ErrorIs(t, Pin(maxCPU), api.ErrInvalidArgument)
}

func TestSpread(t *testing.T) {
	n := runtime.NumCPU()
	cpus := Spread(n + 1)
	require.Len(t, cpus, n+1)
	assert.Equal(t, 0, cpus[0])
	assert.Equal(t, 0, cpus[n])
}
