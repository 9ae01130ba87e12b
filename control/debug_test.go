package control

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	dp.RegisterProbe("custom", func() any { return "ok" })

	state := dp.DumpState()
	assert.Equal(t, runtime.NumCPU(), state["platform.cpus"])
	assert.Equal(t, "ok", state["custom"])
	assert.Equal(t, "custom", dp.Names()[0])

	out, err := dp.DumpYAML()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "ok", decoded["custom"])
	assert.Equal(t, runtime.GOOS, decoded["platform.os"])
}
