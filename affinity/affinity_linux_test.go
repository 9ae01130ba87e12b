//go:build linux

package affinity

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPin_Linux(t *testing.T) {
	type result struct {
		before, after []int
		err           error
	}
	done := make(chan result, 1)
	go func() {
		// never unlocked: the pinned thread exits with the goroutine
		runtime.LockOSThread()
		var r result
		if r.before, r.err = Current(); r.err != nil || len(r.before) == 0 {
			done <- r
			return
		}
		if r.err = Pin(r.before[0]); r.err != nil {
			done <- r
			return
		}
		r.after, r.err = Current()
		done <- r
	}()

	r := <-done
	if !assert.NoError(t, r.err) {
		return
	}
	assert.Equal(t, []int{r.before[0]}, r.after)
}
