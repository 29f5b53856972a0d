package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiet = 30 * time.Millisecond

func TestTriggerCollapsesBursts(t *testing.T) {
	var (
		calls atomic.Int32
		last  atomic.Int32
		d     = New(quiet)
	)

	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger(func() {
			calls.Add(1)
			last.Store(n)
		})
		time.Sleep(quiet / 5)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * quiet)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())
}

func TestTriggerDoesNotCancelRunningCall(t *testing.T) {
	var (
		d       = New(quiet)
		started = make(chan struct{})
		release = make(chan struct{})
		done    sync.WaitGroup
		calls   atomic.Int32
	)

	done.Add(2)
	d.Trigger(func() {
		defer done.Done()
		calls.Add(1)
		close(started)
		<-release
	})

	<-started
	d.Trigger(func() {
		defer done.Done()
		calls.Add(1)
	})
	close(release)
	done.Wait()

	assert.Equal(t, int32(2), calls.Load())
}

func TestInstancesAreIndependent(t *testing.T) {
	var a, b atomic.Int32

	first := New(quiet)
	second := New(quiet)

	first.Trigger(func() { a.Add(1) })
	second.Trigger(func() { b.Add(1) })

	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestFlushAndStop(t *testing.T) {
	var calls atomic.Int32

	d := New(time.Hour)
	assert.False(t, d.Flush())

	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())

	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Stop())
	assert.False(t, d.Stop())
	assert.Equal(t, int32(1), calls.Load())
}

func TestZeroDelayRunsEachTriggerAtMostOnce(t *testing.T) {
	var (
		d    = New(0)
		mu   sync.Mutex
		ran  []int
		done = make(chan struct{})
	)

	for i := range 200 {
		d.Trigger(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		})
	}

	d.Trigger(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("last trigger never ran")
	}

	require.Eventually(t, func() bool { return !d.Pending() }, time.Second, time.Millisecond)
	assert.False(t, d.Flush())

	mu.Lock()
	defer mu.Unlock()

	seen := make(map[int]bool, len(ran))
	for _, i := range ran {
		assert.False(t, seen[i], "trigger %d ran twice", i)
		seen[i] = true
	}
}
