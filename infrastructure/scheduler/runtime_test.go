package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findStats(t *testing.T, r *Runtime, name string) (s struct {
	Runs, Failures, Skips int64
	Running               bool
}) {
	t.Helper()
	for _, js := range r.Stats() {
		if js.Name == name {
			s.Runs = js.Runs
			s.Failures = js.Failures
			s.Skips = js.Skips
			s.Running = js.Running
			return s
		}
	}
	t.Fatalf("job %s not registered", name)
	return s
}

func TestRuntime_OverlappingTickIsSkippedNotQueued(t *testing.T) {
	r := NewRuntime(nil, nil)
	defer r.Stop(time.Second)

	var inFlight, maxInFlight atomic.Int64
	release := make(chan struct{})
	r.Register("slow", time.Hour, func(ctx context.Context) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxInFlight.Load()
			if n <= prev || maxInFlight.CompareAndSwap(prev, n) {
				break
			}
		}
		<-release
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, r.RunNow("slow"))
	}()
	// Wait until the first run is in flight, then fire two more ticks.
	require.Eventually(t, func() bool { return inFlight.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, r.RunNow("slow"))
	require.NoError(t, r.RunNow("slow"))
	close(release)
	wg.Wait()

	s := findStats(t, r, "slow")
	assert.EqualValues(t, 1, maxInFlight.Load(), "overlapping ticks must never run concurrently")
	assert.EqualValues(t, 1, s.Runs)
	assert.EqualValues(t, 2, s.Skips)
}

func TestRuntime_TaskFailureIsContained(t *testing.T) {
	r := NewRuntime(nil, nil)
	defer r.Stop(time.Second)

	r.Register("flaky", time.Hour, func(ctx context.Context) error {
		return errors.New("upstream unavailable")
	})
	require.NoError(t, r.RunNow("flaky"))
	require.NoError(t, r.RunNow("flaky"))

	s := findStats(t, r, "flaky")
	assert.EqualValues(t, 2, s.Runs, "a failing task keeps firing on later ticks")
	assert.EqualValues(t, 2, s.Failures)
	assert.False(t, s.Running)
}

func TestRuntime_TaskPanicIsRecovered(t *testing.T) {
	r := NewRuntime(nil, nil)
	defer r.Stop(time.Second)

	r.Register("panicky", time.Hour, func(ctx context.Context) error {
		panic("boom")
	})
	require.NotPanics(t, func() {
		require.NoError(t, r.RunNow("panicky"))
	})

	s := findStats(t, r, "panicky")
	assert.EqualValues(t, 1, s.Failures)
	assert.False(t, s.Running)
}

func TestRuntime_RegisterReplacesJob(t *testing.T) {
	r := NewRuntime(nil, nil)
	defer r.Stop(time.Second)

	var first, second atomic.Int64
	r.Register("refresh", time.Hour, func(ctx context.Context) error {
		first.Add(1)
		return nil
	})
	r.Register("refresh", time.Hour, func(ctx context.Context) error {
		second.Add(1)
		return nil
	})
	require.NoError(t, r.RunNow("refresh"))

	assert.EqualValues(t, 0, first.Load())
	assert.EqualValues(t, 1, second.Load())
	assert.Len(t, r.Stats(), 1)
}

func TestRuntime_RunNowUnknownJob(t *testing.T) {
	r := NewRuntime(nil, nil)
	defer r.Stop(time.Second)

	err := r.RunNow("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job")
}
