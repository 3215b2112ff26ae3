package workerpool

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/ctxlog"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func newTestPool(t *testing.T, workers int) *Pool {
	t.Helper()
	p := New(testContext(), Options{Workers: workers})
	t.Cleanup(p.Shutdown)
	return p
}

func TestPool_Submit(t *testing.T) {
	p := newTestPool(t, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	var ran atomic.Bool
	p.Submit(func() {
		ran.Store(true)
		wg.Done()
	})

	waitOrTimeout(t, &wg, time.Second)
	assert.True(t, ran.Load())
}

func TestPool_SubmitDelayed(t *testing.T) {
	p := newTestPool(t, 2)

	start := time.Now()
	done := make(chan time.Time, 1)
	p.SubmitDelayed(func() { done <- time.Now() }, 80*time.Millisecond)

	select {
	case ranAt := <-done:
		assert.GreaterOrEqual(t, ranAt.Sub(start), 80*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("delayed job never ran")
	}
}

func TestPool_FanOut(t *testing.T) {
	p := newTestPool(t, 4)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	var count atomic.Int32
	for i := 0; i < n; i++ {
		p.Submit(func() {
			count.Add(1)
			wg.Done()
		})
	}
	waitOrTimeout(t, &wg, time.Second)
	assert.EqualValues(t, n, count.Load())
}

func TestPool_SubmitRepeatable_PeriodicImmediate(t *testing.T) {
	p := newTestPool(t, 2)

	var fires atomic.Int32
	done := make(chan struct{})
	p.SubmitRepeatable(func() {
		if fires.Add(1) >= 3 {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	}, 20*time.Millisecond, Periodic, false)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("periodic job did not fire enough times")
	}
	assert.GreaterOrEqual(t, fires.Load(), int32(3))
}

func TestPool_SubmitRepeatable_IntervalWaitsFirst(t *testing.T) {
	p := newTestPool(t, 2)

	start := time.Now()
	firstFire := make(chan time.Time, 1)
	p.SubmitRepeatable(func() {
		select {
		case firstFire <- time.Now():
		default:
		}
	}, 60*time.Millisecond, Interval, false)

	select {
	case at := <-firstFire:
		assert.GreaterOrEqual(t, at.Sub(start), 60*time.Millisecond,
			"Interval strategy must wait a full period before its first firing")
	case <-time.After(time.Second):
		t.Fatal("interval job never fired")
	}
}

func TestPool_SubmitRepeatable_PeriodicDelayedStart(t *testing.T) {
	p := newTestPool(t, 2)

	start := time.Now()
	firstFire := make(chan time.Time, 1)
	p.SubmitRepeatable(func() {
		select {
		case firstFire <- time.Now():
		default:
		}
	}, 60*time.Millisecond, Periodic, true)

	select {
	case at := <-firstFire:
		assert.GreaterOrEqual(t, at.Sub(start), 60*time.Millisecond,
			"delayedStart must delay even the first Periodic firing")
	case <-time.After(time.Second):
		t.Fatal("delayed periodic job never fired")
	}
}

// TestPool_ShutdownIsBounded asserts that destroying a pool completes within
// a bounded time proportional to the poll timeout plus the longest running
// job.
func TestPool_ShutdownIsBounded(t *testing.T) {
	p := New(testContext(), Options{Workers: 2, PollTimeout: 2 * time.Millisecond})

	jobDone := make(chan struct{})
	p.Submit(func() {
		time.Sleep(30 * time.Millisecond)
		close(jobDone)
	})
	time.Sleep(5 * time.Millisecond) // let the worker pick the job up

	start := time.Now()
	p.Shutdown()
	elapsed := time.Since(start)

	<-jobDone // the in-flight job must have run to completion
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestPool_ShutdownDiscardsQueuedWork(t *testing.T) {
	p := New(testContext(), Options{Workers: 1, PollTimeout: 2 * time.Millisecond})

	var ran atomic.Bool
	block := make(chan struct{})
	p.Submit(func() { <-block }) // occupies the single worker
	p.SubmitDelayed(func() { ran.Store(true) }, time.Hour)

	p.Shutdown()
	close(block)
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran.Load(), "queued-but-not-yet-due jobs must be discarded on shutdown")
}

func TestMetrics_RegisteredAndNilSafe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "flowgrid_test")
	require.NotNil(t, m)

	// Exercised through a real pool so the counters/gauges actually move.
	p := New(testContext(), Options{Workers: 2, Metrics: m})
	t.Cleanup(p.Shutdown)

	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(wg.Done)
	waitOrTimeout(t, &wg, time.Second)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, metricFamilies)

	// A nil *Metrics must never panic.
	var nilMetrics *Metrics
	nilMetrics.incSubmitted()
	nilMetrics.incCompleted()
	nilMetrics.incActive()
	nilMetrics.decActive()
	nilMetrics.setQueueDepth(3)
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for goroutines")
	}
}
