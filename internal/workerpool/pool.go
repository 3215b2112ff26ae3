package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/delayqueue"
)

// RepeatableStrategy selects whether a repeating job's first firing happens
// immediately or only after the first full period has elapsed.
type RepeatableStrategy int

const (
	// Periodic runs the job immediately on submission (unless delayedStart
	// is set) and then every period thereafter.
	Periodic RepeatableStrategy = iota
	// Interval always waits a full period before running the job, on every
	// firing including the first.
	Interval
)

// defaultPollTimeout is the short bound each worker waits on the delay
// queue before re-checking the running flag.
const defaultPollTimeout = time.Millisecond

// Options configures a Pool.
type Options struct {
	// Workers is the fixed number of worker goroutines. Values below 1 are
	// treated as 1.
	Workers int
	// PollTimeout bounds how long a worker blocks in PopWait between
	// checks of the running flag. Defaults to 1ms if zero.
	PollTimeout time.Duration
	// Metrics, if non-nil, receives pool/queue instrumentation. The caller
	// owns registration with its own prometheus.Registerer.
	Metrics *Metrics
}

// Pool is a fixed set of worker goroutines draining a delay queue.
type Pool struct {
	queue       *delayqueue.Queue
	pollTimeout time.Duration
	metrics     *Metrics

	running atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Pool and immediately starts its worker goroutines.
func New(ctx context.Context, opts Options) *Pool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	p := &Pool{
		queue:       delayqueue.New(),
		pollTimeout: pollTimeout,
		metrics:     opts.Metrics,
	}
	p.running.Store(true)

	logger := ctxlog.FromContext(ctx)
	logger.Debug("starting worker pool", "workers", opts.Workers, "pollTimeout", pollTimeout)

	p.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go p.worker(ctx, i)
	}
	return p
}

// Submit enqueues job to run as soon as a worker is free.
func (p *Pool) Submit(job func()) {
	p.metrics.incSubmitted()
	p.queue.Push(job, 0)
	p.metrics.setQueueDepth(p.queue.Len())
}

// SubmitDelayed enqueues job to become runnable after delay has elapsed.
func (p *Pool) SubmitDelayed(job func(), delay time.Duration) {
	p.metrics.incSubmitted()
	p.queue.Push(job, delay)
	p.metrics.setQueueDepth(p.queue.Len())
}

// SubmitRepeatable enqueues job to run repeatedly every period. Under
// Periodic, the first firing runs immediately unless delayedStart is true,
// in which case it waits one period first; every firing after the first
// always waits a full period. Under Interval, every firing (including the
// first) waits a full period before running, and delayedStart has no
// effect.
func (p *Pool) SubmitRepeatable(job func(), period time.Duration, strategy RepeatableStrategy, delayedStart bool) {
	var tick func()
	tick = func() {
		job()
		if p.running.Load() {
			p.metrics.incSubmitted()
			p.queue.Push(tick, period)
		}
	}

	initialDelay := period
	if strategy == Periodic && !delayedStart {
		initialDelay = 0
	}

	p.metrics.incSubmitted()
	p.queue.Push(tick, initialDelay)
}

// Shutdown stops accepting further dispatch and waits for every worker to
// observe the running flag false, which happens within roughly one
// PollTimeout. Jobs already popped by a worker run to completion; jobs
// still sitting in the queue are discarded.
func (p *Pool) Shutdown() {
	p.running.Store(false)
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(ctx).With("workerID", id)
	logger.Debug("worker started")

	for p.running.Load() {
		job, ok := p.queue.PopWait(p.pollTimeout)
		if !ok {
			continue
		}
		p.metrics.setQueueDepth(p.queue.Len())
		p.metrics.incActive()
		job()
		p.metrics.decActive()
		p.metrics.incCompleted()
	}
	logger.Debug("worker finished")
}
