// Package workerpool implements a fixed-size pool of worker goroutines that
// pull runnable jobs off a delay queue (internal/delayqueue).
//
// Workers poll the queue with a short bounded timeout rather than blocking
// indefinitely: the queue must release a worker both when new work arrives
// and when a previously-future element merely becomes due with the passage
// of time, and a bounded PopWait subsumes both cases without a separate
// timer goroutine per worker.
//
// Shutdown flips a running flag and waits for every worker to notice it on
// their next poll, so teardown completes within roughly one poll interval
// regardless of queue contents; jobs already popped run to completion,
// jobs still queued are discarded.
package workerpool
