// Package delayqueue implements a thread-safe priority queue keyed on
// earliest-ready time, with a blocking take that supports a timeout.
//
// It backs the worker pool in internal/workerpool: jobs submitted with a
// delay become visible to PopWait only once their ready-time has elapsed,
// and PopWait's bounded wait lets pool workers notice both newly pushed
// work and work that has merely become due with the passage of time.
package delayqueue
