package flow

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// FoldMode selects how a fold node combines the values delivered to it.
type FoldMode int

const (
	// Streaming combines each delivered value into a running accumulator
	// immediately, on the delivering producer's own thread. Combination
	// order across producers is unspecified.
	Streaming FoldMode = iota
	// Batched appends each delivered value to a buffer and folds the whole
	// buffer, in delivery order, when the fold node's own run() executes.
	Batched
)

// foldNode aggregates a stream of per-input values from one or more
// producers into a single accumulator. Unlike slotNode, its arity is
// dynamic: every Connect call increments declaredCount, and it becomes
// ready once readyCount catches up.
type foldNode struct {
	nodeID NodeID
	mode   FoldMode

	// combine is type-erased; the generic constructors in constructors.go
	// install a closure that type-asserts to the caller's concrete types.
	combine func(acc, a any) any
	initial any

	declaredCount atomic.Int32
	readyCount    atomic.Int32

	// Streaming accumulator: lock-free via atomic.Value's CompareAndSwap,
	// so combine can be invoked concurrently from any producer's thread.
	streamAcc atomic.Value

	// Batched buffer: appended to under mu, folded once in run().
	mu     sync.Mutex
	buffer []any

	result    any
	hasRun    bool
	callbacks []edgeCallback
}

func newFoldNode(id NodeID, mode FoldMode, combine func(acc, a any) any, initial any) *foldNode {
	n := &foldNode{
		nodeID:  id,
		mode:    mode,
		combine: combine,
		initial: initial,
	}
	if mode == Streaming {
		n.streamAcc.Store(boxedAccumulator{value: initial})
	}
	return n
}

// boxedAccumulator wraps the accumulator so atomic.Value always sees the
// same concrete type even if the caller's accumulator type is itself an
// interface or can legitimately be nil.
type boxedAccumulator struct {
	value any
}

func (n *foldNode) id() NodeID { return n.nodeID }

// declare records one more producer wired to this fold node; arity grows
// one at a time as ConnectFold/ConnectFoldBatch calls wire producers in.
func (n *foldNode) declare() {
	n.declaredCount.Add(1)
}

func (n *foldNode) isReady() bool {
	return n.readyCount.Load() == n.declaredCount.Load()
}

// deliverOne applies a single value. In Streaming mode this combines
// immediately via a compare-and-swap retry loop; in Batched mode it just
// appends under the buffer mutex. Either way it counts as one producer
// firing.
func (n *foldNode) deliverOne(a any) {
	if n.mode == Streaming {
		n.combineStreaming(a)
	} else {
		n.mu.Lock()
		n.buffer = append(n.buffer, a)
		n.mu.Unlock()
	}
	n.readyCount.Add(1)
}

// deliverBatch applies a vector of values as a single producer firing; all
// elements are appended/combined atomically with respect to other
// producers' deliveries.
func (n *foldNode) deliverBatch(batch []any) {
	if n.mode == Streaming {
		for {
			oldBoxed := n.streamAcc.Load().(boxedAccumulator)
			acc := oldBoxed.value
			for _, a := range batch {
				acc = n.combine(acc, a)
			}
			if n.streamAcc.CompareAndSwap(oldBoxed, boxedAccumulator{value: acc}) {
				break
			}
		}
	} else {
		n.mu.Lock()
		n.buffer = append(n.buffer, batch...)
		n.mu.Unlock()
	}
	n.readyCount.Add(1)
}

func (n *foldNode) combineStreaming(a any) {
	for {
		oldBoxed := n.streamAcc.Load().(boxedAccumulator)
		newVal := n.combine(oldBoxed.value, a)
		newBoxed := boxedAccumulator{value: newVal}
		if n.streamAcc.CompareAndSwap(oldBoxed, newBoxed) {
			return
		}
	}
}

func (n *foldNode) addCallback(cb edgeCallback) {
	n.callbacks = append(n.callbacks, cb)
}

func (n *foldNode) consumerIDs() []NodeID {
	ids := make([]NodeID, len(n.callbacks))
	for i, cb := range n.callbacks {
		ids[i] = cb.consumerID
	}
	return ids
}

func (n *foldNode) run() error {
	if !n.isReady() {
		return fmt.Errorf("%w: fold node %d", ErrNotReady, n.nodeID)
	}

	var result any
	if n.mode == Streaming {
		result = n.streamAcc.Load().(boxedAccumulator).value
	} else {
		n.mu.Lock()
		values := make([]any, len(n.buffer))
		copy(values, n.buffer)
		n.mu.Unlock()

		acc := n.initial
		for _, v := range values {
			acc = n.combine(acc, v)
		}
		result = acc
	}

	n.result = result
	n.hasRun = true
	for _, cb := range n.callbacks {
		cb.deliver(result)
	}
	return nil
}
