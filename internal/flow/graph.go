package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/workerpool"
)

// GraphOptions configures a Graph's worker pool. Zero-value Options is
// valid and runs a single worker with the pool's default poll timeout.
type GraphOptions struct {
	// WorkerThreadCount is the fixed size of the pool every run dispatches
	// onto.
	WorkerThreadCount int
	// PollTimeout bounds how long each worker blocks on the delay queue
	// between checks of the pool's running flag.
	PollTimeout time.Duration
	// Metrics, if non-nil, instruments the underlying worker pool.
	Metrics *workerpool.Metrics
}

// Graph owns every node by id, seeds a run from input nodes, drives
// readiness propagation across the worker pool, and waits for every node
// to complete.
type Graph struct {
	nodes    []runnable
	inputIDs []NodeID
	opts     GraphOptions

	// Scheduling state, reset at the start of every Run.
	mu        sync.Mutex
	cond      *sync.Cond
	scheduled []bool
	completed int
	firstErr  error
}

// New constructs an empty Graph backed by a pool of workerThreadCount
// workers.
func New(workerThreadCount int) *Graph {
	return NewWithOptions(GraphOptions{WorkerThreadCount: workerThreadCount})
}

// NewWithOptions constructs an empty Graph with full control over the
// underlying worker pool.
func NewWithOptions(opts GraphOptions) *Graph {
	g := &Graph{opts: opts}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// register appends n to the node vector and returns its freshly assigned
// id, which is dense and equal to insertion order.
func (g *Graph) register(n runnable) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return id
}

func (g *Graph) registerInput(n runnable) NodeID {
	id := g.register(n)
	g.inputIDs = append(g.inputIDs, id)
	return id
}

// connectCallback installs, on the producer node, a callback that delivers
// its result to deliver and records consumerID in the producer's consumer
// multiset.
func (g *Graph) connectCallback(producerID, consumerID NodeID, deliver func(any)) {
	g.nodes[producerID].addCallback(edgeCallback{consumerID: consumerID, deliver: deliver})
}

func (g *Graph) nodeAt(id NodeID) (runnable, error) {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return g.nodes[id], nil
}

// setTypedInput is used by InputHandle.Set, where the Go type system
// already guarantees value's type matches the node's declared type.
func (g *Graph) setTypedInput(id NodeID, value any) {
	n := g.nodes[id].(*slotNode)
	n.fn = constantFn(value)
}

// SetInput is the dynamically-typed counterpart of InputHandle.Set: it
// runtime-checks value's type against the input node's declared type and
// returns ErrBadInputType on mismatch. The graph is left unchanged on
// failure, so a corrected SetInput call can follow immediately.
func (g *Graph) SetInput(id NodeID, value any) error {
	r, err := g.nodeAt(id)
	if err != nil {
		return err
	}
	n, ok := r.(*slotNode)
	if !ok || n.inputType == nil {
		return fmt.Errorf("%w: node %d is not an input node", ErrUnknownNode, id)
	}
	if got := valueType(value); got != n.inputType {
		return fmt.Errorf("%w: node %d wants %s, got %s", ErrBadInputType, id, n.inputType, got)
	}
	n.fn = constantFn(value)
	return nil
}

func constantFn(value any) func([]any) (any, error) {
	return func([]any) (any, error) { return value, nil }
}

// resultFor returns a node's produced result once Run has completed it.
func (g *Graph) resultFor(id NodeID) (any, bool) {
	switch n := g.nodes[id].(type) {
	case *slotNode:
		if !n.hasRun {
			return nil, false
		}
		return n.result, true
	case *foldNode:
		if !n.hasRun {
			return nil, false
		}
		return n.result, true
	default:
		return nil, false
	}
}

// Run executes the entire graph once: every input node runs directly on
// the calling goroutine (which publishes their values through callbacks
// into successor slots before any scheduling decision is made), and every
// other node runs on a worker pool that the scheduler feeds as nodes
// become ready. Run blocks until every node has completed, or until the
// first node failure has been recorded, and returns that failure if any.
func (g *Graph) Run(ctx context.Context) error {
	runID := uuid.New()
	logger := ctxlog.FromContext(ctx).With("runID", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	g.scheduled = make([]bool, len(g.nodes))
	g.completed = 0
	g.firstErr = nil

	total := len(g.nodes)
	if total == 0 {
		return nil
	}

	pool := workerpool.New(ctx, workerpool.Options{
		Workers:     g.opts.WorkerThreadCount,
		PollTimeout: g.opts.PollTimeout,
		Metrics:     g.opts.Metrics,
	})
	defer pool.Shutdown()

	logger.Debug("running input nodes", "count", len(g.inputIDs))
	anyInputFailed := false
	ranInputs := make([]NodeID, 0, len(g.inputIDs))
	for _, id := range g.inputIDs {
		g.mu.Lock()
		g.scheduled[id] = true
		g.mu.Unlock()

		if err := g.nodes[id].run(); err != nil {
			logger.Error("input node failed", "nodeID", id, "error", err)
			g.recordFailure(err)
			anyInputFailed = true
			continue
		}
		ranInputs = append(ranInputs, id)
	}
	for _, id := range ranInputs {
		g.onComplete(ctx, pool, id)
	}
	if anyInputFailed {
		g.bailOut()
	}

	g.mu.Lock()
	for g.completed < total {
		g.cond.Wait()
	}
	err := g.firstErr
	g.mu.Unlock()

	logger.Debug("run complete", "nodes", total, "error", err)
	return err
}

// onComplete schedules every not-yet-scheduled, now-ready consumer of the
// just-completed node, then advances the completion count. The isScheduled
// flip and the pool submission happen under the same critical section:
// two producers can race to observe the same consumer as ready, and
// exactly one must win the right to schedule it, so the mutex must still
// be held when the job is handed to the pool.
func (g *Graph) onComplete(ctx context.Context, pool *workerpool.Pool, completedID NodeID) {
	logger := ctxlog.FromContext(ctx)

	for _, childID := range g.nodes[completedID].consumerIDs() {
		child := g.nodes[childID]

		g.mu.Lock()
		if !g.scheduled[childID] && child.isReady() {
			g.scheduled[childID] = true
			pool.Submit(func() {
				g.runScheduled(ctx, pool, childID)
			})
			logger.Debug("scheduled node", "nodeID", childID, "from", completedID)
		}
		g.mu.Unlock()
	}

	g.mu.Lock()
	g.completed++
	if g.completed == len(g.nodes) {
		g.cond.Broadcast()
	}
	g.mu.Unlock()
}

// runScheduled executes one node on a worker goroutine and then propagates
// completion. A node failure halts further scheduling: the error is
// recorded (first one wins) and every remaining node is treated as
// completed so the driver's wait condition still converges.
func (g *Graph) runScheduled(ctx context.Context, pool *workerpool.Pool, id NodeID) {
	if err := g.nodes[id].run(); err != nil {
		ctxlog.FromContext(ctx).Error("node failed", "nodeID", id, "error", err)
		g.recordFailure(err)
		g.bailOut()
		return
	}
	g.onComplete(ctx, pool, id)
}

func (g *Graph) recordFailure(err error) {
	g.mu.Lock()
	if g.firstErr == nil {
		g.firstErr = err
	}
	g.mu.Unlock()
}

// bailOut marks every not-yet-completed node as completed for the purpose
// of the completion condition, so Run's waiter converges promptly after a
// failure instead of hanging on nodes that will now never become ready.
func (g *Graph) bailOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = len(g.nodes)
	g.cond.Broadcast()
}
