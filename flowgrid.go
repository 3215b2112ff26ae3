// Package flowgrid is a parallel computation-graph execution engine: wire
// typed nodes together with AddNode1/2/3, run the graph once with a fixed
// worker pool, and read results back off the handles once Run returns.
//
// The actual implementation lives in internal/flow; this file is the
// library's only public surface, re-exporting its handle and graph API for
// embedding callers.
package flowgrid

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/workerpool"
)

// NodeID identifies a registered node. It is dense and assigned in
// registration order.
type NodeID = flow.NodeID

// Handle is satisfied by any node reference whose output is of type T.
type Handle[T any] = flow.Handle[T]

// InputHandle references a zero-input node registered via AddInput.
type InputHandle[T any] = flow.InputHandle[T]

// NodeHandle references a node of static arity registered via AddNode1..3.
type NodeHandle[T any] = flow.NodeHandle[T]

// FoldHandle references a fold node registered via AddFold.
type FoldHandle[O, A any] = flow.FoldHandle[O, A]

// FoldMode selects how a fold node combines the values delivered to it.
type FoldMode = flow.FoldMode

const (
	Streaming = flow.Streaming
	Batched   = flow.Batched
)

// Graph owns every node by id and drives one end-to-end run.
type Graph = flow.Graph

// GraphOptions configures a Graph's worker pool.
type GraphOptions = flow.GraphOptions

// Metrics optionally instruments a Graph's underlying worker pool with
// Prometheus collectors.
type Metrics = workerpool.Metrics

// Sentinel errors returned by Graph.Run and Graph.SetInput.
var (
	ErrNotReady            = flow.ErrNotReady
	ErrBadInputType        = flow.ErrBadInputType
	ErrArityMismatch       = flow.ErrArityMismatch
	ErrDuplicateSlot       = flow.ErrDuplicateSlot
	ErrUserFunctionFailure = flow.ErrUserFunctionFailure
	ErrUnknownNode         = flow.ErrUnknownNode
)

// New constructs an empty Graph backed by a pool of workerThreadCount
// workers.
func New(workerThreadCount int) *Graph {
	return flow.New(workerThreadCount)
}

// NewWithOptions constructs an empty Graph with full control over the
// underlying worker pool, including optional Prometheus metrics.
func NewWithOptions(opts GraphOptions) *Graph {
	return flow.NewWithOptions(opts)
}

// NewMetrics registers a worker-pool metrics collector set under the given
// namespace on reg. Pass the result as GraphOptions.Metrics.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	return workerpool.NewMetrics(reg, namespace)
}

// Run executes g once: input nodes run on the calling goroutine, every
// other node runs on g's worker pool as it becomes ready, and Run blocks
// until every node has completed or the first failure has been recorded.
func Run(ctx context.Context, g *Graph) error {
	return g.Run(ctx)
}

// AddInput registers a zero-input node of type T.
func AddInput[T any](g *Graph) InputHandle[T] {
	return flow.AddInput[T](g)
}

// AddNode1 registers a single-input node: result = fn(p0.Result()).
func AddNode1[I0, O any](g *Graph, fn func(I0) O, p0 Handle[I0]) NodeHandle[O] {
	return flow.AddNode1(g, fn, p0)
}

// AddNode2 registers a two-input node: result = fn(p0.Result(), p1.Result()).
func AddNode2[I0, I1, O any](g *Graph, fn func(I0, I1) O, p0 Handle[I0], p1 Handle[I1]) NodeHandle[O] {
	return flow.AddNode2(g, fn, p0, p1)
}

// AddNode3 registers a three-input node:
// result = fn(p0.Result(), p1.Result(), p2.Result()).
func AddNode3[I0, I1, I2, O any](g *Graph, fn func(I0, I1, I2) O, p0 Handle[I0], p1 Handle[I1], p2 Handle[I2]) NodeHandle[O] {
	return flow.AddNode3(g, fn, p0, p1, p2)
}

// AddFold registers a fold node with no producers yet connected; use
// ConnectFold / ConnectFoldBatch to wire producers.
func AddFold[O, A any](g *Graph, mode FoldMode, combine func(acc O, a A) O, initial O) FoldHandle[O, A] {
	return flow.AddFold(g, mode, combine, initial)
}

// ConnectFold wires producer as one more input to fold, delivering a
// single value per producer firing.
func ConnectFold[A, O any](producer Handle[A], fold FoldHandle[O, A]) {
	flow.ConnectFold(producer, fold)
}

// ConnectFoldBatch wires producer as one more input to fold, where each
// firing delivers a batch of values as a single atomic unit.
func ConnectFoldBatch[A, O any](producer Handle[[]A], fold FoldHandle[O, A]) {
	flow.ConnectFoldBatch(producer, fold)
}
