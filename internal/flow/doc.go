// Package flow implements the typed node abstraction, the fold-node
// specialization, and the dataflow graph/scheduler that together form the
// execution core of the engine: a caller declares a DAG of pure, typed
// computations and runs it once across a worker pool, with each node
// firing exactly when all of its inputs have been produced.
//
// The graph drives every input node on the caller's thread, then lets
// callbacks installed on each producer's output feed downstream input
// slots and trigger scheduling of newly-ready consumers on the worker
// pool. Run returns once every node has completed, or once the first
// node failure has been recorded.
package flow
