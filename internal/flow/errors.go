package flow

import "errors"

// Sentinel error kinds from the error-handling design. Use errors.Is to
// test for them. NotReady is additionally wrapped with the failing node's id,
// and UserFunctionFailure with the recovered panic value, via fmt.Errorf's
// %w before being surfaced.
var (
	// ErrNotReady is returned when run() is invoked on a node whose inputs
	// are not all set. Under normal scheduled execution this cannot occur;
	// seeing it signals an internal invariant break.
	ErrNotReady = errors.New("flow: node is not ready")

	// ErrBadInputType is returned when SetInput is given a value whose type
	// does not match the input node's declared type.
	ErrBadInputType = errors.New("flow: input value type mismatch")

	// ErrArityMismatch names the case where a node's producers don't match
	// its declared input arity. The generic AddNodeN constructors make this
	// structurally unreachable at compile time, and no function in this
	// package returns it.
	ErrArityMismatch = errors.New("flow: producer arity mismatch")

	// ErrDuplicateSlot names the case where a consumer's input slot already
	// has a producer wired to it. AddNodeN wires each slot exactly once at
	// construction, and no function in this package returns it.
	ErrDuplicateSlot = errors.New("flow: slot already has a connected producer")

	// ErrUserFunctionFailure wraps a panic recovered from a node's
	// user-supplied function.
	ErrUserFunctionFailure = errors.New("flow: user function failed")

	// ErrUnknownNode is returned by SetInput when no node with the given id
	// exists in the graph, or when that node is not an input node.
	ErrUnknownNode = errors.New("flow: unknown node id")
)
