package flow

import "reflect"

// AddInput registers a zero-input node of type T. Its value must be
// supplied before Run via the returned handle's Set, or via the graph's
// dynamically-typed SetInput; until then it evaluates to T's zero value.
func AddInput[T any](g *Graph) InputHandle[T] {
	var zero T
	n := newSlotNode(0, 0, constantFn(zero))
	n.inputType = reflect.TypeOf((*T)(nil)).Elem()
	id := g.registerInput(n)
	n.nodeID = id
	return InputHandle[T]{handle[T]{id: id, g: g}}
}

// AddNode1 registers a single-input node: result = fn(p0.Result()).
func AddNode1[I0, O any](g *Graph, fn func(I0) O, p0 Handle[I0]) NodeHandle[O] {
	n := newSlotNode(0, 1, func(args []any) (any, error) {
		return runPure(func() any { return fn(args[0].(I0)) })
	})
	id := g.register(n)
	n.nodeID = id

	g.connectCallback(p0.nodeID(), id, func(v any) {
		n.setSlot(0, v.(I0))
	})
	return NodeHandle[O]{handle[O]{id: id, g: g}}
}

// AddNode2 registers a two-input node: result = fn(p0.Result(), p1.Result()).
func AddNode2[I0, I1, O any](g *Graph, fn func(I0, I1) O, p0 Handle[I0], p1 Handle[I1]) NodeHandle[O] {
	n := newSlotNode(0, 2, func(args []any) (any, error) {
		return runPure(func() any { return fn(args[0].(I0), args[1].(I1)) })
	})
	id := g.register(n)
	n.nodeID = id

	g.connectCallback(p0.nodeID(), id, func(v any) { n.setSlot(0, v.(I0)) })
	g.connectCallback(p1.nodeID(), id, func(v any) { n.setSlot(1, v.(I1)) })
	return NodeHandle[O]{handle[O]{id: id, g: g}}
}

// AddNode3 registers a three-input node:
// result = fn(p0.Result(), p1.Result(), p2.Result()).
func AddNode3[I0, I1, I2, O any](g *Graph, fn func(I0, I1, I2) O, p0 Handle[I0], p1 Handle[I1], p2 Handle[I2]) NodeHandle[O] {
	n := newSlotNode(0, 3, func(args []any) (any, error) {
		return runPure(func() any { return fn(args[0].(I0), args[1].(I1), args[2].(I2)) })
	})
	id := g.register(n)
	n.nodeID = id

	g.connectCallback(p0.nodeID(), id, func(v any) { n.setSlot(0, v.(I0)) })
	g.connectCallback(p1.nodeID(), id, func(v any) { n.setSlot(1, v.(I1)) })
	g.connectCallback(p2.nodeID(), id, func(v any) { n.setSlot(2, v.(I2)) })
	return NodeHandle[O]{handle[O]{id: id, g: g}}
}

// AddFold registers a fold node with no producers yet connected; use
// ConnectFold / ConnectFoldBatch to wire producers, each call increasing
// the node's declared arity by one.
func AddFold[O, A any](g *Graph, mode FoldMode, combine func(acc O, a A) O, initial O) FoldHandle[O, A] {
	combineAny := func(acc, a any) any {
		var accT O
		if acc != nil {
			accT = acc.(O)
		}
		return combine(accT, a.(A))
	}
	n := newFoldNode(0, mode, combineAny, initial)
	id := g.register(n)
	n.nodeID = id
	return FoldHandle[O, A]{handle[O]{id: id, g: g}}
}

// ConnectFold wires producer as one more input to fold, delivering a
// single A value per producer firing.
func ConnectFold[A, O any](producer Handle[A], fold FoldHandle[O, A]) {
	n := fold.graph().nodes[fold.nodeID()].(*foldNode)
	n.declare()
	fold.graph().connectCallback(producer.nodeID(), fold.nodeID(), func(v any) {
		n.deliverOne(v.(A))
	})
}

// ConnectFoldBatch wires producer as one more input to fold, where each
// firing delivers a vector of A values appended/combined as a single
// atomic unit with respect to other producers' deliveries.
func ConnectFoldBatch[A, O any](producer Handle[[]A], fold FoldHandle[O, A]) {
	n := fold.graph().nodes[fold.nodeID()].(*foldNode)
	n.declare()
	fold.graph().connectCallback(producer.nodeID(), fold.nodeID(), func(v any) {
		batch := v.([]A)
		anyBatch := make([]any, len(batch))
		for i, a := range batch {
			anyBatch[i] = a
		}
		n.deliverBatch(anyBatch)
	})
}
