package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotNode_ZeroArityIsVacuouslyReady(t *testing.T) {
	n := newSlotNode(0, 0, constantFn(42))
	assert.True(t, n.isReady())

	require.NoError(t, n.run())
	assert.Equal(t, 42, n.result)
	assert.True(t, n.hasRun)
}

func TestSlotNode_NotReadyUntilEverySlotSet(t *testing.T) {
	n := newSlotNode(0, 2, func(args []any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	})
	assert.False(t, n.isReady())

	n.setSlot(0, 1)
	assert.False(t, n.isReady())

	n.setSlot(1, 2)
	assert.True(t, n.isReady())

	require.NoError(t, n.run())
	assert.Equal(t, 3, n.result)
}

func TestSlotNode_RunBeforeReadyFails(t *testing.T) {
	n := newSlotNode(0, 1, constantFn(0))
	err := n.run()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSlotNode_RunFiresCallbacksInInsertionOrder(t *testing.T) {
	n := newSlotNode(0, 0, constantFn("x"))

	var order []int
	n.addCallback(edgeCallback{consumerID: 1, deliver: func(any) { order = append(order, 1) }})
	n.addCallback(edgeCallback{consumerID: 2, deliver: func(any) { order = append(order, 2) }})
	n.addCallback(edgeCallback{consumerID: 3, deliver: func(any) { order = append(order, 3) }})

	require.NoError(t, n.run())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, []NodeID{1, 2, 3}, n.consumerIDs())
}

func TestRunPure_RecoversPanicAsUserFunctionFailure(t *testing.T) {
	_, err := runPure(func() any { panic("boom") })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserFunctionFailure)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunPure_PropagatesResultOnSuccess(t *testing.T) {
	result, err := runPure(func() any { return 7 })
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestSlotNode_UserFunctionErrorDoesNotFireCallbacks(t *testing.T) {
	sentinel := errors.New("user fn failed")
	n := newSlotNode(0, 0, func([]any) (any, error) { return nil, sentinel })

	fired := false
	n.addCallback(edgeCallback{consumerID: 1, deliver: func(any) { fired = true }})

	err := n.run()
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, fired)
	assert.False(t, n.hasRun)
}
