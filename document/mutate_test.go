package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/value"
)

func TestConnectInput(t *testing.T) {
	t.Run("wires an edge", func(t *testing.T) {
		n := NewNetwork(0)
		require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.NewF64(1), false))))
		require.NoError(t, n.AddNode(2, protoNode(ValueInput(value.None, false))))

		require.NoError(t, n.ConnectInput(2, 0, 1, 0))
		assert.Equal(t, NodeInputOf(1, 0), n.Nodes[2].Inputs[0])
	})

	t.Run("rejects a cycle and leaves the graph unchanged", func(t *testing.T) {
		n := NewNetwork(0)
		require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.None, false))))
		require.NoError(t, n.AddNode(2, protoNode(NodeInputOf(1, 0))))

		before := n.Nodes[1].Inputs[0]
		err := n.ConnectInput(1, 0, 2, 0)
		require.ErrorIs(t, err, ErrCycle)
		assert.Equal(t, before, n.Nodes[1].Inputs[0])
	})

	t.Run("rejects self loops", func(t *testing.T) {
		n := NewNetwork(0)
		require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.None, false))))
		require.ErrorIs(t, n.ConnectInput(1, 0, 1, 0), ErrCycle)
	})

	t.Run("rejects out-of-range slots", func(t *testing.T) {
		n := NewNetwork(0)
		require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.None, false))))
		require.NoError(t, n.AddNode(2, protoNode(ValueInput(value.None, false))))
		require.ErrorIs(t, n.ConnectInput(2, 5, 1, 0), ErrSlotOutOfRange)
	})
}

func TestRemoveNodeDemotesConsumers(t *testing.T) {
	n := NewNetwork(0)
	require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.NewF64(1), false))))
	require.NoError(t, n.AddNode(2, protoNode(NodeInputOf(1, 0))))
	n.Exports = []NodeInput{NodeInputOf(1, 0)}

	require.NoError(t, n.RemoveNode(1))

	assert.Equal(t, InputKindValue, n.Nodes[2].Inputs[0].Kind)
	assert.Equal(t, InputKindValue, n.Exports[0].Kind)
	require.NoError(t, n.Validate())
}

func TestSetValuePreservesExposure(t *testing.T) {
	n := NewNetwork(0)
	require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.NewF64(1), true))))

	require.NoError(t, n.SetValue(1, 0, value.NewF64(9)))
	in := n.Nodes[1].Inputs[0]
	f, _ := in.Value.F64()
	assert.Equal(t, 9.0, f)
	assert.True(t, in.Exposed)
}

func TestGroupUngroup(t *testing.T) {
	gen := NewIDGenerator(7)

	build := func() *NodeNetwork {
		n := NewNetwork(0)
		require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.NewF64(2), false))))
		require.NoError(t, n.AddNode(2, protoNode(NodeInputOf(1, 0), ValueInput(value.NewF64(3), false))))
		require.NoError(t, n.AddNode(3, protoNode(NodeInputOf(2, 0))))
		n.Exports = []NodeInput{NodeInputOf(3, 0)}
		return n
	}

	t.Run("group rewires the boundary", func(t *testing.T) {
		n := build()
		wrapperID, err := n.Group([]NodeID{2}, gen)
		require.NoError(t, err)

		wrapper := n.Nodes[wrapperID]
		require.NotNil(t, wrapper)
		require.Equal(t, ImplementationKindNetwork, wrapper.Implementation.Kind)

		// The outside consumer now reads the wrapper.
		assert.Equal(t, wrapperID, n.Nodes[3].Inputs[0].NodeID)
		// The moved node's outside feed became an import.
		inner := wrapper.Implementation.Network
		moved := inner.Nodes[2]
		assert.Equal(t, InputKindNetwork, moved.Inputs[0].Kind)
		require.NoError(t, n.Validate())
	})

	t.Run("ungroup splices back", func(t *testing.T) {
		n := build()
		wrapperID, err := n.Group([]NodeID{2}, gen)
		require.NoError(t, err)

		require.NoError(t, n.Ungroup(wrapperID))
		require.NoError(t, n.Validate())
		_, stillThere := n.Nodes[wrapperID]
		assert.False(t, stillThere)

		// The consumer is wired to the spliced node, which kept its
		// upstream feed.
		spliced := n.Nodes[3].Inputs[0].NodeID
		inner, ok := n.Nodes[spliced]
		require.True(t, ok)
		assert.Equal(t, NodeID(1), inner.Inputs[0].NodeID)
	})

	t.Run("group of missing node fails", func(t *testing.T) {
		n := build()
		_, err := n.Group([]NodeID{42}, gen)
		require.ErrorIs(t, err, ErrNoSuchNode)
	})

	t.Run("ungroup of a non-network fails", func(t *testing.T) {
		n := build()
		require.Error(t, n.Ungroup(1))
	})
}
