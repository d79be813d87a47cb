package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/value"
)

const identAdd = ProtoIdentifier("graphene_core::ops::add")

func protoNode(inputs ...NodeInput) *DocumentNode {
	return &DocumentNode{
		Inputs:         inputs,
		Implementation: ProtoImplementation(identAdd),
		Visible:        true,
	}
}

func TestNodesInDependencyOrder(t *testing.T) {
	n := NewNetwork(0)
	require.NoError(t, n.AddNode(3, protoNode(ValueInput(value.NewF64(1), false))))
	require.NoError(t, n.AddNode(1, protoNode(NodeInputOf(3, 0))))
	require.NoError(t, n.AddNode(2, protoNode(NodeInputOf(1, 0), NodeInputOf(3, 0))))

	order, err := n.NodesInDependencyOrder()
	require.NoError(t, err)

	pos := map[NodeID]int{}
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos[3], pos[1], "producer before consumer")
	assert.Less(t, pos[1], pos[2])
	assert.Less(t, pos[3], pos[2])
}

func TestDependencyOrderTiesBrokenByID(t *testing.T) {
	n := NewNetwork(0)
	for _, id := range []NodeID{9, 4, 7} {
		require.NoError(t, n.AddNode(id, protoNode(ValueInput(value.None, false))))
	}
	order, err := n.NodesInDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []NodeID{4, 7, 9}, order)
}

func TestCycleDetection(t *testing.T) {
	n := NewNetwork(0)
	n.Nodes[1] = protoNode(NodeInputOf(2, 0))
	n.Nodes[2] = protoNode(NodeInputOf(1, 0))

	_, err := n.NodesInDependencyOrder()
	require.ErrorIs(t, err, ErrCycle)
}

func TestValidate(t *testing.T) {
	t.Run("dangling node reference", func(t *testing.T) {
		n := NewNetwork(0)
		n.Nodes[1] = protoNode(NodeInputOf(99, 0))
		require.ErrorIs(t, n.Validate(), ErrNoSuchNode)
	})

	t.Run("import out of range", func(t *testing.T) {
		n := NewNetwork(1)
		n.Nodes[1] = protoNode(NetworkInput(4, ""))
		require.ErrorIs(t, n.Validate(), ErrImportOutOfRange)
	})

	t.Run("scope injection must bind an existing node", func(t *testing.T) {
		n := NewNetwork(0)
		n.ScopeInjections = map[string]ScopeInjection{"api": {NodeID: 42, Type: "f64"}}
		require.ErrorIs(t, n.Validate(), ErrNoSuchNode)
	})

	t.Run("nested networks validate recursively", func(t *testing.T) {
		inner := NewNetwork(0)
		inner.Nodes[1] = protoNode(NodeInputOf(77, 0))
		outer := NewNetwork(0)
		outer.Nodes[5] = &DocumentNode{
			Implementation: NetworkImplementation(inner),
			Visible:        true,
		}
		require.ErrorIs(t, outer.Validate(), ErrNoSuchNode)
	})

	t.Run("well formed", func(t *testing.T) {
		n := NewNetwork(0)
		require.NoError(t, n.AddNode(1, protoNode(ValueInput(value.NewF64(2), false))))
		n.Exports = []NodeInput{NodeInputOf(1, 0)}
		require.NoError(t, n.Validate())
	})
}

func TestResolve(t *testing.T) {
	inner := NewNetwork(0)
	leaf := protoNode(ValueInput(value.NewF64(1), false))
	inner.Nodes[7] = leaf

	outer := NewNetwork(0)
	outer.Nodes[3] = &DocumentNode{
		Implementation: NetworkImplementation(inner),
		Visible:        true,
	}

	got, err := outer.Resolve([]NodeID{3, 7})
	require.NoError(t, err)
	assert.Same(t, leaf, got)

	_, err = outer.Resolve([]NodeID{3, 8})
	require.ErrorIs(t, err, ErrNoSuchNode)

	_, err = outer.Resolve(nil)
	require.ErrorIs(t, err, ErrNoSuchNode)
}

func TestIDGenerator(t *testing.T) {
	a := NewIDGenerator(1)
	b := NewIDGenerator(1)
	other := NewIDGenerator(2)

	first, second := a.Next(), a.Next()
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, b.Next(), "same seed, same stream")
	assert.NotEqual(t, first, other.Next(), "different seed, different stream")
}

func TestInPath(t *testing.T) {
	id := NodeID(7)
	assert.Equal(t, id, id.InPath(nil), "root level keeps its id")
	assert.NotEqual(t, id, id.InPath([]NodeID{1}))
	assert.Equal(t, id.InPath([]NodeID{1, 2}), id.InPath([]NodeID{1, 2}), "derivation is stable")
	assert.NotEqual(t, id.InPath([]NodeID{1, 2}), id.InPath([]NodeID{2, 1}), "path order matters")
}
