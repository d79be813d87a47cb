package document

import (
	"github.com/graphene-go/graphene/value"
)

// ImplementationKind tags a DocumentNode implementation variant.
type ImplementationKind uint8

const (
	// ImplementationKindNetwork nests a subgraph.
	ImplementationKindNetwork ImplementationKind = iota

	// ImplementationKindProto references a primitive registry entry.
	ImplementationKindProto

	// ImplementationKindExtract captures an upstream node as a value, the
	// metaprogramming directive used by node-introspecting tooling.
	ImplementationKindExtract
)

// Implementation is a DocumentNode's body: a nested network, a primitive
// registry entry, or an extract directive.
type Implementation struct {
	Kind ImplementationKind `json:"kind"`

	// Network is the nested subgraph (ImplementationKindNetwork).
	Network *NodeNetwork `json:"network,omitempty"`

	// Proto names the registry entry (ImplementationKindProto).
	Proto ProtoIdentifier `json:"proto,omitempty"`

	// Extract names the captured upstream node (ImplementationKindExtract).
	Extract NodeID `json:"extract,omitempty"`
}

// NetworkImplementation wraps a nested network.
func NetworkImplementation(n *NodeNetwork) Implementation {
	return Implementation{Kind: ImplementationKindNetwork, Network: n}
}

// ProtoImplementation references a primitive registry entry.
func ProtoImplementation(id ProtoIdentifier) Implementation {
	return Implementation{Kind: ImplementationKindProto, Proto: id}
}

// ExtractImplementation captures the given upstream node as a value.
func ExtractImplementation(id NodeID) Implementation {
	return Implementation{Kind: ImplementationKindExtract, Extract: id}
}

// DocumentNode is one node of the user-authored graph.
type DocumentNode struct {
	// Inputs are the node's input slots, ordered; the slot count is fixed
	// per node kind. Slot 0 is the primary input.
	Inputs []NodeInput `json:"inputs"`

	// Implementation is the node's body.
	Implementation Implementation `json:"implementation"`

	// ManualComposition, when non-empty, is the canonical spelling of the
	// type the node consumes as its call argument (usually "context").
	// Empty means the node is auto-composed with its primary input.
	ManualComposition string `json:"manual_composition,omitempty"`

	// SkipDeduplication forces a fresh executor instance even when the
	// node is content-hash-equal to another, for side-effectful bodies
	// such as GPU surface creation.
	SkipDeduplication bool `json:"skip_deduplication,omitempty"`

	// Editor-side state. The runtime ignores everything except Visible:
	// an invisible node passes its primary input through as identity.
	Visible  bool              `json:"visible"`
	Locked   bool              `json:"locked,omitempty"`
	Pinned   bool              `json:"pinned,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ManualCompositionType resolves the declared call-argument type; ok is
// false when the node is auto-composed.
func (n *DocumentNode) ManualCompositionType() (value.TypeDescriptor, bool) {
	if n.ManualComposition == "" {
		return value.TypeDescriptor{}, false
	}
	return value.Concrete(n.ManualComposition), true
}

// PrimaryInput returns the node's slot-0 input; ok is false when the node
// has no inputs.
func (n *DocumentNode) PrimaryInput() (NodeInput, bool) {
	if len(n.Inputs) == 0 {
		return NodeInput{}, false
	}
	return n.Inputs[0], true
}

// Clone returns a deep copy of the node. Nested networks are cloned
// recursively; tagged values share payloads (they are immutable).
func (n *DocumentNode) Clone() *DocumentNode {
	cp := *n
	cp.Inputs = append([]NodeInput(nil), n.Inputs...)
	if n.Metadata != nil {
		cp.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			cp.Metadata[k] = v
		}
	}
	if n.Implementation.Kind == ImplementationKindNetwork && n.Implementation.Network != nil {
		cp.Implementation.Network = n.Implementation.Network.Clone()
	}
	return &cp
}
