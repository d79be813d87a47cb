// Package proto defines the compiler's output: a flat, ordered,
// type-checked graph of primitive nodes ready for instantiation by the
// dynamic executor.
//
// Where the document graph is nested and sum-typed, a proto network is
// monomorphic: every node names a concrete registry implementation and
// every edge carries a resolved type. Node order is a topological order
// of the producer -> consumer edge relation, ties broken by id, so
// evaluating in list order, producers first, is always legal.
package proto

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/value"
)

// InputKind tags a proto node's call-input variant.
type InputKind uint8

const (
	// InputNone: the node takes no call argument (value nodes, fully
	// composed nodes).
	InputNone InputKind = iota

	// InputManualComposition: evaluation threads a value of the declared
	// type (normally the evaluation context) as the call argument.
	InputManualComposition

	// InputNode: the call argument is the output of another proto node,
	// glue that only exists before composition insertion rewrites it.
	InputNode
)

// Input is a proto node's call-input declaration.
type Input struct {
	Kind InputKind `json:"kind"`

	// Type is the canonical spelling of the manual-composition type.
	Type string `json:"type,omitempty"`

	// Node is the upstream producer for InputNode.
	Node document.NodeID `json:"node,omitempty"`
}

// NoInput returns the unit call input.
func NoInput() Input { return Input{Kind: InputNone} }

// ManualComposition declares the node consumes a value of the given
// canonical type as its call argument.
func ManualComposition(typeName string) Input {
	return Input{Kind: InputManualComposition, Type: typeName}
}

// NodeInput wires the call argument to an upstream producer.
func NodeInput(id document.NodeID) Input {
	return Input{Kind: InputNode, Node: id}
}

// ConstructionKind tags a node's construction-argument variant.
type ConstructionKind uint8

const (
	// ConstructionValue embeds a literal; the node becomes a constant
	// producer.
	ConstructionValue ConstructionKind = iota

	// ConstructionNodes passes upstream node handles to the constructor.
	ConstructionNodes

	// ConstructionInline embeds a source fragment compiled by the
	// implementation itself.
	ConstructionInline
)

// ConstructionArgs parameterize a registry constructor.
type ConstructionArgs struct {
	Kind ConstructionKind `json:"kind"`

	// Value is the embedded literal with its precomputed hash.
	Value value.MemoHash[value.TaggedValue] `json:"value,omitempty"`

	// Nodes are the parameter producers, in declaration order.
	Nodes []document.NodeID `json:"nodes,omitempty"`

	// Inline is the embedded source fragment.
	Inline string `json:"inline,omitempty"`
}

// ValueArgs embeds a literal.
func ValueArgs(v value.TaggedValue) ConstructionArgs {
	return ConstructionArgs{Kind: ConstructionValue, Value: value.NewMemoHash(v)}
}

// NodeArgs passes upstream handles.
func NodeArgs(ids ...document.NodeID) ConstructionArgs {
	return ConstructionArgs{Kind: ConstructionNodes, Nodes: ids}
}

// InlineArgs embeds a source fragment.
func InlineArgs(source string) ConstructionArgs {
	return ConstructionArgs{Kind: ConstructionInline, Inline: source}
}

// ResolvedTypes is attached to a node by the type checker: the concrete
// call-input, parameter, and return types the registry selection fixed,
// plus the per-parameter widening targets (the zero Kind means no
// conversion).
type ResolvedTypes struct {
	Input      value.TypeDescriptor
	Params     []value.TypeDescriptor
	Return     value.TypeDescriptor
	Widenings  []value.Kind
	EntryIndex int
}

// Node is one primitive node of a proto network.
type Node struct {
	// Identifier names the registry entry implementing the node.
	Identifier document.ProtoIdentifier `json:"identifier"`

	// Input is the call-input declaration.
	Input Input `json:"input"`

	// Args parameterize the registry constructor.
	Args ConstructionArgs `json:"args"`

	// DocumentPath is the ancestral document-node path, for diagnostics
	// and introspection.
	DocumentPath []document.NodeID `json:"document_path,omitempty"`

	// SkipDeduplication forces a fresh instance on every update.
	SkipDeduplication bool `json:"skip_deduplication,omitempty"`

	// Resolved is populated by the type checker.
	Resolved *ResolvedTypes `json:"-"`
}

// Entry pairs a node with its id in the network's ordered list.
type Entry struct {
	ID   document.NodeID
	Node *Node
}

// Network is the compiler's output. Nodes are in dependency order:
// producers precede consumers.
type Network struct {
	// Inputs is the evaluation entry; a compiled network has exactly one.
	Inputs []document.NodeID

	// Nodes is the ordered node list.
	Nodes []Entry
}

// Export returns the network's single evaluation entry.
func (n *Network) Export() (document.NodeID, error) {
	if len(n.Inputs) != 1 {
		return 0, fmt.Errorf("proto: network has %d inputs, want 1", len(n.Inputs))
	}
	return n.Inputs[0], nil
}

// Lookup returns the node with the given id.
func (n *Network) Lookup(id document.NodeID) (*Node, bool) {
	for _, e := range n.Nodes {
		if e.ID == id {
			return e.Node, true
		}
	}
	return nil, false
}

// HashInto feeds the node's construction identity into the digest: the
// identifier, the call-input shape, and the construction arguments.
// Upstream identities are mixed in by the executor, which knows the
// instantiated handles.
func (p *Node) HashInto(d *xxhash.Digest) {
	_, _ = d.WriteString(string(p.Identifier))
	_, _ = d.Write([]byte{byte(p.Input.Kind)})
	_, _ = d.WriteString(p.Input.Type)
	_, _ = d.Write([]byte{byte(p.Args.Kind)})
	switch p.Args.Kind {
	case ConstructionValue:
		var buf [8]byte
		writeHashU64(buf[:], d, p.Args.Value.HashCode())
	case ConstructionNodes:
		var buf [8]byte
		writeHashU64(buf[:], d, uint64(len(p.Args.Nodes)))
	case ConstructionInline:
		_, _ = d.WriteString(p.Args.Inline)
	}
}

func writeHashU64(buf []byte, d *xxhash.Digest, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = d.Write(buf[:8])
}
