package document

import (
	"fmt"

	"github.com/graphene-go/graphene/value"
)

// InputKind tags a NodeInput variant.
type InputKind uint8

// The input variants a document node slot may hold.
const (
	// InputKindNode wires the slot to another node's output.
	InputKindNode InputKind = iota

	// InputKindValue embeds a literal value in the slot.
	InputKindValue

	// InputKindNetwork pulls from the enclosing network's n-th import.
	InputKindNetwork

	// InputKindScope pulls from a named scope injection.
	InputKindScope

	// InputKindInline embeds a source fragment for implementations that
	// compile it themselves (shader nodes).
	InputKindInline
)

// NodeInput is one input slot of a DocumentNode.
type NodeInput struct {
	Kind InputKind `json:"kind"`

	// Node wiring (InputKindNode).
	NodeID      NodeID `json:"node_id,omitempty"`
	OutputIndex int    `json:"output_index,omitempty"`

	// Embedded literal (InputKindValue). Exposed means the UI may surface
	// the literal as a widget; evaluation uses it either way.
	Value   value.TaggedValue `json:"value,omitempty"`
	Exposed bool              `json:"exposed,omitempty"`

	// Import pull (InputKindNetwork).
	InputIndex int     `json:"input_index,omitempty"`
	TypeHint   *string `json:"type_hint,omitempty"`

	// Scope injection name (InputKindScope).
	Scope string `json:"scope,omitempty"`

	// Inline source fragment (InputKindInline).
	Source string `json:"source,omitempty"`
}

// NodeInputOf wires the slot to the output_index-th output of upstream.
func NodeInputOf(upstream NodeID, outputIndex int) NodeInput {
	return NodeInput{Kind: InputKindNode, NodeID: upstream, OutputIndex: outputIndex}
}

// ValueInput embeds a literal in the slot.
func ValueInput(v value.TaggedValue, exposed bool) NodeInput {
	return NodeInput{Kind: InputKindValue, Value: v, Exposed: exposed}
}

// NetworkInput pulls the enclosing network's index-th import. The hint,
// when non-empty, is the canonical spelling of the expected type.
func NetworkInput(index int, hint string) NodeInput {
	in := NodeInput{Kind: InputKindNetwork, InputIndex: index}
	if hint != "" {
		in.TypeHint = &hint
	}
	return in
}

// ScopeInput pulls from the named scope injection of the innermost
// enclosing network that declares it.
func ScopeInput(name string) NodeInput {
	return NodeInput{Kind: InputKindScope, Scope: name}
}

// InlineInput embeds a source fragment.
func InlineInput(source string) NodeInput {
	return NodeInput{Kind: InputKindInline, Source: source}
}

// String implements fmt.Stringer for diagnostics.
func (in NodeInput) String() string {
	switch in.Kind {
	case InputKindNode:
		return fmt.Sprintf("node(%s[%d])", in.NodeID, in.OutputIndex)
	case InputKindValue:
		return fmt.Sprintf("value(%s)", in.Value)
	case InputKindNetwork:
		return fmt.Sprintf("import(%d)", in.InputIndex)
	case InputKindScope:
		return fmt.Sprintf("scope(%q)", in.Scope)
	case InputKindInline:
		return "inline(...)"
	}
	return "invalid"
}
