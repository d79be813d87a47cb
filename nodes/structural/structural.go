// Package structural registers the graph-plumbing nodes the compiler
// inserts during lowering: the compose glue fronting every auto-composed
// primary input.
package structural

import (
	"context"
	"fmt"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// composeNode precomputes its upstream for a composed consumer. It is
// the point where the evaluation context crosses from the contextual
// calling convention into a unit-input node's parameter list.
type composeNode struct {
	node.Base
	upstream node.Node
}

// Eval implements node.Node.
func (c *composeNode) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	return c.upstream.Eval(ctx, ec)
}

// Reset implements node.Node.
func (c *composeNode) Reset() { c.upstream.Reset() }

func init() {
	if err := Register(registry.Default()); err != nil {
		panic(err)
	}
}

// Register adds the compose glue to a registry.
func Register(r *registry.Registry) error {
	return r.Register(registry.Entry{
		Identifier: document.ProtoIdentifier("graphene_core::structural::compose"),
		Input:      value.TypeContext,
		Params:     []value.TypeDescriptor{value.Generic("T")},
		Return:     value.Generic("T"),
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("compose: want 1 parameter, got %d", len(inst.Params))
			}
			return &composeNode{upstream: inst.Params[0]}, nil
		},
		Metadata: registry.Metadata{
			Category:    "Internal",
			Description: "Precomputes a consumer's primary input.",
		},
	})
}
