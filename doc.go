// Package graphene is a node-graph runtime for layered graphics
// documents: a directed acyclic dataflow program whose evaluation
// produces the rendered artwork.
//
// The runtime compiles a user-authored document graph (nested networks
// of typed nodes) into a flat, type-checked proto network, instantiates
// it against a registry of primitive implementations, and drives
// demand-driven evaluation through a contextual calling convention.
// Memoization and identity-based reconciliation keep re-evaluation
// incremental under continuous edits.
//
// # Core Concepts
//
// The engine is organized around several key concepts:
//
//   - Document graph: the editable NodeNetwork of DocumentNodes, with
//     nested sub-networks, scope injections, and imports/exports
//   - Proto network: the compiler's output, a flat dependency-ordered
//     list of primitive nodes with every edge monomorphized
//   - Registry: the typed table of node implementations, selected by
//     identifier and signature with implicit numeric widening
//   - Context: the immutable per-evaluation environment (footprint,
//     time, iteration indices, varargs) threaded through every call
//   - BorrowTree: the executor's map of instantiated nodes, reconciled
//     by construction identity across recompilations
//
// # Getting Started
//
// Create a runtime, compile a graph, and evaluate it:
//
//	rt, err := graphene.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	handle, err := rt.Compile(ctx, network, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := rt.Execute(ctx, handle, evalctx.Empty())
//
// Node failures never abort an evaluation: they flow through the result
// as poison values the host can render as error badges.
//
// # Node Development
//
// Primitive implementations register entries describing their typed
// signature and a constructor:
//
//	registry.MustRegister(registry.Entry{
//	    Identifier: "my_nodes::double",
//	    Input:      value.TypeUnit,
//	    Params:     []value.TypeDescriptor{value.TypeF64},
//	    Return:     value.TypeF64,
//	    Construct:  func(inst registry.Instantiation) (node.Node, error) { ... },
//	})
package graphene

// The standard node library registers itself; importing the root
// package is enough to populate the default registry.
import (
	_ "github.com/graphene-go/graphene/nodes/contextual"
	_ "github.com/graphene-go/graphene/nodes/expression"
	_ "github.com/graphene-go/graphene/nodes/logic"
	_ "github.com/graphene-go/graphene/nodes/ops"
	_ "github.com/graphene-go/graphene/nodes/render"
	_ "github.com/graphene-go/graphene/nodes/structural"
)
