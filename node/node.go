// Package node defines the contract every primitive node implementation
// satisfies, plus the small adapters (function nodes, constant nodes)
// the executor and node library build on.
//
// Evaluation is demand-driven: a node receives its lazy parameter
// handles at construction time and evaluates its upstreams itself inside
// Eval, threading the (possibly derived) evaluation context left to
// right. Whether a node's call argument is statically the context
// (manual composition) or unit (composed) is a type-system distinction
// resolved by the compiler; dynamically the context always rides along.
//
// Runtime failures travel as poison values (value.KindError), never as
// Go errors, so a partially failing graph still produces every valid
// output it can.
package node

import (
	"context"

	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/value"
)

// Node is a type-erased node implementation. Eval may block on the Go
// context (resource loads, cooperative cancellation); the executor stops
// an evaluation by cancelling it and simply not polling further.
// Implementations must not hold locks across blocking calls.
type Node interface {
	// Eval produces the node's output for one evaluation environment.
	// Failures are returned as poison values.
	Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue

	// Reset invalidates any internal cache.
	Reset()
}

// Base provides a no-op Reset for stateless implementations.
type Base struct{}

// Reset implements Node.
func (Base) Reset() {}

// Func adapts a plain function to the Node interface.
type Func struct {
	Base
	F func(ctx context.Context, ec *evalctx.Context) value.TaggedValue
}

// Eval implements Node.
func (n *Func) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	return n.F(ctx, ec)
}

// Constant is a node that always returns the same value, the executor's
// realization of embedded literals.
type Constant struct {
	Base
	Value value.TaggedValue
}

// Eval implements Node.
func (n *Constant) Eval(context.Context, *evalctx.Context) value.TaggedValue {
	return n.Value
}

// Forward returns the first poison among the given values, if any. Nodes
// that do not handle errors explicitly call this first and forward the
// poison unchanged.
func Forward(values ...value.TaggedValue) (value.TaggedValue, bool) {
	for _, v := range values {
		if v.IsError() {
			return v, true
		}
	}
	return value.None, false
}
