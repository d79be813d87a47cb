// Package contextual registers the context-reading nodes: iteration
// index and position, animation and wall-clock time, and host varargs.
// All are manual-composition nodes; a missing capability without a
// declared fallback yields the missing-capability poison.
package contextual

import (
	"context"
	"fmt"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// levelOf demands the loop-level parameter as a small integer.
func levelOf(ctx context.Context, ec *evalctx.Context, n node.Node) (uint32, value.TaggedValue, bool) {
	v := n.Eval(ctx, ec)
	if v.IsError() {
		return 0, v, false
	}
	f, ok := v.AsF64()
	if !ok || f < 0 {
		return 0, value.NewError("loop_level", fmt.Sprintf("expected a non-negative number, got %s", v)), false
	}
	return uint32(f), value.None, true
}

func contextEntry(name, description string, capability string, params []value.TypeDescriptor, ret value.TypeDescriptor, construct registry.Constructor) registry.Entry {
	return registry.Entry{
		Identifier:      document.ProtoIdentifier("graphene_core::context::" + name),
		Input:           value.TypeContext,
		Params:          params,
		Return:          ret,
		Construct:       construct,
		AllowIntToFloat: true,
		Metadata: registry.Metadata{
			Category:     "Context",
			Description:  description,
			Capabilities: []string{capability},
		},
	}
}

func init() {
	if err := Register(registry.Default()); err != nil {
		panic(err)
	}
}

// Register adds the context-reading primitives to a registry.
func Register(r *registry.Registry) error {
	var out []registry.Entry
	// Produces the index of the current loop iteration, supplied by
	// downstream repeat nodes. Loop level 0 is the innermost loop;
	// higher levels read outward.
	out = append(out, contextEntry("read_index",
		"Reads the current iteration index from the evaluation context.",
		evalctx.CapabilityIndex,
		[]value.TypeDescriptor{value.TypeF64}, value.TypeF64,
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("read_index: want 1 parameter, got %d", len(inst.Params))
			}
			level := inst.Params[0]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				lvl, poison, ok := levelOf(ctx, ec, level)
				if !ok {
					return poison
				}
				i, ok := ec.IndexAt(lvl)
				if !ok {
					return value.NewMissingCapability(evalctx.CapabilityIndex)
				}
				return value.NewF64(float64(i))
			}}, nil
		}))

	out = append(out, contextEntry("read_position",
		"Reads the current iteration position from the evaluation context.",
		evalctx.CapabilityPosition,
		[]value.TypeDescriptor{value.TypeF64}, value.TypeDVec2,
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("read_position: want 1 parameter, got %d", len(inst.Params))
			}
			level := inst.Params[0]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				lvl, poison, ok := levelOf(ctx, ec, level)
				if !ok {
					return poison
				}
				p, ok := ec.PositionAt(lvl)
				if !ok {
					return value.NewMissingCapability(evalctx.CapabilityPosition)
				}
				return value.NewDVec2(p)
			}}, nil
		}))

	out = append(out, contextEntry("animation_time",
		"Reads the timeline position in seconds.",
		evalctx.CapabilityAnimationTime,
		nil, value.TypeF64,
		func(inst registry.Instantiation) (node.Node, error) {
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				t, ok := ec.AnimationTime()
				if !ok {
					return value.NewMissingCapability(evalctx.CapabilityAnimationTime)
				}
				return value.NewF64(t)
			}}, nil
		}))

	out = append(out, contextEntry("real_time",
		"Reads the wall-clock time in seconds.",
		evalctx.CapabilityRealTime,
		nil, value.TypeF64,
		func(inst registry.Instantiation) (node.Node, error) {
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				t, ok := ec.RealTime()
				if !ok {
					return value.NewMissingCapability(evalctx.CapabilityRealTime)
				}
				return value.NewF64(t)
			}}, nil
		}))

	out = append(out, contextEntry("footprint_resolution",
		"Reads the render target resolution from the footprint.",
		evalctx.CapabilityFootprint,
		nil, value.TypeDVec2,
		func(inst registry.Instantiation) (node.Node, error) {
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				fp, ok := ec.Footprint()
				if !ok {
					return value.NewMissingCapability(evalctx.CapabilityFootprint)
				}
				return value.NewDVec2(fp.Resolution)
			}}, nil
		}))

	// Reads a host-supplied vararg and converts it through the value
	// boundary. Unconvertible payloads poison rather than panic.
	out = append(out, contextEntry("read_vararg",
		"Reads a host-supplied extra by index.",
		evalctx.CapabilityVarArgs,
		[]value.TypeDescriptor{value.TypeF64}, value.Generic("T"),
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("read_vararg: want 1 parameter, got %d", len(inst.Params))
			}
			index := inst.Params[0]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				iv := index.Eval(ctx, ec)
				if iv.IsError() {
					return iv
				}
				i, ok := iv.AsF64()
				if !ok || i < 0 {
					return value.NewError("read_vararg", "expected a non-negative index")
				}
				raw, ok := ec.VarArg(int(i))
				if !ok {
					return value.NewMissingCapability(evalctx.CapabilityVarArgs)
				}
				if tagged, ok := value.TagAny(raw); ok {
					return tagged
				}
				return value.NewError("read_vararg", fmt.Sprintf("unsupported vararg payload %T", raw))
			}}, nil
		}))
	for _, e := range out {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}
