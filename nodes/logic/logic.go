// Package logic registers boolean and comparison primitives, including
// the lazy switch node that evaluates only the selected branch.
package logic

import (
	"context"
	"fmt"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

func evalBool(ctx context.Context, ec *evalctx.Context, n node.Node, identifier string) (bool, value.TaggedValue, bool) {
	v := n.Eval(ctx, ec)
	if v.IsError() {
		return false, v, false
	}
	b, ok := v.Bool()
	if !ok {
		return false, value.NewError(identifier, fmt.Sprintf("expected bool, got %s", v.Type())), false
	}
	return b, value.None, true
}

func boolEntry(name, description string, params []value.TypeDescriptor, ret value.TypeDescriptor, construct registry.Constructor) registry.Entry {
	return registry.Entry{
		Identifier:      document.ProtoIdentifier("graphene_core::logic::" + name),
		Input:           value.TypeUnit,
		Params:          params,
		Return:          ret,
		Construct:       construct,
		AllowIntToFloat: true,
		Metadata: registry.Metadata{
			Category:    "Math: Logic",
			Description: description,
		},
	}
}

func init() {
	if err := Register(registry.Default()); err != nil {
		panic(err)
	}
}

// Register adds the logic primitives to a registry.
func Register(r *registry.Registry) error {
	var out []registry.Entry
	out = append(out, boolEntry("equals", "Whether two values are equal.",
		[]value.TypeDescriptor{value.Generic("T"), value.Generic("T")}, value.TypeBool,
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 2 {
				return nil, fmt.Errorf("equals: want 2 parameters, got %d", len(inst.Params))
			}
			a, b := inst.Params[0], inst.Params[1]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				x := a.Eval(ctx, ec)
				y := b.Eval(ctx, ec)
				if poison, bad := node.Forward(x, y); bad {
					return poison
				}
				return value.NewBool(x.Equal(y))
			}}, nil
		}))

	out = append(out, boolEntry("not", "Logical negation.",
		[]value.TypeDescriptor{value.TypeBool}, value.TypeBool,
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("not: want 1 parameter, got %d", len(inst.Params))
			}
			a := inst.Params[0]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				b, poison, ok := evalBool(ctx, ec, a, "not")
				if !ok {
					return poison
				}
				return value.NewBool(!b)
			}}, nil
		}))

	binaryBool := func(name string, f func(a, b bool) bool) registry.Entry {
		return boolEntry(name, "Logical "+name+" of two booleans.",
			[]value.TypeDescriptor{value.TypeBool, value.TypeBool}, value.TypeBool,
			func(inst registry.Instantiation) (node.Node, error) {
				if len(inst.Params) != 2 {
					return nil, fmt.Errorf("%s: want 2 parameters, got %d", name, len(inst.Params))
				}
				a, b := inst.Params[0], inst.Params[1]
				return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
					x, poison, ok := evalBool(ctx, ec, a, name)
					if !ok {
						return poison
					}
					y, poison, ok := evalBool(ctx, ec, b, name)
					if !ok {
						return poison
					}
					return value.NewBool(f(x, y))
				}}, nil
			})
	}
	out = append(out, binaryBool("and", func(a, b bool) bool { return a && b }))
	out = append(out, binaryBool("or", func(a, b bool) bool { return a || b }))

	compare := func(name, description string, f func(a, b float64) bool) registry.Entry {
		return boolEntry(name, description,
			[]value.TypeDescriptor{value.TypeF64, value.TypeF64}, value.TypeBool,
			func(inst registry.Instantiation) (node.Node, error) {
				if len(inst.Params) != 2 {
					return nil, fmt.Errorf("%s: want 2 parameters, got %d", name, len(inst.Params))
				}
				a, b := inst.Params[0], inst.Params[1]
				return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
					x := a.Eval(ctx, ec)
					y := b.Eval(ctx, ec)
					if poison, bad := node.Forward(x, y); bad {
						return poison
					}
					xf, okX := x.AsF64()
					yf, okY := y.AsF64()
					if !okX || !okY {
						return value.NewError(name, "expected numbers")
					}
					return value.NewBool(f(xf, yf))
				}}, nil
			})
	}
	out = append(out, compare("greater_than", "Whether the first number exceeds the second.", func(a, b float64) bool { return a > b }))
	out = append(out, compare("less_than", "Whether the first number is below the second.", func(a, b float64) bool { return a < b }))

	// The switch only demands the branch it selects, so the untaken
	// branch's subgraph never evaluates.
	out = append(out, boolEntry("switch", "Selects between two inputs by condition.",
		[]value.TypeDescriptor{value.TypeBool, value.Generic("T"), value.Generic("T")}, value.Generic("T"),
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 3 {
				return nil, fmt.Errorf("switch: want 3 parameters, got %d", len(inst.Params))
			}
			cond, then, otherwise := inst.Params[0], inst.Params[1], inst.Params[2]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				b, poison, ok := evalBool(ctx, ec, cond, "switch")
				if !ok {
					return poison
				}
				if b {
					return then.Eval(ctx, ec)
				}
				return otherwise.Eval(ctx, ec)
			}}, nil
		}))
	for _, e := range out {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}
