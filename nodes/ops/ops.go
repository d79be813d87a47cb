// Package ops registers the arithmetic, vector, and transform primitives
// of the standard node library.
//
// Arithmetic entries are declared over f64 and opt into implicit
// integer-to-float conversion, so integer literals flow into them
// through the registry's widening lattice without explicit casts.
package ops

import (
	"context"
	"fmt"
	"math"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// evalF64 demands a parameter and reads it as f64. The poison result is
// forwarded; a non-numeric value becomes a fresh poison.
func evalF64(ctx context.Context, ec *evalctx.Context, n node.Node, identifier string) (float64, value.TaggedValue, bool) {
	v := n.Eval(ctx, ec)
	if v.IsError() {
		return 0, v, false
	}
	f, ok := v.AsF64()
	if !ok {
		return 0, value.NewError(identifier, fmt.Sprintf("expected a number, got %s", v.Type())), false
	}
	return f, value.None, true
}

// binaryF64 builds a two-parameter float node.
func binaryF64(identifier string, f func(a, b float64) float64) registry.Constructor {
	return func(inst registry.Instantiation) (node.Node, error) {
		if len(inst.Params) != 2 {
			return nil, fmt.Errorf("%s: want 2 parameters, got %d", identifier, len(inst.Params))
		}
		a, b := inst.Params[0], inst.Params[1]
		return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
			x, poison, ok := evalF64(ctx, ec, a, identifier)
			if !ok {
				return poison
			}
			y, poison, ok := evalF64(ctx, ec, b, identifier)
			if !ok {
				return poison
			}
			return value.NewF64(f(x, y))
		}}, nil
	}
}

// unaryF64 builds a one-parameter float node.
func unaryF64(identifier string, f func(a float64) float64) registry.Constructor {
	return func(inst registry.Instantiation) (node.Node, error) {
		if len(inst.Params) != 1 {
			return nil, fmt.Errorf("%s: want 1 parameter, got %d", identifier, len(inst.Params))
		}
		a := inst.Params[0]
		return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
			x, poison, ok := evalF64(ctx, ec, a, identifier)
			if !ok {
				return poison
			}
			return value.NewF64(f(x))
		}}, nil
	}
}

func arithmeticEntry(name, description string, params int, construct registry.Constructor, hints ...registry.ParamHint) registry.Entry {
	tys := make([]value.TypeDescriptor, params)
	for i := range tys {
		tys[i] = value.TypeF64
	}
	return registry.Entry{
		Identifier:      document.ProtoIdentifier("graphene_core::ops::" + name),
		Input:           value.TypeUnit,
		Params:          tys,
		Return:          value.TypeF64,
		Construct:       construct,
		AllowIntToFloat: true,
		Metadata: registry.Metadata{
			Category:    "Math: Arithmetic",
			Description: description,
			ParamHints:  hints,
		},
	}
}

func baseEntries() []registry.Entry {
	var out []registry.Entry
	out = append(out, registry.Entry{
		Identifier: document.ProtoIdentifier("graphene_core::ops::identity"),
		Input:      value.TypeUnit,
		Params:     []value.TypeDescriptor{value.Generic("T")},
		Return:     value.Generic("T"),
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("identity: want 1 parameter, got %d", len(inst.Params))
			}
			upstream := inst.Params[0]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				return upstream.Eval(ctx, ec)
			}}, nil
		},
		Metadata: registry.Metadata{
			Category:    "General",
			Description: "Passes its input through unchanged.",
		},
	})

	num := registry.ParamHint{Name: "Value", Widget: "number"}
	out = append(out, arithmeticEntry("add", "Adds two numbers.", 2, binaryF64("add", func(a, b float64) float64 { return a + b }), num, num))
	out = append(out, arithmeticEntry("subtract", "Subtracts the second number from the first.", 2, binaryF64("subtract", func(a, b float64) float64 { return a - b }), num, num))
	out = append(out, arithmeticEntry("multiply", "Multiplies two numbers.", 2, binaryF64("multiply", func(a, b float64) float64 { return a * b }), num, num))
	out = append(out, arithmeticEntry("divide", "Divides the first number by the second.", 2, binaryF64("divide", func(a, b float64) float64 { return a / b }), num, num))
	out = append(out, arithmeticEntry("modulo", "Remainder of dividing the first number by the second.", 2, binaryF64("modulo", math.Mod), num, num))
	out = append(out, arithmeticEntry("power", "Raises the first number to the second.", 2, binaryF64("power", math.Pow), num, num))
	out = append(out, arithmeticEntry("min", "The smaller of two numbers.", 2, binaryF64("min", math.Min), num, num))
	out = append(out, arithmeticEntry("max", "The larger of two numbers.", 2, binaryF64("max", math.Max), num, num))
	out = append(out, arithmeticEntry("negate", "Negates a number.", 1, unaryF64("negate", func(a float64) float64 { return -a }), num))
	out = append(out, arithmeticEntry("floor", "Rounds down to the nearest integer.", 1, unaryF64("floor", math.Floor), num))
	out = append(out, arithmeticEntry("ceil", "Rounds up to the nearest integer.", 1, unaryF64("ceil", math.Ceil), num))
	out = append(out, arithmeticEntry("round", "Rounds to the nearest integer.", 1, unaryF64("round", math.Round), num))
	out = append(out, arithmeticEntry("sqrt", "Square root of a number.", 1, unaryF64("sqrt", math.Sqrt), num))
	out = append(out, arithmeticEntry("absolute", "Absolute value of a number.", 1, unaryF64("absolute", math.Abs), num))

	out = append(out, registry.Entry{
		Identifier:      document.ProtoIdentifier("graphene_core::vector::construct_vec2"),
		Input:           value.TypeUnit,
		Params:          []value.TypeDescriptor{value.TypeF64, value.TypeF64},
		Return:          value.TypeDVec2,
		AllowIntToFloat: true,
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 2 {
				return nil, fmt.Errorf("construct_vec2: want 2 parameters, got %d", len(inst.Params))
			}
			xs, ys := inst.Params[0], inst.Params[1]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				x, poison, ok := evalF64(ctx, ec, xs, "construct_vec2")
				if !ok {
					return poison
				}
				y, poison, ok := evalF64(ctx, ec, ys, "construct_vec2")
				if !ok {
					return poison
				}
				return value.NewDVec2(value.DVec2{X: x, Y: y})
			}}, nil
		},
		Metadata: registry.Metadata{
			Category:    "Math: Vector",
			Description: "Builds a 2D vector from X and Y.",
			ParamHints:  []registry.ParamHint{{Name: "X", Widget: "number"}, {Name: "Y", Widget: "number"}},
		},
	})

	extractComponent := func(name string, pick func(value.DVec2) float64) registry.Entry {
		return registry.Entry{
			Identifier: document.ProtoIdentifier("graphene_core::vector::" + name),
			Input:      value.TypeUnit,
			Params:     []value.TypeDescriptor{value.TypeDVec2},
			Return:     value.TypeF64,
			Construct: func(inst registry.Instantiation) (node.Node, error) {
				if len(inst.Params) != 1 {
					return nil, fmt.Errorf("%s: want 1 parameter, got %d", name, len(inst.Params))
				}
				upstream := inst.Params[0]
				return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
					v := upstream.Eval(ctx, ec)
					if v.IsError() {
						return v
					}
					p, ok := v.DVec2Value()
					if !ok {
						return value.NewError(name, fmt.Sprintf("expected dvec2, got %s", v.Type()))
					}
					return value.NewF64(pick(p))
				}}, nil
			},
			Metadata: registry.Metadata{
				Category:    "Math: Vector",
				Description: "Extracts one component of a 2D vector.",
			},
		}
	}
	out = append(out, extractComponent("extract_x", func(p value.DVec2) float64 { return p.X }))
	out = append(out, extractComponent("extract_y", func(p value.DVec2) float64 { return p.Y }))

	out = append(out, registry.Entry{
		Identifier: document.ProtoIdentifier("graphene_core::ops::to_string"),
		Input:      value.TypeUnit,
		Params:     []value.TypeDescriptor{value.Generic("T")},
		Return:     value.TypeString,
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("to_string: want 1 parameter, got %d", len(inst.Params))
			}
			upstream := inst.Params[0]
			return &node.Func{F: func(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
				v := upstream.Eval(ctx, ec)
				if v.IsError() {
					return v
				}
				return value.NewString(v.String())
			}}, nil
		},
		Metadata: registry.Metadata{
			Category:    "Text",
			Description: "Renders any value as text.",
		},
	})
	return out
}
