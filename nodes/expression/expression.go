// Package expression registers the math-expression node: a primitive
// whose body is compiled from an inline source fragment at construction
// time and evaluated against graph-supplied variables at runtime.
//
// Programs are CEL expressions. The primary input binds as `a`; the
// timeline position binds as `t`, defaulting to zero when the context
// carries no animation time (the declared default, so no capability
// poison). A program that fails to compile surfaces as a constructor
// error during the executor update; a program that fails to evaluate
// yields the absent value rather than poison, matching the forgiving
// behavior expected of scratch-pad math.
package expression

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// Identifier is the expression node's registry name.
const Identifier = document.ProtoIdentifier("graphene_core::ops::expression")

// exprNode evaluates a compiled CEL program.
type exprNode struct {
	node.Base
	program cel.Program
	primary node.Node
}

// Eval implements node.Node.
func (e *exprNode) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	a := 0.0
	if e.primary != nil {
		v := e.primary.Eval(ctx, ec)
		if v.IsError() {
			return v
		}
		if f, ok := v.AsF64(); ok {
			a = f
		}
	}
	t := 0.0
	if at, ok := ec.AnimationTime(); ok {
		t = at
	}

	out, _, err := e.program.Eval(map[string]any{"a": a, "t": t})
	if err != nil {
		return value.None
	}
	switch v := out.Value().(type) {
	case float64:
		return value.NewF64(v)
	case int64:
		return value.NewF64(float64(v))
	case uint64:
		return value.NewF64(float64(v))
	case bool:
		return value.NewBool(v)
	default:
		return value.None
	}
}

// Compile builds a CEL program with the node's variable bindings.
func Compile(source string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("a", cel.DoubleType),
		cel.Variable("t", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("expression: environment: %w", err)
	}
	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expression: compile %q: %w", source, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("expression: program %q: %w", source, err)
	}
	return prg, nil
}

func init() {
	if err := Register(registry.Default()); err != nil {
		panic(err)
	}
}

// Register adds the expression node to a registry.
func Register(r *registry.Registry) error {
	return r.Register(registry.Entry{
		Identifier:      Identifier,
		Input:           value.TypeUnit,
		Params:          []value.TypeDescriptor{value.TypeF64},
		Return:          value.TypeF64,
		AllowIntToFloat: true,
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if inst.Inline == "" {
				return nil, fmt.Errorf("expression: empty program")
			}
			prg, err := Compile(inst.Inline)
			if err != nil {
				return nil, err
			}
			var primary node.Node
			if len(inst.Params) > 0 {
				primary = inst.Params[0]
			}
			return &exprNode{program: prg, primary: primary}, nil
		},
		Metadata: registry.Metadata{
			Category:     "Math",
			Description:  "Evaluates a math expression; the primary input is `a`, the timeline is `t`.",
			Capabilities: []string{evalctx.CapabilityAnimationTime},
			ParamHints:   []registry.ParamHint{{Name: "A", Widget: "number"}},
		},
	})
}
