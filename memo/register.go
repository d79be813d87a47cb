package memo

import (
	"fmt"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

func init() {
	if err := Register(registry.Default()); err != nil {
		panic(err)
	}
}

// Register adds the memoization wrappers under the identifiers the
// compiler inserts. All are type-transparent: the wrapped generic
// parameter's type comes out unchanged. The two-parameter monitor's
// second parameter is only recorded.
func Register(r *registry.Registry) error {
	wrapperEntry := func(identifier string, description string, construct func(inst registry.Instantiation) (node.Node, error)) registry.Entry {
		return registry.Entry{
			Identifier: document.ProtoIdentifier(identifier),
			Input:      value.TypeContext,
			Params:     []value.TypeDescriptor{value.Generic("T")},
			Return:     value.Generic("T"),
			Construct:  construct,
			Metadata: registry.Metadata{
				Category:    "Internal",
				Description: description,
			},
		}
	}

	if err := r.Register(wrapperEntry(
		"graphene_core::memo::memo",
		"Caches the last output of its upstream.",
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("memo: want 1 parameter, got %d", len(inst.Params))
			}
			return NewNode(inst.Params[0]), nil
		},
	)); err != nil {
		return err
	}

	if err := r.Register(wrapperEntry(
		"graphene_core::memo::impure_memo",
		"Caches upstream outputs keyed by the evaluation context.",
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("impure_memo: want 1 parameter, got %d", len(inst.Params))
			}
			return NewImpureNode(inst.Params[0], 0), nil
		},
	)); err != nil {
		return err
	}

	if err := r.Register(wrapperEntry(
		"graphene_core::memo::monitor",
		"Records the wrapped node's output for introspection.",
		func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("monitor: want 1 parameter, got %d", len(inst.Params))
			}
			return NewRecordNode(inst.Params[0], nil), nil
		},
	)); err != nil {
		return err
	}

	// The two-parameter monitor also records the wrapped node's primary
	// input.
	return r.Register(registry.Entry{
		Identifier: document.ProtoIdentifier("graphene_core::memo::monitor"),
		Input:      value.TypeContext,
		Params:     []value.TypeDescriptor{value.Generic("T"), value.Generic("U")},
		Return:     value.Generic("T"),
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 2 {
				return nil, fmt.Errorf("monitor: want 2 parameters, got %d", len(inst.Params))
			}
			return NewRecordNode(inst.Params[0], inst.Params[1]), nil
		},
		Metadata: registry.Metadata{
			Category:    "Internal",
			Description: "Records the wrapped node's input and output for introspection.",
		},
	})
}
