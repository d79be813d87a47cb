package ops

import (
	"context"
	"fmt"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// transformNode applies an affine transform to its content. It consumes
// the evaluation context to derive the child footprint: the content is
// evaluated as if the viewport had been pre-transformed, which is how
// level-of-detail decisions compose down a transform chain.
type transformNode struct {
	node.Base
	content   node.Node
	transform node.Node
	apply     func(value.TaggedValue, value.DAffine2) value.TaggedValue
}

// Eval implements node.Node.
func (t *transformNode) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	tv := t.transform.Eval(ctx, ec)
	if tv.IsError() {
		return tv
	}
	m, ok := tv.Transform()
	if !ok {
		return value.NewError("transform", fmt.Sprintf("expected daffine2, got %s", tv.Type()))
	}

	child := ec
	if fp, ok := ec.Footprint(); ok {
		child = ec.WithFootprint(evalctx.Footprint{
			Transform:  fp.Transform.Mul(m),
			Resolution: fp.Resolution,
		})
	}

	content := t.content.Eval(ctx, child)
	if content.IsError() {
		return content
	}
	return t.apply(content, m)
}

func transformVectorTable(v value.TaggedValue, m value.DAffine2) value.TaggedValue {
	table, ok := v.VectorTableValue()
	if !ok || table == nil {
		return value.NewError("transform", fmt.Sprintf("expected table<vector>, got %s", v.Type()))
	}
	out := &value.VectorTable{Rows: make([]value.VectorRow, len(table.Rows))}
	for i, row := range table.Rows {
		moved := row
		moved.Transform = m.Mul(row.Transform)
		out.Rows[i] = moved
	}
	return value.NewVectorTable(out)
}

func transformGraphicGroup(v value.TaggedValue, m value.DAffine2) value.TaggedValue {
	group, ok := v.GraphicGroupValue()
	if !ok || group == nil {
		return value.NewError("transform", fmt.Sprintf("expected graphic-group, got %s", v.Type()))
	}
	out := *group
	out.Transform = m.Mul(group.Transform)
	return value.NewGraphicGroup(&out)
}

func transformEntry(contentType value.TypeDescriptor, apply func(value.TaggedValue, value.DAffine2) value.TaggedValue) registry.Entry {
	return registry.Entry{
		Identifier: document.ProtoIdentifier("graphene_core::transform::transform"),
		Input:      value.TypeContext,
		Params:     []value.TypeDescriptor{contentType, value.TypeDAffine2},
		Return:     contentType,
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 2 {
				return nil, fmt.Errorf("transform: want 2 parameters, got %d", len(inst.Params))
			}
			return &transformNode{content: inst.Params[0], transform: inst.Params[1], apply: apply}, nil
		},
		Metadata: registry.Metadata{
			Category:     "Transform",
			Description:  "Applies an affine transform to its content.",
			Capabilities: []string{evalctx.CapabilityFootprint},
			ParamHints:   []registry.ParamHint{{Name: "Content"}, {Name: "Transform", Widget: "transform"}},
		},
	}
}

func transformEntries() []registry.Entry {
	return []registry.Entry{
		transformEntry(value.TypeVectorTable, transformVectorTable),
		transformEntry(value.TypeGraphicGroup, transformGraphicGroup),
	}
}
