// Package render registers the SVG emission node used by the host
// preview surface: it walks a graphical value bottom to top and writes
// an SVG document sized to the footprint's resolution.
package render

import (
	"bytes"
	"context"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// Identifier is the SVG render node's registry name.
const Identifier = document.ProtoIdentifier("graphene_core::render::svg")

// defaultResolution sizes the canvas when the context has no footprint.
var defaultResolution = value.DVec2{X: 512, Y: 512}

type renderNode struct {
	node.Base
	content node.Node
}

// Eval implements node.Node.
func (r *renderNode) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	content := r.content.Eval(ctx, ec)
	if content.IsError() {
		return content
	}

	res := defaultResolution
	if fp, ok := ec.Footprint(); ok {
		res = fp.Resolution
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(int(res.X), int(res.Y))
	if err := emit(canvas, content, value.IdentityTransform()); err != nil {
		return value.NewError(string(Identifier), err.Error())
	}
	canvas.End()
	return value.NewString(buf.String())
}

// emit renders one graphical value under an accumulated transform.
func emit(canvas *svg.SVG, v value.TaggedValue, parent value.DAffine2) error {
	switch v.Kind() {
	case value.KindVectorTable:
		table, _ := v.VectorTableValue()
		if table == nil {
			return nil
		}
		for _, row := range table.Rows {
			emitRow(canvas, row, parent)
		}
		return nil

	case value.KindGraphicGroup:
		group, _ := v.GraphicGroupValue()
		if group == nil {
			return nil
		}
		transform := parent.Mul(group.Transform)
		for _, el := range group.Elements {
			if err := emit(canvas, el, transform); err != nil {
				return err
			}
		}
		return nil

	case value.KindArtboard:
		artboard, _ := v.ArtboardValue()
		if artboard == nil {
			return nil
		}
		origin := parent.Apply(artboard.Location)
		canvas.Rect(int(origin.X), int(origin.Y),
			int(artboard.Dimensions.X), int(artboard.Dimensions.Y),
			fmt.Sprintf("fill:%s", cssColor(artboard.Background)))
		content := parent.Mul(value.Translation(artboard.Location))
		return emit(canvas, value.NewGraphicGroup(&artboard.Content), content)

	case value.KindNone:
		return nil

	default:
		return fmt.Errorf("unrenderable value of type %s", v.Type())
	}
}

func emitRow(canvas *svg.SVG, row value.VectorRow, parent value.DAffine2) {
	if len(row.Points) == 0 {
		return
	}
	transform := parent.Mul(row.Transform)
	var d bytes.Buffer
	for i, p := range row.Points {
		moved := transform.Apply(p)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&d, "%s%.3f %.3f ", cmd, moved.X, moved.Y)
	}
	if row.Closed {
		d.WriteString("Z")
	}
	style := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.3f",
		cssColor(row.Fill), cssColor(row.Stroke), row.Weight)
	canvas.Path(d.String(), style)
}

func cssColor(c value.Color) string {
	if c.A == 0 {
		return "none"
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)",
		int(c.R*255), int(c.G*255), int(c.B*255), c.A)
}

func renderEntry(contentType value.TypeDescriptor) registry.Entry {
	return registry.Entry{
		Identifier: Identifier,
		Input:      value.TypeContext,
		Params:     []value.TypeDescriptor{contentType},
		Return:     value.TypeString,
		Construct: func(inst registry.Instantiation) (node.Node, error) {
			if len(inst.Params) != 1 {
				return nil, fmt.Errorf("render: want 1 parameter, got %d", len(inst.Params))
			}
			return &renderNode{content: inst.Params[0]}, nil
		},
		Metadata: registry.Metadata{
			Category:     "Render",
			Description:  "Renders graphical content to an SVG document.",
			Capabilities: []string{evalctx.CapabilityFootprint},
			ParamHints:   []registry.ParamHint{{Name: "Content"}},
		},
	}
}

func init() {
	if err := Register(registry.Default()); err != nil {
		panic(err)
	}
}

// Register adds the render node's overloads to a registry.
func Register(r *registry.Registry) error {
	for _, ty := range []value.TypeDescriptor{value.TypeVectorTable, value.TypeGraphicGroup, value.TypeArtboard} {
		if err := r.Register(renderEntry(ty)); err != nil {
			return err
		}
	}
	return nil
}
