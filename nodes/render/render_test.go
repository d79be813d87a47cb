package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

func constructRender(t *testing.T, contentType value.TypeDescriptor, content node.Node) node.Node {
	t.Helper()
	r := registry.New()
	require.NoError(t, Register(r))

	sel, err := r.Choose(Identifier, value.TypeContext, []value.TypeDescriptor{contentType})
	require.NoError(t, err)
	n, err := sel.Entry.Construct(registry.Instantiation{Params: []node.Node{content}})
	require.NoError(t, err)
	return n
}

func triangle() *value.VectorTable {
	return &value.VectorTable{Rows: []value.VectorRow{{
		Points:    []value.DVec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}},
		Closed:    true,
		Transform: value.IdentityTransform(),
		Fill:      value.Color{R: 1, A: 1},
		Weight:    1,
	}}}
}

func renderToString(t *testing.T, n node.Node, ec *evalctx.Context) string {
	t.Helper()
	out := n.Eval(context.Background(), ec)
	s, ok := out.Str()
	require.True(t, ok, "got %s", out)
	return s
}

func TestRenderVectorTable(t *testing.T) {
	n := constructRender(t, value.TypeVectorTable,
		&node.Constant{Value: value.NewVectorTable(triangle())})

	svg := renderToString(t, n, evalctx.Empty())
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "<path")
	assert.Contains(t, svg, "Z")
	assert.Contains(t, svg, "</svg>")
}

func TestRenderUsesFootprintResolution(t *testing.T) {
	n := constructRender(t, value.TypeVectorTable,
		&node.Constant{Value: value.NewVectorTable(triangle())})

	ec := evalctx.Empty().WithFootprint(evalctx.Footprint{
		Transform:  value.IdentityTransform(),
		Resolution: value.DVec2{X: 320, Y: 240},
	})
	svg := renderToString(t, n, ec)
	assert.Contains(t, svg, `width="320"`)
	assert.Contains(t, svg, `height="240"`)

	// Without a footprint the default canvas applies.
	svg = renderToString(t, n, evalctx.Empty())
	assert.Contains(t, svg, `width="512"`)
}

func TestRenderGraphicGroup(t *testing.T) {
	group := &value.GraphicGroup{
		Elements:  []value.TaggedValue{value.NewVectorTable(triangle())},
		Transform: value.Translation(value.DVec2{X: 100, Y: 0}),
		Opacity:   1,
	}
	n := constructRender(t, value.TypeGraphicGroup,
		&node.Constant{Value: value.NewGraphicGroup(group)})

	svg := renderToString(t, n, evalctx.Empty())
	assert.Contains(t, svg, "M100.000", "group transform moves the path")
}

func TestRenderArtboard(t *testing.T) {
	artboard := &value.Artboard{
		Label:      "Board 1",
		Location:   value.DVec2{X: 10, Y: 10},
		Dimensions: value.DVec2{X: 200, Y: 100},
		Background: value.Color{R: 1, G: 1, B: 1, A: 1},
		Content: value.GraphicGroup{
			Elements: []value.TaggedValue{value.NewVectorTable(triangle())},
			Opacity:  1,
		},
	}
	n := constructRender(t, value.TypeArtboard,
		&node.Constant{Value: value.NewArtboard(artboard)})

	svg := renderToString(t, n, evalctx.Empty())
	assert.Contains(t, svg, "<rect")
	assert.Contains(t, svg, "<path")
}

func TestRenderPoisonForwarding(t *testing.T) {
	n := constructRender(t, value.TypeVectorTable,
		&node.Constant{Value: value.NewError("up", "no geometry")})
	out := n.Eval(context.Background(), evalctx.Empty())
	assert.True(t, out.IsError())
}

func TestRenderEmptyTable(t *testing.T) {
	n := constructRender(t, value.TypeVectorTable,
		&node.Constant{Value: value.NewVectorTable(&value.VectorTable{})})
	svg := renderToString(t, n, evalctx.Empty())
	assert.False(t, strings.Contains(svg, "<path"))
}
