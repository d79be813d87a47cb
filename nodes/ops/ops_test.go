package ops

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// construct builds a node from the package registry by identifier and
// signature.
func construct(t *testing.T, ident string, paramTys []value.TypeDescriptor, input value.TypeDescriptor, params ...node.Node) node.Node {
	t.Helper()
	r := registry.New()
	require.NoError(t, Register(r))

	sel, err := r.Choose(document.ProtoIdentifier(ident), input, paramTys)
	require.NoError(t, err)
	n, err := sel.Entry.Construct(registry.Instantiation{Params: params})
	require.NoError(t, err)
	return n
}

func constF64(v float64) node.Node { return &node.Constant{Value: value.NewF64(v)} }

func evalToF64(t *testing.T, n node.Node, ec *evalctx.Context) float64 {
	t.Helper()
	out := n.Eval(context.Background(), ec)
	f, ok := out.F64()
	require.True(t, ok, "got %s", out)
	return f
}

func TestArithmetic(t *testing.T) {
	two := []value.TypeDescriptor{value.TypeF64, value.TypeF64}
	one := []value.TypeDescriptor{value.TypeF64}

	tests := []struct {
		ident  string
		params []node.Node
		tys    []value.TypeDescriptor
		want   float64
	}{
		{"graphene_core::ops::add", []node.Node{constF64(2), constF64(3)}, two, 5},
		{"graphene_core::ops::subtract", []node.Node{constF64(2), constF64(3)}, two, -1},
		{"graphene_core::ops::multiply", []node.Node{constF64(4), constF64(3)}, two, 12},
		{"graphene_core::ops::divide", []node.Node{constF64(9), constF64(3)}, two, 3},
		{"graphene_core::ops::modulo", []node.Node{constF64(9), constF64(4)}, two, 1},
		{"graphene_core::ops::power", []node.Node{constF64(2), constF64(10)}, two, 1024},
		{"graphene_core::ops::min", []node.Node{constF64(2), constF64(3)}, two, 2},
		{"graphene_core::ops::max", []node.Node{constF64(2), constF64(3)}, two, 3},
		{"graphene_core::ops::negate", []node.Node{constF64(2)}, one, -2},
		{"graphene_core::ops::floor", []node.Node{constF64(2.7)}, one, 2},
		{"graphene_core::ops::ceil", []node.Node{constF64(2.2)}, one, 3},
		{"graphene_core::ops::round", []node.Node{constF64(2.5)}, one, 3},
		{"graphene_core::ops::sqrt", []node.Node{constF64(16)}, one, 4},
		{"graphene_core::ops::absolute", []node.Node{constF64(-5)}, one, 5},
	}
	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			n := construct(t, tt.ident, tt.tys, value.TypeUnit, tt.params...)
			assert.Equal(t, tt.want, evalToF64(t, n, evalctx.Empty()))
		})
	}
}

func TestDivideByZero(t *testing.T) {
	n := construct(t, "graphene_core::ops::divide",
		[]value.TypeDescriptor{value.TypeF64, value.TypeF64}, value.TypeUnit,
		constF64(1), constF64(0))
	out := n.Eval(context.Background(), evalctx.Empty())
	f, ok := out.F64()
	require.True(t, ok)
	assert.True(t, math.IsInf(f, 1), "IEEE semantics, not a poison value")
}

func TestPoisonForwarding(t *testing.T) {
	poison := &node.Constant{Value: value.NewError("upstream", "bad")}
	n := construct(t, "graphene_core::ops::add",
		[]value.TypeDescriptor{value.TypeF64, value.TypeF64}, value.TypeUnit,
		poison, constF64(3))
	out := n.Eval(context.Background(), evalctx.Empty())
	require.True(t, out.IsError())
	assert.Equal(t, "upstream", out.ErrValue().Identifier)
}

func TestVectorOps(t *testing.T) {
	vec := construct(t, "graphene_core::vector::construct_vec2",
		[]value.TypeDescriptor{value.TypeF64, value.TypeF64}, value.TypeUnit,
		constF64(3), constF64(4))
	out := vec.Eval(context.Background(), evalctx.Empty())
	p, ok := out.DVec2Value()
	require.True(t, ok)
	assert.Equal(t, value.DVec2{X: 3, Y: 4}, p)

	x := construct(t, "graphene_core::vector::extract_x",
		[]value.TypeDescriptor{value.TypeDVec2}, value.TypeUnit,
		&node.Constant{Value: out})
	assert.Equal(t, 3.0, evalToF64(t, x, evalctx.Empty()))
}

func TestIdentity(t *testing.T) {
	n := construct(t, "graphene_core::ops::identity",
		[]value.TypeDescriptor{value.TypeString}, value.TypeUnit,
		&node.Constant{Value: value.NewString("pass")})
	out := n.Eval(context.Background(), evalctx.Empty())
	s, _ := out.Str()
	assert.Equal(t, "pass", s)
}

func TestTransformNode(t *testing.T) {
	table := &value.VectorTable{Rows: []value.VectorRow{{
		Points:    []value.DVec2{{X: 1, Y: 1}},
		Transform: value.IdentityTransform(),
	}}}

	move := value.Translation(value.DVec2{X: 10, Y: 0})

	t.Run("applies the transform to rows", func(t *testing.T) {
		n := construct(t, "graphene_core::transform::transform",
			[]value.TypeDescriptor{value.TypeVectorTable, value.TypeDAffine2}, value.TypeContext,
			&node.Constant{Value: value.NewVectorTable(table)},
			&node.Constant{Value: value.NewTransform(move)})

		out := n.Eval(context.Background(), evalctx.Empty())
		moved, ok := out.VectorTableValue()
		require.True(t, ok)
		p := moved.Rows[0].Transform.Apply(moved.Rows[0].Points[0])
		assert.Equal(t, value.DVec2{X: 11, Y: 1}, p)
		assert.Equal(t, value.DVec2{X: 1, Y: 1}, table.Rows[0].Points[0], "input table untouched")
	})

	t.Run("derives the child footprint", func(t *testing.T) {
		var seen evalctx.Footprint
		spy := &node.Func{F: func(_ context.Context, ec *evalctx.Context) value.TaggedValue {
			seen, _ = ec.Footprint()
			return value.NewVectorTable(table)
		}}

		n := construct(t, "graphene_core::transform::transform",
			[]value.TypeDescriptor{value.TypeVectorTable, value.TypeDAffine2}, value.TypeContext,
			spy, &node.Constant{Value: value.NewTransform(move)})

		ec := evalctx.Empty().WithFootprint(evalctx.Footprint{
			Transform:  value.IdentityTransform(),
			Resolution: value.DVec2{X: 100, Y: 100},
		})
		n.Eval(context.Background(), ec)

		origin := seen.Transform.Apply(value.DVec2{})
		assert.Equal(t, value.DVec2{X: 10, Y: 0}, origin, "content sees the pre-composed viewport")
	})
}
