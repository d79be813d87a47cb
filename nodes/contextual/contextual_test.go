package contextual

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

func construct(t *testing.T, ident string, paramTys []value.TypeDescriptor, params ...node.Node) node.Node {
	t.Helper()
	r := registry.New()
	require.NoError(t, Register(r))

	sel, err := r.Choose(document.ProtoIdentifier(ident), value.TypeContext, paramTys)
	require.NoError(t, err)
	n, err := sel.Entry.Construct(registry.Instantiation{Params: params})
	require.NoError(t, err)
	return n
}

func level(l float64) node.Node { return &node.Constant{Value: value.NewF64(l)} }

func TestReadIndex(t *testing.T) {
	n := construct(t, "graphene_core::context::read_index",
		[]value.TypeDescriptor{value.TypeF64}, level(0))

	t.Run("reads the innermost loop", func(t *testing.T) {
		ec := evalctx.Empty().PushIndex(2).PushIndex(5)
		out := n.Eval(context.Background(), ec)
		f, ok := out.F64()
		require.True(t, ok, "got %s", out)
		assert.Equal(t, 5.0, f)
	})

	t.Run("loop level walks outward", func(t *testing.T) {
		outer := construct(t, "graphene_core::context::read_index",
			[]value.TypeDescriptor{value.TypeF64}, level(1))
		ec := evalctx.Empty().PushIndex(2).PushIndex(5)
		out := outer.Eval(context.Background(), ec)
		f, _ := out.F64()
		assert.Equal(t, 2.0, f)
	})

	t.Run("absent stack poisons", func(t *testing.T) {
		out := n.Eval(context.Background(), evalctx.Empty())
		require.True(t, out.IsError())
		assert.Equal(t, value.ErrorCodeMissingCapability, out.ErrValue().Code)
	})
}

func TestReadPosition(t *testing.T) {
	n := construct(t, "graphene_core::context::read_position",
		[]value.TypeDescriptor{value.TypeF64}, level(0))

	ec := evalctx.Empty().PushPosition(value.DVec2{X: 3, Y: 4})
	out := n.Eval(context.Background(), ec)
	p, ok := out.DVec2Value()
	require.True(t, ok, "got %s", out)
	assert.Equal(t, value.DVec2{X: 3, Y: 4}, p)
}

func TestTimeReaders(t *testing.T) {
	anim := construct(t, "graphene_core::context::animation_time", nil)
	wall := construct(t, "graphene_core::context::real_time", nil)

	ec := evalctx.Empty().WithAnimationTime(2.5).WithRealTime(60)
	a := anim.Eval(context.Background(), ec)
	f, _ := a.F64()
	assert.Equal(t, 2.5, f)
	r := wall.Eval(context.Background(), ec)
	f, _ = r.F64()
	assert.Equal(t, 60.0, f)

	missing := anim.Eval(context.Background(), evalctx.Empty())
	assert.True(t, missing.IsError())
}

func TestFootprintResolution(t *testing.T) {
	n := construct(t, "graphene_core::context::footprint_resolution", nil)

	ec := evalctx.Empty().WithFootprint(evalctx.Footprint{
		Resolution: value.DVec2{X: 800, Y: 600},
	})
	out := n.Eval(context.Background(), ec)
	p, ok := out.DVec2Value()
	require.True(t, ok)
	assert.Equal(t, 800.0, p.X)

	missing := n.Eval(context.Background(), evalctx.Empty())
	assert.Equal(t, evalctx.CapabilityFootprint, missing.ErrValue().Identifier)
}

func TestReadVarArg(t *testing.T) {
	n := construct(t, "graphene_core::context::read_vararg",
		[]value.TypeDescriptor{value.TypeF64}, level(0))

	t.Run("tagged payloads pass through", func(t *testing.T) {
		ec := evalctx.Empty().WithVarArgs([]any{value.NewString("host data")})
		out := n.Eval(context.Background(), ec)
		s, ok := out.Str()
		require.True(t, ok, "got %s", out)
		assert.Equal(t, "host data", s)
	})

	t.Run("plain Go payloads convert", func(t *testing.T) {
		ec := evalctx.Empty().WithVarArgs([]any{2.5})
		out := n.Eval(context.Background(), ec)
		f, ok := out.F64()
		require.True(t, ok)
		assert.Equal(t, 2.5, f)
	})

	t.Run("missing slot poisons", func(t *testing.T) {
		out := n.Eval(context.Background(), evalctx.Empty())
		require.True(t, out.IsError())
		assert.Equal(t, value.ErrorCodeMissingCapability, out.ErrValue().Code)
	})
}
