package evalctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/value"
)

func TestEmptyContext(t *testing.T) {
	ec := Empty()

	_, ok := ec.Footprint()
	assert.False(t, ok)
	_, ok = ec.RealTime()
	assert.False(t, ok)
	_, ok = ec.AnimationTime()
	assert.False(t, ok)
	_, ok = ec.Index()
	assert.False(t, ok)
	_, ok = ec.Position()
	assert.False(t, ok)
	_, ok = ec.VarArg(0)
	assert.False(t, ok)
}

func TestCopyOnWriteDerivation(t *testing.T) {
	base := Empty().WithAnimationTime(1.5)

	child := base.WithFootprint(Footprint{
		Transform:  value.IdentityTransform(),
		Resolution: value.DVec2{X: 1920, Y: 1080},
	})

	// The child sees both fields; the parent is untouched.
	fp, ok := child.Footprint()
	require.True(t, ok)
	assert.Equal(t, 1920.0, fp.Resolution.X)
	at, ok := child.AnimationTime()
	require.True(t, ok)
	assert.Equal(t, 1.5, at)

	_, ok = base.Footprint()
	assert.False(t, ok, "derivation must not mutate the parent")
}

func TestWithoutFootprint(t *testing.T) {
	ec := Empty().WithFootprint(Footprint{Resolution: value.DVec2{X: 10, Y: 10}})
	stripped := ec.WithoutFootprint()

	_, ok := stripped.Footprint()
	assert.False(t, ok)
	_, ok = ec.Footprint()
	assert.True(t, ok)
}

func TestIndexStack(t *testing.T) {
	ec := Empty().PushIndex(3).PushIndex(7) // 7 is innermost

	idx, ok := ec.Index()
	require.True(t, ok)
	assert.Equal(t, []uint32{7, 3}, idx)

	inner, ok := ec.IndexAt(0)
	require.True(t, ok)
	assert.Equal(t, uint32(7), inner)

	outer, ok := ec.IndexAt(1)
	require.True(t, ok)
	assert.Equal(t, uint32(3), outer)

	// Beyond the depth clamps to the outermost, matching loop-level
	// reads from under-nested graphs.
	clamped, ok := ec.IndexAt(9)
	require.True(t, ok)
	assert.Equal(t, uint32(3), clamped)
}

func TestPositionStack(t *testing.T) {
	ec := Empty().PushPosition(value.DVec2{X: 1}).PushPosition(value.DVec2{X: 2})

	p, ok := ec.PositionAt(0)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.X)

	p, ok = ec.PositionAt(1)
	require.True(t, ok)
	assert.Equal(t, 1.0, p.X)
}

func TestVarArgs(t *testing.T) {
	ec := Empty().WithVarArgs([]any{"a", 42})

	v, ok := ec.VarArg(1)
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = ec.VarArg(5)
	assert.False(t, ok)
	_, ok = ec.VarArg(-1)
	assert.False(t, ok)
}

func TestHash(t *testing.T) {
	t.Run("stable for equal contexts", func(t *testing.T) {
		a := Empty().WithAnimationTime(2).PushIndex(1)
		b := Empty().WithAnimationTime(2).PushIndex(1)
		assert.Equal(t, a.Hash(), b.Hash())
	})

	t.Run("present fields separate", func(t *testing.T) {
		base := Empty().WithAnimationTime(2)
		assert.NotEqual(t, base.Hash(), base.WithAnimationTime(3).Hash())
		assert.NotEqual(t, base.Hash(), base.PushIndex(0).Hash())
		assert.NotEqual(t, Empty().Hash(), Empty().WithRealTime(0).Hash(),
			"a present zero differs from absent")
	})

	t.Run("footprint contributes", func(t *testing.T) {
		a := Empty().WithFootprint(Footprint{Resolution: value.DVec2{X: 100, Y: 100}})
		b := Empty().WithFootprint(Footprint{Resolution: value.DVec2{X: 200, Y: 100}})
		assert.NotEqual(t, a.Hash(), b.Hash())
	})

	t.Run("nil context hashes like empty", func(t *testing.T) {
		var nilCtx *Context
		assert.Equal(t, Empty().Hash(), nilCtx.Hash())
	})
}
