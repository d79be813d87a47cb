package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v TaggedValue) TaggedValue {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out TaggedValue
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestJSONEnvelope(t *testing.T) {
	data, err := json.Marshal(NewF64(2.5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"f64","value":2.5}`, string(data))
}

func TestJSONRoundTrip(t *testing.T) {
	vals := []TaggedValue{
		None,
		NewBool(true),
		NewU32(7),
		NewI64(-12),
		NewF64(3.25),
		NewString("text"),
		NewDVec2(DVec2{X: 1, Y: -2}),
		NewTransform(Translation(DVec2{X: 5, Y: 5})),
		NewColor(Color{R: 0.5, G: 0.25, B: 1, A: 1}),
		NewVectorTable(&VectorTable{Rows: []VectorRow{{Points: []DVec2{{0, 0}, {1, 1}}, Closed: true, Transform: IdentityTransform(), Weight: 2}}}),
		NewGradientStops([]GradientStop{{Position: 0.5, Color: Color{A: 1}}}),
		NewBlendMode(BlendScreen),
		NewError("some::node", "failed"),
	}
	for _, v := range vals {
		t.Run(v.Type().Name(), func(t *testing.T) {
			out := roundTrip(t, v)
			assert.True(t, out.Equal(v), "got %s want %s", out, v)
		})
	}
}

func TestJSONNonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		out := roundTrip(t, NewF64(f))
		got, ok := out.F64()
		require.True(t, ok)
		assert.Equal(t, math.Float64bits(f), math.Float64bits(got))
	}
}

func TestJSONUnknownType(t *testing.T) {
	var v TaggedValue
	err := json.Unmarshal([]byte(`{"type":"quaternion","value":1}`), &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quaternion")
}
