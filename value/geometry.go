package value

import "math"

// DVec2 is a double-precision 2D vector.
type DVec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the component-wise sum of two vectors.
func (v DVec2) Add(o DVec2) DVec2 { return DVec2{v.X + o.X, v.Y + o.Y} }

// Sub returns the component-wise difference of two vectors.
func (v DVec2) Sub(o DVec2) DVec2 { return DVec2{v.X - o.X, v.Y - o.Y} }

// Scale returns the vector scaled by s.
func (v DVec2) Scale(s float64) DVec2 { return DVec2{v.X * s, v.Y * s} }

// Length returns the Euclidean norm.
func (v DVec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// DAffine2 is a 2D affine transform stored column-major as
// [a b c d e f] representing the matrix
//
//	| a c e |
//	| b d f |
type DAffine2 struct {
	Matrix [6]float64 `json:"matrix"`
}

// IdentityTransform returns the identity affine transform.
func IdentityTransform() DAffine2 {
	return DAffine2{Matrix: [6]float64{1, 0, 0, 1, 0, 0}}
}

// Translation returns a pure translation transform.
func Translation(t DVec2) DAffine2 {
	return DAffine2{Matrix: [6]float64{1, 0, 0, 1, t.X, t.Y}}
}

// Scaling returns a pure scaling transform.
func Scaling(s DVec2) DAffine2 {
	return DAffine2{Matrix: [6]float64{s.X, 0, 0, s.Y, 0, 0}}
}

// Mul returns the composition self * other (other applied first).
func (m DAffine2) Mul(o DAffine2) DAffine2 {
	a, b, c, d, e, f := m.Matrix[0], m.Matrix[1], m.Matrix[2], m.Matrix[3], m.Matrix[4], m.Matrix[5]
	oa, ob, oc, od, oe, of := o.Matrix[0], o.Matrix[1], o.Matrix[2], o.Matrix[3], o.Matrix[4], o.Matrix[5]
	return DAffine2{Matrix: [6]float64{
		a*oa + c*ob,
		b*oa + d*ob,
		a*oc + c*od,
		b*oc + d*od,
		a*oe + c*of + e,
		b*oe + d*of + f,
	}}
}

// Apply transforms a point.
func (m DAffine2) Apply(p DVec2) DVec2 {
	return DVec2{
		X: m.Matrix[0]*p.X + m.Matrix[2]*p.Y + m.Matrix[4],
		Y: m.Matrix[1]*p.X + m.Matrix[3]*p.Y + m.Matrix[5],
	}
}

// Determinant returns the determinant of the linear part.
func (m DAffine2) Determinant() float64 {
	return m.Matrix[0]*m.Matrix[3] - m.Matrix[1]*m.Matrix[2]
}

// Color is an RGBA color with float64 channels in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// GradientStop is a single color stop along a gradient, with Position in
// [0, 1].
type GradientStop struct {
	Position float64 `json:"position"`
	Color    Color   `json:"color"`
}

// Font is a handle to a host-resolved typeface. The runtime treats it as
// opaque identity data; glyph resolution happens in host-supplied nodes.
type Font struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

// BlendMode selects how a layer composites over its backdrop.
type BlendMode uint32

// Blend modes mirror the compositor's fixed set.
const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
)

var blendModeNames = map[BlendMode]string{
	BlendNormal:     "normal",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendOverlay:    "overlay",
	BlendDarken:     "darken",
	BlendLighten:    "lighten",
	BlendColorDodge: "color-dodge",
	BlendColorBurn:  "color-burn",
	BlendHardLight:  "hard-light",
	BlendSoftLight:  "soft-light",
	BlendDifference: "difference",
	BlendExclusion:  "exclusion",
	BlendHue:        "hue",
	BlendSaturation: "saturation",
	BlendColor:      "color",
	BlendLuminosity: "luminosity",
}

// String implements fmt.Stringer.
func (b BlendMode) String() string {
	if name, ok := blendModeNames[b]; ok {
		return name
	}
	return "normal"
}
