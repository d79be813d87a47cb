package value

import (
	"fmt"
	"math"
)

// Kind tags a TaggedValue variant.
type Kind uint8

// The closed set of value kinds a graph edge may carry.
const (
	KindNone Kind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	KindDVec2
	KindDAffine2
	KindColor
	KindF64Array
	KindDVec2Array
	KindStringArray
	KindVectorTable
	KindRasterTable
	KindArtboard
	KindGraphicGroup
	KindGradientStops
	KindFont
	KindBlendMode
	KindNodeRef
	KindError
)

// TaggedValue is the runtime's universal value union. The zero value is
// None. Scalars live inline; composite payloads are shared references, so
// cloning a TaggedValue is O(1) regardless of payload size.
type TaggedValue struct {
	kind Kind

	// bits holds scalar payloads: integer values directly, floats by bit
	// pattern, booleans as 0/1, blend modes as their ordinal.
	bits uint64

	// str holds string payloads.
	str string

	// ref holds composite payloads: *VectorTable, *RasterTable,
	// *Artboard, *GraphicGroup, []GradientStop, []float64, []DVec2,
	// []string, DVec2, DAffine2, Color, Font, *ErrorValue, or an opaque
	// node reference.
	ref any
}

// None is the absent value.
var None = TaggedValue{kind: KindNone}

// NewBool returns a boolean value.
func NewBool(b bool) TaggedValue {
	var bits uint64
	if b {
		bits = 1
	}
	return TaggedValue{kind: KindBool, bits: bits}
}

// NewU8 returns an unsigned 8-bit integer value.
func NewU8(v uint8) TaggedValue { return TaggedValue{kind: KindU8, bits: uint64(v)} }

// NewU16 returns an unsigned 16-bit integer value.
func NewU16(v uint16) TaggedValue { return TaggedValue{kind: KindU16, bits: uint64(v)} }

// NewU32 returns an unsigned 32-bit integer value.
func NewU32(v uint32) TaggedValue { return TaggedValue{kind: KindU32, bits: uint64(v)} }

// NewU64 returns an unsigned 64-bit integer value.
func NewU64(v uint64) TaggedValue { return TaggedValue{kind: KindU64, bits: v} }

// NewI8 returns a signed 8-bit integer value.
func NewI8(v int8) TaggedValue { return TaggedValue{kind: KindI8, bits: uint64(uint8(v))} }

// NewI16 returns a signed 16-bit integer value.
func NewI16(v int16) TaggedValue { return TaggedValue{kind: KindI16, bits: uint64(uint16(v))} }

// NewI32 returns a signed 32-bit integer value.
func NewI32(v int32) TaggedValue { return TaggedValue{kind: KindI32, bits: uint64(uint32(v))} }

// NewI64 returns a signed 64-bit integer value.
func NewI64(v int64) TaggedValue { return TaggedValue{kind: KindI64, bits: uint64(v)} }

// NewF32 returns a single-precision float value.
func NewF32(v float32) TaggedValue {
	return TaggedValue{kind: KindF32, bits: uint64(math.Float32bits(v))}
}

// NewF64 returns a double-precision float value.
func NewF64(v float64) TaggedValue {
	return TaggedValue{kind: KindF64, bits: math.Float64bits(v)}
}

// NewString returns a string value.
func NewString(s string) TaggedValue { return TaggedValue{kind: KindString, str: s} }

// NewDVec2 returns a 2D vector value.
func NewDVec2(v DVec2) TaggedValue { return TaggedValue{kind: KindDVec2, ref: v} }

// NewTransform returns an affine transform value.
func NewTransform(m DAffine2) TaggedValue { return TaggedValue{kind: KindDAffine2, ref: m} }

// NewColor returns a color value.
func NewColor(c Color) TaggedValue { return TaggedValue{kind: KindColor, ref: c} }

// NewF64Array returns a float array value. The slice is shared, not copied.
func NewF64Array(vs []float64) TaggedValue { return TaggedValue{kind: KindF64Array, ref: vs} }

// NewDVec2Array returns a vector array value. The slice is shared, not copied.
func NewDVec2Array(vs []DVec2) TaggedValue { return TaggedValue{kind: KindDVec2Array, ref: vs} }

// NewStringArray returns a string array value. The slice is shared, not copied.
func NewStringArray(vs []string) TaggedValue { return TaggedValue{kind: KindStringArray, ref: vs} }

// NewVectorTable returns a vector table value sharing the given table.
func NewVectorTable(t *VectorTable) TaggedValue { return TaggedValue{kind: KindVectorTable, ref: t} }

// NewRasterTable returns a raster table value sharing the given table.
func NewRasterTable(t *RasterTable) TaggedValue { return TaggedValue{kind: KindRasterTable, ref: t} }

// NewArtboard returns an artboard value sharing the given artboard.
func NewArtboard(a *Artboard) TaggedValue { return TaggedValue{kind: KindArtboard, ref: a} }

// NewGraphicGroup returns a graphic group value sharing the given group.
func NewGraphicGroup(g *GraphicGroup) TaggedValue { return TaggedValue{kind: KindGraphicGroup, ref: g} }

// NewGradientStops returns a gradient stops value. The slice is shared.
func NewGradientStops(stops []GradientStop) TaggedValue {
	return TaggedValue{kind: KindGradientStops, ref: stops}
}

// NewFont returns a font handle value.
func NewFont(f Font) TaggedValue { return TaggedValue{kind: KindFont, ref: f} }

// NewBlendMode returns a blend mode value.
func NewBlendMode(b BlendMode) TaggedValue { return TaggedValue{kind: KindBlendMode, bits: uint64(b)} }

// NewNodeRef returns an opaque captured-node value, produced by Extract
// implementations. The value is compared and hashed by the provided
// stable hash alone; the payload itself is not inspected.
func NewNodeRef(payload any, stableHash uint64) TaggedValue {
	return TaggedValue{kind: KindNodeRef, bits: stableHash, ref: payload}
}

// Kind returns the variant tag.
func (v TaggedValue) Kind() Kind { return v.kind }

// Type returns the static descriptor of the value's type without
// destructuring the payload.
func (v TaggedValue) Type() TypeDescriptor {
	switch v.kind {
	case KindNone:
		return TypeNone
	case KindBool:
		return TypeBool
	case KindU8:
		return TypeU8
	case KindU16:
		return TypeU16
	case KindU32:
		return TypeU32
	case KindU64:
		return TypeU64
	case KindI8:
		return TypeI8
	case KindI16:
		return TypeI16
	case KindI32:
		return TypeI32
	case KindI64:
		return TypeI64
	case KindF32:
		return TypeF32
	case KindF64:
		return TypeF64
	case KindString:
		return TypeString
	case KindDVec2:
		return TypeDVec2
	case KindDAffine2:
		return TypeDAffine2
	case KindColor:
		return TypeColor
	case KindF64Array:
		return TypeF64Array
	case KindDVec2Array:
		return TypeDVec2Array
	case KindStringArray:
		return TypeStringArray
	case KindVectorTable:
		return TypeVectorTable
	case KindRasterTable:
		return TypeRasterTable
	case KindArtboard:
		return TypeArtboard
	case KindGraphicGroup:
		return TypeGraphicGroup
	case KindGradientStops:
		return TypeGradientStops
	case KindFont:
		return TypeFont
	case KindBlendMode:
		return TypeBlendMode
	case KindNodeRef:
		return TypeNodeRef
	case KindError:
		return TypeError
	}
	return TypeNone
}

// IsNone reports whether the value is the absent value.
func (v TaggedValue) IsNone() bool { return v.kind == KindNone }

// Bool returns the boolean payload; ok is false for other kinds.
func (v TaggedValue) Bool() (b bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.bits != 0, true
}

// U32 returns the u32 payload; ok is false for other kinds.
func (v TaggedValue) U32() (uint32, bool) {
	if v.kind != KindU32 {
		return 0, false
	}
	return uint32(v.bits), true
}

// U64 returns the u64 payload; ok is false for other kinds.
func (v TaggedValue) U64() (uint64, bool) {
	if v.kind != KindU64 {
		return 0, false
	}
	return v.bits, true
}

// I64 returns the i64 payload; ok is false for other kinds.
func (v TaggedValue) I64() (int64, bool) {
	if v.kind != KindI64 {
		return 0, false
	}
	return int64(v.bits), true
}

// F64 returns the f64 payload; ok is false for other kinds.
func (v TaggedValue) F64() (float64, bool) {
	if v.kind != KindF64 {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// AsF64 widens any numeric payload to float64. It is the coercion used by
// arithmetic nodes after the registry has approved a widening chain.
func (v TaggedValue) AsF64() (float64, bool) {
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return float64(v.bits), true
	case KindI8:
		return float64(int8(v.bits)), true
	case KindI16:
		return float64(int16(v.bits)), true
	case KindI32:
		return float64(int32(v.bits)), true
	case KindI64:
		return float64(int64(v.bits)), true
	case KindF32:
		return float64(math.Float32frombits(uint32(v.bits))), true
	case KindF64:
		return math.Float64frombits(v.bits), true
	}
	return 0, false
}

// AsU64 narrows-free reads of any unsigned payload.
func (v TaggedValue) AsU64() (uint64, bool) {
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return v.bits, true
	}
	return 0, false
}

// AsI64 reads any signed payload sign-extended to 64 bits.
func (v TaggedValue) AsI64() (int64, bool) {
	switch v.kind {
	case KindI8:
		return int64(int8(v.bits)), true
	case KindI16:
		return int64(int16(v.bits)), true
	case KindI32:
		return int64(int32(v.bits)), true
	case KindI64:
		return int64(v.bits), true
	}
	return 0, false
}

// Str returns the string payload; ok is false for other kinds.
func (v TaggedValue) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// DVec2Value returns the vector payload; ok is false for other kinds.
func (v TaggedValue) DVec2Value() (DVec2, bool) {
	p, ok := v.ref.(DVec2)
	if v.kind != KindDVec2 || !ok {
		return DVec2{}, false
	}
	return p, true
}

// Transform returns the affine transform payload; ok is false otherwise.
func (v TaggedValue) Transform() (DAffine2, bool) {
	m, ok := v.ref.(DAffine2)
	if v.kind != KindDAffine2 || !ok {
		return DAffine2{}, false
	}
	return m, true
}

// ColorValue returns the color payload; ok is false for other kinds.
func (v TaggedValue) ColorValue() (Color, bool) {
	c, ok := v.ref.(Color)
	if v.kind != KindColor || !ok {
		return Color{}, false
	}
	return c, true
}

// F64Array returns the shared float array payload.
func (v TaggedValue) F64Array() ([]float64, bool) {
	a, ok := v.ref.([]float64)
	if v.kind != KindF64Array || !ok {
		return nil, false
	}
	return a, true
}

// DVec2Array returns the shared vector array payload.
func (v TaggedValue) DVec2Array() ([]DVec2, bool) {
	a, ok := v.ref.([]DVec2)
	if v.kind != KindDVec2Array || !ok {
		return nil, false
	}
	return a, true
}

// StringArray returns the shared string array payload.
func (v TaggedValue) StringArray() ([]string, bool) {
	a, ok := v.ref.([]string)
	if v.kind != KindStringArray || !ok {
		return nil, false
	}
	return a, true
}

// VectorTableValue returns the shared vector table payload.
func (v TaggedValue) VectorTableValue() (*VectorTable, bool) {
	t, ok := v.ref.(*VectorTable)
	if v.kind != KindVectorTable || !ok {
		return nil, false
	}
	return t, true
}

// RasterTableValue returns the shared raster table payload.
func (v TaggedValue) RasterTableValue() (*RasterTable, bool) {
	t, ok := v.ref.(*RasterTable)
	if v.kind != KindRasterTable || !ok {
		return nil, false
	}
	return t, true
}

// ArtboardValue returns the shared artboard payload.
func (v TaggedValue) ArtboardValue() (*Artboard, bool) {
	a, ok := v.ref.(*Artboard)
	if v.kind != KindArtboard || !ok {
		return nil, false
	}
	return a, true
}

// GraphicGroupValue returns the shared graphic group payload.
func (v TaggedValue) GraphicGroupValue() (*GraphicGroup, bool) {
	g, ok := v.ref.(*GraphicGroup)
	if v.kind != KindGraphicGroup || !ok {
		return nil, false
	}
	return g, true
}

// GradientStopsValue returns the shared gradient stops payload.
func (v TaggedValue) GradientStopsValue() ([]GradientStop, bool) {
	s, ok := v.ref.([]GradientStop)
	if v.kind != KindGradientStops || !ok {
		return nil, false
	}
	return s, true
}

// FontValue returns the font payload; ok is false for other kinds.
func (v TaggedValue) FontValue() (Font, bool) {
	f, ok := v.ref.(Font)
	if v.kind != KindFont || !ok {
		return Font{}, false
	}
	return f, true
}

// BlendModeValue returns the blend mode payload.
func (v TaggedValue) BlendModeValue() (BlendMode, bool) {
	if v.kind != KindBlendMode {
		return BlendNormal, false
	}
	return BlendMode(v.bits), true
}

// NodeRefValue returns the opaque captured-node payload.
func (v TaggedValue) NodeRefValue() (any, bool) {
	if v.kind != KindNodeRef {
		return nil, false
	}
	return v.ref, true
}

// String implements fmt.Stringer with a short diagnostic rendering.
func (v TaggedValue) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindBool:
		return fmt.Sprintf("%v", v.bits != 0)
	case KindU8, KindU16, KindU32, KindU64:
		return fmt.Sprintf("%d", v.bits)
	case KindI8, KindI16, KindI32, KindI64:
		i, _ := v.AsI64()
		return fmt.Sprintf("%d", i)
	case KindF32, KindF64:
		f, _ := v.AsF64()
		return fmt.Sprintf("%g", f)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindError:
		return fmt.Sprintf("error(%s)", v.ErrValue().Message)
	default:
		return v.Type().Name()
	}
}
