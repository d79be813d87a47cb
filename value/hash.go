package value

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hashable is the constraint for types that can feed a stable content
// hash. TaggedValue and the proto-graph types implement it.
type Hashable interface {
	HashInto(d *xxhash.Digest)
}

func writeU64(d *xxhash.Digest, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = d.Write(buf[:])
}

func writeF64(d *xxhash.Digest, v float64) {
	// Bit-pattern hashing keeps NaNs distinguishable and -0.0 != 0.0,
	// matching hash-equality semantics rather than float comparison.
	writeU64(d, math.Float64bits(v))
}

func writeString(d *xxhash.Digest, s string) {
	writeU64(d, uint64(len(s)))
	_, _ = d.WriteString(s)
}

func writeDVec2(d *xxhash.Digest, v DVec2) {
	writeF64(d, v.X)
	writeF64(d, v.Y)
}

func writeTransform(d *xxhash.Digest, m DAffine2) {
	for _, e := range m.Matrix {
		writeF64(d, e)
	}
}

func writeColor(d *xxhash.Digest, c Color) {
	writeF64(d, c.R)
	writeF64(d, c.G)
	writeF64(d, c.B)
	writeF64(d, c.A)
}

// HashInto feeds the value's canonical encoding into the digest.
func (v TaggedValue) HashInto(d *xxhash.Digest) {
	_, _ = d.Write([]byte{byte(v.kind)})
	switch v.kind {
	case KindNone:
	case KindBool, KindU8, KindU16, KindU32, KindU64,
		KindI8, KindI16, KindI32, KindI64,
		KindF32, KindF64, KindBlendMode:
		writeU64(d, v.bits)
	case KindString:
		writeString(d, v.str)
	case KindDVec2:
		p, _ := v.DVec2Value()
		writeDVec2(d, p)
	case KindDAffine2:
		m, _ := v.Transform()
		writeTransform(d, m)
	case KindColor:
		c, _ := v.ColorValue()
		writeColor(d, c)
	case KindF64Array:
		a, _ := v.F64Array()
		writeU64(d, uint64(len(a)))
		for _, f := range a {
			writeF64(d, f)
		}
	case KindDVec2Array:
		a, _ := v.DVec2Array()
		writeU64(d, uint64(len(a)))
		for _, p := range a {
			writeDVec2(d, p)
		}
	case KindStringArray:
		a, _ := v.StringArray()
		writeU64(d, uint64(len(a)))
		for _, s := range a {
			writeString(d, s)
		}
	case KindVectorTable:
		t, _ := v.VectorTableValue()
		hashVectorTable(d, t)
	case KindRasterTable:
		t, _ := v.RasterTableValue()
		hashRasterTable(d, t)
	case KindArtboard:
		a, _ := v.ArtboardValue()
		hashArtboard(d, a)
	case KindGraphicGroup:
		g, _ := v.GraphicGroupValue()
		hashGraphicGroup(d, g)
	case KindGradientStops:
		stops, _ := v.GradientStopsValue()
		writeU64(d, uint64(len(stops)))
		for _, s := range stops {
			writeF64(d, s.Position)
			writeColor(d, s.Color)
		}
	case KindFont:
		f, _ := v.FontValue()
		writeString(d, f.Family)
		writeString(d, f.Style)
	case KindNodeRef:
		writeU64(d, v.bits)
	case KindError:
		ev := v.ErrValue()
		writeString(d, ev.Code)
		writeString(d, ev.Identifier)
		writeString(d, ev.Message)
		writeU64(d, uint64(len(ev.Path)))
		for _, p := range ev.Path {
			writeU64(d, p)
		}
	}
}

func hashVectorTable(d *xxhash.Digest, t *VectorTable) {
	if t == nil {
		writeU64(d, 0)
		return
	}
	writeU64(d, uint64(len(t.Rows)))
	for _, row := range t.Rows {
		writeU64(d, uint64(len(row.Points)))
		for _, p := range row.Points {
			writeDVec2(d, p)
		}
		if row.Closed {
			_, _ = d.Write([]byte{1})
		} else {
			_, _ = d.Write([]byte{0})
		}
		writeTransform(d, row.Transform)
		writeColor(d, row.Fill)
		writeColor(d, row.Stroke)
		writeF64(d, row.Weight)
	}
}

func hashRasterTable(d *xxhash.Digest, t *RasterTable) {
	if t == nil {
		writeU64(d, 0)
		return
	}
	writeU64(d, uint64(t.Width))
	writeU64(d, uint64(t.Height))
	writeU64(d, uint64(len(t.Pixels)))
	_, _ = d.Write(t.Pixels)
}

func hashArtboard(d *xxhash.Digest, a *Artboard) {
	if a == nil {
		writeU64(d, 0)
		return
	}
	writeString(d, a.Label)
	writeDVec2(d, a.Location)
	writeDVec2(d, a.Dimensions)
	writeColor(d, a.Background)
	if a.Clip {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}
	hashGraphicGroup(d, &a.Content)
}

func hashGraphicGroup(d *xxhash.Digest, g *GraphicGroup) {
	if g == nil {
		writeU64(d, 0)
		return
	}
	writeU64(d, uint64(len(g.Elements)))
	for _, el := range g.Elements {
		el.HashInto(d)
	}
	writeTransform(d, g.Transform)
	writeU64(d, uint64(g.Blend))
	writeF64(d, g.Opacity)
}

// HashCode returns the stable content hash of the value.
func (v TaggedValue) HashCode() uint64 {
	d := xxhash.New()
	v.HashInto(d)
	return d.Sum64()
}

// Equal compares two values for content equality. Scalars and strings
// compare exactly; composite payloads compare by canonical hash, which is
// exact up to hash collision.
func (v TaggedValue) Equal(other TaggedValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindBool, KindU8, KindU16, KindU32, KindU64,
		KindI8, KindI16, KindI32, KindI64,
		KindF32, KindF64, KindBlendMode, KindNodeRef:
		return v.bits == other.bits
	case KindString:
		return v.str == other.str
	default:
		return v.HashCode() == other.HashCode()
	}
}
