package value

import (
	"encoding/json"
	"fmt"
	"math"
)

// jsonEnvelope is the self-describing wire form of a TaggedValue: the
// type's canonical spelling plus the payload.
type jsonEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes the value as a {"type", "value"} envelope keyed by
// the canonical type spelling.
func (v TaggedValue) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindNone:
		payload = nil
	case KindF32, KindF64:
		f, _ := v.AsF64()
		// Non-finite floats have no JSON literal; encode the bit pattern.
		if math.IsInf(f, 0) || math.IsNaN(f) {
			payload = map[string]uint64{"bits": math.Float64bits(f)}
		} else {
			payload = v.Any()
		}
	default:
		payload = v.Any()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonEnvelope{Type: v.Type().Name(), Value: raw})
}

// UnmarshalJSON decodes the {"type", "value"} envelope.
func (v *TaggedValue) UnmarshalJSON(data []byte) error {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	decoded, err := decodeEnvelope(env)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func decodeEnvelope(env jsonEnvelope) (TaggedValue, error) {
	switch env.Type {
	case TypeNone.Name():
		return None, nil
	case TypeBool.Name():
		var b bool
		return NewBool(b), json.Unmarshal(env.Value, &b)
	case TypeU8.Name(), TypeU16.Name(), TypeU32.Name(), TypeU64.Name():
		var u uint64
		if err := json.Unmarshal(env.Value, &u); err != nil {
			return None, err
		}
		switch env.Type {
		case TypeU8.Name():
			return NewU8(uint8(u)), nil
		case TypeU16.Name():
			return NewU16(uint16(u)), nil
		case TypeU32.Name():
			return NewU32(uint32(u)), nil
		default:
			return NewU64(u), nil
		}
	case TypeI8.Name(), TypeI16.Name(), TypeI32.Name(), TypeI64.Name():
		var i int64
		if err := json.Unmarshal(env.Value, &i); err != nil {
			return None, err
		}
		switch env.Type {
		case TypeI8.Name():
			return NewI8(int8(i)), nil
		case TypeI16.Name():
			return NewI16(int16(i)), nil
		case TypeI32.Name():
			return NewI32(int32(i)), nil
		default:
			return NewI64(i), nil
		}
	case TypeF32.Name(), TypeF64.Name():
		f, err := decodeFloat(env.Value)
		if err != nil {
			return None, err
		}
		if env.Type == TypeF32.Name() {
			return NewF32(float32(f)), nil
		}
		return NewF64(f), nil
	case TypeString.Name():
		var s string
		return NewString(s), json.Unmarshal(env.Value, &s)
	case TypeDVec2.Name():
		var p DVec2
		if err := json.Unmarshal(env.Value, &p); err != nil {
			return None, err
		}
		return NewDVec2(p), nil
	case TypeDAffine2.Name():
		var m DAffine2
		if err := json.Unmarshal(env.Value, &m); err != nil {
			return None, err
		}
		return NewTransform(m), nil
	case TypeColor.Name():
		var c Color
		if err := json.Unmarshal(env.Value, &c); err != nil {
			return None, err
		}
		return NewColor(c), nil
	case TypeF64Array.Name():
		var a []float64
		if err := json.Unmarshal(env.Value, &a); err != nil {
			return None, err
		}
		return NewF64Array(a), nil
	case TypeDVec2Array.Name():
		var a []DVec2
		if err := json.Unmarshal(env.Value, &a); err != nil {
			return None, err
		}
		return NewDVec2Array(a), nil
	case TypeStringArray.Name():
		var a []string
		if err := json.Unmarshal(env.Value, &a); err != nil {
			return None, err
		}
		return NewStringArray(a), nil
	case TypeVectorTable.Name():
		t := new(VectorTable)
		if err := json.Unmarshal(env.Value, t); err != nil {
			return None, err
		}
		return NewVectorTable(t), nil
	case TypeRasterTable.Name():
		t := new(RasterTable)
		if err := json.Unmarshal(env.Value, t); err != nil {
			return None, err
		}
		return NewRasterTable(t), nil
	case TypeArtboard.Name():
		a := new(Artboard)
		if err := json.Unmarshal(env.Value, a); err != nil {
			return None, err
		}
		return NewArtboard(a), nil
	case TypeGraphicGroup.Name():
		g := new(GraphicGroup)
		if err := json.Unmarshal(env.Value, g); err != nil {
			return None, err
		}
		return NewGraphicGroup(g), nil
	case TypeGradientStops.Name():
		var stops []GradientStop
		if err := json.Unmarshal(env.Value, &stops); err != nil {
			return None, err
		}
		return NewGradientStops(stops), nil
	case TypeFont.Name():
		var f Font
		if err := json.Unmarshal(env.Value, &f); err != nil {
			return None, err
		}
		return NewFont(f), nil
	case TypeBlendMode.Name():
		var b uint32
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return None, err
		}
		return NewBlendMode(BlendMode(b)), nil
	case TypeError.Name():
		ev := new(ErrorValue)
		if err := json.Unmarshal(env.Value, ev); err != nil {
			return None, err
		}
		return TaggedValue{kind: KindError, ref: ev}, nil
	}
	return None, fmt.Errorf("value: unknown type %q", env.Type)
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var bits struct {
		Bits uint64 `json:"bits"`
	}
	if err := json.Unmarshal(raw, &bits); err != nil {
		return 0, err
	}
	return math.Float64frombits(bits.Bits), nil
}
