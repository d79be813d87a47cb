package value

// FromAny converts a dynamic Go value to a TaggedValue of the expected
// type. It is the FFI-style boundary used by scope injections and vararg
// plumbing: the host hands the runtime plain Go values and declares what
// type it believes them to be.
//
// The dynamic type must match the descriptor; no implicit conversion
// happens here. Mismatches return a *TypeMismatchError.
func FromAny(expected TypeDescriptor, v any) (TaggedValue, error) {
	tagged, ok := tagAny(v)
	if !ok {
		return None, &TypeMismatchError{Expected: expected, Got: Concrete("unsupported")}
	}
	if !tagged.Type().Equal(expected) {
		return None, &TypeMismatchError{Expected: expected, Got: tagged.Type()}
	}
	return tagged, nil
}

// TagAny converts a dynamic Go value to a TaggedValue without an
// expected type, used by vararg plumbing where the host declares nothing.
func TagAny(v any) (TaggedValue, bool) {
	return tagAny(v)
}

func tagAny(v any) (TaggedValue, bool) {
	switch x := v.(type) {
	case nil:
		return None, true
	case TaggedValue:
		return x, true
	case bool:
		return NewBool(x), true
	case uint8:
		return NewU8(x), true
	case uint16:
		return NewU16(x), true
	case uint32:
		return NewU32(x), true
	case uint64:
		return NewU64(x), true
	case int8:
		return NewI8(x), true
	case int16:
		return NewI16(x), true
	case int32:
		return NewI32(x), true
	case int64:
		return NewI64(x), true
	case int:
		return NewI64(int64(x)), true
	case float32:
		return NewF32(x), true
	case float64:
		return NewF64(x), true
	case string:
		return NewString(x), true
	case DVec2:
		return NewDVec2(x), true
	case DAffine2:
		return NewTransform(x), true
	case Color:
		return NewColor(x), true
	case []float64:
		return NewF64Array(x), true
	case []DVec2:
		return NewDVec2Array(x), true
	case []string:
		return NewStringArray(x), true
	case *VectorTable:
		return NewVectorTable(x), true
	case *RasterTable:
		return NewRasterTable(x), true
	case *Artboard:
		return NewArtboard(x), true
	case *GraphicGroup:
		return NewGraphicGroup(x), true
	case []GradientStop:
		return NewGradientStops(x), true
	case Font:
		return NewFont(x), true
	case BlendMode:
		return NewBlendMode(x), true
	}
	return None, false
}

// Any unwraps the value to its dynamic Go representation, the inverse of
// FromAny for every kind that has a natural Go type.
func (v TaggedValue) Any() any {
	switch v.kind {
	case KindNone:
		return nil
	case KindBool:
		return v.bits != 0
	case KindU8:
		return uint8(v.bits)
	case KindU16:
		return uint16(v.bits)
	case KindU32:
		return uint32(v.bits)
	case KindU64:
		return v.bits
	case KindI8:
		return int8(v.bits)
	case KindI16:
		return int16(v.bits)
	case KindI32:
		return int32(v.bits)
	case KindI64:
		return int64(v.bits)
	case KindF32, KindF64:
		f, _ := v.AsF64()
		if v.kind == KindF32 {
			return float32(f)
		}
		return f
	case KindString:
		return v.str
	case KindBlendMode:
		return BlendMode(v.bits)
	case KindError:
		return v.ErrValue()
	default:
		return v.ref
	}
}
