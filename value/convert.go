package value

import "math"

// wideningNext maps each numeric kind to its immediate widening target.
// Unsigned and signed chains run in parallel; f32 widens to f64. The
// integer-to-float edge is not in the chain because registry entries opt
// into it explicitly.
var wideningNext = map[Kind]Kind{
	KindU8:  KindU16,
	KindU16: KindU32,
	KindU32: KindU64,
	KindI8:  KindI16,
	KindI16: KindI32,
	KindI32: KindI64,
	KindF32: KindF64,
}

// WideningChain returns the number of implicit widening steps from one
// numeric kind to another, or -1 when no chain exists. intToFloat allows
// the final hop from any integer kind onto the float chain.
func WideningChain(from, to Kind, intToFloat bool) int {
	if from == to {
		return 0
	}
	steps := 0
	k := from
	for {
		next, ok := wideningNext[k]
		if !ok {
			break
		}
		steps++
		k = next
		if k == to {
			return steps
		}
	}
	if intToFloat && isIntegerKind(from) && (to == KindF32 || to == KindF64) {
		// Integer-to-float counts as one extra step beyond reaching the
		// widest integer, so exact integer matches still win specificity.
		return steps + 1
	}
	return -1
}

func isIntegerKind(k Kind) bool {
	switch k {
	case KindU8, KindU16, KindU32, KindU64, KindI8, KindI16, KindI32, KindI64:
		return true
	}
	return false
}

// KindOfType maps a concrete numeric descriptor back to its value kind;
// ok is false for non-numeric descriptors.
func KindOfType(t TypeDescriptor) (Kind, bool) {
	switch t.ID() {
	case TypeBool.ID():
		return KindBool, true
	case TypeU8.ID():
		return KindU8, true
	case TypeU16.ID():
		return KindU16, true
	case TypeU32.ID():
		return KindU32, true
	case TypeU64.ID():
		return KindU64, true
	case TypeI8.ID():
		return KindI8, true
	case TypeI16.ID():
		return KindI16, true
	case TypeI32.ID():
		return KindI32, true
	case TypeI64.ID():
		return KindI64, true
	case TypeF32.ID():
		return KindF32, true
	case TypeF64.ID():
		return KindF64, true
	}
	return KindNone, false
}

// Widen converts a numeric value to the target kind along the approved
// widening lattice. Non-numeric values and unreachable targets are
// returned unchanged; the registry guarantees callers only request legal
// widenings.
func Widen(v TaggedValue, to Kind) TaggedValue {
	if v.kind == to {
		return v
	}
	switch to {
	case KindU16, KindU32, KindU64:
		if u, ok := v.AsU64(); ok {
			return TaggedValue{kind: to, bits: u}
		}
	case KindI16, KindI32, KindI64:
		if i, ok := v.AsI64(); ok {
			return TaggedValue{kind: to, bits: uint64(i)}
		}
	case KindF32:
		if f, ok := v.AsF64(); ok {
			return TaggedValue{kind: KindF32, bits: uint64(math.Float32bits(float32(f)))}
		}
	case KindF64:
		if f, ok := v.AsF64(); ok {
			return NewF64(f)
		}
	}
	return v
}
