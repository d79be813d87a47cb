package value

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// TypeKind distinguishes concrete types from generic placeholders.
type TypeKind uint8

const (
	// TypeKindConcrete is a fully resolved type with a canonical name.
	TypeKindConcrete TypeKind = iota

	// TypeKindGeneric is a placeholder resolved during registry selection.
	// Its bound restricts which concrete types may substitute for it.
	TypeKindGeneric
)

// TypeDescriptor describes the type of a graph edge.
//
// Descriptors are compared by their stable identifier, the xxhash of the
// canonical spelling, so equality survives serialization round trips and
// process restarts.
type TypeDescriptor struct {
	kind TypeKind
	name string
	id   uint64
}

// Concrete returns the descriptor for a fully resolved type.
func Concrete(name string) TypeDescriptor {
	return TypeDescriptor{
		kind: TypeKindConcrete,
		name: name,
		id:   xxhash.Sum64String("concrete:" + name),
	}
}

// Generic returns a placeholder descriptor with the given bound. An empty
// bound accepts any concrete type.
func Generic(bound string) TypeDescriptor {
	return TypeDescriptor{
		kind: TypeKindGeneric,
		name: bound,
		id:   xxhash.Sum64String("generic:" + bound),
	}
}

// Predeclared descriptors for every TaggedValue kind plus the unit and
// context types used by the calling convention.
var (
	TypeUnit          = Concrete("()")
	TypeContext       = Concrete("context")
	TypeNone          = Concrete("none")
	TypeBool          = Concrete("bool")
	TypeU8            = Concrete("u8")
	TypeU16           = Concrete("u16")
	TypeU32           = Concrete("u32")
	TypeU64           = Concrete("u64")
	TypeI8            = Concrete("i8")
	TypeI16           = Concrete("i16")
	TypeI32           = Concrete("i32")
	TypeI64           = Concrete("i64")
	TypeF32           = Concrete("f32")
	TypeF64           = Concrete("f64")
	TypeString        = Concrete("str")
	TypeDVec2         = Concrete("dvec2")
	TypeDAffine2      = Concrete("daffine2")
	TypeColor         = Concrete("color")
	TypeF64Array      = Concrete("[f64]")
	TypeDVec2Array    = Concrete("[dvec2]")
	TypeStringArray   = Concrete("[str]")
	TypeVectorTable   = Concrete("table<vector>")
	TypeRasterTable   = Concrete("table<raster>")
	TypeArtboard      = Concrete("artboard")
	TypeGraphicGroup  = Concrete("graphic-group")
	TypeGradientStops = Concrete("gradient-stops")
	TypeFont          = Concrete("font")
	TypeBlendMode     = Concrete("blend-mode")
	TypeNodeRef       = Concrete("node-ref")
	TypeError         = Concrete("error")
)

// Kind reports whether the descriptor is concrete or generic.
func (t TypeDescriptor) Kind() TypeKind { return t.kind }

// Name returns the canonical spelling for concrete descriptors and the
// bound for generic ones.
func (t TypeDescriptor) Name() string { return t.name }

// ID returns the stable identifier derived from the canonical spelling.
func (t TypeDescriptor) ID() uint64 { return t.id }

// IsGeneric reports whether the descriptor is a placeholder.
func (t TypeDescriptor) IsGeneric() bool { return t.kind == TypeKindGeneric }

// Equal compares descriptors by stable identifier.
func (t TypeDescriptor) Equal(other TypeDescriptor) bool { return t.id == other.id }

// String implements fmt.Stringer.
func (t TypeDescriptor) String() string {
	if t.kind == TypeKindGeneric {
		if t.name == "" {
			return "<T>"
		}
		return fmt.Sprintf("<T: %s>", t.name)
	}
	return t.name
}

// TypeMismatchError reports a dynamic value whose type did not match the
// statically expected descriptor.
type TypeMismatchError struct {
	Expected TypeDescriptor
	Got      TypeDescriptor
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("value: type mismatch: expected %s, got %s", e.Expected, e.Got)
}
