// Package evalctx defines the per-evaluation environment threaded through
// every node call: the footprint being rendered, wall-clock and timeline
// time, iteration index and position stacks, and host-supplied varargs.
//
// A Context is immutable. Derivation is copy-on-write: With* methods
// return a child sharing every other field, so deriving a context per
// node call is cheap. Each capability has an explicit extractor returning
// (value, ok); nodes that require an absent capability without a default
// produce the missing-capability poison value.
package evalctx

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/graphene-go/graphene/value"
)

// Capability names surfaced in missing-capability poison values.
const (
	CapabilityFootprint     = "footprint"
	CapabilityRealTime      = "real_time"
	CapabilityAnimationTime = "animation_time"
	CapabilityIndex         = "index"
	CapabilityPosition      = "position"
	CapabilityVarArgs       = "varargs"
)

// Footprint is the viewport region an evaluation renders: a transform
// from document space to viewport space plus the target resolution.
// Raster and vector nodes use it to pick level of detail.
type Footprint struct {
	// Transform maps document space to viewport space.
	Transform value.DAffine2

	// Resolution is the target pixel resolution.
	Resolution value.DVec2
}

// Context is the immutable evaluation environment. The zero value (and
// nil) is the empty context: no capabilities present.
type Context struct {
	footprint     *Footprint
	realTime      *float64
	animationTime *float64
	index         []uint32
	position      []value.DVec2
	varargs       []any
}

// Empty returns the context with no capabilities.
func Empty() *Context { return &Context{} }

// Footprint returns the footprint capability.
func (c *Context) Footprint() (Footprint, bool) {
	if c == nil || c.footprint == nil {
		return Footprint{}, false
	}
	return *c.footprint, true
}

// RealTime returns the wall-clock time capability, in seconds.
func (c *Context) RealTime() (float64, bool) {
	if c == nil || c.realTime == nil {
		return 0, false
	}
	return *c.realTime, true
}

// AnimationTime returns the timeline position capability, in seconds.
func (c *Context) AnimationTime() (float64, bool) {
	if c == nil || c.animationTime == nil {
		return 0, false
	}
	return *c.animationTime, true
}

// Index returns the iteration-index stack, innermost loop first.
func (c *Context) Index() ([]uint32, bool) {
	if c == nil || c.index == nil {
		return nil, false
	}
	return c.index, true
}

// IndexAt returns the index loopLevel steps outward from the innermost
// loop, clamping to the outermost when the level exceeds the depth.
func (c *Context) IndexAt(loopLevel uint32) (uint32, bool) {
	idx, ok := c.Index()
	if !ok || len(idx) == 0 {
		return 0, ok && len(idx) > 0
	}
	if int(loopLevel) < len(idx) {
		return idx[loopLevel], true
	}
	return idx[len(idx)-1], true
}

// Position returns the iteration-position stack, innermost loop first.
func (c *Context) Position() ([]value.DVec2, bool) {
	if c == nil || c.position == nil {
		return nil, false
	}
	return c.position, true
}

// PositionAt mirrors IndexAt for the position stack.
func (c *Context) PositionAt(loopLevel uint32) (value.DVec2, bool) {
	pos, ok := c.Position()
	if !ok || len(pos) == 0 {
		return value.DVec2{}, ok && len(pos) > 0
	}
	if int(loopLevel) < len(pos) {
		return pos[loopLevel], true
	}
	return pos[len(pos)-1], true
}

// VarArg returns the host-supplied vararg at the given index.
func (c *Context) VarArg(index int) (any, bool) {
	if c == nil || c.varargs == nil || index < 0 || index >= len(c.varargs) {
		return nil, false
	}
	return c.varargs[index], true
}

// VarArgs returns the whole vararg slice.
func (c *Context) VarArgs() ([]any, bool) {
	if c == nil || c.varargs == nil {
		return nil, false
	}
	return c.varargs, true
}

func (c *Context) clone() *Context {
	if c == nil {
		return &Context{}
	}
	cp := *c
	return &cp
}

// WithFootprint derives a child context with the footprint replaced.
func (c *Context) WithFootprint(f Footprint) *Context {
	cp := c.clone()
	cp.footprint = &f
	return cp
}

// WithoutFootprint derives a child with the footprint capability absent,
// the derivation memoization uses to widen cache hits for
// footprint-independent subgraphs.
func (c *Context) WithoutFootprint() *Context {
	cp := c.clone()
	cp.footprint = nil
	return cp
}

// WithRealTime derives a child with the wall-clock time replaced.
func (c *Context) WithRealTime(seconds float64) *Context {
	cp := c.clone()
	cp.realTime = &seconds
	return cp
}

// WithAnimationTime derives a child with the timeline position replaced.
func (c *Context) WithAnimationTime(seconds float64) *Context {
	cp := c.clone()
	cp.animationTime = &seconds
	return cp
}

// PushIndex derives a child with an iteration index pushed innermost.
func (c *Context) PushIndex(i uint32) *Context {
	cp := c.clone()
	cp.index = append([]uint32{i}, cp.index...)
	return cp
}

// PushPosition derives a child with an iteration position pushed innermost.
func (c *Context) PushPosition(p value.DVec2) *Context {
	cp := c.clone()
	cp.position = append([]value.DVec2{p}, cp.position...)
	return cp
}

// WithVarArgs derives a child with the vararg slice replaced. The slice
// is shared, not copied; callers must not mutate it afterwards.
func (c *Context) WithVarArgs(args []any) *Context {
	cp := c.clone()
	cp.varargs = args
	return cp
}

// Hash returns a stable digest over the present capabilities, the cache
// key used by context-keyed memoization. Varargs contribute only their
// count: they are host handles without canonical encodings, so two
// contexts that differ only in vararg contents hash equal and share an
// impure cache slot.
func (c *Context) Hash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeF := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	if c == nil {
		return d.Sum64()
	}
	if c.footprint != nil {
		_, _ = d.Write([]byte{1})
		for _, e := range c.footprint.Transform.Matrix {
			writeF(e)
		}
		writeF(c.footprint.Resolution.X)
		writeF(c.footprint.Resolution.Y)
	}
	if c.realTime != nil {
		_, _ = d.Write([]byte{2})
		writeF(*c.realTime)
	}
	if c.animationTime != nil {
		_, _ = d.Write([]byte{3})
		writeF(*c.animationTime)
	}
	if c.index != nil {
		_, _ = d.Write([]byte{4})
		for _, i := range c.index {
			binary.LittleEndian.PutUint64(buf[:], uint64(i))
			_, _ = d.Write(buf[:])
		}
	}
	if c.position != nil {
		_, _ = d.Write([]byte{5})
		for _, p := range c.position {
			writeF(p.X)
			writeF(p.Y)
		}
	}
	if c.varargs != nil {
		_, _ = d.Write([]byte{6})
		binary.LittleEndian.PutUint64(buf[:], uint64(len(c.varargs)))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
