package value

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// MemoHash pairs a value with its precomputed content hash. It is the
// cache-key currency of the memoization layer: comparing hash codes is a
// probable equality, cheap enough to run on every re-evaluation.
//
// Mutation goes through InnerMut, whose guard rehashes on Close, so the
// invariant "stored hash equals hash of stored value" holds at every
// observation point.
type MemoHash[T Hashable] struct {
	hash  uint64
	value T
}

// NewMemoHash hashes the value once and stores both.
func NewMemoHash[T Hashable](v T) MemoHash[T] {
	return MemoHash[T]{hash: hashOf(v), value: v}
}

// NewMemoHashWithHash trusts a precomputed hash. Callers are responsible
// for it actually matching the value.
func NewMemoHashWithHash[T Hashable](v T, hash uint64) MemoHash[T] {
	return MemoHash[T]{hash: hash, value: v}
}

func hashOf[T Hashable](v T) uint64 {
	d := xxhash.New()
	v.HashInto(d)
	return d.Sum64()
}

// HashCode returns the precomputed content hash.
func (m *MemoHash[T]) HashCode() uint64 { return m.hash }

// Get returns the wrapped value.
func (m *MemoHash[T]) Get() T { return m.value }

// HashInto makes MemoHash itself hashable by its precomputed code.
func (m *MemoHash[T]) HashInto(d *xxhash.Digest) {
	writeU64(d, m.hash)
}

// InnerMut opens the value for mutation. The returned guard exposes the
// value and must be closed; Close recomputes the stored hash.
func (m *MemoHash[T]) InnerMut() *MemoHashGuard[T] {
	return &MemoHashGuard[T]{owner: m}
}

// MemoHashGuard is the mutation window over a MemoHash.
type MemoHashGuard[T Hashable] struct {
	owner *MemoHash[T]
}

// Value returns a pointer to the guarded value for in-place mutation.
func (g *MemoHashGuard[T]) Value() *T { return &g.owner.value }

// Set replaces the guarded value outright.
func (g *MemoHashGuard[T]) Set(v T) { g.owner.value = v }

// Close rehashes the value, restoring the MemoHash invariant.
func (g *MemoHashGuard[T]) Close() {
	g.owner.hash = hashOf(g.owner.value)
}

// IORecord stores both what a node was called with and what it returned.
// The pair is always drawn from a single evaluation of the wrapped node.
type IORecord struct {
	Input     TaggedValue `json:"input"`
	Output    TaggedValue `json:"output"`
	Timestamp time.Time   `json:"timestamp"`
}
