package document

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// NodeID identifies a node within one network. IDs are unique per
// network, not globally; nodes in flattened child networks get ids
// derived from the ancestor path so the flat graph stays collision-free.
type NodeID uint64

// String implements fmt.Stringer.
func (id NodeID) String() string { return fmt.Sprintf("#%d", uint64(id)) }

// InPath returns the id this node receives once its network is inlined
// under the given ancestor path. The derivation is a stable hash so
// flattening is deterministic across compilations.
func (id NodeID) InPath(path []NodeID) NodeID {
	if len(path) == 0 {
		return id
	}
	d := xxhash.New()
	var buf [8]byte
	for _, p := range path {
		binary.LittleEndian.PutUint64(buf[:], uint64(p))
		_, _ = d.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	_, _ = d.Write(buf[:])
	return NodeID(d.Sum64())
}

// ProtoIdentifier is the canonical dotted name of a registry entry,
// e.g. "graphene_core::ops::add". It identifies an implementation
// independent of where the document node referencing it lives.
type ProtoIdentifier string

// String implements fmt.Stringer.
func (p ProtoIdentifier) String() string { return string(p) }

// IDGenerator produces fresh node ids from a per-runtime seed and a
// counter, replacing a process-global RNG so id streams are reproducible.
type IDGenerator struct {
	seed    uint64
	counter uint64
}

// NewIDGenerator returns a generator for the given seed.
func NewIDGenerator(seed uint64) *IDGenerator {
	return &IDGenerator{seed: seed}
}

// Next returns a fresh id. Consecutive ids are hashed so they spread over
// the id space instead of clustering near zero.
func (g *IDGenerator) Next() NodeID {
	g.counter++
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], g.seed)
	binary.LittleEndian.PutUint64(buf[8:], g.counter)
	return NodeID(xxhash.Sum64(buf[:]))
}
