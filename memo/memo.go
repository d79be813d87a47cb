// Package memo provides the memoization layer: cache wrapper nodes the
// compiler inserts at exports and flagged cut points, introspection taps
// feeding the properties panel and spreadsheet views, and an optional
// Redis-backed history store for introspection records.
//
// Each cache instance is owned by its node and guarded by its own lock;
// no lock is held while an upstream evaluates, so concurrent evaluations
// at worst duplicate work, never deadlock.
package memo

import (
	"context"
	"sync"
	"time"

	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/value"
)

var (
	boundMu      sync.RWMutex
	defaultBound = 64
)

// SetDefaultBound sets the entry bound newly constructed context-keyed
// caches use. The eviction policy is least-recently-used within the
// bound.
func SetDefaultBound(n int) {
	if n < 1 {
		n = 1
	}
	boundMu.Lock()
	defaultBound = n
	boundMu.Unlock()
}

// DefaultBound returns the current cache bound.
func DefaultBound() int {
	boundMu.RLock()
	defer boundMu.RUnlock()
	return defaultBound
}

// Node caches the single last output of a pure upstream. The executor's
// update protocol rebuilds the wrapper whenever anything upstream
// changes identity, so the slot never serves stale content; Reset drops
// it explicitly.
type Node struct {
	inner node.Node

	mu    sync.Mutex
	valid bool
	out   value.TaggedValue
}

// NewNode wraps a pure upstream with a single-slot cache.
func NewNode(inner node.Node) *Node {
	return &Node{inner: inner}
}

// Eval implements node.Node.
func (m *Node) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	m.mu.Lock()
	if m.valid {
		out := m.out
		m.mu.Unlock()
		return out
	}
	m.mu.Unlock()

	out := m.inner.Eval(ctx, ec)
	if !out.IsError() {
		m.mu.Lock()
		m.valid = true
		m.out = out
		m.mu.Unlock()
	}
	return out
}

// Reset implements node.Node.
func (m *Node) Reset() {
	m.mu.Lock()
	m.valid = false
	m.out = value.None
	m.mu.Unlock()
	m.inner.Reset()
}

type impureEntry struct {
	out     value.TaggedValue
	lastUse uint64
}

// ImpureNode caches outputs keyed by the evaluation-context hash, for
// footprint- and time-dependent upstreams. The cache is bounded;
// least-recently-used entries are evicted first.
type ImpureNode struct {
	inner node.Node
	bound int

	mu      sync.Mutex
	seq     uint64
	entries map[uint64]impureEntry
}

// NewImpureNode wraps an upstream with a context-keyed cache of the
// given bound; a non-positive bound uses DefaultBound.
func NewImpureNode(inner node.Node, bound int) *ImpureNode {
	if bound <= 0 {
		bound = DefaultBound()
	}
	return &ImpureNode{
		inner:   inner,
		bound:   bound,
		entries: make(map[uint64]impureEntry),
	}
}

// Eval implements node.Node.
func (m *ImpureNode) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	key := ec.Hash()

	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.seq++
		e.lastUse = m.seq
		m.entries[key] = e
		out := e.out
		m.mu.Unlock()
		return out
	}
	m.mu.Unlock()

	out := m.inner.Eval(ctx, ec)
	if out.IsError() {
		return out
	}

	m.mu.Lock()
	m.seq++
	if len(m.entries) >= m.bound {
		var oldestKey uint64
		oldest := ^uint64(0)
		for k, e := range m.entries {
			if e.lastUse < oldest {
				oldest = e.lastUse
				oldestKey = k
			}
		}
		delete(m.entries, oldestKey)
	}
	m.entries[key] = impureEntry{out: out, lastUse: m.seq}
	m.mu.Unlock()
	return out
}

// Reset implements node.Node.
func (m *ImpureNode) Reset() {
	m.mu.Lock()
	m.entries = make(map[uint64]impureEntry)
	m.mu.Unlock()
	m.inner.Reset()
}

// recordCap bounds each tap's in-memory history.
const recordCap = 16

// RecordNode is an introspection tap: it records the wrapped node's
// input/output pair on every evaluation, capped to the most recent
// entries. The pair is always drawn from a single evaluation.
type RecordNode struct {
	inner   node.Node
	primary node.Node

	mu      sync.Mutex
	history []value.IORecord
}

// NewRecordNode wraps an upstream with a tap. primary, when non-nil,
// produces the wrapped node's primary input for the record.
func NewRecordNode(inner, primary node.Node) *RecordNode {
	return &RecordNode{inner: inner, primary: primary}
}

// Eval implements node.Node.
func (r *RecordNode) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	in := value.None
	if r.primary != nil {
		in = r.primary.Eval(ctx, ec)
	}
	out := r.inner.Eval(ctx, ec)

	r.mu.Lock()
	r.history = append(r.history, value.IORecord{Input: in, Output: out, Timestamp: time.Now()})
	if len(r.history) > recordCap {
		r.history = r.history[len(r.history)-recordCap:]
	}
	r.mu.Unlock()
	return out
}

// Reset implements node.Node.
func (r *RecordNode) Reset() {
	r.mu.Lock()
	r.history = nil
	r.mu.Unlock()
	r.inner.Reset()
}

// Latest returns the most recent record; ok is false before the first
// evaluation.
func (r *RecordNode) Latest() (value.IORecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return value.IORecord{}, false
	}
	return r.history[len(r.history)-1], true
}

// History returns a copy of the retained records, oldest first.
func (r *RecordNode) History() []value.IORecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]value.IORecord(nil), r.history...)
}
