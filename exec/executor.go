// Package exec instantiates proto networks against the implementation
// registry and drives demand-driven evaluation.
//
// The executor owns a BorrowTree: a map from node id to the instantiated
// type-erased node. Update reconciles the tree against a freshly
// compiled network, reusing every node whose construction identity is
// unchanged so continuous edits re-instantiate only what they touched.
// Evaluation demands the network's single export; nodes pull their
// upstreams themselves, so ordering matters only for instantiation,
// never for dispatch.
//
// Panics inside node bodies are caught at the per-node boundary and
// converted to poison values, isolating faulty implementations without
// aborting the process.
package exec

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/proto"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// ConstructorFailedError reports a registry constructor that refused to
// build a node during Update (e.g. resource exhaustion).
type ConstructorFailedError struct {
	NodeID     document.NodeID
	Identifier document.ProtoIdentifier
	Cause      error
}

// Error implements the error interface.
func (e *ConstructorFailedError) Error() string {
	return fmt.Sprintf("exec: constructor for %s (%s) failed: %v", e.Identifier, e.NodeID, e.Cause)
}

// Unwrap returns the constructor's error.
func (e *ConstructorFailedError) Unwrap() error { return e.Cause }

// Handle is one instantiated node with its construction identity.
type Handle struct {
	// Node is the live implementation behind its panic guard.
	Node node.Node

	// Impl is the raw implementation, for callers that need to reach a
	// concrete type (introspection taps).
	Impl node.Node

	// Identity is the content hash of (identifier, construction args,
	// upstream identities); equal identity means the instance is
	// reusable across updates.
	Identity uint64

	// Path is the document path, for diagnostics.
	Path []document.NodeID
}

// DynamicExecutor instantiates and evaluates proto networks.
type DynamicExecutor struct {
	mu     sync.RWMutex
	reg    *registry.Registry
	tree   map[document.NodeID]*Handle
	export document.NodeID
	hasNet bool
	logger *slog.Logger
}

// New returns an executor resolving constructors against the given
// registry (nil means registry.Default()).
func New(reg *registry.Registry, logger *slog.Logger) *DynamicExecutor {
	if reg == nil {
		reg = registry.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamicExecutor{
		reg:    reg,
		tree:   map[document.NodeID]*Handle{},
		logger: logger,
	}
}

// Update reconciles the BorrowTree against a compiled network. Nodes
// whose identity is unchanged are reused; the rest are re-instantiated
// in dependency order; ids absent from the new network are dropped.
// In-flight evaluations keep their own references to dropped nodes, so
// they finish against the tree they started with.
func (e *DynamicExecutor) Update(network *proto.Network) error {
	export, err := network.Export()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[document.NodeID]*Handle, len(network.Nodes))
	reused, built := 0, 0

	for _, entry := range network.Nodes {
		id, pn := entry.ID, entry.Node

		identity := nodeIdentity(pn, next)
		if existing, ok := e.tree[id]; ok && existing.Identity == identity && !pn.SkipDeduplication {
			next[id] = existing
			reused++
			continue
		}

		impl, err := e.construct(pn, next)
		if err != nil {
			return &ConstructorFailedError{NodeID: id, Identifier: pn.Identifier, Cause: err}
		}
		next[id] = &Handle{
			Node:     &panicGuard{inner: impl, identifier: pn.Identifier, path: documentPathHashes(pn)},
			Impl:     impl,
			Identity: identity,
			Path:     pn.DocumentPath,
		}
		built++
	}

	e.tree = next
	e.export = export
	e.hasNet = true
	e.logger.Debug("executor updated", "nodes", len(next), "reused", reused, "built", built)
	return nil
}

// construct builds one node instance, wiring upstream handles and
// widening adapters.
func (e *DynamicExecutor) construct(pn *proto.Node, tree map[document.NodeID]*Handle) (node.Node, error) {
	if pn.Args.Kind == proto.ConstructionValue {
		return &node.Constant{Value: pn.Args.Value.Get()}, nil
	}

	params := make([]node.Node, len(pn.Args.Nodes))
	for i, dep := range pn.Args.Nodes {
		h, ok := tree[dep]
		if !ok {
			return nil, fmt.Errorf("upstream %s not instantiated", dep)
		}
		params[i] = h.Node
		if pn.Resolved != nil && i < len(pn.Resolved.Widenings) {
			if target := pn.Resolved.Widenings[i]; target != value.KindNone {
				params[i] = &widenNode{inner: params[i], target: target}
			}
		}
	}

	if pn.Resolved == nil {
		return nil, fmt.Errorf("node %s was not type-checked", pn.Identifier)
	}
	entry, ok := e.reg.EntryAt(pn.Resolved.EntryIndex)
	if !ok || entry.Identifier != pn.Identifier {
		// The registry may have been swapped since compilation; fall
		// back to re-selecting with the recorded types.
		sel, err := e.reg.Choose(pn.Identifier, pn.Resolved.Input, pn.Resolved.Params)
		if err != nil {
			return nil, err
		}
		entry = sel.Entry
	}
	return entry.Construct(registry.Instantiation{
		Params: params,
		Inline: pn.Args.Inline,
		Path:   pn.DocumentPath,
	})
}

// Execute demands the export under the given evaluation context. Node
// failures arrive as poison values inside the result; the returned error
// covers only executor-level conditions (no network loaded).
func (e *DynamicExecutor) Execute(ctx context.Context, ec *evalctx.Context) (value.TaggedValue, error) {
	e.mu.RLock()
	if !e.hasNet {
		e.mu.RUnlock()
		return value.None, fmt.Errorf("exec: Execute before Update")
	}
	h, ok := e.tree[e.export]
	e.mu.RUnlock()
	if !ok {
		return value.None, fmt.Errorf("exec: export node missing from tree")
	}
	return h.Node.Eval(ctx, ec), nil
}

// Handle returns the instantiated node for an id, for introspection.
func (e *DynamicExecutor) Handle(id document.NodeID) (*Handle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.tree[id]
	return h, ok
}

// ResetCaches invalidates every node-internal cache.
func (e *DynamicExecutor) ResetCaches() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, h := range e.tree {
		h.Node.Reset()
	}
}

// nodeIdentity hashes a node's construction identity: its own shape
// mixed with the identities of its upstream handles.
func nodeIdentity(pn *proto.Node, tree map[document.NodeID]*Handle) uint64 {
	d := xxhash.New()
	pn.HashInto(d)
	var buf [8]byte
	for _, dep := range pn.Args.Nodes {
		var upstream uint64
		if h, ok := tree[dep]; ok {
			upstream = h.Identity
		}
		binary.LittleEndian.PutUint64(buf[:], upstream)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func documentPathHashes(pn *proto.Node) []uint64 {
	out := make([]uint64, len(pn.DocumentPath))
	for i, id := range pn.DocumentPath {
		out[i] = uint64(id)
	}
	return out
}

// widenNode applies an approved implicit numeric conversion to its
// upstream's output.
type widenNode struct {
	node.Base
	inner  node.Node
	target value.Kind
}

// Eval implements node.Node.
func (w *widenNode) Eval(ctx context.Context, ec *evalctx.Context) value.TaggedValue {
	v := w.inner.Eval(ctx, ec)
	if v.IsError() {
		return v
	}
	return value.Widen(v, w.target)
}

// Reset implements node.Node.
func (w *widenNode) Reset() { w.inner.Reset() }

// panicGuard converts panics from a node body into poison values at the
// per-node boundary.
type panicGuard struct {
	inner      node.Node
	identifier document.ProtoIdentifier
	path       []uint64
}

// Eval implements node.Node.
func (g *panicGuard) Eval(ctx context.Context, ec *evalctx.Context) (out value.TaggedValue) {
	defer func() {
		if r := recover(); r != nil {
			poison := value.NewError(string(g.identifier), fmt.Sprintf("panic: %v", r))
			out = value.WrapError(poison.ErrValue(), g.path)
		}
	}()
	return g.inner.Eval(ctx, ec)
}

// Reset implements node.Node.
func (g *panicGuard) Reset() { g.inner.Reset() }
