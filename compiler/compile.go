// Package compiler lowers a user-authored document graph to a flat,
// ordered, type-checked proto network.
//
// Compilation runs a fixed stage pipeline: scope resolution, network
// flattening, the visibility pass, composition insertion, memoization
// and introspection wrapping, dead-code elimination, topological
// ordering, type inference against the registry, and emission. Every failure carries
// the document path it is attached to; a failed compilation emits no
// network.
package compiler

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/proto"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// Proto identifiers of the synthetic nodes compilation inserts.
const (
	IdentifierValue      = document.ProtoIdentifier("graphene_core::value")
	IdentifierIdentity   = identIdentity
	IdentifierCompose    = document.ProtoIdentifier("graphene_core::structural::compose")
	IdentifierMemo       = document.ProtoIdentifier("graphene_core::memo::memo")
	IdentifierImpureMemo = document.ProtoIdentifier("graphene_core::memo::impure_memo")
	IdentifierMonitor    = document.ProtoIdentifier("graphene_core::memo::monitor")
)

// Options configure one compilation.
type Options struct {
	// Registry resolves proto identifiers; nil means registry.Default().
	Registry *registry.Registry

	// ScopeValues are host-supplied scope injections: each becomes a
	// constant node plus an injection declared on the root network.
	ScopeValues map[string]value.TaggedValue

	// DisableMemo skips memoization insertion at the export, for hosts
	// that drive caching themselves.
	DisableMemo bool

	// MonitorAll inserts an introspection tap around every node instead
	// of only those flagged in node metadata.
	MonitorAll bool
}

// Compile lowers the network. The input network is not mutated.
func Compile(network *document.NodeNetwork, opts Options) (*proto.Network, error) {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}

	root := network
	if len(opts.ScopeValues) > 0 {
		root = injectScopeValues(network, opts.ScopeValues)
	}
	if len(root.Exports) == 0 {
		return nil, errAt(KindNoSuchNode, nil, nil, "network exports nothing")
	}

	// Stages (a)-(c): scope resolution, flattening, and the visibility
	// pass all happen inside the flattener.
	fl := &flattener{nodes: map[document.NodeID]*flatNode{}}
	exports, err := fl.flatten(root, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	b := &builder{
		nodes:      map[document.NodeID]*proto.Node{},
		monitorAll: opts.MonitorAll,
	}

	// Stage (d): lower flat nodes, synthesizing value producers and
	// compose glue.
	if err := b.lower(fl.nodes); err != nil {
		return nil, err
	}
	entry := b.refID(exports[0], synthID(0, "export", 0))

	// Memoization and introspection wrapping before ordering, so the
	// wrappers participate in DCE and type checking like any node. The
	// export follows its own wrappers outward so none are orphaned.
	outermost := b.insertWraps(fl.nodes)
	if wrapped, ok := outermost[entry]; ok {
		entry = wrapped
	}
	if !opts.DisableMemo {
		entry = b.wrap(entry, IdentifierImpureMemo, synthID(entry, "export_memo", 0), nil)
	}

	// Stage (e): dead-code elimination from the export.
	b.eliminateDead(entry)

	// Stage (f): topological order, ties broken by id.
	order, err := b.topoSort()
	if err != nil {
		return nil, err
	}

	// Stage (g): type inference and registry selection.
	if err := b.typecheck(reg, order, fl.scopeChecks); err != nil {
		return nil, err
	}

	// Stage (h): emission.
	out := &proto.Network{Inputs: []document.NodeID{entry}}
	for _, id := range order {
		out.Nodes = append(out.Nodes, proto.Entry{ID: id, Node: b.nodes[id]})
	}
	return out, nil
}

// injectScopeValues clones the root and declares one constant-backed
// injection per host value.
func injectScopeValues(network *document.NodeNetwork, values map[string]value.TaggedValue) *document.NodeNetwork {
	root := network.Clone()
	if root.ScopeInjections == nil {
		root.ScopeInjections = map[string]document.ScopeInjection{}
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := values[name]
		id := document.NodeID(xxhash.Sum64String("scope-value:" + name))
		root.Nodes[id] = &document.DocumentNode{
			Inputs:         []document.NodeInput{document.ValueInput(v, false)},
			Implementation: document.ProtoImplementation(IdentifierIdentity),
			Visible:        true,
		}
		root.ScopeInjections[name] = document.ScopeInjection{NodeID: id, Type: v.Type().Name()}
	}
	return root
}

// synthID derives the id of a synthetic node from its parent and role.
func synthID(parent document.NodeID, tag string, slot int) document.NodeID {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(parent))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(tag)
	binary.LittleEndian.PutUint64(buf[:], uint64(slot))
	_, _ = d.Write(buf[:])
	return document.NodeID(d.Sum64())
}

// builder holds the proto graph under construction.
type builder struct {
	nodes      map[document.NodeID]*proto.Node
	monitorAll bool
}

// refID materializes a paramRef as a node id, synthesizing a constant
// producer for literals.
func (b *builder) refID(ref paramRef, literalID document.NodeID) document.NodeID {
	if ref.kind == refNode {
		return ref.node
	}
	b.nodes[literalID] = &proto.Node{
		Identifier: IdentifierValue,
		Input:      proto.NoInput(),
		Args:       proto.ValueArgs(ref.val),
	}
	return literalID
}

// lower converts every flat node to proto form and inserts compose glue
// on auto-composed primary inputs (stage (d)).
func (b *builder) lower(flat map[document.NodeID]*flatNode) error {
	ids := make([]document.NodeID, 0, len(flat))
	for id := range flat {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		fn := flat[id]

		if fn.literal != nil {
			b.nodes[id] = &proto.Node{
				Identifier:   IdentifierValue,
				Input:        proto.NoInput(),
				Args:         proto.ValueArgs(*fn.literal),
				DocumentPath: fn.path,
			}
			continue
		}

		producers := make([]document.NodeID, len(fn.params))
		for slot, ref := range fn.params {
			producers[slot] = b.refID(ref, synthID(id, "value", slot))
		}

		input := proto.NoInput()
		if fn.manual != "" {
			input = proto.ManualComposition(fn.manual)
		}
		args := proto.NodeArgs(producers...)
		if fn.inline != "" {
			// Inline fragments ride alongside the wired parameters; the
			// constructor receives both.
			args = proto.ConstructionArgs{Kind: proto.ConstructionInline, Inline: fn.inline, Nodes: producers}
		}
		b.nodes[id] = &proto.Node{
			Identifier:        fn.identifier,
			Input:             input,
			Args:              args,
			DocumentPath:      fn.path,
			SkipDeduplication: fn.skipDedup,
		}

		// Composition insertion: an auto-composed node's primary
		// producer is fronted by compose glue, so the node observes its
		// primary precomputed and its own call input stays unit.
		if fn.manual == "" && len(producers) > 0 {
			composeID := synthID(id, "compose", 0)
			b.nodes[composeID] = &proto.Node{
				Identifier:   IdentifierCompose,
				Input:        proto.ManualComposition(value.TypeContext.Name()),
				Args:         proto.NodeArgs(producers[0]),
				DocumentPath: fn.path,
			}
			b.nodes[id].Args.Nodes[0] = composeID
		}
	}
	return nil
}

// insertWraps adds memo and monitor wrappers around flagged nodes,
// rewiring every consumer to the outermost wrapper. It returns the
// outermost wrapper id per wrapped node.
func (b *builder) insertWraps(flat map[document.NodeID]*flatNode) map[document.NodeID]document.NodeID {
	ids := make([]document.NodeID, 0, len(flat))
	for id := range flat {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	outermost := map[document.NodeID]document.NodeID{}
	for _, id := range ids {
		fn := flat[id]
		if fn.literal != nil {
			continue
		}
		outer := id
		if fn.memoCut {
			outer = b.wrap(outer, IdentifierMemo, synthID(id, "memo", 0), fn.path)
		}
		if fn.monitor || b.monitorAll {
			// The tap also records the node's primary input, reusing the
			// compose glue already in front of it.
			var primary []document.NodeID
			if deps := b.nodes[id].Args.Nodes; len(deps) > 0 {
				primary = deps[:1]
			}
			outer = b.wrap(outer, IdentifierMonitor, MonitorID(id), fn.path)
			b.nodes[outer].Args.Nodes = append(b.nodes[outer].Args.Nodes, primary...)
		}
		if outer != id {
			outermost[id] = outer
		}
	}
	return outermost
}

// wrap inserts a single-parameter wrapper node in front of target and
// rewires all existing consumers to it.
func (b *builder) wrap(target document.NodeID, identifier document.ProtoIdentifier, wrapID document.NodeID, path []document.NodeID) document.NodeID {
	for id, n := range b.nodes {
		if id == wrapID {
			continue
		}
		for i, dep := range n.Args.Nodes {
			if dep == target {
				n.Args.Nodes[i] = wrapID
			}
		}
		if n.Input.Kind == proto.InputNode && n.Input.Node == target {
			n.Input.Node = wrapID
		}
	}
	b.nodes[wrapID] = &proto.Node{
		Identifier:   identifier,
		Input:        proto.ManualComposition(value.TypeContext.Name()),
		Args:         proto.NodeArgs(target),
		DocumentPath: path,
	}
	return wrapID
}

// MonitorID returns the id of the introspection tap wrapped around the
// given flat node, the address Runtime.Introspect resolves.
func MonitorID(flatID document.NodeID) document.NodeID {
	return synthID(flatID, "monitor", 0)
}

func nodeDeps(n *proto.Node) []document.NodeID {
	deps := append([]document.NodeID(nil), n.Args.Nodes...)
	if n.Input.Kind == proto.InputNode {
		deps = append(deps, n.Input.Node)
	}
	return deps
}

// eliminateDead drops nodes unreachable from the entry (stage (e)).
func (b *builder) eliminateDead(entry document.NodeID) {
	reachable := map[document.NodeID]bool{}
	stack := []document.NodeID{entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		if n, ok := b.nodes[id]; ok {
			stack = append(stack, nodeDeps(n)...)
		}
	}
	for id := range b.nodes {
		if !reachable[id] {
			delete(b.nodes, id)
		}
	}
}

// topoSort orders producers before consumers (stage (f)), ties broken by
// ascending id; a cycle is a compile error.
func (b *builder) topoSort() ([]document.NodeID, error) {
	ids := make([]document.NodeID, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	indegree := map[document.NodeID]int{}
	consumers := map[document.NodeID][]document.NodeID{}
	for _, id := range ids {
		indegree[id] += 0
		for _, dep := range nodeDeps(b.nodes[id]) {
			if _, ok := b.nodes[dep]; !ok {
				return nil, errAt(KindNoSuchNode, b.nodes[id].DocumentPath, document.ErrNoSuchNode,
					fmt.Sprintf("proto dependency %s", dep))
			}
			indegree[id]++
			consumers[dep] = append(consumers[dep], id)
		}
	}

	var ready []document.NodeID
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	order := make([]document.NodeID, 0, len(ids))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, c := range consumers[id] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if len(order) != len(ids) {
		var cyclic []document.NodeID
		var path []document.NodeID
		for _, id := range ids {
			if indegree[id] > 0 {
				cyclic = append(cyclic, id)
				if path == nil {
					path = b.nodes[id].DocumentPath
				}
			}
		}
		return nil, errAt(KindCyclic, path, document.ErrCycle, fmt.Sprintf("%v", cyclic))
	}
	return order, nil
}

// typecheck walks nodes in dependency order, resolving each against the
// registry and recording the selection (stage (g)).
func (b *builder) typecheck(reg *registry.Registry, order []document.NodeID, scopeChecks []scopeCheck) error {
	resolved := map[document.NodeID]value.TypeDescriptor{}

	for _, id := range order {
		n := b.nodes[id]

		if n.Args.Kind == proto.ConstructionValue {
			ret := n.Args.Value.Get().Type()
			n.Resolved = &proto.ResolvedTypes{Input: value.TypeUnit, Return: ret}
			resolved[id] = ret
			continue
		}

		inputTy := value.TypeUnit
		if n.Input.Kind == proto.InputManualComposition {
			inputTy = value.Concrete(n.Input.Type)
		}
		paramTys := make([]value.TypeDescriptor, len(n.Args.Nodes))
		for i, dep := range n.Args.Nodes {
			paramTys[i] = resolved[dep]
		}

		sel, err := reg.Choose(n.Identifier, inputTy, paramTys)
		if err != nil {
			return classifyRegistryError(n.DocumentPath, err)
		}
		n.Resolved = &proto.ResolvedTypes{
			Input:      inputTy,
			Params:     paramTys,
			Return:     sel.Return,
			Widenings:  sel.Widenings,
			EntryIndex: sel.EntryIndex,
		}
		resolved[id] = sel.Return
	}

	for _, check := range scopeChecks {
		if check.declared == "" {
			continue
		}
		declared := value.Concrete(check.declared)
		var got value.TypeDescriptor
		switch check.ref.kind {
		case refValue:
			got = check.ref.val.Type()
		case refNode:
			ty, ok := resolved[check.ref.node]
			if !ok {
				// The injected producer was eliminated as dead code
				// together with its only consumers; nothing to check.
				continue
			}
			got = ty
		}
		if !got.Equal(declared) {
			return errAt(KindTypeMismatch, check.path, &value.TypeMismatchError{
				Expected: declared,
				Got:      got,
			}, "scope injection")
		}
	}
	return nil
}
