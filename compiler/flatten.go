package compiler

import (
	"fmt"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/value"
)

// paramRefKind tags a flattened input reference.
type paramRefKind uint8

const (
	refNode paramRefKind = iota
	refValue
)

// paramRef is an input slot after flattening: either a flat-space node
// reference or an embedded literal.
type paramRef struct {
	kind paramRefKind
	node document.NodeID
	val  value.TaggedValue
}

func nodeRef(id document.NodeID) paramRef   { return paramRef{kind: refNode, node: id} }
func valueRef(v value.TaggedValue) paramRef { return paramRef{kind: refValue, val: v} }

// flatNode is one node of the flattened graph, before lowering to proto
// form. A non-nil literal marks a constant producer; everything else
// names a registry implementation.
type flatNode struct {
	id         document.NodeID
	identifier document.ProtoIdentifier
	params     []paramRef
	inline     string
	manual     string
	skipDedup  bool
	memoCut    bool
	monitor    bool
	literal    *value.TaggedValue
	path       []document.NodeID
}

// scopeFrame resolves the scope injections of one enclosing network.
// Resolution is lazy: an injection may bind a wrapper node that is only
// flattened on first use.
type scopeFrame struct {
	names map[string]func() (paramRef, string, error)
}

// flattener accumulates the flat graph.
type flattener struct {
	nodes map[document.NodeID]*flatNode

	// scopeChecks defer injection type checking until node return types
	// are resolved.
	scopeChecks []scopeCheck
}

type scopeCheck struct {
	ref      paramRef
	declared string
	path     []document.NodeID
}

const (
	identIdentity = document.ProtoIdentifier("graphene_core::ops::identity")
)

// flatten inlines one network into flat space.
//
// path is the ancestor wrapper chain (its ids derive the flat ids of
// this network's nodes); imports are the parent-fed inputs, already in
// flat space; scopes is the stack of enclosing injection frames,
// innermost last. It returns the network's exports resolved to flat
// space.
func (f *flattener) flatten(net *document.NodeNetwork, path []document.NodeID, imports []paramRef, scopes []scopeFrame) ([]paramRef, error) {
	wrapperExports := map[document.NodeID][]paramRef{}
	wrapperInProgress := map[document.NodeID]bool{}

	var resolveRef func(local document.NodeID, out int) (paramRef, error)
	var resolveInput func(in document.NodeInput, owner []document.NodeID) (paramRef, error)
	var ensureWrapper func(local document.NodeID) ([]paramRef, error)

	// The frame for this network's own injections, visible to all
	// descendants (and to this network's nodes themselves).
	frame := scopeFrame{names: map[string]func() (paramRef, string, error){}}
	for name, inj := range net.ScopeInjections {
		inj := inj
		frame.names[name] = func() (paramRef, string, error) {
			ref, err := resolveRef(inj.NodeID, 0)
			return ref, inj.Type, err
		}
	}
	scopes = append(scopes, frame)

	ensureWrapper = func(local document.NodeID) ([]paramRef, error) {
		if exports, ok := wrapperExports[local]; ok {
			return exports, nil
		}
		nodePath := append(append([]document.NodeID(nil), path...), local)
		if wrapperInProgress[local] {
			return nil, errAt(KindCyclic, nodePath, document.ErrCycle, "nested networks form a cycle")
		}
		wrapperInProgress[local] = true
		defer delete(wrapperInProgress, local)

		wrapper := net.Nodes[local]
		feeds := make([]paramRef, len(wrapper.Inputs))
		for slot, in := range wrapper.Inputs {
			ref, err := resolveInput(in, nodePath)
			if err != nil {
				return nil, err
			}
			feeds[slot] = ref
		}
		exports, err := f.flatten(wrapper.Implementation.Network, nodePath, feeds, scopes)
		if err != nil {
			return nil, err
		}
		wrapperExports[local] = exports
		return exports, nil
	}

	resolveRef = func(local document.NodeID, out int) (paramRef, error) {
		nodePath := append(append([]document.NodeID(nil), path...), local)
		node, ok := net.Nodes[local]
		if !ok {
			return paramRef{}, errAt(KindNoSuchNode, nodePath, document.ErrNoSuchNode, "")
		}
		if node.Visible && node.Implementation.Kind == document.ImplementationKindNetwork {
			if node.Implementation.Network == nil {
				return paramRef{}, errAt(KindNoSuchNode, nodePath, document.ErrNoSuchNode, "nil nested network")
			}
			exports, err := ensureWrapper(local)
			if err != nil {
				return paramRef{}, err
			}
			if out < 0 || out >= len(exports) {
				return paramRef{}, errAt(KindNoSuchNode, nodePath, document.ErrExportOutOfRange,
					fmt.Sprintf("export %d of %d", out, len(exports)))
			}
			return exports[out], nil
		}
		if out != 0 {
			return paramRef{}, errAt(KindNoSuchNode, nodePath, document.ErrExportOutOfRange,
				fmt.Sprintf("output %d of a single-output node", out))
		}
		return nodeRef(local.InPath(path)), nil
	}

	resolveInput = func(in document.NodeInput, owner []document.NodeID) (paramRef, error) {
		switch in.Kind {
		case document.InputKindNode:
			return resolveRef(in.NodeID, in.OutputIndex)
		case document.InputKindValue:
			return valueRef(in.Value), nil
		case document.InputKindNetwork:
			if in.InputIndex < 0 || in.InputIndex >= len(imports) {
				return paramRef{}, errAt(KindNoSuchNode, owner, document.ErrImportOutOfRange,
					fmt.Sprintf("import %d of %d", in.InputIndex, len(imports)))
			}
			return imports[in.InputIndex], nil
		case document.InputKindScope:
			for i := len(scopes) - 1; i >= 0; i-- {
				resolve, ok := scopes[i].names[in.Scope]
				if !ok {
					continue
				}
				ref, declared, err := resolve()
				if err != nil {
					return paramRef{}, err
				}
				f.scopeChecks = append(f.scopeChecks, scopeCheck{ref: ref, declared: declared, path: owner})
				return ref, nil
			}
			return paramRef{}, errAt(KindUnboundScope, owner, nil, fmt.Sprintf("scope %q", in.Scope))
		case document.InputKindInline:
			// Inline fragments are construction data, not wires; the
			// caller strips them before resolving.
			return paramRef{}, errAt(KindNoSuchNode, owner, nil, "inline input in wire position")
		}
		return paramRef{}, errAt(KindNoSuchNode, owner, nil, "invalid input kind")
	}

	// Lower every local node. Wrappers flatten on demand through
	// resolveRef; iterating them here too catches networks nobody
	// consumes (they still flatten, then dead-code elimination drops
	// their bodies).
	ids := net.SortedIDs()
	for _, local := range ids {
		node := net.Nodes[local]
		nodePath := append(append([]document.NodeID(nil), path...), local)
		flatID := local.InPath(path)

		if !node.Visible {
			// An invisible node degrades to identity on its primary
			// input, keeping its id alive for consumers.
			primary := valueRef(value.None)
			if in, ok := node.PrimaryInput(); ok {
				ref, err := resolveInput(in, nodePath)
				if err != nil {
					return nil, err
				}
				primary = ref
			}
			f.nodes[flatID] = &flatNode{
				id:         flatID,
				identifier: identIdentity,
				params:     []paramRef{primary},
				path:       nodePath,
			}
			continue
		}

		switch node.Implementation.Kind {
		case document.ImplementationKindNetwork:
			if _, err := ensureWrapper(local); err != nil {
				return nil, err
			}

		case document.ImplementationKindProto:
			fn := &flatNode{
				id:         flatID,
				identifier: node.Implementation.Proto,
				manual:     node.ManualComposition,
				skipDedup:  node.SkipDeduplication,
				memoCut:    node.Metadata["memo"] == "true",
				monitor:    node.Metadata["monitor"] == "true",
				path:       nodePath,
			}
			for _, in := range node.Inputs {
				if in.Kind == document.InputKindInline {
					fn.inline = in.Source
					continue
				}
				ref, err := resolveInput(in, nodePath)
				if err != nil {
					return nil, err
				}
				fn.params = append(fn.params, ref)
			}
			f.nodes[flatID] = fn

		case document.ImplementationKindExtract:
			target, ok := net.Nodes[node.Implementation.Extract]
			if !ok {
				return nil, errAt(KindNoSuchNode, nodePath, document.ErrNoSuchNode,
					fmt.Sprintf("extract target %s", node.Implementation.Extract))
			}
			captured := value.NewNodeRef(target.Clone(), uint64(node.Implementation.Extract.InPath(path)))
			f.nodes[flatID] = &flatNode{
				id:      flatID,
				literal: &captured,
				path:    nodePath,
			}
		}
	}

	exports := make([]paramRef, len(net.Exports))
	for i, export := range net.Exports {
		ref, err := resolveInput(export, path)
		if err != nil {
			return nil, err
		}
		exports[i] = ref
	}
	return exports, nil
}
