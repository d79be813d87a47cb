package document

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for document graph violations. Mutation primitives wrap
// these; errors.Is works across the wrapping.
var (
	// ErrNoSuchNode indicates a reference to a node id absent from the network.
	ErrNoSuchNode = errors.New("no such node")

	// ErrCycle indicates a mutation or validation found a dependency cycle.
	ErrCycle = errors.New("cycle in node graph")

	// ErrImportOutOfRange indicates a Network input index >= the import count.
	ErrImportOutOfRange = errors.New("import index out of range")

	// ErrExportOutOfRange indicates an output index beyond a node's exports.
	ErrExportOutOfRange = errors.New("export index out of range")

	// ErrSlotOutOfRange indicates an input slot index beyond a node's inputs.
	ErrSlotOutOfRange = errors.New("input slot out of range")
)

// ScopeInjection is a named, typed binding a network supplies to its
// descendants. Scope inputs anywhere below resolve to the injected node
// at compile time and type-check against Type.
type ScopeInjection struct {
	// NodeID is the node whose output the injection binds.
	NodeID NodeID `json:"node_id"`

	// Type is the canonical spelling of the declared binding type.
	Type string `json:"type"`
}

// NodeNetwork is a graph of document nodes with imports, exports, and
// scope injections. The zero value is an empty network with no imports.
type NodeNetwork struct {
	// Exports are the network's outputs, indexed left to right.
	Exports []NodeInput `json:"exports"`

	// Nodes maps ids to nodes.
	Nodes map[NodeID]*DocumentNode `json:"nodes"`

	// Imports is the size of the network's input tuple; Network(i) inputs
	// of child nodes must satisfy i < Imports.
	Imports int `json:"imports,omitempty"`

	// ScopeInjections are the named bindings this network supplies.
	ScopeInjections map[string]ScopeInjection `json:"scope_injections,omitempty"`
}

// NewNetwork returns an empty network with the given import count.
func NewNetwork(imports int) *NodeNetwork {
	return &NodeNetwork{
		Nodes:   make(map[NodeID]*DocumentNode),
		Imports: imports,
	}
}

// Node returns the node with the given id; ok is false when absent.
func (n *NodeNetwork) Node(id NodeID) (*DocumentNode, bool) {
	node, ok := n.Nodes[id]
	return node, ok
}

// SortedIDs returns the network's node ids in ascending order, the
// deterministic iteration order used everywhere a map walk would
// otherwise leak randomness into compilation.
func (n *NodeNetwork) SortedIDs() []NodeID {
	ids := make([]NodeID, 0, len(n.Nodes))
	for id := range n.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// inputDependencies returns the node-wired upstream ids of a node.
func inputDependencies(node *DocumentNode) []NodeID {
	var deps []NodeID
	for _, in := range node.Inputs {
		if in.Kind == InputKindNode {
			deps = append(deps, in.NodeID)
		}
	}
	if node.Implementation.Kind == ImplementationKindExtract {
		deps = append(deps, node.Implementation.Extract)
	}
	return deps
}

// NodesInDependencyOrder returns node ids topologically ordered so every
// producer precedes its consumers, ties broken by ascending id. It
// returns ErrCycle when the network is cyclic; the error lists every node
// left unordered, the cycle's members together with anything downstream
// of them.
func (n *NodeNetwork) NodesInDependencyOrder() ([]NodeID, error) {
	// Kahn's algorithm over producer -> consumer edges.
	indegree := make(map[NodeID]int, len(n.Nodes))
	consumers := make(map[NodeID][]NodeID, len(n.Nodes))
	for _, id := range n.SortedIDs() {
		node := n.Nodes[id]
		if _, ok := indegree[id]; !ok {
			indegree[id] = 0
		}
		for _, dep := range inputDependencies(node) {
			if _, ok := n.Nodes[dep]; !ok {
				return nil, fmt.Errorf("%w: %s referenced by %s", ErrNoSuchNode, dep, id)
			}
			indegree[id]++
			consumers[dep] = append(consumers[dep], id)
		}
	}

	ready := make([]NodeID, 0, len(n.Nodes))
	for _, id := range n.SortedIDs() {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]NodeID, 0, len(n.Nodes))
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

	if len(order) != len(n.Nodes) {
		var cyclic []NodeID
		for _, id := range n.SortedIDs() {
			if indegree[id] > 0 {
				cyclic = append(cyclic, id)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrCycle, cyclic)
	}
	return order, nil
}

// Resolve descends through nested Network implementations following the
// given id path and returns the addressed node.
func (n *NodeNetwork) Resolve(path []NodeID) (*DocumentNode, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNoSuchNode)
	}
	current := n
	for i, id := range path {
		node, ok := current.Nodes[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s at path depth %d", ErrNoSuchNode, id, i)
		}
		if i == len(path)-1 {
			return node, nil
		}
		if node.Implementation.Kind != ImplementationKindNetwork || node.Implementation.Network == nil {
			return nil, fmt.Errorf("%w: %s is not a network", ErrNoSuchNode, id)
		}
		current = node.Implementation.Network
	}
	return nil, fmt.Errorf("%w: %v", ErrNoSuchNode, path)
}

// Validate checks the structural invariants: every wired input references
// an id in this network, every import index is in range, and the graph is
// acyclic. Nested networks validate recursively.
func (n *NodeNetwork) Validate() error {
	check := func(in NodeInput, owner string) error {
		switch in.Kind {
		case InputKindNode:
			if _, ok := n.Nodes[in.NodeID]; !ok {
				return fmt.Errorf("%w: %s wired from %s", ErrNoSuchNode, in.NodeID, owner)
			}
		case InputKindNetwork:
			if in.InputIndex < 0 || in.InputIndex >= n.Imports {
				return fmt.Errorf("%w: import %d of %d in %s", ErrImportOutOfRange, in.InputIndex, n.Imports, owner)
			}
		}
		return nil
	}

	for i, export := range n.Exports {
		if err := check(export, fmt.Sprintf("export[%d]", i)); err != nil {
			return err
		}
	}
	for _, id := range n.SortedIDs() {
		node := n.Nodes[id]
		for slot, in := range node.Inputs {
			if err := check(in, fmt.Sprintf("%s input[%d]", id, slot)); err != nil {
				return err
			}
		}
		if node.Implementation.Kind == ImplementationKindNetwork && node.Implementation.Network != nil {
			if err := node.Implementation.Network.Validate(); err != nil {
				return fmt.Errorf("in %s: %w", id, err)
			}
		}
	}
	for name, inj := range n.ScopeInjections {
		if _, ok := n.Nodes[inj.NodeID]; !ok {
			return fmt.Errorf("%w: scope injection %q binds %s", ErrNoSuchNode, name, inj.NodeID)
		}
	}
	if _, err := n.NodesInDependencyOrder(); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy of the network.
func (n *NodeNetwork) Clone() *NodeNetwork {
	cp := &NodeNetwork{
		Exports: append([]NodeInput(nil), n.Exports...),
		Nodes:   make(map[NodeID]*DocumentNode, len(n.Nodes)),
		Imports: n.Imports,
	}
	for id, node := range n.Nodes {
		cp.Nodes[id] = node.Clone()
	}
	if n.ScopeInjections != nil {
		cp.ScopeInjections = make(map[string]ScopeInjection, len(n.ScopeInjections))
		for name, inj := range n.ScopeInjections {
			cp.ScopeInjections[name] = inj
		}
	}
	return cp
}
