package document

import (
	"fmt"
	"sort"

	"github.com/graphene-go/graphene/value"
)

// AddNode inserts a node under the given id. Inputs wired to missing
// nodes or out-of-range imports are rejected with the network unchanged.
func (n *NodeNetwork) AddNode(id NodeID, node *DocumentNode) error {
	if _, exists := n.Nodes[id]; exists {
		return fmt.Errorf("document: AddNode: id %s already present", id)
	}
	for slot, in := range node.Inputs {
		switch in.Kind {
		case InputKindNode:
			if _, ok := n.Nodes[in.NodeID]; !ok {
				return fmt.Errorf("document: AddNode: input[%d]: %w: %s", slot, ErrNoSuchNode, in.NodeID)
			}
		case InputKindNetwork:
			if in.InputIndex < 0 || in.InputIndex >= n.Imports {
				return fmt.Errorf("document: AddNode: input[%d]: %w", slot, ErrImportOutOfRange)
			}
		}
	}
	n.Nodes[id] = node
	return nil
}

// RemoveNode deletes a node. Inputs and exports wired to it are demoted
// to the None literal so invariant 1 survives; consumers keep their arity.
func (n *NodeNetwork) RemoveNode(id NodeID) error {
	if _, ok := n.Nodes[id]; !ok {
		return fmt.Errorf("document: RemoveNode: %w: %s", ErrNoSuchNode, id)
	}
	delete(n.Nodes, id)
	orphan := ValueInput(value.None, false)
	for _, other := range n.Nodes {
		for slot, in := range other.Inputs {
			if in.Kind == InputKindNode && in.NodeID == id {
				other.Inputs[slot] = orphan
			}
		}
	}
	for i, export := range n.Exports {
		if export.Kind == InputKindNode && export.NodeID == id {
			n.Exports[i] = orphan
		}
	}
	for name, inj := range n.ScopeInjections {
		if inj.NodeID == id {
			delete(n.ScopeInjections, name)
		}
	}
	return nil
}

// ReplaceNode swaps a node's body while keeping its id and consumers.
func (n *NodeNetwork) ReplaceNode(id NodeID, node *DocumentNode) error {
	if _, ok := n.Nodes[id]; !ok {
		return fmt.Errorf("document: ReplaceNode: %w: %s", ErrNoSuchNode, id)
	}
	for slot, in := range node.Inputs {
		if in.Kind == InputKindNode {
			if _, ok := n.Nodes[in.NodeID]; !ok {
				return fmt.Errorf("document: ReplaceNode: input[%d]: %w: %s", slot, ErrNoSuchNode, in.NodeID)
			}
			if in.NodeID == id || n.reaches(in.NodeID, id) {
				return fmt.Errorf("document: ReplaceNode: %w", ErrCycle)
			}
		}
	}
	n.Nodes[id] = node
	return nil
}

// ConnectInput wires a node's input slot to an upstream output. The edge
// is rejected when it would close a cycle.
func (n *NodeNetwork) ConnectInput(id NodeID, slot int, upstream NodeID, outputIndex int) error {
	node, ok := n.Nodes[id]
	if !ok {
		return fmt.Errorf("document: ConnectInput: %w: %s", ErrNoSuchNode, id)
	}
	if _, ok := n.Nodes[upstream]; !ok {
		return fmt.Errorf("document: ConnectInput: %w: upstream %s", ErrNoSuchNode, upstream)
	}
	if slot < 0 || slot >= len(node.Inputs) {
		return fmt.Errorf("document: ConnectInput: %w: slot %d of %d", ErrSlotOutOfRange, slot, len(node.Inputs))
	}
	if upstream == id || n.reaches(upstream, id) {
		return fmt.Errorf("document: ConnectInput: %w: %s -> %s", ErrCycle, upstream, id)
	}
	node.Inputs[slot] = NodeInputOf(upstream, outputIndex)
	return nil
}

// DisconnectInput demotes a node's input slot to the None literal.
func (n *NodeNetwork) DisconnectInput(id NodeID, slot int) error {
	node, ok := n.Nodes[id]
	if !ok {
		return fmt.Errorf("document: DisconnectInput: %w: %s", ErrNoSuchNode, id)
	}
	if slot < 0 || slot >= len(node.Inputs) {
		return fmt.Errorf("document: DisconnectInput: %w: slot %d of %d", ErrSlotOutOfRange, slot, len(node.Inputs))
	}
	node.Inputs[slot] = ValueInput(value.None, false)
	return nil
}

// SetValue embeds a literal in a node's input slot, the primitive behind
// every properties-panel edit.
func (n *NodeNetwork) SetValue(id NodeID, slot int, v value.TaggedValue) error {
	node, ok := n.Nodes[id]
	if !ok {
		return fmt.Errorf("document: SetValue: %w: %s", ErrNoSuchNode, id)
	}
	if slot < 0 || slot >= len(node.Inputs) {
		return fmt.Errorf("document: SetValue: %w: slot %d of %d", ErrSlotOutOfRange, slot, len(node.Inputs))
	}
	exposed := node.Inputs[slot].Kind == InputKindValue && node.Inputs[slot].Exposed
	node.Inputs[slot] = ValueInput(v, exposed)
	return nil
}

// reaches reports whether `to` is transitively upstream-reachable from
// `from` along input edges.
func (n *NodeNetwork) reaches(from, to NodeID) bool {
	seen := map[NodeID]bool{}
	stack := []NodeID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		node, ok := n.Nodes[id]
		if !ok {
			continue
		}
		stack = append(stack, inputDependencies(node)...)
	}
	return false
}

// Group wraps the given nodes into a fresh subnetwork node. Edges from
// outside the selection become imports of the inner network; edges
// consumed outside become exports, and outside consumers are rewired to
// the wrapper. Returns the wrapper's id.
func (n *NodeNetwork) Group(ids []NodeID, gen *IDGenerator) (NodeID, error) {
	selected := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		if _, ok := n.Nodes[id]; !ok {
			return 0, fmt.Errorf("document: Group: %w: %s", ErrNoSuchNode, id)
		}
		selected[id] = true
	}
	if len(selected) == 0 {
		return 0, fmt.Errorf("document: Group: empty selection")
	}

	inner := NewNetwork(0)
	wrapper := &DocumentNode{Visible: true}

	// Move the selection, rewiring boundary-crossing inputs to imports.
	// Identical outside sources share one import slot.
	importSlots := map[string]int{}
	sortedSelection := make([]NodeID, 0, len(selected))
	for id := range selected {
		sortedSelection = append(sortedSelection, id)
	}
	sort.Slice(sortedSelection, func(i, j int) bool { return sortedSelection[i] < sortedSelection[j] })

	for _, id := range sortedSelection {
		node := n.Nodes[id]
		moved := node.Clone()
		for slot, in := range moved.Inputs {
			if in.Kind != InputKindNode || selected[in.NodeID] {
				continue
			}
			key := fmt.Sprintf("%d:%d", in.NodeID, in.OutputIndex)
			idx, ok := importSlots[key]
			if !ok {
				idx = inner.Imports
				importSlots[key] = idx
				inner.Imports++
				wrapper.Inputs = append(wrapper.Inputs, in)
			}
			moved.Inputs[slot] = NetworkInput(idx, "")
		}
		inner.Nodes[id] = moved
	}

	// Selection outputs consumed outside become exports; rewire consumers
	// to the wrapper.
	wrapperID := gen.Next()
	exportSlots := map[NodeID]int{}
	exportOf := func(id NodeID) int {
		idx, ok := exportSlots[id]
		if !ok {
			idx = len(inner.Exports)
			exportSlots[id] = idx
			inner.Exports = append(inner.Exports, NodeInputOf(id, 0))
		}
		return idx
	}
	for _, id := range n.SortedIDs() {
		if selected[id] {
			continue
		}
		node := n.Nodes[id]
		for slot, in := range node.Inputs {
			if in.Kind == InputKindNode && selected[in.NodeID] {
				node.Inputs[slot] = NodeInputOf(wrapperID, exportOf(in.NodeID))
			}
		}
	}
	for i, export := range n.Exports {
		if export.Kind == InputKindNode && selected[export.NodeID] {
			n.Exports[i] = NodeInputOf(wrapperID, exportOf(export.NodeID))
		}
	}
	if len(inner.Exports) == 0 {
		// Nothing consumed the selection; export the highest node so the
		// group still has an output.
		last := sortedSelection[len(sortedSelection)-1]
		inner.Exports = append(inner.Exports, NodeInputOf(last, 0))
	}

	for id := range selected {
		delete(n.Nodes, id)
	}
	wrapper.Implementation = NetworkImplementation(inner)
	n.Nodes[wrapperID] = wrapper
	return wrapperID, nil
}

// Ungroup inlines a wrapper node's network into this one. Inner ids are
// re-derived under the wrapper's path; consumers of the wrapper are
// rewired to the corresponding inner exports.
func (n *NodeNetwork) Ungroup(id NodeID) error {
	wrapper, ok := n.Nodes[id]
	if !ok {
		return fmt.Errorf("document: Ungroup: %w: %s", ErrNoSuchNode, id)
	}
	if wrapper.Implementation.Kind != ImplementationKindNetwork || wrapper.Implementation.Network == nil {
		return fmt.Errorf("document: Ungroup: %s is not a network node", id)
	}
	inner := wrapper.Implementation.Network
	path := []NodeID{id}

	// Pre-validate every index the splice will touch so a failure cannot
	// leave the network half-rewired.
	for _, innerNode := range inner.Nodes {
		for _, in := range innerNode.Inputs {
			if in.Kind == InputKindNetwork && (in.InputIndex < 0 || in.InputIndex >= len(wrapper.Inputs)) {
				return fmt.Errorf("document: Ungroup: %w", ErrImportOutOfRange)
			}
		}
	}
	checkExportIndex := func(index int) error {
		if index < 0 || index >= len(inner.Exports) {
			return fmt.Errorf("document: Ungroup: %w: export %d", ErrExportOutOfRange, index)
		}
		return nil
	}
	for _, node := range n.Nodes {
		for _, in := range node.Inputs {
			if in.Kind == InputKindNode && in.NodeID == id {
				if err := checkExportIndex(in.OutputIndex); err != nil {
					return err
				}
			}
		}
	}
	for _, export := range n.Exports {
		if export.Kind == InputKindNode && export.NodeID == id {
			if err := checkExportIndex(export.OutputIndex); err != nil {
				return err
			}
		}
	}

	// Splice the inner nodes in under path-derived ids.
	rename := make(map[NodeID]NodeID, len(inner.Nodes))
	for _, innerID := range inner.SortedIDs() {
		rename[innerID] = innerID.InPath(path)
	}
	for _, innerID := range inner.SortedIDs() {
		moved := inner.Nodes[innerID].Clone()
		for slot, in := range moved.Inputs {
			switch in.Kind {
			case InputKindNode:
				moved.Inputs[slot] = NodeInputOf(rename[in.NodeID], in.OutputIndex)
			case InputKindNetwork:
				moved.Inputs[slot] = wrapper.Inputs[in.InputIndex]
			}
		}
		n.Nodes[rename[innerID]] = moved
	}

	// Rewire wrapper consumers to the spliced export targets. Indices
	// were validated above.
	resolveExport := func(index int) NodeInput {
		export := inner.Exports[index]
		if export.Kind == InputKindNode {
			return NodeInputOf(rename[export.NodeID], export.OutputIndex)
		}
		return export
	}
	for _, otherID := range n.SortedIDs() {
		if otherID == id {
			continue
		}
		node := n.Nodes[otherID]
		for slot, in := range node.Inputs {
			if in.Kind == InputKindNode && in.NodeID == id {
				node.Inputs[slot] = resolveExport(in.OutputIndex)
			}
		}
	}
	for i, export := range n.Exports {
		if export.Kind == InputKindNode && export.NodeID == id {
			n.Exports[i] = resolveExport(export.OutputIndex)
		}
	}

	delete(n.Nodes, id)
	return nil
}
