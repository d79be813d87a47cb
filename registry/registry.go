// Package registry stores every primitive node implementation the
// executor can instantiate, keyed by proto identifier and typed
// signature.
//
// Entries are registered at process start; additional runtime
// registrations are allowed and append-only. Selection among overloaded
// entries is deterministic: candidates are considered in registration
// order, specificity ranks exact matches above numeric widenings above
// generic substitutions, and unresolved ties are an error rather than a
// silent pick.
package registry

import (
	"fmt"
	"sync"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/value"
)

// Instantiation carries everything a constructor may need: the upstream
// parameter handles in declaration order, the inline source fragment for
// self-compiling nodes, and the document path for diagnostics.
type Instantiation struct {
	Params []node.Node
	Inline string
	Path   []document.NodeID
}

// Constructor builds the runtime instance of a node.
type Constructor func(inst Instantiation) (node.Node, error)

// ParamHint describes one parameter for editor tooling.
type ParamHint struct {
	// Name is the parameter's display name.
	Name string

	// Widget hints which properties-panel widget edits the parameter
	// (e.g. "number", "color", "checkbox"). Empty means default.
	Widget string
}

// Metadata is the editor-facing description of an entry.
type Metadata struct {
	// Category groups the node in the node catalog (e.g. "Math: Arithmetic").
	Category string

	// Description is the node's documentation blurb.
	Description string

	// Capabilities names the context fields the implementation extracts
	// (see evalctx.Capability*).
	Capabilities []string

	// ParamHints describe the parameters, in declaration order.
	ParamHints []ParamHint
}

// Entry is one registered implementation.
type Entry struct {
	// Identifier is the canonical dotted name.
	Identifier document.ProtoIdentifier

	// Input is the declared call-input type (unit for composed nodes,
	// context for manual composition).
	Input value.TypeDescriptor

	// Params are the declared parameter types; generics allowed.
	Params []value.TypeDescriptor

	// Return is the declared return type; a generic return resolves
	// through the bindings recorded during selection.
	Return value.TypeDescriptor

	// Construct builds the runtime instance.
	Construct Constructor

	// AllowIntToFloat opts the entry into the integer-to-float implicit
	// conversion edge of the widening lattice.
	AllowIntToFloat bool

	// Metadata is the editor-facing description.
	Metadata Metadata
}

// Selection is the result of overload resolution: the chosen entry, the
// generic bindings, the per-parameter widenings the executor must apply
// (value.KindNone means no conversion), and the resolved return type.
type Selection struct {
	Entry      *Entry
	EntryIndex int
	Bindings   map[string]value.TypeDescriptor
	Widenings  []value.Kind
	Return     value.TypeDescriptor
}

// Registry is a table of entries. The zero value is not usable; call New.
type Registry struct {
	mu      sync.RWMutex
	entries []*Entry
	byIdent map[document.ProtoIdentifier][]int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byIdent: make(map[document.ProtoIdentifier][]int)}
}

// Register appends an entry. Registration order is the candidate order
// used by Choose, so keep init-time registration deterministic.
func (r *Registry) Register(e Entry) error {
	if e.Identifier == "" {
		return fmt.Errorf("registry: Register: empty identifier")
	}
	if e.Construct == nil {
		return fmt.Errorf("registry: Register: %s: nil constructor", e.Identifier)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := e
	r.entries = append(r.entries, &entry)
	r.byIdent[e.Identifier] = append(r.byIdent[e.Identifier], len(r.entries)-1)
	return nil
}

// LookupCandidates returns all entries registered under the identifier,
// in registration order.
func (r *Registry) LookupCandidates(id document.ProtoIdentifier) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	indexes := r.byIdent[id]
	out := make([]*Entry, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, r.entries[i])
	}
	return out
}

// Identifiers returns every registered identifier, for diagnostics.
func (r *Registry) Identifiers() []document.ProtoIdentifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]document.ProtoIdentifier, 0, len(r.byIdent))
	for id := range r.byIdent {
		out = append(out, id)
	}
	return out
}

// EntryAt returns the entry at a selection's registration index.
func (r *Registry) EntryAt(index int) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.entries) {
		return nil, false
	}
	return r.entries[index], true
}

var defaultRegistry = New()

// Default returns the process-wide registry that init-time registrations
// target and a runtime uses unless configured otherwise.
func Default() *Registry { return defaultRegistry }

// MustRegister registers into the default registry, panicking on
// malformed entries; intended for init functions.
func MustRegister(e Entry) {
	if err := defaultRegistry.Register(e); err != nil {
		panic(err)
	}
}
