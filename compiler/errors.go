package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/registry"
)

// Error kinds categorize compile failures.
const (
	// KindUnboundScope: a Scope input names an injection no enclosing
	// network declares.
	KindUnboundScope = "unbound_scope"

	// KindCyclic: the graph contains a dependency cycle.
	KindCyclic = "cyclic"

	// KindNoSuchNode: a wired input references a missing node id, or an
	// output index beyond a network's exports.
	KindNoSuchNode = "no_such_node"

	// KindArityMismatch: a node's wired parameter count matches no
	// registry candidate.
	KindArityMismatch = "arity_mismatch"

	// KindNoSuchImplementation: the registry holds no matching entry for
	// a proto identifier.
	KindNoSuchImplementation = "no_such_implementation"

	// KindAmbiguous: two or more registry candidates match at equal
	// specificity.
	KindAmbiguous = "ambiguous"

	// KindTypeMismatch: a wired producer's type is incompatible with the
	// consumer's declared parameter type.
	KindTypeMismatch = "type_mismatch"
)

// Error is a compile failure with the document path where it occurred.
// It wraps the underlying cause, so errors.Is and errors.As see through
// it to registry and document sentinel errors.
type Error struct {
	// Kind categorizes the failure.
	Kind string

	// Path is the document-node path the failure is attached to.
	Path []document.NodeID

	// Err is the underlying cause.
	Err error

	// Detail is extra human-readable context.
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("compile: ")
	b.WriteString(e.Kind)
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, id := range e.Path {
			parts[i] = id.String()
		}
		fmt.Fprintf(&b, " at %s", strings.Join(parts, "/"))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func errAt(kind string, path []document.NodeID, err error, detail string) *Error {
	return &Error{Kind: kind, Path: append([]document.NodeID(nil), path...), Err: err, Detail: detail}
}

// classifyRegistryError maps a registry selection failure onto the
// compile error taxonomy.
func classifyRegistryError(path []document.NodeID, err error) *Error {
	var (
		noImpl    *registry.NoSuchImplementationError
		ambiguous *registry.AmbiguousError
		arity     *registry.ArityMismatchError
	)
	switch {
	case errors.As(err, &arity):
		return errAt(KindArityMismatch, path, err, "")
	case errors.As(err, &ambiguous):
		return errAt(KindAmbiguous, path, err, "")
	case errors.As(err, &noImpl) && len(noImpl.Candidates) > 0:
		return errAt(KindTypeMismatch, path, err, "")
	default:
		return errAt(KindNoSuchImplementation, path, err, "")
	}
}
