package graphene

import (
	"errors"
	"fmt"
)

// Sentinel errors for common runtime error conditions. These errors can
// be used with errors.Is() for error checking.
var (
	// ErrHandleNotFound indicates the compiled handle is unknown to this
	// runtime (or already closed).
	ErrHandleNotFound = errors.New("compiled handle not found")

	// ErrCompileFailed indicates compilation rejected the document graph.
	// The wrapped compiler error carries the document path and kind.
	ErrCompileFailed = errors.New("compilation failed")

	// ErrUpdateFailed indicates the executor could not instantiate the
	// compiled network (a constructor refused).
	ErrUpdateFailed = errors.New("executor update failed")

	// ErrClosed indicates the runtime has been shut down.
	ErrClosed = errors.New("runtime closed")
)

// Error kinds categorize errors by their type.
const (
	// KindCompile represents errors raised while lowering a document graph.
	KindCompile = "compile"

	// KindUpdate represents errors raised while instantiating a network.
	KindUpdate = "update"

	// KindExecute represents executor-level evaluation errors. Node
	// failures are not errors: they flow through results as poison values.
	KindExecute = "execute"

	// KindConfiguration represents errors related to runtime configuration.
	KindConfiguration = "configuration"

	// KindStore represents errors from the introspection record store.
	KindStore = "store"
)

// Error is a structured error type that wraps underlying errors with
// the operation that failed and the category of error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
type Error struct {
	// Op is the operation that failed (e.g. "Runtime.Compile").
	Op string

	// Kind categorizes the error (e.g. KindCompile, KindUpdate).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("graphene: %s: %s", e.Op, e.Kind)
	}
	if len(e.Context) > 0 {
		return fmt.Sprintf("graphene: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}
	return fmt.Sprintf("graphene: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and
// errors.As() to work through the wrapping.
func (e *Error) Unwrap() error { return e.Err }

// Is implements error matching for Error, comparing by Kind (and Op when
// the target sets one).
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			return t.Op == "" || e.Op == t.Op
		}
		return false
	}
	return errors.Is(e.Err, target)
}
