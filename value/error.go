package value

import "fmt"

// Error codes carried by poison values.
const (
	// ErrorCodeNode marks a failure raised (or panicked) inside a node body.
	ErrorCodeNode = "node"

	// ErrorCodeMissingCapability marks an extraction of a context field
	// whose slot was absent and had no declared default.
	ErrorCodeMissingCapability = "missing_capability"

	// ErrorCodeUpstream marks a poison value forwarded unchanged from an
	// upstream input.
	ErrorCodeUpstream = "upstream"
)

// ErrorValue is the payload of a poison value. Runtime failures are
// carried through the graph as ordinary values so a partially failing
// evaluation still yields whatever valid outputs it can.
type ErrorValue struct {
	// Code classifies the failure: ErrorCodeNode, ErrorCodeMissingCapability,
	// or ErrorCodeUpstream.
	Code string `json:"code"`

	// Identifier names the origin: a proto identifier for node failures,
	// a capability name for missing capabilities.
	Identifier string `json:"identifier"`

	// Message is the human-readable failure description.
	Message string `json:"message"`

	// Path is the document-node path of the origin, for diagnostics.
	Path []uint64 `json:"path,omitempty"`
}

// Error implements the error interface so poison payloads can cross
// boundaries that expect Go errors.
func (e *ErrorValue) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Identifier, e.Message)
}

// NewError returns a poison value for a failure in the named node.
func NewError(identifier, message string) TaggedValue {
	return TaggedValue{kind: KindError, ref: &ErrorValue{
		Code:       ErrorCodeNode,
		Identifier: identifier,
		Message:    message,
	}}
}

// NewMissingCapability returns the poison produced when a node extracts a
// context capability that was not supplied.
func NewMissingCapability(name string) TaggedValue {
	return TaggedValue{kind: KindError, ref: &ErrorValue{
		Code:       ErrorCodeMissingCapability,
		Identifier: name,
		Message:    fmt.Sprintf("context capability %q not supplied", name),
	}}
}

// WrapError returns a poison value carrying an existing payload with the
// origin path attached. The payload is copied, not mutated.
func WrapError(ev *ErrorValue, path []uint64) TaggedValue {
	cp := *ev
	cp.Path = append([]uint64(nil), path...)
	return TaggedValue{kind: KindError, ref: &cp}
}

// IsError reports whether the value is poison.
func (v TaggedValue) IsError() bool { return v.kind == KindError }

// ErrValue returns the poison payload, or nil for non-error values.
func (v TaggedValue) ErrValue() *ErrorValue {
	if v.kind != KindError {
		return nil
	}
	ev, _ := v.ref.(*ErrorValue)
	return ev
}
