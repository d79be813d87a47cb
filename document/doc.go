// Package document defines the user-authored node graph: networks of
// document nodes with typed inputs, nested sub-networks, scope
// injections, and imports/exports.
//
// The document graph is a long-lived structure mutated in place by editor
// messages. Every mutation primitive is transactional: it either
// preserves the structural invariants (referenced ids exist, import
// indices are in range, the graph stays acyclic) or returns an error with
// the network unchanged.
//
// Serialization is a self-describing JSON format with a version field at
// the top; host-supplied upgraders translate older versions before the
// graph reaches the compiler.
package document
