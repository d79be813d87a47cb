package registry

import (
	"fmt"
	"strings"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/value"
)

// NoSuchImplementationError reports an identifier with no registered
// entry, or none whose signature can match.
type NoSuchImplementationError struct {
	Identifier document.ProtoIdentifier

	// Candidates lists the signatures that exist under the identifier,
	// empty when the identifier is entirely unknown.
	Candidates []string
}

// Error implements the error interface.
func (e *NoSuchImplementationError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("registry: no implementation registered for %s", e.Identifier)
	}
	return fmt.Sprintf("registry: no implementation of %s matches; candidates: %s",
		e.Identifier, strings.Join(e.Candidates, "; "))
}

// AmbiguousError reports two or more candidates at equal specificity.
type AmbiguousError struct {
	Identifier document.ProtoIdentifier
	Options    []string
}

// Error implements the error interface.
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("registry: ambiguous selection for %s between: %s",
		e.Identifier, strings.Join(e.Options, "; "))
}

// ArityMismatchError reports a parameter-count mismatch against every
// candidate.
type ArityMismatchError struct {
	Identifier document.ProtoIdentifier
	Got        int
	Want       []int
}

// Error implements the error interface.
func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("registry: %s called with %d parameters, candidates take %v",
		e.Identifier, e.Got, e.Want)
}

// Match classes, ordered by specificity.
const (
	classExact = iota
	classWidened
	classGeneric
)

type candidateMatch struct {
	selection Selection
	class     int
	steps     int
}

// Signature renders the entry's declared signature for diagnostics.
func (e *Entry) Signature() string {
	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s: %s(%s) -> %s", e.Identifier, e.Input, strings.Join(params, ", "), e.Return)
}

// Choose selects the unique most-specific entry for the identifier whose
// declared input and parameter types accept the given actuals, trying in
// order: exact match, implicit numeric widening (shortest chain wins),
// generic substitution. Zero matches yield *NoSuchImplementationError or
// *ArityMismatchError; an unresolved tie yields *AmbiguousError.
func (r *Registry) Choose(id document.ProtoIdentifier, input value.TypeDescriptor, params []value.TypeDescriptor) (*Selection, error) {
	r.mu.RLock()
	indexes := append([]int(nil), r.byIdent[id]...)
	candidates := make([]*Entry, len(indexes))
	for i, idx := range indexes {
		candidates[i] = r.entries[idx]
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, &NoSuchImplementationError{Identifier: id}
	}

	var matches []candidateMatch
	arityOK := false
	arities := make([]int, 0, len(candidates))
	for i, entry := range candidates {
		arities = append(arities, len(entry.Params))
		if len(entry.Params) != len(params) {
			continue
		}
		arityOK = true
		m, ok := matchEntry(entry, indexes[i], input, params)
		if ok {
			matches = append(matches, m)
		}
	}

	if len(matches) == 0 {
		if !arityOK {
			return nil, &ArityMismatchError{Identifier: id, Got: len(params), Want: arities}
		}
		sigs := make([]string, len(candidates))
		for i, entry := range candidates {
			sigs[i] = entry.Signature()
		}
		return nil, &NoSuchImplementationError{Identifier: id, Candidates: sigs}
	}

	best := matches[0]
	tied := []candidateMatch{best}
	for _, m := range matches[1:] {
		switch {
		case m.class < best.class || (m.class == best.class && m.steps < best.steps):
			best = m
			tied = tied[:0]
			tied = append(tied, m)
		case m.class == best.class && m.steps == best.steps:
			tied = append(tied, m)
		}
	}
	if len(tied) > 1 {
		options := make([]string, len(tied))
		for i, m := range tied {
			options[i] = m.selection.Entry.Signature()
		}
		return nil, &AmbiguousError{Identifier: id, Options: options}
	}

	sel := best.selection
	return &sel, nil
}

// matchEntry checks one candidate against the actual types, recording
// generic bindings and widening targets.
func matchEntry(entry *Entry, entryIndex int, input value.TypeDescriptor, params []value.TypeDescriptor) (candidateMatch, bool) {
	m := candidateMatch{selection: Selection{
		Entry:      entry,
		EntryIndex: entryIndex,
		Bindings:   map[string]value.TypeDescriptor{},
		Widenings:  make([]value.Kind, len(params)),
	}}

	matchOne := func(declared, actual value.TypeDescriptor) (int, int, value.Kind, bool) {
		if declared.IsGeneric() {
			name := declared.Name()
			if name != "" {
				if bound, ok := m.selection.Bindings[name]; ok {
					if !bound.Equal(actual) {
						return 0, 0, value.KindNone, false
					}
				} else {
					m.selection.Bindings[name] = actual
				}
			}
			return classGeneric, 0, value.KindNone, true
		}
		if declared.Equal(actual) {
			return classExact, 0, value.KindNone, true
		}
		from, okFrom := value.KindOfType(actual)
		to, okTo := value.KindOfType(declared)
		if okFrom && okTo {
			if steps := value.WideningChain(from, to, entry.AllowIntToFloat); steps > 0 {
				return classWidened, steps, to, true
			}
		}
		return 0, 0, value.KindNone, false
	}

	cls, _, _, ok := matchOne(entry.Input, input)
	if !ok {
		return m, false
	}
	if cls > m.class {
		m.class = cls
	}

	for i, actual := range params {
		cls, steps, widen, ok := matchOne(entry.Params[i], actual)
		if !ok {
			return m, false
		}
		if cls > m.class {
			m.class = cls
		}
		m.steps += steps
		m.selection.Widenings[i] = widen
	}

	ret := entry.Return
	if ret.IsGeneric() {
		if bound, ok := m.selection.Bindings[ret.Name()]; ok {
			ret = bound
		} else if len(params) > 0 {
			// An unbound generic return mirrors the primary parameter,
			// the convention identity-like nodes rely on.
			ret = params[0]
		}
	}
	m.selection.Return = ret
	return m, true
}
