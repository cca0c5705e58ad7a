// Package parsestate implements the immutable parse state threaded through
// the parsing engine (§3, §4.4): a position, a persistent scope map, and a
// checkpointed argument tuple snapshot for macro prefix functions.
package parsestate

import "github.com/dekarrin/avail/internal/avail/atype"

// Declaration is the scope-map value: enough about a declared name for the
// engine to build a VariableUse/Reference phrase and check its type.
type Declaration struct {
	Name string
	Type atype.Type
}

// scope is a persistent (structurally shared) singly-linked association
// list from name to Declaration. A new binding is a new head node sharing
// the rest of the chain with every other state derived from the same
// parent, so branching parse attempts never copy the whole map (§3, §4.4).
type scope struct {
	name string
	decl Declaration
	next *scope
}

func (s *scope) lookup(name string) (Declaration, bool) {
	for n := s; n != nil; n = n.next {
		if n.name == name {
			return n.decl, true
		}
	}
	return Declaration{}, false
}

// State is an immutable parse state. Equal compares positions, the names
// bound in the scope maps, and the lengths of the checkpointed argument
// tuples; see Equal for what it leaves out.
type State struct {
	position int
	scopes   *scope

	// checkpoint is the argument tuple snapshot captured at the most
	// recent section checkpoint, used to invoke a macro's prefix function
	// with exactly the arguments visible at that point in the pattern.
	checkpoint []any
}

// New constructs the initial parse state at the given token position with
// an empty scope map.
func New(position int) State {
	return State{position: position}
}

// Position returns the token-stream offset this state represents.
func (s State) Position() int { return s.position }

// WithPosition returns a copy of s advanced to a new position, scope and
// checkpoint otherwise unchanged.
func (s State) WithPosition(pos int) State {
	s.position = pos
	return s
}

// WithDeclaration returns a new state whose scope map has one additional
// binding, structurally sharing the rest of the map with s (§4.4).
func (s State) WithDeclaration(decl Declaration) State {
	s.scopes = &scope{name: decl.Name, decl: decl, next: s.scopes}
	return s
}

// Lookup resolves name against the current scope map.
func (s State) Lookup(name string) (Declaration, bool) {
	if s.scopes == nil {
		return Declaration{}, false
	}
	return s.scopes.lookup(name)
}

// WithEmptyScope returns a derived state at the same position with an
// empty scope map, for parsing a sub-expression where local declarations
// must not be visible (§4.4): module-scope arguments, and type expressions
// evaluated at parse time. The checkpoint snapshot is preserved.
func (s State) WithEmptyScope() State {
	return State{position: s.position, checkpoint: s.checkpoint}
}

// WithScopeFrom returns a copy of s at its own position but with the scope
// map of orig, used to resume parsing with the enclosing scope after a
// sub-expression was parsed from an empty-scope derived state (§4.4).
func (s State) WithScopeFrom(orig State) State {
	s.scopes = orig.scopes
	return s
}

// WithCheckpoint returns a copy of s carrying the given argument-tuple
// snapshot, taken at a SectionCheckpoint.
func (s State) WithCheckpoint(args []any) State {
	s.checkpoint = args
	return s
}

// Checkpoint returns the most recently captured argument-tuple snapshot.
func (s State) Checkpoint() []any { return s.checkpoint }

// Equal reports whether two states have the same position, bind the same
// names in the same order in their scope maps, and carry checkpoint
// snapshots of the same length (§3). Declaration types and the contents
// of the checkpoint snapshots are not compared. Two states that share the
// same scope chain node compare equal without walking the chain.
func (s State) Equal(o State) bool {
	if s.position != o.position {
		return false
	}
	if len(s.checkpoint) != len(o.checkpoint) {
		return false
	}
	if s.scopes == o.scopes {
		return true
	}
	return scopesEqual(s.scopes, o.scopes)
}

func scopesEqual(a, b *scope) bool {
	for a != nil && b != nil {
		if a == b {
			return true
		}
		if a.name != b.name || a.decl.Name != b.decl.Name {
			return false
		}
		a, b = a.next, b.next
	}
	return a == nil && b == nil
}

// Key returns a value suitable for use as a map key representing this
// state, for the fragment cache (§3). It is O(1): the scope chain is keyed
// by pointer identity and the checkpoint by its length, so two states
// that Equal reports equal but that were built from separate scope chains
// get different keys.
func (s State) Key() Key {
	return Key{position: s.position, scopes: s.scopes, checkpointLen: len(s.checkpoint)}
}

// Key is a comparable (and therefore map-key-safe) projection of a State.
type Key struct {
	position      int
	scopes        *scope
	checkpointLen int
}
