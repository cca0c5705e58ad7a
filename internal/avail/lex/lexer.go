// Package lex implements the lexical scanner described in spec §4.1: a
// scanner whose tokenization is driven entirely by a set of user-installable
// Lexer functions, each triggered by a Filter keyed to a source codepoint.
package lex

import (
	"github.com/dekarrin/avail/internal/avail/token"
)

// Filter reports whether the lexer it is attached to might produce a token
// starting at the given codepoint. Filters may fail (a malformed trigger
// predicate, say); a failing filter is reported to the enclosing compiler
// and its result is never cached, so a transient failure can't poison
// later scans of the same character (§4.1).
type Filter func(r rune) (bool, error)

// Body produces zero or more candidate tokens starting at the given
// source position. More than one candidate token is a lexical fork: the
// parser will explore each alternative independently.
type Body func(src []rune, pos int) ([]token.Token, error)

// Lexer is a single user-installable lexical rule: a name for diagnostics,
// a Filter that gates invocation, and the Body that does the scanning.
type Lexer struct {
	Name   string
	Filter Filter

	// cache holds the memoized Latin-1 filter verdict for this lexer, one
	// slot per byte value 0-255 plus a "decided" bit; filters that fail
	// never populate it.
	cache      [256]bool
	cacheKnown [256]bool

	Body Body
}

// New constructs a Lexer with the given name, filter, and body.
func New(name string, filter Filter, body Body) *Lexer {
	return &Lexer{Name: name, Filter: filter, Body: body}
}

// Applies reports whether lx might produce a token at codepoint r. For
// Latin-1 codepoints the verdict is cached on the Lexer itself (§4.1); for
// the rest, callers are expected to consult the process-wide cache in
// Registry instead of calling Applies directly on a hot path.
func (lx *Lexer) Applies(r rune) (bool, error) {
	if r >= 0 && r < 256 {
		b := byte(r)
		if lx.cacheKnown[b] {
			return lx.cache[b], nil
		}
		ok, err := lx.Filter(r)
		if err != nil {
			// do not cache: a transient failure must not become a
			// permanent stale verdict for this codepoint.
			return false, err
		}
		lx.cacheKnown[b] = true
		lx.cache[b] = ok
		return ok, nil
	}
	return lx.Filter(r)
}
