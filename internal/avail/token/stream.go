package token

// Stream is a lazily-produced sequence of Tokens terminated by a Kind-End
// token. Implementations may fork at a position when more than one lexer
// body matched (§4.1); Fork exposes each alternative continuation.
type Stream interface {
	// At returns the token beginning at the given code-point offset,
	// scanning it into existence on first access and caching it for
	// every subsequent caller. Offsets are produced by Token.Start() of
	// previously returned tokens, so callers never need to guess one.
	At(offset int) (Token, error)

	// Alternatives returns every lexical fork at the given offset: the
	// set of tokens any installed lexer produced starting there. There
	// is always at least one element unless the position is unreachable.
	Alternatives(offset int) ([]Token, error)
}
