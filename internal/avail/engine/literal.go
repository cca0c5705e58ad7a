package engine

import (
	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/primitives"
	"github.com/dekarrin/avail/internal/avail/token"
)

// nextPosition returns the code-point offset immediately after tok, the
// position a caller's next At call should use to read the following
// token (token.Stream positions are code-point offsets, not indices).
// Mirrors the tok.Start()+graphemeLen(...) advance driveNode uses.
func nextPosition(tok token.Token) int {
	return tok.Start() + graphemeLen(tok.Lexeme())
}

// DefaultExpressionSource is the reference ExpressionSource: it recognizes
// integer and string literal tokens, a bare identifier naming a
// declaration already visible in state's scope (as a VariableUse), and
// declines every block literal (full block-phrase parsing is out of this
// reference compiler's scope; a real front end would recurse into the
// statement grammar here instead).
type DefaultExpressionSource struct {
	Tokens TokenSource
}

// Literal implements ExpressionSource.
func (d DefaultExpressionSource) Literal(state parsestate.State) (phrase.Phrase, parsestate.State, bool) {
	tok, err := d.Tokens.At(state.Position())
	if err != nil {
		return nil, state, false
	}

	if tok.Kind() == token.KindKeyword {
		if decl, ok := state.Lookup(tok.Lexeme()); ok {
			use := &phrase.VariableUse{Name: decl.Name, VarType: decl.Type}
			return use, state.WithPosition(nextPosition(tok)), true
		}
		return nil, state, false
	}

	if tok.Kind() != token.KindLiteral {
		return nil, state, false
	}

	v, ok := tok.LiteralValue()
	if !ok {
		return nil, state, false
	}

	var valType = primitives.String
	if _, isInt := v.(int); isInt {
		valType = primitives.Integer
	}

	lit := &phrase.Literal{Value: v, ValueType: valType, Source: tok}
	return lit, state.WithPosition(nextPosition(tok)), true
}

// Block implements ExpressionSource. Always declines; see type doc.
func (d DefaultExpressionSource) Block(state parsestate.State) (phrase.Phrase, parsestate.State, bool) {
	return nil, state, false
}
