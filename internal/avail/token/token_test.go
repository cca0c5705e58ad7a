package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/avail/internal/avail/token"
)

func TestToken_WithLiteral(t *testing.T) {
	tok := token.New(token.KindLiteral, "42", 0, 1, 1)
	_, ok := tok.LiteralValue()
	assert.False(t, ok)

	tok = tok.WithLiteral(42)
	v, ok := tok.LiteralValue()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestToken_WithPosition(t *testing.T) {
	tok := token.New(token.KindOperator, "+", 5, 1, 1)
	moved := tok.WithPosition(3, 7)

	assert.Equal(t, 3, moved.Line())
	assert.Equal(t, 7, moved.Column())
	// start/kind/lexeme are untouched by WithPosition
	assert.Equal(t, tok.Start(), moved.Start())
	assert.Equal(t, tok.Kind(), moved.Kind())
	assert.Equal(t, tok.Lexeme(), moved.Lexeme())
}

func TestToken_WithNext(t *testing.T) {
	tok := token.New(token.KindKeyword, "if", 0, 1, 1)
	linked := tok.WithNext("some-lex-state")
	assert.Equal(t, "some-lex-state", linked.Next())
	assert.Nil(t, tok.Next())
}

func TestToken_Equal(t *testing.T) {
	a := token.New(token.KindOperator, "+", 4, 2, 3)
	b := token.New(token.KindOperator, "+", 4, 9, 9).WithNext("differs")
	c := token.New(token.KindOperator, "-", 4, 2, 3)

	assert.True(t, a.Equal(b), "line/column/next should not affect Equal")
	assert.False(t, a.Equal(c), "different lexeme should not be Equal")
}

func TestToken_IsEndIsError(t *testing.T) {
	end := token.End(10, 1, 1)
	assert.True(t, end.IsEnd())
	assert.False(t, end.IsError())

	errTok := token.New(token.KindError, "?", 0, 1, 1)
	assert.True(t, errTok.IsError())
	assert.False(t, errTok.IsEnd())
}

func TestToken_String(t *testing.T) {
	assert.Equal(t, "<end>", token.End(0, 1, 1).String())
	assert.Equal(t, "operator(+)", token.New(token.KindOperator, "+", 0, 1, 1).String())
}
