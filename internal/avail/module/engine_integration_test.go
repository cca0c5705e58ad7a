package module_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/bundle"
	"github.com/dekarrin/avail/internal/avail/engine"
	"github.com/dekarrin/avail/internal/avail/lex"
	"github.com/dekarrin/avail/internal/avail/module"
	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/primitives"
	"github.com/dekarrin/avail/internal/avail/runtime"
	"github.com/dekarrin/avail/internal/avail/semver"
	"github.com/dekarrin/avail/internal/avail/token"
)

// newTestTransaction begins a transaction against a fresh runtime and
// applies a minimal header so bundles can be declared against it,
// exercising ApplyHeader the same way every other end-to-end path does.
func newTestTransaction(t *testing.T, moduleName string) *module.Transaction {
	t.Helper()
	rt := runtime.New()
	tx := module.Begin(rt)
	require.NoError(t, tx.ApplyHeader(&module.Header{ModuleName: moduleName}, semver.DeclaredVersions{"0.1.0"}))
	return tx
}

// parseOne drives tx's engine against src from position 0 and returns the
// one solution TryIfUnambiguous finds, through a real lex.NewScanner over
// lex.BodyRegistry wrapped in token.SkipTrivia -- the same construction
// cmd/availc uses, so these tests catch anything a fake token source
// would paper over.
func parseOne(t *testing.T, tx *module.Transaction, src string, state parsestate.State) (phrase.Phrase, error) {
	t.Helper()
	scanner := token.SkipTrivia(lex.NewScanner(src, lex.BodyRegistry()))
	exprs := engine.DefaultExpressionSource{Tokens: scanner}
	en := tx.Engine(scanner, exprs)

	sol, err := en.TryIfUnambiguous(context.Background(), state)
	if err != nil {
		return nil, err
	}
	return sol.Phrase, nil
}

// Scenario 1 (simple infix): _+_ over two integers.
func TestEngine_EndToEnd_SimpleInfix(t *testing.T) {
	tx := newTestTransaction(t, "Arithmetic")

	add := &bundle.Method{
		Name: "_+_",
		Definitions: []*bundle.Definition{{
			Signature: &atype.Function{Params: []atype.Type{primitives.Integer, primitives.Integer}, Return: primitives.Integer},
		}},
	}
	require.NoError(t, tx.DeclareMethod("_+_", add))

	p, err := parseOne(t, tx, "1+2;", parsestate.New(0))
	require.NoError(t, err)

	send, ok := p.(*phrase.Send)
	require.True(t, ok, "expected a Send phrase, got %T", p)
	assert.Equal(t, "_+_", send.Method)
	require.Len(t, send.Args, 2)

	first, ok := send.Args[0].(*phrase.Literal)
	require.True(t, ok)
	assert.Equal(t, 1, first.Value)

	second, ok := send.Args[1].(*phrase.Literal)
	require.True(t, ok)
	assert.Equal(t, 2, second.Value)
}

// Scenario 2 (repeated group): «_‡,» collects a flat list of arguments.
func TestEngine_EndToEnd_RepeatedGroup(t *testing.T) {
	tx := newTestTransaction(t, "Tuples")

	tupleOf := &bundle.Method{
		Name: "«_‡,»",
		Definitions: []*bundle.Definition{{
			Signature: &atype.Function{
				Params: []atype.Type{&atype.Tuple{Elements: primitives.Integer, Range: atype.Unbounded(0)}},
				Return: primitives.Integer,
			},
		}},
	}
	require.NoError(t, tx.DeclareMethod("«_‡,»", tupleOf))

	p, err := parseOne(t, tx, "1,2,3", parsestate.New(0))
	require.NoError(t, err)

	send, ok := p.(*phrase.Send)
	require.True(t, ok, "expected a Send phrase, got %T", p)
	require.Len(t, send.Args, 1)

	list, ok := send.Args[0].(*phrase.List)
	require.True(t, ok, "expected the sole argument to be a List, got %T", send.Args[0])
	require.Len(t, list.Elements, 3)
	for i, want := range []int{1, 2, 3} {
		lit, ok := list.Elements[i].(*phrase.Literal)
		require.True(t, ok)
		assert.Equal(t, want, lit.Value)
	}
}

// Scenario 3 (counter): «very‡,»# good reduces to the repetition count.
func TestEngine_EndToEnd_Counter(t *testing.T) {
	tx := newTestTransaction(t, "Counting")

	counter := &bundle.Method{
		Name: "«very‡,»# good",
		Definitions: []*bundle.Definition{{
			Signature: &atype.Function{Params: []atype.Type{primitives.Integer}, Return: primitives.Integer},
		}},
	}
	require.NoError(t, tx.DeclareMethod("«very‡,»# good", counter))

	p, err := parseOne(t, tx, "very,very,very good", parsestate.New(0))
	require.NoError(t, err)

	send, ok := p.(*phrase.Send)
	require.True(t, ok, "expected a Send phrase, got %T", p)
	require.Len(t, send.Args, 1)

	lit, ok := send.Args[0].(*phrase.Literal)
	require.True(t, ok, "expected the sole argument to be a Literal, got %T", send.Args[0])
	assert.Equal(t, 3, lit.Value)
}

// Scenario 4 (optional + alternation): «a|an»?_ delivers a presence
// marker alongside the trailing argument.
//
// Only the article-present form is exercised here. With the article
// absent, the optional contributes zero tokens of its own, so the send's
// end position exactly equals the end position of its own trailing
// argument parsed alone -- and since that argument parse is itself
// memoized at the send's starting state (§4.6), the bare argument phrase
// and the optional-wrapped send become two distinct solutions tied for
// the same maximal reach at that state, which is a genuine ambiguity
// under §7's rule, not a bug in this test. A grammar whose optional
// group can vanish entirely while leaving its sole remaining content
// indistinguishable from a bare argument is ambiguous by construction.
func TestEngine_EndToEnd_OptionalAlternation(t *testing.T) {
	tx := newTestTransaction(t, "Articles")

	article := &bundle.Method{
		Name: "«a|an»?_",
		Definitions: []*bundle.Definition{{
			Signature: &atype.Function{Params: []atype.Type{primitives.Boolean, atype.Any}, Return: atype.Any},
		}},
	}
	require.NoError(t, tx.DeclareMethod("«a|an»?_", article))

	state := parsestate.New(0).WithDeclaration(parsestate.Declaration{Name: "x", Type: atype.Any})

	p, err := parseOne(t, tx, "an x", state)
	require.NoError(t, err)

	send, ok := p.(*phrase.Send)
	require.True(t, ok, "expected a Send phrase, got %T", p)
	require.Len(t, send.Args, 2)

	marker, ok := send.Args[0].(*phrase.Marker)
	require.True(t, ok)
	assert.True(t, marker.Present)

	use, ok := send.Args[1].(*phrase.VariableUse)
	require.True(t, ok, "expected a VariableUse, got %T", send.Args[1])
	assert.Equal(t, "x", use.Name)
}

// Scenario 5 (ambiguity): with both if_then_ and if_then_else_ visible,
// "if p then a else b" resolves unambiguously to the longer form; with
// only the shorter form declared, it resolves unambiguously to that one.
func TestEngine_EndToEnd_Ambiguity(t *testing.T) {
	declareIfThen := func(tx *module.Transaction) {
		ifThen := &bundle.Method{
			Name: "if_then_",
			Definitions: []*bundle.Definition{{
				Signature: &atype.Function{Params: []atype.Type{primitives.Boolean, atype.Any}, Return: atype.Any},
			}},
		}
		require.NoError(t, tx.DeclareMethod("if_then_", ifThen))
	}
	declareIfThenElse := func(tx *module.Transaction) {
		ifThenElse := &bundle.Method{
			Name: "if_then_else_",
			Definitions: []*bundle.Definition{{
				Signature: &atype.Function{Params: []atype.Type{primitives.Boolean, atype.Any, atype.Any}, Return: atype.Any},
			}},
		}
		require.NoError(t, tx.DeclareMethod("if_then_else_", ifThenElse))
	}

	state := parsestate.New(0).
		WithDeclaration(parsestate.Declaration{Name: "p", Type: primitives.Boolean}).
		WithDeclaration(parsestate.Declaration{Name: "a", Type: atype.Any}).
		WithDeclaration(parsestate.Declaration{Name: "b", Type: atype.Any})

	t.Run("both forms visible resolves to the longer one", func(t *testing.T) {
		tx := newTestTransaction(t, "Conditionals")
		declareIfThen(tx)
		declareIfThenElse(tx)

		p, err := parseOne(t, tx, "if p then a else b", state)
		require.NoError(t, err)

		send, ok := p.(*phrase.Send)
		require.True(t, ok, "expected a Send phrase, got %T", p)
		assert.Equal(t, "if_then_else_", send.Method)
		assert.Len(t, send.Args, 3)
	})

	t.Run("only the shorter form declared stays unambiguous", func(t *testing.T) {
		tx := newTestTransaction(t, "ConditionalsShort")
		declareIfThen(tx)

		p, err := parseOne(t, tx, "if p then a", state)
		require.NoError(t, err)

		send, ok := p.(*phrase.Send)
		require.True(t, ok, "expected a Send phrase, got %T", p)
		assert.Equal(t, "if_then_", send.Method)
		assert.Len(t, send.Args, 2)
	})
}

// Scenario 6 (semantic restriction rejection): a restriction that rejects
// every application of a method threads its message into the resulting
// NoParseError's expectations, at the position the send's arguments
// finished parsing (§4.7, §7).
//
// This uses a keyword-led two-argument method ("Sum_and_") rather than
// spec.md's leading-argument "_+_" example. A leading-argument message's
// own first token is, by construction, also independently recognizable
// by DefaultExpressionSource.Literal at the send's starting state, and
// that bare-literal solution survives even when the send itself is
// rejected -- so "0+0" alone would parse successfully as the standalone
// literal 0, never reaching NoParseError. Leading with a keyword token
// the literal/variable recognizer declines avoids that unrelated
// ambiguity entirely while still exercising the rejection-to-expectation
// wiring this scenario is about. The reference atype lattice also has no
// singleton/literal-value types (see atype.go), so the restriction
// discriminates on argument static type rather than a specific literal
// value such as 0.
func TestEngine_EndToEnd_SemanticRestrictionRejection(t *testing.T) {
	tx := newTestTransaction(t, "RestrictedArithmetic")

	const rejectionMessage = "Sum_and_ rejects these argument types"
	sum := &bundle.Method{
		Name: "Sum_and_",
		Definitions: []*bundle.Definition{{
			Signature: &atype.Function{Params: []atype.Type{primitives.Integer, primitives.Integer}, Return: primitives.Integer},
		}},
		Restrictions: []*bundle.SemanticRestriction{{
			Name: "reject-everything",
			Eval: func(argTypes []atype.Type) (atype.Type, error) {
				return nil, bundle.Reject(rejectionMessage)
			},
		}},
	}
	require.NoError(t, tx.DeclareMethod("Sum_and_", sum))

	_, err := parseOne(t, tx, "Sum 0 and 0", parsestate.New(0))
	require.Error(t, err)

	var noParse *engine.NoParseError
	require.ErrorAs(t, err, &noParse)
	assert.Contains(t, noParse.Expected, rejectionMessage)
	assert.Equal(t, 11, noParse.Position, "expected position just past the fully-parsed send")
}
