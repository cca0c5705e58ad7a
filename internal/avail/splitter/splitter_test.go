package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SimpleInfix(t *testing.T) {
	prog, exprs, err := Split("_+_")
	require.NoError(t, err)
	assert.Equal(t, 2, prog.ArgumentCount)
	assert.Len(t, exprs, 3)
}

func TestSplit_RepeatedGroup(t *testing.T) {
	prog, exprs, err := Split("«_‡,»")
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	g, ok := exprs[0].(*Group)
	require.True(t, ok)
	assert.True(t, g.Dagger)
	assert.False(t, g.NeedsDoubleWrapping())
	assert.Equal(t, 1, prog.ArgumentCount)
}

func TestSplit_Counter(t *testing.T) {
	prog, exprs, err := Split("«very‡,»# good")
	require.NoError(t, err)
	require.Len(t, exprs, 2)
	_, ok := exprs[0].(*Counter)
	require.True(t, ok)
	assert.Equal(t, 0, prog.ArgumentCount)
}

func TestSplit_OptionalAlternation(t *testing.T) {
	prog, exprs, err := Split("«a|an»?_")
	require.NoError(t, err)
	require.Len(t, exprs, 2)
	_, ok := exprs[0].(*Optional)
	require.True(t, ok)
	assert.Equal(t, 1, prog.ArgumentCount)
}

func TestSplit_UnbalancedGuillemets(t *testing.T) {
	_, _, err := Split("«_")
	require.Error(t, err)
	var sErr *Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, UnbalancedGuillemets, sErr.Kind)
}

func TestSplit_LeadingSpaceIsError(t *testing.T) {
	_, _, err := Split(" foo")
	require.Error(t, err)
}

func TestSplit_DoubleSpaceIsError(t *testing.T) {
	_, _, err := Split("foo  bar")
	require.Error(t, err)
}

func TestSplit_CaseInsensitiveRejectsUppercase(t *testing.T) {
	_, _, err := Split("«Foo»~")
	require.Error(t, err)
	var sErr *Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, CaseInsensitiveCanonization, sErr.Kind)
}

func TestSplit_OctothorpRejectsArguments(t *testing.T) {
	_, _, err := Split("«_»#")
	require.Error(t, err)
	var sErr *Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, OctothorpMustFollowSimpleGroup, sErr.Kind)
}

func TestSplit_AlternativeMustNotContainArguments(t *testing.T) {
	_, _, err := Split("«a|_»")
	require.Error(t, err)
	var sErr *Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, AlternativeMustNotContainArguments, sErr.Kind)
}

func TestGroup_NeedsDoubleWrapping(t *testing.T) {
	_, exprs, err := Split("«_‡,_»")
	require.NoError(t, err)
	g := exprs[0].(*Group)
	assert.True(t, g.NeedsDoubleWrapping())
}

// TestEmit_ProgramRoundTrip is the §8 "Splitter round-trip" property: for a
// well-formed pattern, executing the emitted program against a matching
// token sequence yields exactly one send shape whose argument count equals
// the splitter's declared count. Here we check the cheaper structural half
// of that property directly against the emitted instruction stream, since
// the engine that would execute it lives in a different package.
func TestEmit_ProgramRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		pattern  string
		wantArgs int
	}{
		{"infix", "_+_", 2},
		{"repeated group", "«_‡,»", 1},
		{"counter", "«very‡,»# good", 0},
		{"optional+alt", "«a|an»?_", 1},
		{"numbered choice", "«a|b|c»!", 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			prog, _, err := Split(c.pattern)
			require.NoError(t, err)
			assert.Equal(t, c.wantArgs, prog.ArgumentCount)
			assert.NotEmpty(t, prog.Instructions)
		})
	}
}
