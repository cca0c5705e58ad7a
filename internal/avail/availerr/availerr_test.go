package availerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/avail/internal/avail/availerr"
)

func TestNew_ErrorMessage(t *testing.T) {
	err := availerr.New("mymod", 12, 2, 3, []string{"an identifier"})
	assert.Equal(t, "mymod:2:3: no valid parse found", err.Error())
}

func TestNew_ExpectedIsDefensiveCopy(t *testing.T) {
	expected := []string{"a", "b"}
	err := availerr.New("m", 0, 1, 1, expected)

	type expecter interface{ Expected() []string }
	e, ok := err.(expecter)
	if assert.True(t, ok) {
		got := e.Expected()
		assert.Equal(t, expected, got)
		got[0] = "mutated"
		assert.Equal(t, "a", e.Expected()[0], "Expected must return a defensive copy")
	}
}

func TestWrap_AttachesCauseToUnwrap(t *testing.T) {
	base := availerr.New("m", 0, 1, 1, nil)
	cause := errors.New("underlying splitter error")

	wrapped := availerr.Wrap(base, cause)
	assert.Same(t, cause, errors.Unwrap(wrapped))
	// original is untouched
	assert.Nil(t, errors.Unwrap(base))
}

func TestWrap_NonCompilationErrorPassesThrough(t *testing.T) {
	other := errors.New("not a compilation error")
	got := availerr.Wrap(other, errors.New("cause"))
	assert.Same(t, other, got)
}

func TestBanner_IncludesSourceExcerptAndCaret(t *testing.T) {
	err := availerr.New("mymod", 4, 1, 5, []string{"an identifier", "a keyword"})
	src := "1 + "

	banner := availerr.Banner(err, src, 72)
	assert.Contains(t, banner, "mymod:1:5: no valid parse found")
	assert.Contains(t, banner, "1 + ")
	assert.Contains(t, banner, "^")
	assert.Contains(t, banner, "expected one of: an identifier, a keyword")
}

func TestBanner_NonCompilationErrorReturnsPlainMessage(t *testing.T) {
	other := errors.New("plain error")
	assert.Equal(t, "plain error", availerr.Banner(other, "", 72))
}

func TestBanner_IncludesWrappedCause(t *testing.T) {
	base := availerr.New("mymod", 0, 1, 1, nil)
	wrapped := availerr.Wrap(base, errors.New("splitter blew up"))
	banner := availerr.Banner(wrapped, "", 72)
	assert.Contains(t, banner, "caused by: splitter blew up")
}
