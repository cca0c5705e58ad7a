package module_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/module"
)

func TestParseHeader_MinimalModule(t *testing.T) {
	src := `Module "Hello" Body` + "\nPrint: 1."
	h, err := module.ParseHeader(src)
	require.NoError(t, err)
	assert.Equal(t, "Hello", h.ModuleName)
	// BodyOffset skips past Body's trailing whitespace to the first
	// non-space rune of the statement body.
	assert.Equal(t, "Print: 1.", string([]rune(src)[h.BodyOffset:]))
}

func TestParseHeader_AllClauses(t *testing.T) {
	src := `Module "Arithmetic"
Versions "1.4"
Extends "Base" ("1.0", "2.0") = ("_+_", "_-_"), "Other"
Uses "Helpers" = ("format:_")
Names "_+_", "_-_"
Pragma "method=100=_+_", "macro=200=If_then_else_"
Body
`
	h, err := module.ParseHeader(src)
	require.NoError(t, err)

	assert.Equal(t, "Arithmetic", h.ModuleName)
	assert.Equal(t, []string{"1.4"}, h.Versions)

	require.Len(t, h.Extends, 2)
	assert.Equal(t, "Base", h.Extends[0].Name)
	assert.Equal(t, []string{"1.0", "2.0"}, h.Extends[0].Versions)
	assert.Equal(t, []string{"_+_", "_-_"}, h.Extends[0].Names)
	assert.Equal(t, "Other", h.Extends[1].Name)

	require.Len(t, h.Uses, 1)
	assert.Equal(t, "Helpers", h.Uses[0].Name)
	assert.Equal(t, []string{"format:_"}, h.Uses[0].Names)

	assert.Equal(t, []string{"_+_", "_-_"}, h.Names)

	require.Len(t, h.Pragmas, 2)
	assert.Equal(t, module.Pragma{Kind: "method", PrimitiveNumber: 100, Name: "_+_"}, h.Pragmas[0])
	assert.Equal(t, module.Pragma{Kind: "macro", PrimitiveNumber: 200, Name: "If_then_else_"}, h.Pragmas[1])
}

func TestParseHeader_RepeatedClauseIsError(t *testing.T) {
	src := `Module "M" Versions "1.0" Versions "2.0" Body`
	_, err := module.ParseHeader(src)
	assert.Error(t, err)
}

func TestParseHeader_UnknownClauseIsError(t *testing.T) {
	src := `Module "M" Bogus Body`
	_, err := module.ParseHeader(src)
	assert.Error(t, err)
}

func TestParseHeader_MissingBodyIsError(t *testing.T) {
	src := `Module "M"`
	_, err := module.ParseHeader(src)
	assert.Error(t, err)
}

func TestParseHeader_UnterminatedStringIsError(t *testing.T) {
	src := `Module "M Body`
	_, err := module.ParseHeader(src)
	assert.Error(t, err)
}

func TestParseHeader_MalformedPragmaIsError(t *testing.T) {
	for _, raw := range []string{
		`Module "M" Pragma "method=_+_" Body`,
		`Module "M" Pragma "bogus=1=_+_" Body`,
		`Module "M" Pragma "method=notanumber=_+_" Body`,
	} {
		_, err := module.ParseHeader(raw)
		assert.Error(t, err, raw)
	}
}
