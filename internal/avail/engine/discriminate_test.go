package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/engine"
	"github.com/dekarrin/avail/internal/avail/phrase"
)

func TestDiscriminate_DifferentMethodsReportWholeSends(t *testing.T) {
	a := &phrase.Send{Method: "_+_"}
	b := &phrase.Send{Method: "_-_"}

	da, db := engine.Discriminate(a, b)
	assert.Same(t, a, da)
	assert.Same(t, b, db)
}

func TestDiscriminate_SameMethodDifferingArgumentRecursesToSmallestSubtree(t *testing.T) {
	inner1 := &phrase.Literal{Value: 1, ValueType: atype.Named("integer")}
	inner2 := &phrase.Literal{Value: 2, ValueType: atype.Named("integer")}

	a := &phrase.Send{Method: "_+_", Args: []phrase.Phrase{
		&phrase.Literal{Value: 0, ValueType: atype.Named("integer")}, inner1,
	}}
	b := &phrase.Send{Method: "_+_", Args: []phrase.Phrase{
		&phrase.Literal{Value: 0, ValueType: atype.Named("integer")}, inner2,
	}}

	da, db := engine.Discriminate(a, b)
	assert.Same(t, inner1, da)
	assert.Same(t, inner2, db)
}

func TestDiscriminate_DifferentArgCountsReportWholeSends(t *testing.T) {
	a := &phrase.Send{Method: "f", Args: []phrase.Phrase{&phrase.Literal{Value: 1, ValueType: atype.Named("integer")}}}
	b := &phrase.Send{Method: "f", Args: nil}

	da, db := engine.Discriminate(a, b)
	assert.Same(t, a, da)
	assert.Same(t, b, db)
}

func TestDiscriminate_NonSendPhrasesReturnAsIs(t *testing.T) {
	a := &phrase.Literal{Value: 1, ValueType: atype.Named("integer")}
	b := &phrase.Literal{Value: 2, ValueType: atype.Named("integer")}

	da, db := engine.Discriminate(a, b)
	assert.Same(t, a, da)
	assert.Same(t, b, db)
}
