package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/splitter"
)

func mustBundle(t *testing.T, name string) *Bundle {
	t.Helper()
	prog, exprs, err := splitter.Split(name)
	require.NoError(t, err)
	return &Bundle{
		Name:        name,
		Program:     prog,
		Expressions: exprs,
		Method:      &Method{Name: name, Definitions: []*Definition{{Signature: &atype.Function{Return: atype.Top}}}},
	}
}

func TestTree_ExpansionIsIdempotent(t *testing.T) {
	root := NewTree()
	root.AddPlan(Plan{Bundle: mustBundle(t, "_+_"), Cursor: 1})

	root.Expand()
	first := root.ExpectedKeywords()
	root.Expand() // second expansion with nothing new pending
	second := root.ExpectedKeywords()

	assert.Equal(t, first, second)
}

func TestTree_PrefixMerging(t *testing.T) {
	root := NewTree()
	root.AddPlan(Plan{Bundle: mustBundle(t, "print_"), Cursor: 1})
	root.AddPlan(Plan{Bundle: mustBundle(t, "print_loudly"), Cursor: 1})
	root.Expand()

	child, ok := root.ExactEdge("print")
	require.True(t, ok)
	child.Expand()

	// after "print", both plans continue, sharing the same node.
	_, hasArgAction := child.actions[splitter.OpParseArgument]
	assert.True(t, hasArgAction)
}

func TestTree_CompleteMessageReached(t *testing.T) {
	root := NewTree()
	root.AddPlan(Plan{Bundle: mustBundle(t, "go"), Cursor: 1})
	root.Expand()

	child, ok := root.ExactEdge("go")
	require.True(t, ok)
	child.Expand()

	complete := child.CompleteMessages()
	require.Len(t, complete, 1)
	assert.Equal(t, "go", complete[0].Name)
}
