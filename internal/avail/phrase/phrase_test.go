package phrase_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/token"
)

func TestLiteral_Equal(t *testing.T) {
	a := &phrase.Literal{Value: 1, ValueType: atype.Named("integer")}
	b := &phrase.Literal{Value: 1, ValueType: atype.Named("integer")}
	c := &phrase.Literal{Value: 2, ValueType: atype.Named("integer")}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestSend_Copy_IsDeepAndIndependent(t *testing.T) {
	orig := &phrase.Send{
		Method: "_+_",
		Args: []phrase.Phrase{
			&phrase.Literal{Value: 1, ValueType: atype.Named("integer")},
			&phrase.Literal{Value: 2, ValueType: atype.Named("integer")},
		},
		ReturnType: atype.Named("integer"),
	}
	cp := orig.Copy().(*phrase.Send)

	assert.True(t, orig.Equal(cp))

	cp.Args[0].(*phrase.Literal).Value = 99
	assert.False(t, orig.Equal(cp), "mutating the copy's argument must not affect the original")
	assert.Equal(t, 1, orig.Args[0].(*phrase.Literal).Value)
}

func TestDeclaration_Equal_ComparesInitializer(t *testing.T) {
	withInit := &phrase.Declaration{
		Kind:        phrase.DeclVariable,
		Name:        "x",
		DeclaredType: atype.Named("integer"),
		Initializer: &phrase.Literal{Value: 1, ValueType: atype.Named("integer")},
	}
	sameInit := &phrase.Declaration{
		Kind:        phrase.DeclVariable,
		Name:        "x",
		DeclaredType: atype.Named("integer"),
		Initializer: &phrase.Literal{Value: 1, ValueType: atype.Named("integer")},
	}
	noInit := &phrase.Declaration{Kind: phrase.DeclVariable, Name: "x", DeclaredType: atype.Named("integer")}

	assert.True(t, withInit.Equal(sameInit))
	assert.False(t, withInit.Equal(noInit))
	assert.True(t, noInit.Equal(noInit.Copy()))
}

func TestDeclaration_Type_IsAlwaysTop(t *testing.T) {
	d := &phrase.Declaration{Kind: phrase.DeclConstant, Name: "x"}
	assert.Equal(t, atype.Top, d.Type())
}

func TestList_Type_TakesFirstElementType(t *testing.T) {
	l := &phrase.List{Elements: []phrase.Phrase{
		&phrase.Literal{Value: "a", ValueType: atype.Named("string")},
		&phrase.Literal{Value: "b", ValueType: atype.Named("string")},
	}}
	tup, ok := l.Type().(*atype.Tuple)
	if assert.True(t, ok) {
		assert.Equal(t, atype.Named("string"), tup.Elements)
		assert.True(t, tup.Range.Contains(2))
	}
}

// TestBlock_StructuralEquality exercises go-cmp over a nested Block tree.
// cmp.Comparer options for atype.Type and token.Token stand in for
// AllowUnexported, since both keep their fields unexported.
func TestBlock_StructuralEquality(t *testing.T) {
	mkBlock := func(value int) *phrase.Block {
		return &phrase.Block{
			Params: []phrase.Declaration{{Kind: phrase.DeclArgument, Name: "n", DeclaredType: atype.Named("integer")}},
			Body: []phrase.Phrase{
				&phrase.Send{
					Method: "_+_",
					Args: []phrase.Phrase{
						&phrase.VariableUse{Name: "n", VarType: atype.Named("integer")},
						&phrase.Literal{Value: value, ValueType: atype.Named("integer")},
					},
					ReturnType: atype.Named("integer"),
				},
			},
			Result: atype.Named("integer"),
		}
	}

	a := mkBlock(1)
	b := mkBlock(1)
	c := mkBlock(2)

	opts := cmp.Options{
		cmp.Comparer(func(x, y atype.Type) bool { return x.Name() == y.Name() }),
		cmp.Comparer(func(x, y token.Token) bool { return x.Equal(y) }),
	}

	diffAB := cmp.Diff(a, b, opts)
	assert.Empty(t, diffAB, "identical trees should have no structural diff")

	diffAC := cmp.Diff(a, c, opts)
	assert.NotEmpty(t, diffAC, "differing literal value should surface in the structural diff")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
