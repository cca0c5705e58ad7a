package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/codegen"
	"github.com/dekarrin/avail/internal/avail/phrase"
)

func TestGenerator_Generate_WrapsBlockWithoutLowering(t *testing.T) {
	block := &phrase.Block{
		Body:   []phrase.Phrase{&phrase.Literal{Value: 1, ValueType: atype.Named("integer")}},
		Result: atype.Top,
	}

	gen := codegen.Generator{}
	cb, err := gen.Generate(block)
	require.NoError(t, err)

	src, ok := codegen.AsSource(cb)
	require.True(t, ok)
	assert.Same(t, block, src)
}

func TestInterpreter_Eval_DeclarationInstallsGlobal(t *testing.T) {
	in := codegen.NewInterpreter()
	decl := &phrase.Declaration{
		Kind:        phrase.DeclVariable,
		Name:        "x",
		Initializer: &phrase.Literal{Value: 42, ValueType: atype.Named("integer")},
	}

	_, err := in.Eval(decl)
	require.NoError(t, err)

	use := &phrase.VariableUse{Name: "x", VarType: atype.Named("integer")}
	got, err := in.Eval(use)
	require.NoError(t, err)
	assert.Equal(t, &phrase.Literal{Value: 42, ValueType: atype.Named("integer")}, got)
}

func TestInterpreter_Eval_UndefinedVariableIsError(t *testing.T) {
	in := codegen.NewInterpreter()
	_, err := in.Eval(&phrase.VariableUse{Name: "missing"})
	assert.Error(t, err)
}

func TestInterpreter_Eval_SendDispatchesToBuiltin(t *testing.T) {
	in := codegen.NewInterpreter()
	in.Builtins["Add"] = func(args []phrase.Phrase) (phrase.Phrase, error) {
		a := args[0].(*phrase.Literal).Value.(int)
		b := args[1].(*phrase.Literal).Value.(int)
		return &phrase.Literal{Value: a + b, ValueType: atype.Named("integer")}, nil
	}

	send := &phrase.Send{
		Method: "Add",
		Args: []phrase.Phrase{
			&phrase.Literal{Value: 1, ValueType: atype.Named("integer")},
			&phrase.Literal{Value: 2, ValueType: atype.Named("integer")},
		},
	}

	got, err := in.Eval(send)
	require.NoError(t, err)
	assert.Equal(t, 3, got.(*phrase.Literal).Value)
}

func TestInterpreter_Eval_SendWithNoBuiltinIsError(t *testing.T) {
	in := codegen.NewInterpreter()
	_, err := in.Eval(&phrase.Send{Method: "_+_"})
	assert.Error(t, err)
}

func TestInterpreter_Eval_AssignmentMutatesGlobalAndReturnsValue(t *testing.T) {
	in := codegen.NewInterpreter()
	in.Globals["x"] = &phrase.Literal{Value: 1, ValueType: atype.Named("integer")}

	assign := &phrase.Assignment{Name: "x", Value: &phrase.Literal{Value: 2, ValueType: atype.Named("integer")}}
	got, err := in.Eval(assign)
	require.NoError(t, err)
	assert.Equal(t, 2, got.(*phrase.Literal).Value)
	assert.Equal(t, 2, in.Globals["x"].(*phrase.Literal).Value)
}

func TestInterpreter_RunOutermostFunction_RunsEveryStatementInOrder(t *testing.T) {
	in := codegen.NewInterpreter()
	gen := codegen.Generator{}

	block := &phrase.Block{
		Body: []phrase.Phrase{
			&phrase.Declaration{Kind: phrase.DeclVariable, Name: "x", Initializer: &phrase.Literal{Value: 1, ValueType: atype.Named("integer")}},
			&phrase.Assignment{Name: "x", Value: &phrase.Literal{Value: 5, ValueType: atype.Named("integer")}},
			&phrase.VariableUse{Name: "x"},
		},
		Result: atype.Named("integer"),
	}
	cb, err := gen.Generate(block)
	require.NoError(t, err)

	var result phrase.Phrase
	var runErr error
	in.RunOutermostFunction("test", cb, nil, func(r phrase.Phrase) { result = r }, func(e error) { runErr = e })

	require.NoError(t, runErr)
	require.NotNil(t, result)
	assert.Equal(t, 5, result.(*phrase.Literal).Value)
}

func TestInterpreter_RunOutermostFunction_RejectsForeignCompiledBlock(t *testing.T) {
	in := codegen.NewInterpreter()
	var called bool
	in.RunOutermostFunction("test", foreignBlock{}, nil, func(phrase.Phrase) {}, func(error) { called = true })
	assert.True(t, called)
}

type foreignBlock struct{}

func (foreignBlock) Describe() string { return "foreign" }
