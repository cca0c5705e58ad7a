// Package primitives is the reference PrimitiveRegistry a module's Pragma
// clause resolves against (§4.8 step 2, §9 "the meaning of a primitive
// number is external to the compiler core"). The small arithmetic and
// string built-ins here are ported from a boxed dynamic-Value expression
// evaluator to the compiler's own atype/phrase vocabulary.
package primitives

import (
	"fmt"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/bundle"
	"github.com/dekarrin/avail/internal/avail/phrase"
)

// Numbered types match Avail's built-in primitive type names closely
// enough for the reference interpreter's builtins to type-check against.
var (
	Integer = atype.Named("integer")
	String  = atype.Named("string")
	Boolean = atype.Named("boolean")
)

// Method primitive numbers, referenced by a module's Pragma clause as
// method=<number>=<name>.
const (
	PrimAdd = iota + 1
	PrimSub
	PrimMul
	PrimDiv
	PrimConcat
	PrimPrint
	PrimEquals
)

// Macro primitive numbers, referenced as macro=<number>=<name>.
const (
	PrimIfThenElse = iota + 1
)

// Table is the reference PrimitiveRegistry (module.PrimitiveRegistry):
// a fixed map from primitive number to the bundle.Definition or
// bundle.Macro it installs.
type Table struct {
	methods map[int]func() *bundle.Definition
	macros  map[int]func() *bundle.Macro
	onPrint func(string)
}

// NewTable constructs the default primitive table. onPrint receives every
// value Print: sends render, defaulting to a no-op if nil.
func NewTable(onPrint func(string)) *Table {
	if onPrint == nil {
		onPrint = func(string) {}
	}
	t := &Table{
		methods: make(map[int]func() *bundle.Definition),
		macros:  make(map[int]func() *bundle.Macro),
		onPrint: onPrint,
	}

	t.methods[PrimAdd] = func() *bundle.Definition { return numericBinary("Add", PrimAdd) }
	t.methods[PrimSub] = func() *bundle.Definition { return numericBinary("Sub", PrimSub) }
	t.methods[PrimMul] = func() *bundle.Definition { return numericBinary("Mul", PrimMul) }
	t.methods[PrimDiv] = func() *bundle.Definition { return numericBinary("Div", PrimDiv) }
	t.methods[PrimConcat] = func() *bundle.Definition {
		return &bundle.Definition{
			Signature: &atype.Function{Params: []atype.Type{String, String}, Return: String},
			Primitive: "Concat",
		}
	}
	t.methods[PrimEquals] = func() *bundle.Definition {
		return &bundle.Definition{
			Signature: &atype.Function{Params: []atype.Type{atype.Any, atype.Any}, Return: Boolean},
			Primitive: "Equals",
		}
	}
	t.methods[PrimPrint] = func() *bundle.Definition {
		return &bundle.Definition{
			Signature: &atype.Function{Params: []atype.Type{atype.Any}, Return: atype.Top},
			Primitive: "Print",
		}
	}

	t.macros[PrimIfThenElse] = func() *bundle.Macro {
		return &bundle.Macro{
			Signature: &atype.Function{Params: []atype.Type{Boolean, atype.Any, atype.Any}, Return: atype.Any},
			Body: func(args []phrase.Phrase) (phrase.Phrase, error) {
				if len(args) != 3 {
					return nil, fmt.Errorf("if-then-else: expected 3 arguments, got %d", len(args))
				}
				cond, ok := args[0].(*phrase.Marker)
				if !ok {
					return nil, fmt.Errorf("if-then-else: condition did not evaluate to a boolean marker")
				}
				if cond.Present {
					return args[1], nil
				}
				return args[2], nil
			},
		}
	}

	return t
}

func numericBinary(name string, prim int) *bundle.Definition {
	return &bundle.Definition{
		Signature: &atype.Function{Params: []atype.Type{Integer, Integer}, Return: Integer},
		Primitive: name,
	}
}

// MethodDefinition implements module.PrimitiveRegistry.
func (t *Table) MethodDefinition(number int) (*bundle.Definition, error) {
	ctor, ok := t.methods[number]
	if !ok {
		return nil, fmt.Errorf("no method primitive registered for number %d", number)
	}
	return ctor(), nil
}

// MacroDefinition implements module.PrimitiveRegistry.
func (t *Table) MacroDefinition(number int) (*bundle.Macro, error) {
	ctor, ok := t.macros[number]
	if !ok {
		return nil, fmt.Errorf("no macro primitive registered for number %d", number)
	}
	return ctor(), nil
}

// Builtins returns the codegen.Interpreter builtin table matching this
// registry's Primitive names, so an interpreter wired to Table can
// actually evaluate the sends it type-checks.
func (t *Table) Builtins() map[string]func([]phrase.Phrase) (phrase.Phrase, error) {
	return map[string]func([]phrase.Phrase) (phrase.Phrase, error){
		"Add": func(args []phrase.Phrase) (phrase.Phrase, error) { return t.binaryInt(args, func(a, b int) int { return a + b }) },
		"Sub": func(args []phrase.Phrase) (phrase.Phrase, error) { return t.binaryInt(args, func(a, b int) int { return a - b }) },
		"Mul": func(args []phrase.Phrase) (phrase.Phrase, error) { return t.binaryInt(args, func(a, b int) int { return a * b }) },
		"Div": func(args []phrase.Phrase) (phrase.Phrase, error) {
			b, ok := intOf(args[1])
			if ok && b == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return t.binaryInt(args, func(a, b int) int { return a / b })
		},
		"Concat": func(args []phrase.Phrase) (phrase.Phrase, error) {
			a, aok := strOf(args[0])
			b, bok := strOf(args[1])
			if !aok || !bok {
				return nil, fmt.Errorf("Concat: both arguments must be strings")
			}
			return &phrase.Literal{Value: a + b, ValueType: String}, nil
		},
		"Equals": func(args []phrase.Phrase) (phrase.Phrase, error) {
			return &phrase.Marker{Present: args[0].Equal(args[1])}, nil
		},
		"Print": func(args []phrase.Phrase) (phrase.Phrase, error) {
			t.onPrint(fmt.Sprint(argValue(args[0])))
			return &phrase.Marker{Present: true}, nil
		},
	}
}

func (t *Table) binaryInt(args []phrase.Phrase, op func(a, b int) int) (phrase.Phrase, error) {
	a, aok := intOf(args[0])
	b, bok := intOf(args[1])
	if !aok || !bok {
		return nil, fmt.Errorf("expected two integer arguments")
	}
	return &phrase.Literal{Value: op(a, b), ValueType: Integer}, nil
}

func intOf(p phrase.Phrase) (int, bool) {
	lit, ok := p.(*phrase.Literal)
	if !ok {
		return 0, false
	}
	n, ok := lit.Value.(int)
	return n, ok
}

func strOf(p phrase.Phrase) (string, bool) {
	lit, ok := p.(*phrase.Literal)
	if !ok {
		return "", false
	}
	s, ok := lit.Value.(string)
	return s, ok
}

func argValue(p phrase.Phrase) any {
	if lit, ok := p.(*phrase.Literal); ok {
		return lit.Value
	}
	return p.String()
}
