package codegen

import (
	"fmt"

	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/runtime"
)

// Interpreter is the reference runtime.Interpreter: it walks the phrase
// tree Generator wrapped directly, with no separate execution
// representation, evaluating the literal/send/variable-use/declaration/
// assignment shapes the §8 scenarios exercise. Globals holds module-scope
// variable and constant bindings, mutated by Assignment and read by
// VariableUse.
type Interpreter struct {
	Globals map[string]phrase.Phrase

	// Builtins evaluates a Send phrase whose method name is not itself
	// resolvable by walking its arguments (e.g. `_+_`); most sends in a
	// freshly bootstrapped module fall here, since their bodies are
	// primitive registry entries rather than block phrases (§4.8 step 2).
	Builtins map[string]func(args []phrase.Phrase) (phrase.Phrase, error)
}

// NewInterpreter constructs an Interpreter with empty global state.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Globals:  make(map[string]phrase.Phrase),
		Builtins: make(map[string]func([]phrase.Phrase) (phrase.Phrase, error)),
	}
}

// RunOutermostFunction implements runtime.Interpreter by walking the
// phrase tree Generator wrapped as function's CompiledBlock, ignoring
// args (every §8 scenario's outermost function is zero-argument; see
// §4.8 step 4d).
func (in *Interpreter) RunOutermostFunction(fiber string, function runtime.CompiledBlock, args []phrase.Phrase, onSuccess func(phrase.Phrase), onFailure func(error)) {
	src, ok := AsSource(function)
	if !ok {
		onFailure(fmt.Errorf("fiber %s: %s is not a reference-generated compiled block", fiber, function.Describe()))
		return
	}

	result, err := in.RunBlock(src)
	if err != nil {
		onFailure(fmt.Errorf("fiber %s: %w", fiber, err))
		return
	}
	onSuccess(result)
}

// Eval evaluates a single top-level statement phrase directly, without
// going through a CompiledBlock/RunOutermostFunction round trip. The
// drivers in cmd/availc call it for top-level declarations (§4.8 step
// 4d); every other top-level statement is wrapped in a block, generated,
// and run through RunOutermostFunction.
func (in *Interpreter) Eval(p phrase.Phrase) (phrase.Phrase, error) {
	return in.eval(p)
}

// eval evaluates a single phrase against the interpreter's current
// global bindings, sufficient for the §8 scenarios: literals evaluate to
// themselves, variable-uses look up Globals, sends dispatch to Builtins,
// assignments mutate Globals and evaluate to the assigned value,
// declarations install a new (possibly uninitialized) global.
func (in *Interpreter) eval(p phrase.Phrase) (phrase.Phrase, error) {
	switch x := p.(type) {
	case *phrase.Literal:
		return x, nil

	case *phrase.Marker:
		return x, nil

	case *phrase.VariableUse:
		v, ok := in.Globals[x.Name]
		if !ok {
			return nil, fmt.Errorf("undefined variable %q", x.Name)
		}
		return v, nil

	case *phrase.List:
		out := &phrase.List{Elements: make([]phrase.Phrase, len(x.Elements))}
		for i, e := range x.Elements {
			v, err := in.eval(e)
			if err != nil {
				return nil, err
			}
			out.Elements[i] = v
		}
		return out, nil

	case *phrase.Send:
		argv := make([]phrase.Phrase, len(x.Args))
		for i, a := range x.Args {
			v, err := in.eval(a)
			if err != nil {
				return nil, err
			}
			argv[i] = v
		}
		fn, ok := in.Builtins[x.Method]
		if !ok {
			return nil, fmt.Errorf("no builtin registered for method %q", x.Method)
		}
		return fn(argv)

	case *phrase.Declaration:
		var val phrase.Phrase
		if x.Initializer != nil {
			v, err := in.eval(x.Initializer)
			if err != nil {
				return nil, err
			}
			val = v
		}
		in.Globals[x.Name] = val
		return &phrase.Marker{Present: true}, nil

	case *phrase.Assignment:
		v, err := in.eval(x.Value)
		if err != nil {
			return nil, err
		}
		in.Globals[x.Name] = v
		return v, nil

	default:
		return nil, fmt.Errorf("interpreter: unhandled phrase shape %T", p)
	}
}

// RunBlock evaluates every statement of b in order, returning the last
// statement's result, in the shape the reference RunOutermostFunction
// above needs.
func (in *Interpreter) RunBlock(b *phrase.Block) (phrase.Phrase, error) {
	var last phrase.Phrase = &phrase.Marker{Present: true}
	for _, stmt := range b.Body {
		v, err := in.eval(stmt)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}
