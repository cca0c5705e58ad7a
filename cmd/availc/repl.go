package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/codegen"
	"github.com/dekarrin/avail/internal/avail/engine"
	"github.com/dekarrin/avail/internal/avail/lex"
	"github.com/dekarrin/avail/internal/avail/module"
	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/primitives"
	"github.com/dekarrin/avail/internal/avail/runtime"
	"github.com/dekarrin/avail/internal/avail/semver"
	"github.com/dekarrin/avail/internal/avail/token"
	"github.com/dekarrin/avail/internal/version"
	"github.com/dekarrin/avail/internal/input"
)

// runRepl compiles top-level statements one at a time against a single
// anonymous module, echoing each committed phrase tree, the way tqi's
// InteractiveCommandReader drives one line of player input at a time.
func runRepl(args []string) error {
	fs := pflag.NewFlagSet("repl", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "repl", "anonymous module name for this session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt := runtime.New()
	tx := module.Begin(rt)

	h := &module.Header{ModuleName: *name, Pragmas: defaultReplPragmas()}
	if err := tx.ApplyHeader(h, semver.DeclaredVersions{version.Current}); err != nil {
		return err
	}

	prims := primitives.NewTable(func(s string) { fmt.Println(s) })
	if err := tx.ApplyPragmas(prims); err != nil {
		return err
	}

	interp := codegen.NewInterpreter()
	interp.Builtins = prims.Builtins()
	gen := codegen.Generator{}

	reader, err := input.NewInteractiveReader()
	if err != nil {
		return fmt.Errorf("start repl: %w", err)
	}
	defer reader.Close()

	state := parsestate.New(0)
	ctx := context.Background()

	for {
		line, err := reader.ReadCommand()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		scanner := token.SkipTrivia(lex.NewScanner(line, lex.BodyRegistry()))
		exprs := engine.DefaultExpressionSource{Tokens: scanner}
		en := tx.Engine(scanner, exprs)

		sol, err := en.TryIfUnambiguous(ctx, state.WithPosition(0))
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		if decl, ok := sol.Phrase.(*phrase.Declaration); ok {
			if _, err := interp.Eval(decl); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			state = state.WithDeclaration(parsestate.Declaration{Name: decl.Name, Type: decl.DeclaredType})
			fmt.Printf("=> %s\n", sol.Phrase.String())
			continue
		}

		block := &phrase.Block{Body: []phrase.Phrase{sol.Phrase}, Result: atype.Top}
		cb, err := gen.Generate(block)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		var result phrase.Phrase
		var runErr error
		interp.RunOutermostFunction("repl", cb, nil, func(r phrase.Phrase) { result = r }, func(e error) { runErr = e })
		if runErr != nil {
			fmt.Printf("error: %v\n", runErr)
			continue
		}
		fmt.Printf("=> %s\n", result.String())
	}
}

// defaultReplPragmas wires a small bootstrap environment into a fresh
// repl session, mirroring §8's end-to-end scenarios: infix arithmetic,
// equality, string concatenation, Print:_, and If_then_else_.
func defaultReplPragmas() []module.Pragma {
	return []module.Pragma{
		{Kind: "method", PrimitiveNumber: primitives.PrimAdd, Name: "_+_"},
		{Kind: "method", PrimitiveNumber: primitives.PrimSub, Name: "_-_"},
		{Kind: "method", PrimitiveNumber: primitives.PrimMul, Name: "_*_"},
		{Kind: "method", PrimitiveNumber: primitives.PrimDiv, Name: "_/_"},
		{Kind: "method", PrimitiveNumber: primitives.PrimConcat, Name: "_++_"},
		{Kind: "method", PrimitiveNumber: primitives.PrimEquals, Name: "_=_"},
		{Kind: "method", PrimitiveNumber: primitives.PrimPrint, Name: "Print:_"},
		{Kind: "macro", PrimitiveNumber: primitives.PrimIfThenElse, Name: "If_then_else_"},
	}
}
