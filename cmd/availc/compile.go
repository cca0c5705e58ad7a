package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/availerr"
	"github.com/dekarrin/avail/internal/avail/codegen"
	"github.com/dekarrin/avail/internal/avail/config"
	"github.com/dekarrin/avail/internal/avail/engine"
	"github.com/dekarrin/avail/internal/avail/fragment"
	"github.com/dekarrin/avail/internal/avail/lex"
	"github.com/dekarrin/avail/internal/avail/module"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/primitives"
	"github.com/dekarrin/avail/internal/avail/runtime"
	"github.com/dekarrin/avail/internal/avail/runtime/resolver"
	"github.com/dekarrin/avail/internal/avail/semver"
	"github.com/dekarrin/avail/internal/avail/serializer"
	"github.com/dekarrin/avail/internal/avail/token"
	"github.com/dekarrin/avail/internal/version"
)

// compiler drives a whole tree of module compilations against one shared
// Runtime: resolving Extends/Uses dependencies to source files (via a
// resolver.Local over cfg's module roots) and recursively compiling each
// one before the module that imports it (§4.8 step 1's "in dependency
// order" requirement is the caller's job per internal/avail/module's own
// doc comment).
type compiler struct {
	rt       *runtime.Runtime
	resolver resolver.Local
	declared semver.DeclaredVersions
	compiled map[string]bool // module names already committed or in progress, cycle guard
	onPrint  func(string)
	Trace    io.Writer
}

func newCompiler(cfg config.Config, onPrint func(string)) *compiler {
	return &compiler{
		rt:       runtime.New(),
		resolver: resolver.Local{Roots: cfg.Modules.Roots},
		declared: semver.DeclaredVersions{version.Current},
		compiled: make(map[string]bool),
		onPrint:  onPrint,
	}
}

// compileFile compiles the module at path, recursively compiling every
// Extends/Uses dependency first, and returns its committed record and
// serialized byte stream.
func (c *compiler) compileFile(ctx context.Context, path string) (*runtime.ModuleRecord, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.compileSource(ctx, path, string(src))
}

func (c *compiler) compileSource(ctx context.Context, path, src string) (*runtime.ModuleRecord, []byte, error) {
	h, err := module.ParseHeader(src)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: parse header: %w", path, err)
	}

	if c.compiled[h.ModuleName] {
		if rec, ok := c.rt.ModuleAt(h.ModuleName); ok {
			return rec, nil, nil
		}
		return nil, nil, fmt.Errorf("%s: import cycle detected at module %q", path, h.ModuleName)
	}
	c.compiled[h.ModuleName] = true

	for _, imp := range append(append([]module.Import{}, h.Extends...), h.Uses...) {
		if _, ok := c.rt.ModuleAt(imp.Name); ok {
			continue
		}
		depPath, err := c.resolver.Resolve(imp.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: resolve import %q: %w", path, imp.Name, err)
		}
		if _, _, err := c.compileFile(ctx, depPath); err != nil {
			return nil, nil, err
		}
	}

	tx := module.Begin(c.rt)
	tx.Trace = c.Trace
	if err := tx.ApplyHeader(h, c.declared); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	prims := primitives.NewTable(c.onPrint)
	if err := tx.ApplyPragmas(prims); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	scanner := token.SkipTrivia(lex.NewScanner(src, lex.BodyRegistry()))
	exprs := engine.DefaultExpressionSource{Tokens: scanner}

	interp := codegen.NewInterpreter()
	interp.Builtins = prims.Builtins()
	gen := codegen.Generator{}
	stream := serializer.NewStream()

	commit := func(sol fragment.Solution) error {
		return commitStatement(interp, gen, stream, h.ModuleName, sol)
	}

	if err := tx.RunStatementLoop(ctx, scanner, exprs, h.BodyOffset, commit); err != nil {
		if npe, ok := asNoParse(err); ok {
			line, col := lineColAt(src, npe.Position)
			cerr := availerr.New(h.ModuleName, npe.Position, line, col, npe.Expected)
			return nil, nil, errors.New(availerr.Banner(cerr, src, 72))
		}
		return nil, nil, err
	}

	publish := serializer.CompiledFunction{
		Name:    "$publish_" + h.ModuleName,
		Literal: []byte(fmt.Sprintf("(PUBLISH %v)", h.Names)),
		Globals: h.Names,
	}

	rec, err := tx.Commit(stream, publish)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	out, err := stream.Bytes()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: serialize: %w", path, err)
	}
	return rec, out, nil
}

// commitStatement implements §4.8 step 4c-4d for one completed top-level
// statement: the statement's static type must be exactly ⊤ (a hard
// requirement, not a best-effort check), then it is run: a Declaration
// extends module-scope state directly, anything else is wrapped as a
// zero-argument function, generated, and run via the Interpreter, and
// either way the result is appended to the serialization stream.
func commitStatement(interp *codegen.Interpreter, gen codegen.Generator, stream *serializer.Stream, moduleName string, sol fragment.Solution) error {
	if !atype.Top.Covers(sol.Phrase.Type()) {
		return fmt.Errorf("module %q: top-level statement has type %q, not the top type", moduleName, sol.Phrase.Type().Name())
	}

	if decl, ok := sol.Phrase.(*phrase.Declaration); ok {
		if _, err := interp.Eval(decl); err != nil {
			return fmt.Errorf("module %q: declare %q: %w", moduleName, decl.Name, err)
		}
		stream.Append(serializer.CompiledFunction{
			Name:    "$decl_" + decl.Name,
			Literal: []byte(decl.String()),
			Globals: []string{decl.Name},
		})
		return nil
	}

	block := &phrase.Block{Body: []phrase.Phrase{sol.Phrase}, Result: atype.Top}
	cb, err := gen.Generate(block)
	if err != nil {
		return fmt.Errorf("module %q: generate: %w", moduleName, err)
	}

	var runErr error
	interp.RunOutermostFunction(moduleName, cb, nil, func(phrase.Phrase) {}, func(e error) { runErr = e })
	if runErr != nil {
		return fmt.Errorf("module %q: run: %w", moduleName, runErr)
	}

	stream.Append(serializer.CompiledFunction{
		Name:    "$stmt",
		Literal: []byte(sol.Phrase.String()),
	})
	return nil
}

func asNoParse(err error) (*engine.NoParseError, bool) {
	npe, ok := err.(*engine.NoParseError)
	if ok {
		return npe, true
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return asNoParse(u.Unwrap())
	}
	return nil, false
}

func lineColAt(src string, position int) (line, col int) {
	line, col = 1, 1
	for i, r := range []rune(src) {
		if i >= position {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func runCompile(args []string) error {
	fs := pflag.NewFlagSet("compile", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "avail.toml", "path to avail.toml")
	out := fs.StringP("out", "o", "", "output path for the serialized byte stream (default: <module>.availc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compile requires exactly one module source file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	c := newCompiler(cfg, func(s string) { fmt.Println(s) })
	rec, bytes, err := c.compileFile(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}

	outPath := *out
	if outPath == "" {
		outPath = rec.Name + ".availc"
	}
	if err := os.WriteFile(outPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("compiled %s: %d bytes, %d public atoms\n", rec.Name, len(bytes), len(rec.PublicAtoms))
	return nil
}

func runCheck(args []string) error {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "avail.toml", "path to avail.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("check requires exactly one module source file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	c := newCompiler(cfg, func(s string) { fmt.Println(s) })
	rec, _, err := c.compileFile(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d public atoms)\n", rec.Name, len(rec.PublicAtoms))
	return nil
}
