package module

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dekarrin/avail/internal/avail/bundle"
	"github.com/dekarrin/avail/internal/avail/engine"
	"github.com/dekarrin/avail/internal/avail/fragment"
	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/runtime"
	"github.com/dekarrin/avail/internal/avail/semver"
	"github.com/dekarrin/avail/internal/avail/serializer"
	"github.com/dekarrin/avail/internal/avail/splitter"
	"github.com/dekarrin/avail/internal/avail/token"
)

// PrimitiveRegistry resolves a pragma's primitive number to the bootstrap
// definition or macro it installs (§4.8 step 2, §9 "treat the primitive
// table as an injected registry" — the meaning of a primitive number is
// external to the compiler core).
type PrimitiveRegistry interface {
	MethodDefinition(number int) (*bundle.Definition, error)
	MacroDefinition(number int) (*bundle.Macro, error)
}

// Transaction drives one module's compilation (§4.8): applying its
// header, building its initial bundle tree, running the outermost-
// statement loop, and finally committing or rolling back. Every addition
// — new methods, new bundles, new public atoms — accumulates in fields
// local to the Transaction and only reaches the shared Runtime in
// Commit, so Rollback is simply discarding the Transaction: there is
// nothing shared to undo (§4.8 step 5, §9 "mutated transactionally").
type Transaction struct {
	ID uuid.UUID

	rt *runtime.Runtime

	header *Header

	methods     map[string]*bundle.Method // by method name
	bundles     []*bundle.Bundle
	publicAtoms []string

	forwardPending map[string]bool

	tree  *bundle.Tree
	cache *fragment.Cache

	Trace io.Writer // optional trace sink, written to whenever non-nil
}

// Begin starts a new Transaction against rt.
func Begin(rt *runtime.Runtime) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		rt:             rt,
		methods:        make(map[string]*bundle.Method),
		forwardPending: make(map[string]bool),
		cache:          fragment.New(),
	}
}

// ApplyHeader checks h's Extends/Uses imports against the compiler's
// declared version set and the runtime's already-committed modules
// (imports are named by the same logical module name a ModuleNameResolver
// locates source for — resolving and compiling that source, in
// dependency order, is the caller's job, done before ApplyHeader runs;
// see cmd/availc for the reference driver), makes every method each
// imported module committed visible to this module (Extends and Uses are
// handled identically; an import's name list, Import.Names, is not
// applied as a filter, and imported methods are not re-exported, since
// Commit records only this module's own methods), creates a fresh
// *bundle.Method placeholder for each Names entry, and builds the initial
// bundle tree from the imported modules' methods (§4.8 steps 1, 3).
func (tx *Transaction) ApplyHeader(h *Header, declared semver.DeclaredVersions) error {
	tx.header = h

	var visible []string
	for _, imp := range append(append([]Import{}, h.Extends...), h.Uses...) {
		if len(imp.Versions) > 0 {
			ok, err := checkVersions(imp.Versions, declared)
			if err != nil {
				return fmt.Errorf("module %q: import %q: %w", h.ModuleName, imp.Name, err)
			}
			if !ok {
				return fmt.Errorf("module %q: import %q: no declared compiler version satisfies %v", h.ModuleName, imp.Name, imp.Versions)
			}
		}
		if !tx.rt.HasMethodsAt(imp.Name) {
			return fmt.Errorf("module %q: import %q has no committed methods in this runtime", h.ModuleName, imp.Name)
		}
		visible = append(visible, imp.Name)
	}

	for _, atomName := range h.Names {
		if _, exists := tx.methods[atomName]; exists {
			return fmt.Errorf("module %q: Names entry %q declared twice", h.ModuleName, atomName)
		}
		tx.methods[atomName] = &bundle.Method{Name: atomName}
		tx.publicAtoms = append(tx.publicAtoms, atomName)
	}

	tree, err := tx.rt.RootBundleTree(visible)
	if err != nil {
		return fmt.Errorf("module %q: build initial bundle tree: %w", h.ModuleName, err)
	}
	tx.tree = tree
	return nil
}

func checkVersions(clauses []string, declared semver.DeclaredVersions) (bool, error) {
	for _, clause := range clauses {
		c, err := semver.Parse(clause)
		if err != nil {
			return false, err
		}
		ok, err := c.Satisfies(declared)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ApplyPragmas creates bootstrap method/macro definitions named by h's
// Pragma clause, resolving each primitive number through reg (§4.8 step
// 2). The resulting bundles are folded into the module's bundle tree
// immediately, since later top-level statements may reference them.
func (tx *Transaction) ApplyPragmas(reg PrimitiveRegistry) error {
	for _, pr := range tx.header.Pragmas {
		method, ok := tx.methods[pr.Name]
		if !ok {
			method = &bundle.Method{Name: pr.Name}
			tx.methods[pr.Name] = method
		}

		switch pr.Kind {
		case "method":
			def, err := reg.MethodDefinition(pr.PrimitiveNumber)
			if err != nil {
				return fmt.Errorf("pragma %s=%d=%s: %w", pr.Kind, pr.PrimitiveNumber, pr.Name, err)
			}
			method.Definitions = append(method.Definitions, def)

		case "macro":
			mac, err := reg.MacroDefinition(pr.PrimitiveNumber)
			if err != nil {
				return fmt.Errorf("pragma %s=%d=%s: %w", pr.Kind, pr.PrimitiveNumber, pr.Name, err)
			}
			method.Macros = append(method.Macros, mac)
		}

		if err := tx.declareBundle(pr.Name, method); err != nil {
			return fmt.Errorf("pragma %s=%d=%s: %w", pr.Kind, pr.PrimitiveNumber, pr.Name, err)
		}
	}
	return nil
}

// DeclareMethod splits name via the message splitter and installs the
// resulting bundle, binding it to method (a new or previously declared
// one), folding it into the live bundle tree (§3, §4.2, §4.3).
func (tx *Transaction) DeclareMethod(name string, method *bundle.Method) error {
	tx.methods[method.Name] = method
	return tx.declareBundle(name, method)
}

func (tx *Transaction) declareBundle(messageName string, method *bundle.Method) error {
	prog, exprs, err := splitter.Split(messageName)
	if err != nil {
		return err
	}
	b := &bundle.Bundle{Name: messageName, Program: prog, Expressions: exprs, Method: method}
	tx.bundles = append(tx.bundles, b)
	tx.tree.AddPlan(bundle.Plan{Bundle: b, Cursor: 1})
	tx.tree.Expand()
	return nil
}

// Engine builds an *engine.Engine driving this transaction's live bundle
// tree against tokens, ready for the statement loop.
func (tx *Transaction) Engine(tokens token.Stream, exprs engine.ExpressionSource) *engine.Engine {
	return &engine.Engine{
		Root:            tx.tree,
		Tokens:          tokenSourceAdapter{tokens},
		Cache:           tx.cache,
		Progress:        engine.NewProgress(),
		Exprs:           exprs,
		OnCompletedSend: engine.DefaultCompletedSend,
	}
}

type tokenSourceAdapter struct{ s token.Stream }

func (a tokenSourceAdapter) At(offset int) (token.Token, error) { return a.s.At(offset) }

// RunStatementLoop executes §4.8 step 4: repeatedly parsing, type-
// checking, and running one outermost statement at a time via commit,
// until tokens reaches end of file. commit is called once per successful
// statement with its resulting phrase; it is responsible for codegen,
// interpretation, and appending to the serialization stream (§4.8 step
// 4d) — kept as a caller-supplied hook so Transaction stays independent
// of any particular CodeGenerator/Interpreter/Serializer pairing.
func (tx *Transaction) RunStatementLoop(ctx context.Context, tokens token.Stream, exprs engine.ExpressionSource, startPos int, commit func(statement fragment.Solution) error) error {
	en := tx.Engine(tokens, exprs)
	state := parsestate.New(startPos)

	for {
		tok, err := tokens.At(state.Position())
		if err != nil {
			return fmt.Errorf("module %q: scan at %d: %w", tx.header.ModuleName, state.Position(), err)
		}
		if tok.IsEnd() {
			return nil
		}

		sol, err := en.TryIfUnambiguous(ctx, state)
		if err != nil {
			return fmt.Errorf("module %q: %w", tx.header.ModuleName, err)
		}

		if err := commit(sol); err != nil {
			return fmt.Errorf("module %q: %w", tx.header.ModuleName, err)
		}

		tx.cache.Clear()
		// A top-level declaration extends module scope for every later
		// statement, following the same with-declaration discipline the
		// engine uses for block-local declarations (§4.4).
		if decl, ok := sol.Phrase.(*phrase.Declaration); ok {
			state = sol.End.WithDeclaration(parsestate.Declaration{Name: decl.Name, Type: decl.DeclaredType})
		} else {
			state = sol.End
		}
	}
}

// Commit finalizes the transaction: verifies no forward definitions
// remain unresolved, registers the transaction's bundles with the
// runtime, builds the module's runtime.ModuleRecord, and installs it
// (§4.8 step 5). stream is appended with the publication
// function for this module's public atoms before the record is built.
func (tx *Transaction) Commit(stream *serializer.Stream, publish serializer.CompiledFunction) (*runtime.ModuleRecord, error) {
	for name := range tx.forwardPending {
		return nil, fmt.Errorf("module %q: forward definition for %q was never resolved", tx.header.ModuleName, name)
	}

	stream.Publish(publish)

	for _, b := range tx.bundles {
		tx.rt.RegisterBundle(b)
	}

	rec := &runtime.ModuleRecord{
		Name:        tx.header.ModuleName,
		Methods:     tx.methods,
		PublicAtoms: tx.publicAtoms,
	}
	tx.rt.AddModule(rec)
	return rec, nil
}

// Rollback discards the transaction. Since no mutation reached the
// shared Runtime before Commit, this is a no-op; it exists so callers
// have an explicit, symmetric counterpart to Commit (§4.8 step 5 "on any
// failure throughout, roll back").
func (tx *Transaction) Rollback() {}

// MarkForward records that name was forward-declared and must be
// resolved by a later statement before Commit can succeed.
func (tx *Transaction) MarkForward(name string) { tx.forwardPending[name] = true }

// ResolveForward clears a previously marked forward declaration.
func (tx *Transaction) ResolveForward(name string) { delete(tx.forwardPending, name) }
