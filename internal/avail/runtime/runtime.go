// Package runtime holds the process-wide method/bundle registry and the
// collaborator interfaces the core consumes (§6, §9 "the process-wide
// runtime holds only the method/bundle registry, which is mutated
// transactionally").
package runtime

import (
	"fmt"
	"sync"

	"github.com/dekarrin/avail/internal/avail/bundle"
	"github.com/dekarrin/avail/internal/avail/phrase"
)

// ModuleNameResolver turns a module name as written in a Uses/Extends
// clause into the location its source is read from (§6); the Runtime
// itself indexes modules by their declared module name.
type ModuleNameResolver interface {
	Resolve(name string) (string, error)
}

// ModuleRecord is what the Runtime stores for one committed module: its
// declared module name, the methods it makes visible to importers, and its
// public atom names.
type ModuleRecord struct {
	Name        string
	Methods     map[string]*bundle.Method
	PublicAtoms []string
}

// Runtime is the process-wide registry of committed modules and their
// visible methods (§6, §9). All mutation happens only from within a
// module.Transaction's commit step; reads are safe at any time.
type Runtime struct {
	mu      sync.RWMutex
	modules map[string]*ModuleRecord

	bundleMu        sync.RWMutex
	bundlesByMethod map[*bundle.Method][]*bundle.Bundle
}

// New constructs an empty Runtime.
func New() *Runtime {
	return &Runtime{
		modules:         make(map[string]*ModuleRecord),
		bundlesByMethod: make(map[*bundle.Method][]*bundle.Bundle),
	}
}

// AddModule commits a module's record, replacing any previous record
// under the same name (a recompiled module supersedes the old one).
func (r *Runtime) AddModule(rec *ModuleRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[rec.Name] = rec
}

// ModuleAt returns the committed record for the resolved module name.
func (r *Runtime) ModuleAt(name string) (*ModuleRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.modules[name]
	return rec, ok
}

// HasMethodsAt reports whether the module at name has committed at least
// one method visible to importers.
func (r *Runtime) HasMethodsAt(name string) bool {
	rec, ok := r.ModuleAt(name)
	return ok && len(rec.Methods) > 0
}

// MethodsAt returns every method the module at name makes visible.
func (r *Runtime) MethodsAt(name string) ([]*bundle.Method, error) {
	rec, ok := r.ModuleAt(name)
	if !ok {
		return nil, fmt.Errorf("no committed module named %q", name)
	}
	out := make([]*bundle.Method, 0, len(rec.Methods))
	for _, m := range rec.Methods {
		out = append(out, m)
	}
	return out, nil
}

// RootBundleTree builds a fresh bundle tree containing every method
// visible across the given set of resolved module names, for use as a
// new module's initial tree (§4.8 step 3).
func (r *Runtime) RootBundleTree(visibleModules []string) (*bundle.Tree, error) {
	root := bundle.NewTree()
	for _, name := range visibleModules {
		methods, err := r.MethodsAt(name)
		if err != nil {
			return nil, err
		}
		for _, m := range methods {
			for _, b := range r.methodBundles(m) {
				root.AddPlan(bundle.Plan{Bundle: b, Cursor: 1})
			}
		}
	}
	root.Expand()
	return root, nil
}

func (r *Runtime) methodBundles(m *bundle.Method) []*bundle.Bundle {
	r.bundleMu.RLock()
	defer r.bundleMu.RUnlock()
	return r.bundlesByMethod[m]
}

// RegisterBundle records that b names m, so a later RootBundleTree call
// can find every message name a visible method answers to.
func (r *Runtime) RegisterBundle(b *bundle.Bundle) {
	r.bundleMu.Lock()
	defer r.bundleMu.Unlock()
	r.bundlesByMethod[b.Method] = append(r.bundlesByMethod[b.Method], b)
}

// Interpreter runs a compiled zero-argument function to completion (§6,
// §4.8 step 4d). fiber correlates this run with its enclosing work
// window's trace output; it carries no scheduling meaning of its own.
type Interpreter interface {
	RunOutermostFunction(fiber string, function CompiledBlock, args []phrase.Phrase, onSuccess func(result phrase.Phrase), onFailure func(err error))
}

// CompiledBlock is the opaque result of CodeGenerator.Generate: whatever
// representation the code generator's target needs to execute a block
// phrase, threaded back through Interpreter.RunOutermostFunction.
type CompiledBlock interface {
	// Describe returns a short human-readable label for trace output.
	Describe() string
}

// CodeGenerator turns a compiled block phrase into a CompiledBlock ready
// for Interpreter.RunOutermostFunction (§6).
type CodeGenerator interface {
	Generate(block *phrase.Block) (CompiledBlock, error)
}

// Serializer writes one value (a compiled function, or the module's
// public-atom publication function) to the module's serialization byte
// stream (§6, §4.8 step 4d/5).
type Serializer interface {
	Serialize(value any) error
}
