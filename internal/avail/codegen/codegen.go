// Package codegen implements the CodeGenerator collaborator (§6): it
// turns a compiled block phrase into a CompiledBlock a runtime.Interpreter
// can run. This reference implementation evaluates the handful of
// literal/send/variable/assignment phrase shapes needed by the §8
// end-to-end scenarios directly, and treats anything else as a deferred
// external call; a full bytecode backend is out of scope here.
package codegen

import (
	"fmt"

	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/runtime"
)

// block is the reference CompiledBlock: just the phrase tree it was
// built from, re-walked at run time by the reference Interpreter.
type block struct {
	source *phrase.Block
}

func (b *block) Describe() string {
	return fmt.Sprintf("block(%d statements)", len(b.source.Body))
}

// Source returns the phrase b was compiled from, so a reference Interpreter
// can walk it directly without a separate bytecode representation.
func (b *block) Source() *phrase.Block { return b.source }

// Generator is the reference CodeGenerator: it performs no lowering at
// all, wrapping the phrase tree itself as the CompiledBlock. A real
// backend would lower to bytecode or native code here; this is
// sufficient for the in-memory reference Interpreter in this package
// and for the §8 scenarios, none of which require an optimizing backend.
type Generator struct{}

// Generate implements runtime.CodeGenerator.
func (Generator) Generate(b *phrase.Block) (runtime.CompiledBlock, error) {
	return &block{source: b}, nil
}

// AsSource extracts the original phrase.Block from a CompiledBlock
// produced by Generator, for an Interpreter that wants to walk it
// directly rather than treat it as opaque.
func AsSource(cb runtime.CompiledBlock) (*phrase.Block, bool) {
	b, ok := cb.(*block)
	if !ok {
		return nil, false
	}
	return b.source, true
}
