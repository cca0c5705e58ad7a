package engine

import "github.com/dekarrin/avail/internal/avail/phrase"

// frame is the per-traversal instruction-execution state threaded
// alongside a parsestate.State while a single plan's program instructions
// run (§4.5). Unlike parsestate.State and the bundle tree, a frame is
// never shared between branching parse attempts: each fork gets its own
// copy (value semantics throughout).
type frame struct {
	// stack holds values produced by ParseArgument, ParseRawToken,
	// ParseVariableReference, ParseArgumentInModuleScope, PushTrue,
	// PushFalse, PushIntegerLiteral, NewList, and Convert, consumed by
	// AppendArgument and Convert. Top-level arguments accumulate here in
	// source order and become the Args of a completed send.
	stack []any

	// saved is the SavePosition/DiscardSavedPosition/EnsureProgress
	// stack of token positions, one per currently-open group iteration.
	saved []int

	// lastArgHead is the method name of the most recently appended
	// argument's head send, if it is itself a send phrase; the engine
	// consults it for prefilter lookups (§4.5 rule 4).
	lastArgHead string
	hasArgHead  bool

	// consumed is whether at least one token has been consumed since this
	// plan's bundle's send began (§4.5 rule 1).
	consumed bool

	partialLists int
}

func (f frame) push(v any) frame {
	f.stack = append(append([]any(nil), f.stack...), v)
	return f
}

func (f frame) pop() (any, frame) {
	if len(f.stack) == 0 {
		return nil, f
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, f
}

func (f frame) pushSaved(pos int) frame {
	f.saved = append(append([]int(nil), f.saved...), pos)
	return f
}

func (f frame) popSaved() (int, frame) {
	if len(f.saved) == 0 {
		return -1, f
	}
	pos := f.saved[len(f.saved)-1]
	f.saved = f.saved[:len(f.saved)-1]
	return pos, f
}

func (f frame) peekSaved() int {
	if len(f.saved) == 0 {
		return -1
	}
	return f.saved[len(f.saved)-1]
}

// argPhrases extracts every phrase.Phrase on the stack, in order, for
// delivery as a completed send's argument list.
func (f frame) argPhrases() []phrase.Phrase {
	out := make([]phrase.Phrase, 0, len(f.stack))
	for _, v := range f.stack {
		switch val := v.(type) {
		case phrase.Phrase:
			out = append(out, val)
		case []phrase.Phrase:
			out = append(out, &phrase.List{Elements: val})
		}
	}
	return out
}
