// Package bundle models a message name's binding to its method (§3): the
// Bundle itself, the polymorphic Method it names, and the lazily-expanded
// Bundle tree that the parsing engine drives.
package bundle

import (
	"fmt"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/splitter"
)

// Definition is a single concrete entry in a Method: a function-typed
// body, or an abstract/forward placeholder awaiting a later definition.
type Definition struct {
	Signature *atype.Function
	Abstract  bool
	Forward   bool

	// Primitive names the injected-registry primitive this definition
	// runs, for bootstrap pragma-created definitions (§4.8); empty for an
	// ordinary user-defined body.
	Primitive string
}

// Rejection is the explicit rejection signal a SemanticRestriction may
// raise to fail a parse path with a human-readable explanation (§4.7,
// §7), modeled as an error type rather than unwinding the work-unit
// executor (§9).
type Rejection struct{ Message string }

func (r *Rejection) Error() string { return r.Message }

// Reject constructs a Rejection error.
func Reject(format string, a ...any) error {
	return &Rejection{Message: fmt.Sprintf(format, a...)}
}

// SemanticRestriction narrows (or rejects) the return type of a send given
// the static types of its arguments (§4.7).
type SemanticRestriction struct {
	Name string
	Eval func(argTypes []atype.Type) (atype.Type, error)
}

// Macro is a definition whose body runs at parse time and must return a
// phrase (§4.7, GLOSSARY). PrefixFunctions holds one function per
// SectionCheckpoint in pattern order (§4.2, §4.5); the parsing engine
// does not call them, since its RunPrefixFunction step only continues
// the parse.
type Macro struct {
	Signature       *atype.Function
	PrefixFunctions []func(partialArgs [][]phrase.Phrase) error
	Body            func(argPhrases []phrase.Phrase) (phrase.Phrase, error)
}

// Method is a named polymorphic function: its definitions, semantic
// restrictions, and (disjoint from ordinary definitions) its macros.
type Method struct {
	Name         string
	Definitions  []*Definition
	Restrictions []*SemanticRestriction
	Macros       []*Macro
}

// HasMacros reports whether any definition of this method is a macro,
// which changes completed-send processing entirely (§4.7).
func (m *Method) HasMacros() bool { return len(m.Macros) > 0 }

// ApplicableDefinitions returns the definitions whose parameter types
// accept argTypes.
func (m *Method) ApplicableDefinitions(argTypes []atype.Type) []*Definition {
	var out []*Definition
	for _, d := range m.Definitions {
		if signatureAccepts(d.Signature, argTypes) {
			out = append(out, d)
		}
	}
	return out
}

func signatureAccepts(sig *atype.Function, argTypes []atype.Type) bool {
	if len(sig.Params) != len(argTypes) {
		return false
	}
	for i, p := range sig.Params {
		if !p.Covers(argTypes[i]) {
			return false
		}
	}
	return true
}

// GrammaticalRestriction constrains what inner method may appear as the
// send at a given argument position of a given message (§4.3, GLOSSARY):
// disallowed names a method that must NOT be the argument's head send.
type GrammaticalRestriction struct {
	ArgumentIndex int
	Disallowed    map[string]bool
}

// Bundle binds a message name to its splitter output, its expression
// tree, the method it names, and any grammatical restrictions declared
// against its argument positions (§3).
type Bundle struct {
	Name         string
	Program      *splitter.Program
	Expressions  []splitter.Expression
	Method       *Method
	Restrictions []*GrammaticalRestriction
}

// Disallows reports whether the grammatical restriction at argIndex rules
// out innerMethod as the head of the argument phrase there.
func (b *Bundle) Disallows(argIndex int, innerMethod string) bool {
	for _, r := range b.Restrictions {
		if r.ArgumentIndex == argIndex && r.Disallowed[innerMethod] {
			return true
		}
	}
	return false
}

