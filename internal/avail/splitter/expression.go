package splitter

import "strings"

// Expression is the sealed sum type over every message-pattern expression
// variant (§3, §9). Every variant implements exhaustive dispatch rather
// than relying on a type hierarchy: callers switch on the concrete type
// when they need variant-specific behavior beyond what's exposed here.
type Expression interface {
	// ArgumentCount is the number of arguments this expression contributes
	// to its enclosing send (the "underscore count").
	ArgumentCount() int

	// IsArgumentOrGroup reports whether this expression is itself an
	// argument-contributing form (Argument, RawToken, VariableQuote,
	// ModuleScopeArgument, or Group).
	IsArgumentOrGroup() bool

	// IsGroup reports whether this expression is specifically a Group.
	IsGroup() bool

	// IsLowerCase reports whether every literal keyword nested in this
	// expression is already lower-case (required before wrapping it in
	// CaseInsensitive).
	IsLowerCase() bool

	// SectionCheckpoints returns every SectionCheckpoint nested anywhere
	// inside this expression, in source order.
	SectionCheckpoints() []*SectionCheckpoint

	// String renders the expression the way it would appear reconstructed
	// from a message name, for diagnostics.
	String() string
}

// Simple is a literal keyword or operator part of the message name.
type Simple struct {
	Keyword string
}

func (e *Simple) ArgumentCount() int               { return 0 }
func (e *Simple) IsArgumentOrGroup() bool          { return false }
func (e *Simple) IsGroup() bool                    { return false }
func (e *Simple) IsLowerCase() bool                { return e.Keyword == strings.ToLower(e.Keyword) }
func (e *Simple) SectionCheckpoints() []*SectionCheckpoint { return nil }
func (e *Simple) String() string                   { return e.Keyword }

// Argument is a single `_` placeholder.
type Argument struct{}

func (e *Argument) ArgumentCount() int               { return 1 }
func (e *Argument) IsArgumentOrGroup() bool          { return true }
func (e *Argument) IsGroup() bool                    { return false }
func (e *Argument) IsLowerCase() bool                { return true }
func (e *Argument) SectionCheckpoints() []*SectionCheckpoint { return nil }
func (e *Argument) String() string                   { return "_" }

// RawToken is a `…` placeholder: parses exactly one raw token, unparsed.
type RawToken struct{}

func (e *RawToken) ArgumentCount() int               { return 1 }
func (e *RawToken) IsArgumentOrGroup() bool          { return true }
func (e *RawToken) IsGroup() bool                    { return false }
func (e *RawToken) IsLowerCase() bool                { return true }
func (e *RawToken) SectionCheckpoints() []*SectionCheckpoint { return nil }
func (e *RawToken) String() string                   { return "…" }

// VariableQuote is a `↑` placeholder: parses a variable reference, not its
// value.
type VariableQuote struct{}

func (e *VariableQuote) ArgumentCount() int               { return 1 }
func (e *VariableQuote) IsArgumentOrGroup() bool          { return true }
func (e *VariableQuote) IsGroup() bool                    { return false }
func (e *VariableQuote) IsLowerCase() bool                { return true }
func (e *VariableQuote) SectionCheckpoints() []*SectionCheckpoint { return nil }
func (e *VariableQuote) String() string                   { return "↑" }

// ModuleScopeArgument is a `…†` argument parsed and evaluated in an empty
// (module-level) scope, converting its phrase to a value at parse time.
type ModuleScopeArgument struct{}

func (e *ModuleScopeArgument) ArgumentCount() int      { return 1 }
func (e *ModuleScopeArgument) IsArgumentOrGroup() bool { return true }
func (e *ModuleScopeArgument) IsGroup() bool           { return false }
func (e *ModuleScopeArgument) IsLowerCase() bool       { return true }
func (e *ModuleScopeArgument) SectionCheckpoints() []*SectionCheckpoint {
	return nil
}
func (e *ModuleScopeArgument) String() string { return "…†" }

// Group is a `« ... »` delimited sequence, optionally split by a `‡`
// double-dagger into a repeated Body and a once-per-iteration Post tail.
type Group struct {
	Body []Expression
	Dagger bool
	Post   []Expression
}

func (e *Group) ArgumentCount() int {
	n := 0
	for _, c := range e.Body {
		n += c.ArgumentCount()
	}
	for _, c := range e.Post {
		n += c.ArgumentCount()
	}
	return n
}
func (e *Group) IsArgumentOrGroup() bool { return true }
func (e *Group) IsGroup() bool           { return true }
func (e *Group) IsLowerCase() bool {
	for _, c := range e.Body {
		if !c.IsLowerCase() {
			return false
		}
	}
	for _, c := range e.Post {
		if !c.IsLowerCase() {
			return false
		}
	}
	return true
}
func (e *Group) SectionCheckpoints() []*SectionCheckpoint {
	var out []*SectionCheckpoint
	for _, c := range e.Body {
		out = append(out, c.SectionCheckpoints()...)
	}
	for _, c := range e.Post {
		out = append(out, c.SectionCheckpoints()...)
	}
	return out
}
func (e *Group) String() string {
	var sb strings.Builder
	sb.WriteString("«")
	writeAll(&sb, e.Body)
	if e.Dagger {
		sb.WriteString("‡")
		writeAll(&sb, e.Post)
	}
	sb.WriteString("»")
	return sb.String()
}

// leafArgumentCount is the number of direct Argument/RawToken/VariableQuote/
// ModuleScopeArgument leaves (not nested-group arguments) in the body.
func (e *Group) leafArgumentCount() int {
	n := 0
	for _, c := range e.Body {
		switch c.(type) {
		case *Argument, *RawToken, *VariableQuote, *ModuleScopeArgument:
			n++
		}
	}
	return n
}

// NeedsDoubleWrapping reports whether each loop iteration must be wrapped
// into its own fixed-length list (more than one leaf argument, or any
// argument or group after the dagger), as opposed to contributing a flat
// list of arguments. Keywords after the dagger do not force wrapping.
func (e *Group) NeedsDoubleWrapping() bool {
	for _, c := range e.Post {
		if c.IsArgumentOrGroup() {
			return true
		}
	}
	if e.leafArgumentCount() != 1 {
		return true
	}
	// a lone nested Group also forces double-wrapping, since its own
	// contribution is already a list.
	for _, c := range e.Body {
		if c.IsGroup() {
			return true
		}
	}
	return false
}

// Counter is `« ... »#`: counts loop iterations instead of collecting args.
type Counter struct{ Group *Group }

func (e *Counter) ArgumentCount() int      { return 0 }
func (e *Counter) IsArgumentOrGroup() bool { return false }
func (e *Counter) IsGroup() bool           { return false }
func (e *Counter) IsLowerCase() bool       { return e.Group.IsLowerCase() }
func (e *Counter) SectionCheckpoints() []*SectionCheckpoint {
	return e.Group.SectionCheckpoints()
}
func (e *Counter) String() string { return e.Group.String() + "#" }

// Optional is `« ... »?`: a boolean for whether the group matched.
type Optional struct{ Group *Group }

func (e *Optional) ArgumentCount() int      { return 0 }
func (e *Optional) IsArgumentOrGroup() bool { return false }
func (e *Optional) IsGroup() bool           { return false }
func (e *Optional) IsLowerCase() bool       { return e.Group.IsLowerCase() }
func (e *Optional) SectionCheckpoints() []*SectionCheckpoint {
	return e.Group.SectionCheckpoints()
}
func (e *Optional) String() string { return e.Group.String() + "?" }

// CompletelyOptional is `« ... »??`: matched or not, with no pushed value.
type CompletelyOptional struct{ Inner Expression }

func (e *CompletelyOptional) ArgumentCount() int      { return 0 }
func (e *CompletelyOptional) IsArgumentOrGroup() bool { return false }
func (e *CompletelyOptional) IsGroup() bool           { return false }
func (e *CompletelyOptional) IsLowerCase() bool       { return e.Inner.IsLowerCase() }
func (e *CompletelyOptional) SectionCheckpoints() []*SectionCheckpoint {
	return e.Inner.SectionCheckpoints()
}
func (e *CompletelyOptional) String() string { return e.Inner.String() + "??" }

// CaseInsensitive is `... ~`: every keyword nested inside it is matched
// case-insensitively.
type CaseInsensitive struct{ Inner Expression }

func (e *CaseInsensitive) ArgumentCount() int      { return e.Inner.ArgumentCount() }
func (e *CaseInsensitive) IsArgumentOrGroup() bool { return e.Inner.IsArgumentOrGroup() }
func (e *CaseInsensitive) IsGroup() bool           { return e.Inner.IsGroup() }
func (e *CaseInsensitive) IsLowerCase() bool       { return e.Inner.IsLowerCase() }
func (e *CaseInsensitive) SectionCheckpoints() []*SectionCheckpoint {
	return e.Inner.SectionCheckpoints()
}
func (e *CaseInsensitive) String() string { return e.Inner.String() + "~" }

// Alternation is `« a | b | c »`: exactly one branch, none with arguments.
type Alternation struct{ Branches [][]Expression }

func (e *Alternation) ArgumentCount() int      { return 0 }
func (e *Alternation) IsArgumentOrGroup() bool { return false }
func (e *Alternation) IsGroup() bool           { return false }
func (e *Alternation) IsLowerCase() bool {
	for _, b := range e.Branches {
		for _, c := range b {
			if !c.IsLowerCase() {
				return false
			}
		}
	}
	return true
}
func (e *Alternation) SectionCheckpoints() []*SectionCheckpoint { return nil }
func (e *Alternation) String() string {
	var sb strings.Builder
	sb.WriteString("«")
	for i, b := range e.Branches {
		if i > 0 {
			sb.WriteString("|")
		}
		writeAll(&sb, b)
	}
	sb.WriteString("»")
	return sb.String()
}

// NumberedChoice is an Alternation decorated with `!`: the chosen branch's
// one-based index is pushed as an integer literal argument.
type NumberedChoice struct{ Alt *Alternation }

func (e *NumberedChoice) ArgumentCount() int               { return 1 }
func (e *NumberedChoice) IsArgumentOrGroup() bool          { return false }
func (e *NumberedChoice) IsGroup() bool                    { return false }
func (e *NumberedChoice) IsLowerCase() bool                { return e.Alt.IsLowerCase() }
func (e *NumberedChoice) SectionCheckpoints() []*SectionCheckpoint { return nil }
func (e *NumberedChoice) String() string                   { return e.Alt.String() + "!" }

// SectionCheckpoint is a `§` marker invoking a macro's nth prefix function.
type SectionCheckpoint struct{ Number int }

func (e *SectionCheckpoint) ArgumentCount() int      { return 0 }
func (e *SectionCheckpoint) IsArgumentOrGroup() bool { return false }
func (e *SectionCheckpoint) IsGroup() bool           { return false }
func (e *SectionCheckpoint) IsLowerCase() bool       { return true }
func (e *SectionCheckpoint) SectionCheckpoints() []*SectionCheckpoint {
	return []*SectionCheckpoint{e}
}
func (e *SectionCheckpoint) String() string { return "§" }

func writeAll(sb *strings.Builder, exprs []Expression) {
	for i, e := range exprs {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(e.String())
	}
}
