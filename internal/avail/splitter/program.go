package splitter

// Opcode enumerates every parsing-program instruction the engine can
// execute (§4.5). Rather than packing opcode and operand into one integer
// (the source's encoding, flagged as a mismatch with idiomatic Go in §9),
// each Instruction is a small fixed-size tagged struct.
type Opcode int

const (
	OpParseArgument Opcode = iota
	OpNewList
	OpAppendArgument
	OpSavePosition
	OpDiscardSavedPosition
	OpEnsureProgress
	OpParseRawToken
	OpPop
	OpArgumentsCheckpoint
	OpBranch
	OpJump
	OpParsePart
	OpParsePartCaseInsensitive
	OpCheckArgument
	OpConvert
	OpPushIntegerLiteral
	OpPrepareToRunPrefixFunction
	OpRunPrefixFunction
	OpParseArgumentInModuleScope
	OpParseVariableReference
	OpPushTrue
	OpPushFalse
)

// ConvertRule enumerates the Convert opcode's rule set explicitly (§9: the
// source's rule list is non-exhaustive with an asserting default branch;
// here every rule is named and an unknown rule is a structural error
// rather than an assertion failure).
type ConvertRule int

const (
	ConvertNone ConvertRule = iota
	ConvertListToSize
	ConvertListToNonemptiness
	ConvertEvaluateExpression
)

// Instruction is one step of a parsing program. Target is a one-based
// index into the owning Program's Instructions, used by Branch and Jump.
// Keyword is populated only for ParsePart/ParsePartCaseInsensitive.
// Operand carries the argument index for CheckArgument, the one-based
// chosen-branch index for PushIntegerLiteral, the prefix-function number for
// RunPrefixFunction, and the partial-list count for
// PrepareToRunPrefixFunction.
type Instruction struct {
	Op      Opcode
	Target  int
	Operand int
	Keyword string
	Rule    ConvertRule
}

// Program is the finite instruction sequence a splitter emits for one
// message expression tree (§3).
type Program struct {
	Instructions []Instruction
	ArgumentCount int
}

// emitter accumulates instructions and resolves forward branch targets in
// a second pass, mirroring the splitter's two-pass emission strategy: the
// first pass determines how many instructions each construct needs (by
// actually emitting, with branch targets recorded as label IDs), and the
// second patches every label reference to its final one-based index.
type emitter struct {
	instrs []Instruction
	labels map[int]int // label ID -> resolved one-based instruction index
	nextLabel int
	unresolved []labelRef
}

type labelRef struct {
	instrIndex int // index into e.instrs of the Branch/Jump needing patched Target
	label      int
}

func newEmitter() *emitter {
	return &emitter{labels: make(map[int]int)}
}

func (e *emitter) newLabel() int {
	e.nextLabel++
	return e.nextLabel
}

func (e *emitter) mark(label int) {
	// one-based index of the *next* instruction to be emitted
	e.labels[label] = len(e.instrs) + 1
}

func (e *emitter) emit(in Instruction) int {
	e.instrs = append(e.instrs, in)
	return len(e.instrs) // one-based index of the instruction just emitted
}

func (e *emitter) emitBranchTo(op Opcode, label int) {
	idx := e.emit(Instruction{Op: op})
	e.unresolved = append(e.unresolved, labelRef{instrIndex: idx - 1, label: label})
}

func (e *emitter) finish(argCount int) *Program {
	for _, ref := range e.unresolved {
		target, ok := e.labels[ref.label]
		if !ok {
			// an unmarked label is an emitter bug, not a user-facing error.
			panic("splitter: unresolved branch label")
		}
		e.instrs[ref.instrIndex].Target = target
	}
	return &Program{Instructions: e.instrs, ArgumentCount: argCount}
}

// Emit compiles expr's program per the rules of §4.2. argIndex is the
// 1-based global argument index of the next Argument-contributing leaf
// encountered in source order; it is threaded through recursively so that
// CheckArgument opcodes carry the correct index for grammatical-
// restriction lookups.
func Emit(expr Expression) *Program {
	e := newEmitter()
	next := 1
	emitSequence(e, []Expression{expr}, &next, 0)
	return e.finish(expr.ArgumentCount())
}

// EmitSequence compiles a top-level sequence of expressions, as found
// directly under a message name (not inside any Group).
func EmitSequence(exprs []Expression) *Program {
	e := newEmitter()
	next := 1
	emitSequence(e, exprs, &next, 0)
	return e.finish(totalArgs(exprs))
}

func totalArgs(exprs []Expression) int {
	n := 0
	for _, x := range exprs {
		n += x.ArgumentCount()
	}
	return n
}

func emitSequence(e *emitter, exprs []Expression, next *int, partialLists int) {
	for _, x := range exprs {
		emitOne(e, x, next, partialLists)
	}
}

// emitOne emits the instructions for a single expression, per its variant
// (§4.2). partialLists tracks how many lists are under construction around
// this position, needed by SectionCheckpoint.
func emitOne(e *emitter, expr Expression, next *int, partialLists int) {
	switch x := expr.(type) {
	case *Simple:
		e.emit(Instruction{Op: OpParsePart, Keyword: x.Keyword})

	case *Argument:
		e.emit(Instruction{Op: OpParseArgument})
		e.emit(Instruction{Op: OpCheckArgument, Operand: *next})
		*next++

	case *RawToken:
		e.emit(Instruction{Op: OpParseRawToken})
		e.emit(Instruction{Op: OpCheckArgument, Operand: *next})
		*next++

	case *VariableQuote:
		e.emit(Instruction{Op: OpParseVariableReference})
		e.emit(Instruction{Op: OpCheckArgument, Operand: *next})
		*next++

	case *ModuleScopeArgument:
		e.emit(Instruction{Op: OpParseArgumentInModuleScope})
		e.emit(Instruction{Op: OpCheckArgument, Operand: *next})
		*next++
		e.emit(Instruction{Op: OpConvert, Rule: ConvertEvaluateExpression})

	case *Group:
		emitGroup(e, x, next, partialLists)

	case *Counter:
		emitGroup(e, x.Group, next, partialLists)
		e.emit(Instruction{Op: OpConvert, Rule: ConvertListToSize})

	case *Optional:
		emitOptional(e, x, next, partialLists)

	case *CompletelyOptional:
		emitCompletelyOptional(e, x, next, partialLists)

	case *Alternation:
		emitAlternation(e, x, next)

	case *NumberedChoice:
		emitNumberedChoice(e, x, next)

	case *CaseInsensitive:
		start := len(e.instrs)
		emitOne(e, x.Inner, next, partialLists)
		markCaseInsensitive(e, start)

	case *SectionCheckpoint:
		e.emit(Instruction{Op: OpPrepareToRunPrefixFunction, Operand: partialLists + 1})
		e.emit(Instruction{Op: OpRunPrefixFunction, Operand: x.Number})

	default:
		panic("splitter: unhandled expression variant in emitOne")
	}
}

// markCaseInsensitive flips every ParsePart emitted from index start
// onward into its case-insensitive form, so each keyword nested inside a
// CaseInsensitive expression is matched case-insensitively.
func markCaseInsensitive(e *emitter, start int) {
	for i := start; i < len(e.instrs); i++ {
		if e.instrs[i].Op == OpParsePart {
			e.instrs[i].Op = OpParsePartCaseInsensitive
		}
	}
}

func emitGroup(e *emitter, g *Group, next *int, partialLists int) {
	loopSkip := e.newLabel()
	loopStart := e.newLabel()
	loopExit := e.newLabel()

	e.emit(Instruction{Op: OpSavePosition})
	e.emit(Instruction{Op: OpNewList})
	e.emitBranchTo(OpBranch, loopSkip)

	e.mark(loopStart)
	innerPartial := partialLists + 1
	double := g.NeedsDoubleWrapping()
	if double {
		e.emit(Instruction{Op: OpNewList})
	}
	for _, item := range g.Body {
		emitOne(e, item, next, innerPartial)
		if item.IsArgumentOrGroup() {
			e.emit(Instruction{Op: OpAppendArgument})
		}
	}
	if g.Dagger {
		if double {
			e.emit(Instruction{Op: OpAppendArgument})
		}
		e.emitBranchTo(OpBranch, loopExit)
		for _, item := range g.Post {
			emitOne(e, item, next, innerPartial)
			if item.IsArgumentOrGroup() {
				e.emit(Instruction{Op: OpAppendArgument})
			}
		}
		if double {
			e.emit(Instruction{Op: OpAppendArgument})
		}
	} else if double {
		e.emit(Instruction{Op: OpAppendArgument})
	}
	e.emit(Instruction{Op: OpEnsureProgress})
	e.emitBranchTo(OpJump, loopStart)

	e.mark(loopExit)
	e.emit(Instruction{Op: OpEnsureProgress})

	e.mark(loopSkip)
	e.emit(Instruction{Op: OpDiscardSavedPosition})
}

func emitOptional(e *emitter, o *Optional, next *int, partialLists int) {
	absent := e.newLabel()
	skip := e.newLabel()

	e.emitBranchTo(OpBranch, absent)
	e.emit(Instruction{Op: OpSavePosition})
	for _, item := range o.Group.Body {
		emitOne(e, item, next, partialLists)
	}
	e.emit(Instruction{Op: OpEnsureProgress})
	e.emit(Instruction{Op: OpDiscardSavedPosition})
	e.emit(Instruction{Op: OpPushTrue})
	e.emitBranchTo(OpJump, skip)

	e.mark(absent)
	e.emit(Instruction{Op: OpPushFalse})

	e.mark(skip)
}

func emitCompletelyOptional(e *emitter, co *CompletelyOptional, next *int, partialLists int) {
	absent := e.newLabel()
	skip := e.newLabel()

	e.emitBranchTo(OpBranch, absent)
	e.emit(Instruction{Op: OpSavePosition})
	emitOne(e, co.Inner, next, partialLists)
	e.emit(Instruction{Op: OpEnsureProgress})
	e.emit(Instruction{Op: OpDiscardSavedPosition})
	e.emitBranchTo(OpJump, skip)

	e.mark(absent)
	e.mark(skip)
}

func emitAlternation(e *emitter, alt *Alternation, next *int) {
	done := e.newLabel()
	for i, branch := range alt.Branches {
		last := i == len(alt.Branches)-1
		var nextLabel int
		if !last {
			nextLabel = e.newLabel()
			e.emitBranchTo(OpBranch, nextLabel)
		}
		for _, item := range branch {
			emitOne(e, item, next, 0)
		}
		if !last {
			e.emitBranchTo(OpJump, done)
			e.mark(nextLabel)
		}
	}
	e.mark(done)
}

func emitNumberedChoice(e *emitter, nc *NumberedChoice, next *int) {
	done := e.newLabel()
	for i, branch := range nc.Alt.Branches {
		last := i == len(nc.Alt.Branches)-1
		var nextLabel int
		if !last {
			nextLabel = e.newLabel()
			e.emitBranchTo(OpBranch, nextLabel)
		}
		for _, item := range branch {
			emitOne(e, item, next, 0)
		}
		e.emit(Instruction{Op: OpPushIntegerLiteral, Operand: i + 1})
		if !last {
			e.emitBranchTo(OpJump, done)
			e.mark(nextLabel)
		}
	}
	e.mark(done)
}
