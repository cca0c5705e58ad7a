package engine

import (
	"strings"
	"unicode"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/bundle"
	"github.com/dekarrin/avail/internal/avail/fragment"
	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
	"github.com/dekarrin/avail/internal/avail/splitter"
	"github.com/dekarrin/avail/internal/avail/token"
)

// TokenSource is the token stream the engine consumes, produced by the
// lexical scanner (§4.1).
type TokenSource interface {
	At(offset int) (token.Token, error)
}

// ExpressionSource supplies the "uncached variants" §4.6 schedules at an
// otherwise-unseen parse state: simple literal forms and block literals.
// The leading-keyword-send variant is always the bundle tree itself and
// needs no collaborator.
type ExpressionSource interface {
	// Literal attempts to recognize a literal phrase at state's position.
	Literal(state parsestate.State) (phrase.Phrase, parsestate.State, bool)
	// Block attempts to recognize a block (function literal) phrase.
	Block(state parsestate.State) (phrase.Phrase, parsestate.State, bool)
}

// MethodResolver looks up a declared method by name, for semantic
// restriction application and macro execution in completed-send
// processing (§4.7). Bundles already carry their own *bundle.Method, so
// this is only needed to resolve an argument's head-send method name for
// prefilter/grammatical-restriction purposes.
type MethodResolver interface {
	ResolveSend(methodName string) (*bundle.Method, bool)
}

// Engine drives one module's bundle tree against a token stream,
// cooperating with the fragment cache and the progress tracker (§4.5).
type Engine struct {
	Root     *bundle.Tree
	Tokens   TokenSource
	Cache    *fragment.Cache
	Progress *Progress
	Exprs    ExpressionSource
	Methods  MethodResolver

	// OnCompletedSend processes a finished send (§4.7): filtering
	// applicable definitions, running semantic restrictions, and
	// constructing the resulting phrase, or running a macro body.
	// progress is where a rejected semantic restriction's message is
	// recorded as an expectation (§7).
	OnCompletedSend func(ex *Executor, b *bundle.Bundle, args []phrase.Phrase, end parsestate.State, progress *Progress, deliver func(phrase.Phrase, parsestate.State))
}

// ParseExpression is the memoized expression-parsing entry point (§4.6).
// It consults the fragment cache: on first reaching state it schedules
// the uncached variants and records the continuation cont as a registered
// action; on every later reach, cont simply gets registered and replayed
// against whatever solutions exist or arrive.
func (en *Engine) ParseExpression(ex *Executor, state parsestate.State, cont fragment.Action) {
	schedule := func(a fragment.Action, sol fragment.Solution) {
		ex.Schedule(func() { a(sol) })
	}

	if !en.Cache.Start(state) {
		// first arrival: schedule every uncached variant.
		ex.Schedule(func() {
			en.driveNode(ex, en.Root, state, frame{}, state.Position(), func(end parsestate.State, b *bundle.Bundle, args []phrase.Phrase) {
				en.OnCompletedSend(ex, b, args, end, en.Progress, func(p phrase.Phrase, finalEnd parsestate.State) {
					en.Cache.Record(state, fragment.Solution{End: finalEnd, Phrase: p}, schedule)
				})
			})
		})

		if en.Exprs != nil {
			ex.Schedule(func() {
				if p, end, ok := en.Exprs.Literal(state); ok {
					en.Cache.Record(state, fragment.Solution{End: end, Phrase: p}, schedule)
				}
			})
			ex.Schedule(func() {
				if p, end, ok := en.Exprs.Block(state); ok {
					en.Cache.Record(state, fragment.Solution{End: end, Phrase: p}, schedule)
				}
			})
		}
	}

	en.Cache.Register(state, cont, schedule)
}

// driveNode implements §4.5 steps 1-5 for one bundle-tree node at one
// parse state and traversal frame. observer is invoked for every
// completed message reachable from this node whose completion conditions
// are met.
func (en *Engine) driveNode(ex *Executor, node *bundle.Tree, state parsestate.State, fr frame, sendStart int, observer func(parsestate.State, *bundle.Bundle, []phrase.Phrase)) {
	node.Expand()

	// Step 1: completed messages.
	for _, b := range node.CompleteMessages() {
		if fr.consumed && !strandedLeadingArgument(b, state, sendStart) {
			bCopy, frCopy := b, fr
			ex.Schedule(func() { observer(state, bCopy, frCopy.argPhrases()) })
		}
	}

	tok, tokErr := en.Tokens.At(state.Position())
	haveToken := tokErr == nil && (tok.Kind() == token.KindKeyword || tok.Kind() == token.KindOperator)

	// Step 2 & 3: keyword edges.
	matchedAnyEdge := false
	if haveToken {
		if child, ok := node.ExactEdge(tok.Lexeme()); ok {
			matchedAnyEdge = true
			nf := fr
			nf.consumed = true
			child, nextState := child, state.WithPosition(tok.Start()+graphemeLen(tok.Lexeme()))
			ex.Schedule(func() { en.driveNode(ex, child, nextState, nf, sendStart, observer) })
		}
		if child, ok := node.CaseFoldedEdge(strings.ToLower(tok.Lexeme())); ok {
			matchedAnyEdge = true
			nf := fr
			nf.consumed = true
			child, nextState := child, state.WithPosition(tok.Start()+graphemeLen(tok.Lexeme()))
			ex.Schedule(func() { en.driveNode(ex, child, nextState, nf, sendStart, observer) })
		}
	}
	if !matchedAnyEdge {
		expected := node.ExpectedKeywords()
		if len(expected) > 0 {
			en.Progress.Record(state.Position(), func() string {
				return "expected one of: " + strings.Join(expected, ", ")
			})
		}
	}

	// Step 4: prefilter, enforcing a grammatical restriction the instant
	// the last accumulated argument parsed, rather than rejecting the
	// outer send after the fact.
	if fr.hasArgHead && node.HasPrefilter() {
		if child, ok := node.Prefilter(fr.lastArgHead); ok {
			ex.Schedule(func() { en.driveNode(ex, child, state, fr, sendStart, observer) })
		}
		return
	}

	// Step 5: actions.
	for _, op := range node.AllActionOpcodes() {
		children, plans := node.Actions(op)
		for i := range children {
			child, plan := children[i], plans[i]
			ex.Schedule(func() { en.runInstruction(ex, plan, child, state, fr, sendStart, observer) })
		}
	}
}

// strandedLeadingArgument reports whether a leading-argument send (one
// whose message pattern opens with `_`, consuming its first argument
// before any keyword of its own) is still stranded at b's completion: the
// state has not moved since sendStart, so no token at all, not even one
// of the leading argument's, has been consumed and this completion
// contributes nothing (§4.5 step 1(b), "recursion on
// leading-argument sends is permitted — but only when at least one token
// separates successive recursions").
func strandedLeadingArgument(b *bundle.Bundle, state parsestate.State, sendStart int) bool {
	return isLeadingArgumentMessage(b) && state.Position() == sendStart
}

func isLeadingArgumentMessage(b *bundle.Bundle) bool {
	return strings.HasPrefix(b.Name, "_")
}

func graphemeLen(lexeme string) int {
	return len([]rune(lexeme))
}

// runInstruction executes the side effect of a single non-keyword
// instruction (ParsePart/Branch/Jump are resolved at tree-expansion time;
// see bundle.Tree.foldPlan) and schedules the continuation at child.
func (en *Engine) runInstruction(ex *Executor, plan bundle.Plan, child *bundle.Tree, state parsestate.State, fr frame, sendStart int, observer func(parsestate.State, *bundle.Bundle, []phrase.Phrase)) {
	in := plan.Instruction()

	switch in.Op {
	case splitter.OpParseArgument:
		en.ParseExpression(ex, state, func(sol fragment.Solution) {
			nf := fr.push(sol.Phrase)
			nf.consumed = true
			en.driveNode(ex, child, sol.End, nf, sendStart, observer)
		})

	case splitter.OpParseRawToken:
		tok, err := en.Tokens.At(state.Position())
		if err != nil {
			return
		}
		lit := &phrase.Literal{Value: tok.Lexeme(), ValueType: atype.Named("token"), Source: tok}
		nf := fr.push(phrase.Phrase(lit))
		nf.consumed = true
		next := state.WithPosition(tok.Start() + graphemeLen(tok.Lexeme()))
		en.driveNode(ex, child, next, nf, sendStart, observer)

	case splitter.OpParseVariableReference:
		tok, err := en.Tokens.At(state.Position())
		if err != nil || tok.Kind() != token.KindKeyword {
			return
		}
		if _, ok := state.Lookup(tok.Lexeme()); !ok {
			en.Progress.Record(state.Position(), func() string {
				return "expected a declared variable name"
			})
			return
		}
		ref := &phrase.Reference{Name: tok.Lexeme()}
		nf := fr.push(phrase.Phrase(ref))
		nf.consumed = true
		next := state.WithPosition(tok.Start() + graphemeLen(tok.Lexeme()))
		en.driveNode(ex, child, next, nf, sendStart, observer)

	case splitter.OpParseArgumentInModuleScope:
		inner := state.WithEmptyScope()
		en.ParseExpression(ex, inner, func(sol fragment.Solution) {
			nf := fr.push(sol.Phrase)
			nf.consumed = true
			resumed := sol.End.WithScopeFrom(state)
			en.driveNode(ex, child, resumed, nf, sendStart, observer)
		})

	case splitter.OpNewList:
		nf := fr.push([]phrase.Phrase{})
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpAppendArgument:
		top, nf := fr.pop()
		listVal, nf2 := nf.pop()
		list, _ := listVal.([]phrase.Phrase)
		// A double-wrapped group iteration leaves its inner accumulator
		// (a raw []phrase.Phrase, built the same way the outer list is)
		// on top instead of a single phrase; wrap it into a List the same
		// way argPhrases wraps a top-level list argument, so a group with
		// zero or multiple argument leaves per iteration (§4.2's Counter,
		// or a multi-argument group body) still appends one element per
		// iteration instead of being silently dropped.
		if inner, ok := top.([]phrase.Phrase); ok {
			top = phrase.Phrase(&phrase.List{Elements: inner})
		}
		if p, ok := top.(phrase.Phrase); ok {
			list = append(list, p)
			if send, ok := p.(*phrase.Send); ok {
				nf2.lastArgHead, nf2.hasArgHead = send.Method, true
			}
		}
		nf2 = nf2.push(list)
		en.driveNode(ex, child, state, nf2, sendStart, observer)

	case splitter.OpSavePosition:
		nf := fr.pushSaved(state.Position())
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpDiscardSavedPosition:
		_, nf := fr.popSaved()
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpEnsureProgress:
		if state.Position() == fr.peekSaved() {
			// no token consumed this iteration: abort this path rather
			// than looping forever (§4.5, §8 progress invariant).
			return
		}
		en.driveNode(ex, child, state, fr, sendStart, observer)

	case splitter.OpCheckArgument:
		en.driveNode(ex, child, state, fr, sendStart, observer)

	case splitter.OpConvert:
		top, nf := fr.pop()
		nf = nf.push(applyConvert(in.Rule, top))
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpPushIntegerLiteral:
		nf := fr.push(phrase.Phrase(&phrase.Literal{Value: in.Operand, ValueType: atype.Named("integer")}))
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpPushTrue:
		nf := fr.push(phrase.Phrase(&phrase.Marker{Present: true}))
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpPushFalse:
		nf := fr.push(phrase.Phrase(&phrase.Marker{Present: false}))
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpPrepareToRunPrefixFunction:
		nf := fr
		nf.partialLists = in.Operand
		en.driveNode(ex, child, state, nf, sendStart, observer)

	case splitter.OpRunPrefixFunction:
		// The engine does not run macro prefix functions: this step
		// only continues at child, and no checkpoint snapshot is taken.
		en.driveNode(ex, child, state, fr, sendStart, observer)

	default:
		en.driveNode(ex, child, state, fr, sendStart, observer)
	}
}

func applyConvert(rule splitter.ConvertRule, top any) any {
	switch rule {
	case splitter.ConvertListToSize:
		list, _ := top.([]phrase.Phrase)
		return phrase.Phrase(&phrase.Literal{Value: len(list), ValueType: atype.Named("integer")})
	case splitter.ConvertListToNonemptiness:
		list, _ := top.([]phrase.Phrase)
		return phrase.Phrase(&phrase.Marker{Present: len(list) > 0})
	case splitter.ConvertEvaluateExpression:
		// Real expression evaluation at parse time is the external
		// Interpreter collaborator's job (§6); here the phrase itself is
		// passed through so the caller's Interpreter can evaluate it.
		return top
	default:
		return top
	}
}

func isUpper(r rune) bool { return unicode.IsUpper(r) }
