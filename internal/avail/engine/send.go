package engine

import (
	"sync"

	"github.com/dekarrin/avail/internal/avail/atype"
	"github.com/dekarrin/avail/internal/avail/bundle"
	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
)

// DefaultCompletedSend implements §4.7's completed-send processing and is
// the usual value installed as Engine.OnCompletedSend: filter the
// bundle's method to the definitions whose signatures accept the
// argument phrases' static types, run every applicable semantic
// restriction concurrently and intersect their narrowed return types, and
// either invoke a macro body (when the bundle names macros) or construct
// an ordinary Send phrase.
//
// deliver is called at most once, with the resulting phrase and the
// state following the send; it is never called if every applicable
// definition was rejected by a semantic restriction or the argument types
// matched no definition at all, since an inapplicable send is simply a
// dead parse path rather than a hard error (the surrounding statement
// fails only if every path dies, surfaced via the Progress tracker). A
// rejected restriction's message is recorded into progress as an
// expectation at the send's completion position, so a statement with no
// surviving send still reports why (§7).
func DefaultCompletedSend(ex *Executor, b *bundle.Bundle, args []phrase.Phrase, end parsestate.State, progress *Progress, deliver func(phrase.Phrase, parsestate.State)) {
	argTypes := make([]atype.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
	}

	if b.Method.HasMacros() {
		runMacro(ex, b, args, end, deliver)
		return
	}

	applicable := b.Method.ApplicableDefinitions(argTypes)
	if len(applicable) == 0 {
		return
	}

	restrictions := b.Method.Restrictions
	if len(restrictions) == 0 {
		deliver(phrase.Phrase(&phrase.Send{Method: b.Name, Args: args, ReturnType: unionReturnTypes(applicable)}), end)
		return
	}

	// Each restriction runs as its own work unit (§4.7, §5); rather than
	// blocking this work unit on their completion, a local fan-in counter
	// delivers the send once the last one reports in, matching the
	// callback style the fragment cache and bundle tree use elsewhere in
	// the engine instead of a waiting goroutine.
	fan := &restrictionFanIn{remaining: len(restrictions), returnType: unionReturnTypes(applicable)}
	for _, r := range restrictions {
		r := r
		ex.Schedule(func() {
			t, err := r.Eval(argTypes)
			fan.report(t, err, b, args, end, progress, deliver)
		})
	}
}

type restrictionFanIn struct {
	mu         sync.Mutex
	remaining  int
	rejected   bool
	returnType atype.Type
}

func (f *restrictionFanIn) report(t atype.Type, err error, b *bundle.Bundle, args []phrase.Phrase, end parsestate.State, progress *Progress, deliver func(phrase.Phrase, parsestate.State)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.remaining--
	if f.rejected {
		return
	}
	if err != nil {
		f.rejected = true
		if progress != nil {
			msg := err.Error()
			progress.Record(end.Position(), func() string { return msg })
		}
		return
	}
	f.returnType = atype.Intersect(f.returnType, t)

	if f.remaining == 0 {
		deliver(phrase.Phrase(&phrase.Send{Method: b.Name, Args: args, ReturnType: f.returnType}), end)
	}
}

func unionReturnTypes(defs []*bundle.Definition) atype.Type {
	var t atype.Type
	for _, d := range defs {
		if t == nil {
			t = d.Signature.Return
			continue
		}
		t = atype.Intersect(t, d.Signature.Return)
	}
	if t == nil {
		return atype.Any
	}
	return t
}

// runMacro invokes the first applicable macro's body, which produces the
// result phrase directly rather than going through ordinary signature
// filtering and semantic restriction, per §4.7's macro-send rule: macros
// and ordinary definitions never share a method, so HasMacros is decided
// once at the top of DefaultCompletedSend.
func runMacro(ex *Executor, b *bundle.Bundle, args []phrase.Phrase, end parsestate.State, deliver func(phrase.Phrase, parsestate.State)) {
	for _, m := range b.Method.Macros {
		if len(m.Signature.Params) != len(args) {
			continue
		}
		ok := true
		for i, p := range m.Signature.Params {
			if !p.Covers(args[i].Type()) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		result, err := m.Body(args)
		if err != nil {
			return
		}
		deliver(result, end)
		return
	}
}
