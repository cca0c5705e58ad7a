package engine

import (
	"context"
	"sync"

	"github.com/dekarrin/avail/internal/avail/fragment"
	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
)

// NoParseError is the "parse failure" error kind of §7: no complete
// interpretation was found, and the expectations list at the rightmost
// position reached is reported.
type NoParseError struct {
	Position int
	Expected []string
}

func (e *NoParseError) Error() string {
	return "no valid parse found"
}

// AmbiguityError is the "ambiguity" error kind of §7: two or more
// distinct complete interpretations survived. Left and Right are the
// smallest discriminating subtrees found by walking both phrases in
// lockstep (see Discriminate).
type AmbiguityError struct {
	Solutions    []fragment.Solution
	Left, Right  phrase.Phrase
}

func (e *AmbiguityError) Error() string {
	return "ambiguous parse: more than one interpretation survives"
}

// TryIfUnambiguous runs one work window of expression parsing at state
// (typically a module's current top-level position) and delivers exactly
// one of: a unique solution, a *NoParseError, or an *AmbiguityError (§4.5,
// §4.8 step 4b, §8 "Unambiguity guarantee"). It resets the fragment cache
// and the progress tracker first, since each outermost statement gets its
// own work window (§4.8 step 4a).
func (en *Engine) TryIfUnambiguous(ctx context.Context, state parsestate.State) (fragment.Solution, error) {
	en.Cache.Clear()
	en.Progress.Reset()

	ex := NewExecutor(ctx, 0)

	var (
		mu        sync.Mutex
		solutions []fragment.Solution
	)

	quiescent := make(chan struct{})
	ex.OnQuiescent(func() { close(quiescent) })

	ex.Schedule(func() {
		en.ParseExpression(ex, state, func(sol fragment.Solution) {
			mu.Lock()
			defer mu.Unlock()
			solutions = append(solutions, sol)
		})
	})

	if err := ex.Wait(); err != nil {
		return fragment.Solution{}, err
	}
	<-quiescent

	unique := dedupeSolutions(longestSolutions(solutions))

	switch len(unique) {
	case 0:
		pos, expected := en.Progress.Snapshot()
		return fragment.Solution{}, &NoParseError{Position: pos, Expected: expected}
	case 1:
		return unique[0], nil
	default:
		left, right := Discriminate(unique[0].Phrase, unique[1].Phrase)
		return fragment.Solution{}, &AmbiguityError{Solutions: unique, Left: left, Right: right}
	}
}

// longestSolutions narrows a work window's raw solutions down to those
// that reached the furthest position. A shorter solution sharing a start
// state with a longer one (the classic case: a bare literal that is also
// the longer send's own leading argument, recorded into the very same
// fragment-cache entry by §4.6's uncached-variant scheduling) is not a
// competing reading of the statement, just an earlier stopping point
// along the same search -- it is only the interpretations tied for
// maximal reach that can be genuinely ambiguous with one another (§7,
// §8 "Unambiguity guarantee").
func longestSolutions(in []fragment.Solution) []fragment.Solution {
	if len(in) == 0 {
		return in
	}
	max := in[0].End.Position()
	for _, sol := range in[1:] {
		if p := sol.End.Position(); p > max {
			max = p
		}
	}
	var out []fragment.Solution
	for _, sol := range in {
		if sol.End.Position() == max {
			out = append(out, sol)
		}
	}
	return out
}

// dedupeSolutions implements §8's "equal-state suppression": when two
// independent parse paths produce equal (end-state, phrase) pairs,
// exactly one survives and no ambiguity is raised over it.
func dedupeSolutions(in []fragment.Solution) []fragment.Solution {
	var out []fragment.Solution
	for _, sol := range in {
		dup := false
		for _, kept := range out {
			if sol.End.Equal(kept.End) && sol.Phrase.Equal(kept.Phrase) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, sol)
		}
	}
	return out
}
