// Package engine implements the generalized, memoized, ambiguity-detecting
// parsing engine described in §4.5-§4.7 and the concurrency model of §5:
// a set of cooperatively scheduled work units driving the bundle tree's
// merged parsing programs against a token stream.
package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"
)

// WorkUnit is a zero-argument closure that may, when run, schedule
// additional work units (§4.5, §5).
type WorkUnit func()

// Executor runs work units cooperatively on an errgroup.Group, tracking
// the queued/completed counters a work window's quiescence callback
// depends on (§5). Each Executor corresponds to exactly one work window:
// one outermost-statement ambiguity check.
type Executor struct {
	// ID correlates this work window's trace output; it has no bearing on
	// correctness (DOMAIN STACK: google/uuid).
	ID uuid.UUID

	group *errgroup.Group

	mu      sync.Mutex
	pending int
	fired   bool
	onQuiescent func()

	terminated atomic.Bool
}

// NewExecutor constructs an Executor bounded to at most limit concurrently
// running work units. limit <= 0 means unbounded.
func NewExecutor(ctx context.Context, limit int) *Executor {
	g, _ := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &Executor{ID: uuid.New(), group: g}
}

// Schedule enqueues a work unit. It is safe to call from within a running
// work unit, from any goroutine, at any time before the Executor's
// quiescence callback has fired.
func (ex *Executor) Schedule(wu WorkUnit) {
	ex.mu.Lock()
	if ex.fired {
		// the work window already concluded; a stray late schedule (e.g.
		// a slow semantic restriction finishing after ambiguity was
		// already reported) is simply discarded.
		ex.mu.Unlock()
		return
	}
	ex.pending++
	ex.mu.Unlock()

	ex.group.Go(func() error {
		defer ex.completeOne()
		if ex.terminated.Load() {
			return nil
		}
		wu()
		return nil
	})
}

func (ex *Executor) completeOne() {
	ex.mu.Lock()
	ex.pending--
	quiescent := ex.pending == 0 && !ex.fired
	if quiescent {
		ex.fired = true
	}
	cb := ex.onQuiescent
	ex.mu.Unlock()

	if quiescent && cb != nil {
		cb()
	}
}

// OnQuiescent installs the callback invoked exactly once, the instant
// queued work units equal completed work units (§5). It must be set
// before the first Schedule call of the window it governs.
func (ex *Executor) OnQuiescent(cb func()) {
	ex.mu.Lock()
	ex.onQuiescent = cb
	ex.mu.Unlock()
}

// Terminate sets the terminator flag: every work unit dispatched
// afterward exits immediately without doing its normal work, on the first
// unrecoverable error in the window (§5, §7).
func (ex *Executor) Terminate() {
	ex.terminated.Store(true)
}

// Terminated reports whether the terminator flag has been set.
func (ex *Executor) Terminated() bool {
	return ex.terminated.Load()
}

// Wait blocks until every scheduled work unit (including ones scheduled
// by other work units while waiting) has completed.
func (ex *Executor) Wait() error {
	return ex.group.Wait()
}
