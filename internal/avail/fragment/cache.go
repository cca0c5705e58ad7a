// Package fragment implements the per-state memoization of expression
// parses described in §3/§4.6: a map from parse state to the set of
// completed solutions found there plus the continuations registered to
// replay against future solutions.
package fragment

import (
	"sync"

	"github.com/dekarrin/avail/internal/avail/parsestate"
	"github.com/dekarrin/avail/internal/avail/phrase"
)

// Solution is one completed parse of an expression at a cache entry's
// state: the state immediately after the expression, and the phrase it
// produced.
type Solution struct {
	End   parsestate.State
	Phrase phrase.Phrase
}

// Action is a continuation to run against every Solution recorded at a
// cache entry, both the ones already present and any that arrive later.
type Action func(Solution)

type entry struct {
	mu        sync.Mutex
	started   bool
	solutions []Solution
	actions   []Action
}

// Cache is the fragment cache (§3, §4.6), guarded by its own mutex per
// entry so concurrent work units touching different states never
// contend.
type Cache struct {
	mu      sync.Mutex
	entries map[parsestate.Key]*entry
}

// New constructs an empty Cache. A Cache's lifetime is one module
// compilation transaction (§3); it is discarded wholesale on commit or
// rollback and cleared between top-level statements (§4.8 step 4e).
func New() *Cache {
	return &Cache{entries: make(map[parsestate.Key]*entry)}
}

// Clear empties the cache, e.g. after a top-level statement commits and
// before parsing the next one (§4.8 step 4e).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[parsestate.Key]*entry)
}

// Start marks the entry for state as started and returns whether this
// call is the one that did so (false means some earlier caller already
// started work at this state, and the caller should not duplicate it).
func (c *Cache) Start(state parsestate.State) (alreadyStarted bool) {
	e := c.entryFor(state)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return true
	}
	e.started = true
	return false
}

func (c *Cache) entryFor(state parsestate.State) *entry {
	key := state.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Record adds a new solution at state and schedules every action
// currently registered there to run against it exactly once (§4.6). The
// supplied schedule function lets the caller dispatch each action as its
// own work unit instead of running it synchronously, matching §4.5's rule
// that every advancing step becomes a fresh work unit.
func (c *Cache) Record(state parsestate.State, sol Solution, schedule func(Action, Solution)) {
	e := c.entryFor(state)
	e.mu.Lock()
	e.solutions = append(e.solutions, sol)
	actions := append([]Action(nil), e.actions...)
	e.mu.Unlock()

	for _, a := range actions {
		schedule(a, sol)
	}
}

// Register adds action to state's entry, immediately scheduling it
// against every solution already recorded there, and leaving it in place
// to run against every solution recorded afterward (§4.6).
func (c *Cache) Register(state parsestate.State, action Action, schedule func(Action, Solution)) {
	e := c.entryFor(state)
	e.mu.Lock()
	existing := append([]Solution(nil), e.solutions...)
	e.actions = append(e.actions, action)
	e.mu.Unlock()

	for _, sol := range existing {
		schedule(action, sol)
	}
}

// Solutions returns every solution recorded at state so far.
func (c *Cache) Solutions(state parsestate.State) []Solution {
	e := c.entryFor(state)
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Solution(nil), e.solutions...)
}
