package engine

import "sync"

// Progress tracks the single greatest_position reached by any parse
// attempt in the current work window, plus the deduplicated set of lazy
// string producers describing what was expected there (§3, §5, §7). It is
// guarded by a mutex since every concurrent work unit may update it.
type Progress struct {
	mu           sync.Mutex
	position     int
	expectations []func() string
	seen         map[string]bool
}

// NewProgress constructs a Progress tracker reset to position 0.
func NewProgress() *Progress {
	return &Progress{seen: make(map[string]bool)}
}

// Reset clears the tracked position and expectations, at the start of
// each new top-level statement attempt (§4.8 step 4a).
func (p *Progress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = 0
	p.expectations = nil
	p.seen = make(map[string]bool)
}

// Record reports that a parse attempt reached position with the given
// expectation, a lazy string producer (§7). A producer recorded left of
// the current rightmost position is never called; one recorded at or
// beyond it is called at once, so its string can be checked against the
// strings already seen there. A new rightmost position discards every previously recorded expectation;
// an equal position appends only strings not already seen there (§5, §7
// "expectations list is free of duplicates").
func (p *Progress) Record(position int, expectation func() string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if position > p.position {
		p.position = position
		p.expectations = nil
		p.seen = make(map[string]bool)
	}
	if position < p.position {
		return
	}

	s := expectation()
	if p.seen[s] {
		return
	}
	p.seen[s] = true
	p.expectations = append(p.expectations, func() string { return s })
}

// Snapshot returns the rightmost position reached and the rendered,
// duplicate-free list of expectations recorded there.
func (p *Progress) Snapshot() (int, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.expectations))
	for i, f := range p.expectations {
		out[i] = f()
	}
	return p.position, out
}
