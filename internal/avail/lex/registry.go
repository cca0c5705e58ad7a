package lex

import "sync"

// Registry holds the set of Lexers visible to a compilation and the
// process-wide cache of filter verdicts for non-Latin-1 codepoints (§4.1).
// The Latin-1 cache lives on each *Lexer directly; codepoints above 255 are
// rarer and shared across every compilation in the process, so they are
// cached here instead, guarded by a mutex.
type Registry struct {
	lexers []*Lexer

	mu          sync.Mutex
	wideVerdict map[rune]map[*Lexer]bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{wideVerdict: make(map[rune]map[*Lexer]bool)}
}

// Install adds lx to the set of visible lexers. Order is irrelevant: the
// scanner evaluates the union of every lexer that applies at a position.
func (reg *Registry) Install(lx *Lexer) {
	reg.lexers = append(reg.lexers, lx)
}

// Lexers returns the visible lexer set.
func (reg *Registry) Lexers() []*Lexer {
	return reg.lexers
}

// Applicable returns the subset of installed lexers whose Filter accepts r,
// consulting (and, on a cache miss, populating) the wide-codepoint cache
// for r >= 256. Filter failures are returned as a single collected error
// but do not stop evaluation of the remaining lexers.
func (reg *Registry) Applicable(r rune) ([]*Lexer, []error) {
	var applicable []*Lexer
	var errs []error

	if r < 256 {
		for _, lx := range reg.lexers {
			ok, err := lx.Applies(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if ok {
				applicable = append(applicable, lx)
			}
		}
		return applicable, errs
	}

	reg.mu.Lock()
	cached, known := reg.wideVerdict[r]
	reg.mu.Unlock()

	if known {
		for _, lx := range reg.lexers {
			if cached[lx] {
				applicable = append(applicable, lx)
			}
		}
		return applicable, nil
	}

	verdicts := make(map[*Lexer]bool, len(reg.lexers))
	for _, lx := range reg.lexers {
		ok, err := lx.Filter(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		verdicts[lx] = ok
		if ok {
			applicable = append(applicable, lx)
		}
	}

	if len(errs) == 0 {
		reg.mu.Lock()
		reg.wideVerdict[r] = verdicts
		reg.mu.Unlock()
	}

	return applicable, errs
}
