package lex

import (
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/dekarrin/avail/internal/avail/token"
)

// Scanner produces the lazily-scanned token stream for a source string
// (§4.1). It addresses the source by code-point (rune) offset and asks
// each lexer's Filter about the rune at that offset; it does not step by
// grapheme cluster itself. GraphemeWidth, backed by uniseg, reports
// cluster widths for Body implementations that need them.
type Scanner struct {
	src      []rune
	offsets  []int // not populated by NewScanner
	registry *Registry

	cache map[int]tokenSet // memoized alternatives by code-point offset
	line  []int            // line number of each rune offset
	col   []int            // 1-indexed column of each rune offset
}

type tokenSet struct {
	tokens []token.Token
	errs   []error
}

// NewScanner constructs a Scanner over src using the given lexer registry.
func NewScanner(src string, registry *Registry) *Scanner {
	runes := []rune(src)
	sc := &Scanner{
		src:      runes,
		registry: registry,
		cache:    make(map[int]tokenSet),
		line:     make([]int, len(runes)+1),
		col:      make([]int, len(runes)+1),
	}
	sc.computePositions()
	return sc
}

func (sc *Scanner) computePositions() {
	line, col := 1, 1
	for i, r := range sc.src {
		sc.line[i] = line
		sc.col[i] = col
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	sc.line[len(sc.src)] = line
	sc.col[len(sc.src)] = col
}

// Alternatives returns every token any applicable lexer produces starting
// at the given code-point offset, scanning lazily and memoizing the result.
func (sc *Scanner) Alternatives(offset int) ([]token.Token, error) {
	if offset >= len(sc.src) {
		return []token.Token{token.End(offset, sc.line[min(offset, len(sc.src))], sc.col[min(offset, len(sc.src))])}, nil
	}

	if set, ok := sc.cache[offset]; ok {
		if len(set.errs) > 0 {
			return set.tokens, set.errs[0]
		}
		return set.tokens, nil
	}

	r := sc.src[offset]
	applicable, filterErrs := sc.registry.Applicable(r)

	var tokens []token.Token
	var errs []error
	errs = append(errs, filterErrs...)

	line, col := sc.line[offset], sc.col[offset]
	for _, lx := range applicable {
		produced, err := lx.Body(sc.src, offset)
		if err != nil {
			errs = append(errs, fmt.Errorf("lexer %q: %w", lx.Name, err))
			continue
		}
		for _, tok := range produced {
			tokens = append(tokens, tok.WithPosition(line, col))
		}
	}

	if len(tokens) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no lexer applies at line %d, column %d", sc.line[offset], sc.col[offset]))
	}

	sc.cache[offset] = tokenSet{tokens: tokens, errs: errs}
	if len(errs) > 0 {
		return tokens, errs[0]
	}
	return tokens, nil
}

// At returns the first alternative token at the given offset; callers that
// need every lexical fork should use Alternatives directly.
func (sc *Scanner) At(offset int) (token.Token, error) {
	alts, err := sc.Alternatives(offset)
	if err != nil && len(alts) == 0 {
		return token.Token{}, err
	}
	return alts[0], err
}

// GraphemeWidth returns the number of runes spanned by the grapheme
// cluster beginning at offset, so a Body implementation can advance past a
// combining sequence as a single unit rather than one rune at a time.
func (sc *Scanner) GraphemeWidth(offset int) int {
	if offset >= len(sc.src) {
		return 0
	}
	rest := string(sc.src[offset:])
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
	return len([]rune(cluster))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
