// Package module implements the top-level driver (§4.8): the module
// header grammar, pragma application, initial bundle-tree construction,
// the outermost-statement loop, and transactional commit/rollback.
package module

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/avail/internal/avail/lex"
	"github.com/dekarrin/avail/internal/avail/token"
)

// Import is one entry of an Extends or Uses clause (§6): a module name,
// optionally a version-set clause, optionally a filtered name set.
type Import struct {
	Name     string
	Versions []string
	Names    []string
}

// Pragma is one `kind=primitiveNumber=name` entry of a Pragma clause
// (§4.8 step 2, §6).
type Pragma struct {
	Kind            string // "method" or "macro"
	PrimitiveNumber int
	Name            string
}

// Header is the parsed module header (§6's bit-exact grammar): Module,
// then any subset of {Versions, Extends, Uses, Names, Pragma} each at
// most once, terminated by Body.
type Header struct {
	ModuleName string
	Versions   []string
	Extends    []Import
	Uses       []Import
	Names      []string
	Pragmas    []Pragma

	// BodyOffset is the code-point offset of the first token after the
	// Body keyword, past any whitespace and comments, where the statement
	// loop begins (§4.8 step 4).
	BodyOffset int
}

// headerScanner adapts the frozen bootstrap lexer set (§4.1's
// lex.HeaderRegistry: string, keyword, operator, whitespace, block
// comment) to the header grammar's one-token-of-lookahead needs,
// discarding whitespace/comment tokens via token.SkipTrivia. The header
// grammar itself is not user-extensible, so headerParser still drives a
// direct recursive-descent parse below; only the lexing underneath it is
// shared with the rest of the compiler now.
type headerScanner struct {
	stream token.Stream
	pos    int
}

type htoken struct {
	kind string // "word", "string", "punct", "end"
	text string
	pos  int
}

func newHeaderScanner(src string) *headerScanner {
	return &headerScanner{stream: token.SkipTrivia(lex.NewScanner(src, lex.HeaderRegistry()))}
}

func (s *headerScanner) next() (htoken, error) {
	tok, err := s.stream.At(s.pos)
	if err != nil {
		return htoken{}, fmt.Errorf("position %d: %w", s.pos, err)
	}

	start := tok.Start()
	s.pos = start + len([]rune(tok.Lexeme()))

	switch tok.Kind() {
	case token.KindEnd:
		return htoken{kind: "end", pos: start}, nil
	case token.KindKeyword:
		return htoken{kind: "word", text: tok.Lexeme(), pos: start}, nil
	case token.KindOperator:
		return htoken{kind: "punct", text: tok.Lexeme(), pos: start}, nil
	case token.KindLiteral:
		v, _ := tok.LiteralValue()
		text, _ := v.(string)
		return htoken{kind: "string", text: text, pos: start}, nil
	default:
		return htoken{}, fmt.Errorf("unexpected token %q at position %d in module header", tok.Lexeme(), start)
	}
}

// headerParser parses the fixed header grammar against a headerScanner,
// with one token of lookahead.
type headerParser struct {
	sc  *headerScanner
	cur htoken
}

func newHeaderParser(src string) (*headerParser, error) {
	p := &headerParser{sc: newHeaderScanner(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *headerParser) advance() error {
	t, err := p.sc.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *headerParser) expectWord(word string) error {
	if p.cur.kind != "word" || p.cur.text != word {
		return fmt.Errorf("expected %q at position %d, found %q", word, p.cur.pos, p.cur.text)
	}
	return p.advance()
}

func (p *headerParser) expectPunct(punct string) error {
	if p.cur.kind != "punct" || p.cur.text != punct {
		return fmt.Errorf("expected %q at position %d, found %q", punct, p.cur.pos, p.cur.text)
	}
	return p.advance()
}

func (p *headerParser) expectString() (string, error) {
	if p.cur.kind != "string" {
		return "", fmt.Errorf("expected a string literal at position %d, found %q", p.cur.pos, p.cur.text)
	}
	s := p.cur.text
	return s, p.advance()
}

// stringList parses `( "a", "b", "c" )`.
func (p *headerParser) stringList() ([]string, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var out []string
	for {
		s, err := p.expectString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if p.cur.kind == "punct" && p.cur.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return out, nil
}

// commaSeparatedImports parses the comma-separated import list under
// Extends/Uses, with no surrounding parens: each entry is a string module
// name, optionally followed by a parenthesized version list and then
// optionally by `=` and a parenthesized name list.
func (p *headerParser) commaSeparatedImports() ([]Import, error) {
	var out []Import
	for {
		name, err := p.expectString()
		if err != nil {
			return nil, err
		}
		imp := Import{Name: name}

		if p.cur.kind == "punct" && p.cur.text == "(" {
			vs, err := p.stringList()
			if err != nil {
				return nil, err
			}
			imp.Versions = vs
		}
		if p.cur.kind == "punct" && p.cur.text == "=" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			names, err := p.stringList()
			if err != nil {
				return nil, err
			}
			imp.Names = names
		}

		out = append(out, imp)

		if p.cur.kind == "punct" && p.cur.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return out, nil
}

func (p *headerParser) commaSeparatedStrings() ([]string, error) {
	var out []string
	for {
		s, err := p.expectString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if p.cur.kind == "punct" && p.cur.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return out, nil
}

// ParseHeader parses src per §6's bit-exact module header grammar:
// Module <string>, then any subset of {Versions, Extends, Uses, Names,
// Pragma} each at most once in any order, terminated by Body.
func ParseHeader(src string) (*Header, error) {
	p, err := newHeaderParser(src)
	if err != nil {
		return nil, err
	}

	if err := p.expectWord("Module"); err != nil {
		return nil, err
	}
	name, err := p.expectString()
	if err != nil {
		return nil, err
	}

	h := &Header{ModuleName: name}
	seen := make(map[string]bool)

	for {
		if p.cur.kind != "word" {
			return nil, fmt.Errorf("expected a header clause keyword or Body at position %d", p.cur.pos)
		}
		switch p.cur.text {
		case "Body":
			if err := p.advance(); err != nil {
				return nil, err
			}
			h.BodyOffset = p.cur.pos
			return h, nil

		case "Versions":
			if seen["Versions"] {
				return nil, fmt.Errorf("Versions clause repeated at position %d", p.cur.pos)
			}
			seen["Versions"] = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			vs, err := p.commaSeparatedStrings()
			if err != nil {
				return nil, err
			}
			h.Versions = vs

		case "Extends":
			if seen["Extends"] {
				return nil, fmt.Errorf("Extends clause repeated at position %d", p.cur.pos)
			}
			seen["Extends"] = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			imports, err := p.commaSeparatedImports()
			if err != nil {
				return nil, err
			}
			h.Extends = imports

		case "Uses":
			if seen["Uses"] {
				return nil, fmt.Errorf("Uses clause repeated at position %d", p.cur.pos)
			}
			seen["Uses"] = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			imports, err := p.commaSeparatedImports()
			if err != nil {
				return nil, err
			}
			h.Uses = imports

		case "Names":
			if seen["Names"] {
				return nil, fmt.Errorf("Names clause repeated at position %d", p.cur.pos)
			}
			seen["Names"] = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			names, err := p.commaSeparatedStrings()
			if err != nil {
				return nil, err
			}
			h.Names = names

		case "Pragma":
			if seen["Pragma"] {
				return nil, fmt.Errorf("Pragma clause repeated at position %d", p.cur.pos)
			}
			seen["Pragma"] = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			raws, err := p.commaSeparatedStrings()
			if err != nil {
				return nil, err
			}
			for _, raw := range raws {
				pr, err := parsePragma(raw)
				if err != nil {
					return nil, err
				}
				h.Pragmas = append(h.Pragmas, pr)
			}

		default:
			return nil, fmt.Errorf("unknown header clause %q at position %d", p.cur.text, p.cur.pos)
		}
	}
}

// parsePragma parses one `kind=primitiveNumber=name` pragma string (§6).
func parsePragma(raw string) (Pragma, error) {
	parts := strings.SplitN(raw, "=", 3)
	if len(parts) != 3 {
		return Pragma{}, fmt.Errorf("malformed pragma %q: expected kind=primitiveNumber=name", raw)
	}
	kind := parts[0]
	if kind != "method" && kind != "macro" {
		return Pragma{}, fmt.Errorf("malformed pragma %q: kind must be 'method' or 'macro'", raw)
	}
	num, err := strconv.Atoi(parts[1])
	if err != nil {
		return Pragma{}, fmt.Errorf("malformed pragma %q: primitive number must be an integer: %w", raw, err)
	}
	return Pragma{Kind: kind, PrimitiveNumber: num, Name: parts[2]}, nil
}
