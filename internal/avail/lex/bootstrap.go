package lex

import (
	"strings"
	"unicode"

	"github.com/dekarrin/avail/internal/avail/token"
)

// bootstrapRegistry holds the frozen header registry once HeaderRegistry
// has built it.
var bootstrapRegistry *Registry

// HeaderRegistry returns the fixed, immutable set of bootstrap lexers used
// to scan a module header (§4.1): string, keyword, operator, whitespace,
// and block comment. It is built once and shared by every compilation;
// none of its lexers may be added to or removed from after construction.
func HeaderRegistry() *Registry {
	if bootstrapRegistry != nil {
		return bootstrapRegistry
	}

	reg := NewRegistry()

	reg.Install(New("whitespace", isSpace, scanWhitespace))
	reg.Install(New("block-comment", isCommentStart, scanBlockComment))
	reg.Install(New("string", isQuote, scanString))
	reg.Install(New("keyword", isKeywordStart, scanKeyword))
	reg.Install(New("operator", isOperator, scanOperator))

	bootstrapRegistry = reg
	return bootstrapRegistry
}

func isSpace(r rune) (bool, error) { return unicode.IsSpace(r), nil }

func scanWhitespace(src []rune, pos int) ([]token.Token, error) {
	start := pos
	for pos < len(src) && unicode.IsSpace(src[pos]) {
		pos++
	}
	return []token.Token{token.New(token.KindWhitespace, string(src[start:pos]), start, 1, 1)}, nil
}

func isCommentStart(r rune) (bool, error) { return r == '/', nil }

func scanBlockComment(src []rune, pos int) ([]token.Token, error) {
	if pos+1 >= len(src) || src[pos+1] != '*' {
		return nil, nil
	}
	start := pos
	pos += 2
	depth := 1
	for pos < len(src) && depth > 0 {
		switch {
		case pos+1 < len(src) && src[pos] == '/' && src[pos+1] == '*':
			depth++
			pos += 2
		case pos+1 < len(src) && src[pos] == '*' && src[pos+1] == '/':
			depth--
			pos += 2
		default:
			pos++
		}
	}
	return []token.Token{token.New(token.KindComment, string(src[start:pos]), start, 1, 1)}, nil
}

func isQuote(r rune) (bool, error) { return r == '"', nil }

func scanString(src []rune, pos int) ([]token.Token, error) {
	start := pos
	pos++
	var sb strings.Builder
	for pos < len(src) && src[pos] != '"' {
		if src[pos] == '\\' && pos+1 < len(src) {
			pos++
		}
		sb.WriteRune(src[pos])
		pos++
	}
	if pos < len(src) {
		pos++ // consume closing quote
	}
	lexeme := string(src[start:pos])
	return []token.Token{token.New(token.KindLiteral, lexeme, start, 1, 1).WithLiteral(sb.String())}, nil
}

func isKeywordStart(r rune) (bool, error) {
	return unicode.IsLetter(r) || unicode.IsDigit(r), nil
}

func scanKeyword(src []rune, pos int) ([]token.Token, error) {
	start := pos
	for pos < len(src) && (unicode.IsLetter(src[pos]) || unicode.IsDigit(src[pos])) {
		pos++
	}
	return []token.Token{token.New(token.KindKeyword, string(src[start:pos]), start, 1, 1)}, nil
}

// headerOperators are the single-character operators the header grammar
// needs: the comma separator, parens for version/name-filter lists, and
// the '=' of a filtered import or a pragma's key=value=value triple.
var headerOperators = map[rune]bool{',': true, '(': true, ')': true, '=': true, ';': true}

func isOperator(r rune) (bool, error) { return headerOperators[r], nil }

func scanOperator(src []rune, pos int) ([]token.Token, error) {
	return []token.Token{token.New(token.KindOperator, string(src[pos]), pos, 1, 1)}, nil
}
