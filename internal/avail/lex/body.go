package lex

import (
	"strconv"
	"unicode"

	"github.com/dekarrin/avail/internal/avail/token"
)

// bodyRegistry is the frozen lexer set built by BodyRegistry.
var bodyRegistry *Registry

// BodyRegistry returns the fixed set of lexers used to scan a module's
// statement body (§4.1): whitespace, line and block comments, string and
// integer literals, bare identifiers, and a greedy run of symbol runes
// for everything a declared method's message pattern can contribute
// (operators like `+`, punctuation like `:=`). Built once and shared by
// every compilation, exactly like HeaderRegistry.
func BodyRegistry() *Registry {
	if bodyRegistry != nil {
		return bodyRegistry
	}

	reg := NewRegistry()

	reg.Install(New("whitespace", isSpace, scanWhitespace))
	reg.Install(New("line-comment", isLineCommentStart, scanLineComment))
	reg.Install(New("block-comment", isCommentStart, scanBlockComment))
	reg.Install(New("string", isQuote, scanString))
	reg.Install(New("number", unicode.IsDigit, scanNumber))
	reg.Install(New("identifier", isIdentStart, scanIdentifier))
	reg.Install(New("symbol", isSymbol, scanSymbol))

	bodyRegistry = reg
	return bodyRegistry
}

func isLineCommentStart(r rune) (bool, error) { return r == '/', nil }

func scanLineComment(src []rune, pos int) ([]token.Token, error) {
	if pos+1 >= len(src) || src[pos+1] != '/' {
		return nil, nil
	}
	start := pos
	for pos < len(src) && src[pos] != '\n' {
		pos++
	}
	return []token.Token{token.New(token.KindComment, string(src[start:pos]), start, 1, 1)}, nil
}

func scanNumber(src []rune, pos int) ([]token.Token, error) {
	start := pos
	for pos < len(src) && unicode.IsDigit(src[pos]) {
		pos++
	}
	lexeme := string(src[start:pos])
	n, err := strconv.Atoi(lexeme)
	if err != nil {
		return nil, err
	}
	return []token.Token{token.New(token.KindLiteral, lexeme, start, 1, 1).WithLiteral(n)}, nil
}

func isIdentStart(r rune) (bool, error) { return unicode.IsLetter(r), nil }

func scanIdentifier(src []rune, pos int) ([]token.Token, error) {
	start := pos
	for pos < len(src) && (unicode.IsLetter(src[pos]) || unicode.IsDigit(src[pos])) {
		pos++
	}
	return []token.Token{token.New(token.KindKeyword, string(src[start:pos]), start, 1, 1)}, nil
}

// bodyPunctuation are the single-rune tokens that must never merge with a
// neighboring symbol rune, since the splitter treats them as independent
// pattern pieces (§3): parens for argument groups, comma, and the
// underscore argument placeholder itself.
var bodyPunctuation = map[rune]bool{'(': true, ')': true, ',': true, '_': true, '[': true, ']': true}

func isSymbol(r rune) (bool, error) {
	if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) || r == '"' {
		return false, nil
	}
	return true, nil
}

// startsComment reports whether position pos begins a line or block
// comment, so scanSymbol can yield to the comment lexers at a bare '/'
// rather than claiming it as a one-rune division operator.
func startsComment(src []rune, pos int) bool {
	if pos+1 >= len(src) || src[pos] != '/' {
		return false
	}
	return src[pos+1] == '/' || src[pos+1] == '*'
}

func scanSymbol(src []rune, pos int) ([]token.Token, error) {
	if startsComment(src, pos) {
		return nil, nil
	}
	if bodyPunctuation[src[pos]] {
		return []token.Token{token.New(token.KindOperator, string(src[pos]), pos, 1, 1)}, nil
	}
	start := pos
	for pos < len(src) && !unicode.IsSpace(src[pos]) && !unicode.IsLetter(src[pos]) && !unicode.IsDigit(src[pos]) && src[pos] != '"' && !bodyPunctuation[src[pos]] && !startsComment(src, pos) {
		pos++
	}
	return []token.Token{token.New(token.KindOperator, string(src[start:pos]), start, 1, 1)}, nil
}
