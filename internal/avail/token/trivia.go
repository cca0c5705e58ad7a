package token

// SkipTrivia wraps s so every At/Alternatives call transparently advances
// past any run of whitespace or comment tokens before returning, so a
// grammar consumer never has to special-case the trivia kinds the
// bootstrap lexers produce (§4.1). Every caller that reads a Stream
// directly — the parsing engine, the expression source, the statement
// loop's end-of-input poll — should see the wrapped Stream, not the raw
// one, or trivia reappears at whichever call site forgot to wrap.
func SkipTrivia(s Stream) Stream {
	return triviaSkipper{s}
}

type triviaSkipper struct{ s Stream }

func (t triviaSkipper) At(offset int) (Token, error) {
	for {
		tok, err := t.s.At(offset)
		if err != nil || !isTrivia(tok) {
			return tok, err
		}
		offset = tok.Start() + graphemeLen(tok.Lexeme())
	}
}

func (t triviaSkipper) Alternatives(offset int) ([]Token, error) {
	for {
		alts, err := t.s.Alternatives(offset)
		if err != nil || len(alts) == 0 || !isTrivia(alts[0]) {
			return alts, err
		}
		offset = alts[0].Start() + graphemeLen(alts[0].Lexeme())
	}
}

func isTrivia(tok Token) bool {
	return tok.Kind() == KindWhitespace || tok.Kind() == KindComment
}

func graphemeLen(lexeme string) int {
	return len([]rune(lexeme))
}
