package engine

import "github.com/dekarrin/avail/internal/avail/phrase"

// Discriminate walks a and b in lockstep and returns the smallest pair of
// subtrees at which they first differ (§7 "ambiguity... reported by
// walking both phrases in lockstep until the smallest discriminating
// subtree is found"): different phrase kinds, sends of different
// methods, or the first differing child.
func Discriminate(a, b phrase.Phrase) (phrase.Phrase, phrase.Phrase) {
	aSend, aOK := a.(*phrase.Send)
	bSend, bOK := b.(*phrase.Send)

	if !aOK || !bOK {
		if a.Equal(b) {
			return a, b
		}
		return a, b
	}

	if aSend.Method != bSend.Method {
		return a, b
	}

	if len(aSend.Args) != len(bSend.Args) {
		return a, b
	}

	for i := range aSend.Args {
		if !aSend.Args[i].Equal(bSend.Args[i]) {
			return Discriminate(aSend.Args[i], bSend.Args[i])
		}
	}

	// Equal per Equal() but reached via two distinct paths; report the
	// whole phrases as the discriminating pair since no smaller structural
	// difference exists.
	return a, b
}
