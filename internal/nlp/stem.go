package nlp

import (
	"github.com/kljensen/snowball/english"
)

// maxStemPasses bounds the fixpoint loop in Stem. Porter2 converges in one
// or two passes for real words.
const maxStemPasses = 8

// Stem reduces token to its lower-cased English Snowball root. The stemmer
// is re-applied until the output stops changing, so Stem is idempotent:
// Stem(Stem(x)) == Stem(x).
func Stem(token string) string {
	s := english.Stem(token, true)
	for range maxStemPasses {
		next := english.Stem(s, true)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// StemAll stems every token in order.
func StemAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Stem(t)
	}
	return out
}
