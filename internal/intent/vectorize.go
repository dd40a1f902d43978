package intent

import "github.com/kalambet/banglabot/internal/nlp"

// Vector is a membership vector over a Vocabulary: slot i is 1 when the
// i-th vocabulary term occurs in the source tokens.
type Vector []uint8

// Vectorize stems tokens and marks the vocabulary terms they hit. The
// result always has length v.Len().
func Vectorize(tokens []string, v Vocabulary) Vector {
	vec := make(Vector, v.Len())
	for _, tok := range tokens {
		if i, ok := v.Index(nlp.Stem(tok)); ok {
			vec[i] = 1
		}
	}
	return vec
}

// Dot returns the number of terms present in both vectors. Vectors of
// different length are compared over their common prefix.
func Dot(a, b Vector) int {
	n := min(len(a), len(b))
	score := 0
	for i := range n {
		score += int(a[i]) * int(b[i])
	}
	return score
}
