// Package nlp turns raw chat text into tokens and stems.
package nlp

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// Tokenize splits text into word-like units at Unicode word boundaries.
// Whitespace is dropped; punctuation survives as its own token. Case is
// preserved. Empty input yields an empty (non-nil) slice.
func Tokenize(text string) []string {
	tokens := []string{}
	if text == "" {
		return tokens
	}

	rest := norm.NFC.String(text)
	state := -1
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if strings.TrimSpace(word) == "" {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// IsAlpha reports whether token is a word made of letters only. It accepts
// a superset of a strict letters-only check: combining marks after the first
// rune count as part of the preceding letter. Without this nearly every
// Bengali word would be rejected, since vowel signs and the virama are marks.
func IsAlpha(token string) bool {
	if token == "" {
		return false
	}
	for i, r := range token {
		if unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsMark(r) {
			continue
		}
		return false
	}
	return true
}
