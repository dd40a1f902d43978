// Package intent matches user utterances against the intent catalog using
// bag-of-words overlap between stemmed tokens.
package intent

import (
	"errors"
	"sort"

	"github.com/kalambet/banglabot/internal/catalog"
	"github.com/kalambet/banglabot/internal/nlp"
)

// ErrEmptyCatalog is returned when an index is built from a catalog
// without intents.
var ErrEmptyCatalog = errors.New("intent catalog is empty")

// Vocabulary is the sorted, deduplicated set of stems known to the
// classifier. Positions are stable for the lifetime of the process.
type Vocabulary struct {
	terms []string
	pos   map[string]int
}

// NewVocabulary builds a Vocabulary from stems. Duplicates are removed and
// the result is sorted byte-wise.
func NewVocabulary(stems []string) Vocabulary {
	set := make(map[string]struct{}, len(stems))
	for _, s := range stems {
		set[s] = struct{}{}
	}
	terms := make([]string, 0, len(set))
	for s := range set {
		terms = append(terms, s)
	}
	sort.Strings(terms)

	pos := make(map[string]int, len(terms))
	for i, s := range terms {
		pos[s] = i
	}
	return Vocabulary{terms: terms, pos: pos}
}

// Len returns the number of terms.
func (v Vocabulary) Len() int { return len(v.terms) }

// Terms returns the terms in vector order. The slice must not be modified.
func (v Vocabulary) Terms() []string { return v.terms }

// Index returns the vector position of stem.
func (v Vocabulary) Index(stem string) (int, bool) {
	i, ok := v.pos[stem]
	return i, ok
}

// Entry is one catalog pattern: its raw tokens as written and the tag of
// the intent it belongs to.
type Entry struct {
	Tokens []string
	Tag    string
}

// Index is the immutable state the classifier scores against.
type Index struct {
	vocab   Vocabulary
	entries []Entry
	vectors []Vector
}

// Build tokenizes every pattern of every intent in catalog order. Raw
// tokens are kept per pattern; alphabetic tokens are stemmed into the
// vocabulary. Pattern vectors are computed once here.
func Build(c *catalog.Catalog) (*Index, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrEmptyCatalog
	}

	var (
		entries []Entry
		stems   []string
	)
	for _, in := range c.Intents() {
		for _, p := range in.Patterns {
			tokens := nlp.Tokenize(p)
			entries = append(entries, Entry{Tokens: tokens, Tag: in.Tag})
			for _, tok := range tokens {
				if nlp.IsAlpha(tok) {
					stems = append(stems, nlp.Stem(tok))
				}
			}
		}
	}

	vocab := NewVocabulary(stems)
	vectors := make([]Vector, len(entries))
	for i, e := range entries {
		vectors[i] = Vectorize(e.Tokens, vocab)
	}

	return &Index{vocab: vocab, entries: entries, vectors: vectors}, nil
}

// Vocabulary returns the index vocabulary.
func (ix *Index) Vocabulary() Vocabulary { return ix.vocab }

// Entries returns the pattern entries in catalog order. The slice must not
// be modified.
func (ix *Index) Entries() []Entry { return ix.entries }
