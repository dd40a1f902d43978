package intent

import (
	"log/slog"

	"github.com/kalambet/banglabot/internal/nlp"
)

// DefaultMinScore accepts any positive overlap.
const DefaultMinScore = 1

// Match is the best-scoring pattern for an utterance.
type Match struct {
	Tag   string
	Score int
	// Entry is the position of the winning pattern, or -1 when nothing
	// was scored.
	Entry int
}

// Classifier maps utterances to intent tags. It only reads its Index and is
// safe for concurrent use.
type Classifier struct {
	index    *Index
	minScore int
	logger   *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMinScore sets the lowest overlap accepted as a match. Values below 1
// are raised to 1 so that a zero score never yields a tag.
func WithMinScore(n int) Option {
	return func(c *Classifier) { c.minScore = max(n, 1) }
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// NewClassifier returns a Classifier scoring against ix.
func NewClassifier(ix *Index, opts ...Option) *Classifier {
	c := &Classifier{
		index:    ix,
		minScore: DefaultMinScore,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Score returns the best-scoring pattern for utterance. Ties go to the
// pattern that comes first in catalog order.
func (c *Classifier) Score(utterance string) Match {
	tokens := nlp.Tokenize(utterance)
	user := Vectorize(tokens, c.index.vocab)

	best := Match{Entry: -1}
	for i, pv := range c.index.vectors {
		s := Dot(user, pv)
		if best.Entry == -1 || s > best.Score {
			best = Match{Tag: c.index.entries[i].Tag, Score: s, Entry: i}
		}
	}

	c.logger.Debug("intent scored",
		"utterance", utterance,
		"tokens", len(tokens),
		"best_tag", best.Tag,
		"best_score", best.Score,
	)
	return best
}

// Classify returns the tag of the best-matching intent, or ok=false when
// the best overlap is below the minimum score.
func (c *Classifier) Classify(utterance string) (tag string, ok bool) {
	m := c.Score(utterance)
	if m.Entry < 0 || m.Score < c.minScore {
		return "", false
	}
	return m.Tag, true
}

// MinScore returns the acceptance threshold.
func (c *Classifier) MinScore() int { return c.minScore }
