package catalog

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Selector picks one scripted response for a matched intent.
type Selector struct {
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a Selector drawing from rng. Pass a seeded generator
// for reproducible choices; nil uses a time-seeded PCG source.
func NewSelector(c *Catalog, rng *rand.Rand) *Selector {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Selector{catalog: c, rng: rng}
}

// Select returns a response chosen uniformly at random from the responses
// of the intent with the given tag.
func (s *Selector) Select(tag string) (string, error) {
	in, ok := s.catalog.Lookup(tag)
	if !ok {
		return "", fmt.Errorf("selecting response for %q: %w", tag, ErrUnknownIntent)
	}

	s.mu.Lock()
	i := s.rng.IntN(len(in.Responses))
	s.mu.Unlock()

	return in.Responses[i], nil
}
