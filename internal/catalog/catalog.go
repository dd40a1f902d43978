// Package catalog holds the static set of intents the bot can answer with
// scripted responses.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCatalog wraps every catalog validation failure.
	ErrInvalidCatalog = errors.New("invalid intent catalog")

	// ErrUnknownIntent is returned when a tag is not in the catalog.
	ErrUnknownIntent = errors.New("unknown intent")
)

// Intent is a named category of user request with example patterns and
// candidate responses.
type Intent struct {
	Tag       string   `json:"tag" yaml:"tag"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
	Responses []string `json:"responses" yaml:"responses"`
}

// Catalog is an ordered, immutable set of intents indexed by tag.
type Catalog struct {
	intents []Intent
	byTag   map[string]int
}

// New validates intents and returns a Catalog preserving their order.
// The input slices are copied.
func New(intents []Intent) (*Catalog, error) {
	if err := Validate(intents); err != nil {
		return nil, err
	}

	c := &Catalog{
		intents: make([]Intent, len(intents)),
		byTag:   make(map[string]int, len(intents)),
	}
	for i, in := range intents {
		c.intents[i] = Intent{
			Tag:       in.Tag,
			Patterns:  append([]string(nil), in.Patterns...),
			Responses: append([]string(nil), in.Responses...),
		}
		c.byTag[in.Tag] = i
	}
	return c, nil
}

// Validate checks the catalog invariants: at least one intent, and every
// intent has a unique non-empty tag, one or more patterns and one or more
// responses. All problems are reported together.
func Validate(intents []Intent) error {
	if len(intents) == 0 {
		return fmt.Errorf("%w: no intents", ErrInvalidCatalog)
	}

	var errs []error
	seen := make(map[string]int, len(intents))
	for i, in := range intents {
		tag := strings.TrimSpace(in.Tag)
		if tag == "" {
			errs = append(errs, fmt.Errorf("intent #%d: missing tag", i))
		} else if prev, dup := seen[tag]; dup {
			errs = append(errs, fmt.Errorf("intent #%d: duplicate tag %q (first defined at #%d)", i, tag, prev))
		} else {
			seen[tag] = i
		}
		if len(in.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("intent #%d (%s): no patterns", i, in.Tag))
		}
		if len(in.Responses) == 0 {
			errs = append(errs, fmt.Errorf("intent #%d (%s): no responses", i, in.Tag))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// Intents returns the intents in catalog order. The slice must not be modified.
func (c *Catalog) Intents() []Intent {
	return c.intents
}

// Len returns the number of intents.
func (c *Catalog) Len() int {
	return len(c.intents)
}

// Lookup returns the intent with the given tag.
func (c *Catalog) Lookup(tag string) (Intent, bool) {
	i, ok := c.byTag[tag]
	if !ok {
		return Intent{}, false
	}
	return c.intents[i], true
}

// Tags returns all tags in catalog order.
func (c *Catalog) Tags() []string {
	tags := make([]string, len(c.intents))
	for i, in := range c.intents {
		tags[i] = in.Tag
	}
	return tags
}
