// Package pipeline runs one conversational turn: record the utterance,
// classify it, and answer from the catalog or the generative fallback.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/banglabot/internal/catalog"
	"github.com/kalambet/banglabot/internal/composer"
	"github.com/kalambet/banglabot/internal/engine"
	"github.com/kalambet/banglabot/internal/history"
	"github.com/kalambet/banglabot/internal/intent"
)

// ErrFallback wraps any failure of the generative backend. When it is
// returned no bot turn has been recorded.
var ErrFallback = errors.New("fallback generation failed")

const defaultContextTurns = 6

// Source says where a reply came from.
type Source string

const (
	SourceIntent   Source = "intent"
	SourceFallback Source = "fallback"
)

// Reply is the outcome of a successful turn.
type Reply struct {
	Text     string        `json:"reply"`
	Tag      string        `json:"tag,omitempty"`
	Source   Source        `json:"source"`
	Duration time.Duration `json:"-"`
}

// Options configure a Responder.
type Options struct {
	// ContextTurns is how many recent turns are rendered into the fallback
	// prompt. Values <= 0 use 6.
	ContextTurns int
	// Timeout bounds each generator call. Zero means no extra deadline.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Responder wires the classifier, selector, history and fallback generator.
// It is safe for concurrent use; turns from concurrent callers interleave
// in the shared history.
type Responder struct {
	classifier   *intent.Classifier
	selector     *catalog.Selector
	history      *history.Store
	generator    engine.Generator
	composer     *composer.Composer
	contextTurns int
	timeout      time.Duration
	logger       *slog.Logger
}

// NewResponder creates a Responder.
func NewResponder(
	classifier *intent.Classifier,
	selector *catalog.Selector,
	store *history.Store,
	generator engine.Generator,
	comp *composer.Composer,
	opts Options,
) *Responder {
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = defaultContextTurns
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Responder{
		classifier:   classifier,
		selector:     selector,
		history:      store,
		generator:    generator,
		composer:     comp,
		contextTurns: opts.ContextTurns,
		timeout:      opts.Timeout,
		logger:       opts.Logger,
	}
}

// History returns the store the responder records turns into.
func (r *Responder) History() *history.Store { return r.history }

// Classifier returns the intent classifier in use.
func (r *Responder) Classifier() *intent.Classifier { return r.classifier }

// Respond handles one utterance end to end.
//
// The user turn is recorded first, so the fallback context includes the
// utterance being answered. On a generator failure the error wraps
// ErrFallback and the history holds only the user turn.
func (r *Responder) Respond(ctx context.Context, utterance string) (reply Reply, err error) {
	start := time.Now()
	defer func() {
		reply.Duration = time.Since(start)
	}()

	utterance = strings.TrimSpace(utterance)
	r.history.Append(history.RoleUser, utterance)

	if tag, ok := r.classifier.Classify(utterance); ok {
		text, err := r.selector.Select(tag)
		if err != nil {
			return Reply{}, err
		}
		r.history.Append(history.RoleBot, text)
		r.logger.Info("turn answered", "route", SourceIntent, "tag", tag)
		return Reply{Text: text, Tag: tag, Source: SourceIntent}, nil
	}

	prompt := r.composer.Compose(r.history.RecentContext(r.contextTurns), utterance)

	genCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	text, err := r.generator.Generate(genCtx, prompt)
	if err != nil {
		r.logger.Warn("fallback generation failed", "error", err)
		return Reply{}, fmt.Errorf("%w: %w", ErrFallback, err)
	}

	r.history.Append(history.RoleBot, text)
	r.logger.Info("turn answered", "route", SourceFallback, "reply_len", len(text))
	return Reply{Text: text, Source: SourceFallback}, nil
}
