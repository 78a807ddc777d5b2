// Package modelselect resolves which model serves a given use case.
package modelselect

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrNoModel is returned when no installed model fits a use case.
var ErrNoModel = errors.New("no model available")

// UseCase names what a model is needed for.
type UseCase string

const (
	Embedding UseCase = "embedding"
	Chat      UseCase = "chat"
)

// DefaultTTL is how long a resolved model name is reused.
const DefaultTTL = 5 * time.Minute

// embeddingHints are substrings that mark a model as an embedding model.
var embeddingHints = []string{"embed", "minilm", "bge", "e5", "nomic"}

// Selector picks the model for a use case.
type Selector interface {
	ModelFor(ctx context.Context, useCase UseCase) (string, error)
}

// Lister reports the models a backend serves.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Fixed is a Selector that always answers with the same model.
type Fixed string

// ModelFor returns f, or ErrNoModel when f is empty.
func (f Fixed) ModelFor(_ context.Context, useCase UseCase) (string, error) {
	if f == "" {
		return "", fmt.Errorf("%w for %s", ErrNoModel, useCase)
	}
	return string(f), nil
}

// Policy resolves models from explicit overrides first and otherwise from
// the models a Lister reports.
type Policy struct {
	lister    Lister
	overrides map[UseCase]string
	ttl       time.Duration
	cache     *expirable.LRU[UseCase, string]
}

// Option configures a Policy.
type Option func(*Policy)

// WithOverride pins the model for a use case. An empty model is ignored.
func WithOverride(useCase UseCase, model string) Option {
	return func(p *Policy) {
		if model != "" {
			p.overrides[useCase] = model
		}
	}
}

// WithTTL sets how long resolved names are cached.
func WithTTL(ttl time.Duration) Option {
	return func(p *Policy) {
		p.ttl = ttl
	}
}

// NewPolicy creates a Policy. lister may be nil when every use case has
// an override.
func NewPolicy(lister Lister, opts ...Option) *Policy {
	p := &Policy{
		lister:    lister,
		overrides: make(map[UseCase]string),
		ttl:       DefaultTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = expirable.NewLRU[UseCase, string](8, nil, p.ttl)
	return p
}

// ModelFor returns the model to use for useCase.
func (p *Policy) ModelFor(ctx context.Context, useCase UseCase) (string, error) {
	if model, ok := p.overrides[useCase]; ok {
		return model, nil
	}
	if model, ok := p.cache.Get(useCase); ok {
		return model, nil
	}
	if p.lister == nil {
		return "", fmt.Errorf("%w for %s", ErrNoModel, useCase)
	}

	models, err := p.lister.ListModels(ctx)
	if err != nil {
		return "", fmt.Errorf("listing models: %w", err)
	}

	model, ok := pick(models, useCase)
	if !ok {
		return "", fmt.Errorf("%w for %s", ErrNoModel, useCase)
	}
	p.cache.Add(useCase, model)
	return model, nil
}

// Invalidate forgets every resolved model.
func (p *Policy) Invalidate() {
	p.cache.Purge()
}

// pick chooses the first model, in name order, that suits useCase.
func pick(models []string, useCase UseCase) (string, bool) {
	sorted := slices.Clone(models)
	slices.Sort(sorted)
	for _, m := range sorted {
		if IsEmbeddingModel(m) == (useCase == Embedding) {
			return m, true
		}
	}
	return "", false
}

// IsEmbeddingModel reports whether the name looks like an embedding model.
func IsEmbeddingModel(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range embeddingHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
