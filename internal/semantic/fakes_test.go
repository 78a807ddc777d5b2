package semantic

import (
	"context"
	"sync"

	"github.com/quillnote/recall/internal/connectivity"
	"github.com/quillnote/recall/internal/embedding"
	"github.com/quillnote/recall/internal/modelselect"
)

const testModel = "test-embed"

// fakeProvider returns canned vectors keyed by exact text, or fallback.
type fakeProvider struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
	models   []string
}

func (p *fakeProvider) Embed(_ context.Context, model, text string) (embedding.Embedding, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.models = append(p.models, model)
	if p.err != nil {
		return embedding.Embedding{}, p.err
	}
	if v, ok := p.vectors[text]; ok {
		return embedding.Embedding{Vector: v}, nil
	}
	return embedding.Embedding{Vector: p.fallback}, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeProber always reports status.
type fakeProber struct {
	status connectivity.Status
	calls  int
}

func (p *fakeProber) CheckConnection(_ context.Context) connectivity.Result {
	p.calls++
	return connectivity.Result{Status: p.status}
}

type panickingProber struct{}

func (panickingProber) CheckConnection(_ context.Context) connectivity.Result {
	panic("probe exploded")
}

var testSelector = modelselect.Fixed(testModel)
