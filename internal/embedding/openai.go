package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"golang.org/x/time/rate"
)

// DefaultOpenAIModel is the default embedding model for OpenAI backends.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIProvider generates embeddings through the OpenAI embeddings API or
// any server that speaks it.
type OpenAIProvider struct {
	sdk        openaisdk.Client
	model      string
	dimensions int
	limiter    *rate.Limiter
	reqOpts    []option.RequestOption
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIBaseURL points the client at an OpenAI-compatible server.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if url == "" {
			return
		}
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		p.reqOpts = append(p.reqOpts, option.WithBaseURL(url))
	}
}

// WithOpenAIModel sets the default embedding model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.model = model
	}
}

// WithOpenAIDimensions requests vectors of the given size. Zero leaves the
// model's native size.
func WithOpenAIDimensions(dims int) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.dimensions = dims
	}
}

// WithOpenAITimeout sets the HTTP client timeout.
func WithOpenAITimeout(timeout time.Duration) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.reqOpts = append(p.reqOpts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
}

// WithOpenAIRateLimit caps embedding requests per second. Zero or less
// means unlimited.
func WithOpenAIRateLimit(perSecond float64) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.limiter = newLimiter(perSecond)
	}
}

// NewOpenAIProvider creates an embedding provider using the official SDK.
// Failed requests are not retried.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		model: DefaultOpenAIModel,
		reqOpts: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sdk = openaisdk.NewClient(p.reqOpts...)
	return p
}

// Embed generates an embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, model, text string) (Embedding, error) {
	if model == "" {
		model = p.model
	}
	if err := wait(ctx, p.limiter); err != nil {
		return Embedding{}, err
	}

	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
		Model: openaisdk.EmbeddingModel(model),
	}
	if p.dimensions > 0 {
		params.Dimensions = param.NewOpt(int64(p.dimensions))
	}

	resp, err := p.sdk.Embeddings.New(ctx, params)
	if err != nil {
		return Embedding{}, fmt.Errorf("openai embedding: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return Embedding{}, fmt.Errorf("%w: no embedding in response", ErrMalformedResponse)
	}

	emb := resp.Data[0].Embedding
	if p.dimensions > 0 && len(emb) != p.dimensions {
		return Embedding{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), p.dimensions)
	}

	out := make([]float32, len(emb))
	for i := range emb {
		out[i] = float32(emb[i])
	}
	return Embedding{Vector: out}, nil
}

// ModelName returns the name of the default embedding model.
func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// Ping checks that the API answers a model listing.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.sdk.Models.List(ctx); err != nil {
		return fmt.Errorf("openai is not reachable: %w", err)
	}
	return nil
}

// ListModels returns the ids of the models the server exposes.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.sdk.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	names := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

// HasModel checks if the named model is served.
func (p *OpenAIProvider) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := p.ListModels(ctx)
	if err != nil {
		return false, err
	}
	return containsModel(models, name), nil
}
