package embedding

import "context"

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for text with the named model. An empty
	// model selects the provider's configured default.
	Embed(ctx context.Context, model, text string) (Embedding, error)
}

// Backend is a Provider that can also report reachability and installed
// models. Both OllamaProvider and OpenAIProvider implement it.
type Backend interface {
	Provider

	// Ping returns nil when the backend answers.
	Ping(ctx context.Context) error

	// ListModels returns the names of the models the backend serves.
	ListModels(ctx context.Context) ([]string, error)

	// HasModel reports whether the named model is available.
	HasModel(ctx context.Context, name string) (bool, error)

	// ModelName returns the default embedding model.
	ModelName() string
}

// containsModel reports whether name is in models. Ollama reports tagged
// names, so "nomic-embed-text" also matches "nomic-embed-text:latest".
func containsModel(models []string, name string) bool {
	for _, m := range models {
		if m == name || m == name+":latest" {
			return true
		}
	}
	return false
}
