// Package embedding provides vector embedding generation for text.
package embedding

import (
	"errors"
)

var (
	// ErrMalformedResponse is returned when a backend answers without a
	// usable embedding.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrDimensionMismatch is returned when a backend returns a vector of
	// unexpected size.
	ErrDimensionMismatch = errors.New("unexpected embedding dimensions")
)

// Embedding represents a vector embedding of text.
type Embedding struct {
	Vector []float32 // The embedding vector (e.g., 384 dimensions for all-minilm)
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}
