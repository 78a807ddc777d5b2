// Package vector implements the similarity math used to rank embeddings.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrLengthMismatch is returned when two vectors of different
// dimensionality are compared.
var ErrLengthMismatch = errors.New("vector length mismatch")

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
// A zero-magnitude vector yields 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0, nil
	}

	return clamp(dot/denominator, -1, 1), nil
}

// NormalizeSimilarity maps a cosine similarity in [-1, 1] onto [0, 1].
func NormalizeSimilarity(s float64) float64 {
	return clamp((s+1)/2, 0, 1)
}

// Similarity is the normalized cosine similarity of a and b.
func Similarity(a, b []float32) (float64, error) {
	cos, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return NormalizeSimilarity(cos), nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
