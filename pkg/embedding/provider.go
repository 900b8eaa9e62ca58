package embedding

import (
	"context"
	"math"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// Implementations must honor ctx cancellation; the router runs matching
// under a hard deadline and treats overruns as a degraded signal.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// Normalize scales a vector to unit length. Cosine similarity downstream is
// computed as a plain dot product, so every provider must return normalized
// vectors.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
