package nlp

import (
	"context"
	"errors"
	"math"
)

var (
	ErrEmbeddingServiceUnavailable = errors.New("embedding service unavailable")
	ErrEmbeddingDimensionMismatch  = errors.New("embedding dimension mismatch")
)

// DefaultDimension matches the all-MiniLM-L6-v2 sentence encoder.
const DefaultDimension = 384

// Embedder turns text into fixed-length dense vectors.
type Embedder interface {
	// EmbedText converts a single text into a vector embedding.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts converts a batch of texts into vector embeddings.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector length.
	Dimension() int

	// Provider returns the provider name.
	Provider() string
}

// Config selects and configures an embedding provider.
type Config struct {
	Provider  string // "encoder", "hash" (fallback)
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

// NewEmbedder creates an embedder from config.
func NewEmbedder(config Config) Embedder {
	switch config.Provider {
	case "encoder":
		return NewEncoderEmbedder(config)
	case "hash":
		fallthrough
	default:
		// fallback to simple hash embedding for offline/demo use
		return NewHashEmbedder()
	}
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero-norm inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
