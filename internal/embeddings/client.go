// Package embeddings provides clients for generating text embeddings.
package embeddings

import "context"

// Client defines the interface for generating text embeddings.
type Client interface {
	// CreateEmbedding generates an embedding vector for the given text.
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Disabled is the degraded client used when no embedding provider is
// configured. It returns an empty vector so enrichment stays best-effort;
// similarity and clustering simply skip items without embeddings.
type Disabled struct{}

var _ Client = Disabled{}

// CreateEmbedding returns an empty vector.
func (Disabled) CreateEmbedding(context.Context, string) ([]float32, error) {
	return nil, nil
}
