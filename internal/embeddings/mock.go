package embeddings

import (
	"context"
	"crypto/sha256"

	"github.com/feedbacklens/analyzer/pkg/vectormath"
)

// MockClient generates deterministic embeddings from the input text hash.
// It exists for tests and local development without a model provider:
// identical texts map to identical vectors, so similarity and clustering
// behave consistently.
type MockClient struct {
	dimensions int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock embedding client with the given dimensions.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = defaultDimension
	}

	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding returns a normalized deterministic vector derived from the text hash.
func (c *MockClient) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, c.dimensions)

	for i := 0; i < c.dimensions; i++ {
		// Cycle hash bytes, mapped into [-1, 1]
		b := hash[i%len(hash)]
		embedding[i] = (float32(b) / 127.5) - 1.0
	}

	vectormath.NormalizeL2(embedding)

	return embedding, nil
}
