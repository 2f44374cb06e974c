package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/embeddings"
	"github.com/feedbacklens/analyzer/internal/models"
)

const (
	defaultSimilarityTopK  = 10
	queryEmbeddingCacheCap = 1024
)

// SimilarityStore defines the feedback data access needed by similarity search.
type SimilarityStore interface {
	GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error)
	NearestByEmbedding(ctx context.Context, queryEmbedding []float32, tenantID *string, limit int, excludeID *uuid.UUID) ([]models.FeedbackItemWithScore, error)
}

// SimilarityService finds feedback items similar to an item or a free-text
// query. Query embeddings are cached; concurrent requests for the same query
// share a single provider call.
type SimilarityService struct {
	store    SimilarityStore
	embedder embeddings.Client
	cache    *lru.Cache[string, []float32]
	group    singleflight.Group
}

// NewSimilarityService creates a new similarity service.
func NewSimilarityService(store SimilarityStore, embedder embeddings.Client) (*SimilarityService, error) {
	cache, err := lru.New[string, []float32](queryEmbeddingCacheCap)
	if err != nil {
		return nil, fmt.Errorf("create query embedding cache: %w", err)
	}

	return &SimilarityService{
		store:    store,
		embedder: embedder,
		cache:    cache,
	}, nil
}

// FindSimilarToItem returns the items nearest to an existing item's embedding,
// excluding the item itself. An item that has not finished analysis yet has no
// embedding and cannot anchor a search.
func (s *SimilarityService) FindSimilarToItem(ctx context.Context, id uuid.UUID, tenantID *string, topK int) ([]models.FeedbackItemWithScore, error) {
	if topK <= 0 {
		topK = defaultSimilarityTopK
	}

	embedding, err := s.store.GetEmbedding(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(embedding) == 0 {
		return nil, apperrors.NewInsufficientDataError(0, 1, "feedback item has no embedding yet")
	}

	return s.store.NearestByEmbedding(ctx, embedding, tenantID, topK, &id)
}

// FindSimilarToText embeds a free-text query and returns the nearest items.
func (s *SimilarityService) FindSimilarToText(ctx context.Context, query string, tenantID *string, topK int) ([]models.FeedbackItemWithScore, error) {
	if query == "" {
		return nil, apperrors.NewValidationError("query", "query must be non-empty")
	}

	if topK <= 0 {
		topK = defaultSimilarityTopK
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.store.NearestByEmbedding(ctx, embedding, tenantID, topK, nil)
}

// embedQuery returns the embedding for a query, serving repeats from the LRU
// cache and collapsing concurrent identical queries into one provider call.
func (s *SimilarityService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	sum := sha256.Sum256([]byte(query))
	key := hex.EncodeToString(sum[:])

	if embedding, ok := s.cache.Get(key); ok {
		return embedding, nil
	}

	value, err, shared := s.group.Do(key, func() (any, error) {
		if embedding, ok := s.cache.Get(key); ok {
			return embedding, nil
		}

		embedding, err := s.embedder.CreateEmbedding(ctx, query)
		if err != nil {
			return nil, err
		}

		if len(embedding) == 0 {
			return nil, apperrors.NewValidationError("query", "no embedding provider configured")
		}

		s.cache.Add(key, embedding)

		return embedding, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		slog.Debug("query embedding shared across concurrent requests")
	}

	embedding, ok := value.([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected embedding type %T", value)
	}

	return embedding, nil
}
