package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/models"
)

type mockSimilarityStore struct {
	embedding []float32
	getErr    error
	results   []models.FeedbackItemWithScore

	lastQuery   []float32
	lastLimit   int
	lastExclude *uuid.UUID
}

func (m *mockSimilarityStore) GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.embedding, nil
}

func (m *mockSimilarityStore) NearestByEmbedding(ctx context.Context, queryEmbedding []float32, tenantID *string, limit int, excludeID *uuid.UUID) ([]models.FeedbackItemWithScore, error) {
	m.lastQuery = queryEmbedding
	m.lastLimit = limit
	m.lastExclude = excludeID
	return m.results, nil
}

type countingEmbedder struct {
	calls     atomic.Int64
	embedding []float32
	err       error
}

func (c *countingEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.embedding, nil
}

func TestSimilarityService_FindSimilarToItem(t *testing.T) {
	store := &mockSimilarityStore{
		embedding: []float32{1, 0},
		results:   []models.FeedbackItemWithScore{{Score: 0.9}},
	}
	svc, err := NewSimilarityService(store, &countingEmbedder{})
	require.NoError(t, err)

	id := uuid.Must(uuid.NewV7())
	results, err := svc.FindSimilarToItem(context.Background(), id, nil, 5)
	require.NoError(t, err)

	assert.Len(t, results, 1)
	assert.Equal(t, []float32{1, 0}, store.lastQuery)
	assert.Equal(t, 5, store.lastLimit)
	require.NotNil(t, store.lastExclude)
	assert.Equal(t, id, *store.lastExclude)
}

func TestSimilarityService_FindSimilarToItemWithoutEmbedding(t *testing.T) {
	store := &mockSimilarityStore{embedding: nil}
	svc, err := NewSimilarityService(store, &countingEmbedder{})
	require.NoError(t, err)

	_, err = svc.FindSimilarToItem(context.Background(), uuid.Must(uuid.NewV7()), nil, 5)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
}

func TestSimilarityService_FindSimilarToItemMissing(t *testing.T) {
	store := &mockSimilarityStore{getErr: apperrors.NewNotFoundError("feedback item", "")}
	svc, err := NewSimilarityService(store, &countingEmbedder{})
	require.NoError(t, err)

	_, err = svc.FindSimilarToItem(context.Background(), uuid.Must(uuid.NewV7()), nil, 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSimilarityService_FindSimilarToTextCachesQueryEmbedding(t *testing.T) {
	store := &mockSimilarityStore{}
	embedder := &countingEmbedder{embedding: []float32{0, 1}}
	svc, err := NewSimilarityService(store, embedder)
	require.NoError(t, err)

	for range 3 {
		_, err := svc.FindSimilarToText(context.Background(), "slow dashboard", nil, 10)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), embedder.calls.Load())
	assert.Equal(t, []float32{0, 1}, store.lastQuery)
	assert.Nil(t, store.lastExclude)
}

func TestSimilarityService_FindSimilarToTextEmptyQuery(t *testing.T) {
	svc, err := NewSimilarityService(&mockSimilarityStore{}, &countingEmbedder{})
	require.NoError(t, err)

	_, err = svc.FindSimilarToText(context.Background(), "", nil, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSimilarityService_FindSimilarToTextProviderFailure(t *testing.T) {
	embedder := &countingEmbedder{err: errors.New("rate limited")}
	svc, err := NewSimilarityService(&mockSimilarityStore{}, embedder)
	require.NoError(t, err)

	_, err = svc.FindSimilarToText(context.Background(), "slow dashboard", nil, 10)
	assert.Error(t, err)
}

func TestSimilarityService_FindSimilarToTextNoProvider(t *testing.T) {
	// Disabled provider returns an empty vector, which cannot anchor a search
	embedder := &countingEmbedder{embedding: nil}
	svc, err := NewSimilarityService(&mockSimilarityStore{}, embedder)
	require.NoError(t, err)

	_, err = svc.FindSimilarToText(context.Background(), "slow dashboard", nil, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSimilarityService_DefaultTopK(t *testing.T) {
	store := &mockSimilarityStore{embedding: []float32{1, 0}}
	svc, err := NewSimilarityService(store, &countingEmbedder{})
	require.NoError(t, err)

	_, err = svc.FindSimilarToItem(context.Background(), uuid.Must(uuid.NewV7()), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultSimilarityTopK, store.lastLimit)
}
