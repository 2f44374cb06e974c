// Package repository provides data access for feedback items and cluster runs.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/models"
)

// errEmbeddingScanInvalidType is returned when Scan receives a type other than []byte.
var errEmbeddingScanInvalidType = errors.New("embedding: expected []byte")

// nullableEmbedding scans a vector column that may be NULL without panicking
// (pgvector.Vector.Scan panics on empty/NULL).
type nullableEmbedding []float32

func (n *nullableEmbedding) Scan(src any) error {
	if src == nil {
		*n = nil

		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%w: got %T", errEmbeddingScanInvalidType, src)
	}

	if len(buf) == 0 {
		*n = nil

		return nil
	}

	var vec pgvector.Vector

	if err := vec.DecodeBinary(buf); err != nil {
		return fmt.Errorf("embedding decode: %w", err)
	}

	*n = vec.Slice()

	return nil
}

// embeddingParam converts a vector to a pgvector parameter, mapping empty to NULL.
func embeddingParam(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}

	return pgvector.NewVector(embedding)
}

const feedbackColumns = `id, created_at, updated_at, text, tenant_id,
	sentiment, sentiment_score, emotion, emotion_scores,
	urgency_score, urgency_level, keywords,
	is_feature_request, is_bug_report, competitor_mentions, priority_score,
	analyzed_at, cluster_id, cluster_run_id`

// FeedbackRepository handles data access for feedback items.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// feedbackRow holds nullable scan targets for the enrichment columns.
type feedbackRow struct {
	sentiment          *string
	sentimentScore     *float64
	emotion            *string
	emotionScores      []byte
	urgencyScore       *int
	urgencyLevel       *string
	keywords           []string
	isFeatureRequest   *bool
	isBugReport        *bool
	competitorMentions []string
	priorityScore      *float64
}

// toEnrichment assembles the scanned enrichment columns into a result.
func (fr *feedbackRow) toEnrichment() (*models.EnrichmentResult, error) {
	enrichment := &models.EnrichmentResult{
		Keywords:           fr.keywords,
		CompetitorMentions: fr.competitorMentions,
	}

	if fr.sentiment != nil {
		enrichment.Sentiment = *fr.sentiment
	}
	if fr.sentimentScore != nil {
		enrichment.SentimentScore = *fr.sentimentScore
	}
	if fr.emotion != nil {
		enrichment.Emotion = *fr.emotion
	}
	if len(fr.emotionScores) > 0 {
		if err := json.Unmarshal(fr.emotionScores, &enrichment.EmotionScores); err != nil {
			return nil, fmt.Errorf("decode emotion scores: %w", err)
		}
	}
	if fr.urgencyScore != nil {
		enrichment.UrgencyScore = *fr.urgencyScore
	}
	if fr.urgencyLevel != nil {
		enrichment.UrgencyLevel = *fr.urgencyLevel
	}
	if fr.isFeatureRequest != nil {
		enrichment.IsFeatureRequest = *fr.isFeatureRequest
	}
	if fr.isBugReport != nil {
		enrichment.IsBugReport = *fr.isBugReport
	}
	if fr.priorityScore != nil {
		enrichment.PriorityScore = *fr.priorityScore
	}

	return enrichment, nil
}

// scanFeedbackItem scans one row (feedbackColumns order, then any extra
// trailing columns) into a FeedbackItem.
func scanFeedbackItem(row pgx.Row, extra ...any) (*models.FeedbackItem, error) {
	var (
		item models.FeedbackItem
		fr   feedbackRow
	)

	dest := []any{
		&item.ID, &item.CreatedAt, &item.UpdatedAt, &item.Text, &item.TenantID,
		&fr.sentiment, &fr.sentimentScore, &fr.emotion, &fr.emotionScores,
		&fr.urgencyScore, &fr.urgencyLevel, &fr.keywords,
		&fr.isFeatureRequest, &fr.isBugReport, &fr.competitorMentions, &fr.priorityScore,
		&item.AnalyzedAt, &item.ClusterID, &item.ClusterRunID,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	// Enrichment is all-or-nothing: analyzed_at marks a committed record.
	if item.AnalyzedAt != nil {
		enrichment, err := fr.toEnrichment()
		if err != nil {
			return nil, err
		}

		item.Enrichment = enrichment
	}

	return &item, nil
}

// Create inserts a new feedback item with no enrichment.
func (r *FeedbackRepository) Create(ctx context.Context, text string, tenantID *string) (*models.FeedbackItem, error) {
	if text == "" {
		return nil, apperrors.NewValidationError("text", "text must be non-empty")
	}

	query := `
		INSERT INTO feedback_items (text, tenant_id)
		VALUES ($1, $2)
		RETURNING ` + feedbackColumns

	item, err := scanFeedbackItem(r.db.QueryRow(ctx, query, text, tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback item: %w", err)
	}

	return item, nil
}

// GetByID retrieves a single feedback item by ID.
func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FeedbackItem, error) {
	query := `SELECT ` + feedbackColumns + `, embedding FROM feedback_items WHERE id = $1`

	var embedding nullableEmbedding

	item, err := scanFeedbackItem(r.db.QueryRow(ctx, query, id), &embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("feedback item", "")
		}

		return nil, fmt.Errorf("failed to get feedback item: %w", err)
	}

	item.Embedding = embedding

	return item, nil
}

// List returns feedback items matching the filters, newest first.
func (r *FeedbackRepository) List(ctx context.Context, filters models.ListFeedbackFilters) ([]models.FeedbackItem, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback_items
		WHERE ($1::text IS NULL OR tenant_id = $1)
			AND ($2::bool IS FALSE OR analyzed_at IS NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filters.TenantID, filters.UnanalyzedOnly, limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback items: %w", err)
	}
	defer rows.Close()

	var items []models.FeedbackItem

	for rows.Next() {
		item, err := scanFeedbackItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback item: %w", err)
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback items: %w", err)
	}

	return items, nil
}

// CommitEnrichment persists a complete enrichment in one atomic UPDATE: all
// enrichment columns, the embedding and analyzed_at commit together or not at
// all. Concurrent commits for the same item are last-writer-wins on the whole
// record; there is no path that writes a subset of the columns.
func (r *FeedbackRepository) CommitEnrichment(
	ctx context.Context,
	id uuid.UUID,
	enrichment models.EnrichmentResult,
	embedding []float32,
	analyzedAt time.Time,
) error {
	emotionScores, err := json.Marshal(enrichment.EmotionScores)
	if err != nil {
		return fmt.Errorf("encode emotion scores: %w", err)
	}

	query := `
		UPDATE feedback_items SET
			sentiment = $2,
			sentiment_score = $3,
			emotion = $4,
			emotion_scores = $5,
			urgency_score = $6,
			urgency_level = $7,
			keywords = $8,
			is_feature_request = $9,
			is_bug_report = $10,
			competitor_mentions = $11,
			priority_score = $12,
			embedding = $13,
			analyzed_at = $14,
			updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		id,
		enrichment.Sentiment, enrichment.SentimentScore,
		enrichment.Emotion, emotionScores,
		enrichment.UrgencyScore, enrichment.UrgencyLevel,
		enrichment.Keywords,
		enrichment.IsFeatureRequest, enrichment.IsBugReport,
		enrichment.CompetitorMentions, enrichment.PriorityScore,
		embeddingParam(embedding), analyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to commit enrichment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("feedback item", "")
	}

	return nil
}

// GetEmbedding returns the stored embedding for one item. A NotFoundError is
// returned for a missing item; a missing embedding returns an empty vector.
func (r *FeedbackRepository) GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error) {
	var embedding nullableEmbedding

	err := r.db.QueryRow(ctx, `SELECT embedding FROM feedback_items WHERE id = $1`, id).Scan(&embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("feedback item", "")
		}

		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	return embedding, nil
}

// ListEmbeddings returns a snapshot of analyzed items with embeddings for
// clustering, ordered by creation time for run reproducibility. Enrichments
// committing mid-read may be missed; that is acceptable for batch runs.
func (r *FeedbackRepository) ListEmbeddings(ctx context.Context, tenantID *string, limit int) ([]models.EmbeddingRecord, error) {
	query := `
		SELECT id, text, embedding
		FROM feedback_items
		WHERE embedding IS NOT NULL
			AND analyzed_at IS NOT NULL
			AND ($1::text IS NULL OR tenant_id = $1)
		ORDER BY created_at, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var records []models.EmbeddingRecord

	for rows.Next() {
		var (
			record    models.EmbeddingRecord
			embedding nullableEmbedding
		)

		if err := rows.Scan(&record.ID, &record.Text, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan embedding record: %w", err)
		}

		record.Embedding = embedding
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embedding records: %w", err)
	}

	return records, nil
}

// SetClusterLabels replaces cluster membership for a scope in one
// transaction: prior labels in the scope are cleared, then each assignment is
// written with the new run id. Assignments from previous runs are fully
// superseded, never merged.
func (r *FeedbackRepository) SetClusterLabels(
	ctx context.Context,
	runID uuid.UUID,
	tenantID *string,
	assignments []models.ClusterAssignment,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin cluster label transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		UPDATE feedback_items
		SET cluster_id = NULL, cluster_run_id = NULL
		WHERE cluster_run_id IS NOT NULL
			AND ($1::text IS NULL OR tenant_id = $1)
	`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to clear prior cluster labels: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`
			UPDATE feedback_items
			SET cluster_id = $2, cluster_run_id = $3, updated_at = now()
			WHERE id = $1
		`, a.ItemID, a.ClusterID, runID)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write cluster labels: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cluster labels: %w", err)
	}

	return nil
}

// NearestByEmbedding returns the items closest to the query embedding by
// cosine distance, with cosine similarity scores.
func (r *FeedbackRepository) NearestByEmbedding(
	ctx context.Context,
	queryEmbedding []float32,
	tenantID *string,
	limit int,
	excludeID *uuid.UUID,
) ([]models.FeedbackItemWithScore, error) {
	if len(queryEmbedding) == 0 {
		return nil, apperrors.NewValidationError("embedding", "query embedding must be non-empty")
	}

	query := `
		SELECT ` + feedbackColumns + `, 1 - (embedding <=> $1) AS score
		FROM feedback_items
		WHERE embedding IS NOT NULL
			AND ($2::text IS NULL OR tenant_id = $2)
			AND ($3::uuid IS NULL OR id <> $3)
		ORDER BY embedding <=> $1, id
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(queryEmbedding), tenantID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest items: %w", err)
	}
	defer rows.Close()

	var results []models.FeedbackItemWithScore

	for rows.Next() {
		var res models.FeedbackItemWithScore

		item, err := scanFeedbackItem(rows, &res.Score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nearest item: %w", err)
		}

		res.FeedbackItem = *item
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nearest items: %w", err)
	}

	return results, nil
}

// ListUnanalyzedIDs returns ids of items awaiting enrichment, oldest first.
// Used by backfill to re-submit pending work.
func (r *FeedbackRepository) ListUnanalyzedIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM feedback_items
		WHERE analyzed_at IS NULL
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed items: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan feedback id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback ids: %w", err)
	}

	return ids, nil
}
