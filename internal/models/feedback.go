// Package models defines the domain types shared between repositories,
// services and workers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment labels produced by the sentiment engine.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Urgency levels derived from the urgency score and configured thresholds.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Analysis states reported to downstream readers. An item without a completed
// enrichment is always "pending", never an error state.
const (
	AnalysisPending  = "pending"
	AnalysisAnalyzed = "analyzed"
)

// EnrichmentResult holds all derived attributes computed for one feedback item.
// It is a value type: it is only persisted embedded in a FeedbackItem, and all
// of its fields commit together or not at all.
type EnrichmentResult struct {
	Sentiment          string             `json:"sentiment"`
	SentimentScore     float64            `json:"sentiment_score"` // compound polarity in [-1, 1]
	Emotion            string             `json:"emotion"`
	EmotionScores      map[string]float64 `json:"emotion_scores"` // multi-label; need not sum to 1
	UrgencyScore       int                `json:"urgency_score"`  // [1, 10]
	UrgencyLevel       string             `json:"urgency_level"`
	Keywords           []string           `json:"keywords"` // frequency rank, first-seen tie order
	IsFeatureRequest   bool               `json:"is_feature_request"`
	IsBugReport        bool               `json:"is_bug_report"`
	CompetitorMentions []string           `json:"competitor_mentions"`
	PriorityScore      float64            `json:"priority_score"` // [0, 100]
}

// FeedbackItem represents a single feedback item with its optional enrichment.
type FeedbackItem struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Text      string    `json:"text"`
	TenantID  *string   `json:"tenant_id,omitempty"`

	// Enrichment fields, absent until analysis completes.
	Enrichment *EnrichmentResult `json:"enrichment,omitempty"`
	Embedding  []float32         `json:"-"`
	AnalyzedAt *time.Time        `json:"analyzed_at,omitempty"`

	// Cluster membership, versioned by run; superseded wholesale on each run.
	ClusterID    *int       `json:"cluster_id,omitempty"`
	ClusterRunID *uuid.UUID `json:"cluster_run_id,omitempty"`
}

// AnalysisStatus reports "pending" until an enrichment has committed.
func (f *FeedbackItem) AnalysisStatus() string {
	if f.AnalyzedAt == nil {
		return AnalysisPending
	}

	return AnalysisAnalyzed
}

// EmbeddingRecord pairs an item's identity and text with its embedding, used
// as the clustering snapshot row.
type EmbeddingRecord struct {
	ID        uuid.UUID
	Text      string
	Embedding []float32
}

// FeedbackItemWithScore is a feedback item annotated with a similarity score
// from a nearest-neighbor query.
type FeedbackItemWithScore struct {
	FeedbackItem
	Score float64 `json:"score"` // cosine similarity in [-1, 1]
}

// ListFeedbackFilters narrows feedback listing (backfill, batch submission).
type ListFeedbackFilters struct {
	TenantID       *string
	UnanalyzedOnly bool
	Limit          int
	Offset         int
}
