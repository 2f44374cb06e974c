// Package service contains the application services that sit between the
// workers, repositories and domain engines.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/feedbacklens/analyzer/internal/jobs"
	"github.com/feedbacklens/analyzer/internal/observability"
)

// AnalysisService submits feedback items for asynchronous enrichment.
// Submission is fire-and-forget with at-least-once execution: the durable
// queue owns retries, and re-submitting an item already in flight is
// deduplicated at insert time.
type AnalysisService struct {
	inserter jobs.JobInserter
	metrics  observability.AnalysisMetrics
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(inserter jobs.JobInserter, metrics observability.AnalysisMetrics) *AnalysisService {
	return &AnalysisService{inserter: inserter, metrics: metrics}
}

// Submit enqueues analysis for one feedback item.
func (s *AnalysisService) Submit(ctx context.Context, feedbackItemID uuid.UUID) error {
	err := s.inserter.InsertAnalysisJob(ctx, jobs.AnalyzeFeedbackArgs{FeedbackItemID: feedbackItemID})
	if err != nil {
		return fmt.Errorf("failed to enqueue analysis job: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordJobsEnqueued(ctx, 1)
	}

	slog.Debug("analysis job enqueued", "feedback_item_id", feedbackItemID)

	return nil
}

// SubmitBatch enqueues analysis for many items and returns the number of jobs
// inserted after deduplication.
func (s *AnalysisService) SubmitBatch(ctx context.Context, feedbackItemIDs []uuid.UUID) (int, error) {
	if len(feedbackItemIDs) == 0 {
		return 0, nil
	}

	args := make([]jobs.AnalyzeFeedbackArgs, 0, len(feedbackItemIDs))
	for _, id := range feedbackItemIDs {
		args = append(args, jobs.AnalyzeFeedbackArgs{FeedbackItemID: id})
	}

	inserted, err := s.inserter.InsertAnalysisJobs(ctx, args)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue analysis jobs: %w", err)
	}

	if s.metrics != nil && inserted > 0 {
		s.metrics.RecordJobsEnqueued(ctx, int64(inserted))
	}

	slog.Info("analysis jobs enqueued",
		"submitted", len(feedbackItemIDs),
		"inserted", inserted,
		"deduplicated", len(feedbackItemIDs)-inserted,
	)

	return inserted, nil
}
