// Package workers contains the River workers that execute queued jobs.
package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/feedbacklens/analyzer/internal/analyzer"
	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/jobs"
	"github.com/feedbacklens/analyzer/internal/models"
	"github.com/feedbacklens/analyzer/internal/observability"
)

// FeedbackStore is the subset of the feedback repository the worker needs.
type FeedbackStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FeedbackItem, error)
	CommitEnrichment(ctx context.Context, id uuid.UUID, enrichment models.EnrichmentResult, embedding []float32, analyzedAt time.Time) error
}

// AnalysisWorkerDeps holds the dependencies for the analysis worker.
type AnalysisWorkerDeps struct {
	Store       FeedbackStore
	Analyzer    *analyzer.Analyzer
	RateLimiter *rate.Limiter
	Metrics     observability.AnalysisMetrics
	Timeout     time.Duration
}

// AnalysisWorker processes feedback analysis jobs. Failures surface as job
// retries, never as partial enrichments: the worker either commits a complete
// record or returns an error and leaves the item pending.
type AnalysisWorker struct {
	river.WorkerDefaults[jobs.AnalyzeFeedbackArgs]
	deps AnalysisWorkerDeps
}

// NewAnalysisWorker creates a new analysis worker with the given dependencies.
func NewAnalysisWorker(deps AnalysisWorkerDeps) *AnalysisWorker {
	return &AnalysisWorker{deps: deps}
}

// Timeout bounds one job execution, covering all model calls.
func (w *AnalysisWorker) Timeout(*river.Job[jobs.AnalyzeFeedbackArgs]) time.Duration {
	if w.deps.Timeout > 0 {
		return w.deps.Timeout
	}

	return 2 * time.Minute
}

// Work processes one analysis job.
func (w *AnalysisWorker) Work(ctx context.Context, job *river.Job[jobs.AnalyzeFeedbackArgs]) error {
	args := job.Args
	start := time.Now()

	slog.Debug("processing analysis job",
		"job_id", job.ID,
		"feedback_item_id", args.FeedbackItemID,
	)

	// Wait for rate limit token if configured
	if w.deps.RateLimiter != nil {
		if err := w.deps.RateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	// Re-read the item so an edit racing the job is analyzed at its
	// current text, not the text at submission time.
	item, err := w.deps.Store.GetByID(ctx, args.FeedbackItemID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			slog.Info("feedback item deleted before analysis completed",
				"job_id", job.ID,
				"feedback_item_id", args.FeedbackItemID,
			)
			// Return nil to mark job as complete - item no longer exists
			return nil
		}

		slog.Error("failed to load feedback item",
			"job_id", job.ID,
			"feedback_item_id", args.FeedbackItemID,
			"error", err,
		)
		return err // River will retry based on configuration
	}

	enrichment, embedding := w.deps.Analyzer.Analyze(ctx, item.Text)

	err = w.deps.Store.CommitEnrichment(ctx, item.ID, enrichment, embedding, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			slog.Info("feedback item deleted during analysis",
				"job_id", job.ID,
				"feedback_item_id", args.FeedbackItemID,
			)
			return nil
		}

		if job.Attempt >= job.MaxAttempts {
			slog.Error("analysis job exhausted its attempts",
				"job_id", job.ID,
				"feedback_item_id", args.FeedbackItemID,
				"attempt", job.Attempt,
				"error", err,
			)
		}

		if w.deps.Metrics != nil {
			w.deps.Metrics.RecordAnalysisFailure(ctx)
		}

		return err // Retry on other errors
	}

	if w.deps.Metrics != nil {
		w.deps.Metrics.RecordAnalysisCompleted(ctx, time.Since(start), enrichment.UrgencyLevel)
	}

	slog.Info("feedback item analyzed",
		"job_id", job.ID,
		"feedback_item_id", args.FeedbackItemID,
		"sentiment", enrichment.Sentiment,
		"urgency_level", enrichment.UrgencyLevel,
		"priority_score", enrichment.PriorityScore,
		"has_embedding", len(embedding) > 0,
	)

	return nil
}
