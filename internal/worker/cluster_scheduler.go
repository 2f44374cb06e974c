// Package worker provides background workers for the analyzer.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/feedbacklens/analyzer/internal/models"
)

// PendingRunsRepository defines the interface for cluster run data access.
type PendingRunsRepository interface {
	ListPending(ctx context.Context, limit int) ([]models.ClusterRun, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
}

// RunExecutor executes a claimed cluster run to a terminal state.
type RunExecutor interface {
	Execute(ctx context.Context, run *models.ClusterRun) error
}

// ClusterScheduler is a background worker that periodically picks up pending
// cluster runs, claims them and executes them.
type ClusterScheduler struct {
	repo         PendingRunsRepository
	executor     RunExecutor
	pollInterval time.Duration
	batchSize    int
}

// NewClusterScheduler creates a new cluster scheduler worker.
func NewClusterScheduler(
	repo PendingRunsRepository,
	executor RunExecutor,
	pollInterval time.Duration,
	batchSize int,
) *ClusterScheduler {
	if pollInterval <= 0 {
		pollInterval = 1 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 5
	}

	return &ClusterScheduler{
		repo:         repo,
		executor:     executor,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Start begins the background worker loop. It runs until the context is cancelled.
func (w *ClusterScheduler) Start(ctx context.Context) {
	slog.Info("cluster scheduler started",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	// Run immediately on startup
	w.runOnce(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cluster scheduler stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce picks up and executes pending runs.
func (w *ClusterScheduler) runOnce(ctx context.Context) {
	runs, err := w.repo.ListPending(ctx, w.batchSize)
	if err != nil {
		slog.Error("failed to list pending cluster runs", "error", err)
		return
	}

	if len(runs) == 0 {
		slog.Debug("no pending cluster runs found")
		return
	}

	slog.Info("found pending cluster runs", "count", len(runs))

	for i := range runs {
		w.processRun(ctx, &runs[i])
	}
}

// processRun claims and executes a single run. A run whose claim is lost to a
// concurrent scheduler, or whose tenant already has a run in flight, is
// skipped and picked up again on a later tick.
func (w *ClusterScheduler) processRun(ctx context.Context, run *models.ClusterRun) {
	logger := slog.With("run_id", run.ID)

	claimed, err := w.repo.Claim(ctx, run.ID)
	if err != nil {
		logger.Error("failed to claim cluster run", "error", err)
		return
	}

	if !claimed {
		logger.Debug("cluster run not claimed, skipping")
		return
	}

	logger.Info("executing cluster run")

	if err := w.executor.Execute(ctx, run); err != nil {
		// Execute already recorded the terminal state; nothing to retry here.
		logger.Error("cluster run execution failed", "error", err)
	}
}
