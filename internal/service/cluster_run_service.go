package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/clustering"
	"github.com/feedbacklens/analyzer/internal/models"
	"github.com/feedbacklens/analyzer/internal/observability"
)

// ClusterStore defines the feedback data access needed by cluster runs.
type ClusterStore interface {
	ListEmbeddings(ctx context.Context, tenantID *string, limit int) ([]models.EmbeddingRecord, error)
	SetClusterLabels(ctx context.Context, runID uuid.UUID, tenantID *string, assignments []models.ClusterAssignment) error
}

// RunStore manages cluster run lifecycle records.
type RunStore interface {
	Create(ctx context.Context, tenantID *string, requestedK *int) (*models.ClusterRun, error)
	HasActive(ctx context.Context, tenantID *string) (bool, error)
	Finish(ctx context.Context, id uuid.UUID, req models.FinishClusterRunRequest) error
}

// ClusterRunService executes claimed cluster runs: it snapshots the analyzed
// embeddings, partitions them and persists the new membership wholesale.
// Each run recomputes from scratch; assignments are never merged across runs.
type ClusterRunService struct {
	store      ClusterStore
	runs       RunStore
	engine     *clustering.Engine
	batchLimit int
	metrics    observability.ClusteringMetrics
}

// NewClusterRunService creates a new cluster run service.
func NewClusterRunService(
	store ClusterStore,
	runs RunStore,
	engine *clustering.Engine,
	batchLimit int,
	metrics observability.ClusteringMetrics,
) *ClusterRunService {
	if batchLimit <= 0 {
		batchLimit = 10000
	}

	return &ClusterRunService{
		store:      store,
		runs:       runs,
		engine:     engine,
		batchLimit: batchLimit,
		metrics:    metrics,
	}
}

// Request enqueues a new pending run for the scope. A scope runs at most one
// cluster run at a time, so a scope with a pending or running run is rejected
// here instead of piling up duplicate work. The check races with concurrent
// requests; the claim's conditional UPDATE still serializes execution.
func (s *ClusterRunService) Request(ctx context.Context, tenantID *string, requestedK *int) (*models.ClusterRun, error) {
	active, err := s.runs.HasActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for an active cluster run: %w", err)
	}

	if active {
		return nil, apperrors.NewConflictError("a cluster run is already pending or running for this scope")
	}

	run, err := s.runs.Create(ctx, tenantID, requestedK)
	if err != nil {
		return nil, err
	}

	slog.Info("cluster run requested", "run_id", run.ID, "tenant_id", tenantID)

	return run, nil
}

// Execute runs one claimed cluster run to a terminal state. Items analyzed
// after the snapshot is read stay unlabeled until the next run.
func (s *ClusterRunService) Execute(ctx context.Context, run *models.ClusterRun) error {
	start := time.Now()

	records, err := s.store.ListEmbeddings(ctx, run.TenantID, s.batchLimit)
	if err != nil {
		return s.fail(ctx, run, start, fmt.Errorf("failed to snapshot embeddings: %w", err))
	}

	embeddings := make([][]float32, 0, len(records))
	texts := make([]string, 0, len(records))

	for _, record := range records {
		embeddings = append(embeddings, record.Embedding)
		texts = append(texts, record.Text)
	}

	requestedK := 0
	if run.RequestedK != nil {
		requestedK = *run.RequestedK
	}

	result, err := s.engine.Cluster(embeddings, texts, requestedK)
	if err != nil {
		return s.fail(ctx, run, start, fmt.Errorf("clustering failed: %w", err))
	}

	if result.InsufficientData {
		// Terminal and successful: too little data is a fact about the
		// corpus, not an error, and no labels are touched.
		err := s.runs.Finish(ctx, run.ID, models.FinishClusterRunRequest{
			Status:           models.RunStatusCompleted,
			NumClusters:      0,
			RecordsProcessed: result.TotalRecords,
		})
		if err != nil {
			return fmt.Errorf("failed to finish cluster run: %w", err)
		}

		if s.metrics != nil {
			s.metrics.RecordRunOutcome(ctx, "insufficient_data", time.Since(start))
		}

		slog.Info("cluster run completed without clustering",
			"run_id", run.ID,
			"records", result.TotalRecords,
			"message", result.Message,
		)

		return nil
	}

	assignments := make([]models.ClusterAssignment, 0, len(records))
	for i, record := range records {
		assignments = append(assignments, models.ClusterAssignment{
			ItemID:    record.ID,
			ClusterID: result.Labels[i],
		})
	}

	if err := s.store.SetClusterLabels(ctx, run.ID, run.TenantID, assignments); err != nil {
		return s.fail(ctx, run, start, fmt.Errorf("failed to persist cluster labels: %w", err))
	}

	err = s.runs.Finish(ctx, run.ID, models.FinishClusterRunRequest{
		Status:           models.RunStatusCompleted,
		NumClusters:      result.NumClusters,
		RecordsProcessed: result.TotalRecords,
	})
	if err != nil {
		return fmt.Errorf("failed to finish cluster run: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRunOutcome(ctx, "completed", time.Since(start))
		s.metrics.RecordClustersFound(ctx, int64(result.NumClusters))
	}

	slog.Info("cluster run completed",
		"run_id", run.ID,
		"num_clusters", result.NumClusters,
		"records", result.TotalRecords,
		"duration", time.Since(start),
	)

	return nil
}

// fail marks the run failed with the causing error and returns it.
func (s *ClusterRunService) fail(ctx context.Context, run *models.ClusterRun, start time.Time, cause error) error {
	msg := cause.Error()

	err := s.runs.Finish(ctx, run.ID, models.FinishClusterRunRequest{
		Status:    models.RunStatusFailed,
		LastError: &msg,
	})
	if err != nil {
		slog.Error("failed to mark cluster run as failed", "run_id", run.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRunOutcome(ctx, "failed", time.Since(start))
	}

	slog.Error("cluster run failed", "run_id", run.ID, "error", cause)

	return cause
}
