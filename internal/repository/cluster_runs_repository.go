package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/models"
)

const clusterRunColumns = `id, created_at, tenant_id, status,
	requested_k, num_clusters, records_processed, last_error,
	started_at, completed_at`

// ClusterRunsRepository handles data access for cluster runs.
type ClusterRunsRepository struct {
	db *pgxpool.Pool
}

// NewClusterRunsRepository creates a new cluster runs repository.
func NewClusterRunsRepository(db *pgxpool.Pool) *ClusterRunsRepository {
	return &ClusterRunsRepository{db: db}
}

func scanClusterRun(row pgx.Row) (*models.ClusterRun, error) {
	var run models.ClusterRun

	err := row.Scan(
		&run.ID, &run.CreatedAt, &run.TenantID, &run.Status,
		&run.RequestedK, &run.NumClusters, &run.RecordsProcessed, &run.LastError,
		&run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// Create enqueues a new pending cluster run for the given scope.
func (r *ClusterRunsRepository) Create(ctx context.Context, tenantID *string, requestedK *int) (*models.ClusterRun, error) {
	if requestedK != nil && *requestedK < 2 {
		return nil, apperrors.NewValidationError("requested_k", "requested cluster count must be at least 2")
	}

	query := `
		INSERT INTO cluster_runs (tenant_id, status, requested_k)
		VALUES ($1, $2, $3)
		RETURNING ` + clusterRunColumns

	run, err := scanClusterRun(r.db.QueryRow(ctx, query, tenantID, models.RunStatusPending, requestedK))
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster run: %w", err)
	}

	return run, nil
}

// HasActive reports whether the scope already has a pending or running run.
func (r *ClusterRunsRepository) HasActive(ctx context.Context, tenantID *string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM cluster_runs
			WHERE status IN ($1, $2)
				AND tenant_id IS NOT DISTINCT FROM $3
		)
	`

	var active bool
	if err := r.db.QueryRow(ctx, query, models.RunStatusPending, models.RunStatusRunning, tenantID).Scan(&active); err != nil {
		return false, fmt.Errorf("failed to check for an active cluster run: %w", err)
	}

	return active, nil
}

// GetByID retrieves a single cluster run by ID.
func (r *ClusterRunsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ClusterRun, error) {
	query := `SELECT ` + clusterRunColumns + ` FROM cluster_runs WHERE id = $1`

	run, err := scanClusterRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("cluster run", "")
		}

		return nil, fmt.Errorf("failed to get cluster run: %w", err)
	}

	return run, nil
}

// ListPending returns pending runs oldest first, up to limit.
func (r *ClusterRunsRepository) ListPending(ctx context.Context, limit int) ([]models.ClusterRun, error) {
	query := `
		SELECT ` + clusterRunColumns + `
		FROM cluster_runs
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, models.RunStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending cluster runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ClusterRun

	for rows.Next() {
		run, err := scanClusterRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster run: %w", err)
		}

		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cluster runs: %w", err)
	}

	return runs, nil
}

// Claim transitions a run from pending to running. The conditional UPDATE is
// the concurrency guard: at most one scheduler wins, and a run whose tenant
// already has a running run stays pending until that run finishes.
func (r *ClusterRunsRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE cluster_runs
		SET status = $2, started_at = now()
		WHERE id = $1
			AND status = $3
			AND NOT EXISTS (
				SELECT 1 FROM cluster_runs other
				WHERE other.status = $2
					AND other.tenant_id IS NOT DISTINCT FROM cluster_runs.tenant_id
			)
	`

	tag, err := r.db.Exec(ctx, query, id, models.RunStatusRunning, models.RunStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to claim cluster run: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Finish records the terminal state of a run.
func (r *ClusterRunsRepository) Finish(ctx context.Context, id uuid.UUID, req models.FinishClusterRunRequest) error {
	query := `
		UPDATE cluster_runs
		SET status = $2,
			num_clusters = $3,
			records_processed = $4,
			last_error = $5,
			completed_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, req.Status, req.NumClusters, req.RecordsProcessed, req.LastError)
	if err != nil {
		return fmt.Errorf("failed to finish cluster run: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("cluster run", "")
	}

	return nil
}
