package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbacklens/analyzer/internal/models"
)

type mockRunsRepo struct {
	pending []models.ClusterRun
	listErr error
	// ids that lose the claim (another scheduler won, or tenant busy)
	unclaimable map[uuid.UUID]bool
	claimed     []uuid.UUID
}

func (m *mockRunsRepo) ListPending(ctx context.Context, limit int) ([]models.ClusterRun, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.pending) > limit {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}

func (m *mockRunsRepo) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.unclaimable[id] {
		return false, nil
	}
	m.claimed = append(m.claimed, id)
	return true, nil
}

type mockExecutor struct {
	executed []uuid.UUID
	err      error
}

func (m *mockExecutor) Execute(ctx context.Context, run *models.ClusterRun) error {
	m.executed = append(m.executed, run.ID)
	return m.err
}

func TestClusterScheduler_runOnce(t *testing.T) {
	runA := models.ClusterRun{ID: uuid.Must(uuid.NewV7()), Status: models.RunStatusPending}
	runB := models.ClusterRun{ID: uuid.Must(uuid.NewV7()), Status: models.RunStatusPending}

	repo := &mockRunsRepo{pending: []models.ClusterRun{runA, runB}}
	executor := &mockExecutor{}
	scheduler := NewClusterScheduler(repo, executor, 0, 0)

	scheduler.runOnce(context.Background())

	require.Len(t, executor.executed, 2)
	assert.Equal(t, []uuid.UUID{runA.ID, runB.ID}, repo.claimed)
}

func TestClusterScheduler_skipsLostClaims(t *testing.T) {
	runA := models.ClusterRun{ID: uuid.Must(uuid.NewV7())}
	runB := models.ClusterRun{ID: uuid.Must(uuid.NewV7())}

	repo := &mockRunsRepo{
		pending:     []models.ClusterRun{runA, runB},
		unclaimable: map[uuid.UUID]bool{runA.ID: true},
	}
	executor := &mockExecutor{}
	scheduler := NewClusterScheduler(repo, executor, 0, 0)

	scheduler.runOnce(context.Background())

	// Only the claimed run executes; the lost one is retried on a later tick
	assert.Equal(t, []uuid.UUID{runB.ID}, executor.executed)
}

func TestClusterScheduler_listFailureIsNonFatal(t *testing.T) {
	repo := &mockRunsRepo{listErr: errors.New("connection reset")}
	executor := &mockExecutor{}
	scheduler := NewClusterScheduler(repo, executor, 0, 0)

	scheduler.runOnce(context.Background())

	assert.Empty(t, executor.executed)
}

func TestClusterScheduler_executionFailureDoesNotStopBatch(t *testing.T) {
	runA := models.ClusterRun{ID: uuid.Must(uuid.NewV7())}
	runB := models.ClusterRun{ID: uuid.Must(uuid.NewV7())}

	repo := &mockRunsRepo{pending: []models.ClusterRun{runA, runB}}
	executor := &mockExecutor{err: errors.New("clustering failed")}
	scheduler := NewClusterScheduler(repo, executor, 0, 0)

	scheduler.runOnce(context.Background())

	assert.Len(t, executor.executed, 2)
}

func TestClusterScheduler_respectsBatchSize(t *testing.T) {
	pending := make([]models.ClusterRun, 10)
	for i := range pending {
		pending[i] = models.ClusterRun{ID: uuid.Must(uuid.NewV7())}
	}

	repo := &mockRunsRepo{pending: pending}
	executor := &mockExecutor{}
	scheduler := NewClusterScheduler(repo, executor, 0, 3)

	scheduler.runOnce(context.Background())

	assert.Len(t, executor.executed, 3)
}
