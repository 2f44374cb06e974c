package models

import (
	"time"

	"github.com/google/uuid"
)

// ClusterRunStatus represents the status of a clustering run.
type ClusterRunStatus string

const (
	RunStatusPending   ClusterRunStatus = "pending"
	RunStatusRunning   ClusterRunStatus = "running"
	RunStatusCompleted ClusterRunStatus = "completed"
	RunStatusFailed    ClusterRunStatus = "failed"
)

// ClusterRun represents one clustering run over a tenant's analyzed feedback.
// At most one run per tenant may be running at a time; the repository enforces
// this with a conditional status claim.
type ClusterRun struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         *string          `json:"tenant_id,omitempty"`
	Status           ClusterRunStatus `json:"status"`
	RequestedK       *int             `json:"requested_k,omitempty"` // nil means auto-select via elbow
	NumClusters      int              `json:"num_clusters"`
	RecordsProcessed int              `json:"records_processed"`
	LastError        *string          `json:"last_error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// ClusterAssignment maps one feedback item to its cluster within a run.
type ClusterAssignment struct {
	ItemID    uuid.UUID
	ClusterID int
}

// FinishClusterRunRequest updates a run's terminal state after execution.
type FinishClusterRunRequest struct {
	Status           ClusterRunStatus
	NumClusters      int
	RecordsProcessed int
	LastError        *string
}
