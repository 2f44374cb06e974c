package jobs

import (
	"context"
)

// JobInserter is an interface for inserting jobs into the queue.
// This allows services to enqueue jobs without knowing about River directly.
type JobInserter interface {
	// InsertAnalysisJob enqueues an analysis job for one feedback item.
	// Returns an error if the job could not be inserted.
	InsertAnalysisJob(ctx context.Context, args AnalyzeFeedbackArgs) error

	// InsertAnalysisJobs enqueues analysis jobs for many items at once.
	// Returns the number of jobs actually inserted after deduplication.
	InsertAnalysisJobs(ctx context.Context, args []AnalyzeFeedbackArgs) (int, error)
}
