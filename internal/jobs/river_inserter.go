package jobs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// RiverJobInserter implements JobInserter using the River client.
type RiverJobInserter struct {
	client *river.Client[pgx.Tx]
}

// NewRiverJobInserter creates a new River-based job inserter.
func NewRiverJobInserter(client *river.Client[pgx.Tx]) *RiverJobInserter {
	return &RiverJobInserter{client: client}
}

// analysisInsertOpts deduplicates by args across the non-terminal states, so
// resubmitting an item that is already queued or running is a no-op.
// Note: JobStatePending is required by River when using ByState.
func analysisInsertOpts() *river.InsertOpts {
	return &river.InsertOpts{
		Queue: QueueAnalysis,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// InsertAnalysisJob enqueues a feedback analysis job with uniqueness constraints.
func (r *RiverJobInserter) InsertAnalysisJob(ctx context.Context, args AnalyzeFeedbackArgs) error {
	_, err := r.client.Insert(ctx, args, analysisInsertOpts())
	return err
}

// InsertAnalysisJobs enqueues a batch of analysis jobs in one round trip.
func (r *RiverJobInserter) InsertAnalysisJobs(ctx context.Context, args []AnalyzeFeedbackArgs) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}

	params := make([]river.InsertManyParams, 0, len(args))
	for _, a := range args {
		params = append(params, river.InsertManyParams{Args: a, InsertOpts: analysisInsertOpts()})
	}

	results, err := r.client.InsertMany(ctx, params)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, res := range results {
		if !res.UniqueSkippedAsDuplicate {
			inserted++
		}
	}

	return inserted, nil
}
