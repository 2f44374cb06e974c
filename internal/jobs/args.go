// Package jobs defines the durable queue job types and their insertion API.
package jobs

import "github.com/google/uuid"

// AnalyzeFeedbackArgs contains the arguments for a feedback analysis job.
// The job carries only the item id; the worker re-reads the text from the
// store so stale copies of edited feedback are never analyzed.
type AnalyzeFeedbackArgs struct {
	// FeedbackItemID is the UUID of the feedback item to analyze
	FeedbackItemID uuid.UUID `json:"feedback_item_id"`
}

// Kind returns the job type identifier for River
func (AnalyzeFeedbackArgs) Kind() string { return "analyze_feedback" }

// QueueAnalysis is the queue feedback analysis jobs run on.
const QueueAnalysis = "analysis"
