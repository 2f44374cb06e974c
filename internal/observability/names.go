// Package observability provides OpenTelemetry metrics and structured logging
// support for the analysis pipeline.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameAnalysisJobsEnqueued = "feedbacklens_analysis_jobs_enqueued_total"
	MetricNameAnalysisCompleted    = "feedbacklens_analysis_completed_total"
	MetricNameAnalysisFailures     = "feedbacklens_analysis_failures_total"
	MetricNameAnalysisDuration     = "feedbacklens_analysis_duration_seconds"
	MetricNameClusterRuns          = "feedbacklens_cluster_runs_total"
	MetricNameClusterRunDuration   = "feedbacklens_cluster_run_duration_seconds"
	MetricNameClustersFound        = "feedbacklens_cluster_run_clusters"
)

// Attribute keys.
const (
	AttrStatus       = "status"
	AttrUrgencyLevel = "urgency_level"
)

// AllowedUrgencyLevels bounds cardinality of the urgency_level attribute.
var AllowedUrgencyLevels = map[string]bool{
	"low":      true,
	"medium":   true,
	"high":     true,
	"critical": true,
}

// AllowedRunStatuses for feedbacklens_cluster_runs_total.
var AllowedRunStatuses = map[string]bool{
	"completed":         true,
	"failed":            true,
	"insufficient_data": true,
}

// NormalizeUrgencyLevel returns level if allowed, otherwise "other".
func NormalizeUrgencyLevel(level string) string {
	if AllowedUrgencyLevels[level] {
		return level
	}

	return "other"
}

// NormalizeRunStatus returns status if allowed, otherwise "other".
func NormalizeRunStatus(status string) string {
	if AllowedRunStatuses[status] {
		return status
	}

	return "other"
}
