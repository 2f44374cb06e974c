package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AnalysisMetrics records analysis pipeline metrics (submission, worker).
// Methods accept ctx for future exemplar support.
type AnalysisMetrics interface {
	RecordJobsEnqueued(ctx context.Context, count int64)
	RecordAnalysisCompleted(ctx context.Context, duration time.Duration, urgencyLevel string)
	RecordAnalysisFailure(ctx context.Context)
}

type analysisMetrics struct {
	jobsEnqueued metric.Int64Counter
	completed    metric.Int64Counter
	failures     metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewAnalysisMetrics creates AnalysisMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewAnalysisMetrics(meter metric.Meter) (AnalysisMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	jobsEnqueued, err := meter.Int64Counter(
		MetricNameAnalysisJobsEnqueued,
		metric.WithDescription("Total analysis jobs enqueued"),
	)
	if err != nil {
		return nil, fmt.Errorf("create analysis jobs enqueued counter: %w", err)
	}

	completed, err := meter.Int64Counter(
		MetricNameAnalysisCompleted,
		metric.WithDescription("Total analyses committed, by urgency level"),
	)
	if err != nil {
		return nil, fmt.Errorf("create analysis completed counter: %w", err)
	}

	failures, err := meter.Int64Counter(
		MetricNameAnalysisFailures,
		metric.WithDescription("Total analysis job failures (commit errors, pending retries)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create analysis failures counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameAnalysisDuration,
		metric.WithDescription("Analysis job duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create analysis duration histogram: %w", err)
	}

	return &analysisMetrics{
		jobsEnqueued: jobsEnqueued,
		completed:    completed,
		failures:     failures,
		duration:     duration,
	}, nil
}

func (a *analysisMetrics) RecordJobsEnqueued(ctx context.Context, count int64) {
	a.jobsEnqueued.Add(ctx, count)
}

func (a *analysisMetrics) RecordAnalysisCompleted(ctx context.Context, duration time.Duration, urgencyLevel string) {
	urgencyLevel = NormalizeUrgencyLevel(urgencyLevel)
	a.completed.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrUrgencyLevel, urgencyLevel)))
	a.duration.Record(ctx, duration.Seconds())
}

func (a *analysisMetrics) RecordAnalysisFailure(ctx context.Context) {
	a.failures.Add(ctx, 1)
}

// ClusteringMetrics records cluster run outcomes.
type ClusteringMetrics interface {
	RecordRunOutcome(ctx context.Context, status string, duration time.Duration)
	RecordClustersFound(ctx context.Context, count int64)
}

type clusteringMetrics struct {
	runs     metric.Int64Counter
	duration metric.Float64Histogram
	clusters metric.Int64Histogram
}

// NewClusteringMetrics creates ClusteringMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewClusteringMetrics(meter metric.Meter) (ClusteringMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	runs, err := meter.Int64Counter(
		MetricNameClusterRuns,
		metric.WithDescription("Total cluster runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cluster runs counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameClusterRunDuration,
		metric.WithDescription("Cluster run duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cluster run duration histogram: %w", err)
	}

	clusters, err := meter.Int64Histogram(
		MetricNameClustersFound,
		metric.WithDescription("Clusters found per completed run"),
	)
	if err != nil {
		return nil, fmt.Errorf("create clusters found histogram: %w", err)
	}

	return &clusteringMetrics{runs: runs, duration: duration, clusters: clusters}, nil
}

func (c *clusteringMetrics) RecordRunOutcome(ctx context.Context, status string, duration time.Duration) {
	status = NormalizeRunStatus(status)
	c.runs.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
	c.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (c *clusteringMetrics) RecordClustersFound(ctx context.Context, count int64) {
	c.clusters.Record(ctx, count)
}
