// backfill enqueues analysis jobs for feedback items that have never been
// analyzed. Run this as a one-off after bulk imports or after enabling new
// model engines. Workers in the analyzer process execute the jobs.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/clustering"
	"github.com/feedbacklens/analyzer/internal/config"
	"github.com/feedbacklens/analyzer/internal/jobs"
	"github.com/feedbacklens/analyzer/internal/repository"
	"github.com/feedbacklens/analyzer/internal/service"
	"github.com/feedbacklens/analyzer/pkg/database"
)

const (
	batchSize   = 500
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	requestRun := flag.Bool("cluster", false, "request a cluster run after enqueueing")
	tenantID := flag.String("tenant", "", "tenant scope for the cluster run (empty for global)")
	requestedK := flag.Int("k", 0, "cluster count for the requested run (0 lets the engine choose)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	// Insert-only client: no workers registered, this process never executes jobs.
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			jobs.QueueAnalysis: {},
		},
		Workers: river.NewWorkers(),
	})
	if err != nil {
		slog.Error("Failed to create job queue client", "error", err)

		return exitFailure
	}

	feedbackRepo := repository.NewFeedbackRepository(db)
	analysisService := service.NewAnalysisService(jobs.NewRiverJobInserter(riverClient), nil)

	totalFound := 0
	totalEnqueued := 0

	for offset := 0; ; offset += batchSize {
		ids, err := feedbackRepo.ListUnanalyzedIDs(ctx, batchSize, offset)
		if err != nil {
			slog.Error("Failed to list unanalyzed feedback items", "error", err)

			return exitFailure
		}

		if len(ids) == 0 {
			break
		}

		inserted, err := analysisService.SubmitBatch(ctx, ids)
		if err != nil {
			slog.Error("Failed to enqueue analysis jobs", "error", err)

			return exitFailure
		}

		totalFound += len(ids)
		totalEnqueued += inserted
	}

	slog.Info("Backfill complete",
		"items_found", totalFound,
		"jobs_enqueued", totalEnqueued,
		"deduplicated", totalFound-totalEnqueued,
	)

	if *requestRun {
		return requestClusterRun(ctx, cfg, feedbackRepo, db, *tenantID, *requestedK)
	}

	return exitSuccess
}

// requestClusterRun enqueues a pending cluster run for the given scope. The
// scheduler in the worker process picks it up once the scope has no active
// run, so the labels reflect whatever the backfilled jobs have analyzed by
// then.
func requestClusterRun(
	ctx context.Context,
	cfg *config.Config,
	feedbackRepo *repository.FeedbackRepository,
	db *pgxpool.Pool,
	tenantID string,
	requestedK int,
) int {
	engine := clustering.NewEngine(clustering.Config{
		MinClusterSize: cfg.MinClusterSize,
		MaxClusters:    cfg.MaxClusters,
		MaxIterations:  cfg.ClusterMaxIterations,
		Seed:           cfg.ClusterSeed,
	})

	runService := service.NewClusterRunService(
		feedbackRepo, repository.NewClusterRunsRepository(db), engine, cfg.ClusterBatchLimit, nil,
	)

	var tenant *string
	if tenantID != "" {
		tenant = &tenantID
	}

	var k *int
	if requestedK > 0 {
		k = &requestedK
	}

	run, err := runService.Request(ctx, tenant, k)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			slog.Warn("Cluster run not requested, scope already has one pending or running",
				"tenant_id", tenantID,
			)

			return exitSuccess
		}

		slog.Error("Failed to request cluster run", "error", err)

		return exitFailure
	}

	slog.Info("Cluster run requested", "run_id", run.ID)

	return exitSuccess
}
