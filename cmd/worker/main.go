package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"golang.org/x/time/rate"

	"github.com/feedbacklens/analyzer/internal/analyzer"
	"github.com/feedbacklens/analyzer/internal/clustering"
	"github.com/feedbacklens/analyzer/internal/config"
	"github.com/feedbacklens/analyzer/internal/embeddings"
	"github.com/feedbacklens/analyzer/internal/emotion"
	"github.com/feedbacklens/analyzer/internal/huggingface"
	"github.com/feedbacklens/analyzer/internal/jobs"
	"github.com/feedbacklens/analyzer/internal/observability"
	"github.com/feedbacklens/analyzer/internal/repository"
	"github.com/feedbacklens/analyzer/internal/sentiment"
	"github.com/feedbacklens/analyzer/internal/service"
	"github.com/feedbacklens/analyzer/internal/textfeatures"
	"github.com/feedbacklens/analyzer/internal/worker"
	"github.com/feedbacklens/analyzer/internal/workers"
	"github.com/feedbacklens/analyzer/pkg/database"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	// Initialize database connection with pgvector type registration
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Metrics are optional; a nil meter disables all recording
	meterProvider, err := observability.NewMeterProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	var analysisMetrics observability.AnalysisMetrics
	var clusteringMetrics observability.ClusteringMetrics
	if meterProvider != nil {
		meter := meterProvider.Meter("feedbacklens-analyzer")

		analysisMetrics, err = observability.NewAnalysisMetrics(meter)
		if err != nil {
			slog.Error("Failed to create analysis metrics", "error", err)
			os.Exit(1)
		}

		clusteringMetrics, err = observability.NewClusteringMetrics(meter)
		if err != nil {
			slog.Error("Failed to create clustering metrics", "error", err)
			os.Exit(1)
		}
	}

	// Build the model engines; missing credentials disable an engine rather
	// than failing startup, and the analyzer degrades per engine.
	sentimentEngine, emotionEngine := buildClassifierEngines(cfg)

	embeddingClient, err := buildEmbeddingClient(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize embedding client", "error", err)
		os.Exit(1)
	}

	feedbackAnalyzer := analyzer.New(analyzer.Params{
		Sentiment:  sentimentEngine,
		Emotion:    emotionEngine,
		Embeddings: embeddingClient,
		Thresholds: textfeatures.UrgencyThresholds{
			High:   cfg.UrgencyHighThreshold,
			Medium: cfg.UrgencyMediumThreshold,
		},
		ModelTimeout: time.Duration(cfg.ModelCallTimeoutSeconds) * time.Second,
	})

	feedbackRepo := repository.NewFeedbackRepository(db)
	clusterRunsRepo := repository.NewClusterRunsRepository(db)

	riverClient, err := initRiver(ctx, db, cfg, feedbackRepo, feedbackAnalyzer, analysisMetrics)
	if err != nil {
		slog.Error("Failed to initialize job queue", "error", err)
		os.Exit(1)
	}
	slog.Info("Analysis queue started",
		"max_concurrent", cfg.AnalysisMaxConcurrent,
		"max_attempts", cfg.AnalysisMaxAttempts,
		"rate_limit", cfg.ModelRateLimit,
	)

	clusterEngine := clustering.NewEngine(clustering.Config{
		MinClusterSize: cfg.MinClusterSize,
		MaxClusters:    cfg.MaxClusters,
		MaxIterations:  cfg.ClusterMaxIterations,
		Seed:           cfg.ClusterSeed,
	})

	clusterRunService := service.NewClusterRunService(
		feedbackRepo, clusterRunsRepo, clusterEngine, cfg.ClusterBatchLimit, clusteringMetrics,
	)

	scheduler := worker.NewClusterScheduler(
		clusterRunsRepo,
		clusterRunService,
		time.Duration(cfg.ClusterPollIntervalSeconds)*time.Second,
		cfg.ClusterSchedulerBatchSize,
	)

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	go scheduler.Start(schedulerCtx)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("Shutting down", "signal", sig.String())

	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("Job queue shutdown error", "error", err)
	}

	if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
		slog.Error("Metrics shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// buildClassifierEngines wires the sentiment and emotion engines from config.
func buildClassifierEngines(cfg *config.Config) (sentiment.Engine, emotion.Engine) {
	if cfg.HuggingFaceToken == "" {
		slog.Info("Sentiment and emotion engines disabled (HUGGINGFACE_TOKEN not set)")
		return sentiment.Disabled{}, emotion.Disabled{}
	}

	client := huggingface.NewClient(cfg.HuggingFaceToken,
		huggingface.WithTimeout(time.Duration(cfg.ModelCallTimeoutSeconds)*time.Second),
	)

	slog.Info("Classifier engines enabled",
		"sentiment_model", cfg.SentimentModel,
		"emotion_model", cfg.EmotionModel,
	)

	return sentiment.NewHFEngine(client, cfg.SentimentModel), emotion.NewHFEngine(client, cfg.EmotionModel)
}

// buildEmbeddingClient wires the embedding provider from config.
func buildEmbeddingClient(ctx context.Context, cfg *config.Config) (embeddings.Client, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		opts := []embeddings.OpenAIOption{embeddings.WithOpenAIDimensions(cfg.EmbeddingDimensions)}
		if cfg.EmbeddingModel != "" {
			opts = append(opts, embeddings.WithOpenAIModel(cfg.EmbeddingModel))
		}
		slog.Info("Embeddings enabled", "provider", "openai", "dimensions", cfg.EmbeddingDimensions)
		return embeddings.NewOpenAIClient(cfg.EmbeddingProviderAPIKey, opts...), nil
	case "google":
		opts := []embeddings.GoogleOption{embeddings.WithGoogleDimensions(cfg.EmbeddingDimensions)}
		if cfg.EmbeddingModel != "" {
			opts = append(opts, embeddings.WithGoogleModel(cfg.EmbeddingModel))
		}
		slog.Info("Embeddings enabled", "provider", "google", "dimensions", cfg.EmbeddingDimensions)
		return embeddings.NewGoogleClient(ctx, cfg.EmbeddingProviderAPIKey, opts...)
	case "mock":
		slog.Info("Embeddings enabled", "provider", "mock", "dimensions", cfg.EmbeddingDimensions)
		return embeddings.NewMockClient(cfg.EmbeddingDimensions), nil
	default:
		slog.Info("Embeddings disabled (EMBEDDING_PROVIDER not set)")
		return embeddings.Disabled{}, nil
	}
}

// initRiver initializes the River job queue client and workers
func initRiver(
	ctx context.Context,
	db *pgxpool.Pool,
	cfg *config.Config,
	feedbackRepo *repository.FeedbackRepository,
	feedbackAnalyzer *analyzer.Analyzer,
	metrics observability.AnalysisMetrics,
) (*river.Client[pgx.Tx], error) {
	var rateLimiter *rate.Limiter
	if cfg.ModelRateLimit > 0 {
		rateLimiter = rate.NewLimiter(rate.Limit(cfg.ModelRateLimit), 1)
	}

	analysisWorker := workers.NewAnalysisWorker(workers.AnalysisWorkerDeps{
		Store:       feedbackRepo,
		Analyzer:    feedbackAnalyzer,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
	})

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, analysisWorker)

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			jobs.QueueAnalysis: {MaxWorkers: cfg.AnalysisMaxConcurrent},
		},
		Workers:      riverWorkers,
		ErrorHandler: &jobs.ErrorHandler{},
		MaxAttempts:  cfg.AnalysisMaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, err
	}

	return riverClient, nil
}

// setupLogging configures slog with the specified log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := observability.NewTraceContextHandler(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(slog.New(handler))
}
