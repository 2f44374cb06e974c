// Package analyzer combines the text features and model engines into one
// enrichment record per feedback item.
package analyzer

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/feedbacklens/analyzer/internal/embeddings"
	"github.com/feedbacklens/analyzer/internal/emotion"
	"github.com/feedbacklens/analyzer/internal/models"
	"github.com/feedbacklens/analyzer/internal/sentiment"
	"github.com/feedbacklens/analyzer/internal/textfeatures"
)

const defaultModelTimeout = 30 * time.Second

// Analyzer orchestrates enrichment. Engines are injected at construction and
// shared process-wide; the analyzer itself is stateless and safe for
// concurrent use.
type Analyzer struct {
	sentiment    sentiment.Engine
	emotion      emotion.Engine
	embeddings   embeddings.Client
	thresholds   textfeatures.UrgencyThresholds
	keywordCount int
	modelTimeout time.Duration
	logger       *slog.Logger
}

// Params configures the Analyzer. Logger may be nil (slog default).
type Params struct {
	Sentiment    sentiment.Engine
	Emotion      emotion.Engine
	Embeddings   embeddings.Client
	Thresholds   textfeatures.UrgencyThresholds
	KeywordCount int
	ModelTimeout time.Duration
	Logger       *slog.Logger
}

// New creates an Analyzer.
func New(p Params) *Analyzer {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	keywordCount := p.KeywordCount
	if keywordCount <= 0 {
		keywordCount = textfeatures.DefaultKeywordCount
	}

	modelTimeout := p.ModelTimeout
	if modelTimeout <= 0 {
		modelTimeout = defaultModelTimeout
	}

	return &Analyzer{
		sentiment:    p.Sentiment,
		emotion:      p.Emotion,
		embeddings:   p.Embeddings,
		thresholds:   p.Thresholds,
		keywordCount: keywordCount,
		modelTimeout: modelTimeout,
		logger:       logger,
	}
}

// Analyze enriches one feedback text. It never fails for well-formed
// non-empty input: each engine degrades to its documented default
// independently, so a sentiment outage does not cost the keywords and a
// missing embedding provider does not cost the sentiment.
func (a *Analyzer) Analyze(ctx context.Context, text string) (models.EnrichmentResult, []float32) {
	sentimentResult := a.classifySentiment(ctx, text)
	emotionResult := a.detectEmotion(ctx, text)
	embedding := a.createEmbedding(ctx, text)

	negative := sentimentResult.Label == models.SentimentNegative
	urgencyScore, urgencyLevel := textfeatures.CalculateUrgency(text, negative, a.thresholds)

	isFeature := textfeatures.IsFeatureRequest(text)
	isBug := textfeatures.IsBugReport(text)

	result := models.EnrichmentResult{
		Sentiment:          sentimentResult.Label,
		SentimentScore:     sentimentResult.Compound,
		Emotion:            emotionResult.Dominant,
		EmotionScores:      emotionResult.Scores,
		UrgencyScore:       urgencyScore,
		UrgencyLevel:       urgencyLevel,
		Keywords:           textfeatures.ExtractKeywords(text, a.keywordCount),
		IsFeatureRequest:   isFeature,
		IsBugReport:        isBug,
		CompetitorMentions: textfeatures.DetectCompetitors(text),
		PriorityScore:      PriorityScore(sentimentResult.Compound, urgencyScore, isFeature, isBug),
	}

	return result, embedding
}

// PriorityScore combines urgency, negative sentiment and intent flags into a
// 0-100 ranking value: urgency contributes up to 40, negative polarity up to
// 30, a bug report 20 and a feature request 10, clamped at 100.
func PriorityScore(sentimentScore float64, urgencyScore int, isFeatureRequest, isBugReport bool) float64 {
	priority := (float64(urgencyScore) / 10) * 40

	if sentimentScore < 0 {
		priority += math.Abs(sentimentScore) * 30
	}

	if isBugReport {
		priority += 20
	}

	if isFeatureRequest {
		priority += 10
	}

	return math.Min(100, priority)
}

func (a *Analyzer) classifySentiment(ctx context.Context, text string) sentiment.Result {
	ctx, cancel := context.WithTimeout(ctx, a.modelTimeout)
	defer cancel()

	result, err := a.sentiment.Classify(ctx, text)
	if err != nil {
		a.logger.Warn("sentiment engine degraded to default", "error", err)

		return sentiment.Default()
	}

	return result
}

func (a *Analyzer) detectEmotion(ctx context.Context, text string) emotion.Result {
	ctx, cancel := context.WithTimeout(ctx, a.modelTimeout)
	defer cancel()

	result, err := a.emotion.Detect(ctx, text)
	if err != nil {
		a.logger.Warn("emotion engine degraded to default", "error", err)

		return emotion.Default()
	}

	return result
}

func (a *Analyzer) createEmbedding(ctx context.Context, text string) []float32 {
	ctx, cancel := context.WithTimeout(ctx, a.modelTimeout)
	defer cancel()

	embedding, err := a.embeddings.CreateEmbedding(ctx, text)
	if err != nil {
		a.logger.Warn("embedding engine degraded to empty vector", "error", err)

		return nil
	}

	return embedding
}
