package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbacklens/analyzer/internal/embeddings"
	"github.com/feedbacklens/analyzer/internal/emotion"
	"github.com/feedbacklens/analyzer/internal/sentiment"
	"github.com/feedbacklens/analyzer/internal/textfeatures"
)

var errModelDown = errors.New("model down")

type stubSentiment struct {
	result sentiment.Result
	err    error
}

func (s stubSentiment) Classify(context.Context, string) (sentiment.Result, error) {
	if s.err != nil {
		return sentiment.Default(), s.err
	}
	return s.result, nil
}

type stubEmotion struct {
	result emotion.Result
	err    error
}

func (s stubEmotion) Detect(context.Context, string) (emotion.Result, error) {
	if s.err != nil {
		return emotion.Default(), s.err
	}
	return s.result, nil
}

type stubEmbeddings struct {
	vector []float32
	err    error
}

func (s stubEmbeddings) CreateEmbedding(context.Context, string) ([]float32, error) {
	return s.vector, s.err
}

func newAnalyzer(s sentiment.Engine, e emotion.Engine, emb embeddings.Client) *Analyzer {
	return New(Params{
		Sentiment:  s,
		Emotion:    e,
		Embeddings: emb,
		Thresholds: textfeatures.UrgencyThresholds{High: 7, Medium: 4},
	})
}

func TestAnalyze(t *testing.T) {
	a := newAnalyzer(
		stubSentiment{result: sentiment.Result{Label: "negative", Score: 0.8, Compound: -0.7}},
		stubEmotion{result: emotion.Result{Dominant: "anger", Scores: map[string]float64{"anger": 0.8}}},
		stubEmbeddings{vector: []float32{0.1, 0.2}},
	)

	result, embedding := a.Analyze(context.Background(), "The export is broken and I am stuck!")

	assert.Equal(t, "negative", result.Sentiment)
	assert.InDelta(t, -0.7, result.SentimentScore, 1e-9)
	assert.Equal(t, "anger", result.Emotion)
	assert.True(t, result.IsBugReport)
	// critical bucket ("broken") +3, negative +1, one exclamation +1: 5+3+1+1 = 10
	assert.Equal(t, 10, result.UrgencyScore)
	assert.Equal(t, "critical", result.UrgencyLevel)
	assert.Equal(t, []float32{0.1, 0.2}, embedding)
	assert.Contains(t, result.Keywords, "export")

	// priority: 40*(10/10) + 30*0.7 + 20 (bug) = 81
	assert.InDelta(t, 81, result.PriorityScore, 1e-9)
}

func TestAnalyze_partialFailureIsolation(t *testing.T) {
	a := newAnalyzer(
		stubSentiment{err: errModelDown},
		stubEmotion{err: errModelDown},
		stubEmbeddings{err: errModelDown},
	)

	result, embedding := a.Analyze(context.Background(), "please add csv export")

	// Engines degrade; text features still compute.
	assert.Equal(t, "neutral", result.Sentiment)
	assert.InDelta(t, 0, result.SentimentScore, 1e-9)
	assert.Equal(t, "neutral", result.Emotion)
	assert.Empty(t, embedding)
	assert.True(t, result.IsFeatureRequest)
	assert.Contains(t, result.Keywords, "csv")
	assert.Greater(t, result.PriorityScore, 0.0)
}

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		name           string
		sentimentScore float64
		urgencyScore   int
		isFeature      bool
		isBug          bool
		want           float64
	}{
		{name: "urgency only", sentimentScore: 0.5, urgencyScore: 5, want: 20},
		{name: "negative sentiment adds weight", sentimentScore: -0.5, urgencyScore: 5, want: 35},
		{name: "positive sentiment adds nothing", sentimentScore: 0.9, urgencyScore: 5, want: 20},
		{name: "bug report", sentimentScore: 0, urgencyScore: 5, isBug: true, want: 40},
		{name: "feature request", sentimentScore: 0, urgencyScore: 5, isFeature: true, want: 30},
		{name: "all maxed clamps to 100", sentimentScore: -1, urgencyScore: 10, isFeature: true, isBug: true, want: 100},
		{name: "floor", sentimentScore: 0, urgencyScore: 1, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriorityScore(tt.sentimentScore, tt.urgencyScore, tt.isFeature, tt.isBug)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestPriorityScore_boundary(t *testing.T) {
	// All flags + max urgency + sentiment -1: 40 + 30 + 20 + 10 = 100 exactly.
	got := PriorityScore(-1, 10, true, true)
	require.InDelta(t, 100, got, 1e-9)
}
