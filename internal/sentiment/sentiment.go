// Package sentiment classifies feedback text into positive/negative/neutral
// with a continuous polarity score. The model-backed engine degrades to a
// neutral default on any failure; enrichment never fails on sentiment.
package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/feedbacklens/analyzer/internal/huggingface"
)

// maxInputChars bounds model input; longer feedback is truncated before inference.
const maxInputChars = 512

// Result is a sentiment classification outcome.
type Result struct {
	Label    string             // positive, negative or neutral
	Score    float64            // confidence of Label in [0, 1]
	Compound float64            // positive minus negative, in [-1, 1]
	Scores   map[string]float64 // per-label probabilities
}

// Default is the documented fallback when the engine is unavailable or fails.
func Default() Result {
	return Result{Label: "neutral", Score: 0.5, Compound: 0}
}

// Engine classifies text sentiment.
type Engine interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// HFEngine is the model-backed engine using a Hugging Face classification model.
type HFEngine struct {
	client *huggingface.Client
	model  string
}

var _ Engine = (*HFEngine)(nil)

// NewHFEngine creates a sentiment engine backed by the given model
// (e.g. cardiffnlp/twitter-roberta-base-sentiment-latest).
func NewHFEngine(client *huggingface.Client, model string) *HFEngine {
	return &HFEngine{client: client, model: model}
}

// labelAliases maps positional model labels to sentiment names; RoBERTa
// sentiment checkpoints ship either naming depending on version.
var labelAliases = map[string]string{
	"label_0": "negative",
	"label_1": "neutral",
	"label_2": "positive",
}

// Classify runs sentiment inference, truncating input to the model maximum.
func (e *HFEngine) Classify(ctx context.Context, text string) (Result, error) {
	scores, err := e.client.Classify(ctx, e.model, truncate(text))
	if err != nil {
		return Default(), fmt.Errorf("sentiment: %w", err)
	}

	result := Result{Scores: make(map[string]float64, len(scores))}
	for _, s := range scores {
		label := strings.ToLower(s.Label)
		if alias, ok := labelAliases[label]; ok {
			label = alias
		}

		result.Scores[label] = s.Score
		if s.Score > result.Score {
			result.Score = s.Score
			result.Label = label
		}
	}

	if result.Label == "" {
		return Default(), fmt.Errorf("sentiment: %w", huggingface.ErrEmptyResponse)
	}

	result.Compound = result.Scores["positive"] - result.Scores["negative"]

	return result, nil
}

// Disabled is the degraded engine used when no model is configured. It always
// returns the neutral default and never errors.
type Disabled struct{}

var _ Engine = Disabled{}

// Classify returns the neutral default.
func (Disabled) Classify(context.Context, string) (Result, error) {
	return Default(), nil
}

func truncate(text string) string {
	if len(text) <= maxInputChars {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxInputChars {
		return text
	}

	return string(runes[:maxInputChars])
}
