// Package emotion detects the dominant emotion in feedback text along with a
// distribution over the model's emotion vocabulary. The engine is optional:
// when unavailable it degrades to a neutral result with empty scores.
package emotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/feedbacklens/analyzer/internal/huggingface"
)

// maxInputChars bounds model input; longer feedback is truncated before inference.
const maxInputChars = 512

// Result is an emotion detection outcome. Scores is multi-label and need not
// sum to 1.
type Result struct {
	Dominant string
	Scores   map[string]float64
}

// Default is the documented fallback when the engine is unavailable or fails.
func Default() Result {
	return Result{Dominant: "neutral", Scores: map[string]float64{}}
}

// Engine detects emotions in text.
type Engine interface {
	Detect(ctx context.Context, text string) (Result, error)
}

// HFEngine is the model-backed engine using a Hugging Face classification
// model (e.g. j-hartmann/emotion-english-distilroberta-base).
type HFEngine struct {
	client *huggingface.Client
	model  string
}

var _ Engine = (*HFEngine)(nil)

// NewHFEngine creates an emotion engine backed by the given model.
func NewHFEngine(client *huggingface.Client, model string) *HFEngine {
	return &HFEngine{client: client, model: model}
}

// Detect runs emotion inference, truncating input to the model maximum.
func (e *HFEngine) Detect(ctx context.Context, text string) (Result, error) {
	scores, err := e.client.Classify(ctx, e.model, truncate(text))
	if err != nil {
		return Default(), fmt.Errorf("emotion: %w", err)
	}

	result := Result{Scores: make(map[string]float64, len(scores))}

	best := -1.0
	for _, s := range scores {
		label := strings.ToLower(s.Label)
		result.Scores[label] = s.Score

		if s.Score > best {
			best = s.Score
			result.Dominant = label
		}
	}

	if result.Dominant == "" {
		return Default(), fmt.Errorf("emotion: %w", huggingface.ErrEmptyResponse)
	}

	return result, nil
}

// Disabled is the degraded engine used when no model is configured.
type Disabled struct{}

var _ Engine = Disabled{}

// Detect returns the neutral default.
func (Disabled) Detect(context.Context, string) (Result, error) {
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
