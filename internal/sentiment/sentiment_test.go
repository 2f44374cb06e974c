package sentiment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbacklens/analyzer/internal/huggingface"
)

func newTestEngine(t *testing.T, handler http.HandlerFunc) *HFEngine {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := huggingface.NewClient("", huggingface.WithBaseURL(server.URL))

	return NewHFEngine(client, "test/sentiment-model")
}

func TestClassify(t *testing.T) {
	engine := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[[
			{"label":"negative","score":0.7},
			{"label":"neutral","score":0.2},
			{"label":"positive","score":0.1}
		]]`))
	})

	result, err := engine.Classify(context.Background(), "this is terrible")
	require.NoError(t, err)

	assert.Equal(t, "negative", result.Label)
	assert.InDelta(t, 0.7, result.Score, 1e-9)
	assert.InDelta(t, -0.6, result.Compound, 1e-9, "compound is positive minus negative")
	assert.InDelta(t, 0.2, result.Scores["neutral"], 1e-9)
}

func TestClassify_positionalLabels(t *testing.T) {
	engine := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[[
			{"label":"LABEL_0","score":0.1},
			{"label":"LABEL_1","score":0.2},
			{"label":"LABEL_2","score":0.7}
		]]`))
	})

	result, err := engine.Classify(context.Background(), "love it")
	require.NoError(t, err)

	assert.Equal(t, "positive", result.Label)
	assert.InDelta(t, 0.6, result.Compound, 1e-9)
}

func TestClassify_truncatesInput(t *testing.T) {
	engine := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, 4096)
		n, _ := r.Body.Read(body)
		assert.Less(t, n, 1024, "long input should be truncated before inference")

		_, _ = w.Write([]byte(`[[{"label":"neutral","score":0.9}]]`))
	})

	_, err := engine.Classify(context.Background(), strings.Repeat("a", 5000))
	require.NoError(t, err)
}

func TestClassify_failureReturnsDefault(t *testing.T) {
	engine := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	result, err := engine.Classify(context.Background(), "anything")
	assert.Error(t, err)
	assert.Equal(t, Default(), result, "failures fall back to the neutral default")
}

func TestDisabled(t *testing.T) {
	result, err := Disabled{}.Classify(context.Background(), "anything")
	require.NoError(t, err)

	assert.Equal(t, "neutral", result.Label)
	assert.InDelta(t, 0.5, result.Score, 1e-9)
	assert.InDelta(t, 0, result.Compound, 1e-9)
}
