package emotion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbacklens/analyzer/internal/huggingface"
)

func TestDetect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[[
			{"label":"anger","score":0.65},
			{"label":"sadness","score":0.2},
			{"label":"neutral","score":0.1}
		]]`))
	}))
	defer server.Close()

	client := huggingface.NewClient("", huggingface.WithBaseURL(server.URL))
	engine := NewHFEngine(client, "test/emotion-model")

	result, err := engine.Detect(context.Background(), "this makes me so angry")
	require.NoError(t, err)

	assert.Equal(t, "anger", result.Dominant)
	assert.InDelta(t, 0.65, result.Scores["anger"], 1e-9)
	assert.InDelta(t, 0.2, result.Scores["sadness"], 1e-9)
}

func TestDetect_failureReturnsDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := huggingface.NewClient("", huggingface.WithBaseURL(server.URL))
	engine := NewHFEngine(client, "test/emotion-model")

	result, err := engine.Detect(context.Background(), "anything")
	assert.Error(t, err)
	assert.Equal(t, Default(), result)
}

func TestDisabled(t *testing.T) {
	result, err := Disabled{}.Detect(context.Background(), "anything")
	require.NoError(t, err)

	assert.Equal(t, "neutral", result.Dominant)
	assert.Empty(t, result.Scores)
}
