package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_nestedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/some/model", r.URL.Path)
		assert.Equal(t, "Bearer hf-test", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "great product", req["inputs"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"label":"positive","score":0.9},{"label":"negative","score":0.05}]]`))
	}))
	defer server.Close()

	client := NewClient("hf-test", WithBaseURL(server.URL))

	scores, err := client.Classify(context.Background(), "some/model", "great product")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "positive", scores[0].Label)
	assert.InDelta(t, 0.9, scores[0].Score, 1e-9)
}

func TestClassify_flatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"joy","score":0.7}]`))
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	scores, err := client.Classify(context.Background(), "m", "happy text")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "joy", scores[0].Label)
}

func TestClassify_emptyInput(t *testing.T) {
	client := NewClient("")

	_, err := client.Classify(context.Background(), "m", "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClassify_serverError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid input"}`))
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	_, err := client.Classify(context.Background(), "m", "text")
	assert.Error(t, err)
}
