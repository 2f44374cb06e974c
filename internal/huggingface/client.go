// Package huggingface provides a thin wrapper around the Hugging Face
// inference API for text-classification models.
package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBaseURL is the hosted inference API endpoint.
const DefaultBaseURL = "https://api-inference.huggingface.co"

const (
	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 2
	maxErrorBody    = 512
)

var (
	// ErrEmptyInput is returned when Classify is called with empty input.
	ErrEmptyInput = errors.New("huggingface: input text is empty")
	// ErrEmptyResponse is returned when the API returns no classification rows.
	ErrEmptyResponse = errors.New("huggingface: no classification in response")
)

// LabelScore is a single classification output.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Client calls Hugging Face hosted text-classification models.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	token   string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (e.g. a dedicated inference endpoint).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = timeout
	}
}

// NewClient creates a Hugging Face inference client. The token may be empty
// for public models, but hosted inference will rate limit aggressively.
func NewClient(token string, opts ...ClientOption) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = defaultRetryMax
	httpClient.HTTPClient.Timeout = defaultTimeout
	httpClient.Logger = nil

	client := &Client{
		http:    httpClient,
		baseURL: DefaultBaseURL,
		token:   token,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

type classifyRequest struct {
	Inputs string `json:"inputs"`
}

// Classify runs the given text through a hosted text-classification model and
// returns all label scores for the first (only) input.
func (c *Client) Classify(ctx context.Context, model, text string) ([]LabelScore, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	body, err := json.Marshal(classifyRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + model

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("huggingface: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface: %s: %w", model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("huggingface: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}

		return nil, fmt.Errorf("huggingface: %s: status %d: %s", model, resp.StatusCode, snippet)
	}

	return decodeScores(raw)
}

// decodeScores handles both response shapes the API produces: a nested
// [[{label, score}]] for single inputs with top_k, and a flat [{label, score}].
func decodeScores(raw []byte) ([]LabelScore, error) {
	var nested [][]LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 || len(nested[0]) == 0 {
			return nil, ErrEmptyResponse
		}

		return nested[0], nil
	}

	var flat []LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("huggingface: decode response: %w", err)
	}

	if len(flat) == 0 {
		return nil, ErrEmptyResponse
	}

	return flat, nil
}
