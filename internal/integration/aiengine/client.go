// Package aiengine talks to the external review-generation service over
// HTTP. The core treats it as a fallible remote collaborator: every
// transport or parse failure comes back as a plain error for the service
// layer to classify.
package aiengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"qr_review_backend/internal/models"
)

// Client is an HTTP client for the review generator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a generator client. A zero timeout falls back to 30s;
// the per-request context still bounds individual calls.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// generateResponse accepts every field name the generator has ever used
// for the review text.
type generateResponse struct {
	Review          string `json:"review"`
	Text            string `json:"text"`
	GeneratedReview string `json:"generated_review"`
}

func (r *generateResponse) text() string {
	if r.Review != "" {
		return r.Review
	}
	if r.Text != "" {
		return r.Text
	}
	return r.GeneratedReview
}

// GenerateReview posts the merged prompt and returns the generated text.
func (c *Client) GenerateReview(ctx context.Context, prompt models.ReviewPrompt) (string, error) {
	body, err := json.Marshal(prompt)
	if err != nil {
		return "", fmt.Errorf("marshaling generation prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-review", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling review generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("review generator returned status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding generator response: %w", err)
	}
	return parsed.text(), nil
}
