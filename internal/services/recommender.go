// HTTP client for the recommendation (LLM) service.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
)

// RecommenderClient implements [Recommender] against the vibe-dj
// recommendation API.
//
// Quota and tier failures are mapped to sentinel errors and propagate to the
// caller untouched; the queue engine never handles them.
type RecommenderClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewRecommenderClient creates a recommendation service client.
func NewRecommenderClient(baseURL, apiKey, model string, client *http.Client) *RecommenderClient {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &RecommenderClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: client,
	}
}

type recommendationRequest struct {
	Prompt        string         `json:"prompt"`
	History       []string       `json:"conversation_history,omitempty"`
	RecentTracks  []models.Track `json:"recent_tracks,omitempty"`
	ContextTracks []models.Track `json:"context_tracks,omitempty"`
	Model         string         `json:"model,omitempty"`
}

// GetRecommendations asks the service for tracks matching the prompt.
func (r *RecommenderClient) GetRecommendations(ctx context.Context, prompt string, history []string, recent, contextTracks []models.Track) (*models.RecommendationSet, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(recommendationRequest{
		Prompt:        prompt,
		History:       history,
		RecentTracks:  recent,
		ContextTracks: contextTracks,
		Model:         r.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/recommendations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, shared.ErrCredentialExpired
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return nil, shared.ErrQuotaExceeded
	case http.StatusForbidden:
		return nil, shared.ErrTierRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: recommender status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var set models.RecommendationSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &set, nil
}
