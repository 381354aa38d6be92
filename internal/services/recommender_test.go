package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
)

func newTestRecommender(t *testing.T, handler http.HandlerFunc) *RecommenderClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRecommenderClient(server.URL, "test_key", "test_model", nil)
}

func TestRecommenderClient(t *testing.T) {
	ctx := context.Background()

	t.Run("GetRecommendations", func(t *testing.T) {
		var gotBody recommendationRequest
		client := newTestRecommender(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/recommendations" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test_key" {
				t.Errorf("unexpected auth header %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"recommendations": [{"artist": "A", "title": "X", "reason": "fits"}],
				"message": "enjoy",
				"prompt_summary": "late night drive"
			}`))
		})

		recent := []models.Track{{ID: "r1", Title: "Recent", Artist: "B"}}
		set, err := client.GetRecommendations(ctx, "late night drive", nil, recent, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotBody.Prompt != "late night drive" || gotBody.Model != "test_model" {
			t.Errorf("unexpected request body %+v", gotBody)
		}
		if len(gotBody.RecentTracks) != 1 || gotBody.RecentTracks[0].ID != "r1" {
			t.Errorf("expected recent tracks forwarded, got %+v", gotBody.RecentTracks)
		}

		if len(set.Recommendations) != 1 || set.Recommendations[0].Artist != "A" {
			t.Errorf("unexpected recommendations %+v", set.Recommendations)
		}
		if set.PromptSummary != "late night drive" || set.Message != "enjoy" {
			t.Errorf("unexpected set %+v", set)
		}
	})

	t.Run("Empty Prompt Is Rejected", func(t *testing.T) {
		client := NewRecommenderClient("http://localhost:0", "", "", nil)
		_, err := client.GetRecommendations(ctx, "", nil, nil, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		status := func(code int) *RecommenderClient {
			return newTestRecommender(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			})
		}

		t.Run("401 Maps To Credential Expired", func(t *testing.T) {
			_, err := status(http.StatusUnauthorized).GetRecommendations(ctx, "p", nil, nil, nil)
			if !errors.Is(err, shared.ErrCredentialExpired) {
				t.Errorf("expected credential expired, got %v", err)
			}
		})

		t.Run("402 Maps To Quota Exceeded", func(t *testing.T) {
			_, err := status(http.StatusPaymentRequired).GetRecommendations(ctx, "p", nil, nil, nil)
			if !errors.Is(err, shared.ErrQuotaExceeded) {
				t.Errorf("expected quota exceeded, got %v", err)
			}
		})

		t.Run("429 Maps To Quota Exceeded", func(t *testing.T) {
			_, err := status(http.StatusTooManyRequests).GetRecommendations(ctx, "p", nil, nil, nil)
			if !errors.Is(err, shared.ErrQuotaExceeded) {
				t.Errorf("expected quota exceeded, got %v", err)
			}
		})

		t.Run("403 Maps To Tier Required", func(t *testing.T) {
			_, err := status(http.StatusForbidden).GetRecommendations(ctx, "p", nil, nil, nil)
			if !errors.Is(err, shared.ErrTierRequired) {
				t.Errorf("expected tier required, got %v", err)
			}
		})

		t.Run("500 Maps To API Request", func(t *testing.T) {
			_, err := status(http.StatusInternalServerError).GetRecommendations(ctx, "p", nil, nil, nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected API request error, got %v", err)
			}
		})
	})
}
