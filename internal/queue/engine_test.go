package queue

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
	tu "github.com/ixacik/vibe-dj/internal/testing"
)

func newTestEngine(t *testing.T, player *tu.FakePlayer, recommender *tu.FakeRecommender) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineOpts{
		Player:      player,
		Recommender: recommender,
		Config:      shared.EngineConfig{SettleDelaySecs: 1},
		Logger:      shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("NewEngine Requires A Player", func(t *testing.T) {
		_, err := NewEngine(EngineOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected service unavailable, got %v", err)
		}
	})

	t.Run("Vibe", func(t *testing.T) {
		t.Run("Queues Matches And Reports Misses", func(t *testing.T) {
			player := &tu.FakePlayer{
				SearchResults: map[string][]models.Track{
					quotedQuery("A", "X"): {{ID: "spotify1", Title: "X", Artist: "A"}},
					quotedQuery("B", "Y"): nil,
					"artist:B track:Y":    nil,
					"B Y":                 nil,
				},
			}
			recommender := &tu.FakeRecommender{
				Set: &models.RecommendationSet{
					Recommendations: []models.Recommendation{
						{Artist: "A", Title: "X"},
						{Artist: "B", Title: "Y"},
					},
					Message:       "here you go",
					PromptSummary: "late night drive",
				},
			}
			engine := newTestEngine(t, player, recommender)

			results, message, err := engine.Vibe(ctx, "something for a late night drive")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if message != "here you go" {
				t.Errorf("unexpected message %q", message)
			}
			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d", len(results))
			}
			if !results[0].Success || results[0].Matched.ID != "spotify1" {
				t.Errorf("expected first recommendation queued, got %+v", results[0])
			}
			if results[1].Success || results[1].Err != "Track not found: B - Y" {
				t.Errorf("expected second recommendation reported missing, got %+v", results[1])
			}

			entry, ok := engine.Provenance("spotify1")
			if !ok || entry.Summary != "late night drive" || entry.Auto {
				t.Errorf("expected manual provenance with prompt summary, got %+v (found=%v)", entry, ok)
			}
		})

		t.Run("Quota Errors Propagate Untouched", func(t *testing.T) {
			recommender := &tu.FakeRecommender{Err: shared.ErrQuotaExceeded}
			engine := newTestEngine(t, &tu.FakePlayer{}, recommender)

			_, _, err := engine.Vibe(ctx, "prompt")
			if !errors.Is(err, shared.ErrQuotaExceeded) {
				t.Errorf("expected quota error, got %v", err)
			}
		})

		t.Run("Empty Recommendation Set Is An Error", func(t *testing.T) {
			recommender := &tu.FakeRecommender{Set: &models.RecommendationSet{Message: "nothing matched"}}
			engine := newTestEngine(t, &tu.FakePlayer{}, recommender)

			_, message, err := engine.Vibe(ctx, "prompt")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected API request error, got %v", err)
			}
			if message != "nothing matched" {
				t.Errorf("expected service message passed through, got %q", message)
			}
		})

		t.Run("Missing Recommender", func(t *testing.T) {
			engine, err := NewEngine(EngineOpts{
				Player: &tu.FakePlayer{},
				Logger: shared.NewLogger(io.Discard),
			})
			if err != nil {
				t.Fatalf("failed to build engine: %v", err)
			}

			_, _, err = engine.Vibe(ctx, "prompt")
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected service unavailable, got %v", err)
			}
		})
	})

	t.Run("Snapshot Reflects Poll Results", func(t *testing.T) {
		player := &tu.FakePlayer{}
		engine := newTestEngine(t, player, &tu.FakeRecommender{})

		np := models.Track{ID: "np", Title: "Playing", Artist: "A"}
		player.SetNowPlaying(np)

		engine.Poller().PollPlaybackOnce(ctx)
		engine.Poller().PollQueueOnce(ctx)

		snapshot := engine.Snapshot()
		if snapshot.NowPlaying == nil || snapshot.NowPlaying.ID != "np" {
			t.Errorf("expected now playing np, got %+v", snapshot.NowPlaying)
		}
		if !engine.Playback().IsPlaying {
			t.Error("expected playback reported as playing")
		}
	})
}
