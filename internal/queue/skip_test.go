package queue

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
	tu "github.com/ixacik/vibe-dj/internal/testing"
	"golang.org/x/time/rate"
)

func newTestSkipper(player *tu.FakePlayer) (*SkipOrchestrator, *CachedView, *Poller) {
	logger := shared.NewLogger(io.Discard)
	view := NewCachedView()
	membership := NewMembershipTracker(0, nil, logger)
	provenance := NewProvenanceStore(nil, logger)
	poller := NewPoller(player, view, membership, provenance, PollerIntervals{}, logger)
	skipper := NewSkipOrchestrator(player, view, poller, rate.NewLimiter(rate.Inf, 1), logger)
	return skipper, view, poller
}

func TestSkipOrchestrator(t *testing.T) {
	ctx := context.Background()

	queued := []models.Track{
		{ID: "t1", Title: "First", Artist: "A"},
		{ID: "t2", Title: "Second", Artist: "B"},
		{ID: "t3", Title: "Third", Artist: "C"},
	}

	t.Run("Skips Forward To Target Position", func(t *testing.T) {
		np := models.Track{ID: "np", Title: "Playing"}
		player := &tu.FakePlayer{Queue: models.QueueSnapshot{NowPlaying: &np, Queue: queued}}
		skipper, view, poller := newTestSkipper(player)

		skipped, err := skipper.SkipTo(ctx, "t3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if skipped != "t3" {
			t.Errorf("expected t3, got %s", skipped)
		}

		// Target at index 2 requires three skip-forward calls.
		if player.SkipNextCalls != 3 {
			t.Errorf("expected 3 skip calls, got %d", player.SkipNextCalls)
		}

		if current := view.NowPlaying(); current == nil || current.ID != "t3" {
			t.Errorf("expected view promoted to t3, got %+v", current)
		}
		if poller.Suspended() {
			t.Error("expected polling resumed after skip")
		}
	})

	t.Run("Target Not In Queue", func(t *testing.T) {
		player := &tu.FakePlayer{Queue: models.QueueSnapshot{Queue: queued}}
		skipper, _, poller := newTestSkipper(player)

		_, err := skipper.SkipTo(ctx, "missing")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected track not found, got %v", err)
		}
		if player.SkipNextCalls != 0 {
			t.Errorf("expected no skip calls, got %d", player.SkipNextCalls)
		}
		if poller.Suspended() {
			t.Error("expected polling resumed after failed skip")
		}
	})

	t.Run("Mid Sequence Failure Rolls Back The View", func(t *testing.T) {
		np := models.Track{ID: "np", Title: "Playing"}
		player := &tu.FakePlayer{Queue: models.QueueSnapshot{NowPlaying: &np, Queue: queued}}
		skipper, view, _ := newTestSkipper(player)

		view.ReplaceQueue(models.QueueSnapshot{NowPlaying: &np, Queue: queued})

		calls := 0
		player.SkipNextFn = func() error {
			calls++
			if calls == 2 {
				return errors.New("device gone")
			}
			return nil
		}

		_, err := skipper.SkipTo(ctx, "t3")
		if err == nil {
			t.Fatal("expected skip error")
		}

		if current := view.NowPlaying(); current == nil || current.ID != "np" {
			t.Errorf("expected view rolled back to np, got %+v", current)
		}
		if len(view.Snapshot().Queue) != 3 {
			t.Errorf("expected queue restored, got %+v", view.Snapshot().Queue)
		}
	})
}
