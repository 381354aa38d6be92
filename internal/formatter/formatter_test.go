package formatter

import (
	"strings"
	"testing"

	"github.com/ixacik/vibe-dj/internal/models"
)

func TestFormatStatus(t *testing.T) {
	t.Run("Playing With Queue", func(t *testing.T) {
		np := models.Track{ID: "np", Title: "Song", Artist: "Artist", DurationMS: 201000, PromptSummary: "late night drive"}
		snapshot := models.QueueSnapshot{
			NowPlaying: &np,
			Queue: []models.Track{
				{ID: "t1", Title: "Next", Artist: "B"},
				{ID: "optimistic:x", Title: "Pending", Artist: "C", Optimistic: true, PromptSummary: "more", AutoQueued: true},
			},
		}
		playback := models.PlaybackState{IsPlaying: true, ProgressMS: 61000, Item: &np}

		out := string(FormatStatus(snapshot, playback))

		if !strings.Contains(out, "Now playing: Artist - Song") {
			t.Errorf("expected now playing line, got:\n%s", out)
		}
		if !strings.Contains(out, "[1:01/3:21]") {
			t.Errorf("expected progress timestamps, got:\n%s", out)
		}
		if !strings.Contains(out, "vibe: late night drive") {
			t.Errorf("expected prompt annotation, got:\n%s", out)
		}
		if !strings.Contains(out, "Up next (2):") {
			t.Errorf("expected queue header, got:\n%s", out)
		}
		if !strings.Contains(out, "2. C - Pending (queuing...)") {
			t.Errorf("expected optimistic marker, got:\n%s", out)
		}
		if !strings.Contains(out, "auto: more") {
			t.Errorf("expected auto annotation, got:\n%s", out)
		}
	})

	t.Run("Paused", func(t *testing.T) {
		np := models.Track{ID: "np", Title: "Song", Artist: "Artist"}
		out := string(FormatStatus(models.QueueSnapshot{NowPlaying: &np}, models.PlaybackState{}))

		if !strings.Contains(out, "Now paused: Artist - Song") {
			t.Errorf("expected paused line, got:\n%s", out)
		}
	})

	t.Run("Nothing Playing", func(t *testing.T) {
		out := string(FormatStatus(models.QueueSnapshot{}, models.PlaybackState{}))

		if !strings.Contains(out, "Nothing playing") {
			t.Errorf("expected empty state, got:\n%s", out)
		}
		if !strings.Contains(out, "Queue is empty") {
			t.Errorf("expected empty queue line, got:\n%s", out)
		}
	})
}

func TestFormatEnqueueResults(t *testing.T) {
	results := []models.EnqueueResult{
		{
			Request: models.TrackRequest{Artist: "A", Title: "X"},
			Success: true,
			Matched: &models.Track{ID: "t1", Title: "X", Artist: "A"},
		},
		{
			Request: models.TrackRequest{Artist: "B", Title: "Y"},
			Err:     "Track not found: B - Y",
		},
	}

	out := string(FormatEnqueueResults(results, "here you go"))

	if !strings.Contains(out, "here you go") {
		t.Errorf("expected service message, got:\n%s", out)
	}
	if !strings.Contains(out, "Queued 1/2 tracks") {
		t.Errorf("expected summary line, got:\n%s", out)
	}
	if !strings.Contains(out, "✓ A - X") {
		t.Errorf("expected success line, got:\n%s", out)
	}
	if !strings.Contains(out, "✗ B - Y: Track not found: B - Y") {
		t.Errorf("expected failure line, got:\n%s", out)
	}
}
