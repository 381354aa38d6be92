// package formatter renders queue state and enqueue outcomes as plain text
package formatter

import (
	"bytes"
	"fmt"

	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
)

// FormatStatus renders the annotated queue snapshot and playback state.
func FormatStatus(snapshot models.QueueSnapshot, playback models.PlaybackState) []byte {
	var buf bytes.Buffer

	if snapshot.NowPlaying != nil {
		state := "paused"
		if playback.IsPlaying {
			state = "playing"
		}
		buf.WriteString(fmt.Sprintf("Now %s: %s - %s", state, snapshot.NowPlaying.Artist, snapshot.NowPlaying.Title))
		if snapshot.NowPlaying.DurationMS > 0 {
			buf.WriteString(fmt.Sprintf(" [%s/%s]",
				shared.FormatDuration(playback.ProgressMS),
				shared.FormatDuration(snapshot.NowPlaying.DurationMS)))
		}
		buf.WriteString("\n")
		if label := provenanceLabel(*snapshot.NowPlaying); label != "" {
			buf.WriteString(fmt.Sprintf("  %s\n", label))
		}
	} else {
		buf.WriteString("Nothing playing\n")
	}

	if len(snapshot.Queue) == 0 {
		buf.WriteString("\nQueue is empty\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("\nUp next (%d):\n", len(snapshot.Queue)))
	for i, track := range snapshot.Queue {
		marker := ""
		if track.Optimistic {
			marker = " (queuing...)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Artist, track.Title, marker))
		if label := provenanceLabel(track); label != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", label))
		}
	}

	return buf.Bytes()
}

// FormatEnqueueResults renders the per-track outcome of a batch enqueue.
func FormatEnqueueResults(results []models.EnqueueResult, message string) []byte {
	var buf bytes.Buffer

	if message != "" {
		buf.WriteString(message)
		buf.WriteString("\n\n")
	}

	queued := 0
	for _, res := range results {
		if res.Success {
			queued++
		}
	}
	buf.WriteString(fmt.Sprintf("Queued %d/%d tracks\n", queued, len(results)))

	for _, res := range results {
		if res.Success && res.Matched != nil {
			buf.WriteString(fmt.Sprintf("✓ %s - %s\n", res.Matched.Artist, res.Matched.Title))
		} else if res.Success {
			buf.WriteString(fmt.Sprintf("✓ %s - %s\n", res.Request.Artist, res.Request.Title))
		} else {
			buf.WriteString(fmt.Sprintf("✗ %s - %s: %s\n", res.Request.Artist, res.Request.Title, res.Err))
		}
	}

	return buf.Bytes()
}

// provenanceLabel builds the prompt annotation line for a member track.
func provenanceLabel(track models.Track) string {
	if track.PromptSummary == "" {
		return ""
	}
	if track.AutoQueued {
		return fmt.Sprintf("auto: %s", track.PromptSummary)
	}
	return fmt.Sprintf("vibe: %s", track.PromptSummary)
}
