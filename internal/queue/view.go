package queue

import (
	"sync"

	"github.com/ixacik/vibe-dj/internal/models"
)

// CachedView holds the locally cached playback snapshot: the authoritative
// filtered queue published by the poller plus the optimistic placeholders
// spliced on by in-flight enqueue operations.
//
// The poller replaces the base wholesale; placeholders live beside it and are
// overlaid at read time, so a poll cycle firing mid-enqueue can never discard
// another operation's placeholders.
type CachedView struct {
	mu           sync.RWMutex
	base         models.QueueSnapshot
	placeholders []models.Track
	playback     models.PlaybackState
}

// ViewCapture is a point-in-time copy of the view used for rollback.
type ViewCapture struct {
	base     models.QueueSnapshot
	playback models.PlaybackState
}

// NewCachedView creates an empty view.
func NewCachedView() *CachedView {
	return &CachedView{}
}

// ReplaceQueue installs a fresh authoritative queue snapshot.
// Placeholders are untouched; they belong to their owning operations.
func (v *CachedView) ReplaceQueue(s models.QueueSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.base = s.Clone()
}

// ReplacePlayback installs a fresh playback state.
func (v *CachedView) ReplacePlayback(p models.PlaybackState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playback = p
}

// Snapshot returns the merged view: the authoritative queue with optimistic
// placeholders appended, in insertion order.
func (v *CachedView) Snapshot() models.QueueSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := v.base.Clone()
	out.Queue = append(out.Queue, v.placeholders...)
	return out
}

// Playback returns the last-known playback state.
func (v *CachedView) Playback() models.PlaybackState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.playback
}

// NowPlaying returns the currently playing track from the cached queue
// snapshot, or nil.
func (v *CachedView) NowPlaying() *models.Track {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.base.NowPlaying == nil {
		return nil
	}
	np := *v.base.NowPlaying
	return &np
}

// AppendPlaceholders splices optimistic placeholders onto the end of the view.
func (v *CachedView) AppendPlaceholders(tracks []models.Track) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placeholders = append(v.placeholders, tracks...)
}

// RemoveGroup strips every placeholder carrying the given group id.
func (v *CachedView) RemoveGroup(groupID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	kept := v.placeholders[:0]
	for _, t := range v.placeholders {
		if t.GroupID != groupID {
			kept = append(kept, t)
		}
	}
	v.placeholders = kept
}

// PlaceholderCount reports how many placeholders of the group are present.
func (v *CachedView) PlaceholderCount(groupID string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n := 0
	for _, t := range v.placeholders {
		if t.GroupID == groupID {
			n++
		}
	}
	return n
}

// Capture copies the authoritative portion of the view for later rollback.
// Placeholders are excluded: concurrent operations own theirs.
func (v *CachedView) Capture() ViewCapture {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ViewCapture{base: v.base.Clone(), playback: v.playback}
}

// Restore rolls the authoritative portion back to a capture. Last write wins;
// a poll completing afterwards supersedes it.
func (v *CachedView) Restore(c ViewCapture) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.base = c.base.Clone()
	v.playback = c.playback
}

// PromoteToNowPlaying optimistically makes the target the currently playing
// track and removes it from the cached queue list. Used by the skip
// orchestrator so consumers see the jump immediately.
func (v *CachedView) PromoteToNowPlaying(target models.Track) {
	v.mu.Lock()
	defer v.mu.Unlock()

	np := target
	v.base.NowPlaying = &np
	kept := v.base.Queue[:0]
	for _, t := range v.base.Queue {
		if t.ID != target.ID {
			kept = append(kept, t)
		}
	}
	v.base.Queue = kept
	v.playback.Item = &np
}
