// package models defines the data model for the vibe-dj queue engine.
//
// All remote payloads are decoded into these tagged structs at the service
// boundary; nothing downstream touches raw JSON.
package models

// OptimisticIDPrefix marks synthetic track identifiers that exist only in the
// locally cached view and were never assigned by the playback service.
const OptimisticIDPrefix = "optimistic:"

// Track represents a catalog entry owned by the remote playback service.
//
// Optimistic tracks are locally synthesized placeholders; their ID carries
// [OptimisticIDPrefix] and GroupID ties them to the enqueue operation that
// created them.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ArtworkURL string `json:"artwork_url,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`

	Optimistic bool   `json:"optimistic,omitempty"`
	GroupID    string `json:"group_id,omitempty"`

	// Provenance annotation, attached by the poller for member tracks.
	PromptID      string `json:"prompt_id,omitempty"`
	PromptSummary string `json:"prompt_summary,omitempty"`
	AutoQueued    bool   `json:"auto_queued,omitempty"`
}

// Valid reports whether a track decoded from a remote payload has the minimum
// shape the engine relies on.
func (t Track) Valid() bool {
	return t.ID != "" && t.Title != ""
}

// QueueSnapshot is the remote queue as last observed: the currently playing
// track (nil when nothing plays) plus the ordered upcoming entries.
type QueueSnapshot struct {
	NowPlaying *Track  `json:"now_playing"`
	Queue      []Track `json:"queue"`
}

// Clone returns a deep copy so optimistic mutations never alias poller state.
func (s QueueSnapshot) Clone() QueueSnapshot {
	out := QueueSnapshot{}
	if s.NowPlaying != nil {
		np := *s.NowPlaying
		out.NowPlaying = &np
	}
	if s.Queue != nil {
		out.Queue = make([]Track, len(s.Queue))
		copy(out.Queue, s.Queue)
	}
	return out
}

// PlaybackState is the remote transport state as last observed.
type PlaybackState struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMS int    `json:"progress_ms"`
	Item       *Track `json:"item"`
}

// TrackRequest identifies a track to enqueue by metadata, before any catalog
// search has resolved it to an identifier.
type TrackRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// EnqueueResult reports the per-track outcome of a batch enqueue.
type EnqueueResult struct {
	Request TrackRequest `json:"request"`
	Success bool         `json:"success"`
	Matched *Track       `json:"matched,omitempty"`
	Err     string       `json:"error,omitempty"`
}

// Recommendation is a single suggestion from the recommendation service.
type Recommendation struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Reason string `json:"reason,omitempty"`
}

// RecommendationSet is the full response from the recommendation service.
type RecommendationSet struct {
	Recommendations []Recommendation `json:"recommendations"`
	Message         string           `json:"message,omitempty"`
	PromptSummary   string           `json:"prompt_summary,omitempty"`
}
