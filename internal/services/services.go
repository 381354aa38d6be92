// package services defines interfaces for the external collaborators of the
// queue engine: the remote playback service and the recommendation service.
package services

import (
	"context"

	"github.com/ixacik/vibe-dj/internal/models"
)

// Player defines the contract the engine needs from a remote playback
// service: read the live queue and transport state, and issue the primitive
// mutations (skip one, enqueue by identifier, search by metadata).
//
// Implementations map a credential-expired signal from the service to
// [shared.ErrCredentialExpired] so the poller can halt instead of retrying.
type Player interface {
	// GetQueue retrieves the authoritative queue and currently playing track.
	GetQueue(ctx context.Context) (*models.QueueSnapshot, error)

	// GetPlaybackState retrieves the current transport state.
	GetPlaybackState(ctx context.Context) (*models.PlaybackState, error)

	// SkipNext advances playback by exactly one queue position.
	SkipNext(ctx context.Context) error

	// SkipPrevious moves playback back one position.
	SkipPrevious(ctx context.Context) error

	// Seek moves the playhead of the current track.
	Seek(ctx context.Context, positionMS int) error

	// Enqueue appends a track to the remote queue by its identifier.
	Enqueue(ctx context.Context, trackID string) error

	// Search queries the catalog; results are ordered by service relevance.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// StartPlayback resumes or starts playback on the active device.
	StartPlayback(ctx context.Context) error

	// GetLikedTracks pages through the user's saved tracks.
	GetLikedTracks(ctx context.Context, limit, offset int) ([]models.Track, error)

	// Name returns the service name (e.g. "Spotify").
	Name() string
}

// Recommender defines the contract for the AI recommendation service.
type Recommender interface {
	// GetRecommendations asks for tracks matching the prompt. Recent and
	// context tracks ground the model in what is already playing.
	GetRecommendations(ctx context.Context, prompt string, history []string, recent, contextTracks []models.Track) (*models.RecommendationSet, error)
}
