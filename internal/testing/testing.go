// package testing contains shared testing utilities
package testing

import (
	"context"
	"net/http"
	"sync"

	"github.com/ixacik/vibe-dj/internal/models"
)

// FakePlayer is a scripted test double for [services.Player].
//
// Zero value is usable: every call succeeds against empty state. Errors and
// responses are injectable per method; call counts are recorded.
type FakePlayer struct {
	mu sync.Mutex

	Queue    models.QueueSnapshot
	Playback models.PlaybackState

	// SearchResults maps a query string to its results; SearchAll is used
	// for any query without a specific entry.
	SearchResults map[string][]models.Track
	SearchAll     []models.Track

	QueueErr    error
	PlaybackErr error
	SkipErr     error
	EnqueueErr  error
	SearchErr   error
	StartErr    error

	GetQueueCalls   int
	PlaybackCalls   int
	SkipNextCalls   int
	EnqueuedIDs     []string
	SearchedQueries []string
	StartCalls      int
	SkipNextFn      func() error // optional hook, overrides SkipErr
}

func (f *FakePlayer) Name() string { return "fake" }

func (f *FakePlayer) GetQueue(ctx context.Context) (*models.QueueSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetQueueCalls++
	if f.QueueErr != nil {
		return nil, f.QueueErr
	}
	q := f.Queue.Clone()
	return &q, nil
}

func (f *FakePlayer) GetPlaybackState(ctx context.Context) (*models.PlaybackState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PlaybackCalls++
	if f.PlaybackErr != nil {
		return nil, f.PlaybackErr
	}
	p := f.Playback
	return &p, nil
}

func (f *FakePlayer) SkipNext(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SkipNextCalls++
	if f.SkipNextFn != nil {
		return f.SkipNextFn()
	}
	return f.SkipErr
}

func (f *FakePlayer) SkipPrevious(ctx context.Context) error { return f.SkipErr }

func (f *FakePlayer) Seek(ctx context.Context, positionMS int) error { return nil }

func (f *FakePlayer) Enqueue(ctx context.Context, trackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EnqueueErr != nil {
		return f.EnqueueErr
	}
	f.EnqueuedIDs = append(f.EnqueuedIDs, trackID)
	return nil
}

func (f *FakePlayer) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SearchedQueries = append(f.SearchedQueries, query)
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	if results, ok := f.SearchResults[query]; ok {
		return results, nil
	}
	return f.SearchAll, nil
}

func (f *FakePlayer) StartPlayback(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StartCalls++
	return f.StartErr
}

func (f *FakePlayer) GetLikedTracks(ctx context.Context, limit, offset int) ([]models.Track, error) {
	return nil, nil
}

// SetNowPlaying scripts the fake's queue and playback state to a playing track.
func (f *FakePlayer) SetNowPlaying(t models.Track, queue ...models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	np := t
	f.Queue = models.QueueSnapshot{NowPlaying: &np, Queue: queue}
	item := t
	f.Playback = models.PlaybackState{IsPlaying: true, Item: &item}
}

// FakeRecommender is a scripted test double for [services.Recommender].
type FakeRecommender struct {
	mu      sync.Mutex
	Set     *models.RecommendationSet
	Err     error
	Calls   int
	Prompts []string
}

func (f *FakeRecommender) GetRecommendations(ctx context.Context, prompt string, history []string, recent, contextTracks []models.Track) (*models.RecommendationSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.Prompts = append(f.Prompts, prompt)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Set == nil {
		return &models.RecommendationSet{}, nil
	}
	return f.Set, nil
}

// CallCount returns the number of recommendation calls made.
func (f *FakeRecommender) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
