package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/services"
	"github.com/ixacik/vibe-dj/internal/shared"
	"github.com/ixacik/vibe-dj/internal/store"
	"golang.org/x/time/rate"
)

// continueVibePrompt is the synthesized recommendation request used when the
// queue runs dry in auto mode.
const continueVibePrompt = "continue the vibe"

// Engine assembles the poller, coordinator, skip orchestrator and
// auto-continue trigger around one cached view, and is the surface the rest
// of the application talks to.
type Engine struct {
	player      services.Player
	recommender services.Recommender
	view        *CachedView
	membership  *MembershipTracker
	provenance  *ProvenanceStore
	poller      *Poller
	coordinator *Coordinator
	skipper     *SkipOrchestrator
	auto        *AutoContinue
	logger      *log.Logger
}

// EngineOpts contains dependencies and tuning for the engine.
type EngineOpts struct {
	Player      services.Player
	Recommender services.Recommender
	Store       *store.KV // may be nil: state then lives in memory only
	Config      shared.EngineConfig
	Logger      *log.Logger
}

// NewEngine wires up the reconciliation engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Player == nil {
		return nil, fmt.Errorf("%w: player not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	view := NewCachedView()
	membership := NewMembershipTracker(opts.Config.MembershipRetention(), opts.Store, opts.Logger)
	provenance := NewProvenanceStore(opts.Store, opts.Logger)

	poller := NewPoller(opts.Player, view, membership, provenance, DefaultPollerIntervals(opts.Config), opts.Logger)

	searchLimiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 3)
	coordinator := NewCoordinator(opts.Player, view, membership, provenance, opts.Config.SettleDelay(), searchLimiter, opts.Logger)

	skipper := NewSkipOrchestrator(opts.Player, view, poller, nil, opts.Logger)

	e := &Engine{
		player:      opts.Player,
		recommender: opts.Recommender,
		view:        view,
		membership:  membership,
		provenance:  provenance,
		poller:      poller,
		coordinator: coordinator,
		skipper:     skipper,
		logger:      opts.Logger,
	}

	e.auto = NewAutoContinue(view, provenance, opts.Config.AutoContinueDelay(), e.fireAutoContinue, opts.Logger)
	e.auto.SetEnabled(opts.Config.AutoContinue)

	poller.OnTrackChange = e.auto.TrackChanged
	poller.OnCycle = e.auto.Evaluate

	return e, nil
}

// Run starts the poll loops and blocks until the context is canceled.
func (e *Engine) Run(ctx context.Context) {
	e.poller.Run(ctx)
}

// Snapshot returns the merged, annotated queue view for rendering.
func (e *Engine) Snapshot() models.QueueSnapshot {
	return e.view.Snapshot()
}

// Playback returns the last-known playback state.
func (e *Engine) Playback() models.PlaybackState {
	return e.view.Playback()
}

// Provenance returns the provenance entry for a track identifier.
func (e *Engine) Provenance(trackID string) (ProvenanceEntry, bool) {
	return e.provenance.Lookup(trackID)
}

// Poller exposes the poller for single-cycle use and credential callbacks.
func (e *Engine) Poller() *Poller {
	return e.poller
}

// SetAutoContinue toggles auto-continue mode.
func (e *Engine) SetAutoContinue(enabled bool) {
	e.auto.SetEnabled(enabled)
}

// Enqueue queues the requested tracks with the given prompt summary.
func (e *Engine) Enqueue(ctx context.Context, requests []models.TrackRequest, promptSummary string) ([]models.EnqueueResult, error) {
	return e.coordinator.Enqueue(ctx, requests, promptSummary, false)
}

// SkipTo jumps playback to the target track in the remote queue.
func (e *Engine) SkipTo(ctx context.Context, targetID string) (string, error) {
	return e.skipper.SkipTo(ctx, targetID)
}

// Vibe asks the recommendation service for tracks matching the prompt and
// queues the results. Quota and tier errors propagate untouched.
func (e *Engine) Vibe(ctx context.Context, prompt string) ([]models.EnqueueResult, string, error) {
	if e.recommender == nil {
		return nil, "", fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	}

	recent := e.recentTracks()
	set, err := e.recommender.GetRecommendations(ctx, prompt, nil, recent, nil)
	if err != nil {
		return nil, "", err
	}
	if len(set.Recommendations) == 0 {
		return nil, set.Message, fmt.Errorf("%w: no recommendations returned", shared.ErrAPIRequest)
	}

	summary := set.PromptSummary
	if summary == "" {
		summary = prompt
	}

	requests := make([]models.TrackRequest, len(set.Recommendations))
	for i, rec := range set.Recommendations {
		requests[i] = models.TrackRequest{Artist: rec.Artist, Title: rec.Title}
	}

	results, err := e.coordinator.Enqueue(ctx, requests, summary, false)
	return results, set.Message, err
}

// fireAutoContinue synthesizes one recommendation request seeded by the
// depleted queue's final playing track, and queues the results marked as
// auto-generated so they cannot re-trigger the loop.
func (e *Engine) fireAutoContinue(ctx context.Context, seed models.Track) {
	if e.recommender == nil {
		return
	}

	set, err := e.recommender.GetRecommendations(ctx, continueVibePrompt, nil, e.recentTracks(), []models.Track{seed})
	if err != nil {
		e.logger.Warn("auto-continue recommendation failed", "err", err)
		return
	}
	if len(set.Recommendations) == 0 {
		e.logger.Debug("auto-continue returned no recommendations")
		return
	}

	summary := set.PromptSummary
	if summary == "" {
		summary = continueVibePrompt
	}

	requests := make([]models.TrackRequest, len(set.Recommendations))
	for i, rec := range set.Recommendations {
		requests[i] = models.TrackRequest{Artist: rec.Artist, Title: rec.Title}
	}

	if _, err := e.coordinator.Enqueue(ctx, requests, summary, true); err != nil {
		e.logger.Warn("auto-continue enqueue failed", "err", err)
	}
}

// recentTracks gathers grounding context for the recommender: the playing
// track plus the confirmed queue entries.
func (e *Engine) recentTracks() []models.Track {
	snapshot := e.view.Snapshot()
	tracks := make([]models.Track, 0, len(snapshot.Queue)+1)
	if snapshot.NowPlaying != nil {
		tracks = append(tracks, *snapshot.NowPlaying)
	}
	for _, t := range snapshot.Queue {
		if !t.Optimistic {
			tracks = append(tracks, t)
		}
	}
	return tracks
}
