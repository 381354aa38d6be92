package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/services"
	"github.com/ixacik/vibe-dj/internal/shared"
)

// PollerIntervals holds the adaptive poll intervals.
type PollerIntervals struct {
	QueuePlaying    time.Duration // queue poll while a track is playing
	QueueIdle       time.Duration // queue poll while idle
	PlaybackPlaying time.Duration // playback poll while playing
	PlaybackIdle    time.Duration // playback poll while idle
}

// DefaultPollerIntervals returns the intervals from the engine config.
func DefaultPollerIntervals(cfg shared.EngineConfig) PollerIntervals {
	return PollerIntervals{
		QueuePlaying:    cfg.QueuePollPlaying(),
		QueueIdle:       cfg.QueuePollIdle(),
		PlaybackPlaying: cfg.PlaybackPollPlaying(),
		PlaybackIdle:    cfg.PlaybackPollIdle(),
	}
}

// Poller periodically fetches the authoritative queue and playback state and
// publishes them to the cached view, filtered and annotated.
//
// Polling is suspended entirely while a skip operation is active; consumers
// keep reading the last-known cached value. A credential-expired signal halts
// polling and surfaces through the OnCredentialExpired callback; transient
// fetch errors leave the previous snapshot in place.
type Poller struct {
	player     services.Player
	view       *CachedView
	membership *MembershipTracker
	provenance *ProvenanceStore
	logger     *log.Logger
	intervals  PollerIntervals

	mu        sync.Mutex
	suspended bool
	halted    bool

	// OnCredentialExpired is invoked once when the remote service reports an
	// expired credential. Re-authentication is an external concern; polling
	// stays halted until Resume is called by whoever handles it.
	OnCredentialExpired func(error)

	// OnTrackChange is invoked when the observed now-playing track changes.
	// prev and cur may be nil (stopped ↔ playing transitions).
	OnTrackChange func(prev, cur *models.Track)

	// OnCycle is invoked after each completed queue poll cycle.
	OnCycle func(ctx context.Context)

	forceCh chan struct{}
}

// NewPoller creates a poller publishing into the given view.
func NewPoller(player services.Player, view *CachedView, membership *MembershipTracker, provenance *ProvenanceStore, intervals PollerIntervals, logger *log.Logger) *Poller {
	return &Poller{
		player:     player,
		view:       view,
		membership: membership,
		provenance: provenance,
		intervals:  intervals,
		logger:     logger,
		forceCh:    make(chan struct{}, 1),
	}
}

// Suspend stops both poll loops from fetching. Reads of the cached view keep
// returning the last-known snapshot.
func (p *Poller) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = true
}

// Resume re-enables polling and clears a credential halt.
func (p *Poller) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = false
	p.halted = false
}

// Suspended reports whether polling is currently suspended.
func (p *Poller) Suspended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suspended
}

func (p *Poller) skipThisCycle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suspended || p.halted
}

func (p *Poller) halt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.halted = true
}

// ForceRefresh requests an immediate out-of-schedule poll of both queue and
// playback state. Used after a skip settles to pick up stabilized remote
// state.
func (p *Poller) ForceRefresh() {
	select {
	case p.forceCh <- struct{}{}:
	default:
	}
}

// Run drives both poll loops until the context is canceled.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p.queueLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		p.playbackLoop(ctx)
	}()

	wg.Wait()
}

func (p *Poller) queueLoop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.forceCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		if !p.skipThisCycle() {
			p.PollQueueOnce(ctx)
			p.PollPlaybackOnce(ctx)
		}

		interval := p.intervals.QueueIdle
		if p.view.Playback().IsPlaying {
			interval = p.intervals.QueuePlaying
		}
		timer.Reset(interval)
	}
}

func (p *Poller) playbackLoop(ctx context.Context) {
	timer := time.NewTimer(p.intervals.PlaybackPlaying)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if !p.skipThisCycle() {
			p.PollPlaybackOnce(ctx)
		}

		interval := p.intervals.PlaybackIdle
		if p.view.Playback().IsPlaying {
			interval = p.intervals.PlaybackPlaying
		}
		timer.Reset(interval)
	}
}

// PollQueueOnce fetches, filters, annotates and publishes one queue snapshot,
// then runs the scheduled maintenance (membership purge, provenance GC).
func (p *Poller) PollQueueOnce(ctx context.Context) {
	raw, err := p.player.GetQueue(ctx)
	if err != nil {
		p.handlePollError("queue", err)
		return
	}

	filtered := p.filterQueue(*raw)
	p.view.ReplaceQueue(filtered)

	p.membership.PurgeExpired()
	p.collectProvenance(filtered)

	if p.OnCycle != nil {
		p.OnCycle(ctx)
	}
}

// PollPlaybackOnce fetches and publishes one playback state and drives the
// provenance lifecycle on track transitions.
func (p *Poller) PollPlaybackOnce(ctx context.Context) {
	state, err := p.player.GetPlaybackState(ctx)
	if err != nil {
		p.handlePollError("playback", err)
		return
	}

	prev := p.view.Playback().Item
	p.view.ReplacePlayback(*state)

	if trackChanged(prev, state.Item) {
		p.onNowPlayingChange(prev, state.Item)
	}
}

func (p *Poller) handlePollError(kind string, err error) {
	if errors.Is(err, shared.ErrCredentialExpired) {
		p.halt()
		p.logger.Warn("credential expired, polling halted", "poll", kind)
		if p.OnCredentialExpired != nil {
			p.OnCredentialExpired(err)
		}
		return
	}
	// Transient failure: keep the last good snapshot.
	p.logger.Debug("poll failed, keeping cached snapshot", "poll", kind, "err", err)
}

// filterQueue applies the publishing pipeline: dedupe the now-playing track
// out of the queue list, drop entries this client did not insert, and attach
// provenance annotations to the survivors, preserving relative order.
func (p *Poller) filterQueue(raw models.QueueSnapshot) models.QueueSnapshot {
	out := models.QueueSnapshot{}
	if raw.NowPlaying != nil {
		np := *raw.NowPlaying
		p.annotate(&np)
		out.NowPlaying = &np
	}

	for _, t := range raw.Queue {
		if out.NowPlaying != nil && t.ID == out.NowPlaying.ID {
			continue
		}
		if !p.membership.IsMember(t.ID) {
			continue
		}
		p.annotate(&t)
		out.Queue = append(out.Queue, t)
	}

	return out
}

func (p *Poller) annotate(t *models.Track) {
	entry, ok := p.provenance.Lookup(t.ID)
	if !ok {
		return
	}
	t.PromptID = entry.PromptID
	t.PromptSummary = entry.Summary
	t.AutoQueued = entry.Auto
}

func (p *Poller) collectProvenance(filtered models.QueueSnapshot) {
	live := make(map[string]bool, len(filtered.Queue)+1)
	if filtered.NowPlaying != nil {
		live[filtered.NowPlaying.ID] = true
	}
	for _, t := range filtered.Queue {
		live[t.ID] = true
	}
	p.provenance.Collect(live)
}

func (p *Poller) onNowPlayingChange(prev, cur *models.Track) {
	if prev != nil {
		p.provenance.TrackEnded(prev.ID)
	}
	if cur != nil {
		p.provenance.TrackStarted(cur.ID)
		// The track graduated from queued to playing.
		p.membership.Forget(cur.ID)
	}
	if p.OnTrackChange != nil {
		p.OnTrackChange(prev, cur)
	}
}

func trackChanged(prev, cur *models.Track) bool {
	switch {
	case prev == nil && cur == nil:
		return false
	case prev == nil || cur == nil:
		return true
	default:
		return prev.ID != cur.ID
	}
}
