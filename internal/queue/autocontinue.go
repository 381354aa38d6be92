package queue

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/models"
)

// TriggerState is the auto-continue state machine position.
type TriggerState int

const (
	TriggerIdle TriggerState = iota
	TriggerArmed
	TriggerFired
)

// FireFunc synthesizes one "continue the vibe" recommendation request seeded
// by the track that was playing when the queue ran dry.
type FireFunc func(ctx context.Context, seed models.Track)

// AutoContinue watches playback and queue depletion and fires exactly one
// recommendation request per depletion event.
//
// A depletion event is identified by the now-playing track at the moment the
// client-managed queue becomes empty; the marker resets once that track
// changes, re-arming the trigger. Tracks whose own provenance is
// auto-generated never trigger, which prevents self-sustaining loops.
type AutoContinue struct {
	view       *CachedView
	provenance *ProvenanceStore
	fire       FireFunc
	logger     *log.Logger
	delay      time.Duration

	mu         sync.Mutex
	enabled    bool
	state      TriggerState
	lastFired  string // depletion event marker: now-playing track ID
	pendingFor string // event with a scheduled (armed) fire
}

// NewAutoContinue creates a trigger. delay is the settle wait between
// detecting depletion and firing.
func NewAutoContinue(view *CachedView, provenance *ProvenanceStore, delay time.Duration, fire FireFunc, logger *log.Logger) *AutoContinue {
	return &AutoContinue{
		view:       view,
		provenance: provenance,
		fire:       fire,
		logger:     logger,
		delay:      delay,
	}
}

// SetEnabled toggles auto-continue mode.
func (a *AutoContinue) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
	if !enabled {
		a.state = TriggerIdle
		a.pendingFor = ""
	}
}

// Enabled reports whether auto-continue mode is on.
func (a *AutoContinue) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// State returns the current trigger state.
func (a *AutoContinue) State() TriggerState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// TrackChanged resets the depletion marker when the playing track changes,
// re-arming the trigger for the next depletion.
func (a *AutoContinue) TrackChanged(prev, cur *models.Track) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur == nil || (prev != nil && prev.ID == cur.ID) {
		return
	}
	if a.lastFired != "" && a.lastFired != cur.ID {
		a.lastFired = ""
		if a.state == TriggerFired {
			a.state = TriggerIdle
		}
	}
}

// Evaluate inspects the latest snapshot and arms a single fire when the
// depletion conditions hold. Called once per poll cycle; repeated calls
// within the same depletion event are no-ops.
func (a *AutoContinue) Evaluate(ctx context.Context) {
	a.mu.Lock()

	if !a.enabled {
		a.mu.Unlock()
		return
	}

	playback := a.view.Playback()
	snapshot := a.view.Snapshot()

	seed := snapshot.NowPlaying
	if seed == nil || !playback.IsPlaying {
		a.state = TriggerIdle
		a.mu.Unlock()
		return
	}

	// A track we queued automatically must not beget another request.
	if entry, ok := a.provenance.Lookup(seed.ID); ok && entry.Auto {
		a.state = TriggerIdle
		a.mu.Unlock()
		return
	}

	// Placeholders count: an enqueue already in flight will refill the queue.
	if len(snapshot.Queue) > 0 {
		a.state = TriggerIdle
		a.mu.Unlock()
		return
	}

	marker := seed.ID
	if a.lastFired == marker || a.pendingFor == marker {
		a.mu.Unlock()
		return
	}

	a.state = TriggerArmed
	a.pendingFor = marker
	seedCopy := *seed
	a.mu.Unlock()

	a.logger.Debug("queue depleted, arming auto-continue", "seed", marker)

	// The settle wait and fire run off the poll cycle's goroutine.
	go a.fireAfterDelay(ctx, marker, seedCopy)
}

func (a *AutoContinue) fireAfterDelay(ctx context.Context, marker string, seedCopy models.Track) {
	timer := time.NewTimer(a.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		a.mu.Lock()
		a.pendingFor = ""
		a.mu.Unlock()
		return
	case <-timer.C:
	}

	// Re-check: conditions may have changed during the settle delay.
	a.mu.Lock()
	if !a.enabled || a.pendingFor != marker || a.lastFired == marker {
		a.pendingFor = ""
		a.mu.Unlock()
		return
	}
	current := a.view.NowPlaying()
	depleted := len(a.view.Snapshot().Queue) == 0
	if current == nil || current.ID != marker || !depleted {
		a.pendingFor = ""
		a.state = TriggerIdle
		a.mu.Unlock()
		return
	}
	a.lastFired = marker
	a.pendingFor = ""
	a.state = TriggerFired
	a.mu.Unlock()

	a.logger.Info("auto-continue firing", "seed", marker)
	a.fire(ctx, seedCopy)
}
