package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/store"
)

// LifecycleState tracks where a provenance entry's track is in its life.
type LifecycleState string

const (
	StatePending LifecycleState = "pending" // enqueued, not yet observed playing
	StateActive  LifecycleState = "active"  // observed as currently playing
	StateEnded   LifecycleState = "ended"   // finished playing
)

// provenanceKey is the persistence key for the provenance store.
const provenanceKey = "provenance"

// defaultProvenanceStale bounds how long an entry may go without activity
// before garbage collection removes it regardless of queue presence.
const defaultProvenanceStale = 2 * time.Hour

// pendingGrace keeps a freshly assigned pending entry alive through the
// window between a confirmed remote enqueue and the poll cycle that first
// shows the track in the remote queue.
const pendingGrace = 30 * time.Second

// ProvenanceEntry associates a queued track with the prompt that caused it.
type ProvenanceEntry struct {
	TrackID   string         `json:"track_id"`
	PromptID  string         `json:"prompt_id"`
	Summary   string         `json:"summary"`
	Auto      bool           `json:"auto"`
	State     LifecycleState `json:"state"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ProvenanceStore maps track identifiers to the prompt that enqueued them.
//
// Invariant: at most one entry per track identifier; a newer assignment
// overwrites. Entries are garbage-collected once their track is gone from
// both the filtered queue and the now-playing slot, or once stale.
type ProvenanceStore struct {
	mu         sync.Mutex
	entries    map[string]ProvenanceEntry
	kv         *store.KV
	logger     *log.Logger
	staleAfter time.Duration
	now        func() time.Time
}

// NewProvenanceStore creates a provenance store. kv may be nil for an
// in-memory-only store; when set, previously persisted entries are loaded.
func NewProvenanceStore(kv *store.KV, logger *log.Logger) *ProvenanceStore {
	p := &ProvenanceStore{
		entries:    make(map[string]ProvenanceEntry),
		kv:         kv,
		logger:     logger,
		staleAfter: defaultProvenanceStale,
		now:        time.Now,
	}
	p.load()
	return p
}

func (p *ProvenanceStore) load() {
	if p.kv == nil {
		return
	}
	var entries []ProvenanceEntry
	found, err := p.kv.Get(provenanceKey, &entries)
	if err != nil {
		p.logger.Warn("failed to load provenance", "err", err)
		return
	}
	if !found {
		return
	}
	for _, e := range entries {
		p.entries[e.TrackID] = e
	}
}

// persist serializes the entry map as a sorted array. Caller holds the lock.
func (p *ProvenanceStore) persist() {
	if p.kv == nil {
		return
	}
	entries := make([]ProvenanceEntry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TrackID < entries[j].TrackID })
	if err := p.kv.Set(provenanceKey, entries); err != nil {
		p.logger.Warn("failed to persist provenance", "err", err)
	}
}

// Assign creates or overwrites the entry for a track.
func (p *ProvenanceStore) Assign(trackID, promptID, summary string, auto bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries[trackID] = ProvenanceEntry{
		TrackID:   trackID,
		PromptID:  promptID,
		Summary:   summary,
		Auto:      auto,
		State:     StatePending,
		UpdatedAt: p.now(),
	}
	p.persist()
}

// Lookup returns the entry for a track identifier.
func (p *ProvenanceStore) Lookup(trackID string) (ProvenanceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[trackID]
	return e, ok
}

// TrackStarted marks a track's entry active when it is observed playing.
func (p *ProvenanceStore) TrackStarted(trackID string) {
	p.setState(trackID, StateActive)
}

// TrackEnded marks a track's entry ended when it stops being the playing item.
func (p *ProvenanceStore) TrackEnded(trackID string) {
	p.setState(trackID, StateEnded)
}

func (p *ProvenanceStore) setState(trackID string, state LifecycleState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[trackID]
	if !ok {
		return
	}
	e.State = state
	e.UpdatedAt = p.now()
	p.entries[trackID] = e
	p.persist()
}

// Collect garbage-collects entries whose track is in neither the live set
// (filtered queue plus now playing) nor fresh enough to keep.
//
// When playback has stopped entirely the live set still names the queued
// tracks, so pending entries survive until the staleness bound lapses.
func (p *ProvenanceStore) Collect(live map[string]bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	staleCutoff := now.Add(-p.staleAfter)
	graceCutoff := now.Add(-pendingGrace)
	removed := 0
	for id, e := range p.entries {
		if live[id] && e.UpdatedAt.After(staleCutoff) {
			continue
		}
		if e.State == StatePending && e.UpdatedAt.After(graceCutoff) {
			continue
		}
		delete(p.entries, id)
		removed++
	}
	if removed > 0 {
		p.persist()
		p.logger.Debug("collected provenance entries", "removed", removed)
	}
	return removed
}

// Len reports the number of live entries.
func (p *ProvenanceStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
