package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/store"
)

// membershipKey is the persistence key for the membership tracker.
const membershipKey = "queue_membership"

// MembershipRecord notes that this client inserted a track into the remote
// queue. It is purely a filter predicate; it does not own track data.
type MembershipRecord struct {
	TrackID       string    `json:"track_id"`
	Artist        string    `json:"artist"`
	Title         string    `json:"title"`
	PromptSummary string    `json:"prompt_summary"`
	AddedAt       time.Time `json:"added_at"`
}

// MembershipTracker records which track identifiers were inserted into the
// remote queue by this client, with time-based expiry. Tracks queued by a
// human directly on the service never appear here and are therefore
// invisible to the engine.
//
// Records are never mutated in place; Forget and PurgeExpired only delete.
type MembershipTracker struct {
	mu        sync.Mutex
	records   map[string]MembershipRecord
	retention time.Duration
	kv        *store.KV
	logger    *log.Logger
	now       func() time.Time
}

// NewMembershipTracker creates a tracker with the given retention window.
// kv may be nil for an in-memory-only tracker.
func NewMembershipTracker(retention time.Duration, kv *store.KV, logger *log.Logger) *MembershipTracker {
	if retention <= 0 {
		retention = time.Hour
	}
	m := &MembershipTracker{
		records:   make(map[string]MembershipRecord),
		retention: retention,
		kv:        kv,
		logger:    logger,
		now:       time.Now,
	}
	m.load()
	return m
}

func (m *MembershipTracker) load() {
	if m.kv == nil {
		return
	}
	var records []MembershipRecord
	found, err := m.kv.Get(membershipKey, &records)
	if err != nil {
		m.logger.Warn("failed to load queue membership", "err", err)
		return
	}
	if !found {
		return
	}
	for _, r := range records {
		m.records[r.TrackID] = r
	}
}

// persist serializes the record map as a sorted array. Caller holds the lock.
func (m *MembershipTracker) persist() {
	if m.kv == nil {
		return
	}
	records := make([]MembershipRecord, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].TrackID < records[j].TrackID })
	if err := m.kv.Set(membershipKey, records); err != nil {
		m.logger.Warn("failed to persist queue membership", "err", err)
	}
}

// Record appends records for tracks just inserted into the remote queue.
func (m *MembershipTracker) Record(records ...MembershipRecord) {
	if len(records) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, r := range records {
		if r.TrackID == "" {
			continue
		}
		r.AddedAt = now
		m.records[r.TrackID] = r
	}
	m.persist()
}

// Forget removes one record. Called when a track graduates from "queued" to
// "playing" and no longer needs tracking.
func (m *MembershipTracker) Forget(trackID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[trackID]; !ok {
		return
	}
	delete(m.records, trackID)
	m.persist()
}

// IsMember reports whether this client inserted the track. Reads are pure:
// expiry is enforced by PurgeExpired on the poll cycle, not here.
func (m *MembershipTracker) IsMember(trackID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[trackID]
	if !ok {
		return false
	}
	return m.now().Sub(r.AddedAt) <= m.retention
}

// PurgeExpired removes records older than the retention window. Invoked once
// per poll cycle as scheduled maintenance.
func (m *MembershipTracker) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.retention)
	removed := 0
	for id, r := range m.records {
		if r.AddedAt.Before(cutoff) {
			delete(m.records, id)
			removed++
		}
	}
	if removed > 0 {
		m.persist()
		m.logger.Debug("purged expired queue membership", "removed", removed)
	}
	return removed
}

// Len reports the number of live records.
func (m *MembershipTracker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
