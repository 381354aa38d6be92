package queue

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
	tu "github.com/ixacik/vibe-dj/internal/testing"
)

func newTestCoordinator(player *tu.FakePlayer) (*Coordinator, *CachedView, *MembershipTracker, *ProvenanceStore) {
	logger := shared.NewLogger(io.Discard)
	view := NewCachedView()
	membership := NewMembershipTracker(time.Hour, nil, logger)
	provenance := NewProvenanceStore(nil, logger)
	coordinator := NewCoordinator(player, view, membership, provenance, 0, nil, logger)
	return coordinator, view, membership, provenance
}

func quotedQuery(artist, title string) string {
	return `artist:"` + artist + `" track:"` + title + `"`
}

func TestCoordinator(t *testing.T) {
	ctx := context.Background()

	t.Run("Enqueue", func(t *testing.T) {
		t.Run("Queues Matched Tracks And Records Provenance", func(t *testing.T) {
			player := &tu.FakePlayer{
				SearchResults: map[string][]models.Track{
					quotedQuery("A", "X"): {{ID: "spotify1", Title: "X", Artist: "A"}},
				},
			}
			coordinator, view, membership, provenance := newTestCoordinator(player)

			results, err := coordinator.Enqueue(ctx, []models.TrackRequest{{Artist: "A", Title: "X"}}, "late night drive", false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(results) != 1 || !results[0].Success {
				t.Fatalf("expected one successful result, got %+v", results)
			}
			if results[0].Matched == nil || results[0].Matched.ID != "spotify1" {
				t.Errorf("expected match spotify1, got %+v", results[0].Matched)
			}

			if len(player.EnqueuedIDs) != 1 || player.EnqueuedIDs[0] != "spotify1" {
				t.Errorf("expected spotify1 enqueued remotely, got %v", player.EnqueuedIDs)
			}

			entry, ok := provenance.Lookup("spotify1")
			if !ok || entry.Summary != "late night drive" || entry.State != StatePending {
				t.Errorf("expected pending provenance entry, got %+v (found=%v)", entry, ok)
			}
			if !membership.IsMember("spotify1") {
				t.Error("expected membership recorded for spotify1")
			}

			for _, q := range view.Snapshot().Queue {
				if q.Optimistic {
					t.Error("expected placeholders stripped after the batch settled")
				}
			}
		})

		t.Run("Falls Back To Bare Query With Artist Reconciliation", func(t *testing.T) {
			player := &tu.FakePlayer{
				SearchResults: map[string][]models.Track{
					quotedQuery("A", "X"): nil,
					"artist:A track:X":   nil,
				},
				SearchAll: []models.Track{
					{ID: "wrong", Title: "X", Artist: "Somebody Else"},
					{ID: "right", Title: "X", Artist: "A feat. B"},
				},
			}
			coordinator, _, _, _ := newTestCoordinator(player)

			results, err := coordinator.Enqueue(ctx, []models.TrackRequest{{Artist: "A", Title: "X"}}, "summary", false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !results[0].Success || results[0].Matched.ID != "right" {
				t.Fatalf("expected artist-reconciled match, got %+v", results[0])
			}
			if len(player.SearchedQueries) != 3 {
				t.Errorf("expected 3 ladder queries, got %v", player.SearchedQueries)
			}
		})

		t.Run("Not Found Is A Soft Failure", func(t *testing.T) {
			player := &tu.FakePlayer{
				SearchResults: map[string][]models.Track{
					quotedQuery("A", "X"): {{ID: "spotify1", Title: "X", Artist: "A"}},
					quotedQuery("B", "Y"): nil,
					"artist:B track:Y":    nil,
					"B Y":                 nil,
				},
			}
			coordinator, view, _, _ := newTestCoordinator(player)

			results, err := coordinator.Enqueue(ctx, []models.TrackRequest{
				{Artist: "A", Title: "X"},
				{Artist: "B", Title: "Y"},
			}, "summary", false)
			if err != nil {
				t.Fatalf("expected partial success without error, got %v", err)
			}

			if !results[0].Success {
				t.Error("expected first request to succeed")
			}
			if results[1].Success {
				t.Error("expected second request to fail")
			}
			if results[1].Err != "Track not found: B - Y" {
				t.Errorf("unexpected not-found message %q", results[1].Err)
			}

			// Soft failures never roll back the successful portion.
			if len(player.EnqueuedIDs) != 1 {
				t.Errorf("expected one remote enqueue, got %v", player.EnqueuedIDs)
			}
			for _, q := range view.Snapshot().Queue {
				if q.Optimistic {
					t.Error("expected placeholders gone after settle")
				}
			}
		})

		t.Run("Outright Failure Rolls Back", func(t *testing.T) {
			player := &tu.FakePlayer{SearchErr: errors.New("service down")}
			coordinator, view, _, _ := newTestCoordinator(player)

			np := models.Track{ID: "np", Title: "Playing"}
			view.ReplaceQueue(models.QueueSnapshot{NowPlaying: &np})

			results, err := coordinator.Enqueue(ctx, []models.TrackRequest{{Artist: "A", Title: "X"}}, "summary", false)
			if err == nil {
				t.Fatal("expected batch error")
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected API request error, got %v", err)
			}
			if len(results) != 1 || results[0].Success {
				t.Errorf("expected failed result, got %+v", results)
			}
			if !strings.Contains(results[0].Err, "search failed") {
				t.Errorf("unexpected failure message %q", results[0].Err)
			}

			snapshot := view.Snapshot()
			if len(snapshot.Queue) != 0 {
				t.Errorf("expected rollback to the pre-operation view, got %+v", snapshot.Queue)
			}
			if snapshot.NowPlaying == nil || snapshot.NowPlaying.ID != "np" {
				t.Error("expected now playing untouched by rollback")
			}
		})

		t.Run("Credential Expired Aborts Remaining Requests", func(t *testing.T) {
			player := &tu.FakePlayer{SearchErr: shared.ErrCredentialExpired}
			coordinator, _, _, _ := newTestCoordinator(player)

			results, err := coordinator.Enqueue(ctx, []models.TrackRequest{
				{Artist: "A", Title: "X"},
				{Artist: "B", Title: "Y"},
				{Artist: "C", Title: "Z"},
			}, "summary", false)
			if err == nil {
				t.Fatal("expected batch error")
			}

			for i, res := range results {
				if res.Success {
					t.Errorf("expected result %d to fail", i)
				}
			}
			// Only the first request should have hit the remote service.
			if len(player.SearchedQueries) != 1 {
				t.Errorf("expected abort after first credential failure, got queries %v", player.SearchedQueries)
			}
		})

		t.Run("Empty Request List Is Rejected", func(t *testing.T) {
			coordinator, _, _, _ := newTestCoordinator(&tu.FakePlayer{})

			_, err := coordinator.Enqueue(ctx, nil, "summary", false)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected invalid input error, got %v", err)
			}
		})
	})

	t.Run("ReconcileArtist", func(t *testing.T) {
		tracks := []models.Track{
			{ID: "1", Artist: "The Beatles"},
			{ID: "2", Artist: "Wings feat. Paul McCartney"},
		}

		if match := reconcileArtist(tracks, "paul mccartney"); match == nil || match.ID != "2" {
			t.Errorf("expected partial artist match on 2, got %+v", match)
		}
		if match := reconcileArtist(tracks, "Beatles"); match == nil || match.ID != "1" {
			t.Errorf("expected match on 1, got %+v", match)
		}
		if match := reconcileArtist(tracks, "Aphex Twin"); match != nil {
			t.Errorf("expected no match, got %+v", match)
		}
	})
}
