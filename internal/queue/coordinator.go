package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/services"
	"github.com/ixacik/vibe-dj/internal/shared"
	"golang.org/x/time/rate"
)

// Coordinator performs optimistic batch enqueues: placeholders appear in the
// cached view immediately, the real search+enqueue calls run against the
// remote service, and the placeholders are stripped after a settle delay so
// the next poll cycle supplies the authoritative entries.
//
// Multiple enqueue operations may run concurrently; each carries its own
// synthetic group id and rollback capture. Rollback captures can go stale
// relative to each other; last write wins on the cached view.
type Coordinator struct {
	player      services.Player
	view        *CachedView
	membership  *MembershipTracker
	provenance  *ProvenanceStore
	logger      *log.Logger
	settleDelay time.Duration
	limiter     *rate.Limiter
}

// NewCoordinator creates a coordinator. The limiter paces remote search and
// enqueue calls; pass nil to disable pacing.
func NewCoordinator(player services.Player, view *CachedView, membership *MembershipTracker, provenance *ProvenanceStore, settleDelay time.Duration, limiter *rate.Limiter, logger *log.Logger) *Coordinator {
	return &Coordinator{
		player:      player,
		view:        view,
		membership:  membership,
		provenance:  provenance,
		settleDelay: settleDelay,
		limiter:     limiter,
		logger:      logger,
	}
}

// Enqueue resolves each requested track against the remote catalog and
// queues the matches, reporting a per-track outcome. Partial success is
// expected; the returned error is non-nil only when the whole batch failed
// before any remote effect took hold (in which case the cached view has been
// rolled back to its pre-operation state).
func (c *Coordinator) Enqueue(ctx context.Context, requests []models.TrackRequest, promptSummary string, auto bool) ([]models.EnqueueResult, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: no tracks requested", shared.ErrInvalidInput)
	}

	capture := c.view.Capture()
	groupID := shared.GenerateID()
	promptID := shared.GenerateID()

	c.view.AppendPlaceholders(c.synthesizePlaceholders(requests, groupID, promptSummary, auto))
	c.logger.Debug("placeholders published", "group", groupID, "count", len(requests))

	// Kick playback if nothing is playing. Non-blocking: the enqueue path
	// never waits on this result.
	go c.ensurePlayback(context.WithoutCancel(ctx))

	results := make([]models.EnqueueResult, len(requests))
	successCount := 0
	anyRemoteEffect := false
	var abortErr error

	for i, req := range requests {
		results[i] = models.EnqueueResult{Request: req}

		if abortErr != nil {
			results[i].Err = abortErr.Error()
			continue
		}

		match, err := c.resolveTrack(ctx, req)
		if err != nil {
			if errors.Is(err, shared.ErrCredentialExpired) || ctx.Err() != nil {
				abortErr = err
			}
			results[i].Err = err.Error()
			continue
		}

		if err := c.enqueueTrack(ctx, match.ID); err != nil {
			if errors.Is(err, shared.ErrCredentialExpired) || ctx.Err() != nil {
				abortErr = err
			}
			results[i].Err = fmt.Sprintf("failed to queue %s - %s: %v", req.Artist, req.Title, err)
			continue
		}

		anyRemoteEffect = true
		successCount++
		results[i].Success = true
		results[i].Matched = match

		c.provenance.Assign(match.ID, promptID, promptSummary, auto)
		c.membership.Record(MembershipRecord{
			TrackID:       match.ID,
			Artist:        match.Artist,
			Title:         match.Title,
			PromptSummary: promptSummary,
		})
	}

	if successCount == 0 && !anyRemoteEffect && c.batchFailedOutright(results) {
		c.view.RemoveGroup(groupID)
		c.view.Restore(capture)
		c.logger.Warn("enqueue batch failed, rolled back", "group", groupID)
		return results, fmt.Errorf("%w: all %d enqueue attempts failed", shared.ErrAPIRequest, len(requests))
	}

	c.logger.Info("enqueue batch settled", "group", groupID, "ok", successCount, "failed", len(requests)-successCount)

	// Let the remote queue reflect the change before stripping placeholders;
	// the next poll cycle supplies the authoritative replacement.
	c.waitSettle(ctx)
	c.view.RemoveGroup(groupID)

	return results, nil
}

// batchFailedOutright reports whether every failure was an infrastructure
// failure rather than a per-track "not found". Not-found results never
// trigger rollback: the user asked for tracks that do not exist, and the
// placeholders simply clear.
func (c *Coordinator) batchFailedOutright(results []models.EnqueueResult) bool {
	for _, r := range results {
		if r.Success || strings.HasPrefix(r.Err, "Track not found") {
			return false
		}
	}
	return true
}

func (c *Coordinator) synthesizePlaceholders(requests []models.TrackRequest, groupID, promptSummary string, auto bool) []models.Track {
	placeholders := make([]models.Track, len(requests))
	for i, req := range requests {
		placeholders[i] = models.Track{
			ID:            models.OptimisticIDPrefix + shared.GenerateID(),
			Title:         req.Title,
			Artist:        req.Artist,
			Optimistic:    true,
			GroupID:       groupID,
			PromptSummary: promptSummary,
			AutoQueued:    auto,
		}
	}
	return placeholders
}

func (c *Coordinator) ensurePlayback(ctx context.Context) {
	state, err := c.player.GetPlaybackState(ctx)
	if err != nil {
		c.logger.Debug("playback state check failed", "err", err)
		return
	}
	if state.IsPlaying {
		return
	}
	if err := c.player.StartPlayback(ctx); err != nil {
		c.logger.Debug("start playback failed", "err", err)
	}
}

// resolveTrack searches the catalog with a fallback ladder: an exact quoted
// artist+track query, then an unquoted fuzzy query, then bare words with
// partial artist-name reconciliation.
func (c *Coordinator) resolveTrack(ctx context.Context, req models.TrackRequest) (*models.Track, error) {
	queries := []struct {
		q      string
		strict bool
	}{
		{fmt.Sprintf("artist:%q track:%q", req.Artist, req.Title), true},
		{fmt.Sprintf("artist:%s track:%s", req.Artist, req.Title), true},
		{req.Artist + " " + req.Title, false},
	}

	var lastErr error
	for _, attempt := range queries {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		tracks, err := c.player.Search(ctx, attempt.q, 5)
		if err != nil {
			if errors.Is(err, shared.ErrCredentialExpired) {
				return nil, err
			}
			lastErr = err
			continue
		}
		if len(tracks) == 0 {
			continue
		}

		if attempt.strict {
			t := tracks[0]
			return &t, nil
		}
		if match := reconcileArtist(tracks, req.Artist); match != nil {
			return match, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("search failed for %s - %s: %w", req.Artist, req.Title, lastErr)
	}
	return nil, fmt.Errorf("Track not found: %s - %s", req.Artist, req.Title)
}

// reconcileArtist picks the first result whose artist shares a word with the
// requested artist, tolerating "feat." suffixes and partial names.
func reconcileArtist(tracks []models.Track, artist string) *models.Track {
	want := strings.Fields(strings.ToLower(artist))
	for i := range tracks {
		got := strings.ToLower(tracks[i].Artist)
		for _, w := range want {
			if strings.Contains(got, w) {
				return &tracks[i]
			}
		}
	}
	return nil
}

func (c *Coordinator) enqueueTrack(ctx context.Context, trackID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.player.Enqueue(ctx, trackID)
}

func (c *Coordinator) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Coordinator) waitSettle(ctx context.Context) {
	if c.settleDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
