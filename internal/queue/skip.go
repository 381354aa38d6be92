package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/services"
	"github.com/ixacik/vibe-dj/internal/shared"
	"golang.org/x/time/rate"
)

// defaultStabilizeDelay is how long after a skip settles before forcing a
// refetch, giving the remote service time to reflect the new position.
const defaultStabilizeDelay = time.Second

// SkipOrchestrator resolves "jump to track X" into a sequence of primitive
// skip-forward calls against a service that only exposes next/previous.
//
// The poller is suspended for the whole operation: the suspend flag is the
// sole mutual exclusion preventing a mid-skip poll from publishing a
// transiently inconsistent queue. Skips are rare, short, single-user
// operations, so the coarse lock is acceptable.
type SkipOrchestrator struct {
	player         services.Player
	view           *CachedView
	poller         *Poller
	limiter        *rate.Limiter
	logger         *log.Logger
	stabilizeDelay time.Duration
}

// NewSkipOrchestrator creates a skip orchestrator. The limiter paces the
// primitive skip calls to respect remote rate limits.
func NewSkipOrchestrator(player services.Player, view *CachedView, poller *Poller, limiter *rate.Limiter, logger *log.Logger) *SkipOrchestrator {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 1)
	}
	return &SkipOrchestrator{
		player:         player,
		view:           view,
		poller:         poller,
		limiter:        limiter,
		logger:         logger,
		stabilizeDelay: defaultStabilizeDelay,
	}
}

// SkipTo advances playback to the target track in the remote queue.
//
// Position is computed against the unfiltered authoritative queue, not the
// locally filtered view, since the service advances through its real
// ordering. On any failure the optimistic view mutation is rolled back. In
// all cases polling resumes and a refresh is forced after a brief delay.
func (o *SkipOrchestrator) SkipTo(ctx context.Context, targetID string) (string, error) {
	o.poller.Suspend()
	defer o.settle()

	raw, err := o.player.GetQueue(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch queue for skip: %w", err)
	}

	offset := -1
	var target models.Track
	for i, t := range raw.Queue {
		if t.ID == targetID {
			offset = i
			target = t
			break
		}
	}
	if offset < 0 {
		return "", fmt.Errorf("%w: %s not in queue", shared.ErrTrackNotFound, targetID)
	}

	capture := o.view.Capture()
	o.view.PromoteToNowPlaying(target)

	// Each primitive call advances exactly one position.
	for i := 0; i <= offset; i++ {
		if err := o.limiter.Wait(ctx); err != nil {
			o.view.Restore(capture)
			return "", fmt.Errorf("skip aborted: %w", err)
		}
		if err := o.player.SkipNext(ctx); err != nil {
			o.view.Restore(capture)
			return "", fmt.Errorf("skip failed at step %d of %d: %w", i+1, offset+1, err)
		}
	}

	o.logger.Info("skipped to track", "track", targetID, "steps", offset+1)
	return targetID, nil
}

// settle resumes polling and schedules a forced refresh once the remote
// state has had a moment to stabilize.
func (o *SkipOrchestrator) settle() {
	o.poller.Resume()
	delay := o.stabilizeDelay
	time.AfterFunc(delay, o.poller.ForceRefresh)
}
