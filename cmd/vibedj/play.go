package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ixacik/vibe-dj/internal/formatter"
	"github.com/ixacik/vibe-dj/internal/models"
	"github.com/ixacik/vibe-dj/internal/shared"
	"github.com/urfave/cli/v3"
)

// Run starts the reconciliation engine and blocks until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	engine, cleanup, err := r.buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if cmd.Bool("auto") {
		engine.SetAutoContinue(true)
	}

	engine.Poller().OnCredentialExpired = func(err error) {
		r.logger.Error("credentials expired, run 'vibedj auth' to reauthorize", "err", err)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.writePlain("vibe-dj engine running (ctrl-c to stop)\n")
	engine.Run(runCtx)
	r.writePlain("stopped\n")

	return nil
}

// Vibe asks the recommender for tracks matching the prompt and queues them.
func (r *Runner) Vibe(ctx context.Context, cmd *cli.Command) error {
	prompt := cmd.StringArg("prompt")
	if prompt == "" {
		return fmt.Errorf("%w: a prompt is required, e.g. vibedj vibe \"late night drive\"", shared.ErrMissingArgument)
	}

	engine, cleanup, err := r.buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	r.primeEngine(ctx, engine)

	r.logger.Info("requesting recommendations", "prompt", prompt)

	results, message, err := engine.Vibe(ctx, prompt)
	if err != nil && len(results) == 0 {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"message": message,
			"results": results,
		}, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.FormatEnqueueResults(results, message))
}

// Skip jumps playback to the given track in the queue.
func (r *Runner) Skip(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: a track ID is required", shared.ErrMissingArgument)
	}

	engine, cleanup, err := r.buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	r.primeEngine(ctx, engine)

	skipped, err := engine.SkipTo(ctx, trackID)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Skipped to %s\n", skipped)
}

// Status prints the current queue and playback state.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	engine, cleanup, err := r.buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	r.primeEngine(ctx, engine)

	snapshot := engine.Snapshot()
	playback := engine.Playback()

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Snapshot models.QueueSnapshot `json:"snapshot"`
			Playback models.PlaybackState `json:"playback"`
		}{snapshot, playback}, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.FormatStatus(snapshot, playback))
}
