package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ixacik/vibe-dj/internal/queue"
	"github.com/ixacik/vibe-dj/internal/services"
	"github.com/ixacik/vibe-dj/internal/shared"
	"github.com/ixacik/vibe-dj/internal/store"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	player      *services.SpotifyPlayer
	recommender services.Recommender
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Player      *services.SpotifyPlayer
	Recommender services.Recommender
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:      opts.Config,
		player:      opts.Player,
		recommender: opts.Recommender,
		logger:      opts.Logger,
		output:      opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, runCommand, vibeCommand, skipCommand, statusCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfig loads the config file at path, falling back to the runner's
// current config and then to defaults.
func (r *Runner) resolveConfig(path string) *shared.Config {
	if _, err := os.Stat(path); err == nil {
		if config, err := shared.LoadConfig(path); err == nil {
			return config
		}
		r.logger.Warnf("failed to load config at %v, using current settings", path)
	}
	if r.config != nil {
		return r.config
	}
	return shared.DefaultConfig()
}

// buildEngine assembles the reconciliation engine from the runner's
// dependencies. The returned cleanup closes the backing store.
func (r *Runner) buildEngine(ctx context.Context) (*queue.Engine, func(), error) {
	if r.player == nil {
		return nil, nil, fmt.Errorf("%w: Spotify credentials not configured, run 'vibedj setup'", shared.ErrMissingCredentials)
	}

	token, err := loadToken(r.tokenPath())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: run 'vibedj auth' first", shared.ErrNotAuthenticated)
	}

	r.player.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := saveToken(r.tokenPath(), t); err != nil {
			r.logger.Warnf("failed to persist refreshed token: %v", err)
		}
	})
	r.player.SetToken(ctx, token)

	dbPath := r.config.Database.Path
	if dbPath == "" {
		dbPath = "vibedj.db"
	}

	kv, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}
	kv.Configure(r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	engine, err := queue.NewEngine(queue.EngineOpts{
		Player:      r.player,
		Recommender: r.recommender,
		Store:       kv,
		Config:      r.config.Engine,
		Logger:      r.logger,
	})
	if err != nil {
		kv.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := kv.Close(); err != nil {
			r.logger.Warnf("failed to close state store: %v", err)
		}
	}

	return engine, cleanup, nil
}

// primeEngine runs one poll cycle so one-shot commands act on fresh state.
func (r *Runner) primeEngine(ctx context.Context, engine *queue.Engine) {
	engine.Poller().PollPlaybackOnce(ctx)
	engine.Poller().PollQueueOnce(ctx)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
