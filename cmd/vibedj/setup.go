package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ixacik/vibe-dj/internal/shared"
	"github.com/ixacik/vibe-dj/internal/store"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the template and initializes the state store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	dbPath := config.Database.Path
	if dbPath == "" {
		dbPath = "vibedj.db"
	}

	r.logger.Info("initializing state store", "path", dbPath)

	kv, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create state store: %w", err)
	}
	defer kv.Close()

	kv.Configure(config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Infof("setup complete for store: %v", dbPath)
	r.writePlain("✓ Setup complete\n")
	r.writePlain("Next: add your Spotify credentials to %s and run 'vibedj auth'\n", configPath)

	return nil
}
