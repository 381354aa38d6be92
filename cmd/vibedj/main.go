package main

import (
	"context"
	"errors"
	"os"

	"github.com/ixacik/vibe-dj/internal/services"
	"github.com/ixacik/vibe-dj/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var player *services.SpotifyPlayer
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if p, err := services.NewSpotifyPlayer(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		}); err == nil {
			player = p
		}
	}

	recommender := services.NewRecommenderClient(
		config.Recommender.BaseURL,
		config.Recommender.APIKey,
		config.Recommender.Model,
		nil,
	)

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Player:      player,
		Recommender: recommender,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:     "vibedj",
		Usage:    "Prompt-driven queue curation for Spotify playback",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
