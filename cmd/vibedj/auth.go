package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ixacik/vibe-dj/internal/server"
	"github.com/ixacik/vibe-dj/internal/services"
	"github.com/ixacik/vibe-dj/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// authTimeout is how long the auth command waits for the user to approve
// access in the browser.
const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server on the configured redirect address, prints the
// authorization URL for the user to open, and saves the exchanged tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.resolveConfig(configPath)

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, configPath)
	}

	player := r.player
	if player == nil {
		var err error
		player, err = services.NewSpotifyPlayer(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		})
		if err != nil {
			return fmt.Errorf("failed to create Spotify player: %w", err)
		}
		r.player = player
	}

	addr, err := callbackAddr(player.OAuthConfig().RedirectURL)
	if err != nil {
		return fmt.Errorf("%w: bad redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(player.OAuthConfig(), state)
	callback := server.NewCallbackServer(addr, handler)

	r.writePlain("Open this URL in your browser to authorize:\n\n%s\n\n", player.GetAuthURL(state))
	r.logger.Info("waiting for authorization callback", "addr", addr)

	result, err := callback.Wait(ctx, authTimeout)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	if err := saveToken(r.tokenPath(), result.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.tokenPath())
	r.writePlain("You can now use: vibedj run\n")

	return nil
}

// tokenPath returns where OAuth tokens are persisted, defaulting to
// ~/.vibedj/token.json when the config does not set one.
func (r *Runner) tokenPath() string {
	if r.config != nil && r.config.Credentials.Spotify.TokenPath != "" {
		return r.config.Credentials.Spotify.TokenPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "token.json"
	}
	return filepath.Join(homeDir, ".vibedj", "token.json")
}

// callbackAddr derives the local listen address from the redirect URI.
func callbackAddr(redirectURI string) (string, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("redirect URI %q has no host", redirectURI)
	}
	return parsed.Host, nil
}

// saveToken writes the OAuth token as JSON, creating the parent directory.
func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// loadToken reads a previously saved OAuth token.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}
