package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Recommender RecommenderConfig `toml:"recommender"`
	Database    DatabaseConfig    `toml:"database"`
	Engine      EngineConfig      `toml:"engine"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// RecommenderConfig contains settings for the recommendation service client.
type RecommenderConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// EngineConfig contains tuning for the queue reconciliation engine.
// All durations are expressed in seconds in the TOML file.
type EngineConfig struct {
	QueuePollPlayingSecs    int  `toml:"queue_poll_playing_secs"`
	QueuePollIdleSecs       int  `toml:"queue_poll_idle_secs"`
	PlaybackPollPlayingSecs int  `toml:"playback_poll_playing_secs"`
	PlaybackPollIdleSecs    int  `toml:"playback_poll_idle_secs"`
	SettleDelaySecs         int  `toml:"settle_delay_secs"`
	AutoContinueDelaySecs   int  `toml:"auto_continue_delay_secs"`
	MembershipRetentionMins int  `toml:"membership_retention_mins"`
	AutoContinue            bool `toml:"auto_continue"`
}

// QueuePollPlaying returns the queue poll interval while a track is playing.
func (e EngineConfig) QueuePollPlaying() time.Duration {
	return secsOr(e.QueuePollPlayingSecs, 3)
}

// QueuePollIdle returns the queue poll interval while playback is idle.
func (e EngineConfig) QueuePollIdle() time.Duration {
	return secsOr(e.QueuePollIdleSecs, 10)
}

// PlaybackPollPlaying returns the playback-state poll interval while playing.
func (e EngineConfig) PlaybackPollPlaying() time.Duration {
	return secsOr(e.PlaybackPollPlayingSecs, 1)
}

// PlaybackPollIdle returns the playback-state poll interval while idle.
func (e EngineConfig) PlaybackPollIdle() time.Duration {
	return secsOr(e.PlaybackPollIdleSecs, 5)
}

// SettleDelay returns the wait applied before reconciling optimistic state.
func (e EngineConfig) SettleDelay() time.Duration {
	return secsOr(e.SettleDelaySecs, 2)
}

// AutoContinueDelay returns the wait before an auto-continue request fires.
func (e EngineConfig) AutoContinueDelay() time.Duration {
	return secsOr(e.AutoContinueDelaySecs, 2)
}

// MembershipRetention returns how long queue-membership records are kept.
func (e EngineConfig) MembershipRetention() time.Duration {
	if e.MembershipRetentionMins <= 0 {
		return time.Hour
	}
	return time.Duration(e.MembershipRetentionMins) * time.Minute
}

func secsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
