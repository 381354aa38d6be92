package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()
		if config == nil {
			t.Fatal("expected default config")
		}
		if config.Database.Path == "" {
			t.Error("expected default database path")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		content := `
[credentials.spotify]
client_id = "cid"
client_secret = "secret"

[engine]
queue_poll_playing_secs = 4
auto_continue = true
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Credentials.Spotify.ClientID != "cid" {
			t.Errorf("unexpected client id %q", config.Credentials.Spotify.ClientID)
		}
		if !config.Engine.AutoContinue {
			t.Error("expected auto_continue enabled")
		}
		if config.Engine.QueuePollPlaying() != 4*time.Second {
			t.Errorf("unexpected poll interval %v", config.Engine.QueuePollPlaying())
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Engine Defaults", func(t *testing.T) {
		var engine EngineConfig

		cases := []struct {
			name string
			got  time.Duration
			want time.Duration
		}{
			{"queue poll playing", engine.QueuePollPlaying(), 3 * time.Second},
			{"queue poll idle", engine.QueuePollIdle(), 10 * time.Second},
			{"playback poll playing", engine.PlaybackPollPlaying(), time.Second},
			{"playback poll idle", engine.PlaybackPollIdle(), 5 * time.Second},
			{"settle delay", engine.SettleDelay(), 2 * time.Second},
			{"auto continue delay", engine.AutoContinueDelay(), 2 * time.Second},
			{"membership retention", engine.MembershipRetention(), time.Hour},
		}

		for _, c := range cases {
			if c.got != c.want {
				t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
			}
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := LoadConfig(path); err != nil {
			t.Errorf("expected created config to parse, got %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config already exists")
		}
	})
}
