// Package config loads the client configuration. Everything has a
// compiled-in default so the app runs with no config file at all.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the application configuration, optionally loaded from a TOML
// file.
type Config struct {
	Relay  RelayConfig  `toml:"relay"`
	Feed   FeedConfig   `toml:"feed"`
	Player PlayerConfig `toml:"player"`
}

// RelayConfig points at the realtime relay.
type RelayConfig struct {
	URL  string `toml:"url"`
	Room string `toml:"room"`
}

// FeedConfig names the podcast feed both clients load.
type FeedConfig struct {
	URL string `toml:"url"`
}

// PlayerConfig configures the audio backend.
type PlayerConfig struct {
	Binary string `toml:"binary"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			URL:  "http://localhost:8137",
			Room: "fils",
		},
		Feed: FeedConfig{
			URL: "https://letscast.fm/podcasts/die-rechtslage-lto-dc1b8125/feed",
		},
		Player: PlayerConfig{
			Binary: "mpv",
		},
	}
}

// Load reads a TOML config file on top of the defaults. Values absent from
// the file keep their default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
