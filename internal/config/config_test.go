package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Relay.URL == "" {
		t.Error("Expected a default relay URL")
	}
	if cfg.Relay.Room == "" {
		t.Error("Expected a default room name")
	}
	if cfg.Feed.URL == "" {
		t.Error("Expected a default feed URL")
	}
	if cfg.Player.Binary != "mpv" {
		t.Errorf("Expected default player binary 'mpv', got '%s'", cfg.Player.Binary)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[relay]
url = "http://relay.example.com"
room = "testroom"

[feed]
url = "https://example.com/feed.xml"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Relay.URL != "http://relay.example.com" {
		t.Errorf("Expected overridden relay URL, got '%s'", cfg.Relay.URL)
	}
	if cfg.Relay.Room != "testroom" {
		t.Errorf("Expected overridden room, got '%s'", cfg.Relay.Room)
	}
	if cfg.Feed.URL != "https://example.com/feed.xml" {
		t.Errorf("Expected overridden feed URL, got '%s'", cfg.Feed.URL)
	}

	// Values absent from the file keep their default
	if cfg.Player.Binary != "mpv" {
		t.Errorf("Expected default player binary, got '%s'", cfg.Player.Binary)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("this is { not toml"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed config")
	}
}
