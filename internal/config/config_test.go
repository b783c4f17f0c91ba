package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path failed: %v", err)
	}

	if cfg.SoftBounce {
		t.Error("SoftBounce enabled by default")
	}
	if cfg.Services.BounceSocket != "/var/run/golubbounced/bounce.sock" {
		t.Errorf("Unexpected default bounce socket: %s", cfg.Services.BounceSocket)
	}
	if cfg.Services.Timeout != 30*time.Second {
		t.Errorf("Unexpected default timeout: %v", cfg.Services.Timeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Unexpected default logging config: %+v", cfg.Logging)
	}
}

func TestLoadFile(t *testing.T) {
	content := `
soft_bounce: true
services:
  bounce_socket: /tmp/test/bounce.sock
  timeout: 5s
logging:
  level: debug
  format: pretty
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.SoftBounce {
		t.Error("soft_bounce not picked up from file")
	}
	if cfg.Services.BounceSocket != "/tmp/test/bounce.sock" {
		t.Errorf("bounce_socket = %s, want override from file", cfg.Services.BounceSocket)
	}
	if cfg.Services.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Services.Timeout)
	}
	// Unset fields keep their defaults
	if cfg.Services.DeferSocket != "/var/run/golubbounced/defer.sock" {
		t.Errorf("defer_socket = %s, want default", cfg.Services.DeferSocket)
	}
	if cfg.Logging.Format != "pretty" {
		t.Errorf("logging format = %s, want pretty", cfg.Logging.Format)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty bounce socket", "services:\n  bounce_socket: \"\"\n"},
		{"zero timeout", "services:\n  timeout: 0s\n"},
		{"bad log level", "logging:\n  level: noisy\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"not yaml", "{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := Load(configPath); err == nil {
				t.Error("Load accepted an invalid configuration")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load accepted a missing config file")
	}
}
