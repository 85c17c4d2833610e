package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs([]string{"--nostr-key", "deadbeef"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Limit != 10 {
		t.Errorf("Expected default limit 10, got %d", cfg.Limit)
	}
	if cfg.Delay != 5 {
		t.Errorf("Expected default delay 5, got %d", cfg.Delay)
	}
	if cfg.MinContentLength != 300 {
		t.Errorf("Expected default min content length 300, got %d", cfg.MinContentLength)
	}
	if cfg.SitesDir != "./sites" {
		t.Errorf("Expected default sites dir './sites', got '%s'", cfg.SitesDir)
	}
	if len(cfg.Relays) != 0 {
		t.Errorf("Expected no relay override by default, got %v", cfg.Relays)
	}
}

func TestLoadArgsRelays(t *testing.T) {
	cfg, err := LoadArgs([]string{"--dry-run", "--relays", "wss://a.example, wss://b.example ,"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(cfg.Relays) != 2 {
		t.Fatalf("Expected 2 relays, got %d: %v", len(cfg.Relays), cfg.Relays)
	}
	if cfg.Relays[0] != "wss://a.example" || cfg.Relays[1] != "wss://b.example" {
		t.Errorf("Relays not trimmed correctly: %v", cfg.Relays)
	}
}

func TestLoadArgsMissingKey(t *testing.T) {
	_, err := LoadArgs([]string{})
	if err == nil {
		t.Fatal("Expected error when nostr key is missing without --dry-run")
	}
}

func TestLoadArgsDryRunWithoutKey(t *testing.T) {
	cfg, err := LoadArgs([]string{"--dry-run"})
	if err != nil {
		t.Fatalf("Expected dry-run to not require a key, got: %v", err)
	}
	if !cfg.DryRun {
		t.Error("Expected DryRun to be set")
	}
}

func TestLoadArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero limit", []string{"--dry-run", "--limit", "0"}},
		{"negative limit", []string{"--dry-run", "--limit", "-3"}},
		{"negative delay", []string{"--dry-run", "--delay", "-1"}},
		{"zero interval in daemon mode", []string{"--dry-run", "--serve", "--interval", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadArgs(tt.args); err == nil {
				t.Errorf("Expected validation error for args %v", tt.args)
			}
		})
	}
}
