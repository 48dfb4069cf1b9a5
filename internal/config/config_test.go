// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages the nabi client configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
	if cfg.Locale.Default != "ko" {
		t.Errorf("default locale should be ko, got %s", cfg.Locale.Default)
	}
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Backend.BaseURL == "" {
		t.Error("defaults not applied")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default file not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file should be 0600, got %v", info.Mode().Perm())
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[backend]
base_url = "https://chat.example.com/api/v1"
timeout_secs = 15
stream_idle_timeout_secs = 45

[locale]
default = "en"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Backend.BaseURL != "https://chat.example.com/api/v1" {
		t.Errorf("base_url not parsed: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSecs != 15 {
		t.Errorf("timeout not parsed: %d", cfg.Backend.TimeoutSecs)
	}
	if cfg.Locale.Default != "en" {
		t.Errorf("locale not parsed: %s", cfg.Locale.Default)
	}
	// Unspecified sections fall back to defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("missing section should default: %s", cfg.Logging.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	t.Setenv("NABI_BACKEND_URL", "http://127.0.0.1:9000/api/v1")
	t.Setenv("NABI_LOCALE", "en")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:9000/api/v1" {
		t.Errorf("env override missing: %s", cfg.Backend.BaseURL)
	}
	if cfg.Locale.Default != "en" {
		t.Errorf("locale env override missing: %s", cfg.Locale.Default)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Backend.BaseURL = "not a url" }, "backend.base_url"},
		{"non-web scheme", func(c *Config) { c.Backend.BaseURL = "ftp://host/x" }, "backend.base_url"},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSecs = 0 }, "backend.timeout_secs"},
		{"bad theme", func(c *Config) { c.UI.Theme = "sepia" }, "ui.theme"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"auto upload without dir", func(c *Config) {
			c.Documents.AutoUpload = true
			c.Documents.WatchDir = ""
		}, "documents.watch_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Backend.BaseURL = "https://api.example.org/v1"
	cfg.Supabase.URL = "https://proj.supabase.co"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Backend.BaseURL != cfg.Backend.BaseURL {
		t.Errorf("round trip lost base_url: %s", loaded.Backend.BaseURL)
	}
	if loaded.Supabase.URL != cfg.Supabase.URL {
		t.Errorf("round trip lost supabase url: %s", loaded.Supabase.URL)
	}
}

func TestGlobalReset(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	cfg := Default()
	cfg.Locale.Default = "en"
	SetGlobal(cfg)

	if Global().Locale.Default != "en" {
		t.Error("SetGlobal not visible through Global")
	}
}
