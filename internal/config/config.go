// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages the nabi client configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jeranaias/nabi-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config is the full client configuration tree.
type Config struct {
	Backend   BackendConfig   `toml:"backend" json:"backend"`
	Supabase  SupabaseConfig  `toml:"supabase" json:"supabase"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Documents DocumentsConfig `toml:"documents" json:"documents"`
	Locale    LocaleConfig    `toml:"locale" json:"locale"`
	Logging   LoggingConfig   `toml:"logging" json:"logging"`
}

// BackendConfig points the client at the chat backend.
type BackendConfig struct {
	// BaseURL of the REST/SSE API, e.g. http://localhost:8000/api/v1
	BaseURL string `toml:"base_url" json:"base_url" validate:"required,url"`

	// TimeoutSecs bounds non-streaming requests.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" validate:"gt=0"`

	// StreamIdleTimeoutSecs aborts a stream that delivers nothing for
	// this long. Guards against half-dead connections.
	StreamIdleTimeoutSecs int `toml:"stream_idle_timeout_secs" json:"stream_idle_timeout_secs" validate:"gt=0"`

	// RatePerSec bounds outgoing request bursts client-side.
	RatePerSec float64 `toml:"rate_per_sec" json:"rate_per_sec"`
}

// SupabaseConfig points the client at the identity provider.
type SupabaseConfig struct {
	URL     string `toml:"url" json:"url" validate:"omitempty,url"`
	AnonKey string `toml:"anon_key" json:"anon_key"`
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	// Theme: "dark", "light", or "auto".
	Theme string `toml:"theme" json:"theme"`

	// Markdown enables glamour rendering of assistant messages.
	Markdown bool `toml:"markdown" json:"markdown"`

	// TypingIndicator shows the animated placeholder while waiting
	// for the first token.
	TypingIndicator bool `toml:"typing_indicator" json:"typing_indicator"`
}

// DocumentsConfig controls the upload pipeline.
type DocumentsConfig struct {
	// WatchDir, when set, is monitored for files to auto-upload.
	WatchDir string `toml:"watch_dir" json:"watch_dir"`

	// AutoUpload enables the drop-folder watcher.
	AutoUpload bool `toml:"auto_upload" json:"auto_upload"`
}

// LocaleConfig holds the language default. The persisted client state
// overrides this once the user picks a language in-app.
type LocaleConfig struct {
	Default string `toml:"default" json:"default"`
}

// LoggingConfig controls the rotating file log.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:               "http://localhost:8000/api/v1",
			TimeoutSecs:           30,
			StreamIdleTimeoutSecs: 90,
			RatePerSec:            5,
		},
		Supabase: SupabaseConfig{},
		UI: UIConfig{
			Theme:           "auto",
			Markdown:        true,
			TypingIndicator: true,
		},
		Documents: DocumentsConfig{
			AutoUpload: false,
		},
		Locale: LocaleConfig{
			Default: "ko",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// AppDir returns ~/.nabi, creating nothing.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".nabi"), nil
}

// Path returns the config file location, honoring NABI_CONFIG.
func Path() (string, error) {
	if p := os.Getenv("NABI_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration through the full chain: defaults, TOML
// file (created when absent), .env, environment overrides, validation.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit file location (tests).
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// First run: write defaults so the user has a file to edit.
		if err := Save(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// Development convenience: a .env beside the working directory can
	// carry Supabase keys that should not live in config.toml.
	_ = godotenv.Load()

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as TOML with owner-only permissions.
func Save(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# nabi client configuration\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// SECURITY: 0600 - the file can carry a Supabase anon key.
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// applyEnvOverrides maps NABI_* variables over the loaded file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NABI_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("NABI_BACKEND_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}
	if v := os.Getenv("NABI_SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := os.Getenv("NABI_SUPABASE_ANON_KEY"); v != "" {
		c.Supabase.AnonKey = v
	}
	if v := os.Getenv("NABI_LOCALE"); v != "" {
		c.Locale.Default = v
	}
	if v := os.Getenv("NABI_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NABI_WATCH_DIR"); v != "" {
		c.Documents.WatchDir = v
		c.Documents.AutoUpload = true
	}
}

// setDefaults fills zero values that a hand-edited file may have
// removed.
func (c *Config) setDefaults() {
	def := Default()
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = def.Backend.BaseURL
	}
	if c.Backend.TimeoutSecs <= 0 {
		c.Backend.TimeoutSecs = def.Backend.TimeoutSecs
	}
	if c.Backend.StreamIdleTimeoutSecs <= 0 {
		c.Backend.StreamIdleTimeoutSecs = def.Backend.StreamIdleTimeoutSecs
	}
	if c.Backend.RatePerSec <= 0 {
		c.Backend.RatePerSec = def.Backend.RatePerSec
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.Locale.Default == "" {
		c.Locale.Default = def.Locale.Default
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = def.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = def.Logging.MaxBackups
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = def.Logging.MaxAgeDays
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

var fieldValidator = validator.New()

// Validate checks the configuration tree and returns all problems.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := fieldValidator.Var(c.Backend.BaseURL, "required,url"); err != nil {
		errs = append(errs, ValidationError{"backend.base_url", "must be a valid URL"})
	} else if !hasWebScheme(c.Backend.BaseURL) {
		errs = append(errs, ValidationError{"backend.base_url", "must use http or https"})
	}
	if c.Backend.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"backend.timeout_secs", "must be positive"})
	}
	if c.Backend.StreamIdleTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"backend.stream_idle_timeout_secs", "must be positive"})
	}
	if c.Supabase.URL != "" {
		if err := fieldValidator.Var(c.Supabase.URL, "url"); err != nil || !hasWebScheme(c.Supabase.URL) {
			errs = append(errs, ValidationError{"supabase.url", "must be a valid http(s) URL"})
		}
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{"ui.theme", "must be dark, light, or auto"})
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{"logging.level", "must be debug, info, warn, or error"})
	}
	if c.Documents.AutoUpload && c.Documents.WatchDir == "" {
		errs = append(errs, ValidationError{"documents.watch_dir", "required when auto_upload is enabled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func hasWebScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalMu   sync.RWMutex
	globalCfg  *Config
	globalOnce sync.Once
)

// Global returns the process-wide configuration, loading it on first
// use. Components constructed before wiring completes read this.
func Global() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalMu.Lock()
		globalCfg = cfg
		globalMu.Unlock()
	})

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalOnce.Do(func() {})
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// ResetGlobalForTesting clears the cached global config.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = nil
	globalOnce = sync.Once{}
}
