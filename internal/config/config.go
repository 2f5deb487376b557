// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete kgraph configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Backend BackendConfig `toml:"backend" json:"backend"`
	Retry   RetryConfig   `toml:"retry" json:"retry"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Cache   CacheConfig   `toml:"cache" json:"cache"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
}

// BackendConfig addresses the kgraph backend.
type BackendConfig struct {
	BaseURL            string  `toml:"base_url" json:"base_url"`
	AttemptTimeoutSecs int     `toml:"attempt_timeout_secs" json:"attempt_timeout_secs"`
	RequestsPerSecond  float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// RetryConfig is the cold-start retry policy.
type RetryConfig struct {
	MaxAttempts       int     `toml:"max_attempts" json:"max_attempts"`
	InitialDelayMs    int     `toml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMs        int     `toml:"max_delay_ms" json:"max_delay_ms"`
	BackoffMultiplier float64 `toml:"backoff_multiplier" json:"backoff_multiplier"`
	JitterFactor      float64 `toml:"jitter_factor" json:"jitter_factor"`
	RetryableStatuses []int   `toml:"retryable_statuses" json:"retryable_statuses"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	Theme       string `toml:"theme" json:"theme"`
	Markdown    bool   `toml:"markdown" json:"markdown"`
	MaxWidth    int    `toml:"max_width" json:"max_width"`
	ShowSources bool   `toml:"show_sources" json:"show_sources"`
}

// CacheConfig controls the dashboard response cache.
type CacheConfig struct {
	Enabled    bool   `toml:"enabled" json:"enabled"`
	Path       string `toml:"path" json:"path"`
	TTLMinutes int    `toml:"ttl_minutes" json:"ttl_minutes"`
}

// ChatConfig holds REPL settings.
type ChatConfig struct {
	HistoryFile string `toml:"history_file" json:"history_file"`
	MaxHistory  int    `toml:"max_history" json:"max_history"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			BaseURL:            "http://127.0.0.1:8080",
			AttemptTimeoutSecs: 45,
			RequestsPerSecond:  4,
		},

		Retry: RetryConfig{
			MaxAttempts:       5,
			InitialDelayMs:    1000,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			JitterFactor:      0.2,
			RetryableStatuses: []int{408, 429, 500, 502, 503, 504},
		},

		UI: UIConfig{
			Theme:       "dark",
			Markdown:    true,
			MaxWidth:    100,
			ShowSources: true,
		},

		Cache: CacheConfig{
			Enabled:    true,
			Path:       "", // resolved to ~/.kgraph/cache.db at open
			TTLMinutes: 10,
		},

		Chat: ChatConfig{
			HistoryFile: "", // resolved to ~/.kgraph/history
			MaxHistory:  500,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the kgraph configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kgraph"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// CachePath resolves the cache database path, defaulting to
// ~/.kgraph/cache.db.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// HistoryPath resolves the REPL history file path, defaulting to
// ~/.kgraph/history.
func (c *Config) HistoryPath() (string, error) {
	if c.Chat.HistoryFile != "" {
		return c.Chat.HistoryFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finish(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finish(cfg)
		}
	}

	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file, picking the
// decoder from the extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

// finish applies env overrides, defaults for missing fields, and
// validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600
// permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# kgraph configuration file\n")
	buf.WriteString("# Generated by kgraph - edit with care\n")
	buf.WriteString("\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Atomic write so a crash mid-save never leaves a torn config.
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, ValidationError{"backend.base_url", "must start with http:// or https://"})
	}
	if c.Backend.AttemptTimeoutSecs < 1 {
		errs = append(errs, ValidationError{"backend.attempt_timeout_secs", "must be at least 1"})
	}
	if c.Backend.RequestsPerSecond <= 0 {
		errs = append(errs, ValidationError{"backend.requests_per_second", "must be positive"})
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, ValidationError{"retry.max_attempts", "must be at least 1"})
	}
	if c.Retry.InitialDelayMs < 1 {
		errs = append(errs, ValidationError{"retry.initial_delay_ms", "must be at least 1"})
	}
	if c.Retry.MaxDelayMs < c.Retry.InitialDelayMs {
		errs = append(errs, ValidationError{"retry.max_delay_ms", "must be >= initial_delay_ms"})
	}
	if c.Retry.BackoffMultiplier <= 1 {
		errs = append(errs, ValidationError{"retry.backoff_multiplier", "must be greater than 1"})
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor >= 1 {
		errs = append(errs, ValidationError{"retry.jitter_factor", "must be in [0, 1)"})
	}
	for _, s := range c.Retry.RetryableStatuses {
		if s < 100 || s > 599 {
			errs = append(errs, ValidationError{"retry.retryable_statuses", fmt.Sprintf("invalid status code %d", s)})
		}
	}

	if c.UI.Theme != "dark" && c.UI.Theme != "light" && c.UI.Theme != "auto" {
		errs = append(errs, ValidationError{"ui.theme", "must be dark, light, or auto"})
	}
	if c.UI.MaxWidth < 0 {
		errs = append(errs, ValidationError{"ui.max_width", "must not be negative"})
	}

	if c.Cache.TTLMinutes < 0 {
		errs = append(errs, ValidationError{"cache.ttl_minutes", "must not be negative"})
	}
	if c.Chat.MaxHistory < 0 {
		errs = append(errs, ValidationError{"chat.max_history", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills any zero-valued fields with defaults. Useful after
// decoding a partial config file.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = d.Backend.BaseURL
	}
	if c.Backend.AttemptTimeoutSecs == 0 {
		c.Backend.AttemptTimeoutSecs = d.Backend.AttemptTimeoutSecs
	}
	if c.Backend.RequestsPerSecond == 0 {
		c.Backend.RequestsPerSecond = d.Backend.RequestsPerSecond
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if c.Retry.InitialDelayMs == 0 {
		c.Retry.InitialDelayMs = d.Retry.InitialDelayMs
	}
	if c.Retry.MaxDelayMs == 0 {
		c.Retry.MaxDelayMs = d.Retry.MaxDelayMs
	}
	if c.Retry.BackoffMultiplier == 0 {
		c.Retry.BackoffMultiplier = d.Retry.BackoffMultiplier
	}
	if c.Retry.RetryableStatuses == nil {
		c.Retry.RetryableStatuses = d.Retry.RetryableStatuses
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.MaxWidth == 0 {
		c.UI.MaxWidth = d.UI.MaxWidth
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = d.Cache.TTLMinutes
	}
	if c.Chat.MaxHistory == 0 {
		c.Chat.MaxHistory = d.Chat.MaxHistory
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies KGRAPH_* environment variables on top of
// the loaded config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KGRAPH_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("KGRAPH_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Backend.AttemptTimeoutSecs = n
		}
	}
	if v := os.Getenv("KGRAPH_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("KGRAPH_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("KGRAPH_NO_MARKDOWN"); v != "" {
		c.UI.Markdown = !(v == "1" || strings.EqualFold(v, "true"))
	}
	if v := os.Getenv("KGRAPH_NO_CACHE"); v != "" {
		c.Cache.Enabled = !(v == "1" || strings.EqualFold(v, "true"))
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation
// (e.g. "backend.base_url").
func (c *Config) Get(key string) (any, error) {
	switch key {
	case "backend.base_url":
		return c.Backend.BaseURL, nil
	case "backend.attempt_timeout_secs":
		return c.Backend.AttemptTimeoutSecs, nil
	case "backend.requests_per_second":
		return c.Backend.RequestsPerSecond, nil
	case "retry.max_attempts":
		return c.Retry.MaxAttempts, nil
	case "retry.initial_delay_ms":
		return c.Retry.InitialDelayMs, nil
	case "retry.max_delay_ms":
		return c.Retry.MaxDelayMs, nil
	case "retry.backoff_multiplier":
		return c.Retry.BackoffMultiplier, nil
	case "retry.jitter_factor":
		return c.Retry.JitterFactor, nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.markdown":
		return c.UI.Markdown, nil
	case "ui.max_width":
		return c.UI.MaxWidth, nil
	case "ui.show_sources":
		return c.UI.ShowSources, nil
	case "cache.enabled":
		return c.Cache.Enabled, nil
	case "cache.ttl_minutes":
		return c.Cache.TTLMinutes, nil
	case "chat.max_history":
		return c.Chat.MaxHistory, nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a configuration value using dot notation. The value is
// parsed according to the field's type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "backend.base_url":
		c.Backend.BaseURL = value
	case "backend.attempt_timeout_secs":
		return setInt(&c.Backend.AttemptTimeoutSecs, key, value)
	case "backend.requests_per_second":
		return setFloat(&c.Backend.RequestsPerSecond, key, value)
	case "retry.max_attempts":
		return setInt(&c.Retry.MaxAttempts, key, value)
	case "retry.initial_delay_ms":
		return setInt(&c.Retry.InitialDelayMs, key, value)
	case "retry.max_delay_ms":
		return setInt(&c.Retry.MaxDelayMs, key, value)
	case "retry.backoff_multiplier":
		return setFloat(&c.Retry.BackoffMultiplier, key, value)
	case "retry.jitter_factor":
		return setFloat(&c.Retry.JitterFactor, key, value)
	case "ui.theme":
		c.UI.Theme = value
	case "ui.markdown":
		return setBool(&c.UI.Markdown, key, value)
	case "ui.max_width":
		return setInt(&c.UI.MaxWidth, key, value)
	case "ui.show_sources":
		return setBool(&c.UI.ShowSources, key, value)
	case "cache.enabled":
		return setBool(&c.Cache.Enabled, key, value)
	case "cache.ttl_minutes":
		return setInt(&c.Cache.TTLMinutes, key, value)
	case "chat.max_history":
		return setInt(&c.Chat.MaxHistory, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: expected integer, got %q", key, value)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: expected number, got %q", key, value)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: expected boolean, got %q", key, value)
	}
	*dst = b
	return nil
}

// GetAllKeys returns every settable dot-notation key.
func GetAllKeys() []string {
	return []string{
		"backend.base_url",
		"backend.attempt_timeout_secs",
		"backend.requests_per_second",
		"retry.max_attempts",
		"retry.initial_delay_ms",
		"retry.max_delay_ms",
		"retry.backoff_multiplier",
		"retry.jitter_factor",
		"ui.theme",
		"ui.markdown",
		"ui.max_width",
		"ui.show_sources",
		"cache.enabled",
		"cache.ttl_minutes",
		"chat.max_history",
	}
}

// =============================================================================
// API CLIENT BRIDGE
// =============================================================================

// ClientConfig converts the loaded configuration into api client
// options.
func (c *Config) ClientConfig() api.ClientConfig {
	statuses := make(map[int]bool, len(c.Retry.RetryableStatuses))
	for _, s := range c.Retry.RetryableStatuses {
		statuses[s] = true
	}
	return api.ClientConfig{
		BaseURL:           c.Backend.BaseURL,
		AttemptTimeout:    time.Duration(c.Backend.AttemptTimeoutSecs) * time.Second,
		RequestsPerSecond: c.Backend.RequestsPerSecond,
		Retry: api.RetryConfig{
			MaxAttempts:       c.Retry.MaxAttempts,
			InitialDelay:      time.Duration(c.Retry.InitialDelayMs) * time.Millisecond,
			MaxDelay:          time.Duration(c.Retry.MaxDelayMs) * time.Millisecond,
			BackoffMultiplier: c.Retry.BackoffMultiplier,
			JitterFactor:      c.Retry.JitterFactor,
			RetryableStatuses: statuses,
		},
	}
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
