// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultRetryPolicy(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1000, cfg.Retry.InitialDelayMs)
	assert.Equal(t, 30000, cfg.Retry.MaxDelayMs)
	assert.Equal(t, []int{408, 429, 500, 502, 503, 504}, cfg.Retry.RetryableStatuses)
	assert.Equal(t, 45, cfg.Backend.AttemptTimeoutSecs)
}

func TestTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Backend.BaseURL = "https://kg.example.com"
	cfg.Retry.MaxAttempts = 7
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, path))

	// 0600: the file may hold private backend addresses.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://kg.example.com", loaded.Backend.BaseURL)
	assert.Equal(t, 7, loaded.Retry.MaxAttempts)
	assert.Equal(t, "light", loaded.UI.Theme)
}

func TestPartialFileGetsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend]\nbase_url = \"http://10.0.0.5:9000\"\n"), 0600))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", loaded.Backend.BaseURL)
	assert.Equal(t, 5, loaded.Retry.MaxAttempts)
	assert.Equal(t, "dark", loaded.UI.Theme)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, "backend.base_url"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"max below initial", func(c *Config) { c.Retry.MaxDelayMs = 1 }, "retry.max_delay_ms"},
		{"multiplier one", func(c *Config) { c.Retry.BackoffMultiplier = 1 }, "retry.backoff_multiplier"},
		{"jitter too big", func(c *Config) { c.Retry.JitterFactor = 1 }, "retry.jitter_factor"},
		{"bad status", func(c *Config) { c.Retry.RetryableStatuses = []int{42} }, "retry.retryable_statuses"},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KGRAPH_BASE_URL", "http://env-host:8000")
	t.Setenv("KGRAPH_MAX_ATTEMPTS", "9")
	t.Setenv("KGRAPH_NO_MARKDOWN", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://env-host:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 9, cfg.Retry.MaxAttempts)
	assert.False(t, cfg.UI.Markdown)
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv("KGRAPH_MAX_ATTEMPTS", "lots")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestGetSetDotNotation(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("retry.max_attempts", "8"))
	v, err := cfg.Get("retry.max_attempts")
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	require.NoError(t, cfg.Set("ui.markdown", "false"))
	assert.False(t, cfg.UI.Markdown)

	require.Error(t, cfg.Set("retry.max_attempts", "soon"))
	_, err = cfg.Get("no.such.key")
	require.Error(t, err)
	require.Error(t, cfg.Set("no.such.key", "x"))
}

func TestGetAllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestClientConfigBridge(t *testing.T) {
	cfg := Default()
	cfg.Retry.InitialDelayMs = 250
	cc := cfg.ClientConfig()

	assert.Equal(t, cfg.Backend.BaseURL, cc.BaseURL)
	assert.Equal(t, 45*time.Second, cc.AttemptTimeout)
	assert.Equal(t, 250*time.Millisecond, cc.Retry.InitialDelay)
	assert.True(t, cc.Retry.RetryableStatuses[503])
	assert.False(t, cc.Retry.RetryableStatuses[404])
}

// TestConfig_ConcurrentAccess verifies Global/SetGlobal/ReloadGlobal are
// safe under the race detector.
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	SetGlobal(Default())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			_ = Global()
		}()
	}
	wg.Wait()
	ResetGlobalForTesting()
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Watch())
	defer w.Close()

	cfg := Default()
	cfg.Retry.MaxAttempts = 11
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, 11, got.Retry.MaxAttempts)
	case <-time.After(10 * time.Second):
		t.Fatal("watcher never fired")
	}
}

func TestWatcherCloseAfterFailedWatch(t *testing.T) {
	// Watch fails when the parent directory does not exist; the
	// watcher must still release its fsnotify handle cleanly.
	path := filepath.Join(t.TempDir(), "missing", "config.toml")
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	require.Error(t, w.Watch())
	assert.NoError(t, w.Close())
}
