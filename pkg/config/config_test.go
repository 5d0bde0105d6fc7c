package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.PollIntervalMs)
	assert.Equal(t, 200, cfg.Recording.MaxSteps)
	assert.Equal(t, 30, cfg.Recording.MaxRecordingMinutes)
	assert.Equal(t, 30000, cfg.Recording.TimeoutMs)
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
recording:
  max_steps: 50
  max_recording_minutes: 5
  use_virtual_display: true
  ignore_url_patterns:
    - "*analytics*"
poll_interval_ms: 250
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Recording.MaxSteps)
	assert.Equal(t, 5, cfg.Recording.MaxRecordingMinutes)
	assert.True(t, cfg.Recording.UseVirtualDisplay)
	assert.Equal(t, []string{"*analytics*"}, cfg.Recording.IgnoreURLPatterns)
	assert.Equal(t, 250, cfg.PollIntervalMs)

	// Unset timeout normalizes to the extended virtual-display default
	assert.Equal(t, 60000, cfg.Recording.TimeoutMs)
}

func TestLoadKeepsExplicitTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
recording:
  use_virtual_display: true
  timeout_ms: 15000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15000, cfg.Recording.TimeoutMs, "an explicit timeout must survive normalization")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recording: [not a map"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNegativeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval_ms: -5"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Recording.MaxSteps = 42
	cfg.PollIntervalMs = 500
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Recording.MaxSteps)
	assert.Equal(t, 500, loaded.PollIntervalMs)
}

func TestResolveDataDirCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	cfg := &Config{DataDir: dir}

	resolved, err := cfg.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, resolved)

	info, err := os.Stat(resolved)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
