package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/replay/pkg/types"
)

// Config holds the recorder's user-level configuration, loaded from
// ~/.replay/config.yaml. A missing file yields the defaults; a malformed
// file is an error rather than a silent fallback.
type Config struct {
	// Recording holds the default settings applied to new sessions when
	// the caller leaves options unset.
	Recording types.RecordingSettings `yaml:"recording" json:"recording"`

	// DataDir overrides the directory test cases and screenshots are
	// stored under. Defaults to ~/.replay.
	DataDir string `yaml:"data_dir,omitempty" json:"data_dir,omitempty"`

	// PollIntervalMs overrides the interaction poll interval.
	PollIntervalMs int `yaml:"poll_interval_ms,omitempty" json:"poll_interval_ms,omitempty"`
}

// DefaultConfig returns a configuration suitable for most environments.
func DefaultConfig() *Config {
	return &Config{
		Recording:      types.RecordingSettings{}.Normalize(),
		PollIntervalMs: 1000,
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".replay", "config.yaml"), nil
}

// Load reads the configuration from the given path. If path is empty the
// default location is used. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	// Unmarshal over an un-normalized base so the file's own combination
	// of options drives the defaults: a virtual-display config with no
	// explicit timeout must normalize to the extended timeout, which a
	// pre-filled TimeoutMs would mask.
	cfg := &Config{PollIntervalMs: 1000}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Recording = cfg.Recording.Normalize()
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = 1000
	}
	return cfg, nil
}

// Save writes the configuration to the given path, creating parent
// directories as needed. If path is empty the default location is used.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Recording.TimeoutMs < 0 {
		return fmt.Errorf("recording.timeout_ms cannot be negative")
	}
	if c.Recording.MaxSteps < 0 {
		return fmt.Errorf("recording.max_steps cannot be negative")
	}
	if c.Recording.MaxRecordingMinutes < 0 {
		return fmt.Errorf("recording.max_recording_minutes cannot be negative")
	}
	if c.PollIntervalMs < 0 {
		return fmt.Errorf("poll_interval_ms cannot be negative")
	}
	return nil
}

// ResolveDataDir returns the directory recorder artifacts live under,
// creating it if necessary.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".replay")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}
