// Package config handles configuration loading, validation and persistence for
// inputprefs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete inputctl configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Storage selects where the preference list is persisted.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Activation selects the live input method backend.
	Activation ActivationConfig `toml:"activation" json:"activation" yaml:"activation"`

	// Catalog extends the built-in locale and layout catalog.
	Catalog CatalogConfig `toml:"catalog" json:"catalog" yaml:"catalog"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Profile configures declarative profile application.
	Profile ProfileConfig `toml:"profile" json:"profile" yaml:"profile"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Backend is "sqlite", "registry" or "memory".
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	// Path is the database file for the sqlite backend.
	Path string `toml:"path" json:"path" yaml:"path"`

	// BusyTimeoutMs is the SQLite busy timeout in milliseconds.
	BusyTimeoutMs int `toml:"busy_timeout_ms" json:"busy_timeout_ms" yaml:"busy_timeout_ms"`
}

// ActivationConfig holds live subsystem configuration.
type ActivationConfig struct {
	// Backend is "auto", "windows" or "session". Auto picks windows on Windows
	// and the persisted session elsewhere.
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	// Broadcast is "auto", "dbus" or "none".
	Broadcast string `toml:"broadcast" json:"broadcast" yaml:"broadcast"`

	// FallbackKey seeds an empty session when nothing is persisted yet.
	FallbackKey string `toml:"fallback_key" json:"fallback_key" yaml:"fallback_key"`
}

// CatalogConfig holds catalog configuration.
type CatalogConfig struct {
	// ExtraPath is an optional YAML catalog merged into the built-in one.
	ExtraPath string `toml:"extra_path" json:"extra_path" yaml:"extra_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// ProfileConfig holds profile configuration.
type ProfileConfig struct {
	// Path is the profile applied by "inputctl apply" when no argument is given.
	Path string `toml:"path" json:"path" yaml:"path"`

	// Watch keeps "inputctl apply" running and re-applies the profile on change.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`

	// DebounceMs is the quiet period before a changed profile is re-applied.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		Version: Version,
		Storage: StorageConfig{
			Backend:       "sqlite",
			Path:          filepath.Join(dir, "inputprefs.db"),
			BusyTimeoutMs: 5000,
		},
		Activation: ActivationConfig{
			Backend:     "auto",
			Broadcast:   "auto",
			FallbackKey: "00000409",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(dir, "inputprefs.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Profile: ProfileConfig{
			Path:       filepath.Join(ConfigDir(), "profile.toml"),
			DebounceMs: 100,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.Storage.Backend == "sqlite" {
		dirs = append(dirs, filepath.Dir(c.Storage.Path))
	}
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with INPUTPREFS_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INPUTPREFS_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("INPUTPREFS_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("INPUTPREFS_ACTIVATION_BACKEND"); v != "" {
		c.Activation.Backend = v
	}
	if v := os.Getenv("INPUTPREFS_BROADCAST"); v != "" {
		c.Activation.Broadcast = v
	}
	if v := os.Getenv("INPUTPREFS_CATALOG_PATH"); v != "" {
		c.Catalog.ExtraPath = v
	}
	if v := os.Getenv("INPUTPREFS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INPUTPREFS_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("INPUTPREFS_PROFILE"); v != "" {
		c.Profile.Path = v
	}
	if v := os.Getenv("INPUTPREFS_PROFILE_WATCH"); v != "" {
		if watch, err := strconv.ParseBool(v); err == nil {
			c.Profile.Watch = watch
		}
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
