// Package config loads bfind configuration from a YAML file. Command-line
// flags override file values; the file only supplies defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents bfind configuration options
type Config struct {
	// ShowHidden includes dotfiles in traversal
	ShowHidden bool `yaml:"show_hidden"`

	// FollowSymlinks expands symlinks that resolve to directories
	FollowSymlinks bool `yaml:"follow_symlinks"`

	// MaxDepth limits traversal depth (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`

	// Ignore lists exact base names to skip entirely
	Ignore []string `yaml:"ignore"`

	// BufferSize is the capacity of each pipeline stage channel
	BufferSize int `yaml:"buffer_size"`

	// QueueMemLimit caps the in-memory frontier before spilling to disk
	QueueMemLimit int `yaml:"queue_mem_limit"`

	// LogLevel sets diagnostic verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		ShowHidden:     false,
		FollowSymlinks: false,
		MaxDepth:       0, // Unlimited
		Ignore:         nil,
		BufferSize:     256,
		QueueMemLimit:  512 * 1024,
		LogLevel:       "info",
	}
}

// DefaultPath returns the default config file location (~/.bfind.yaml), or
// empty if the home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bfind.yaml")
}

// LoadConfig reads a YAML config file, applying defaults for absent keys.
// A missing file is not an error: defaults are returned unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("invalid config %s: max_depth must be >= 0", path)
	}
	return cfg, nil
}
