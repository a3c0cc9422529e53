// Package config loads and saves the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/birdseye/internal/filter"
	"github.com/sadopc/birdseye/internal/logging"
	"github.com/sadopc/birdseye/internal/scanner"
)

// Config is the on-disk configuration.
type Config struct {
	ShowHidden     bool     `yaml:"show_hidden"`
	FollowSymlinks bool     `yaml:"follow_symlinks"`
	Exclude        []string `yaml:"exclude"`
	Concurrency    int      `yaml:"concurrency"`

	AllowDelete bool `yaml:"allow_delete"`

	// Display limits for the ranked panels.
	MaxFiles int `yaml:"max_files"`
	MaxDirs  int `yaml:"max_dirs"`
	MaxTypes int `yaml:"max_types"`

	// Filters are specs such as "min-size=5", applied in order.
	Filters []string `yaml:"filters"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	SSH SSHConfig `yaml:"ssh"`
}

// SSHConfig holds remote scan settings.
type SSHConfig struct {
	Port               int  `yaml:"port"`
	Batch              bool `yaml:"batch"`
	TimeoutSeconds     int  `yaml:"timeout_seconds"`
	ScanTimeoutSeconds int  `yaml:"scan_timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ShowHidden: true,
		MaxFiles:   40,
		MaxDirs:    20,
		MaxTypes:   10,
		LogLevel:   "info",
		SSH: SSHConfig{
			Port:               22,
			TimeoutSeconds:     15,
			ScanTimeoutSeconds: 0,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/birdseye/config.yaml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate config directory: %w", err)
	}
	return filepath.Join(dir, "birdseye", "config.yaml"), nil
}

// Load reads path. A missing file yields Default(); keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks value ranges and parses filters and the log level.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	if c.MaxFiles < 0 || c.MaxDirs < 0 || c.MaxTypes < 0 {
		return fmt.Errorf("display limits must be >= 0")
	}
	if _, err := filter.ParseChain(c.Filters); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh port must be between 1 and 65535")
	}
	if c.SSH.TimeoutSeconds < 0 || c.SSH.ScanTimeoutSeconds < 0 {
		return fmt.Errorf("ssh timeouts must be >= 0")
	}
	return nil
}

// ScanOptions maps the walk settings onto scanner options.
func (c *Config) ScanOptions() scanner.Options {
	return scanner.Options{
		ShowHidden:     c.ShowHidden,
		FollowSymlinks: c.FollowSymlinks,
		Exclude:        append([]string(nil), c.Exclude...),
		Concurrency:    c.Concurrency,
	}
}

// FilterChain returns the configured filters. Validate has already
// rejected malformed specs.
func (c *Config) FilterChain() filter.Chain {
	chain, err := filter.ParseChain(c.Filters)
	if err != nil {
		return nil
	}
	return chain
}

// Timeout returns the SSH connect timeout.
func (s SSHConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ScanTimeout returns the remote scan timeout, 0 meaning none.
func (s SSHConfig) ScanTimeout() time.Duration {
	return time.Duration(s.ScanTimeoutSeconds) * time.Second
}
