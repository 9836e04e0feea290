// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io"
	"os"

	"github.com/snakespawn/snakespawn/internal/config"
)

type (
	// Config holds provisioning settings.
	Config struct {
		// Reuse keeps fingerprinted environments under CacheDir.
		Reuse bool

		// CacheDir is the root of reusable environments.
		// Default: $XDG_CACHE_HOME/snakespawn/envs
		CacheDir string

		// TempDir is the parent of throwaway environments when Reuse is off.
		// Empty means os.TempDir().
		TempDir string

		// Output receives venv and pip output.
		// Default: os.Stderr
		Output io.Writer
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Reuse:    true,
		CacheDir: config.DefaultCacheDir(),
		Output:   os.Stderr,
	}
}

// FromSettings builds a Config from the loaded application configuration.
func FromSettings(s config.EnvironmentsConfig, opts ...Option) *Config {
	settings := []Option{WithReuse(s.Reuse), WithTempDir(s.TempDir)}
	if s.CacheDir != "" {
		settings = append(settings, WithCacheDir(s.CacheDir))
	}
	cfg := DefaultConfig()
	cfg.Apply(settings...)
	cfg.Apply(opts...)
	return cfg
}

// WithReuse returns an Option that sets Reuse on the config.
func WithReuse(reuse bool) Option {
	return func(c *Config) {
		c.Reuse = reuse
	}
}

// WithCacheDir returns an Option that sets CacheDir on the config.
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

// WithTempDir returns an Option that sets TempDir on the config.
func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithOutput returns an Option that sets Output on the config.
func WithOutput(w io.Writer) Option {
	return func(c *Config) {
		c.Output = w
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
