// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// LogLevelDebug logs every pipeline step.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs environment creation and reuse.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only recoverable problems such as failed probes.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs fatal errors only.
	LogLevelError LogLevel = "error"

	// MinProbeConcurrency is the smallest accepted probe.concurrency.
	MinProbeConcurrency = 1
	// MaxProbeConcurrency is the largest accepted probe.concurrency.
	MaxProbeConcurrency = 64
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidProbeConfig is the sentinel error wrapped by InvalidProbeConfigError.
	ErrInvalidProbeConfig = errors.New("invalid probe config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of diagnostics written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidProbeConfigError is returned when the probe section has out of
	// range values. It wraps ErrInvalidProbeConfig for errors.Is() compatibility.
	InvalidProbeConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError aggregates every section error found by Validate.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Probe controls how interpreter candidates are interrogated.
		Probe ProbeConfig `json:"probe" mapstructure:"probe"`
		// Discovery controls where interpreter candidates are looked for.
		Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
		// Environments controls where virtual environments live.
		Environments EnvironmentsConfig `json:"environments" mapstructure:"environments"`
		// UI controls diagnostics output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ProbeConfig configures interpreter version probing.
	ProbeConfig struct {
		// Timeout bounds a single "<python> -V" invocation.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		// Concurrency is the number of probes run at once.
		Concurrency int `json:"concurrency" mapstructure:"concurrency"`
	}

	// DiscoveryConfig configures the interpreter locator.
	DiscoveryConfig struct {
		// SearchPath replaces $PATH for candidate lookup when non-empty.
		SearchPath string `json:"search_path" mapstructure:"search_path"`
		// ManylinuxRoot holds <version>/bin/python* installs.
		ManylinuxRoot string `json:"manylinux_root" mapstructure:"manylinux_root"`
		// PyenvRoot holds pyenv <version>/bin/python* installs; empty means ~/.pyenv/versions.
		PyenvRoot string `json:"pyenv_root" mapstructure:"pyenv_root"`
	}

	// EnvironmentsConfig configures virtual environment placement.
	EnvironmentsConfig struct {
		// Reuse keeps environments in CacheDir keyed by their fingerprint.
		Reuse bool `json:"reuse" mapstructure:"reuse"`
		// CacheDir is the root of reusable environments.
		CacheDir string `json:"cache_dir" mapstructure:"cache_dir"`
		// TempDir is the parent of throwaway environments; empty means the OS temp dir.
		TempDir string `json:"temp_dir" mapstructure:"temp_dir"`
	}

	// UIConfig configures diagnostics output.
	UIConfig struct {
		// Verbose enables debug logging and error chains.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// LogLevel is the minimum log level when Verbose is off.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}
)

// DefaultConfig returns the configuration used when no file or override is present.
func DefaultConfig() *Config {
	return &Config{
		Probe: ProbeConfig{
			Timeout:     3 * time.Second,
			Concurrency: 4,
		},
		Discovery: DiscoveryConfig{
			ManylinuxRoot: "/opt/python",
		},
		Environments: EnvironmentsConfig{
			Reuse:    true,
			CacheDir: DefaultCacheDir(),
		},
		UI: UIConfig{
			LogLevel: LogLevelWarn,
		},
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid returns whether the probe timeout is positive and the concurrency
// lies within [MinProbeConcurrency, MaxProbeConcurrency].
func (c ProbeConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("probe.timeout must be positive, got %s", c.Timeout))
	}
	if c.Concurrency < MinProbeConcurrency || c.Concurrency > MaxProbeConcurrency {
		errs = append(errs, fmt.Errorf("probe.concurrency must be between %d and %d, got %d",
			MinProbeConcurrency, MaxProbeConcurrency, c.Concurrency))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidProbeConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidProbeConfigError.
func (e *InvalidProbeConfigError) Error() string {
	return fmt.Sprintf("invalid probe config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidProbeConfig for errors.Is() compatibility.
func (e *InvalidProbeConfigError) Unwrap() error { return ErrInvalidProbeConfig }

// IsValid returns whether the UI section holds a known log level.
func (c UIConfig) IsValid() (bool, []error) {
	return c.LogLevel.IsValid()
}

// Validate checks every section and returns an *InvalidConfigError listing
// all problems, or nil.
func (c *Config) Validate() error {
	var errs []error
	if ok, fieldErrs := c.Probe.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
