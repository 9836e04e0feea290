// SPDX-License-Identifier: MPL-2.0

// Package logging builds the charmbracelet/log logger shared by the pipeline.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// EnvLogLevel overrides every other level setting when it holds a known level.
	EnvLogLevel = "SNAKESPAWN_LOG_LEVEL"

	prefix = "snakespawn"
)

// Options selects the logger level. Verbose forces debug unless EnvLogLevel
// says otherwise.
type Options struct {
	Level   string
	Verbose bool
}

// New creates a logger writing to w with the snakespawn prefix.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  resolveLevel(opts, os.Getenv(EnvLogLevel)),
	})
}

// Discard returns a logger that drops everything. Components use it when no
// logger was supplied.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func resolveLevel(opts Options, env string) log.Level {
	if lvl, ok := parseLevel(env); ok {
		return lvl
	}
	if opts.Verbose {
		return log.DebugLevel
	}
	if lvl, ok := parseLevel(opts.Level); ok {
		return lvl
	}
	return log.WarnLevel
}

func parseLevel(raw string) (log.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return log.DebugLevel, true
	case "info":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	default:
		return log.InfoLevel, false
	}
}
