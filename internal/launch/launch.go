// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/snakespawn/snakespawn/internal/logging"
	"github.com/snakespawn/snakespawn/pkg/platform"

	"github.com/charmbracelet/log"
)

const (
	// EnvVirtualEnv is set to the environment root in the child.
	EnvVirtualEnv = "VIRTUAL_ENV"

	envPath       = "PATH"
	envPythonHome = "PYTHONHOME"
)

// ErrLaunch is the sentinel error wrapped by LaunchError.
var ErrLaunch = errors.New("launch failed")

type (
	// Request describes the handoff.
	Request struct {
		// Python is the interpreter inside the environment.
		Python string
		// EnvDir is the environment root exported as VIRTUAL_ENV.
		EnvDir string
		// BinDir is prepended to PATH.
		BinDir string
		// Script is passed as the interpreter's first argument.
		Script string
		// Args are forwarded after Script unchanged.
		Args []string
	}

	// ExecFunc replaces the current process. It only returns on failure.
	ExecFunc func(path string, argv, env []string) error

	// LaunchError is returned when the interpreter could not be started.
	LaunchError struct {
		Python string
		Cause  error
	}

	// Launcher performs the handoff.
	Launcher struct {
		exec    ExecFunc
		environ func() []string
		logger  *log.Logger
	}

	// Option configures a Launcher.
	Option func(*Launcher)
)

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Python, e.Cause)
}

// Unwrap returns ErrLaunch and the cause for errors.Is() compatibility.
func (e *LaunchError) Unwrap() []error { return []error{ErrLaunch, e.Cause} }

// WithExec replaces the process-replacing primitive.
func WithExec(fn ExecFunc) Option {
	return func(l *Launcher) {
		if fn != nil {
			l.exec = fn
		}
	}
}

// WithEnviron replaces the source of the base environment (os.Environ).
func WithEnviron(fn func() []string) Option {
	return func(l *Launcher) {
		if fn != nil {
			l.environ = fn
		}
	}
}

// WithLogger sets the logger used to trace the handoff.
func WithLogger(logger *log.Logger) Option {
	return func(l *Launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Launcher that uses the platform exec primitive.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		exec:    execProcess,
		environ: os.Environ,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch replaces the current process with the interpreter running the
// script. It does not return on success; any returned error is a
// *LaunchError.
func (l *Launcher) Launch(req Request) error {
	argv := Argv(req)
	env := Environ(l.environ(), req.EnvDir, req.BinDir)
	l.logger.Debug("handing off", "python", req.Python, "script", req.Script, "args", len(req.Args))

	err := l.exec(req.Python, argv, env)
	if err == nil {
		err = errors.New("exec returned without replacing the process")
	}
	return &LaunchError{Python: req.Python, Cause: err}
}

// Argv returns [python, script, args...].
func Argv(req Request) []string {
	argv := make([]string, 0, len(req.Args)+2)
	argv = append(argv, req.Python, req.Script)
	return append(argv, req.Args...)
}

// Environ returns base with the environment activated: VIRTUAL_ENV set to
// envDir, binDir prepended to PATH and PYTHONHOME removed.
func Environ(base []string, envDir, binDir string) []string {
	out := make([]string, 0, len(base)+2)
	path := ""
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case sameKey(key, envPath):
			path = value
			continue
		case sameKey(key, EnvVirtualEnv), sameKey(key, envPythonHome):
			continue
		}
		out = append(out, kv)
	}

	if path == "" {
		path = binDir
	} else {
		path = binDir + string(os.PathListSeparator) + path
	}
	return append(out, EnvVirtualEnv+"="+envDir, envPath+"="+path)
}

// sameKey compares environment keys, case-insensitively on Windows.
func sameKey(a, b string) bool {
	if platform.IsWindows() {
		return strings.EqualFold(a, b)
	}
	return a == b
}
