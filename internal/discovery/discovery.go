// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"iter"
	"os"
	"path/filepath"
	"regexp"

	"github.com/snakespawn/snakespawn/internal/logging"

	"github.com/charmbracelet/log"
)

const (
	// SourceSearchPath indicates the candidate was found on the search path.
	SourceSearchPath Source = iota
	// SourceManylinux indicates the candidate was found under the manylinux installs root.
	SourceManylinux
	// SourcePyenv indicates the candidate was found under the pyenv installs root.
	SourcePyenv

	// DefaultManylinuxRoot is where manylinux images keep their interpreters.
	DefaultManylinuxRoot = "/opt/python"
	// fallbackSearchPath is used when $PATH is unset or empty.
	fallbackSearchPath = "/bin" + string(os.PathListSeparator) + "/usr/bin"
)

var candidateName = regexp.MustCompile(`^python([0-9](\.[0-9]+)?)?$`)

type (
	// Source represents where a candidate was found.
	Source int

	// Candidate is a path believed to be an interpreter binary. It has not
	// been executed yet.
	Candidate struct {
		Path   string
		Source Source
	}

	// Config holds the explicit lookup roots. Empty fields disable their
	// source; use Defaults to fill them from the environment.
	Config struct {
		// SearchPath is an os.PathListSeparator separated directory list.
		SearchPath string
		// ManylinuxRoot holds one subdirectory per install.
		ManylinuxRoot string
		// PyenvRoot holds one subdirectory per install.
		PyenvRoot string
	}

	// Locator enumerates candidates for a fixed Config.
	Locator struct {
		cfg    Config
		logger *log.Logger
	}

	// Option configures a Locator.
	Option func(*Locator)
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceSearchPath:
		return "search path"
	case SourceManylinux:
		return "manylinux"
	case SourcePyenv:
		return "pyenv"
	default:
		return "unknown"
	}
}

// Defaults returns the Config derived from the invoking process: $PATH, the
// manylinux root and ~/.pyenv/versions.
func Defaults() Config {
	searchPath := os.Getenv("PATH")
	if searchPath == "" {
		searchPath = fallbackSearchPath
	}
	cfg := Config{
		SearchPath:    searchPath,
		ManylinuxRoot: DefaultManylinuxRoot,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.PyenvRoot = filepath.Join(home, ".pyenv", "versions")
	}
	return cfg
}

// WithLogger sets the logger used for debug traces of skipped directories.
func WithLogger(logger *log.Logger) Option {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocator creates a Locator over cfg.
func NewLocator(cfg Config, opts ...Option) *Locator {
	l := &Locator{cfg: cfg, logger: logging.Discard()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsCandidateName reports whether a file name looks like an interpreter.
func IsCandidateName(name string) bool {
	return candidateName.MatchString(name)
}

// Candidates returns a finite iterator over every candidate, in source order.
// Each call rescans the filesystem; nothing is cached between calls.
func (l *Locator) Candidates() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for _, dir := range filepath.SplitList(l.cfg.SearchPath) {
			if dir == "" {
				continue
			}
			if !l.scanDir(dir, SourceSearchPath, yield) {
				return
			}
		}
		if !l.scanInstallsRoot(l.cfg.ManylinuxRoot, SourceManylinux, yield) {
			return
		}
		l.scanInstallsRoot(l.cfg.PyenvRoot, SourcePyenv, yield)
	}
}

// scanInstallsRoot scans <root>/<install>/bin for every install directory.
// It returns false when the consumer stopped iterating.
func (l *Locator) scanInstallsRoot(root string, src Source, yield func(Candidate) bool) bool {
	if root == "" {
		return true
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		l.logger.Debug("skipping installs root", "source", src, "root", root, "err", err)
		return true
	}
	for _, entry := range entries {
		install := filepath.Join(root, entry.Name())
		if !isDir(install) {
			continue
		}
		if !l.scanDir(filepath.Join(install, "bin"), src, yield) {
			return false
		}
	}
	return true
}

// scanDir yields every candidate directly inside dir. It returns false when
// the consumer stopped iterating.
func (l *Locator) scanDir(dir string, src Source, yield func(Candidate) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		l.logger.Debug("skipping directory", "source", src, "dir", dir, "err", err)
		return true
	}
	for _, entry := range entries {
		if !IsCandidateName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !isRegularFile(path) {
			continue
		}
		if !yield(Candidate{Path: path, Source: src}) {
			return false
		}
	}
	return true
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
