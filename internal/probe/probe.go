// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os/exec"
	"strings"
	"time"

	"github.com/snakespawn/snakespawn/internal/discovery"
	"github.com/snakespawn/snakespawn/internal/logging"
	"github.com/snakespawn/snakespawn/pkg/pyversion"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	// ProgramName is the program name a candidate must report.
	ProgramName = "Python"

	// DefaultTimeout bounds a single probe.
	DefaultTimeout = 3 * time.Second
	// DefaultConcurrency is the number of probes run at once.
	DefaultConcurrency = 4

	// maxOutput caps the stdout kept from a probe.
	maxOutput = 4 << 10
	// waitDelay bounds how long output pipes may stay open after the probe is killed.
	waitDelay = 500 * time.Millisecond
)

var (
	// ErrProbeFailed is the sentinel error wrapped by ProbeError.
	ErrProbeFailed = errors.New("probe failed")
	// ErrUnrecognizedOutput is the sentinel error wrapped by UnrecognizedOutputError.
	ErrUnrecognizedOutput = errors.New("unrecognized version output")
)

type (
	// ProbedCandidate is a Candidate plus the version it reported. A candidate
	// without a version carries the reason in Err.
	ProbedCandidate struct {
		discovery.Candidate
		version    pyversion.Version
		hasVersion bool
		err        error
	}

	// ProbeError explains why a candidate has no version.
	ProbeError struct {
		Path  string
		Cause error
	}

	// UnrecognizedOutputError is returned by ParseVersionOutput.
	UnrecognizedOutputError struct {
		Output string
	}

	// Prober runs version probes.
	Prober struct {
		timeout     time.Duration
		concurrency int
		logger      *log.Logger
	}

	// Option configures a Prober.
	Option func(*Prober)
)

// Error implements the error interface.
func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrProbeFailed and the cause for errors.Is() compatibility.
func (e *ProbeError) Unwrap() []error { return []error{ErrProbeFailed, e.Cause} }

// Error implements the error interface.
func (e *UnrecognizedOutputError) Error() string {
	const maxShown = 80
	out := e.Output
	if len(out) > maxShown {
		out = out[:maxShown] + "..."
	}
	return fmt.Sprintf("unrecognized version output %q", out)
}

// Unwrap returns ErrUnrecognizedOutput for errors.Is() compatibility.
func (e *UnrecognizedOutputError) Unwrap() error { return ErrUnrecognizedOutput }

// Versioned returns a ProbedCandidate that reported v.
func Versioned(c discovery.Candidate, v pyversion.Version) ProbedCandidate {
	return ProbedCandidate{Candidate: c, version: v, hasVersion: true}
}

// Failed returns a ProbedCandidate without a version.
func Failed(c discovery.Candidate, err error) ProbedCandidate {
	return ProbedCandidate{Candidate: c, err: err}
}

// Version returns the reported version and whether the probe succeeded.
func (p ProbedCandidate) Version() (pyversion.Version, bool) {
	return p.version, p.hasVersion
}

// Err returns why the probe failed, or nil.
func (p ProbedCandidate) Err() error { return p.err }

// WithTimeout sets the per-probe timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithConcurrency sets the number of probes run at once. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger used to trace probe outcomes.
func WithLogger(logger *log.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Prober with DefaultTimeout and DefaultConcurrency.
func New(opts ...Option) *Prober {
	p := &Prober{
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs "<candidate> -V" and parses its output.
func (p *Prober) Probe(ctx context.Context, c discovery.Candidate) ProbedCandidate {
	v, err := p.run(ctx, c.Path)
	if err != nil {
		err = &ProbeError{Path: c.Path, Cause: err}
		p.logger.Debug("probe failed", "path", c.Path, "source", c.Source, "err", err)
		return Failed(c, err)
	}
	p.logger.Debug("probed", "path", c.Path, "source", c.Source, "version", v)
	return Versioned(c, v)
}

func (p *Prober) run(ctx context.Context, path string) (pyversion.Version, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var out cappedBuffer
	out.limit = maxOutput

	cmd := exec.CommandContext(ctx, path, "-V")
	cmd.Stdout = &out
	cmd.WaitDelay = waitDelay
	// Stdin and Stderr stay nil: the null device.

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return pyversion.Version{}, fmt.Errorf("timed out after %s", p.timeout)
		}
		return pyversion.Version{}, err
	}
	return ParseVersionOutput(out.String())
}

// ProbeAll probes every candidate with at most the configured number of
// probes in flight. Results keep candidate order regardless of which probe
// finishes first.
func (p *Prober) ProbeAll(ctx context.Context, candidates iter.Seq[discovery.Candidate]) []ProbedCandidate {
	var list []discovery.Candidate
	for c := range candidates {
		list = append(list, c)
	}

	results := make([]ProbedCandidate, len(list))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, c := range list {
		g.Go(func() error {
			results[i] = p.Probe(ctx, c)
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	return results
}

// ParseVersionOutput parses the single line "Python <version>".
func ParseVersionOutput(out string) (pyversion.Version, error) {
	line := strings.TrimRight(out, "\r\n")
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return pyversion.Version{}, &UnrecognizedOutputError{Output: out}
	}
	prog, ver, ok := strings.Cut(strings.TrimSpace(line), " ")
	if !ok || prog != ProgramName {
		return pyversion.Version{}, &UnrecognizedOutputError{Output: out}
	}
	v, err := pyversion.Parse(strings.TrimSpace(ver))
	if err != nil {
		return pyversion.Version{}, &UnrecognizedOutputError{Output: out}
	}
	return v, nil
}
