// SPDX-License-Identifier: MPL-2.0

package spawn

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/snakespawn/snakespawn/internal/discovery"
	"github.com/snakespawn/snakespawn/internal/issue"
	"github.com/snakespawn/snakespawn/internal/launch"
	"github.com/snakespawn/snakespawn/internal/logging"
	"github.com/snakespawn/snakespawn/internal/probe"
	"github.com/snakespawn/snakespawn/internal/provision"
	"github.com/snakespawn/snakespawn/internal/resolve"
	"github.com/snakespawn/snakespawn/pkg/pyversion"
	"github.com/snakespawn/snakespawn/pkg/scriptmeta"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

// ErrScriptNotFound is the sentinel error wrapped by ScriptError.
var ErrScriptNotFound = errors.New("script not found")

type (
	// CandidateSource enumerates interpreter candidates.
	CandidateSource interface {
		Candidates() iter.Seq[discovery.Candidate]
	}

	// Prober executes candidates to learn their versions.
	Prober interface {
		ProbeAll(ctx context.Context, candidates iter.Seq[discovery.Candidate]) []probe.ProbedCandidate
	}

	// Provisioner builds environments, or reports the one it would use.
	Provisioner interface {
		provision.Provisioner
		Plan(req provision.Request) *provision.Environment
	}

	// Launcher hands the process over. On success it normally never returns.
	Launcher interface {
		Launch(req launch.Request) error
	}

	// Request is one invocation.
	Request struct {
		// Script is the path given on the command line.
		Script string
		// Args are forwarded to the script unchanged.
		Args []string
		// DryRun stops after planning: nothing is created or executed.
		DryRun bool
	}

	// Plan describes the handoff a run performs or, in dry-run mode, would
	// perform.
	Plan struct {
		Requirement  pyversion.Requirement
		Runtime      string
		Version      pyversion.Version
		Dependencies []string
		Env          *provision.Environment
		// Argv is the exact argument vector given to the interpreter.
		Argv []string
	}

	// ScriptError is returned when the script cannot be read.
	ScriptError struct {
		Path  string
		Cause error
	}

	// Pipeline runs the snakespawn steps in order.
	Pipeline struct {
		locator     CandidateSource
		prober      Prober
		provisioner Provisioner
		launcher    Launcher
		logger      *log.Logger
	}

	// Option configures a Pipeline.
	Option func(*Pipeline)
)

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrScriptNotFound and the cause for errors.Is() compatibility.
func (e *ScriptError) Unwrap() []error { return []error{ErrScriptNotFound, e.Cause} }

// WithLogger sets the logger used to trace pipeline stages.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Pipeline from its components.
func New(locator CandidateSource, prober Prober, provisioner Provisioner, launcher Launcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		locator:     locator,
		prober:      prober,
		provisioner: provisioner,
		launcher:    launcher,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline for req. Outside dry-run mode a successful Run
// does not return on platforms with exec(2); the returned Plan is only seen
// by dry runs and by launchers that return after handoff.
//
// A malformed requirement fails before any candidate is probed, and no
// environment is created when resolution fails.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Plan, error) {
	decl, err := scriptmeta.ParseFile(req.Script)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read script").
			WithSuggestion("Check that the path exists and is readable").
			Wrap(&ScriptError{Path: req.Script, Cause: err}).
			BuildError()
	}

	raw, _ := decl.Python()
	requirement, err := pyversion.ParseRequirement(raw)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read Python requirement").
			WithResource(req.Script).
			WithSuggestion("Declare a dotted minimum version such as '#| python: 3.10'").
			Wrap(err).
			BuildError()
	}
	p.logger.Debug("declaration", "script", req.Script, "python", requirement, "deps", len(decl.Dependencies()))

	probed := p.Runtimes(ctx)
	// Probes killed by an interrupt look like broken interpreters.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := resolve.Resolve(requirement, probed)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("select Python runtime").
			WithSuggestion("Run 'snakespawn --list-runtimes' to see the interpreters that were found").
			WithSuggestion("Point discovery.search_path in the configuration file at the interpreter's directory").
			Wrap(err).
			BuildError()
	}
	selected := matches[0]
	p.logger.Debug("selected runtime", "path", selected.Path, "version", selected.Version, "matches", len(matches))

	preq := provision.Request{
		Runtime:      selected.Path,
		Version:      selected.Version,
		Dependencies: provision.InstallDependencies(decl.Dependencies()),
	}
	var env *provision.Environment
	if req.DryRun {
		env = p.provisioner.Plan(preq)
	} else if env, err = p.provisioner.Provision(ctx, preq); err != nil {
		return nil, provisionFailure(err)
	}

	lreq := launch.Request{
		Python: env.Python,
		EnvDir: env.Dir,
		BinDir: provision.BinDir(env.Dir),
		Script: req.Script,
		Args:   req.Args,
	}
	plan := &Plan{
		Requirement:  requirement,
		Runtime:      selected.Path,
		Version:      selected.Version,
		Dependencies: preq.Dependencies,
		Env:          env,
		Argv:         launch.Argv(lreq),
	}
	if req.DryRun {
		return plan, nil
	}

	if err := p.launcher.Launch(lreq); err != nil {
		return nil, err
	}
	return plan, nil
}

// Runtimes locates and probes every candidate, in discovery order.
func (p *Pipeline) Runtimes(ctx context.Context) []probe.ProbedCandidate {
	probed := p.prober.ProbeAll(ctx, p.locator.Candidates())
	p.logger.Debug("probed candidates", "count", len(probed))
	return probed
}

// CommandLine returns Argv quoted for a POSIX shell.
func (pl *Plan) CommandLine() (string, error) {
	quoted := make([]string, 0, len(pl.Argv))
	for _, arg := range pl.Argv {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}

// provisionFailure attaches remediation hints for the step that failed.
func provisionFailure(err error) error {
	ec := issue.NewErrorContext().WithOperation("set up environment").Wrap(err)
	var perr *provision.ProvisioningError
	if !errors.As(err, &perr) {
		return ec.BuildError()
	}
	switch perr.Step {
	case provision.StepPrepare:
		ec.WithSuggestion("Check that the environment cache directory is writable")
	case provision.StepCreate:
		ec.WithSuggestion("Check that the interpreter ships the venv module (on Debian: apt install python3-venv)")
	case provision.StepInstall:
		ec.WithSuggestion("Check the '#| pip:' specifiers in the script").
			WithSuggestion("Check network access to the package index")
	case provision.StepFinalize:
		ec.WithSuggestion("Retry with --fresh to build a clean environment")
	}
	return ec.BuildError()
}
