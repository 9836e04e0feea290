// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/snakespawn/snakespawn/internal/app/spawn"
	"github.com/snakespawn/snakespawn/internal/config"
	"github.com/snakespawn/snakespawn/internal/discovery"
	"github.com/snakespawn/snakespawn/internal/issue"
	"github.com/snakespawn/snakespawn/internal/probe"
	"github.com/snakespawn/snakespawn/internal/provision"
	"github.com/snakespawn/snakespawn/internal/resolve"
	"github.com/snakespawn/snakespawn/pkg/pyversion"
	"github.com/snakespawn/snakespawn/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	fakeConfig struct {
		cfg *config.Config
		err error
		got config.LoadOptions
	}

	fakeRunner struct {
		plan     *spawn.Plan
		err      error
		runtimes []probe.ProbedCandidate
		requests []spawn.Request
	}

	cliResult struct {
		code   types.ExitCode
		stdout string
		stderr string
		opts   []provision.Option
	}
)

func (f *fakeConfig) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	f.got = opts
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg == nil {
		return config.DefaultConfig(), nil
	}
	return f.cfg, nil
}

func (f *fakeRunner) Run(_ context.Context, req spawn.Request) (*spawn.Plan, error) {
	f.requests = append(f.requests, req)
	return f.plan, f.err
}

func (f *fakeRunner) Runtimes(context.Context) []probe.ProbedCandidate {
	return f.runtimes
}

func runCLI(t *testing.T, cfg *fakeConfig, runner *fakeRunner, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	var res cliResult
	app := NewApp(Dependencies{
		Config: cfg,
		NewPipeline: func(_ *config.Config, _ *log.Logger, _ io.Writer, opts ...provision.Option) Runner {
			res.opts = opts
			return runner
		},
		Stdout: &stdout,
		Stderr: &stderr,
	})
	res.code = run(t.Context(), app, args)
	res.stdout = stdout.String()
	res.stderr = stderr.String()
	return res
}

func testPlan() *spawn.Plan {
	env := &provision.Environment{Dir: "/envs/py3.12.0-abc", Python: "/envs/py3.12.0-abc/bin/python", Reused: true}
	return &spawn.Plan{
		Runtime:      "/usr/bin/python3",
		Version:      pyversion.MustParse("3.12.0"),
		Dependencies: []string{"alpha", "beta"},
		Env:          env,
		Argv:         []string{env.Python, "tool.py", "a b"},
	}
}

func TestGetVersionString(t *testing.T) {
	t.Parallel()

	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}

func TestMissingScriptIsUsageError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	res := runCLI(t, &fakeConfig{}, runner)
	if res.code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", res.code, types.ExitUsage)
	}
	if !strings.Contains(res.stderr, "missing script path") {
		t.Errorf("stderr = %q, want missing script message", res.stderr)
	}
	if len(runner.requests) != 0 {
		t.Error("pipeline must not run without a script")
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	t.Parallel()

	res := runCLI(t, &fakeConfig{}, &fakeRunner{}, "--bogus", "tool.py")
	if res.code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", res.code, types.ExitUsage)
	}
}

func TestArgumentsAfterScriptAreForwarded(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{plan: testPlan()}
	res := runCLI(t, &fakeConfig{}, runner, "-v", "tool.py", "--flag", "-v", "--help", "--", "x")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if len(runner.requests) != 1 {
		t.Fatalf("pipeline ran %d times, want 1", len(runner.requests))
	}
	req := runner.requests[0]
	if req.Script != "tool.py" || req.DryRun {
		t.Errorf("request = %+v", req)
	}
	if want := []string{"--flag", "-v", "--help", "--", "x"}; !slices.Equal(req.Args, want) {
		t.Errorf("Args = %q, want %q", req.Args, want)
	}
}

func TestConfigFlagIsPassedThrough(t *testing.T) {
	t.Parallel()

	cfg := &fakeConfig{}
	runCLI(t, cfg, &fakeRunner{plan: testPlan()}, "--config", "/etc/snakespawn.cue", "tool.py")
	if cfg.got.ConfigFilePath != "/etc/snakespawn.cue" {
		t.Errorf("ConfigFilePath = %q", cfg.got.ConfigFilePath)
	}
}

func TestFreshDisablesReuse(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		args      []string
		wantReuse bool
	}{
		{args: []string{"tool.py"}, wantReuse: true},
		{args: []string{"--fresh", "tool.py"}, wantReuse: false},
	} {
		res := runCLI(t, &fakeConfig{}, &fakeRunner{plan: testPlan()}, tt.args...)
		c := &provision.Config{Reuse: true}
		c.Apply(res.opts...)
		if c.Reuse != tt.wantReuse {
			t.Errorf("%q: Reuse = %v, want %v", tt.args, c.Reuse, tt.wantReuse)
		}
	}
}

func TestDryRunOutput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{plan: testPlan()}
	res := runCLI(t, &fakeConfig{}, runner, "--dry-run", "tool.py", "a b")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if !runner.requests[0].DryRun {
		t.Error("request should be a dry run")
	}
	for _, want := range []string{
		"Dry Run",
		"/usr/bin/python3 (3.12.0)",
		"/envs/py3.12.0-abc (reused)",
		"alpha, beta",
		"/envs/py3.12.0-abc/bin/python tool.py 'a b'",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestPipelineErrorsAreRendered(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{
			name:     "no runtime",
			err:      &resolve.NoMatchingRuntimeError{Requirement: mustRequirement(t, "3.13"), Probed: 2},
			wantText: "No matching Python runtime",
		},
		{
			name:     "bad spec",
			err:      &pyversion.InvalidVersionSpecError{Value: "abc"},
			wantText: "Unsupported Python version spec",
		},
		{
			name:     "provisioning",
			err:      &provision.ProvisioningError{Step: provision.StepInstall, Cause: errors.New("exit status 1")},
			wantText: "virtual environment",
		},
		{
			name:     "missing script",
			err:      &spawn.ScriptError{Path: "gone.py", Cause: errors.New("no such file or directory")},
			wantText: "Script not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := runCLI(t, &fakeConfig{}, &fakeRunner{err: tt.err}, "tool.py")
			if res.code != types.ExitFailure {
				t.Errorf("exit code = %d, want %d", res.code, types.ExitFailure)
			}
			if !strings.Contains(res.stderr, "Error:") || !strings.Contains(res.stderr, tt.err.Error()) {
				t.Errorf("stderr = %q, want the error message", res.stderr)
			}
			if !strings.Contains(res.stderr, tt.wantText) {
				t.Errorf("stderr = %q, want catalog text %q", res.stderr, tt.wantText)
			}
		})
	}
}

func TestConfigErrorIsRendered(t *testing.T) {
	t.Parallel()

	cfgErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource("/x/config.cue").
		WithSuggestion("Check that the file contains valid CUE syntax").
		Wrap(errors.New("expected '}'")).
		BuildError()
	runner := &fakeRunner{}
	res := runCLI(t, &fakeConfig{err: cfgErr}, runner, "tool.py")

	if res.code != types.ExitFailure {
		t.Errorf("exit code = %d, want %d", res.code, types.ExitFailure)
	}
	for _, want := range []string{"failed to load configuration: /x/config.cue", "valid CUE syntax", "Failed to load configuration"} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, res.stderr)
		}
	}
	if len(runner.requests) != 0 {
		t.Error("pipeline must not run after a config error")
	}
}

func TestListRuntimes(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runtimes: []probe.ProbedCandidate{
		probe.Failed(discovery.Candidate{Path: "/usr/bin/python2", Source: discovery.SourceSearchPath}, errors.New("no output")),
		probe.Versioned(discovery.Candidate{Path: "/usr/bin/python3", Source: discovery.SourceSearchPath}, pyversion.MustParse("3.12.1")),
		probe.Versioned(discovery.Candidate{Path: "/opt/python/cp311/bin/python3", Source: discovery.SourceManylinux}, pyversion.MustParse("3.11.4")),
	}}

	res := runCLI(t, &fakeConfig{}, runner, "--list-runtimes")
	if res.code != types.ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	want := "-\tsearch path\t/usr/bin/python2\n" +
		"3.12.1\tsearch path\t/usr/bin/python3\n" +
		"3.11.4\tmanylinux\t/opt/python/cp311/bin/python3\n"
	if res.stdout != want {
		t.Errorf("stdout = %q, want %q", res.stdout, want)
	}
	if len(runner.requests) != 0 {
		t.Error("--list-runtimes must not run a script")
	}
}

func TestRuntimesMarkdown(t *testing.T) {
	t.Parallel()

	md := runtimesMarkdown([]probe.ProbedCandidate{
		probe.Failed(discovery.Candidate{Path: "/a/python", Source: discovery.SourcePyenv}, errors.New("boom")),
		probe.Versioned(discovery.Candidate{Path: "/b/python3", Source: discovery.SourceSearchPath}, pyversion.MustParse("3.10.2")),
	})
	for _, want := range []string{"| 1 | unusable | pyenv | `/a/python` |", "| 2 | 3.10.2 | search path | `/b/python3` |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if got := runtimesMarkdown(nil); !strings.Contains(got, "No candidates found.") {
		t.Errorf("empty markdown = %q", got)
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	err := &ExitError{Code: types.ExitUsage, Err: inner}
	if err.Error() != "inner" || !errors.Is(err, inner) {
		t.Errorf("ExitError with Err = %v", err)
	}
	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("ExitError without Err = %q", got)
	}
}

func mustRequirement(t *testing.T, raw string) pyversion.Requirement {
	t.Helper()
	req, err := pyversion.ParseRequirement(raw)
	if err != nil {
		t.Fatal(err)
	}
	return req
}
