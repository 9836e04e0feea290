// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/snakespawn/snakespawn/internal/config"
	"github.com/snakespawn/snakespawn/internal/testutil"
	"github.com/snakespawn/snakespawn/pkg/pyversion"
)

// recordingRunner emulates venv creation and records every invocation.
type recordingRunner struct {
	mu       sync.Mutex
	calls    [][]string
	failVenv bool
	failPip  bool
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	switch {
	case len(args) >= 3 && args[1] == "venv":
		if r.failVenv {
			return errors.New("exit status 1")
		}
		py := PythonPath(args[2])
		if err := os.MkdirAll(filepath.Dir(py), 0o755); err != nil {
			return err
		}
		return os.WriteFile(py, nil, 0o755)
	case len(args) >= 2 && args[1] == "pip":
		if r.failPip {
			return errors.New("exit status 1")
		}
	}
	return nil
}

func (r *recordingRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func request(deps ...string) Request {
	return Request{
		Runtime:      "/usr/bin/python3",
		Version:      pyversion.MustParse("3.12.1"),
		Dependencies: deps,
	}
}

func newTestProvisioner(t *testing.T, r CommandRunner, opts ...Option) *VenvProvisioner {
	t.Helper()
	cfg := &Config{Reuse: true}
	cfg.Apply(append([]Option{WithCacheDir(filepath.Join(t.TempDir(), "envs")), WithTempDir(t.TempDir())}, opts...)...)
	return New(cfg, WithRunner(r))
}

func TestProvision_CreatesAndInstallsInOrder(t *testing.T) {
	t.Parallel()

	r := &recordingRunner{}
	p := newTestProvisioner(t, r)

	env, err := p.Provision(context.Background(), request("rich", "httpx>=0.27", "rich"))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if env.Reused {
		t.Error("first Provision() should not reuse")
	}
	if env.Python != PythonPath(env.Dir) {
		t.Errorf("Python = %s, want %s", env.Python, PythonPath(env.Dir))
	}
	if filepath.Dir(env.Dir) != p.Config().CacheDir {
		t.Errorf("Dir = %s, want it under %s", env.Dir, p.Config().CacheDir)
	}
	if !strings.HasPrefix(filepath.Base(env.Dir), "py3.12.1-") {
		t.Errorf("Dir base = %s, want py3.12.1-<fingerprint>", filepath.Base(env.Dir))
	}

	want := [][]string{
		{"/usr/bin/python3", "-m", "venv", env.Dir},
		{env.Python, "-m", "pip", "install", "rich", "httpx>=0.27", "rich"},
	}
	if got := r.Calls(); !slices.EqualFunc(got, want, slices.Equal[[]string]) {
		t.Errorf("runner calls = %q, want %q", got, want)
	}

	m, err := ReadManifest(env.Dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if m.Fingerprint != env.Fingerprint.String() || m.Version != "3.12.1" || m.Runtime != "/usr/bin/python3" {
		t.Errorf("manifest = %+v", m)
	}
	if !slices.Equal(m.Dependencies, []string{"rich", "httpx>=0.27", "rich"}) {
		t.Errorf("manifest dependencies = %v", m.Dependencies)
	}
}

func TestProvision_NoDependenciesSkipsPip(t *testing.T) {
	t.Parallel()

	r := &recordingRunner{}
	if _, err := newTestProvisioner(t, r).Provision(context.Background(), request()); err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	calls := r.Calls()
	if len(calls) != 1 || calls[0][2] != "venv" {
		t.Errorf("runner calls = %q, want only venv", calls)
	}
}

func TestProvision_BlankSpecifiersNeverReachPip(t *testing.T) {
	t.Parallel()

	for _, mode := range []struct {
		name  string
		reuse bool
	}{
		{"cached", true},
		{"fresh", false},
	} {
		t.Run(mode.name, func(t *testing.T) {
			t.Parallel()

			r := &recordingRunner{}
			p := newTestProvisioner(t, r, WithReuse(mode.reuse))

			env, err := p.Provision(context.Background(), request("", "alpha", "  ", "alpha"))
			if err != nil {
				t.Fatalf("Provision() error: %v", err)
			}
			want := [][]string{
				{"/usr/bin/python3", "-m", "venv", env.Dir},
				{env.Python, "-m", "pip", "install", "alpha", "alpha"},
			}
			if got := r.Calls(); !slices.EqualFunc(got, want, slices.Equal[[]string]) {
				t.Errorf("runner calls = %q, want %q", got, want)
			}
			if env.Fingerprint != Fingerprint(pyversion.MustParse("3.12.1"), []string{"alpha"}) {
				t.Error("blank specifiers must not change the fingerprint")
			}
		})
	}
}

func TestProvision_OnlyBlankSpecifiersSkipsPip(t *testing.T) {
	t.Parallel()

	r := &recordingRunner{}
	env, err := newTestProvisioner(t, r).Provision(context.Background(), request("", " "))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if calls := r.Calls(); len(calls) != 1 || calls[0][2] != "venv" {
		t.Errorf("runner calls = %q, want only venv", calls)
	}
	m, err := ReadManifest(env.Dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if len(m.Dependencies) != 0 {
		t.Errorf("manifest dependencies = %q, want none", m.Dependencies)
	}
}

func TestFromSettings(t *testing.T) {
	t.Parallel()

	cfg := FromSettings(config.EnvironmentsConfig{Reuse: true, CacheDir: "/cache", TempDir: "/tmp/x"}, WithReuse(false))
	if cfg.Reuse || cfg.CacheDir != "/cache" || cfg.TempDir != "/tmp/x" || cfg.Output == nil {
		t.Errorf("FromSettings() = %+v", cfg)
	}
	if cfg := FromSettings(config.EnvironmentsConfig{Reuse: true}); cfg.CacheDir != config.DefaultCacheDir() {
		t.Errorf("CacheDir = %q, want the default", cfg.CacheDir)
	}
}

func TestProvision_ReusesMatchingEnvironment(t *testing.T) {
	t.Parallel()

	r := &recordingRunner{}
	p := newTestProvisioner(t, r)

	first, err := p.Provision(context.Background(), request("b", "a"))
	if err != nil {
		t.Fatalf("first Provision() error: %v", err)
	}
	// Same set, different order and spacing.
	second, err := p.Provision(context.Background(), request(" a", "b", "a"))
	if err != nil {
		t.Fatalf("second Provision() error: %v", err)
	}
	if !second.Reused || second.Dir != first.Dir {
		t.Errorf("second Provision() = %+v, want reuse of %s", second, first.Dir)
	}
	if n := len(r.Calls()); n != 2 {
		t.Errorf("runner called %d times, want 2 (one build)", n)
	}

	if plan := p.Plan(request("a", "b")); !plan.Reused || plan.Dir != first.Dir {
		t.Errorf("Plan() = %+v, want reuse of %s", plan, first.Dir)
	}
}

func TestProvision_RebuildsIncompleteEnvironment(t *testing.T) {
	t.Parallel()

	r := &recordingRunner{}
	p := newTestProvisioner(t, r)

	env, err := p.Provision(context.Background(), request("a"))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}

	// Interpreter vanished, e.g. the base Python was uninstalled.
	if err := os.Remove(env.Python); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	stray := filepath.Join(env.Dir, "stray")
	testutil.MustWriteFile(t, stray, "x", 0o644)

	again, err := p.Provision(context.Background(), request("a"))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if again.Reused {
		t.Error("environment without interpreter should be rebuilt")
	}
	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Error("rebuild should start from an empty directory")
	}
	if n := len(r.Calls()); n != 4 {
		t.Errorf("runner called %d times, want 4 (two builds)", n)
	}
}

func TestProvision_ManifestMismatchRebuilds(t *testing.T) {
	t.Parallel()

	r := &recordingRunner{}
	p := newTestProvisioner(t, r)

	env, err := p.Provision(context.Background(), request("a"))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	testutil.MustWriteFile(t, filepath.Join(env.Dir, ManifestFileName), "fingerprint = \"sha256:bogus\"\n", 0o644)

	if plan := p.Plan(request("a")); plan.Reused {
		t.Error("Plan() should not reuse a mismatched manifest")
	}
	again, err := p.Provision(context.Background(), request("a"))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if again.Reused {
		t.Error("mismatched manifest should trigger a rebuild")
	}
}

func TestProvision_FreshEnvironments(t *testing.T) {
	t.Parallel()

	r := &recordingRunner{}
	p := newTestProvisioner(t, r, WithReuse(false))

	first, err := p.Provision(context.Background(), request("a"))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	second, err := p.Provision(context.Background(), request("a"))
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if first.Dir == second.Dir {
		t.Error("fresh environments must never be shared")
	}
	for _, env := range []*Environment{first, second} {
		if env.Reused {
			t.Errorf("%s reported Reused", env.Dir)
		}
		if filepath.Dir(env.Dir) != p.Config().TempDir || !strings.HasPrefix(filepath.Base(env.Dir), "snakespawn") {
			t.Errorf("Dir = %s, want %s/snakespawn*", env.Dir, p.Config().TempDir)
		}
	}
	if _, err := os.Stat(p.Config().CacheDir); !os.IsNotExist(err) {
		t.Error("fresh mode should not create the cache directory")
	}

	plan := p.Plan(request("a"))
	if plan.Reused || plan.Dir != filepath.Join(p.Config().TempDir, "snakespawn*") {
		t.Errorf("Plan() = %+v", plan)
	}
}

func TestProvision_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		runner   *recordingRunner
		wantStep Step
	}{
		{"venv", &recordingRunner{failVenv: true}, StepCreate},
		{"pip", &recordingRunner{failPip: true}, StepInstall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newTestProvisioner(t, tt.runner)
			env, err := p.Provision(context.Background(), request("a"))
			if env != nil {
				t.Errorf("Provision() = %+v, want nil", env)
			}
			if !errors.Is(err, ErrProvisioning) {
				t.Fatalf("error = %v, want ErrProvisioning", err)
			}
			var pe *ProvisioningError
			if !errors.As(err, &pe) || pe.Step != tt.wantStep {
				t.Fatalf("error = %#v, want step %q", err, tt.wantStep)
			}
			if _, statErr := os.Stat(pe.Dir); !os.IsNotExist(statErr) {
				t.Errorf("failed build should remove %s", pe.Dir)
			}
		})
	}
}

func TestProvision_FreshFailureKeepsTempDir(t *testing.T) {
	t.Parallel()

	p := newTestProvisioner(t, &recordingRunner{failPip: true}, WithReuse(false))
	_, err := p.Provision(context.Background(), request("a"))

	var pe *ProvisioningError
	if !errors.As(err, &pe) || pe.Step != StepInstall {
		t.Fatalf("error = %v, want step %q", err, StepInstall)
	}
	if filepath.Dir(pe.Dir) != p.Config().TempDir {
		t.Errorf("Dir = %s, want it under %s", pe.Dir, p.Config().TempDir)
	}
	if _, statErr := os.Stat(pe.Dir); statErr != nil {
		t.Errorf("fresh build directory %s should be left in place: %v", pe.Dir, statErr)
	}
	if got := pe.Error(); got != "install dependencies in "+pe.Dir+": exit status 1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestProvision_ConcurrentSameEnvironmentBuildsOnce(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("environment locks are flock based")
	}

	r := &recordingRunner{}
	p := newTestProvisioner(t, r)

	const workers = 4
	envs := make([]*Environment, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			envs[i], errs[i] = p.Provision(context.Background(), request("a"))
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
		if envs[i].Dir != envs[0].Dir {
			t.Errorf("worker %d got %s, want %s", i, envs[i].Dir, envs[0].Dir)
		}
	}
	if n := len(r.Calls()); n != 2 {
		t.Errorf("runner called %d times, want 2 (single build)", n)
	}
}

func TestProvision_WithFakeInterpreter(t *testing.T) {
	root := t.TempDir()
	base := testutil.WriteFakePython(t, filepath.Join(root, "base", "python3"), testutil.FakePython{Version: "3.11.2"})

	p := New(&Config{Reuse: true, CacheDir: filepath.Join(root, "envs"), Output: &strings.Builder{}})
	env, err := p.Provision(context.Background(), Request{
		Runtime:      base,
		Version:      pyversion.MustParse("3.11.2"),
		Dependencies: []string{"requests", "rich"},
	})
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(env.Dir, testutil.PipLogName)); got != "requests\nrich\n" {
		t.Errorf("installed = %q, want requests then rich", got)
	}
}

func TestManifest_CreatedAt(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestProvisioner(t, &recordingRunner{})
	p.now = func() time.Time { return fixed }

	env, err := p.Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	m, err := ReadManifest(env.Dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if !m.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %s, want %s", m.CreatedAt, fixed)
	}
}
