// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snakespawn/snakespawn/internal/logging"
	"github.com/snakespawn/snakespawn/pkg/platform"
	"github.com/snakespawn/snakespawn/pkg/pyversion"

	"github.com/charmbracelet/log"
	"github.com/opencontainers/go-digest"
)

const (
	// StepPrepare is the failing step when the environment directory cannot be set up.
	StepPrepare Step = "prepare environment directory"
	// StepCreate is the failing step when "-m venv" fails.
	StepCreate Step = "create environment"
	// StepInstall is the failing step when "-m pip install" fails.
	StepInstall Step = "install dependencies"
	// StepFinalize is the failing step when the manifest cannot be written.
	StepFinalize Step = "finalize environment"

	tempPattern = "snakespawn"
)

// ErrProvisioning is the sentinel error wrapped by ProvisioningError.
var ErrProvisioning = errors.New("provisioning failed")

// Compile-time interface check
var _ Provisioner = (*VenvProvisioner)(nil)

type (
	// Step names a provisioning stage.
	Step string

	// Provisioner prepares the environment a script runs in.
	Provisioner interface {
		Provision(ctx context.Context, req Request) (*Environment, error)
	}

	// Request describes the environment to build.
	Request struct {
		// Runtime is the selected base interpreter.
		Runtime string
		// Version is the version Runtime reported.
		Version pyversion.Version
		// Dependencies are pip specifiers in declared order.
		Dependencies []string
	}

	// Environment is a provisioned environment.
	Environment struct {
		// Dir is the environment root.
		Dir string
		// Python is the interpreter inside Dir.
		Python string
		// Fingerprint identifies the runtime version and dependency set.
		Fingerprint digest.Digest
		// Reused is true when an existing environment was returned as is.
		Reused bool
	}

	// ProvisioningError is returned when any step fails. Nothing is launched after it.
	ProvisioningError struct {
		Step  Step
		Dir   string
		Cause error
	}

	// VenvProvisioner implements Provisioner with the venv module and pip.
	VenvProvisioner struct {
		cfg    *Config
		runner CommandRunner
		logger *log.Logger
		now    func() time.Time
	}

	// ProvisionerOption configures a VenvProvisioner.
	ProvisionerOption func(*VenvProvisioner)
)

// Error implements the error interface.
func (e *ProvisioningError) Error() string {
	if e.Dir == "" {
		return fmt.Sprintf("%s: %v", e.Step, e.Cause)
	}
	return fmt.Sprintf("%s in %s: %v", e.Step, e.Dir, e.Cause)
}

// Unwrap returns ErrProvisioning and the cause for errors.Is() compatibility.
func (e *ProvisioningError) Unwrap() []error { return []error{ErrProvisioning, e.Cause} }

// WithRunner replaces the host command runner.
func WithRunner(r CommandRunner) ProvisionerOption {
	return func(p *VenvProvisioner) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithLogger sets the logger used to report environment creation and reuse.
func WithLogger(logger *log.Logger) ProvisionerOption {
	return func(p *VenvProvisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a VenvProvisioner. A nil cfg means DefaultConfig().
func New(cfg *Config, opts ...ProvisionerOption) *VenvProvisioner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &VenvProvisioner{
		cfg:    cfg,
		runner: ExecRunner{Output: cfg.Output},
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the provisioner's configuration.
func (p *VenvProvisioner) Config() *Config {
	return p.cfg
}

// PythonPath returns the interpreter path inside an environment directory.
func PythonPath(dir string) string {
	return filepath.Join(dir, platform.VenvBinDir(), platform.ExeName("python"))
}

// BinDir returns the executables directory of an environment.
func BinDir(dir string) string {
	return filepath.Dir(PythonPath(dir))
}

// Plan reports the environment Provision would use without touching the
// filesystem beyond reading an existing manifest. With reuse disabled Dir is
// the os.MkdirTemp pattern that would be used.
func (p *VenvProvisioner) Plan(req Request) *Environment {
	fp := Fingerprint(req.Version, req.Dependencies)
	if !p.cfg.Reuse {
		dir := filepath.Join(p.tempDir(), tempPattern+"*")
		return &Environment{Dir: dir, Python: PythonPath(dir), Fingerprint: fp}
	}
	dir := filepath.Join(p.cfg.CacheDir, EnvName(req.Version, fp))
	return &Environment{Dir: dir, Python: PythonPath(dir), Fingerprint: fp, Reused: p.reusable(dir, fp)}
}

// Provision returns a ready environment for req, building it when needed.
func (p *VenvProvisioner) Provision(ctx context.Context, req Request) (*Environment, error) {
	fp := Fingerprint(req.Version, req.Dependencies)
	if !p.cfg.Reuse {
		return p.provisionFresh(ctx, req, fp)
	}

	if err := os.MkdirAll(p.cfg.CacheDir, 0o755); err != nil {
		return nil, &ProvisioningError{Step: StepPrepare, Dir: p.cfg.CacheDir, Cause: err}
	}
	dir := filepath.Join(p.cfg.CacheDir, EnvName(req.Version, fp))

	lock, err := acquireEnvLock(dir + ".lock")
	if err != nil {
		return nil, &ProvisioningError{Step: StepPrepare, Dir: dir, Cause: err}
	}
	defer lock.Release()

	if p.reusable(dir, fp) {
		p.logger.Info("reusing environment", "dir", dir)
		return &Environment{Dir: dir, Python: PythonPath(dir), Fingerprint: fp, Reused: true}, nil
	}

	// Leftovers of an interrupted or foreign build.
	if err := os.RemoveAll(dir); err != nil {
		return nil, &ProvisioningError{Step: StepPrepare, Dir: dir, Cause: err}
	}
	env, err := p.build(ctx, req, dir, fp)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return env, nil
}

func (p *VenvProvisioner) provisionFresh(ctx context.Context, req Request, fp digest.Digest) (*Environment, error) {
	tempDir := p.tempDir()
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, &ProvisioningError{Step: StepPrepare, Dir: tempDir, Cause: err}
	}
	dir, err := os.MkdirTemp(tempDir, tempPattern)
	if err != nil {
		return nil, &ProvisioningError{Step: StepPrepare, Dir: tempDir, Cause: err}
	}
	return p.build(ctx, req, dir, fp)
}

func (p *VenvProvisioner) build(ctx context.Context, req Request, dir string, fp digest.Digest) (*Environment, error) {
	p.logger.Info("creating environment", "dir", dir, "runtime", req.Runtime, "version", req.Version)
	if err := p.runner.Run(ctx, req.Runtime, "-m", "venv", dir); err != nil {
		return nil, &ProvisioningError{Step: StepCreate, Dir: dir, Cause: err}
	}

	python := PythonPath(dir)
	deps := InstallDependencies(req.Dependencies)
	if len(deps) > 0 {
		p.logger.Info("installing dependencies", "count", len(deps))
		args := append([]string{"-m", "pip", "install"}, deps...)
		if err := p.runner.Run(ctx, python, args...); err != nil {
			return nil, &ProvisioningError{Step: StepInstall, Dir: dir, Cause: err}
		}
	}

	m := &Manifest{
		Fingerprint:  fp.String(),
		Runtime:      req.Runtime,
		Version:      req.Version.String(),
		Dependencies: deps,
		CreatedAt:    p.now().UTC().Truncate(time.Second),
	}
	if err := writeManifest(dir, m); err != nil {
		return nil, &ProvisioningError{Step: StepFinalize, Dir: dir, Cause: err}
	}

	return &Environment{Dir: dir, Python: python, Fingerprint: fp}, nil
}

// reusable reports whether dir holds a completed environment for fp.
func (p *VenvProvisioner) reusable(dir string, fp digest.Digest) bool {
	m, err := ReadManifest(dir)
	if err != nil {
		return false
	}
	if m.Fingerprint != fp.String() {
		p.logger.Warn("environment fingerprint mismatch, rebuilding", "dir", dir)
		return false
	}
	info, err := os.Stat(PythonPath(dir))
	return err == nil && info.Mode().IsRegular()
}

func (p *VenvProvisioner) tempDir() string {
	if p.cfg.TempDir != "" {
		return p.cfg.TempDir
	}
	return os.TempDir()
}
