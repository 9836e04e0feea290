// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/snakespawn/snakespawn/internal/app/spawn"
	"github.com/snakespawn/snakespawn/internal/config"
	"github.com/snakespawn/snakespawn/internal/probe"
	"github.com/snakespawn/snakespawn/internal/provision"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer.
	App struct {
		Config      ConfigProvider
		NewPipeline PipelineFactory
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		NewPipeline PipelineFactory
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// Runner is the pipeline surface the CLI drives.
	Runner interface {
		Run(ctx context.Context, req spawn.Request) (*spawn.Plan, error)
		Runtimes(ctx context.Context) []probe.ProbedCandidate
	}

	// PipelineFactory builds a Runner from the loaded configuration. Provisioning
	// tool output must go to output.
	PipelineFactory func(cfg *config.Config, logger *log.Logger, output io.Writer, opts ...provision.Option) Runner
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewPipeline == nil {
		deps.NewPipeline = func(cfg *config.Config, logger *log.Logger, output io.Writer, opts ...provision.Option) Runner {
			return spawn.FromConfig(cfg, logger, output, opts...)
		}
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{
		Config:      deps.Config,
		NewPipeline: deps.NewPipeline,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
}
