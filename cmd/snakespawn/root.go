// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/snakespawn/snakespawn/internal/app/spawn"
	"github.com/snakespawn/snakespawn/internal/config"
	"github.com/snakespawn/snakespawn/internal/issue"
	"github.com/snakespawn/snakespawn/internal/logging"
	"github.com/snakespawn/snakespawn/internal/provision"
	"github.com/snakespawn/snakespawn/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	errMissingScript = errors.New("missing script path")
)

// rootFlags holds the parsed root command flags.
type rootFlags struct {
	verbose      bool
	configPath   string
	dryRun       bool
	fresh        bool
	listRuntimes bool
}

// NewRootCommand builds the snakespawn root command bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "snakespawn [flags] <script> [script-args...]",
		Short: "Run a Python script in an environment built from its own declarations",
		Long: TitleStyle.Render("snakespawn") + SubtitleStyle.Render(" - run self-describing Python scripts") + `

snakespawn reads "#|" declaration lines from a script, picks a matching
Python interpreter, prepares a virtual environment with the declared
dependencies and runs the script in it.

` + SubtitleStyle.Render("Declarations:") + `
  #| python: 3.9         minimum interpreter version (last one wins)
  #| pip: requests>=2    dependency specifier (one per line, in order)

` + SubtitleStyle.Render("Examples:") + `
  snakespawn tool.py --its-own-flag   Run tool.py with its arguments
  snakespawn --dry-run tool.py        Show what would be executed
  snakespawn --list-runtimes          List the interpreters snakespawn can see`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, flags, args)
		},
	}

	root.Flags().SetInterspersed(false)
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	root.Flags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/snakespawn/config.cue)")
	root.Flags().BoolVar(&flags.dryRun, "dry-run", false, "resolve and print the exec line without provisioning or running")
	root.Flags().BoolVar(&flags.fresh, "fresh", false, "build a throwaway environment instead of reusing a cached one")
	root.Flags().BoolVar(&flags.listRuntimes, "list-runtimes", false, "list discovered interpreters and their versions")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: types.ExitUsage, Err: err}
	})

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with the process arguments and exits.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

// Main runs the CLI with the process arguments and returns the exit code.
// It never calls os.Exit itself, so harnesses can run it in-process.
func Main() int {
	return int(run(context.Background(), NewApp(Dependencies{}), os.Args[1:]))
}

func run(ctx context.Context, app *App, args []string) types.ExitCode {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			var exitErr *ExitError
			if errors.As(err, &exitErr) && exitErr.Err == nil {
				return
			}
			fang.DefaultErrorHandler(w, styles, err)
		}),
	)
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFailure
}

func (a *App) run(cmd *cobra.Command, flags *rootFlags, args []string) error {
	ctx := cmd.Context()

	if !flags.listRuntimes && len(args) == 0 {
		fmt.Fprintf(a.stderr, "%s %s\n\n", ErrorStyle.Render("Error:"), errMissingScript)
		fmt.Fprint(a.stderr, cmd.UsageString())
		return &ExitError{Code: types.ExitUsage}
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return a.fail(newServiceError(err, issue.ConfigLoadFailedId,
			fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, flags.verbose))))
	}
	verbose := flags.verbose || cfg.UI.Verbose
	logger := logging.New(a.stderr, logging.Options{Level: string(cfg.UI.LogLevel), Verbose: verbose})

	var opts []provision.Option
	if flags.fresh {
		opts = append(opts, provision.WithReuse(false))
	}
	pipeline := a.NewPipeline(cfg, logger, a.stderr, opts...)

	if flags.listRuntimes {
		return renderRuntimes(a.stdout, pipeline.Runtimes(ctx))
	}

	plan, err := pipeline.Run(ctx, spawn.Request{Script: args[0], Args: args[1:], DryRun: flags.dryRun})
	if err != nil {
		issueID, msg := classifyError(err, verbose)
		return a.fail(newServiceError(err, issueID, msg))
	}
	if flags.dryRun {
		return renderDryRun(a.stdout, plan)
	}
	return nil
}

// fail reports svcErr and returns the generic failure exit.
func (a *App) fail(svcErr *ServiceError) error {
	renderServiceError(a.stderr, svcErr)
	return &ExitError{Code: types.ExitFailure}
}
