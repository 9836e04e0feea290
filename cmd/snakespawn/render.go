// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/snakespawn/snakespawn/internal/app/spawn"
	"github.com/snakespawn/snakespawn/internal/probe"

	"github.com/charmbracelet/glamour"
)

// renderDryRun prints the resolved runtime, environment and exec line
// without running anything.
func renderDryRun(w io.Writer, plan *spawn.Plan) error {
	line, err := plan.CommandLine()
	if err != nil {
		return err
	}

	envState := "new"
	if plan.Env.Reused {
		envState = "reused"
	}
	deps := "none"
	if len(plan.Dependencies) > 0 {
		deps = strings.Join(plan.Dependencies, ", ")
	}

	fmt.Fprintln(w, TitleStyle.Render("Dry Run"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Requirement:"), plan.Requirement)
	fmt.Fprintf(w, "  %s %s (%s)\n", labelStyle.Render("Runtime:"), plan.Runtime, plan.Version)
	fmt.Fprintf(w, "  %s %s (%s)\n", labelStyle.Render("Environment:"), plan.Env.Dir, envState)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Dependencies:"), deps)
	fmt.Fprintln(w)
	fmt.Fprintln(w, labelStyle.Render("  Command:"))
	fmt.Fprintf(w, "    %s\n", CmdStyle.Render(line))
	return nil
}

// renderRuntimes prints every probed candidate. Terminals get a glamour
// table; other outputs get one tab-separated "version source path" line per
// candidate, with "-" for candidates that reported no usable version.
func renderRuntimes(w io.Writer, probed []probe.ProbedCandidate) error {
	if !isTerminal(w) {
		for _, pc := range probed {
			version := "-"
			if v, ok := pc.Version(); ok {
				version = v.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", version, pc.Source, pc.Path)
		}
		return nil
	}

	out, err := glamour.Render(runtimesMarkdown(probed), glamourStyle(w))
	if err != nil {
		return fmt.Errorf("render runtime table: %w", err)
	}
	fmt.Fprint(w, out)
	return nil
}

func runtimesMarkdown(probed []probe.ProbedCandidate) string {
	var md strings.Builder
	md.WriteString("# Python runtimes\n\n")
	if len(probed) == 0 {
		md.WriteString("No candidates found.\n")
		return md.String()
	}
	md.WriteString("| # | Version | Source | Path |\n")
	md.WriteString("|---|---|---|---|\n")
	for i, pc := range probed {
		version := "unusable"
		if v, ok := pc.Version(); ok {
			version = v.String()
		}
		fmt.Fprintf(&md, "| %d | %s | %s | `%s` |\n", i+1, version, pc.Source, pc.Path)
	}
	return md.String()
}
