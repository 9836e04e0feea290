// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

type (
	// CommandRunner runs one external command to completion.
	CommandRunner interface {
		Run(ctx context.Context, name string, args ...string) error
	}

	// ExecRunner runs commands on the host with stdout and stderr sent to Output.
	ExecRunner struct {
		Output io.Writer
	}
)

// Run executes name with args. Stdin is the null device.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Output
	cmd.Stderr = r.Output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}
