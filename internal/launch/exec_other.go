// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package launch

import (
	"os"
	"os/exec"
	"os/signal"

	"github.com/snakespawn/snakespawn/pkg/types"
)

// execProcess emulates exec(2): the child inherits the standard streams and
// this process exits with the child's status once it finishes.
func execProcess(path string, argv, env []string) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}

	// The console delivers Ctrl+C to the child as well; let it decide.
	signal.Ignore(os.Interrupt)
	os.Exit(int(types.ExitCodeOf(cmd.Wait())))
	return nil
}
