// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared across snakespawn packages.
package types

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

const (
	// ExitSuccess is returned when the run completed.
	ExitSuccess ExitCode = 0
	// ExitFailure is returned for every fatal error before handoff.
	ExitFailure ExitCode = 1
	// ExitUsage is returned for a malformed command line.
	ExitUsage ExitCode = 2
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// ExitCodeOf maps the error of a waited child process to the status this
// process should exit with: nil is success, an *exec.ExitError carries the
// child's own status, anything else is ExitFailure. A child killed by a
// signal reports -1 and is mapped to ExitFailure too.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := ExitCode(exitErr.ExitCode()); code.Validate() == nil {
			return code
		}
	}
	return ExitFailure
}
