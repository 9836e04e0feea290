// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/snakespawn/snakespawn/internal/app/spawn"
	"github.com/snakespawn/snakespawn/internal/issue"
	"github.com/snakespawn/snakespawn/internal/launch"
	"github.com/snakespawn/snakespawn/internal/provision"
	"github.com/snakespawn/snakespawn/internal/resolve"
	"github.com/snakespawn/snakespawn/pkg/pyversion"

	"github.com/mattn/go-isatty"
)

// ServiceError is an error that carries rendering information for the CLI
// layer: a pre-styled message and an optional issue catalog entry.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps pipeline failures to issue catalog IDs and returns a
// styled message for CLI rendering. Zero means no catalog entry applies.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, spawn.ErrScriptNotFound):
		issueID = issue.ScriptNotFoundId
	case errors.Is(err, pyversion.ErrInvalidVersionSpec):
		issueID = issue.InvalidVersionSpecId
	case errors.Is(err, resolve.ErrNoMatchingRuntime):
		issueID = issue.NoMatchingRuntimeId
	case errors.Is(err, provision.ErrProvisioning):
		issueID = issue.ProvisioningFailedId
	case errors.Is(err, launch.ErrLaunch):
		issueID = issue.LaunchFailedId
	case errors.Is(err, context.Canceled):
		// Interrupted by the user; nothing to explain.
	}

	return issueID, fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderServiceError prints the styled message, then the issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError) {
	if svcErr == nil {
		return
	}

	fmt.Fprint(stderr, svcErr.StyledMessage)

	if svcErr.IssueID == 0 {
		return
	}
	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(glamourStyle(stderr))
		if renderErr != nil {
			fmt.Fprintf(stderr, "%s failed to render help: %v\n", WarningStyle.Render("Warning:"), renderErr)
			return
		}
		fmt.Fprint(stderr, rendered)
	}
}

// glamourStyle picks the "dark" style on terminals and "notty" elsewhere.
func glamourStyle(w io.Writer) string {
	if isTerminal(w) {
		return "dark"
	}
	return "notty"
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
