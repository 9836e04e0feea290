// SPDX-License-Identifier: MPL-2.0

// Package resolve selects interpreters that satisfy a declared version requirement.
package resolve

import (
	"errors"
	"fmt"
	"slices"

	"github.com/snakespawn/snakespawn/internal/probe"
	"github.com/snakespawn/snakespawn/pkg/pyversion"
)

// ErrNoMatchingRuntime is the sentinel error wrapped by NoMatchingRuntimeError.
var ErrNoMatchingRuntime = errors.New("no matching runtime")

type (
	// Match is an accepted interpreter and the version it reported.
	Match struct {
		Path    string
		Version pyversion.Version
	}

	// NoMatchingRuntimeError is returned when no probed candidate satisfies
	// the requirement. Probed counts every candidate, Usable those that
	// reported a version.
	NoMatchingRuntimeError struct {
		Requirement pyversion.Requirement
		Probed      int
		Usable      int
	}
)

// Error implements the error interface.
func (e *NoMatchingRuntimeError) Error() string {
	if e.Requirement.IsAny() {
		return fmt.Sprintf("could not find any Python runtime (%d candidate(s) probed)", e.Probed)
	}
	return fmt.Sprintf("could not find a Python matching %s (%d candidate(s) probed, %d usable)",
		e.Requirement, e.Probed, e.Usable)
}

// Unwrap returns ErrNoMatchingRuntime for errors.Is() compatibility.
func (e *NoMatchingRuntimeError) Unwrap() error { return ErrNoMatchingRuntime }

// Resolve orders the usable candidates best-first.
//
// With a requirement, every candidate whose version is at least the minimum
// is kept in discovery order. Without one, candidates are sorted by version,
// newest first, with ties kept in discovery order. An empty result is
// reported as *NoMatchingRuntimeError.
func Resolve(req pyversion.Requirement, probed []probe.ProbedCandidate) ([]Match, error) {
	matches := make([]Match, 0, len(probed))
	usable := 0
	for _, pc := range probed {
		v, ok := pc.Version()
		if !ok {
			continue
		}
		usable++
		if req.Allows(v) {
			matches = append(matches, Match{Path: pc.Path, Version: v})
		}
	}

	if req.IsAny() {
		slices.SortStableFunc(matches, func(a, b Match) int {
			return pyversion.Compare(b.Version, a.Version)
		})
	}

	if len(matches) == 0 {
		return nil, &NoMatchingRuntimeError{Requirement: req, Probed: len(probed), Usable: usable}
	}
	return matches, nil
}
