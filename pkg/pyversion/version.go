// SPDX-License-Identifier: MPL-2.0

package pyversion

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrInvalidVersionSpec is the sentinel error wrapped by InvalidVersionSpecError.
	ErrInvalidVersionSpec = errors.New("invalid version spec")

	dottedIntegers = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)
)

type (
	// Version is a parsed dotted-integer version. The zero value has no
	// components and sorts before every parsed version.
	Version struct {
		parts []int
	}

	// InvalidVersionError is returned when a probed version string is not a
	// dotted sequence of non-negative integers.
	InvalidVersionError struct {
		Value string
	}

	// Requirement is the minimum version a script declares. The zero value
	// places no constraint on the version.
	Requirement struct {
		min     Version
		present bool
	}

	// InvalidVersionSpecError is returned when a declared requirement falls
	// outside the restricted dotted-integer grammar.
	InvalidVersionSpecError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q (expected dotted integers such as 3.11.2)", e.Value)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Error implements the error interface.
func (e *InvalidVersionSpecError) Error() string {
	return fmt.Sprintf("unsupported Python version spec %q (only x.y.z style minimums are supported)", e.Value)
}

// Unwrap returns ErrInvalidVersionSpec so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionSpecError) Unwrap() error { return ErrInvalidVersionSpec }

// Parse parses a dotted-integer version such as "3.11.2".
func Parse(s string) (Version, error) {
	parts, ok := splitDotted(s)
	if !ok {
		return Version{}, &InvalidVersionError{Value: s}
	}
	return Version{parts: parts}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// constants and test fixtures.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Parts returns a copy of the integer components.
func (v Version) Parts() []int { return slices.Clone(v.parts) }

// String renders the version in dotted form.
func (v Version) String() string {
	fields := make([]string, len(v.parts))
	for i, p := range v.parts {
		fields[i] = strconv.Itoa(p)
	}
	return strings.Join(fields, ".")
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b. A strict prefix sorts before the longer sequence.
func Compare(a, b Version) int {
	return slices.Compare(a.parts, b.parts)
}

// ParseRequirement parses a declared minimum version. An empty string yields
// the unconstrained requirement.
func ParseRequirement(raw string) (Requirement, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Requirement{}, nil
	}
	parts, ok := splitDotted(raw)
	if !ok {
		return Requirement{}, &InvalidVersionSpecError{Value: raw}
	}
	return Requirement{min: Version{parts: parts}, present: true}, nil
}

// IsAny reports whether the requirement places no constraint.
func (r Requirement) IsAny() bool { return !r.present }

// Min returns the declared minimum. It is the zero Version when IsAny is true.
func (r Requirement) Min() Version { return r.min }

// Allows reports whether v satisfies the requirement.
func (r Requirement) Allows(v Version) bool {
	if !r.present {
		return true
	}
	return Compare(v, r.min) >= 0
}

// String returns the declared minimum, or "any" when unconstrained.
func (r Requirement) String() string {
	if !r.present {
		return "any"
	}
	return r.min.String()
}

func splitDotted(s string) ([]int, bool) {
	if !dottedIntegers.MatchString(s) {
		return nil, false
	}
	fields := strings.Split(s, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			// overflow
			return nil, false
		}
		parts[i] = n
	}
	return parts, true
}
