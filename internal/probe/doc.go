// SPDX-License-Identifier: MPL-2.0

// Package probe asks candidate interpreters for their version.
//
// A probe runs "<candidate> -V" with stdin closed, stderr discarded and a
// bounded timeout. Anything other than a single "Python <dotted-integers>"
// line on stdout with exit status zero leaves the candidate without a
// version. Probe failures are recorded on the result and never returned
// as errors.
package probe
