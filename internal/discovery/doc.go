// SPDX-License-Identifier: MPL-2.0

// Package discovery enumerates candidate Python interpreter binaries.
//
// Candidates come from three sources, always queried in this order:
//   - every directory on the search path ($PATH unless configured otherwise)
//   - <manylinux root>/<install>/bin, e.g. /opt/python/cp312-cp312/bin
//   - <pyenv root>/<install>/bin, e.g. ~/.pyenv/versions/3.12.1/bin
//
// A file is a candidate when its name is python, python<major> or
// python<major>.<minor> and it is a regular file (symlinks are followed).
// Missing or unreadable directories contribute nothing and are never
// reported as errors. The same binary reachable from two places is yielded
// twice; callers see discovery order unchanged.
package discovery
