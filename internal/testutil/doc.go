// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the Must* filesystem helpers it writes fake interpreters: small
// POSIX shell scripts that answer "-V", "-m venv" and "-m pip install" the
// way a real Python would, so pipeline tests run without Python installed.
package testutil
