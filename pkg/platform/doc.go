// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities, such as
// the executable layout of a Python virtual environment on each OS.
package platform
