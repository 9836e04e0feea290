// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// IsWindows reports whether the binary was built for Windows.
func IsWindows() bool { return runtime.GOOS == Windows }

// VenvBinDir returns the executables directory name inside a virtual
// environment: "Scripts" on Windows, "bin" elsewhere.
func VenvBinDir() string {
	if IsWindows() {
		return "Scripts"
	}
	return "bin"
}

// ExeName appends the platform executable suffix to name.
func ExeName(name string) string {
	if IsWindows() {
		return name + ".exe"
	}
	return name
}
