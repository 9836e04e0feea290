// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the operation, resource and remediation hints for a
// failure. The Issue catalog holds the longer Markdown guidance the CLI
// renders for each failure kind of the run pipeline.
package issue
