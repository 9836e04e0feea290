// SPDX-License-Identifier: MPL-2.0

// Package scriptmeta reads the interpreter declaration embedded in a script.
//
// Declarations are comment lines that start with the "#|" marker and contain a
// colon. The text between the marker and the first colon is the key, the rest
// of the line is the value; both are trimmed:
//
//	#!/usr/bin/env snakespawn
//	#| python: 3.10
//	#| pip: requests>=2.31
//	#| pip: rich
//
// The "python" key sets the minimum interpreter version (last occurrence wins).
// Every "pip" line appends one dependency specifier, in file order.
// Unknown keys and marker lines without a colon are ignored.
package scriptmeta
