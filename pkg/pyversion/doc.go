// SPDX-License-Identifier: MPL-2.0

// Package pyversion models interpreter versions as dotted sequences of
// non-negative integers ("3", "3.10", "3.10.4") and the minimum-version
// requirement a script can declare.
//
// Ordering is lexicographic over the integer components. When one sequence is
// a prefix of the other, the shorter one sorts first, so "3" < "3.0" < "3.0.1".
// Requirements are minimums only; there is no range or PEP 440 syntax.
package pyversion
