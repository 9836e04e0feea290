// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the snakespawn command line.
//
// The root command takes a script path followed by the script's own
// arguments. Flag parsing stops at the script path so every later token is
// forwarded verbatim.
package cmd
