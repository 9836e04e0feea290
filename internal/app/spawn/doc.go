// SPDX-License-Identifier: MPL-2.0

// Package spawn wires the snakespawn pipeline: read the script declaration,
// validate its version requirement, locate and probe interpreters, resolve
// the best one, provision an environment and hand off to it. It decouples
// the CLI layer from the individual components.
package spawn
