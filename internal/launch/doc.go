// SPDX-License-Identifier: MPL-2.0

// Package launch hands the process over to the provisioned interpreter.
//
// On Unix the snakespawn process image is replaced with exec(2); a successful
// Launch never returns. Platforms without exec spawn the interpreter with the
// inherited standard streams, wait for it and exit with its status.
package launch
