// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/snakespawn/snakespawn/cmd/snakespawn"

func main() {
	cmd.Execute()
}
