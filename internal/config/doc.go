// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/snakespawn/config.cue (resolved
// with adrg/xdg, so macOS and Windows use their native locations) or from an
// explicit --config file. Every key can be overridden by an environment
// variable named SNAKESPAWN_<SECTION>_<KEY>, for example
// SNAKESPAWN_PROBE_CONCURRENCY=8.
//
// Files are validated against the embedded config_schema.cue before they are
// merged. The decoded Config is validated again so that environment overrides
// obey the same ranges.
package config
