// SPDX-License-Identifier: MPL-2.0

package spawn

import (
	"io"

	"github.com/snakespawn/snakespawn/internal/config"
	"github.com/snakespawn/snakespawn/internal/discovery"
	"github.com/snakespawn/snakespawn/internal/launch"
	"github.com/snakespawn/snakespawn/internal/probe"
	"github.com/snakespawn/snakespawn/internal/provision"

	"github.com/charmbracelet/log"
)

// FromConfig builds the production Pipeline. Empty discovery settings fall
// back to the invoking environment; provisioning tool output goes to output.
func FromConfig(cfg *config.Config, logger *log.Logger, output io.Writer, opts ...provision.Option) *Pipeline {
	return New(
		discovery.NewLocator(LocatorConfig(cfg.Discovery), discovery.WithLogger(logger)),
		probe.New(
			probe.WithTimeout(cfg.Probe.Timeout),
			probe.WithConcurrency(cfg.Probe.Concurrency),
			probe.WithLogger(logger),
		),
		provision.New(
			provision.FromSettings(cfg.Environments, append([]provision.Option{provision.WithOutput(output)}, opts...)...),
			provision.WithLogger(logger),
		),
		launch.New(launch.WithLogger(logger)),
		WithLogger(logger),
	)
}

// LocatorConfig overlays the configured discovery roots on the defaults.
func LocatorConfig(s config.DiscoveryConfig) discovery.Config {
	cfg := discovery.Defaults()
	if s.SearchPath != "" {
		cfg.SearchPath = s.SearchPath
	}
	if s.ManylinuxRoot != "" {
		cfg.ManylinuxRoot = s.ManylinuxRoot
	}
	if s.PyenvRoot != "" {
		cfg.PyenvRoot = s.PyenvRoot
	}
	return cfg
}
