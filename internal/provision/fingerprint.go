// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"slices"
	"strings"

	"github.com/snakespawn/snakespawn/pkg/pyversion"

	"github.com/opencontainers/go-digest"
)

// fingerprintLen is the number of hex digits of the fingerprint used in
// environment directory names.
const fingerprintLen = 16

// InstallDependencies trims every specifier and drops empty ones, keeping the
// declared order and duplicates. It is the list handed to pip.
func InstallDependencies(deps []string) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// NormalizeDependencies returns the sorted set of InstallDependencies(deps)
// without duplicates.
func NormalizeDependencies(deps []string) []string {
	out := InstallDependencies(deps)
	slices.Sort(out)
	return slices.Compact(out)
}

// Fingerprint returns the sha256 digest identifying an environment built
// from an interpreter of the given version with the given dependencies.
// Dependency order and duplicates do not affect the result.
func Fingerprint(version pyversion.Version, deps []string) digest.Digest {
	var sb strings.Builder
	fmt.Fprintf(&sb, "version=%s\n", version)
	for _, d := range NormalizeDependencies(deps) {
		fmt.Fprintf(&sb, "dep=%s\n", d)
	}
	return digest.FromString(sb.String())
}

// EnvName returns the cache directory name for an environment.
func EnvName(version pyversion.Version, fp digest.Digest) string {
	return fmt.Sprintf("py%s-%s", version, fp.Encoded()[:fingerprintLen])
}
