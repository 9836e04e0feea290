// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFileName marks a completed environment.
const ManifestFileName = "snakespawn-env.toml"

// Manifest records what an environment was built from.
type Manifest struct {
	Fingerprint  string    `toml:"fingerprint"`
	Runtime      string    `toml:"runtime"`
	Version      string    `toml:"version"`
	Dependencies []string  `toml:"dependencies"`
	CreatedAt    time.Time `toml:"created_at"`
}

// ReadManifest reads the manifest of the environment in dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFileName, err)
	}
	return &m, nil
}

// writeManifest writes m atomically into dir.
func writeManifest(dir string, m *Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := filepath.Join(dir, ManifestFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, ManifestFileName)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
