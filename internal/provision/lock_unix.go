// SPDX-License-Identifier: MPL-2.0

//go:build unix

package provision

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// envLock holds a blocking exclusive flock on <env dir>.lock. The zero-byte
// lock file is left behind; the kernel drops the lock when the fd closes,
// including on crash.
type envLock struct {
	file *os.File
}

// acquireEnvLock opens (or creates) path and blocks until the exclusive lock is held.
func acquireEnvLock(path string) (*envLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &envLock{file: f}, nil
}

// Release unlocks and closes the lock file. Subsequent calls are no-ops.
func (l *envLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	// Close releases the flock too.
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
