// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package provision

// envLock is the stub used where flock is unavailable. Concurrent builds of
// the same environment are not serialized there.
type envLock struct{}

func acquireEnvLock(string) (*envLock, error) {
	return &envLock{}, nil
}

// Release is a no-op.
func (l *envLock) Release() {}
