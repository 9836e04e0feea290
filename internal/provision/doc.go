// SPDX-License-Identifier: MPL-2.0

// Package provision builds the virtual environment a script runs in.
//
// An environment is created with "<runtime> -m venv DIR" and the declared
// dependencies are installed, in declared order, with a single
// "DIR/bin/python -m pip install ..." call. pip output goes to the
// configured writer (stderr by default) so the script's stdout stays clean.
//
// When reuse is enabled, environments live under the cache directory in a
// directory named after a fingerprint of the interpreter version and the
// normalized dependency set:
//
//	<cache>/py3.12.1-0a1b2c3d4e5f6a7b/
//	<cache>/py3.12.1-0a1b2c3d4e5f6a7b.lock
//
// A snakespawn-env.toml manifest is written last; an environment without a
// matching manifest or without its interpreter is rebuilt from scratch.
// Concurrent invocations building the same environment serialize on the
// .lock file (flock on Unix). With reuse disabled every run gets a fresh
// os.MkdirTemp directory that is never cleaned up by this package.
//
//	p := provision.New(provision.DefaultConfig())
//	env, err := p.Provision(ctx, provision.Request{
//		Runtime:      "/usr/bin/python3",
//		Version:      pyversion.MustParse("3.12.1"),
//		Dependencies: []string{"requests", "rich"},
//	})
//	// env.Python is the interpreter to exec
package provision
