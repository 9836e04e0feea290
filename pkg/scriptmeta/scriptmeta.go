// SPDX-License-Identifier: MPL-2.0

package scriptmeta

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"
)

const (
	// Marker prefixes every declaration line.
	Marker = "#|"

	// KeyPython declares the minimum interpreter version.
	KeyPython = "python"
	// KeyPip declares one dependency specifier.
	KeyPip = "pip"

	// MaxLineLength is the longest script line the reader accepts.
	MaxLineLength = 1 << 20
)

type (
	// Declaration is the interpreter requirement and dependency list a script
	// declares about itself. Fields are unexported for immutability.
	Declaration struct {
		python    string
		hasPython bool
		deps      []string
	}

	// Entry is one raw key/value pair taken from a declaration line.
	Entry struct {
		Key   string
		Value string
	}
)

// New builds a Declaration directly. An empty python string means no
// requirement was declared.
func New(python string, deps ...string) Declaration {
	return Declaration{
		python:    python,
		hasPython: python != "",
		deps:      slices.Clone(deps),
	}
}

// Python returns the declared version requirement and whether one was present.
func (d Declaration) Python() (string, bool) {
	return d.python, d.hasPython
}

// Dependencies returns the declared dependency specifiers in file order.
func (d Declaration) Dependencies() []string {
	return slices.Clone(d.deps)
}

// Entries yields every declaration line in r as a key/value pair, skipping
// non-declaration lines. Scanning stops at the first read error, which is
// reported through errp when non-nil.
func Entries(r io.Reader, errp *error) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, Marker) {
				continue
			}
			key, value, ok := strings.Cut(line[len(Marker):], ":")
			if !ok {
				continue
			}
			if !yield(Entry{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}) {
				return
			}
		}
		if errp != nil {
			*errp = sc.Err()
		}
	}
}

// Parse reads a Declaration from script text.
func Parse(r io.Reader) (Declaration, error) {
	var (
		d   Declaration
		err error
	)
	for e := range Entries(r, &err) {
		switch e.Key {
		case KeyPython:
			d.python = e.Value
			d.hasPython = true
		case KeyPip:
			d.deps = append(d.deps, e.Value)
		}
	}
	if err != nil {
		return Declaration{}, fmt.Errorf("failed to read declaration: %w", err)
	}
	return d, nil
}

// ParseFile reads the Declaration of the script at path.
func ParseFile(path string) (Declaration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Declaration{}, err
	}
	defer func() { _ = f.Close() }() // Read-only file; close error non-critical

	d, err := Parse(f)
	if err != nil {
		return Declaration{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
