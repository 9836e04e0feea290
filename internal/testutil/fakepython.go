// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"runtime"
	"strings"
	"testing"
)

// PipLogName is the file, next to an environment's bin directory, where a
// fake interpreter records every "-m pip install" argument, one per line.
const PipLogName = "pip-installed.txt"

// FakePython describes the behavior of a shell-script interpreter double.
type FakePython struct {
	// Version is reported as "Python <Version>" by -V.
	Version string
	// VersionOutput replaces the whole -V output when non-empty.
	VersionOutput string
	// VersionExit is the exit status of -V.
	VersionExit int
	// Hang makes -V block far longer than any probe timeout.
	Hang bool
	// FailVenv makes "-m venv" exit 1 without creating anything.
	FailVenv bool
	// FailPip makes "-m pip" exit 1.
	FailPip bool
}

// WriteFakePython writes an executable fake interpreter to path and returns
// path. "-m venv DIR" copies the script to DIR/bin/python so the environment
// interpreter behaves the same way. Any other invocation prints "run" and its
// arguments to stdout. Tests using it are skipped on Windows.
func WriteFakePython(t testing.TB, path string, fp FakePython) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreters are POSIX shell scripts")
	}

	versionOut := fp.VersionOutput
	if versionOut == "" && fp.Version != "" {
		versionOut = "Python " + fp.Version
	}

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString("case \"$1\" in\n")
	sb.WriteString("-V)\n")
	if fp.Hang {
		sb.WriteString("\texec sleep 30\n")
	}
	if versionOut != "" {
		fmt.Fprintf(&sb, "\tprintf '%%s\\n' %s\n", shellQuote(versionOut))
	}
	fmt.Fprintf(&sb, "\texit %d\n", fp.VersionExit)
	sb.WriteString("\t;;\n")
	sb.WriteString("-m)\n")
	sb.WriteString("\tcase \"$2\" in\n")
	sb.WriteString("\tvenv)\n")
	if fp.FailVenv {
		sb.WriteString("\t\techo 'Error: venv module unavailable' >&2\n\t\texit 1\n")
	}
	sb.WriteString("\t\tmkdir -p \"$3/bin\" || exit 1\n")
	sb.WriteString("\t\tcp \"$0\" \"$3/bin/python\" && chmod 755 \"$3/bin/python\"\n")
	sb.WriteString("\t\texit $?\n")
	sb.WriteString("\t\t;;\n")
	sb.WriteString("\tpip)\n")
	if fp.FailPip {
		sb.WriteString("\t\techo 'ERROR: No matching distribution found' >&2\n\t\texit 1\n")
	}
	sb.WriteString("\t\tshift 3\n")
	fmt.Fprintf(&sb, "\t\tfor dep in \"$@\"; do printf '%%s\\n' \"$dep\" >> \"${0%%/*}/../%s\"; done\n", PipLogName)
	sb.WriteString("\t\techo \"Successfully installed $*\" >&2\n")
	sb.WriteString("\t\texit 0\n")
	sb.WriteString("\t\t;;\n")
	sb.WriteString("\tesac\n")
	sb.WriteString("\t;;\n")
	sb.WriteString("esac\n")
	sb.WriteString("echo \"run $*\"\n")

	MustWriteFile(t, path, sb.String(), 0o755)
	return path
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
