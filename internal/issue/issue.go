// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ScriptNotFoundId Id = iota + 1
	InvalidVersionSpecId
	NoMatchingRuntimeId
	ProvisioningFailedId
	LaunchFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue Markdown with the given glamour style ("dark",
// "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	scriptNotFoundIssue = &Issue{
		id: ScriptNotFoundId,
		mdMsg: `
# Script not found!

The script passed to snakespawn could not be read.

## Things you can try:
- Check the path and that the file is readable:
~~~
$ ls -l path/to/script.py
~~~

- Invoke snakespawn with the script as the first argument:
~~~
$ snakespawn script.py --script-flag value
~~~`,
	}

	invalidVersionSpecIssue = &Issue{
		id: InvalidVersionSpecId,
		mdMsg: `
# Unsupported Python version spec!

The ` + "`#| python:`" + ` line must hold a plain dotted minimum version.
Comparison operators, wildcards and pre-release tags are not understood.

## Valid examples:
~~~python
#| python: 3
#| python: 3.9
#| python: 3.11.4
~~~

Any interpreter whose version is equal to or newer than the minimum is accepted.`,
		extLinks: []HttpLink{
			"https://packaging.python.org/en/latest/specifications/version-specifiers/",
		},
	}

	noMatchingRuntimeIssue = &Issue{
		id: NoMatchingRuntimeId,
		mdMsg: `
# No matching Python runtime!

No interpreter on this machine satisfies the version the script declares.

## Search locations (in order):
1. Every directory on your PATH (python, python3, python3.12, ...)
2. /opt/python/*/bin (manylinux layout)
3. ~/.pyenv/versions/*/bin

## Things you can try:
- List what snakespawn can see:
~~~
$ snakespawn --list-runtimes
~~~

- Install a newer interpreter, for example with pyenv:
~~~
$ pyenv install 3.12
~~~

- Lower the ` + "`#| python:`" + ` minimum if the script allows it.`,
		extLinks: []HttpLink{
			"https://github.com/pyenv/pyenv",
		},
	}

	provisioningFailedIssue = &Issue{
		id: ProvisioningFailedId,
		mdMsg: `
# Failed to prepare the virtual environment!

Creating the environment or installing the declared dependencies failed.
pip output is shown above this message.

## Things you can try:
- Check every ` + "`#| pip:`" + ` specifier for typos.
- Make sure the interpreter ships the venv module (Debian: ` + "`apt install python3-venv`" + `).
- Retry with a throwaway environment:
~~~
$ snakespawn --fresh script.py
~~~

- Remove cached environments:
~~~
$ rm -rf ~/.cache/snakespawn/envs
~~~`,
		extLinks: []HttpLink{
			"https://docs.python.org/3/library/venv.html",
			"https://pip.pypa.io/en/stable/reference/requirement-specifiers/",
		},
	}

	launchFailedIssue = &Issue{
		id: LaunchFailedId,
		mdMsg: `
# Failed to launch the script!

The environment is ready but the interpreter could not be started.

## Things you can try:
- Check the environment interpreter is still executable.
- Rebuild the environment:
~~~
$ snakespawn --fresh script.py
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or did not validate.

## Default location:
~~~
$XDG_CONFIG_HOME/snakespawn/config.cue
~~~

## Example configuration:
~~~cue
probe: {
  timeout:     "3s"
  concurrency: 4
}
environments: {
  reuse: true
}
~~~

## Things you can try:
- Check the file for CUE syntax errors.
- Run with an explicit file to isolate the problem:
~~~
$ snakespawn --config ./config.cue script.py
~~~`,
	}

	issues = map[Id]*Issue{
		scriptNotFoundIssue.Id():     scriptNotFoundIssue,
		invalidVersionSpecIssue.Id(): invalidVersionSpecIssue,
		noMatchingRuntimeIssue.Id():  noMatchingRuntimeIssue,
		provisioningFailedIssue.Id(): provisioningFailedIssue,
		launchFailedIssue.Id():       launchFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
