// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"sort"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	CondaNotFoundId Id = iota + 1
	EnvironmentMissingId
	AmbiguousOutputId
	CommandFailedId
	NoCompatibleBinaryId
	ConfigLoadFailedId
	CleanupFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the help card with glamour using the given style
// ("auto", "dark", "light", "notty" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	condaNotFoundIssue = &Issue{
		id: CondaNotFoundId,
		mdMsg: `
# conda was not found!

The installer drives everything through the conda command line, and it
could not be started.

## Things you can try:
- Open an "Anaconda Prompt" (Windows) or a shell where ` + "`conda`" + ` works
- Point the installer at your conda binary:
~~~
$ export BQINSTALL_TOOLS_CONDA=/opt/miniconda3/bin/conda
~~~`,
		extLinks: []HttpLink{"https://docs.conda.io/projects/conda/en/latest/user-guide/install/"},
	}

	environmentMissingIssue = &Issue{
		id: EnvironmentMissingId,
		mdMsg: `
# No conda environment is active!

Everything is installed into the active conda environment, so one has to be
active before the installer starts. Nothing was changed on disk.

## Things you can try:
~~~
$ conda activate base
$ bqinstall psbody
~~~`,
	}

	ambiguousOutputIssue = &Issue{
		id: AmbiguousOutputId,
		mdMsg: `
# Unexpected tool output!

A value that should appear exactly once in the output of conda or pip was
missing or appeared several times. This usually means the tool is a version
the installer does not recognise.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see the raw output
- Update conda and pip, then retry`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# An external command failed!

The command, its exit status and any captured output were logged above.
The installer stops at the first failing command and cleans up after itself.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to stream command output live
- Re-run with ` + "`--no-cleanup`" + ` to keep the checkout and trampoline for inspection`,
	}

	noCompatibleBinaryIssue = &Issue{
		id: NoCompatibleBinaryId,
		mdMsg: `
# No compatible PyOpenGL wheel!

PyOpenGL has no official Windows build with the native accelerator, and none
of the known prebuilt wheels matches this interpreter and platform.

## Things you can try:
- Use a 64-bit Python between 3.5 and 3.10
- Install a matching PyOpenGL wheel by hand, then re-run the installer`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show where the configuration is read from:
~~~
$ bqinstall config path
~~~
- Recreate it with defaults:
~~~
$ bqinstall config init --force
~~~`,
	}

	cleanupFailedIssue = &Issue{
		id: CleanupFailedId,
		mdMsg: `
# Failed to clean up!

A temporary checkout directory or trampoline script could not be removed.

## Things you can try:
- Close programs (editors, terminals) holding files inside the directory
- Delete the ` + "`.bqinstall.*`" + ` entries in the working directory by hand`,
	}

	issues = map[Id]*Issue{
		condaNotFoundIssue.Id():      condaNotFoundIssue,
		environmentMissingIssue.Id(): environmentMissingIssue,
		ambiguousOutputIssue.Id():    ambiguousOutputIssue,
		commandFailedIssue.Id():      commandFailedIssue,
		noCompatibleBinaryIssue.Id(): noCompatibleBinaryIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		cleanupFailedIssue.Id():      cleanupFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, is)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
