// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	ManifestReadFailedId Id = iota + 1
	InstallerNotFoundId
	ContainerEngineNotFoundId
	InstallFailedId
	HookFailedId
	SpawnFailedId
	ConfigLoadFailedId
	ProjectFileInvalidId
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

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.extLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	manifestReadFailedIssue = &Issue{
		id: ManifestReadFailedId,
		mdMsg: `
# Requirements manifest unreadable!

The dependency manifest could not be read, so nothing was installed.

## Things you can try:
- Check that the manifest exists in the module directory
- Set the manifest_name option if your manifest is not requirements.txt:
~~~toml
manifest_name = "requirements-prod.txt"
~~~
- Check file permissions on the manifest`,
	}

	installerNotFoundIssue = &Issue{
		id: InstallerNotFoundId,
		mdMsg: `
# pip not found!

The installer binary could not be located, so no packages were installed.

## Things you can try:
- Install pip for the Python version you target
- Point the pip_binary option at the executable to use:
~~~toml
pip_binary = "/usr/local/bin/pip3.12"
~~~
- Enable container mode so pip runs inside an image that ships it:
~~~toml
[container]
enabled = true
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# No container engine available!

Container mode is enabled but neither docker nor podman could be found.

## Things you can try:
- Install docker or podman and make sure it is on your PATH
- Pick the engine explicitly:
~~~toml
[container]
engine = "podman"
~~~
- Disable container mode to run pip directly on the host:
~~~toml
[container]
enabled = false
~~~`,
		extLinks: []HttpLink{
			"https://docs.docker.com/engine/install/",
			"https://podman.io/docs/installation",
		},
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Dependency installation failed!

pip exited with a nonzero status. Its own diagnostics are printed above
verbatim.

## Common causes:
- A requirement pins a version that does not exist
- A package needs build tools missing from the host or image
- Conflicting version constraints across requirements

## Things you can try:
- Run with --verbose to see the full installer output
- Install the failing requirement by hand to reproduce
- In container mode, switch to an image with build tooling`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# Post-install hook failed!

The configured post_install command exited with a nonzero status.

## Things you can try:
- Run the hook by hand in the output directory
- Check that the hook command is available in the execution environment
- In container mode, remember the hook runs inside the image via /bin/sh`,
	}

	spawnFailedIssue = &Issue{
		id: SpawnFailedId,
		mdMsg: `
# Could not start the external command!

The process could not be launched at all (this is not a nonzero exit).

## Common causes:
- Permission denied on the executable
- The working directory no longer exists
- Resource limits preventing process creation`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The pyreq configuration could not be loaded or did not validate.

## Things you can try:
- Check the TOML syntax of your config file
- Remember that container mode needs exactly one of image or containerfile:
~~~toml
[container]
enabled = true
image = "docker.io/library/python:3.12-slim"
~~~
- Remove the config file to fall back to defaults`,
	}

	projectFileInvalidIssue = &Issue{
		id: ProjectFileInvalidId,
		mdMsg: `
# Invalid project file!

pyreq.toml exists but could not be parsed.

## Example project file:
~~~toml
[functions.api]
module = "services/api"

[functions.worker]
module = "services/worker"
vendor = "vendored-libs"
post_install = ["./strip-binaries.sh"]
~~~`,
	}

	issues = map[Id]*Issue{
		manifestReadFailedIssue.Id():      manifestReadFailedIssue,
		installerNotFoundIssue.Id():       installerNotFoundIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		installFailedIssue.Id():           installFailedIssue,
		hookFailedIssue.Id():              hookFailedIssue,
		spawnFailedIssue.Id():             spawnFailedIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		projectFileInvalidIssue.Id():      projectFileInvalidIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
