// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Toumetis/serverless-python-requirements/internal/container"
	"github.com/Toumetis/serverless-python-requirements/internal/execute"
	"github.com/Toumetis/serverless-python-requirements/internal/issue"
	"github.com/Toumetis/serverless-python-requirements/internal/manifest"
	"github.com/Toumetis/serverless-python-requirements/internal/packaging"
	"github.com/Toumetis/serverless-python-requirements/internal/project"
)

// classifyPackError maps packaging failures to issue catalog IDs and returns
// a styled message for CLI rendering. It preserves actionable error details.
func classifyPackError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	issueID = issue.InstallFailedId

	var hookErr *packaging.HookError
	var exitErr *execute.NonZeroExitError
	var ae *issue.ActionableError

	switch {
	case errors.Is(err, container.ErrNoEngineAvailable):
		issueID = issue.ContainerEngineNotFoundId
	case errors.Is(err, manifest.ErrManifestRead):
		issueID = issue.ManifestReadFailedId
	case errors.Is(err, project.ErrProjectFileInvalid):
		issueID = issue.ProjectFileInvalidId
	case errors.As(err, &hookErr):
		issueID = issue.HookFailedId
	case errors.As(err, &exitErr):
		issueID = issue.InstallFailedId
	case errors.As(err, &ae) && strings.HasPrefix(ae.Operation, "locate "):
		if ae.Operation == "locate pip" {
			issueID = issue.InstallerNotFoundId
		} else {
			issueID = issue.ContainerEngineNotFoundId
		}
	case errors.As(err, &ae) && strings.HasPrefix(ae.Operation, "start "):
		issueID = issue.SpawnFailedId
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}
