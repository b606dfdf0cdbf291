// SPDX-License-Identifier: MPL-2.0

// Package fspath rewrites filesystem paths into the form expected inside the
// execution environment. On POSIX hosts every path is already in the shape
// the installer sees, whether it runs natively or inside a container; on
// non-POSIX hosts a path handed to a containerized installer must use the
// POSIX separator.
package fspath

import (
	"os"
	"strings"
)

// posixSeparator is the path separator inside the container.
const posixSeparator = "/"

// Translate returns path in the form the installer command line expects.
// The path is returned unchanged unless the host uses a non-POSIX path
// separator and container mode is enabled.
//
// Only the first separator occurrence is rewritten, not all of them. This
// reproduces the behavior of the original packaging tool; see the
// behavioral note in DESIGN.md before changing it.
func Translate(path string, containerMode bool) string {
	return translateWith(path, os.PathSeparator, containerMode)
}

// translateWith is the separator-injectable core of Translate, split out so
// the non-POSIX branch is testable on any host.
func translateWith(path string, hostSeparator rune, containerMode bool) string {
	if hostSeparator == '/' || !containerMode {
		return path
	}
	return strings.Replace(path, string(hostSeparator), posixSeparator, 1)
}

// ContainerJoin joins an in-container base path with a translated relative
// path using the POSIX separator.
func ContainerJoin(base, rel string) string {
	if rel == "" || rel == "." {
		return base
	}
	return strings.TrimSuffix(base, posixSeparator) + posixSeparator + rel
}
