// SPDX-License-Identifier: MPL-2.0

// Package manifest reads and filters dependency manifests. A manifest is a
// newline-separated list of requirement specifiers (`name[comparator
// version]`); filtering drops the lines naming a denied package and leaves
// everything else byte-for-byte intact.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// nameDelimiters are the characters that terminate the package name at the
// start of a requirement line.
const nameDelimiters = "=<> \t"

// ErrManifestRead is the sentinel error wrapped by ReadError.
var ErrManifestRead = errors.New("manifest unreadable")

type (
	// DeniedSet is the set of package names excluded from the installed
	// artifact regardless of manifest contents. Matching is exact and
	// case-sensitive; no normalization is applied.
	DeniedSet map[string]struct{}

	// ReadError is returned when the source manifest cannot be read.
	ReadError struct {
		Path string
		Err  error
	}
)

// NewDeniedSet builds a DeniedSet from a list of package names.
func NewDeniedSet(names []string) DeniedSet {
	set := make(DeniedSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether name is denied.
func (s DeniedSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Error implements the error interface for ReadError.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read requirements manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrManifestRead so callers can use errors.Is for
// programmatic detection.
func (e *ReadError) Unwrap() error { return ErrManifestRead }

// PackageName extracts the package name from a requirement line: the
// substring before the first occurrence of any delimiter in `= < > space
// tab`, trimmed.
func PackageName(line string) string {
	if i := strings.IndexAny(line, nameDelimiters); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// Filter reads the manifest at src, drops every line whose package name is
// in denied, and writes the surviving lines newline-joined to dst. dst may
// equal src. Lines are not otherwise normalized, so filtering an
// already-filtered manifest with the same denied set is a no-op.
func Filter(src, dst string, denied DeniedSet) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &ReadError{Path: src, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if denied.Contains(PackageName(line)) {
			continue
		}
		kept = append(kept, line)
	}

	if err := os.WriteFile(dst, []byte(strings.Join(kept, "\n")), 0o644); err != nil {
		return fmt.Errorf("write filtered manifest %s: %w", dst, err)
	}
	return nil
}
