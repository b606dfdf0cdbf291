// SPDX-License-Identifier: MPL-2.0

package container

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// imageTagPrefix namespaces images built by this tool.
const imageTagPrefix = "pyreq-build"

// EnsureImage returns a usable image reference for a Containerfile-based
// configuration. The tag is derived from the Containerfile contents, so an
// unchanged file reuses the previously built image and repeated deployment
// units within one run share a single build.
func EnsureImage(e Engine, containerfile, contextDir string) (string, error) {
	hash, err := fileHash(containerfile)
	if err != nil {
		return "", fmt.Errorf("hash containerfile %s: %w", containerfile, err)
	}
	tag := fmt.Sprintf("%s:%s", imageTagPrefix, hash[:12])

	exists, err := e.ImageExists(tag)
	if err != nil {
		return "", err
	}
	if exists {
		return tag, nil
	}

	if err := e.Build(BuildOptions{
		ContextDir:    contextDir,
		Containerfile: containerfile,
		Tag:           tag,
	}); err != nil {
		return "", err
	}
	return tag, nil
}

// fileHash calculates the SHA256 hash of a file's contents.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // Read-only file; close error non-critical

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
