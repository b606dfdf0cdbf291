// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container engine CLIs
// (Docker/Podman). The engine is consulted only through its standard
// command-line invocations, never through an API socket.
package container

import (
	"errors"
	"fmt"
)

// EngineType identifies the container engine type.
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

// Engine is the subset of container engine behavior the packaging flow
// needs: availability detection, image building, and image lookup. Running
// the installer inside the engine goes through the command executor, which
// is handed the engine binary path.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// BinaryPath returns the resolved path of the engine CLI binary.
	BinaryPath() string
	// Available checks if the engine is usable on this system.
	Available() bool
	// Build builds an image from a Containerfile.
	Build(opts BuildOptions) error
	// ImageExists checks if an image reference resolves locally.
	ImageExists(image string) (bool, error)
}

// ErrNoEngineAvailable is the sentinel error wrapped by
// EngineNotAvailableError.
var ErrNoEngineAvailable = errors.New("no container engine available")

// EngineNotAvailableError is returned when the requested container engine
// (and its fallback) cannot be used.
type EngineNotAvailableError struct {
	Engine string
	Reason string
}

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine %q is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable so callers can use errors.Is for
// programmatic detection.
func (e *EngineNotAvailableError) Unwrap() error { return ErrNoEngineAvailable }

// AutoDetectEngine returns the first available engine, preferring docker.
func AutoDetectEngine(opts ...BaseCLIEngineOption) (Engine, error) {
	return NewEngine("", opts...)
}

// NewEngine creates a container engine based on preference, falling back to
// the other engine when the preferred one is unavailable.
func NewEngine(preferred EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	switch preferred {
	case EngineTypePodman:
		podman := NewPodmanEngine(opts...)
		if podman.Available() {
			return podman, nil
		}
		docker := NewDockerEngine(opts...)
		if docker.Available() {
			return docker, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: string(EngineTypePodman),
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker, "":
		docker := NewDockerEngine(opts...)
		if docker.Available() {
			return docker, nil
		}
		podman := NewPodmanEngine(opts...)
		if podman.Available() {
			return podman, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: string(EngineTypeDocker),
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferred)
	}
}
