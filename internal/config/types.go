// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// EngineDocker runs containerized installs through the Docker CLI.
	EngineDocker EngineName = "docker"
	// EnginePodman runs containerized installs through the Podman CLI.
	EnginePodman EngineName = "podman"

	// DefaultImage is applied when container mode is enabled and neither an
	// image nor a containerfile is configured.
	DefaultImage = "docker.io/library/python:3.12-slim"
	// DefaultManifestName is the manifest file looked up in each module.
	DefaultManifestName = "requirements.txt"
	// DefaultOutputDir is the base output directory, relative to the
	// service directory.
	DefaultOutputDir = ".serverless"
	// DefaultPipBinary is the installer binary used when none is configured.
	DefaultPipBinary = "pip"
)

var (
	// ErrInvalidEngineName is the sentinel error wrapped by InvalidEngineNameError.
	ErrInvalidEngineName = errors.New("invalid container engine")
	// ErrInvalidContainerSettings is the sentinel error wrapped by InvalidContainerSettingsError.
	ErrInvalidContainerSettings = errors.New("invalid container settings")
)

type (
	// EngineName selects the container engine CLI. The zero value ("") is
	// valid and means "docker, falling back to podman".
	EngineName string

	// InvalidEngineNameError is returned when an EngineName is not recognized.
	InvalidEngineNameError struct {
		Value EngineName
	}

	// ContainerSettings configures containerized installation.
	// Invariant after Load: when Enabled is true, exactly one of Image and
	// Containerfile is set.
	ContainerSettings struct {
		// Enabled switches installation from the host pip to a container run.
		Enabled bool `mapstructure:"enabled" toml:"enabled"`
		// Engine picks the container CLI (docker or podman).
		Engine EngineName `mapstructure:"engine" toml:"engine"`
		// Image is a pre-built image reference to run.
		Image string `mapstructure:"image" toml:"image"`
		// Containerfile builds the image from the given file instead.
		Containerfile string `mapstructure:"containerfile" toml:"containerfile"`
		// ForwardSSH bind-mounts the caller's SSH credentials and agent
		// socket into the container.
		ForwardSSH bool `mapstructure:"forward_ssh" toml:"forward_ssh"`
	}

	// InvalidContainerSettingsError is returned when ContainerSettings
	// violate the image XOR containerfile invariant.
	InvalidContainerSettingsError struct {
		Image         string
		Containerfile string
	}

	// Settings is the resolved, immutable configuration for one
	// orchestration run. Optional fields have their documented defaults
	// applied once by Load; components never re-default them.
	Settings struct {
		// PipBinary is the installer executable.
		PipBinary string `mapstructure:"pip_binary" toml:"pip_binary"`
		// ExtraArgs are appended to every install invocation.
		ExtraArgs []string `mapstructure:"extra_args" toml:"extra_args"`
		// DeniedPackages are excluded from the artifact regardless of
		// manifest contents.
		DeniedPackages []string `mapstructure:"denied_packages" toml:"denied_packages"`
		// ManifestName is the per-module manifest file name.
		ManifestName string `mapstructure:"manifest_name" toml:"manifest_name"`
		// OutputDir is the base output directory relative to the service dir.
		OutputDir string `mapstructure:"output_dir" toml:"output_dir"`
		// PerFunction packages each declared function's module separately.
		PerFunction bool `mapstructure:"per_function" toml:"per_function"`
		// Vendor is a pre-built library directory copied into the output in
		// single-pass mode.
		Vendor string `mapstructure:"vendor" toml:"vendor"`
		// PostInstall is the hook run after a single-pass install; first
		// element is the command, the rest are its arguments.
		PostInstall []string `mapstructure:"post_install" toml:"post_install"`
		// Verbose forwards installer stdout to the log.
		Verbose bool `mapstructure:"verbose" toml:"verbose"`

		Container ContainerSettings `mapstructure:"container" toml:"container"`
	}
)

// Error implements the error interface.
func (e *InvalidEngineNameError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidEngineName so callers can use errors.Is for
// programmatic detection.
func (e *InvalidEngineNameError) Unwrap() error { return ErrInvalidEngineName }

// Validate returns an error if the EngineName is not one of the defined
// engines. The zero value ("") is valid.
func (n EngineName) Validate() error {
	switch n {
	case EngineDocker, EnginePodman, "":
		return nil
	default:
		return &InvalidEngineNameError{Value: n}
	}
}

// String returns the string representation of the EngineName.
func (n EngineName) String() string { return string(n) }

// Error implements the error interface.
func (e *InvalidContainerSettingsError) Error() string {
	if e.Image != "" && e.Containerfile != "" {
		return fmt.Sprintf("container image %q and containerfile %q are mutually exclusive", e.Image, e.Containerfile)
	}
	return "container mode requires an image or a containerfile"
}

// Unwrap returns ErrInvalidContainerSettings for errors.Is() compatibility.
func (e *InvalidContainerSettingsError) Unwrap() error { return ErrInvalidContainerSettings }

// Validate checks the container settings. The image/containerfile invariant
// is only enforced when container mode is enabled; Load applies the default
// image beforehand, so a violation here means the user set both.
func (c ContainerSettings) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if !c.Enabled {
		return nil
	}
	if (c.Image == "") == (c.Containerfile == "") {
		return &InvalidContainerSettingsError{Image: c.Image, Containerfile: c.Containerfile}
	}
	return nil
}

// Validate checks the full settings value.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.PipBinary) == "" {
		return errors.New("pip_binary must not be empty")
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		return errors.New("output_dir must not be empty")
	}
	if strings.TrimSpace(s.ManifestName) == "" {
		return errors.New("manifest_name must not be empty")
	}
	return s.Container.Validate()
}
