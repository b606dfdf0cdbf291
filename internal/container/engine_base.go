// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"os/exec"
	"path/filepath"

	"github.com/Toumetis/serverless-python-requirements/internal/issue"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the common implementation for CLI-based
	// container engines. Docker and Podman engines embed this struct;
	// engine-specific behavior (availability probes) stays on the concrete
	// types.
	BaseCLIEngine struct {
		name        string
		binaryPath  string
		execCommand ExecCommandFunc
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir string
		// Containerfile is the path to the Containerfile, resolved relative
		// to ContextDir when not absolute.
		Containerfile string
		// Tag is the image tag.
		Tag string
		// Output receives the engine's combined build output. Nil discards it.
		Output *bytes.Buffer
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(name, binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		name:        name,
		binaryPath:  binaryPath,
		execCommand: exec.Command,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *BaseCLIEngine) Name() string { return e.name }

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string { return e.binaryPath }

// BuildArgs constructs arguments for an image build command.
//
// Generated command: <binary> build -f <containerfile> -t <tag> <context>
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Containerfile != "" {
		path := opts.Containerfile
		if !filepath.IsAbs(path) && opts.ContextDir != "" {
			path = filepath.Join(opts.ContextDir, path)
		}
		args = append(args, "-f", path)
	}

	if opts.Tag != "" {
		args = append(args, "-t", opts.Tag)
	}

	args = append(args, opts.ContextDir)
	return args
}

// Build builds an image from a Containerfile.
func (e *BaseCLIEngine) Build(opts BuildOptions) error {
	cmd := e.CreateCommand(e.BuildArgs(opts)...)

	out := opts.Output
	if out == nil {
		out = &bytes.Buffer{}
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext().
			WithOperation("build container image").
			WithResource(opts.Containerfile).
			WithSuggestion("Check the Containerfile syntax for errors").
			WithSuggestion("Ensure base images can be pulled (try: " + e.name + " pull <base-image>)").
			Wrap(err).
			BuildError()
	}
	return nil
}

// ImageExists checks whether an image reference resolves locally.
func (e *BaseCLIEngine) ImageExists(image string) (bool, error) {
	cmd := e.CreateCommand("image", "inspect", image)
	return cmd.Run() == nil, nil
}

// CreateCommand creates an exec.Cmd for the given arguments. Useful when
// the caller needs to customize stdin/stdout/stderr.
func (e *BaseCLIEngine) CreateCommand(args ...string) *exec.Cmd {
	return e.execCommand(e.binaryPath, args...)
}
