// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"bytes"
	"errors"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Toumetis/serverless-python-requirements/internal/issue"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(name string, arg ...string) *exec.Cmd

	// ExecutorOption configures an Executor.
	ExecutorOption func(*Executor)

	// Executor runs prepared commands synchronously, captures their output,
	// and classifies the result. The caller is suspended until the child
	// process terminates.
	Executor struct {
		execCommand ExecCommandFunc
		logger      *log.Logger
		verbose     bool
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) ExecutorOption {
	return func(e *Executor) {
		e.execCommand = fn
	}
}

// NewExecutor creates an Executor that forwards nonempty stdout of
// successful commands to logger when verbose is enabled.
func NewExecutor(logger *log.Logger, verbose bool, opts ...ExecutorOption) *Executor {
	e := &Executor{
		execCommand: exec.Command,
		logger:      logger,
		verbose:     verbose,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs spec to completion and classifies the result.
//
// Classification rules, in order:
//   - executable not found: StatusToolMissing, with a message naming the
//     missing tool and the configuration option that can fix it
//   - any other start failure: StatusSpawnError, propagating the cause
//   - nonzero exit: StatusNonZeroExit, with captured stderr as the detail
//   - otherwise: StatusOK
func (e *Executor) Execute(spec CommandSpec) Outcome {
	cmd := e.execCommand(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := Outcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
		out.Status = StatusOK
		if e.verbose && strings.TrimSpace(out.Stdout) != "" {
			e.logger.Info(strings.TrimSpace(out.Stdout))
		}

	case isExitError(err):
		var exitErr *exec.ExitError
		errors.As(err, &exitErr)
		out.Status = StatusNonZeroExit
		out.ExitCode = exitErr.ExitCode()
		out.Err = &NonZeroExitError{ExitCode: exitErr.ExitCode(), Stderr: out.Stderr}

	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist):
		out.Status = StatusToolMissing
		out.ExitCode = -1
		out.Err = toolMissingError(spec, err)

	default:
		out.Status = StatusSpawnError
		out.ExitCode = -1
		out.Err = issue.WrapWithOperation(err, "start "+spec.Tool)
	}

	return out
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// toolMissingError builds the actionable error for a missing executable.
// The spec carries the context-specific hint, so a missing installer binary
// and a missing container engine produce different remediation text.
func toolMissingError(spec CommandSpec, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("locate " + spec.Tool).
		WithResource(spec.Path).
		Wrap(cause)
	if spec.FixHint != "" {
		ctx.WithSuggestion(spec.FixHint)
	}
	return ctx.BuildError()
}
