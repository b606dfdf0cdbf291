// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"fmt"
	"strings"
)

// Status classifies the result of running a CommandSpec.
type Status int

const (
	// StatusOK means the process ran and exited zero.
	StatusOK Status = iota
	// StatusToolMissing means the process could not be started because the
	// executable was not found.
	StatusToolMissing
	// StatusNonZeroExit means the process ran and exited nonzero.
	StatusNonZeroExit
	// StatusSpawnError means the process could not be started for a reason
	// other than a missing executable.
	StatusSpawnError
)

// String returns the status name for logging.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusToolMissing:
		return "toolMissing"
	case StatusNonZeroExit:
		return "nonZeroExit"
	case StatusSpawnError:
		return "spawnError"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result of running one CommandSpec. It exists only for the
// duration of one invocation.
type Outcome struct {
	Status   Status
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is non-nil for every status except StatusOK. For
	// StatusNonZeroExit it is a *NonZeroExitError carrying the captured
	// standard error verbatim.
	Err error
}

// NonZeroExitError reports an installer or hook that ran but exited with a
// failure status. Its message is the captured standard error, so the
// underlying tool's diagnostics reach the user unmodified.
type NonZeroExitError struct {
	ExitCode int
	Stderr   string
}

// Error returns the captured standard error, trimmed of surrounding
// whitespace. Falls back to the exit status when the command wrote nothing.
func (e *NonZeroExitError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("exit status %d", e.ExitCode)
}
