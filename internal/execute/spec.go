// SPDX-License-Identifier: MPL-2.0

// Package execute runs fully resolved external commands synchronously and
// classifies their outcome. There is no timeout, no retry, and no
// cancellation: a command blocks the caller until it terminates.
package execute

// CommandSpec is the fully resolved, side-effect-free description of one
// external invocation. It is produced by the command builder and consumed
// only by the Executor; once built it is never mutated.
type CommandSpec struct {
	// Path is the executable to invoke.
	Path string
	// Args is the ordered argument list, without the executable itself.
	Args []string
	// Dir is the working directory for the invocation.
	Dir string

	// Tool names the external tool this spec depends on, for tool-missing
	// error reporting (e.g. "pip", "docker").
	Tool string
	// FixHint names the configuration option or action that can supply the
	// tool when it is missing.
	FixHint string
}
