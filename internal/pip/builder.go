// SPDX-License-Identifier: MPL-2.0

// Package pip turns resolved settings plus per-call paths into command
// specifications for the installer and for post-install hooks. Building a
// command never touches the filesystem or spawns a process, with one
// few exceptions: resolving a Containerfile-based image may build it, probing
// the container uid on non-POSIX hosts runs the engine once, and SSH
// forwarding stats the host credential files to decide which mounts to add.
package pip

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/syntax"

	"github.com/Toumetis/serverless-python-requirements/internal/config"
	"github.com/Toumetis/serverless-python-requirements/internal/container"
	"github.com/Toumetis/serverless-python-requirements/internal/execute"
	"github.com/Toumetis/serverless-python-requirements/internal/fspath"
)

// taskMount is where the service directory is bind-mounted inside the
// container. The path mirrors the Lambda runtime layout the artifact is
// ultimately deployed to.
const taskMount = "/var/task"

// agentSockMount is the in-container path of the forwarded SSH agent socket.
const agentSockMount = "/tmp/ssh_sock"

const (
	pipFixHint    = "Set pip_binary to an installed pip executable (pip_binary)"
	engineFixHint = "Install docker or podman, or disable container mode (container.enabled)"
)

type (
	// Option configures a Builder.
	Option func(*Builder)

	// Builder constructs install and hook command specs from one settings
	// value. A Builder is created per orchestration run; the container image
	// and uid are resolved lazily on the first containerized command and
	// cached for the rest of the run.
	Builder struct {
		settings    config.Settings
		servicePath string
		engine      container.Engine

		posixHost   bool
		homeDir     func() (string, error)
		lookupEnv   func(string) (string, bool)
		statFile    func(string) error
		execCommand execute.ExecCommandFunc

		imageOnce sync.Once
		image     string
		imageErr  error

		uidOnce sync.Once
		uid     string
		uidErr  error
	}
)

// WithHomeDir overrides home directory resolution for SSH forwarding.
func WithHomeDir(fn func() (string, error)) Option {
	return func(b *Builder) { b.homeDir = fn }
}

// WithEnvLookup overrides environment lookup (SSH agent socket discovery).
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(b *Builder) { b.lookupEnv = fn }
}

// WithStatFile overrides the existence check for SSH credential files.
func WithStatFile(fn func(string) error) Option {
	return func(b *Builder) { b.statFile = fn }
}

// WithPosixHost overrides host platform detection for uid resolution.
func WithPosixHost(posix bool) Option {
	return func(b *Builder) { b.posixHost = posix }
}

// WithExecCommand sets a custom exec command function for testing the uid
// probe.
func WithExecCommand(fn execute.ExecCommandFunc) Option {
	return func(b *Builder) { b.execCommand = fn }
}

// NewBuilder creates a command builder. engine must be non-nil when
// settings enable container mode and is ignored otherwise.
func NewBuilder(settings config.Settings, servicePath string, engine container.Engine, opts ...Option) *Builder {
	b := &Builder{
		settings:    settings,
		servicePath: servicePath,
		engine:      engine,
		posixHost: runtime.GOOS != "windows",
		homeDir:   os.UserHomeDir,
		lookupEnv: os.LookupEnv,
		statFile: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
		execCommand: exec.Command,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildInstallCommand describes the installer invocation for one manifest.
// manifestPath and targetDir are relative to the service directory, which is
// also the working directory of the invocation (host-side natively, the task
// mount in container mode).
func (b *Builder) BuildInstallCommand(manifestPath, targetDir string) (execute.CommandSpec, error) {
	containerMode := b.settings.Container.Enabled

	// Extras go last so they can override the core invocation.
	pipArgs := []string{
		"install", "--isolated",
		"-t", fspath.Translate(targetDir, containerMode),
		"-r", fspath.Translate(manifestPath, containerMode),
	}
	pipArgs = append(pipArgs, b.settings.ExtraArgs...)

	if !containerMode {
		return execute.CommandSpec{
			Path:    b.settings.PipBinary,
			Args:    pipArgs,
			Dir:     b.servicePath,
			Tool:    "pip",
			FixHint: pipFixHint,
		}, nil
	}

	argv := append([]string{b.settings.PipBinary}, pipArgs...)
	return b.containerSpec(taskMount, argv)
}

// BuildHookCommand describes a post-install hook invocation. The hook runs
// in the install target directory so it can rewrite the artifact in place.
// In container mode the hook line is re-quoted and handed to /bin/sh, which
// keeps hooks that rely on PATH lookup working across the mount boundary.
func (b *Builder) BuildHookCommand(hookCmd string, hookArgs []string, targetDir string) (execute.CommandSpec, error) {
	if !b.settings.Container.Enabled {
		return execute.CommandSpec{
			Path:    hookCmd,
			Args:    hookArgs,
			Dir:     filepath.Join(b.servicePath, targetDir),
			Tool:    hookCmd,
			FixHint: "Ensure the post_install command is installed and on PATH",
		}, nil
	}

	line, err := quoteCommandLine(append([]string{hookCmd}, hookArgs...))
	if err != nil {
		return execute.CommandSpec{}, fmt.Errorf("quote post-install hook: %w", err)
	}

	workdir := fspath.ContainerJoin(taskMount, fspath.Translate(targetDir, true))
	return b.containerSpec(workdir, []string{"/bin/sh", "-c", line})
}

// containerSpec wraps an in-container argv in the engine run invocation.
//
// Generated command:
//
//	<engine> run --rm -v <service>:/var/task:z [ssh mounts] [-u <uid>]
//	  -w <workdir> <image> <argv...>
func (b *Builder) containerSpec(workdir string, argv []string) (execute.CommandSpec, error) {
	image, err := b.resolveImage()
	if err != nil {
		return execute.CommandSpec{}, err
	}

	args := []string{
		"run", "--rm",
		"-v", b.servicePath + ":" + taskMount + ":z",
	}
	args = append(args, b.sshMountArgs()...)

	uid, err := b.resolveUID(image)
	if err != nil {
		return execute.CommandSpec{}, err
	}
	if uid != "" {
		args = append(args, "-u", uid)
	}

	args = append(args, "-w", workdir)
	args = append(args, image)
	args = append(args, argv...)

	return execute.CommandSpec{
		Path:    b.engine.BinaryPath(),
		Args:    args,
		Dir:     b.servicePath,
		Tool:    b.engine.Name(),
		FixHint: engineFixHint,
	}, nil
}

// sshMountArgs bind-mounts the caller's SSH identity into the container so
// pip can fetch private VCS requirements. Missing pieces are skipped;
// forwarding is best-effort. This stats the host's credential files, the
// only filesystem reads command building performs.
func (b *Builder) sshMountArgs() []string {
	if !b.settings.Container.ForwardSSH {
		return nil
	}

	var args []string
	if home, err := b.homeDir(); err == nil {
		for _, f := range []string{"id_rsa", "known_hosts"} {
			hostPath := filepath.Join(home, ".ssh", f)
			if b.statFile(hostPath) == nil {
				args = append(args, "-v", hostPath+":/root/.ssh/"+f+":z")
			}
		}
	}
	if sock, ok := b.lookupEnv("SSH_AUTH_SOCK"); ok && sock != "" {
		args = append(args,
			"-v", sock+":"+agentSockMount+":z",
			"-e", "SSH_AUTH_SOCK="+agentSockMount,
		)
	}
	return args
}

// resolveImage returns the image reference to run, building it from the
// configured Containerfile when necessary. The result is cached so repeated
// deployment units within one run reuse a single resolution.
func (b *Builder) resolveImage() (string, error) {
	b.imageOnce.Do(func() {
		c := b.settings.Container
		if c.Image != "" {
			b.image = c.Image
			return
		}
		cf := c.Containerfile
		if !filepath.IsAbs(cf) {
			cf = filepath.Join(b.servicePath, cf)
		}
		b.image, b.imageErr = container.EnsureImage(b.engine, cf, b.servicePath)
	})
	return b.image, b.imageErr
}

// resolveUID decides the -u flag for container runs. Files written through
// the bind mount must belong to the invoking user, not root. On POSIX hosts
// the real uid is known directly; elsewhere the mount's owner inside the
// container is probed once via stat.
func (b *Builder) resolveUID(image string) (string, error) {
	b.uidOnce.Do(func() {
		if b.posixHost {
			b.uid = strconv.Itoa(os.Getuid())
			return
		}
		b.uid, b.uidErr = b.probeUID(image)
	})
	return b.uid, b.uidErr
}

// probeUID asks the container which uid owns the task mount. An empty
// result (with nil error) means no -u flag is added.
func (b *Builder) probeUID(image string) (string, error) {
	cmd := b.execCommand(b.engine.BinaryPath(),
		"run", "--rm",
		"-v", b.servicePath+":"+taskMount+":z",
		image,
		"stat", "-c", "%u", taskMount,
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("probe container uid: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// quoteCommandLine renders argv as a single POSIX shell line.
func quoteCommandLine(argv []string) (string, error) {
	words := make([]string, 0, len(argv))
	for _, a := range argv {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			return "", err
		}
		words = append(words, q)
	}
	return strings.Join(words, " "), nil
}
