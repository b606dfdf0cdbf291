// SPDX-License-Identifier: MPL-2.0

package pip

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/Toumetis/serverless-python-requirements/internal/config"
	"github.com/Toumetis/serverless-python-requirements/internal/container"
)

// fakeEngine satisfies container.Engine without touching a real CLI.
type fakeEngine struct {
	name       string
	binaryPath string
	existing   map[string]bool
	buildCalls int
	builtTags  []string
}

func (e *fakeEngine) Name() string       { return e.name }
func (e *fakeEngine) BinaryPath() string { return e.binaryPath }
func (e *fakeEngine) Available() bool    { return true }

func (e *fakeEngine) Build(opts container.BuildOptions) error {
	e.buildCalls++
	e.builtTags = append(e.builtTags, opts.Tag)
	return nil
}

func (e *fakeEngine) ImageExists(image string) (bool, error) {
	return e.existing[image], nil
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{name: "docker", binaryPath: "/usr/bin/docker", existing: map[string]bool{}}
}

func nativeSettings() config.Settings {
	return *config.DefaultSettings()
}

func containerSettings(image string) config.Settings {
	s := *config.DefaultSettings()
	s.Container.Enabled = true
	s.Container.Image = image
	return s
}

func TestBuildInstallCommandNative(t *testing.T) {
	t.Parallel()

	settings := nativeSettings()
	settings.ExtraArgs = []string{"--index-url", "https://pypi.example.com/simple"}
	b := NewBuilder(settings, "/srv/app", nil)

	spec, err := b.BuildInstallCommand("requirements.txt", ".serverless/requirements")
	if err != nil {
		t.Fatalf("BuildInstallCommand() error = %v", err)
	}

	if spec.Path != "pip" {
		t.Errorf("Path = %q, want pip", spec.Path)
	}
	// Extra arguments follow the core invocation so they can override it.
	expected := []string{
		"install", "--isolated",
		"-t", ".serverless/requirements",
		"-r", "requirements.txt",
		"--index-url", "https://pypi.example.com/simple",
	}
	if !slices.Equal(spec.Args, expected) {
		t.Errorf("Args = %v, want %v", spec.Args, expected)
	}
	if spec.Dir != "/srv/app" {
		t.Errorf("Dir = %q, want /srv/app", spec.Dir)
	}
	if spec.Tool != "pip" {
		t.Errorf("Tool = %q, want pip", spec.Tool)
	}
}

func TestBuildInstallCommandContainer(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	b := NewBuilder(containerSettings("python:3.12-slim"), "/srv/app", engine,
		WithPosixHost(true))

	spec, err := b.BuildInstallCommand("requirements.txt", ".serverless/requirements")
	if err != nil {
		t.Fatalf("BuildInstallCommand() error = %v", err)
	}

	if spec.Path != "/usr/bin/docker" {
		t.Errorf("Path = %q, want engine binary", spec.Path)
	}
	if spec.Tool != "docker" {
		t.Errorf("Tool = %q, want docker", spec.Tool)
	}
	expected := []string{
		"run", "--rm",
		"-v", "/srv/app:/var/task:z",
		"-u", strconv.Itoa(os.Getuid()),
		"-w", "/var/task",
		"python:3.12-slim",
		"pip", "install", "--isolated",
		"-t", ".serverless/requirements",
		"-r", "requirements.txt",
	}
	if !slices.Equal(spec.Args, expected) {
		t.Errorf("Args = %v, want %v", spec.Args, expected)
	}
}

func TestBuildInstallCommandForwardsSSH(t *testing.T) {
	t.Parallel()

	home := filepath.Join("/home", "tester")
	sshDir := filepath.Join(home, ".ssh")

	settings := containerSettings("python:3.12-slim")
	settings.Container.ForwardSSH = true
	b := NewBuilder(settings, "/srv/app", newFakeEngine(),
		WithPosixHost(true),
		WithHomeDir(func() (string, error) { return home, nil }),
		WithStatFile(func(string) error { return nil }),
		WithEnvLookup(func(key string) (string, bool) {
			if key == "SSH_AUTH_SOCK" {
				return "/run/user/1000/agent.sock", true
			}
			return "", false
		}),
	)

	spec, err := b.BuildInstallCommand("requirements.txt", ".serverless/requirements")
	if err != nil {
		t.Fatalf("BuildInstallCommand() error = %v", err)
	}

	for _, want := range []string{
		filepath.Join(sshDir, "id_rsa") + ":/root/.ssh/id_rsa:z",
		filepath.Join(sshDir, "known_hosts") + ":/root/.ssh/known_hosts:z",
		"/run/user/1000/agent.sock:/tmp/ssh_sock:z",
		"SSH_AUTH_SOCK=/tmp/ssh_sock",
	} {
		if !slices.Contains(spec.Args, want) {
			t.Errorf("Args missing %q: %v", want, spec.Args)
		}
	}
}

func TestBuildInstallCommandSkipsMissingSSHFiles(t *testing.T) {
	t.Parallel()

	settings := containerSettings("python:3.12-slim")
	settings.Container.ForwardSSH = true
	b := NewBuilder(settings, "/srv/app", newFakeEngine(),
		WithPosixHost(true),
		WithHomeDir(func() (string, error) { return filepath.Join("/home", "tester"), nil }),
		WithStatFile(func(string) error { return os.ErrNotExist }),
		WithEnvLookup(func(string) (string, bool) { return "", false }),
	)

	spec, err := b.BuildInstallCommand("requirements.txt", ".serverless/requirements")
	if err != nil {
		t.Fatalf("BuildInstallCommand() error = %v", err)
	}
	for _, arg := range spec.Args {
		if strings.Contains(arg, ".ssh") || arg == "SSH_AUTH_SOCK=/tmp/ssh_sock" {
			t.Errorf("unexpected SSH forwarding arg %q", arg)
		}
	}
}

func TestBuildHookCommandNative(t *testing.T) {
	t.Parallel()

	b := NewBuilder(nativeSettings(), "/srv/app", nil)

	spec, err := b.BuildHookCommand("strip-binaries", []string{"--all"}, ".serverless/requirements")
	if err != nil {
		t.Fatalf("BuildHookCommand() error = %v", err)
	}
	if spec.Path != "strip-binaries" {
		t.Errorf("Path = %q", spec.Path)
	}
	if !slices.Equal(spec.Args, []string{"--all"}) {
		t.Errorf("Args = %v", spec.Args)
	}
	if want := filepath.Join("/srv/app", ".serverless/requirements"); spec.Dir != want {
		t.Errorf("Dir = %q, want %q", spec.Dir, want)
	}
}

func TestBuildHookCommandContainer(t *testing.T) {
	t.Parallel()

	b := NewBuilder(containerSettings("python:3.12-slim"), "/srv/app", newFakeEngine(),
		WithPosixHost(true))

	spec, err := b.BuildHookCommand("find", []string{".", "-name", "*.py[co]", "-delete"}, ".serverless/requirements")
	if err != nil {
		t.Fatalf("BuildHookCommand() error = %v", err)
	}

	n := len(spec.Args)
	if n < 3 || spec.Args[n-3] != "/bin/sh" || spec.Args[n-2] != "-c" {
		t.Fatalf("hook not wrapped in /bin/sh -c: %v", spec.Args)
	}
	line := spec.Args[n-1]
	if want := "find . -name '*.py[co]' -delete"; line != want {
		t.Errorf("shell line = %q, want %q", line, want)
	}

	wIdx := slices.Index(spec.Args, "-w")
	if wIdx < 0 || spec.Args[wIdx+1] != "/var/task/.serverless/requirements" {
		t.Errorf("workdir args wrong: %v", spec.Args)
	}
}

func TestResolveImageBuildsContainerfileOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cf := filepath.Join(dir, "Dockerfile.build")
	if err := os.WriteFile(cf, []byte("FROM python:3.12-slim\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	settings := *config.DefaultSettings()
	settings.Container.Enabled = true
	settings.Container.Containerfile = "Dockerfile.build"

	engine := newFakeEngine()
	b := NewBuilder(settings, dir, engine, WithPosixHost(true))

	first, err := b.BuildInstallCommand("requirements.txt", ".serverless/requirements")
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.BuildHookCommand("true", nil, ".serverless/requirements")
	if err != nil {
		t.Fatal(err)
	}

	if engine.buildCalls != 1 {
		t.Errorf("buildCalls = %d, want 1", engine.buildCalls)
	}
	tag := engine.builtTags[0]
	if !slices.Contains(first.Args, tag) || !slices.Contains(second.Args, tag) {
		t.Errorf("built tag %q not used by both specs", tag)
	}
}

func TestResolveUIDProbesContainerOnNonPosixHost(t *testing.T) {
	t.Parallel()

	var probed [][]string
	b := NewBuilder(containerSettings("python:3.12-slim"), "/srv/app", newFakeEngine(),
		WithPosixHost(false),
		WithExecCommand(func(name string, args ...string) *exec.Cmd {
			probed = append(probed, append([]string{name}, args...))
			cs := []string{"-test.run=TestHelperProcess", "--", name}
			cs = append(cs, args...)
			cmd := exec.Command(os.Args[0], cs...)
			cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", "GO_HELPER_STDOUT=1000\n"}
			return cmd
		}),
	)

	spec, err := b.BuildInstallCommand("requirements.txt", ".serverless/requirements")
	if err != nil {
		t.Fatalf("BuildInstallCommand() error = %v", err)
	}

	uIdx := slices.Index(spec.Args, "-u")
	if uIdx < 0 || spec.Args[uIdx+1] != "1000" {
		t.Errorf("uid args wrong: %v", spec.Args)
	}
	if len(probed) != 1 {
		t.Fatalf("probe invocations = %d, want 1", len(probed))
	}
	if !slices.Contains(probed[0], "stat") {
		t.Errorf("probe did not stat the mount: %v", probed[0])
	}

	// Second command reuses the cached uid.
	if _, err := b.BuildHookCommand("true", nil, "."); err != nil {
		t.Fatal(err)
	}
	if len(probed) != 1 {
		t.Errorf("uid probed again: %d invocations", len(probed))
	}
}

// TestHelperProcess simulates the container engine for the uid probe.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Print(os.Getenv("GO_HELPER_STDOUT"))
	os.Exit(0)
}
