// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalogIsComplete(t *testing.T) {
	t.Parallel()

	ids := []Id{
		ManifestReadFailedId,
		InstallerNotFoundId,
		ContainerEngineNotFoundId,
		InstallFailedId,
		HookFailedId,
		SpawnFailedId,
		ConfigLoadFailedId,
		ProjectFileInvalidId,
	}

	for _, id := range ids {
		if Get(id) == nil {
			t.Errorf("Get(%d) = nil, catalog entry missing", id)
		}
	}

	if got, want := len(Values()), len(ids); got != want {
		t.Errorf("len(Values()) = %d, want %d", got, want)
	}
}

func TestCatalogIdsMatch(t *testing.T) {
	t.Parallel()

	for _, iss := range Values() {
		if Get(iss.Id()) != iss {
			t.Errorf("issue %d not retrievable by its own id", iss.Id())
		}
		if iss.MarkdownMsg() == "" {
			t.Errorf("issue %d has empty markdown message", iss.Id())
		}
	}
}

func TestRenderUsesRenderer(t *testing.T) {
	// Not parallel: swaps the package-level render function.
	orig := render
	defer func() { render = orig }()

	var gotIn string
	render = func(in, stylePath string) (string, error) {
		gotIn = in
		return "rendered", nil
	}

	iss := Get(ContainerEngineNotFoundId)
	out, err := iss.Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "rendered" {
		t.Errorf("Render() = %q", out)
	}
	if !strings.Contains(gotIn, "See also:") {
		t.Errorf("rendered markdown missing external links section: %q", gotIn)
	}
}
