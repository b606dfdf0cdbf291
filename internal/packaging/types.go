// SPDX-License-Identifier: MPL-2.0

// Package packaging orchestrates one requirements-packaging run: filter the
// manifest, install it, copy vendored libraries, run the post-install hook.
// Every step is fatal on error; there is no partial-success mode.
package packaging

// DeploymentUnit is one function (or the whole service) to package.
type DeploymentUnit struct {
	// Name identifies the unit in logs.
	Name string
	// ModulePath is the unit's code directory relative to the service
	// directory. Empty means the service root.
	ModulePath string
	// VendorPath is a pre-built library directory copied into the install
	// target after the install, relative to the service directory.
	VendorPath string
	// PostInstallCommand and PostInstallArgs describe a hook run inside the
	// install target after install and vendor copy.
	PostInstallCommand string
	PostInstallArgs    []string
}

// Module returns the unit's module path, defaulting to the service root.
func (u DeploymentUnit) Module() string {
	if u.ModulePath == "" {
		return "."
	}
	return u.ModulePath
}
