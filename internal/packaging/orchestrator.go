// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/Toumetis/serverless-python-requirements/internal/config"
	"github.com/Toumetis/serverless-python-requirements/internal/execute"
	"github.com/Toumetis/serverless-python-requirements/internal/manifest"
	"github.com/Toumetis/serverless-python-requirements/internal/pip"
)

// requirementsDirName is the directory under the output root that receives
// the installed packages.
const requirementsDirName = "requirements"

// HookError marks a failure as coming from a post-install hook rather than
// the installer. The hook's own diagnostics pass through unmodified.
type HookError struct {
	Unit string
	Err  error
}

// Error returns the underlying error message verbatim.
func (e *HookError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *HookError) Unwrap() error { return e.Err }

// Orchestrator runs the packaging flow for one service. It owns no state
// beyond its collaborators; every Run call stands alone.
type Orchestrator struct {
	settings    config.Settings
	servicePath string
	builder     *pip.Builder
	executor    *execute.Executor
	logger      *log.Logger
	denied      manifest.DeniedSet
}

// New creates an Orchestrator for one service directory.
func New(settings config.Settings, servicePath string, builder *pip.Builder, executor *execute.Executor, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		settings:    settings,
		servicePath: servicePath,
		builder:     builder,
		executor:    executor,
		logger:      logger,
		denied:      manifest.NewDeniedSet(settings.DeniedPackages),
	}
}

// Run packages the service. In per-function mode each declared unit's module
// is packaged into its own output root; otherwise the whole service is
// packaged in a single pass. The first error aborts the run.
func (o *Orchestrator) Run(units []DeploymentUnit) error {
	if err := os.MkdirAll(filepath.Join(o.servicePath, o.settings.OutputDir), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if o.settings.PerFunction && len(units) > 0 {
		return o.runPerUnit(units)
	}
	return o.runSinglePass()
}

// runSinglePass packages the service root as one unit, taking vendor and
// hook settings from the run configuration.
func (o *Orchestrator) runSinglePass() error {
	unit := DeploymentUnit{
		Name:       "service",
		VendorPath: o.settings.Vendor,
	}
	if len(o.settings.PostInstall) > 0 {
		unit.PostInstallCommand = o.settings.PostInstall[0]
		unit.PostInstallArgs = o.settings.PostInstall[1:]
	}
	return o.packModule(unit, o.settings.OutputDir)
}

// runPerUnit packages each unit's module into its own output root. Several
// units may share a module; the first one claims it and later ones are
// skipped, with a warning when their packaging inputs differ from the
// claimant's.
func (o *Orchestrator) runPerUnit(units []DeploymentUnit) error {
	claimed := map[string]DeploymentUnit{}

	for _, unit := range units {
		module := unit.Module()
		if first, ok := claimed[module]; ok {
			if !samePackagingInputs(first, unit) {
				o.logger.Warn("module already packaged with different settings",
					"module", module, "unit", unit.Name, "packagedFor", first.Name)
			}
			continue
		}
		claimed[module] = unit

		if err := o.packModule(unit, filepath.Join(o.settings.OutputDir, module)); err != nil {
			return err
		}
	}
	return nil
}

// packModule runs the filter/install/vendor/hook sequence for one module.
// outputRoot is relative to the service directory.
func (o *Orchestrator) packModule(unit DeploymentUnit, outputRoot string) error {
	module := unit.Module()
	targetRel := filepath.Join(outputRoot, requirementsDirName)
	filteredRel := filepath.Join(outputRoot, o.settings.ManifestName)
	sourceRel := filepath.Join(module, o.settings.ManifestName)

	if err := os.MkdirAll(o.abs(targetRel), 0o755); err != nil {
		return fmt.Errorf("create install target: %w", err)
	}

	o.logger.Info("filtering requirements", "unit", unit.Name, "manifest", sourceRel)
	if err := manifest.Filter(o.abs(sourceRel), o.abs(filteredRel), o.denied); err != nil {
		return err
	}

	o.logger.Info("installing requirements", "unit", unit.Name, "target", targetRel)
	spec, err := o.builder.BuildInstallCommand(filteredRel, targetRel)
	if err != nil {
		return err
	}
	if outcome := o.executor.Execute(spec); outcome.Err != nil {
		return outcome.Err
	}

	if unit.VendorPath != "" {
		o.logger.Info("copying vendored libraries", "unit", unit.Name, "vendor", unit.VendorPath)
		if err := copyDir(o.abs(unit.VendorPath), o.abs(targetRel)); err != nil {
			return fmt.Errorf("copy vendor directory %s: %w", unit.VendorPath, err)
		}
	}

	if unit.PostInstallCommand != "" {
		o.logger.Info("running post-install hook", "unit", unit.Name, "command", unit.PostInstallCommand)
		spec, err := o.builder.BuildHookCommand(unit.PostInstallCommand, unit.PostInstallArgs, targetRel)
		if err != nil {
			return err
		}
		if outcome := o.executor.Execute(spec); outcome.Err != nil {
			return &HookError{Unit: unit.Name, Err: outcome.Err}
		}
	}

	return nil
}

func (o *Orchestrator) abs(rel string) string {
	return filepath.Join(o.servicePath, rel)
}

// samePackagingInputs reports whether two units sharing a module would have
// produced the same artifact.
func samePackagingInputs(a, b DeploymentUnit) bool {
	return a.VendorPath == b.VendorPath &&
		a.PostInstallCommand == b.PostInstallCommand &&
		slices.Equal(a.PostInstallArgs, b.PostInstallArgs)
}
