// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Toumetis/serverless-python-requirements/internal/config"
	"github.com/Toumetis/serverless-python-requirements/internal/container"
	"github.com/Toumetis/serverless-python-requirements/internal/execute"
	"github.com/Toumetis/serverless-python-requirements/internal/issue"
	"github.com/Toumetis/serverless-python-requirements/internal/packaging"
	"github.com/Toumetis/serverless-python-requirements/internal/pip"
	"github.com/Toumetis/serverless-python-requirements/internal/project"
)

var packCmd = &cobra.Command{
	Use:   "pack [service-dir]",
	Short: "Package the service's Python requirements",
	Long: `Package the service's Python requirements into a deployable artifact.

The manifest is filtered against the configured denied packages, installed
into the output directory, optionally merged with a vendor directory, and
finished with an optional post-install hook. With per_function enabled each
function declared in pyreq.toml is packaged separately.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPack,
}

func runPack(cmd *cobra.Command, args []string) error {
	servicePath := "."
	if len(args) == 1 {
		servicePath = args[0]
	}
	servicePath, err := filepath.Abs(servicePath)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return reportFailure(issue.ConfigLoadFailedId, err)
	}
	if verbose {
		cfg.Verbose = true
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: config.AppName})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	proj, err := project.Load(servicePath)
	if err != nil {
		return reportClassified(err)
	}
	if !cfg.PerFunction && len(proj.Functions) > 0 {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
			"pyreq.toml declares functions but per_function is disabled; packaging the service as a single unit")
	}

	var engine container.Engine
	if cfg.Container.Enabled {
		if cfg.Container.Engine == "" {
			engine, err = container.AutoDetectEngine()
		} else {
			engine, err = container.NewEngine(container.EngineType(cfg.Container.Engine))
		}
		if err != nil {
			return reportClassified(err)
		}
		logger.Debug("container engine selected", "engine", engine.Name(), "binary", engine.BinaryPath())
	}

	builder := pip.NewBuilder(*cfg, servicePath, engine)
	executor := execute.NewExecutor(logger, cfg.Verbose)
	orchestrator := packaging.New(*cfg, servicePath, builder, executor, logger)

	if err := orchestrator.Run(proj.Units()); err != nil {
		return reportClassified(err)
	}

	fmt.Println(SuccessStyle.Render("✓") + " requirements packaged into " + CmdStyle.Render(cfg.OutputDir))
	return nil
}

// reportClassified renders the issue card matching the failure class plus
// the styled error message, then converts the error to an exit code.
func reportClassified(err error) error {
	id, styled := classifyPackError(err, verbose)
	return render(id, styled, err)
}

// reportFailure renders a specific issue card for errors whose class is
// already known at the call site.
func reportFailure(id issue.Id, err error) error {
	styled := fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
	return render(id, styled, err)
}

func render(id issue.Id, styled string, err error) error {
	if rendered, renderErr := issue.Get(id).Render("dark"); renderErr == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
	fmt.Fprint(os.Stderr, styled)
	return &ExitError{Code: 1, Err: err}
}
