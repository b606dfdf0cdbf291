// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/Toumetis/serverless-python-requirements/internal/config"
	"github.com/Toumetis/serverless-python-requirements/internal/issue"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pyreq configuration",
	Long: `Manage pyreq configuration.

Configuration is stored in:
  - Linux: ~/.config/pyreq/config.toml
  - macOS: ~/Library/Application Support/pyreq/config.toml
  - Windows: %APPDATA%\pyreq\config.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})
}

// showConfig prints the fully resolved settings as TOML, preceded by where
// they came from.
func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return reportFailure(issue.ConfigLoadFailedId, err)
	}

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println(SubtitleStyle.Render(config.Describe()))
	fmt.Println()

	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
