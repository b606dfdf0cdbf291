// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the tool configuration. All optional
// fields have their documented defaults resolved here, once, at the
// orchestration boundary; downstream components consume the resolved value
// and never re-default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Toumetis/serverless-python-requirements/internal/issue"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "pyreq"
	// configFileName is the config file name within the config directory.
	configFileName = "config.toml"
)

// configFileOverride holds the --config flag value; empty means the default
// location is used.
var configFileOverride string

// SetConfigFilePathOverride points Load at an explicit config file.
func SetConfigFilePathOverride(path string) {
	configFileOverride = path
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() *Settings {
	return &Settings{
		PipBinary:    DefaultPipBinary,
		ManifestName: DefaultManifestName,
		OutputDir:    DefaultOutputDir,
		Container: ContainerSettings{
			Engine: EngineDocker,
		},
	}
}

// Load reads the configuration file (if any), applies defaults, and
// validates the result.
func Load() (*Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("pip_binary", defaults.PipBinary)
	v.SetDefault("manifest_name", defaults.ManifestName)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("per_function", false)
	v.SetDefault("verbose", false)
	v.SetDefault("container.enabled", false)
	v.SetDefault("container.engine", defaults.Container.Engine)
	v.SetDefault("container.forward_ssh", false)

	path := configFileOverride
	if path == "" {
		dir, err := os.UserConfigDir()
		if err == nil {
			candidate := filepath.Join(dir, AppName, configFileName)
			if fileExists(candidate) {
				path = candidate
			}
		}
	} else if !fileExists(path) {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the path passed via --config").
			Wrap(os.ErrNotExist).
			BuildError()
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check the TOML syntax of the config file").
				Wrap(err).
				BuildError()
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that configuration values have the expected types").
			Wrap(err).
			BuildError()
	}

	applyDefaults(&s)

	if err := s.Validate(); err != nil {
		return nil, issue.WrapWithOperation(err, "validate configuration")
	}
	return &s, nil
}

// applyDefaults resolves the defaults viper cannot express: the default
// image is only applied when container mode is enabled and the user picked
// neither an image nor a containerfile, preserving the XOR invariant.
func applyDefaults(s *Settings) {
	if s.Container.Enabled && s.Container.Image == "" && s.Container.Containerfile == "" {
		s.Container.Image = DefaultImage
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Describe returns a short human-readable summary of where the settings
// came from, for `pyreq config show`.
func Describe() string {
	if configFileOverride != "" {
		return fmt.Sprintf("config file: %s", configFileOverride)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config file: <defaults>"
	}
	path := filepath.Join(dir, AppName, configFileName)
	if !fileExists(path) {
		return "config file: <defaults>"
	}
	return fmt.Sprintf("config file: %s", path)
}
