// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestEngineNameValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		engine  EngineName
		wantErr bool
	}{
		{name: "docker", engine: EngineDocker, wantErr: false},
		{name: "podman", engine: EnginePodman, wantErr: false},
		{name: "zero value", engine: "", wantErr: false},
		{name: "unknown engine", engine: "containerd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.engine.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEngineName) {
				t.Errorf("error %v is not ErrInvalidEngineName", err)
			}
		})
	}
}

func TestContainerSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings ContainerSettings
		wantErr  bool
	}{
		{
			name:     "disabled needs nothing",
			settings: ContainerSettings{},
			wantErr:  false,
		},
		{
			name:     "enabled with image",
			settings: ContainerSettings{Enabled: true, Image: "python:3.12"},
			wantErr:  false,
		},
		{
			name:     "enabled with containerfile",
			settings: ContainerSettings{Enabled: true, Containerfile: "Dockerfile.build"},
			wantErr:  false,
		},
		{
			name:     "enabled with neither",
			settings: ContainerSettings{Enabled: true},
			wantErr:  true,
		},
		{
			name:     "enabled with both",
			settings: ContainerSettings{Enabled: true, Image: "python:3.12", Containerfile: "Dockerfile"},
			wantErr:  true,
		},
		{
			name:     "invalid engine rejected even when disabled",
			settings: ContainerSettings{Engine: "lxc"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.settings.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	valid := DefaultSettings()
	if err := valid.Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}

	empty := &Settings{}
	if err := empty.Validate(); err == nil {
		t.Error("empty settings passed validation")
	}
}
