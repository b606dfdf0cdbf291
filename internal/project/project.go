// SPDX-License-Identifier: MPL-2.0

// Package project reads the service's pyreq.toml, which declares the
// functions of the service and their packaging inputs. The file is optional:
// a service without one is packaged as a single unit from the service root.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Toumetis/serverless-python-requirements/internal/packaging"
)

// FileName is the project file looked up in the service directory.
const FileName = "pyreq.toml"

// ErrProjectFileInvalid is the sentinel error wrapped by ParseError.
var ErrProjectFileInvalid = errors.New("invalid project file")

type (
	// Function is one function declaration in the project file.
	Function struct {
		// Module is the directory holding the function's code and manifest,
		// relative to the service directory. Empty means the service root.
		Module string `toml:"module"`
		// Vendor is a pre-built library directory copied into the function's
		// install target, relative to the service directory.
		Vendor string `toml:"vendor"`
		// PostInstall is a hook run after the function's install; first
		// element is the command, the rest are its arguments.
		PostInstall []string `toml:"post_install"`
	}

	// Project is the parsed project file.
	Project struct {
		Functions map[string]Function `toml:"functions"`
	}

	// ParseError is returned when the project file exists but cannot be
	// decoded.
	ParseError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse project file %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrProjectFileInvalid for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrProjectFileInvalid }

// Load reads the project file from the service directory. A missing file is
// not an error and yields an empty project.
func Load(servicePath string) (*Project, error) {
	path := filepath.Join(servicePath, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Project{}, nil
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &p, nil
}

// Units converts the declared functions into deployment units, ordered by
// function name so repeated runs process them deterministically.
func (p *Project) Units() []packaging.DeploymentUnit {
	names := maps.Keys(p.Functions)
	slices.Sort(names)

	units := make([]packaging.DeploymentUnit, 0, len(names))
	for _, name := range names {
		fn := p.Functions[name]
		unit := packaging.DeploymentUnit{
			Name:       name,
			ModulePath: fn.Module,
			VendorPath: fn.Vendor,
		}
		if len(fn.PostInstall) > 0 {
			unit.PostInstallCommand = fn.PostInstall[0]
			unit.PostInstallArgs = fn.PostInstall[1:]
		}
		units = append(units, unit)
	}
	return units
}
