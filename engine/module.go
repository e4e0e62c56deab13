package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultModulesDir is the directory name project-local packages live under.
const DefaultModulesDir = "node_modules"

// ModuleLoader loads an engine installed as a package in a project's module
// directory.
//
// Starting at dir itself and moving upward, it looks for
// <ancestor>/<ModulesDir>/<Name>/<Bin>. The first executable match is driven
// as a subprocess through ExecEngine.
type ModuleLoader struct {
	// Name is the package directory name, e.g. "prettier".
	Name string
	// Bin is the executable inside the package, relative to its root.
	Bin string
	// ModulesDir defaults to DefaultModulesDir.
	ModulesDir string
}

// Load implements Loader.
func (m ModuleLoader) Load(ctx context.Context, dir string) (Engine, error) {
	bin, ok := m.resolve(dir)
	if !ok {
		return nil, fmt.Errorf("%w: %s not installed above %s", ErrEngineNotFound, m.Name, dir)
	}
	return NewExecEngine(bin), nil
}

func (m ModuleLoader) resolve(dir string) (string, bool) {
	modules := m.ModulesDir
	if modules == "" {
		modules = DefaultModulesDir
	}
	if m.Name == "" || m.Bin == "" {
		return "", false
	}

	current := filepath.Clean(dir)
	for {
		candidate := filepath.Join(current, modules, m.Name, m.Bin)
		if isExecutable(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

var _ Loader = ModuleLoader{}
