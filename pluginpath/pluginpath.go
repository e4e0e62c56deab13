// Package pluginpath builds the list of directories a formatting engine
// searches for its plugins.
package pluginpath

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jonwraymond/fmtcache/dirsearch"
)

// DefaultDirName is the dependency directory searched for by default.
const DefaultDirName = "node_modules"

// Finder is the ancestor search used by Builder. *dirsearch.Finder
// implements it.
type Finder interface {
	Find(ctx context.Context, start, name string) (string, bool)
}

// Config configures a Builder.
type Config struct {
	// ToolDir is where the tool itself is installed. Defaults to the
	// directory of the running executable.
	ToolDir string
	// DirName defaults to DefaultDirName.
	DirName string
}

// Builder computes plugin search directories.
type Builder struct {
	finder  Finder
	toolDir string
	dirName string
}

// New creates a Builder that searches through finder.
func New(finder Finder, cfg Config) *Builder {
	if cfg.DirName == "" {
		cfg.DirName = DefaultDirName
	}
	if cfg.ToolDir == "" {
		cfg.ToolDir = executableDir()
	}
	return &Builder{
		finder:  finder,
		toolDir: cfg.ToolDir,
		dirName: cfg.DirName,
	}
}

// SearchDirs returns the plugin search directories for cwd, project entries
// first.
//
// For the project, the directory containing the nearest dependency directory
// above cwd is returned. For the tool, the nearest dependency directory above
// ToolDir is returned as-is. Engines expect the project root for the former
// and the dependency directory for the latter.
//
// The result is never nil.
func (b *Builder) SearchDirs(ctx context.Context, cwd string) []string {
	dirs := []string{}

	if found, ok := b.finder.Find(ctx, cwd, b.dirName); ok {
		dirs = append(dirs, filepath.Dir(found))
	}
	if b.toolDir != "" {
		if found, ok := b.finder.Find(ctx, b.toolDir, b.dirName); ok {
			dirs = append(dirs, found)
		}
	}

	return dirs
}

// ToolDir returns the directory tool-local plugins are searched from.
func (b *Builder) ToolDir() string {
	return b.toolDir
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

var _ Finder = (*dirsearch.Finder)(nil)
