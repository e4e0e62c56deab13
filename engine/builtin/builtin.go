package builtin

import (
	"errors"

	"github.com/jonwraymond/fmtcache/engine"
)

// DefaultIgnoreFile is consulted when FileInfoOptions.IgnorePath is empty.
const DefaultIgnoreFile = ".prettierignore"

// DefaultRCNames are the configuration file names searched for, in order.
var DefaultRCNames = []string{
	".prettierrc",
	".prettierrc.json",
	".prettierrc.yaml",
	".prettierrc.yml",
}

// Sentinel errors returned by Format.
var (
	ErrInvalidJSON = errors.New("builtin: invalid JSON")
	ErrInvalidYAML = errors.New("builtin: invalid YAML")
	ErrInvalidGo   = errors.New("builtin: invalid Go source")
)

// Config configures the bundled engine.
type Config struct {
	// IgnoreFile defaults to DefaultIgnoreFile.
	IgnoreFile string
	// RCNames defaults to DefaultRCNames.
	RCNames []string
}

// Engine is the bundled formatting engine. It keeps no state between calls.
type Engine struct {
	ignoreFile string
	rcNames    []string
}

// New creates a bundled engine.
func New(cfg Config) *Engine {
	if cfg.IgnoreFile == "" {
		cfg.IgnoreFile = DefaultIgnoreFile
	}
	if len(cfg.RCNames) == 0 {
		cfg.RCNames = DefaultRCNames
	}
	return &Engine{
		ignoreFile: cfg.IgnoreFile,
		rcNames:    cfg.RCNames,
	}
}

// Loader returns an engine.Loader that always yields a bundled engine.
func Loader(cfg Config) engine.Loader {
	return engine.Bundled(New(cfg))
}

var _ engine.Engine = (*Engine)(nil)
