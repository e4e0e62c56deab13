package engine

import (
	"context"
	"errors"
	"maps"
)

// Sentinel errors for engine location and invocation.
var (
	ErrEngineNotFound = errors.New("engine: engine not found")
	ErrExecFailed     = errors.New("engine: exec failed")
	ErrBadResponse    = errors.New("engine: exec returned a malformed response")
)

// Well-known option keys. Any other key is passed to the engine untouched.
const (
	OptPrintWidth         = "printWidth"
	OptTabWidth           = "tabWidth"
	OptUseTabs            = "useTabs"
	OptEndOfLine          = "endOfLine"
	OptParser             = "parser"
	OptFilepath           = "filepath"
	OptPluginSearchDirs   = "pluginSearchDirs"
	OptInsertFinalNewline = "insertFinalNewline"
)

// Options is a set of formatting options keyed by option name.
type Options map[string]any

// Clone returns a shallow copy of o. A nil Options clones to nil.
func (o Options) Clone() Options {
	return maps.Clone(o)
}

// FileInfoOptions controls the ignore check.
type FileInfoOptions struct {
	// IgnorePath is the ignore file to consult. Empty means the engine default.
	IgnorePath string `json:"ignorePath,omitempty"`
	// Cwd is the directory relative paths are resolved against.
	Cwd string `json:"cwd,omitempty"`
}

// FileInfo is the engine's answer to an ignore check.
type FileInfo struct {
	Ignored bool `json:"ignored"`
}

// ResolveConfigOptions controls config discovery.
type ResolveConfigOptions struct {
	// EditorConfig includes .editorconfig properties as a lower layer.
	EditorConfig bool `json:"editorconfig"`
	// UseCache lets the engine reuse its own discovery cache.
	UseCache bool `json:"useCache"`
}

// Engine is a formatting engine.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: implementations that block should honor cancellation.
//   - Errors: ResolveConfig returns (nil, nil) when no configuration applies.
//     Format errors describe the input (e.g. a syntax error) and are surfaced
//     to the user as-is.
//   - Ownership: returned Options belong to the caller.
type Engine interface {
	// FileInfo reports whether fileName is excluded by ignore rules.
	FileInfo(ctx context.Context, fileName string, opts FileInfoOptions) (FileInfo, error)

	// ResolveConfig returns the options configured for fullPath.
	ResolveConfig(ctx context.Context, fullPath string, opts ResolveConfigOptions) (Options, error)

	// Format returns text formatted according to opts.
	Format(ctx context.Context, text string, opts Options) (string, error)
}
