// Package config resolves and caches per-file formatting options.
package config

import (
	"context"
	"errors"

	"github.com/jonwraymond/fmtcache/cache"
	"github.com/jonwraymond/fmtcache/engine"
)

// ErrNilEngine is returned when Resolve is called without an engine.
var ErrNilEngine = errors.New("config: engine is nil")

// Resolver resolves formatting options per absolute file path.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: engine errors propagate and are never cached.
//   - Ownership: every call returns a fresh copy the caller may modify.
//
// "No configuration" is cached as a positive entry holding only the filepath
// option. Paths rejected by cache.ValidateKey are resolved on every call.
// The engine is always asked with its own cache disabled.
type Resolver struct {
	cache cache.Cache[string, engine.Options]
}

// NewResolver creates a Resolver backed by c.
func NewResolver(c cache.Cache[string, engine.Options]) *Resolver {
	return &Resolver{cache: c}
}

// Resolve returns the options for fullPath as reported by eng, with
// engine.OptFilepath set to fullPath.
func (r *Resolver) Resolve(ctx context.Context, eng engine.Engine, fullPath string) (engine.Options, error) {
	if eng == nil {
		return nil, ErrNilEngine
	}
	load := func(ctx context.Context) (engine.Options, bool, error) {
		resolved, err := eng.ResolveConfig(ctx, fullPath, engine.ResolveConfigOptions{
			EditorConfig: true,
			UseCache:     false,
		})
		if err != nil {
			return nil, false, err
		}
		out := resolved.Clone()
		if out == nil {
			out = engine.Options{}
		}
		out[engine.OptFilepath] = fullPath
		return out, true, nil
	}

	// Paths that are unusable as cache keys are still valid file names.
	if cache.ValidateKey(fullPath) != nil {
		opts, _, err := load(ctx)
		return opts, err
	}

	opts, _, err := cache.Memoize[string, engine.Options](ctx, r.cache, fullPath, false, load)
	if err != nil {
		return nil, err
	}
	return opts.Clone(), nil
}
