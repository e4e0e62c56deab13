package engine

import (
	"context"

	"github.com/jonwraymond/fmtcache/cache"
	"github.com/jonwraymond/fmtcache/observe"
)

// Locator resolves the engine to use for a directory.
//
// Results are cached by the directory passed to Locate, not by the directory
// the engine was found in: two start directories sharing one install get
// separate entries. A directory for which no engine loads is cached as a
// negative entry.
//
// Contract:
//   - Concurrency: safe for concurrent use. Concurrent cold lookups for the
//     same directory may both load.
//   - Errors: load failures are logged at debug level and never returned.
type Locator struct {
	cache   cache.Cache[string, Engine]
	local   Loader
	bundled Loader
	logger  observe.Logger
}

// LocatorConfig configures a Locator.
type LocatorConfig struct {
	// Local loads a project-local engine. Optional.
	Local Loader
	// Bundled is the fallback when Local fails. Optional.
	Bundled Loader
	// Logger receives fallback diagnostics. Defaults to a no-op logger.
	Logger observe.Logger
}

// NewLocator creates a Locator that caches engines in c.
func NewLocator(c cache.Cache[string, Engine], cfg LocatorConfig) *Locator {
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	return &Locator{
		cache:   c,
		local:   cfg.Local,
		bundled: cfg.Bundled,
		logger:  cfg.Logger,
	}
}

// Locate returns the engine for dir. The boolean is false when neither the
// local nor the bundled loader produced one.
func (l *Locator) Locate(ctx context.Context, dir string) (Engine, bool) {
	switch got := l.cache.Get(dir); got.State {
	case cache.Hit:
		return got.Value, true
	case cache.NegativeHit:
		return nil, false
	}

	eng, err := load(ctx, l.local, dir)
	if err != nil {
		l.logger.Debug(ctx, "local engine unavailable, using bundled engine",
			observe.Field{Key: "dir", Value: dir},
			observe.Field{Key: "error", Value: err.Error()},
		)
		eng, err = load(ctx, l.bundled, dir)
	}
	if err != nil {
		l.logger.Debug(ctx, "no engine available",
			observe.Field{Key: "dir", Value: dir},
			observe.Field{Key: "error", Value: err.Error()},
		)
		l.cache.SetNegative(dir)
		return nil, false
	}

	l.cache.Set(dir, eng)
	return eng, true
}

func load(ctx context.Context, ld Loader, dir string) (Engine, error) {
	if ld == nil {
		return nil, ErrEngineNotFound
	}
	eng, err := ld.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, ErrEngineNotFound
	}
	return eng, nil
}
