package format

import (
	"github.com/jonwraymond/fmtcache/cache"
	"github.com/jonwraymond/fmtcache/dirsearch"
	"github.com/jonwraymond/fmtcache/engine"
	"github.com/jonwraymond/fmtcache/observe"
)

// Caches holds the process-lifetime caches a Service reads through.
type Caches struct {
	// Configs maps absolute file paths to resolved options.
	Configs *cache.LRU[string, engine.Options]
	// Engines maps start directories to engines, negative entries included.
	Engines *cache.LRU[string, engine.Engine]
	// Parents memoizes ancestor directory searches.
	Parents *cache.LRU[dirsearch.Key, string]
}

// NewCaches creates the three caches with the same policy.
func NewCaches(p cache.Policy) Caches {
	return Caches{
		Configs: cache.NewLRU[string, engine.Options]("configs", p),
		Engines: cache.NewLRU[string, engine.Engine]("engines", p),
		Parents: cache.NewLRU[dirsearch.Key, string]("parents", p),
	}
}

// Sources returns the caches as metric sources for observe.ObserveCaches.
func (c Caches) Sources() []observe.CacheSource {
	return []observe.CacheSource{c.Configs, c.Engines, c.Parents}
}
