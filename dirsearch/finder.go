package dirsearch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jonwraymond/fmtcache/cache"
	"github.com/jonwraymond/fmtcache/observe"
)

// Key identifies one memoized search.
type Key struct {
	Start string
	Name  string
}

// StatFunc reports file information for a path. It matches os.Stat.
type StatFunc func(name string) (fs.FileInfo, error)

// Option configures a Finder.
type Option func(*Finder)

// WithStat replaces the function used to check candidate directories.
func WithStat(stat StatFunc) Option {
	return func(f *Finder) {
		if stat != nil {
			f.stat = stat
		}
	}
}

// WithLogger sets the logger that records filesystem walks at debug level.
func WithLogger(logger observe.Logger) Option {
	return func(f *Finder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Finder performs memoized upward directory searches.
//
// Contract:
//   - Concurrency: safe for concurrent use. Two concurrent searches for the
//     same Key on a cold cache may both walk the filesystem.
//   - Errors: filesystem errors are treated as "not found" and never returned.
type Finder struct {
	cache  cache.Cache[Key, string]
	stat   StatFunc
	logger observe.Logger
}

// New creates a Finder backed by c.
func New(c cache.Cache[Key, string], opts ...Option) *Finder {
	f := &Finder{
		cache:  c,
		stat:   os.Stat,
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the first ancestor of start that contains a directory called
// name, joined with name. The boolean is false when no ancestor has one.
func (f *Finder) Find(ctx context.Context, start, name string) (string, bool) {
	key := Key{Start: start, Name: name}

	switch got := f.cache.Get(key); got.State {
	case cache.Hit:
		return got.Value, true
	case cache.NegativeHit:
		return "", false
	}

	dir, ok := f.walk(start, name)
	f.logger.Debug(ctx, "ancestor search walked filesystem",
		observe.Field{Key: "start", Value: start},
		observe.Field{Key: "name", Value: name},
		observe.Field{Key: "found", Value: dir},
	)
	if ok {
		f.cache.Set(key, dir)
		return dir, true
	}
	f.cache.SetNegative(key)
	return "", false
}

func (f *Finder) walk(start, name string) (string, bool) {
	current := start
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		candidate := filepath.Join(parent, name)
		if f.isDir(candidate) {
			return candidate, true
		}
		current = parent
	}
}

func (f *Finder) isDir(path string) bool {
	info, err := f.stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
