package format

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/fmtcache/cache"
	"github.com/jonwraymond/fmtcache/config"
	"github.com/jonwraymond/fmtcache/dirsearch"
	"github.com/jonwraymond/fmtcache/engine"
	"github.com/jonwraymond/fmtcache/observe"
	"github.com/jonwraymond/fmtcache/pluginpath"
)

// ErrNilService is returned when a nil *Service is used.
var ErrNilService = errors.New("format: service is nil")

// Skip reasons reported to observe.Metrics.RecordSkip.
const (
	SkipEmptyName = "empty_name"
	SkipNoEngine  = "no_engine"
	SkipIgnored   = "ignored"
)

// Request is one formatting invocation.
type Request struct {
	// Cwd is the absolute working directory of the editor.
	Cwd string
	// FileName is the buffer's file name, absolute or relative to Cwd.
	FileName string
	// Text is the full buffer contents.
	Text string
	// Ignore controls the ignore check. An empty Ignore.Cwd means Cwd.
	Ignore engine.FileInfoOptions
	// Defaults are the lowest-precedence options.
	Defaults engine.Options
}

// Result is the outcome of Format.
type Result struct {
	Text    string
	Changed bool
	Elapsed time.Duration
}

// Config configures a Service.
type Config struct {
	// Policy applies to all three caches when Caches is nil. Zero MaxEntries
	// and MaxAge together mean cache.DefaultPolicy(); use negative values for
	// unbounded caches.
	Policy cache.Policy
	// Caches injects existing caches.
	Caches *Caches

	// Local loads a project-local engine. Optional.
	Local engine.Loader
	// Bundled is the fallback engine loader. Optional.
	Bundled engine.Loader

	// ToolDir and DirName configure plugin search; see pluginpath.Config.
	ToolDir string
	DirName string

	// MaxInFlight bounds concurrent Go jobs. Defaults to runtime.NumCPU().
	MaxInFlight int

	// Middleware wraps each run with tracing, metrics and logging.
	// Defaults to a middleware around Logger only.
	Middleware *observe.Middleware
	// Logger defaults to a no-op logger.
	Logger observe.Logger

	// Stat overrides the filesystem check used by ancestor searches.
	Stat dirsearch.StatFunc
}

// Service runs formatting requests against cached engines and configuration.
//
// Contract:
//   - Concurrency: safe for concurrent use. Concurrent cold requests for the
//     same file may duplicate lookups; nothing is de-duplicated.
//   - Context: ctx reaches the engine; the Service adds no timeout of its own.
//   - Errors: engine errors are returned unwrapped.
type Service struct {
	caches   Caches
	locator  *engine.Locator
	resolver *config.Resolver
	builder  *pluginpath.Builder
	mw       *observe.Middleware
	group    errgroup.Group
}

// New creates a Service.
func New(cfg Config) *Service {
	if cfg.Policy.MaxEntries == 0 && cfg.Policy.MaxAge == 0 {
		p := cache.DefaultPolicy()
		p.Now = cfg.Policy.Now
		cfg.Policy = p
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NewMiddleware(nil, nil, cfg.Logger)
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = runtime.NumCPU()
	}

	caches := NewCaches(cfg.Policy)
	if cfg.Caches != nil {
		caches = *cfg.Caches
	}

	finderOpts := []dirsearch.Option{dirsearch.WithLogger(cfg.Logger)}
	if cfg.Stat != nil {
		finderOpts = append(finderOpts, dirsearch.WithStat(cfg.Stat))
	}
	finder := dirsearch.New(caches.Parents, finderOpts...)

	s := &Service{
		caches: caches,
		locator: engine.NewLocator(caches.Engines, engine.LocatorConfig{
			Local:   cfg.Local,
			Bundled: cfg.Bundled,
			Logger:  cfg.Logger,
		}),
		resolver: config.NewResolver(caches.Configs),
		builder:  pluginpath.New(finder, pluginpath.Config{ToolDir: cfg.ToolDir, DirName: cfg.DirName}),
		mw:       cfg.Middleware,
	}
	s.group.SetLimit(cfg.MaxInFlight)
	return s
}

// Caches returns the caches the Service reads through.
func (s *Service) Caches() Caches {
	return s.caches
}

// Locate returns the engine the Service would use for files in dir.
func (s *Service) Locate(ctx context.Context, dir string) (engine.Engine, bool) {
	return s.locator.Locate(ctx, dir)
}

// SearchDirs returns the plugin search directories for cwd.
func (s *Service) SearchDirs(ctx context.Context, cwd string) []string {
	return s.builder.SearchDirs(ctx, cwd)
}

// Run formats req.Text and returns the result. When formatting is skipped the
// text is returned unchanged with a nil error.
func (s *Service) Run(ctx context.Context, req Request) (string, error) {
	if s == nil {
		return "", ErrNilService
	}
	meta := observe.OpMeta{Name: "run", File: req.FileName, Cwd: req.Cwd}
	return s.mw.Wrap(func(ctx context.Context, meta observe.OpMeta) (string, error) {
		return s.run(ctx, meta, req)
	})(ctx, meta)
}

func (s *Service) run(ctx context.Context, meta observe.OpMeta, req Request) (string, error) {
	if req.FileName == "" {
		s.skip(ctx, meta, SkipEmptyName)
		return req.Text, nil
	}

	fullPath := resolveFile(req.Cwd, req.FileName)

	eng, ok := s.locator.Locate(ctx, filepath.Dir(fullPath))
	if !ok {
		s.skip(ctx, meta, SkipNoEngine)
		return req.Text, nil
	}

	ignore := req.Ignore
	if ignore.Cwd == "" {
		ignore.Cwd = req.Cwd
	}
	info, err := eng.FileInfo(ctx, req.FileName, ignore)
	if err != nil {
		return "", err
	}
	if info.Ignored {
		s.skip(ctx, meta, SkipIgnored)
		return req.Text, nil
	}

	resolved, err := s.resolver.Resolve(ctx, eng, fullPath)
	if err != nil {
		return "", err
	}

	opts := merge(req.Defaults, resolved, s.builder.SearchDirs(ctx, req.Cwd))
	return eng.Format(ctx, req.Text, opts)
}

func (s *Service) skip(ctx context.Context, meta observe.OpMeta, reason string) {
	s.mw.Metrics().RecordSkip(ctx, meta, reason)
	s.mw.Logger().WithOp(meta).Debug(ctx, "format run skipped", observe.Field{Key: "reason", Value: reason})
}

// Format runs req and reports whether the text changed and how long it took.
// On error the Result carries the original text.
func (s *Service) Format(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	out, err := s.Run(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{Text: req.Text, Elapsed: elapsed}, err
	}
	return Result{Text: out, Changed: out != req.Text, Elapsed: elapsed}, nil
}

// Go runs req in the background and calls done, if non-nil, with the
// outcome. It blocks only while MaxInFlight jobs are already running.
func (s *Service) Go(ctx context.Context, req Request, done func(Result, error)) {
	if s == nil {
		if done != nil {
			done(Result{Text: req.Text}, ErrNilService)
		}
		return
	}
	s.group.Go(func() error {
		res, err := s.Format(ctx, req)
		if done != nil {
			done(res, err)
		}
		// Job errors belong to done; the group only tracks completion.
		return nil
	})
}

// Wait blocks until every job started by Go has finished.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	_ = s.group.Wait()
}

func resolveFile(cwd, fileName string) string {
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return filepath.Join(cwd, fileName)
}
