package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/fmtcache/cache"
	"github.com/jonwraymond/fmtcache/engine"
	"github.com/jonwraymond/fmtcache/engine/builtin"
	"github.com/jonwraymond/fmtcache/format"
	"github.com/jonwraymond/fmtcache/observe"
)

const appName = "fmtcache"

// runtimeKey carries the *appRuntime built in Before to the actions.
type runtimeKey struct{}

// appRuntime is the state shared by all commands of one invocation.
type appRuntime struct {
	observer observe.Observer
	service  *format.Service
	logger   observe.Logger
}

// configPath returns the YAML file flag values fall back to.
func configPath() string {
	if p := os.Getenv("FMTCACHE_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// sources chains an env var and a config file key, in that order.
func sources(env, key, path string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		cli.EnvVar(env),
		yaml.YAML(key, altsrc.StringSourcer(path)),
	)
}

func newApp(cfgPath string) *cli.Command {
	return &cli.Command{
		Name:  appName,
		Usage: "format files through cached engine and config resolution",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level: debug, info, warn or error",
				Value:   "warn",
				Sources: sources("FMTCACHE_LOG_LEVEL", "log_level", cfgPath),
			},
			&cli.StringFlag{
				Name:    "telemetry",
				Usage:   "trace and metric exporter: none, stdout, otlp or prometheus",
				Value:   "none",
				Sources: sources("FMTCACHE_TELEMETRY", "telemetry", cfgPath),
			},
			&cli.StringFlag{
				Name:    "engine-package",
				Usage:   "project-local engine package under node_modules",
				Value:   "fmtcache-engine",
				Sources: sources("FMTCACHE_ENGINE_PACKAGE", "engine.package", cfgPath),
			},
			&cli.StringFlag{
				Name:    "engine-bin",
				Usage:   "engine executable, relative to the package directory",
				Value:   "bin/fmtcache-engine",
				Sources: sources("FMTCACHE_ENGINE_BIN", "engine.bin", cfgPath),
			},
			&cli.IntFlag{
				Name:    "cache-entries",
				Usage:   "entries kept per cache",
				Value:   cache.DefaultPolicy().MaxEntries,
				Sources: sources("FMTCACHE_CACHE_ENTRIES", "cache.entries", cfgPath),
			},
			&cli.DurationFlag{
				Name:    "cache-age",
				Usage:   "how long cached lookups stay valid",
				Value:   cache.DefaultPolicy().MaxAge,
				Sources: sources("FMTCACHE_CACHE_AGE", "cache.age", cfgPath),
			},
			&cli.IntFlag{
				Name:    "jobs",
				Usage:   "files formatted concurrently",
				Sources: sources("FMTCACHE_JOBS", "jobs", cfgPath),
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			formatCommand(cfgPath),
			doctorCommand(),
		},
	}
}

// setup builds the observer and the format service from the root flags.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	exporter := cmd.String("telemetry")
	level := cmd.String("log-level")

	obsCfg := observe.Config{
		ServiceName: appName,
		Version:     version,
		Tracing:     observe.TracingConfig{Enabled: exporter == "stdout" || exporter == "otlp", Exporter: exporter, SamplePct: 1.0},
		Metrics:     observe.MetricsConfig{Enabled: exporter != "none", Exporter: exporter},
		Logging:     observe.LoggingConfig{Enabled: true, Level: level},
		Output:      os.Stderr,
	}
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return ctx, err
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return ctx, err
	}

	svc := format.New(format.Config{
		Policy: cache.Policy{
			MaxEntries: cmd.Int("cache-entries"),
			MaxAge:     cmd.Duration("cache-age"),
		},
		Local: engine.ModuleLoader{
			Name: cmd.String("engine-package"),
			Bin:  cmd.String("engine-bin"),
		},
		Bundled:     builtin.Loader(builtin.Config{}),
		MaxInFlight: cmd.Int("jobs"),
		Middleware:  mw,
		Logger:      obs.Logger(),
	})

	if _, err := observe.ObserveCaches(obs.Meter(), svc.Caches().Sources()...); err != nil {
		return ctx, err
	}

	rt := &appRuntime{observer: obs, service: svc, logger: obs.Logger()}
	return context.WithValue(ctx, runtimeKey{}, rt), nil
}

func teardown(ctx context.Context, _ *cli.Command) error {
	rt, err := runtimeFrom(ctx)
	if err != nil {
		return nil
	}
	rt.service.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return rt.observer.Shutdown(shutdownCtx)
}

var errNoRuntime = errors.New("fmtcache: not initialized")

func runtimeFrom(ctx context.Context) (*appRuntime, error) {
	rt, ok := ctx.Value(runtimeKey{}).(*appRuntime)
	if !ok || rt == nil {
		return nil, errNoRuntime
	}
	return rt, nil
}
