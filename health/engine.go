package health

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jonwraymond/fmtcache/engine"
)

// Locator finds the engine for a directory. *format.Service implements it.
type Locator interface {
	Locate(ctx context.Context, dir string) (engine.Engine, bool)
}

// EngineChecker verifies that an engine can be located for a directory and
// that it formats a probe text.
type EngineChecker struct {
	locator Locator
	dir     string
}

// NewEngineChecker creates a checker for dir.
func NewEngineChecker(locator Locator, dir string) *EngineChecker {
	return &EngineChecker{locator: locator, dir: dir}
}

// Name returns "engine".
func (c *EngineChecker) Name() string {
	return "engine"
}

// Check locates the engine and formats a one-line probe with it.
func (c *EngineChecker) Check(ctx context.Context) Result {
	eng, ok := c.locator.Locate(ctx, c.dir)
	if !ok {
		return Unhealthy("no engine for "+c.dir, ErrNoEngine).
			WithDetails(map[string]any{"dir": c.dir})
	}

	details := map[string]any{
		"dir":    c.dir,
		"engine": engineName(eng),
	}

	probe := engine.Options{engine.OptFilepath: filepath.Join(c.dir, "fmtcache-probe.txt")}
	if _, err := eng.Format(ctx, "probe", probe); err != nil {
		return Unhealthy("engine failed to format probe", err).WithDetails(details)
	}
	return Healthy("engine ready").WithDetails(details)
}

func engineName(eng engine.Engine) string {
	if e, ok := eng.(*engine.ExecEngine); ok {
		return e.Path
	}
	return fmt.Sprintf("%T", eng)
}
