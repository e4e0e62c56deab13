// Command fmtcache formats files through the cached engine resolution layer.
//
// Usage:
//
//	fmtcache format [--write] FILE...
//	fmtcache doctor [DIR]
//
// Flags can also be set through FMTCACHE_* environment variables or a YAML
// file at $FMTCACHE_CONFIG (default $XDG_CONFIG_HOME/fmtcache/config.yaml).
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ctx := context.Background()

	app := newApp(configPath())
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
