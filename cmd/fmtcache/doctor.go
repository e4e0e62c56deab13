package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/fmtcache/health"
)

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:      "doctor",
		Usage:     "check engine resolution and cache state for a directory",
		UsageText: "fmtcache doctor [DIR]",
		Action:    doctorAction,
	}
}

func doctorAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := runtimeFrom(ctx)
	if err != nil {
		return err
	}

	dir := cmd.Args().First()
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}

	agg := health.NewAggregator()
	agg.Register(health.NewEngineChecker(rt.service, dir))
	for _, c := range rt.service.Caches().Sources() {
		agg.Register(health.NewCacheChecker(c))
	}

	reports := agg.CheckAll(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Result.Status, r.Result.Message)
	}
	fmt.Fprintf(w, "plugin dirs\t\t%s\n", strings.Join(rt.service.SearchDirs(ctx, dir), ", "))
	if err := w.Flush(); err != nil {
		return err
	}

	if overall := health.OverallStatus(reports); overall == health.StatusUnhealthy {
		return fmt.Errorf("fmtcache: %s", overall)
	}
	return nil
}
