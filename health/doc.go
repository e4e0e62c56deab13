// Package health checks that formatting can actually happen.
//
// A Checker reports one component as Healthy, Degraded or Unhealthy. The
// checkers here cover the two things a user notices when formatting silently
// does nothing: no engine could be located for a directory, and caches that
// are saturated and evicting on every request.
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewEngineChecker(svc, cwd))
//	for _, c := range svc.Caches().Sources() {
//	    agg.Register(health.NewCacheChecker(c))
//	}
//	reports := agg.CheckAll(ctx)
//	overall := health.OverallStatus(reports)
package health
