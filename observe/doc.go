// Package observe provides observability primitives for format runs.
//
// It wraps OpenTelemetry tracing and metrics and a JSON structured logger.
// The format service records runs through Middleware and exports its cache
// counters through ObserveCaches; everything defaults to no-ops.
package observe
