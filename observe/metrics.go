package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/fmtcache/cache"
)

// Metrics records run metrics for the format service.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRun records a completed run with duration and error status.
	RecordRun(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordSkip records a run that returned its input without formatting.
	RecordSkip(ctx context.Context, meta OpMeta, reason string)
}

// CacheSource is a cache whose counters can be exported.
// *cache.LRU satisfies it for any key and value type.
type CacheSource interface {
	Name() string
	Len() int
	Stats() cache.Stats
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	skipCount    metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"fmtcache.run.total",
		metric.WithDescription("Total number of format runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"fmtcache.run.errors",
		metric.WithDescription("Total number of failed format runs"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	skipCount, err := meter.Int64Counter(
		"fmtcache.run.skipped",
		metric.WithDescription("Runs that returned the input unchanged without formatting"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"fmtcache.run.duration_ms",
		metric.WithDescription("Format run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		skipCount:    skipCount,
		durationHist: durationHist,
	}, nil
}

// RecordRun records metrics for a run.
func (m *metricsImpl) RecordRun(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("op.name", meta.Name))

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// RecordSkip records a short-circuited run.
func (m *metricsImpl) RecordSkip(ctx context.Context, meta OpMeta, reason string) {
	m.skipCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op.name", meta.Name),
		attribute.String("reason", reason),
	))
}

// ObserveCaches registers asynchronous instruments that report the counters
// of each cache on every collection.
func ObserveCaches(meter metric.Meter, caches ...CacheSource) (metric.Registration, error) {
	lookups, err := meter.Int64ObservableCounter(
		"fmtcache.cache.lookups",
		metric.WithDescription("Cache reads by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64ObservableCounter(
		"fmtcache.cache.evictions",
		metric.WithDescription("Entries removed for capacity or age"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	entries, err := meter.Int64ObservableGauge(
		"fmtcache.cache.entries",
		metric.WithDescription("Entries currently held"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, c := range caches {
			s := c.Stats()
			name := attribute.String("cache", c.Name())

			o.ObserveInt64(lookups, s.Hits, metric.WithAttributes(name, attribute.String("result", cache.Hit.String())))
			o.ObserveInt64(lookups, s.NegativeHits, metric.WithAttributes(name, attribute.String("result", cache.NegativeHit.String())))
			o.ObserveInt64(lookups, s.Misses, metric.WithAttributes(name, attribute.String("result", cache.Miss.String())))
			o.ObserveInt64(evictions, s.Evictions, metric.WithAttributes(name, attribute.String("cause", "capacity")))
			o.ObserveInt64(evictions, s.Expirations, metric.WithAttributes(name, attribute.String("cause", "age")))
			o.ObserveInt64(entries, int64(c.Len()), metric.WithAttributes(name))
		}
		return nil
	}, lookups, evictions, entries)
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(ctx context.Context, meta OpMeta, duration time.Duration, err error) {}
func (nopMetrics) RecordSkip(ctx context.Context, meta OpMeta, reason string)                   {}
