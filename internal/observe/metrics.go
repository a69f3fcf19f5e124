// Package observe provides the OpenTelemetry metrics recorded by the phrase
// lookup service and the Prometheus bridge that exposes them on /metrics.
//
// Tests should build [Metrics] with [NewMetrics] over their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/dshills/phraseclip"

// Search outcomes recorded on [Metrics.SearchRequests].
const (
	OutcomeOK       = "ok"
	OutcomeTooShort = "too_short"
	OutcomeError    = "error"
)

// Metrics holds the metric instruments for the application. All fields are
// safe for concurrent use.
type Metrics struct {
	// SearchRequests counts phrase searches. Use with attribute:
	//   attribute.String("outcome", ok|too_short|error)
	SearchRequests metric.Int64Counter

	// SearchResults tracks how many phrases each successful search returned.
	SearchResults metric.Int64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// resultBuckets covers 0 up to the 50-result cap.
var resultBuckets = []float64{0, 1, 2, 5, 10, 20, 30, 40, 50}

// latencyBuckets defines histogram bucket boundaries in seconds.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SearchRequests, err = m.Int64Counter("phraseclip.search.requests",
		metric.WithDescription("Total phrase searches by outcome."),
	); err != nil {
		return nil, err
	}
	if met.SearchResults, err = m.Int64Histogram("phraseclip.search.results",
		metric.WithDescription("Number of phrases returned per search."),
		metric.WithExplicitBucketBoundaries(resultBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("phraseclip.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call from [otel.GetMeterProvider]. Call [InitProvider] first so the
// instruments land on the Prometheus exporter.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSearch records one search with its outcome. results is only
// observed for successful searches.
func (m *Metrics) RecordSearch(ctx context.Context, outcome string, results int) {
	if m == nil {
		return
	}
	m.SearchRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
	if outcome == OutcomeOK {
		m.SearchResults.Record(ctx, int64(results))
	}
}

// RecordHTTPRequest records the duration of one HTTP request
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("route", route),
			attribute.Int("status", status),
		),
	)
}
