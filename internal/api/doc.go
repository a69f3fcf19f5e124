// Package api serves the phrase index over HTTP.
//
// Routes under the configured prefix (default /api):
//
//	GET {prefix}/search?q=   substring search, at most 50 results
//	GET {prefix}/clip/:id    full phrase record, 404 when absent
//	GET {prefix}/stats       record count and summed clip duration
//	GET {prefix}/health      liveness, independent of storage
//
// Outside the prefix the router also serves clip files under /clips/, the
// static frontend at /, a storage readiness probe at /readyz and Prometheus
// metrics at /metrics.
package api
