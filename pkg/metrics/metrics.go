// Package metrics exposes the Prometheus registry shared by the connector.
// Metrics are defined next to the code that updates them (client, cache,
// pagination, runner) and registered via promauto on the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all connector metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - mail_requests_total{endpoint, status} (Counter): Provider requests by endpoint and HTTP status
//   - mail_request_duration_seconds{endpoint} (Histogram): Provider request duration by endpoint
//   - mail_errors_total{class} (Counter): Failures by class (client, server, network)
//
// Cache Metrics (pkg/cache):
//   - mail_cache_hits_total (Counter): Cached GET responses served
//   - mail_cache_misses_total (Counter): Cache lookups that went to the provider
//   - mail_cache_errors_total{operation} (Counter): Redis errors by operation
//
// Pagination Metrics (pkg/pagination):
//   - mail_pages_fetched_total{resource} (Counter): List pages fetched
//   - mail_records_collected_total{resource} (Counter): List entries collected
//
// Item Metrics (pkg/runner):
//   - mail_items_total{outcome} (Counter): Input items by outcome (success, captured, aborted)
//
// Example Prometheus Queries:
//
//   # Provider error rate by class
//   sum by (class) (rate(mail_errors_total[5m]))
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(mail_request_duration_seconds_bucket[5m]))
//
//   # Pages per exhaustive fetch
//   rate(mail_pages_fetched_total[5m])
//
//   # Share of items captured as errors
//   rate(mail_items_total{outcome="captured"}[5m]) / sum(rate(mail_items_total[5m]))
