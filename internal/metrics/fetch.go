package metrics

import (
	"time"

	"github.com/pagegate/pagegate/internal/observability"
)

// Fetch pipeline metrics following Prometheus conventions
var (
	FetchTotal        = "fetch_requests_total"
	FetchDuration     = "fetch_upstream_duration_ms"
	FetchBytes        = "fetch_response_bytes"
	CacheLookupsTotal = "fetch_cache_lookups_total"
	RateLimitedTotal  = "fetch_rate_limited_total"
	SweepRunsTotal    = "sweep_runs_total"
	SweepRemoved      = "sweep_removed_entries"
)

// RecordFetchOutcome records one pipeline exit with its terminal state
// (success, cache_hit, blocked, invalid_url, upstream_error, timeout,
// network_error, too_large).
func RecordFetchOutcome(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			FetchTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordUpstreamFetch records the duration and size of a completed upstream GET.
func RecordUpstreamFetch(duration time.Duration, bytes int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(
			FetchDuration,
			duration,
			nil,
		)
		_ = observability.TelemetrySystem.Gauge(
			FetchBytes,
			float64(bytes),
			nil,
		)
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CacheLookupsTotal,
			1,
			map[string]string{"result": result},
		)
	}
}

// RecordRateLimited records a rejected request for a client identifier class.
func RecordRateLimited() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitedTotal,
			1,
			nil,
		)
	}
}

// RecordSweep records one run of a background sweep over the named table.
func RecordSweep(table string, removed int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			SweepRunsTotal,
			1,
			map[string]string{"table": table},
		)
		_ = observability.TelemetrySystem.Gauge(
			SweepRemoved,
			float64(removed),
			map[string]string{"table": table},
		)
	}
}
