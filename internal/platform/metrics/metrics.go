// Package metrics holds the custom Prometheus collectors for the service.
// HTTP request metrics come from echoprometheus; this package only covers
// the upload pipeline and its collaborators.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jivana"

// UploadsTotal counts upload attempts by the stage they ended at.
// Label:
//   - outcome: "ok", "invalid", "store_failed", "record_failed", "update_failed"
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Blood test uploads by final outcome.",
	},
	[]string{"outcome"},
)

// UploadBytes observes accepted upload sizes.
var UploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_bytes",
		Help:      "Size of accepted report files in bytes.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB .. 16MiB
	},
)

// AnalysesTotal counts analyses by where the answer came from.
// Label:
//   - source: "model", "cache", "dev_placeholder", "unavailable_placeholder"
var AnalysesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Blood test analyses by source.",
	},
	[]string{"source"},
)

// SharesTotal counts sharing operations.
// Label:
//   - op: "share", "resolve", "resolve_miss", "deactivate"
var SharesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shares_total",
		Help:      "Share grant operations.",
	},
	[]string{"op"},
)

// HTTPRequestsTotal counts served requests by route pattern and status.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration observes request latency by route pattern.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
