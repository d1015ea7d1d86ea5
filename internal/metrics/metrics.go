// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_queries_total",
			Help: "Total number of sales queries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	SalesQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sales_query_duration_seconds",
			Help:    "Duration of sales queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SalesQueryMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sales_query_matched_records",
			Help:    "Number of records matched by browse queries",
			Buckets: prometheus.ExponentialBuckets(1, 10, 7),
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sales_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	OptionsCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_filter_options_cache_requests_total",
			Help: "Filter option cache lookups by field and result (hit, miss, error)",
		},
		[]string{"field", "result"},
	)
)
