package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchResults counts orchestrator results by provenance tier
	// (network|cache|offline|merged-cache|search-cache|search-network|search-offline|search-empty).
	FetchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdock_fetch_results_total",
			Help: "Total number of fetch results by answering tier",
		},
		[]string{"provenance"},
	)

	// FetchFailures counts fetches that exhausted every fallback tier.
	FetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdock_fetch_failures_total",
			Help: "Total number of fetches with no data available from any tier",
		},
	)

	// OutboxActions counts drained outbox actions by outcome (completed|failed).
	OutboxActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdock_outbox_actions_total",
			Help: "Total number of outbox actions processed during drains",
		},
		[]string{"outcome"},
	)

	// DownloadPages counts prefetched pages by trigger (auto|manual) and outcome.
	DownloadPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdock_download_pages_total",
			Help: "Total number of bulk-download page attempts",
		},
		[]string{"origin", "outcome"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsdock_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
