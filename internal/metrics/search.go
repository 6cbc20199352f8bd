package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline metrics, labelled by search mode.
var (
	SearchRequestsTotal = counterVec("search", "requests_total",
		"Search requests by mode and outcome.", "mode", "status")
	SearchDuration = histogramVec("search", "duration_seconds",
		"End-to-end search pipeline latency.",
		[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}, "mode")
	SearchCandidates = histogramVec("search", "candidates",
		"Documents scored by one vector ranking.",
		prometheus.ExponentialBuckets(1, 4, 8), "mode")
	EnrichmentFailuresTotal = counterVec("search", "enrichment_failures_total",
		"Best-effort enrichments that failed and were left out of the response.", "kind")
)

var searchOnce sync.Once

func RegisterSearchMetrics() {
	searchOnce.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal, SearchDuration, SearchCandidates, EnrichmentFailuresTotal)
	})
}
