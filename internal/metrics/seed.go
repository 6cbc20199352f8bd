package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SeedDocumentsTotal counts imported documents; result is stored, embedded or embed_failed.
	SeedDocumentsTotal = counterVec("seed", "documents_total", "Seeded documents by outcome.", "result")
	SeedAuthorsTotal   = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "seed",
		Name:      "authors_total",
		Help:      "Seeded directory entries.",
	})
)

// RegisterSeedMetrics registers the seed counters with reg. The seeder uses a
// private registry so it can report totals when it exits.
func RegisterSeedMetrics(reg prometheus.Registerer) {
	reg.MustRegister(SeedDocumentsTotal, SeedAuthorsTotal)
}
