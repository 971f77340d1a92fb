package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation and catalog metrics.
var (
	RecommendTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recommend_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end recommendation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	RecommendResultSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "recommend_result_size",
			Help:      "Number of recommendations returned",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 100},
		},
	)

	RecommendFetchRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "recommend_fetch_rounds",
			Help:      "Index queries issued per recommendation",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8},
		},
	)

	RecommendUnderfilledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recommend_underfilled_total",
			Help:      "Recommendations returned with fewer than top_k entries",
		},
	)

	CatalogRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_rows_total",
			Help:      "Catalog rows processed by the loader",
		},
		[]string{"result"}, // "kept" or a drop reason
	)

	CatalogBooks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "catalog_books",
			Help:      "Books in the loaded catalog snapshot",
		},
	)

	CatalogChangesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_changes_total",
			Help:      "Catalog file changes observed after load",
		},
	)

	IngestUpsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_upserted_total",
			Help:      "Index entries written by ingestion",
		},
	)
)

func recommendCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		RecommendTotal,
		RecommendDuration,
		RecommendResultSize,
		RecommendFetchRounds,
		RecommendUnderfilledTotal,
		CatalogRows,
		CatalogBooks,
		CatalogChangesTotal,
		IngestUpsertedTotal,
	}
}
