package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// analysesTotal counts analysis requests by kind and outcome
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goanova_analyses_total",
		Help: "Total analysis requests by kind and outcome",
	}, []string{"kind", "outcome"})

	// fitDuration tracks ANOVA fit latency
	fitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "goanova_fit_duration_seconds",
		Help:    "ANOVA model fit duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	})

	// datasetRows tracks the size of uploaded tables
	datasetRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "goanova_dataset_rows",
		Help:    "Rows per successfully loaded dataset",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})
)

// observe records the outcome of one analysis request
func observe(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	analysesTotal.WithLabelValues(kind, outcome).Inc()
}
