package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
	ExtractionAttemptsTotal *prometheus.CounterVec
	ExtractionDuration      *prometheus.HistogramVec
	IngestsTotal            *prometheus.CounterVec
	SearchDuration          prometheus.Histogram
	FeatureCacheTotal       *prometheus.CounterVec
)

func Init() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ExtractionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_attempts_total",
			Help: "Feature extraction attempts per provider.",
		},
		[]string{"provider", "status"}, // status: success, failure
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Duration of single provider extraction attempts.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 60},
		},
		[]string{"provider"},
	)

	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_ingests_total",
			Help: "Total number of product ingest attempts.",
		},
		[]string{"status"}, // status: success, failure
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_search_duration_seconds",
			Help:    "End-to-end duration of similarity searches.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 60},
		},
	)

	FeatureCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_cache_requests_total",
			Help: "Feature cache lookups by outcome.",
		},
		[]string{"outcome"}, // outcome: hit, miss
	)
}
