package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoplane",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"fallback"},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shoplane",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	LaneRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoplane",
			Name:      "retrieval_lane_requests_total",
			Help:      "Retrieval lane outcomes",
		},
		[]string{"lane", "status"}, // status: "ok" / "degraded"
	)

	LaneHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoplane",
			Name:      "retrieval_lane_hits",
			Help:      "Candidates returned per retrieval lane",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 60},
		},
		[]string{"lane"},
	)

	IndexedProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shoplane",
			Name:      "indexed_products",
			Help:      "Products currently held by the vector index",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(LaneRequestsTotal)
	prometheus.MustRegister(LaneHits)
	prometheus.MustRegister(IndexedProducts)
	searchMetricsRegistered = true
}

// LaneObserver feeds retrieval lane outcomes into Prometheus. It satisfies
// the retrieval package's Observer interface.
type LaneObserver struct{}

// LaneResult records one lane outcome.
func (LaneObserver) LaneResult(lane string, ok bool, hits int) {
	status := "ok"
	if !ok {
		status = "degraded"
	}
	LaneRequestsTotal.WithLabelValues(lane, status).Inc()
	LaneHits.WithLabelValues(lane).Observe(float64(hits))
}

// ObserveSearch records one completed search request.
func ObserveSearch(fallback bool, seconds float64) {
	label := "false"
	if fallback {
		label = "true"
	}
	SearchRequestsTotal.WithLabelValues(label).Inc()
	SearchDuration.Observe(seconds)
}
