package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the synchronous reprice HTTP endpoints
	RepriceRequestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "repricer_request_latency_seconds",
		Help:    "Latency of reprice handler requests",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of batch runs started, by trigger
	BatchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repricer_batch_runs_total",
		Help: "Total reprice batch runs started",
	}, []string{"trigger"})

	// Total prices accepted by the marketplace push endpoint
	PricesPushedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repricer_prices_pushed_total",
		Help: "Total price updates accepted by the marketplace",
	})

	// Total price pushes rejected by the marketplace, by status class
	PushRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repricer_push_rejections_total",
		Help: "Total price updates rejected by the marketplace",
	}, []string{"status"})
)

func Init() {
	prometheus.MustRegister(
		RepriceRequestLatency,
		BatchRunsTotal,
		PricesPushedTotal,
		PushRejectionsTotal,
	)
}
