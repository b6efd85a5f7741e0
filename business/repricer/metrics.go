package repricer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RepriceDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reprice_decisions_total",
			Help: "Count of repricing decisions by outcome code and repriced flag.",
		},
		[]string{"code", "repriced"},
	)

	RepriceProductFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reprice_product_failures_total",
			Help: "Count of per-product decision failures swallowed during batch runs.",
		},
	)
)

func init() {
	prometheus.MustRegister(RepriceDecisionsTotal, RepriceProductFailuresTotal)
}
