package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_rounds_total",
		Help: "Analysis rounds completed.",
	})

	resultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_results_total",
		Help: "Results emitted above the display threshold.",
	}, []string{"scenario", "tenor"})

	opportunitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_opportunities_total",
		Help: "Results classified as tradeable.",
	}, []string{"scenario", "tenor"})
)
