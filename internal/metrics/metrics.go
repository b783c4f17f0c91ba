package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatches tracks dispatch calls by path and result
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golubbounce_dispatches_total",
			Help: "Total number of dispatch calls",
		},
		[]string{"path", "result"},
	)

	// DeferFallbacks tracks fallback appends to the defer log after a
	// primary recording failure
	DeferFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golubbounce_defer_fallbacks_total",
			Help: "Total number of fallback appends to the defer log",
		},
		[]string{"result"},
	)

	// RepairedDSN tracks malformed status codes replaced with 5.0.0
	RepairedDSN = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "golubbounce_repaired_dsn_total",
			Help: "Total number of malformed DSN codes repaired",
		},
	)
)
