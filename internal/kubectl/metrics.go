package kubectl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubectl_gateway_executions_total",
			Help: "Total number of kubectl invocations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	executionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kubectl_gateway_execution_duration_seconds",
			Help:    "Wall time of kubectl child processes in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	inFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kubectl_gateway_executions_in_flight",
			Help: "Number of kubectl child processes currently running",
		},
	)
)
