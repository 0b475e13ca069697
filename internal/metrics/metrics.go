package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderpulse_orders_created_total",
			Help: "Total number of demo orders created through the repository",
		},
	)

	StoreMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderpulse_store_mutations_total",
			Help: "Total number of local order store mutations",
		},
		[]string{"operation"},
	)

	RemoteSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderpulse_remote_sync_total",
			Help: "Total number of fire-and-forget writes to the order repository",
		},
		[]string{"operation", "status"},
	)

	SimulatorTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderpulse_simulator_ticks_total",
			Help: "Total number of movement simulator ticks",
		},
		[]string{"tick"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderpulse_events_dropped_total",
			Help: "Order change events dropped because the output queue was full",
		},
	)

	StoredCharts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderpulse_stored_charts",
			Help: "Number of charts in the chart registry",
		},
	)
)

// RecordRemoteSync records the outcome of a repository write.
func RecordRemoteSync(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RemoteSyncs.WithLabelValues(operation, status).Inc()
}
