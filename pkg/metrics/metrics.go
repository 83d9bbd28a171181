package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	StoreOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ieeesou",
		Name:      "store_operations_total",
		Help:      "Document store operations by kind, collection and result",
	}, []string{"op", "collection", "result"})

	Subscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ieeesou",
		Name:      "store_subscriptions_active",
		Help:      "Live store subscriptions currently open",
	})

	AdminSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ieeesou",
		Name:      "admin_sessions_active",
		Help:      "Connected admin WebSocket sessions",
	})
)

func init() {
	registry.MustRegister(
		StoreOps,
		Subscriptions,
		AdminSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveStore records the outcome of one store operation.
func ObserveStore(op, collection string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreOps.WithLabelValues(op, collection, result).Inc()
}

// Handler serves the metrics registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
