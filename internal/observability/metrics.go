package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsMirror mirrors CounterRegistry state into real Prometheus
// counters for operational dashboards. It is strictly additive: the
// deterministic observability_snapshot.json produced by Fabric.Render
// remains the sole source of truth for reproducibility checks (spec §5).
type MetricsMirror struct {
	registry *prometheus.Registry
	gauge    *prometheus.GaugeVec
}

// NewMetricsMirror constructs a mirror registered against a fresh
// Prometheus registry, grounded on the plain prometheus.NewRegistry
// usage seen across the retrieved pack's integration tests.
func NewMetricsMirror() *MetricsMirror {
	reg := prometheus.NewRegistry()
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "taxonomy",
		Name:      "pipeline_counter",
		Help:      "Mirrors observability.CounterRegistry counters by phase and name.",
	}, []string{"phase", "counter"})
	reg.MustRegister(gauge)
	return &MetricsMirror{registry: reg, gauge: gauge}
}

// Registry exposes the underlying Prometheus registry for an HTTP
// /metrics handler to serve.
func (m *MetricsMirror) Registry() *prometheus.Registry {
	return m.registry
}

// Sync overwrites the mirrored gauges with the absolute values from a
// counter snapshot. Labelled counters are flattened as
// "<name>:<label>".
func (m *MetricsMirror) Sync(snapshot CounterSnapshot) {
	for phase, counters := range snapshot.Counters {
		for name, value := range counters {
			switch v := value.(type) {
			case int64:
				m.gauge.WithLabelValues(phase, name).Set(float64(v))
			case map[string]int64:
				for label, count := range v {
					m.gauge.WithLabelValues(phase, name+":"+label).Set(float64(count))
				}
			}
		}
	}
}
