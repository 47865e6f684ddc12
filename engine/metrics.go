package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/clientmanager/metric"
)

// engineMetrics holds Prometheus metrics for the coordination engine.
type engineMetrics struct {
	events   *prometheus.CounterVec // By kind and outcome
	commands *prometheus.CounterVec // By target and action

	publishers    prometheus.Gauge
	queries       prometheus.Gauge
	bufferStreams prometheus.Gauge
}

// newEngineMetrics creates and registers engine metrics with the provided registry.
func newEngineMetrics(registry *metric.MetricsRegistry) (*engineMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &engineMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clientmanager",
			Subsystem: "engine",
			Name:      "events_total",
			Help:      "Total number of lifecycle events handled",
		}, []string{"kind", "outcome"}),

		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clientmanager",
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Total number of commands emitted to downstream collaborators",
		}, []string{"target", "action"}),

		publishers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clientmanager",
			Subsystem: "engine",
			Name:      "publishers",
			Help:      "Current number of joined publishers",
		}),

		queries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clientmanager",
			Subsystem: "engine",
			Name:      "queries",
			Help:      "Current number of registered queries",
		}),

		bufferStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clientmanager",
			Subsystem: "engine",
			Name:      "buffer_streams",
			Help:      "Current number of live buffer streams",
		}),
	}

	if err := registry.Register("engine", map[string]prometheus.Collector{
		"events":         m.events,
		"commands":       m.commands,
		"publishers":     m.publishers,
		"queries":        m.queries,
		"buffer_streams": m.bufferStreams,
	}); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *engineMetrics) recordEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, outcome).Inc()
}

func (m *engineMetrics) recordCommand(cmd Command) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(string(cmd.Target()), cmd.Action()).Inc()
}

func (m *engineMetrics) recordSizes(publishers, queries, bufferStreams int) {
	if m == nil {
		return
	}
	m.publishers.Set(float64(publishers))
	m.queries.Set(float64(queries))
	m.bufferStreams.Set(float64(bufferStreams))
}
